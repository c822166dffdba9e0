package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/tracemap/internal/config"
	"github.com/mvp-joe/tracemap/internal/report"
	"github.com/mvp-joe/tracemap/internal/resolver"
	"github.com/mvp-joe/tracemap/internal/storage"
)

var (
	resolveFormat string
	resolveDoc    bool
	resolveSave   bool
	resolveQuiet  bool
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve FILE",
	Short: "Resolve a template's import tree",
	Long: `Resolve loads a template, follows its import directives recursively, and
assembles the final document.

Per-import failures do not abort the run: the report shows how many imports
succeeded per module and renders each failure as file:line:column. The exit
code is non-zero only when the root template itself cannot be loaded.

Examples:
  # Report import outcomes for a template tree
  tracemap resolve app.json

  # Print the assembled document as YAML
  tracemap resolve app.json --doc --format yaml

  # Persist the run as a snapshot for later graph and search queries
  tracemap resolve app.json --save
`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVarP(&resolveFormat, "format", "f", "text", "Output format: text, json, or yaml")
	resolveCmd.Flags().BoolVar(&resolveDoc, "doc", false, "Print the assembled document instead of the report")
	resolveCmd.Flags().BoolVar(&resolveSave, "save", false, "Persist the resolution as a snapshot")
	resolveCmd.Flags().BoolVarP(&resolveQuiet, "quiet", "q", false, "Disable progress output")
}

func runResolve(cmd *cobra.Command, args []string) error {
	return executeResolve(os.Stdout, args[0], resolveFormat, resolveDoc, resolveSave, resolveQuiet)
}

func executeResolve(out io.Writer, path, formatName string, printDoc, save, quiet bool) error {
	ctx := context.Background()

	file, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	baseDir := filepath.Dir(file)
	opts := cfg.ResolverOptions(baseDir)

	progress := NewCLIProgressReporter(quiet || !cfg.Resolver.Progress)
	opts.Progress = progress.OnFileLoaded

	r, err := resolver.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}
	defer r.Close()

	res, err := r.Resolve(ctx, file)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}
	progress.OnComplete(res.Stats)

	formatter := report.NewFormatter(format, report.WithBaseDir(baseDir))

	var rendered string
	if printDoc {
		rendered, err = formatter.Document(res.Root.Document)
	} else {
		rendered, err = formatter.Resolution(res)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, rendered)

	if save {
		id, err := saveSnapshot(cfg, res)
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "Saved snapshot %s\n", id)
		}
	}

	return nil
}

func saveSnapshot(cfg *config.Config, res *resolver.Resolution) (string, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	store, err := storage.Open(cfg.StoragePath(rootDir))
	if err != nil {
		return "", fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	id, err := store.SaveSnapshot(res)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return id, nil
}
