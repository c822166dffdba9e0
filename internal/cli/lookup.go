package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/tracemap/internal/config"
	"github.com/mvp-joe/tracemap/internal/position"
	"github.com/mvp-joe/tracemap/internal/report"
	"github.com/mvp-joe/tracemap/internal/resolver"
)

var (
	lookupModule  string
	lookupFormat  string
	lookupExplain bool
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup FILE PATH",
	Short: "Trace a document path to its source position",
	Long: `Lookup resolves a template tree and reports where a value is defined:
file, line, and column.

A PATH starting with / is treated as a JSON Pointer; anything else as a
dotted path (items[2].name style). When the exact path has no entry the
nearest enclosing entry answers instead, and array paths fall back to
wildcard patterns, so lookup always returns a usable position.

Examples:
  tracemap lookup app.json header.title
  tracemap lookup app.json /pages/0/id
  tracemap lookup app.json /label --module ./components/button.json
  tracemap lookup app.json items[2].name --explain
`,
	Args: cobra.ExactArgs(2),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringVarP(&lookupFormat, "format", "f", "text", "Output format: text, json, or yaml")
	lookupCmd.Flags().StringVarP(&lookupModule, "module", "m", "", "Look up inside this imported module instead of the root")
	lookupCmd.Flags().BoolVar(&lookupExplain, "explain", false, "Explain which lookup strategy produced the position")
}

func runLookup(cmd *cobra.Command, args []string) error {
	return executeLookup(os.Stdout, args[0], args[1], lookupModule, lookupFormat, lookupExplain)
}

func executeLookup(out io.Writer, path, target, module, formatName string, explain bool) error {
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
	r, err := resolver.New(cfg.ResolverOptions(baseDir))
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}
	defer r.Close()

	res, err := r.Resolve(ctx, file)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	if module != "" {
		if module, err = filepath.Abs(module); err != nil {
			return fmt.Errorf("failed to resolve module path: %w", err)
		}
	}

	// A leading slash marks a JSON Pointer; anything else is dotted.
	dotted, pointer := target, ""
	if strings.HasPrefix(target, "/") {
		dotted, pointer = "", target
	}

	loc, ok := res.Locate(module, dotted, pointer)
	if !ok {
		return fmt.Errorf("module not part of this resolution: %s", module)
	}

	formatter := report.NewFormatter(format, report.WithBaseDir(baseDir))
	rendered, err := formatter.Location(loc)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, rendered)

	if explain {
		fmt.Fprintf(out, "match: %s\n", describeMatch(loc.Match))
	}

	return nil
}

// describeMatch explains a lookup result's match kind in one line.
func describeMatch(m position.Match) string {
	switch m {
	case position.MatchPointer:
		return "pointer (exact JSON Pointer entry)"
	case position.MatchPath:
		return "path (exact dotted-path entry)"
	case position.MatchPattern:
		return "pattern (wildcard entry covering the array index)"
	case position.MatchAncestor:
		return "ancestor (nearest enclosing entry; the exact path has none)"
	default:
		return "default (no entry matched; document root position)"
	}
}
