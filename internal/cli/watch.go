package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/tracemap/internal/config"
	"github.com/mvp-joe/tracemap/internal/discovery"
	"github.com/mvp-joe/tracemap/internal/report"
	"github.com/mvp-joe/tracemap/internal/resolver"
	"github.com/mvp-joe/tracemap/internal/watcher"
)

var watchDebounce time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Watch a directory and re-resolve templates on change",
	Long: `Watch monitors a directory tree for template changes and re-resolves every
affected tree on save, printing a fresh report per change batch.

A change to an imported module re-resolves the templates whose trees
contain it, not just the file itself. Rapid saves coalesce into one run.

Example:
  tracemap watch ./templates
`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce,
		"How long to wait for further changes before re-resolving")
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Stopping watch...")
		cancel()
	}()

	return executeWatch(ctx, os.Stdout, args[0], watchDebounce)
}

func executeWatch(ctx context.Context, out io.Writer, dir string, debounce time.Duration) error {
	rootDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finder, err := discovery.NewFinder(rootDir, cfg.Paths.Templates, cfg.Paths.Ignore)
	if err != nil {
		return fmt.Errorf("failed to build template finder: %w", err)
	}

	r, err := resolver.New(cfg.ResolverOptions(rootDir))
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}
	defer r.Close()

	runner := &watchRunner{
		out:       out,
		resolver:  r,
		formatter: report.NewFormatter(report.FormatText, report.WithBaseDir(rootDir)),
		members:   make(map[string]map[string]bool),
	}

	templates, err := finder.Find()
	if err != nil {
		return fmt.Errorf("failed to discover templates: %w", err)
	}
	fmt.Fprintf(out, "Watching %s (%d templates)\n", rootDir, len(templates))
	runner.resolveAll(ctx, templates)

	w, err := watcher.New(rootDir, finder, func(paths []string) {
		runner.onChange(ctx, paths)
	}, &watcher.Options{Debounce: debounce})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	w.Start(ctx)
	<-ctx.Done()
	w.Stop()
	return nil
}

// watchRunner re-resolves affected template trees per change batch. It
// tracks which roots' trees contain each module so a save to a shared
// component re-resolves every tree that imports it.
type watchRunner struct {
	out       io.Writer
	resolver  *resolver.Resolver
	formatter report.Formatter

	mu      sync.Mutex
	members map[string]map[string]bool // module path -> roots whose tree contains it
}

func (wr *watchRunner) resolveAll(ctx context.Context, roots []string) {
	for _, root := range roots {
		if ctx.Err() != nil {
			return
		}
		wr.resolveOne(ctx, root)
	}
}

func (wr *watchRunner) resolveOne(ctx context.Context, root string) {
	res, err := wr.resolver.Resolve(ctx, root)
	if err != nil {
		fmt.Fprintf(wr.out, "%s: %v\n", root, err)
		wr.forget(root)
		return
	}

	rendered, err := wr.formatter.Resolution(res)
	if err != nil {
		fmt.Fprintf(wr.out, "%s: %v\n", root, err)
		return
	}
	fmt.Fprintln(wr.out, rendered)

	wr.mu.Lock()
	defer wr.mu.Unlock()
	for path := range wr.members {
		delete(wr.members[path], root)
	}
	for path := range res.Modules {
		if wr.members[path] == nil {
			wr.members[path] = make(map[string]bool)
		}
		wr.members[path][root] = true
	}
}

// forget drops a root whose template no longer resolves.
func (wr *watchRunner) forget(root string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	for path := range wr.members {
		delete(wr.members[path], root)
	}
}

func (wr *watchRunner) onChange(ctx context.Context, paths []string) {
	affected := wr.affectedRoots(paths)
	fmt.Fprintf(wr.out, "\n--- %s  %d changed, %d trees affected\n",
		time.Now().Format("15:04:05"), len(paths), len(affected))
	wr.resolveAll(ctx, affected)
}

func (wr *watchRunner) affectedRoots(paths []string) []string {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	set := make(map[string]bool)
	for _, path := range paths {
		if roots, ok := wr.members[path]; ok && len(roots) > 0 {
			for root := range roots {
				set[root] = true
			}
			continue
		}
		// A template not in any known tree starts its own.
		set[path] = true
	}

	out := make([]string, 0, len(set))
	for root := range set {
		out = append(out, root)
	}
	sort.Strings(out)
	return out
}
