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
	"github.com/mvp-joe/tracemap/internal/resolver"
	"github.com/mvp-joe/tracemap/internal/storage"
)

var (
	graphTopo   bool
	graphRoots  bool
	graphLeaves bool
	graphCycles bool
	graphDOT    bool
	graphSaved  bool
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph FILE",
	Short: "Show the dependency graph of a template tree",
	Long: `Graph resolves a template tree and prints which modules import which.

The default listing shows each module with its direct imports. Flags select
alternative views: topological order, roots, leaves, cycle traces, or
Graphviz DOT for rendering. With --saved the graph comes from the latest
stored snapshot of FILE instead of a fresh resolution.

Examples:
  tracemap graph app.json
  tracemap graph app.json --topo
  tracemap graph app.json --dot | dot -Tsvg -o deps.svg
  tracemap graph app.json --saved --leaves
`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().BoolVar(&graphTopo, "topo", false, "Print modules in topological order (importers first)")
	graphCmd.Flags().BoolVar(&graphRoots, "roots", false, "Print only the modules nothing imports")
	graphCmd.Flags().BoolVar(&graphLeaves, "leaves", false, "Print only the modules that import nothing")
	graphCmd.Flags().BoolVar(&graphCycles, "cycles", false, "Print an import cycle trace, if any")
	graphCmd.Flags().BoolVar(&graphDOT, "dot", false, "Print the graph in Graphviz DOT form")
	graphCmd.Flags().BoolVar(&graphSaved, "saved", false, "Use the latest saved snapshot instead of resolving")
}

func runGraph(cmd *cobra.Command, args []string) error {
	return executeGraph(os.Stdout, args[0], graphView{
		topo:   graphTopo,
		roots:  graphRoots,
		leaves: graphLeaves,
		cycles: graphCycles,
		dot:    graphDOT,
		saved:  graphSaved,
	})
}

// graphView selects which rendering of the graph to print.
type graphView struct {
	topo   bool
	roots  bool
	leaves bool
	cycles bool
	dot    bool
	saved  bool
}

func executeGraph(out io.Writer, path string, view graphView) error {
	ctx := context.Background()

	file, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var g *resolver.Graph
	if view.saved {
		g, err = loadSavedGraph(cfg, file)
	} else {
		g, err = resolveGraph(ctx, cfg, file)
	}
	if err != nil {
		return err
	}

	switch {
	case view.dot:
		return g.DOT(out)

	case view.topo:
		order, err := g.TopologicalOrder()
		if err != nil {
			return fmt.Errorf("no topological order: %w", err)
		}
		for _, path := range order {
			fmt.Fprintln(out, path)
		}

	case view.roots:
		for _, path := range g.Roots() {
			fmt.Fprintln(out, path)
		}

	case view.leaves:
		for _, path := range g.Leaves() {
			fmt.Fprintln(out, path)
		}

	case view.cycles:
		trace := g.DetectCycles()
		if trace == nil {
			fmt.Fprintln(out, "No cycles.")
			return nil
		}
		fmt.Fprintln(out, strings.Join(trace, " -> "))

	default:
		for _, path := range g.Modules() {
			fmt.Fprintln(out, path)
			for _, dep := range g.Dependencies(path) {
				fmt.Fprintf(out, "  -> %s\n", dep)
			}
		}
	}

	return nil
}

func resolveGraph(ctx context.Context, cfg *config.Config, file string) (*resolver.Graph, error) {
	r, err := resolver.New(cfg.ResolverOptions(filepath.Dir(file)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}
	defer r.Close()

	res, err := r.Resolve(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("resolve failed: %w", err)
	}
	return res.Graph, nil
}

// loadSavedGraph rebuilds the dependency graph of the latest snapshot
// saved for the given root template.
func loadSavedGraph(cfg *config.Config, rootPath string) (*resolver.Graph, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	store, err := storage.Open(cfg.StoragePath(rootDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	id, err := store.LatestID(rootPath)
	if err != nil {
		return nil, fmt.Errorf("no saved snapshot for %s: %w", rootPath, err)
	}

	snap, err := store.Snapshot(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	deps, err := store.Dependencies(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot dependencies: %w", err)
	}

	g := resolver.NewGraph()
	for _, mod := range snap.Modules {
		g.AddModule(mod.Path)
	}
	for _, dep := range deps {
		g.AddDependency(dep.From, dep.To)
	}
	return g, nil
}
