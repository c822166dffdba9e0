package resolver

import (
	"io"
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// Graph is the module dependency graph built during resolution: one
// vertex per absolute module path, one edge per resolved import. The
// resolver's per-chain cycle guard keeps it acyclic, so diamonds are
// representable and topological order always exists.
type Graph struct {
	mu sync.RWMutex
	g  graph.Graph[string, string]
}

// NewGraph returns an empty directed dependency graph.
func NewGraph() *Graph {
	return &Graph{g: graph.New(graph.StringHash, graph.Directed())}
}

// AddModule adds a module vertex. Adding a known module is a no-op.
func (dg *Graph) AddModule(path string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()
	_ = dg.g.AddVertex(path)
}

// AddDependency records that from imports to. Duplicate edges are
// no-ops.
func (dg *Graph) AddDependency(from, to string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()
	_ = dg.g.AddEdge(from, to)
}

// Contains reports whether the module is in the graph.
func (dg *Graph) Contains(path string) bool {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	_, err := dg.g.Vertex(path)
	return err == nil
}

// Modules returns every module path, sorted.
func (dg *Graph) Modules() []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	adj, err := dg.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(adj))
	for path := range adj {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Dependencies returns the modules path imports directly, sorted.
func (dg *Graph) Dependencies(path string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	adj, err := dg.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	return sortedTargets(adj[path])
}

// Dependents returns the modules that import path directly, sorted.
func (dg *Graph) Dependents(path string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	pred, err := dg.g.PredecessorMap()
	if err != nil {
		return nil
	}
	return sortedTargets(pred[path])
}

// Roots returns the modules nothing imports, sorted.
func (dg *Graph) Roots() []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	pred, err := dg.g.PredecessorMap()
	if err != nil {
		return nil
	}
	var out []string
	for path, in := range pred {
		if len(in) == 0 {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// Leaves returns the modules that import nothing, sorted.
func (dg *Graph) Leaves() []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	adj, err := dg.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	var out []string
	for path, deps := range adj {
		if len(deps) == 0 {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// ModuleCount returns the number of modules.
func (dg *Graph) ModuleCount() int {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	n, _ := dg.g.Order()
	return n
}

// DependencyCount returns the number of import edges.
func (dg *Graph) DependencyCount() int {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	n, _ := dg.g.Size()
	return n
}

// TopologicalOrder returns the modules with every importer before what
// it imports, ties broken lexically so output is stable.
func (dg *Graph) TopologicalOrder() ([]string, error) {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	return graph.StableTopologicalSort(dg.g, func(a, b string) bool { return a < b })
}

// DetectCycles returns one import cycle as an ordered module trace
// with the entry module repeated at the end, or nil when the graph is
// acyclic. Graphs built by the resolver are acyclic; this exists for
// graphs assembled from other sources.
func (dg *Graph) DetectCycles() []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	adj, err := dg.g.AdjacencyMap()
	if err != nil {
		return nil
	}

	const (
		unvisited = iota
		inStack
		done
	)
	state := make(map[string]int, len(adj))
	var stack []string
	var cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		state[node] = inStack
		stack = append(stack, node)
		for _, next := range sortedTargets(adj[node]) {
			switch state[next] {
			case inStack:
				for i, p := range stack {
					if p == next {
						cycle = append(append([]string{}, stack[i:]...), next)
						return true
					}
				}
			case unvisited:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
		return false
	}

	paths := make([]string, 0, len(adj))
	for path := range adj {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if state[path] == unvisited && visit(path) {
			return cycle
		}
	}
	return nil
}

// DOT renders the graph in Graphviz DOT form.
func (dg *Graph) DOT(w io.Writer) error {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	return draw.DOT(dg.g, w)
}

func sortedTargets(edges map[string]graph.Edge[string]) []string {
	if len(edges) == 0 {
		return nil
	}
	out := make([]string, 0, len(edges))
	for target := range edges {
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}
