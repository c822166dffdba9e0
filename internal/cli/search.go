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
	"github.com/mvp-joe/tracemap/internal/search"
	"github.com/mvp-joe/tracemap/internal/storage"
)

var (
	searchRoot  string
	searchLimit int
	searchType  string
	searchSaved bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search a resolved template tree by keyword",
	Long: `Search resolves a template tree, indexes every positioned value, and runs
a keyword query over it. Hits come back as file:line:column with the dotted
path and a snippet of the value.

Queries use bleve query-string syntax: bare words, "quoted phrases",
prefix* wildcards, and field:term filters (value:, path:, file:, type:).

With --saved the query runs over the latest stored snapshot instead of a
fresh resolution; --root then selects which template's snapshot to use and
may be omitted to search the most recent snapshot overall.

Examples:
  tracemap search "login button" --root app.json
  tracemap search click --root app.json --limit 5
  tracemap search title --saved
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchRoot, "root", "r", "", "Template whose resolved tree to search")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Maximum number of hits (default 15)")
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "Filter hits by token type: key, element, import, or document")
	searchCmd.Flags().BoolVar(&searchSaved, "saved", false, "Search the latest saved snapshot instead of resolving")
}

func runSearch(cmd *cobra.Command, args []string) error {
	return executeSearch(os.Stdout, strings.Join(args, " "), searchRoot, searchType, searchLimit, searchSaved)
}

func executeSearch(out io.Writer, query, root, tokenType string, limit int, saved bool) error {
	ctx := context.Background()

	if root == "" && !saved {
		return fmt.Errorf("--root is required unless --saved is set")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var s search.Searcher
	if saved {
		s, err = savedSearcher(ctx, cfg, root)
	} else {
		s, err = liveSearcher(ctx, cfg, root)
	}
	if err != nil {
		return err
	}
	defer s.Close()

	opts := search.DefaultOptions()
	if limit > 0 {
		opts.Limit = limit
	}
	opts.Type = tokenType

	results, err := s.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No matches.")
		return nil
	}
	for _, res := range results {
		fmt.Fprintf(out, "%s:%d:%d  %s", res.Entry.File, res.Entry.Line, res.Entry.Column, res.Entry.Path)
		if res.Entry.Value != "" {
			fmt.Fprintf(out, "  = %s", res.Entry.Value)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func liveSearcher(ctx context.Context, cfg *config.Config, root string) (search.Searcher, error) {
	file, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	r, err := resolver.New(cfg.ResolverOptions(filepath.Dir(file)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}
	defer r.Close()

	res, err := r.Resolve(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("resolve failed: %w", err)
	}
	return search.NewSearcher(ctx, res)
}

// savedSearcher indexes the position entries of a stored snapshot. Only
// the root module's pointers address the stored document, so value
// snippets are restored for the root and left empty elsewhere.
func savedSearcher(ctx context.Context, cfg *config.Config, root string) (search.Searcher, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	store, err := storage.Open(cfg.StoragePath(rootDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	rootPath := ""
	if root != "" {
		if rootPath, err = filepath.Abs(root); err != nil {
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}
	}

	id, err := store.LatestID(rootPath)
	if err != nil {
		return nil, fmt.Errorf("no saved snapshot: %w", err)
	}

	snap, err := store.Snapshot(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	rows, err := store.Entries(id, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot entries: %w", err)
	}

	entries := make([]search.Entry, 0, len(rows))
	for _, row := range rows {
		e := search.Entry{
			ID:      row.ModulePath + "#" + row.Pointer,
			File:    row.ModulePath,
			Path:    row.Dotted,
			Pointer: row.Pointer,
			Line:    row.Line,
			Column:  row.Column,
			Type:    row.TokenType,
		}
		if row.ModulePath == snap.Info.RootPath && snap.Document != nil {
			e.Value = search.EntryValue(snap.Document, row.Pointer)
		}
		entries = append(entries, e)
	}

	return search.NewSearcherFromEntries(ctx, entries)
}
