package cli

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackquery/pkg/errors"
	"github.com/matzehuels/stackquery/pkg/integrations/github"
	"github.com/matzehuels/stackquery/pkg/observability"
	"github.com/matzehuels/stackquery/pkg/query"
)

// fetchCommand creates the "fetch" command.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		dupes   int
		noCache bool
		repo    string
		cat     string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Query the repository and the product list concurrently",
		Long: `Query the repository and the product list concurrently, issuing each
query --dupes times in parallel. Concurrent queries for one key share a
single fetch; the summary shows how many fetches actually ran.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dupes < 1 {
				return errors.New(errors.ErrCodeInvalidInput, "--dupes must be at least 1")
			}
			if repo == "" {
				repo = c.cfg.GitHub.Repo
			}
			if cat == "" {
				cat = c.cfg.Fakestore.Category
			}
			owner, name, err := github.ParseRepo(repo)
			if err != nil {
				return err
			}
			if err := errors.ValidateCategory(cat); err != nil {
				return err
			}

			qc, closeCache, err := c.newQueryCache(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer closeCache()

			defs := []query.Definition{
				c.githubClient().RepoQuery(owner, name),
				c.fakestoreClient().CategoryQuery(cat),
			}
			views := []func(query.Snapshot) string{viewRepo, viewProducts}
			return runFetch(cmd, qc, defs, views, dupes)
		},
	}
	cmd.Flags().IntVar(&dupes, "dupes", 3, "parallel queries per key")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip persisted results")
	cmd.Flags().StringVar(&repo, "repo", "", "repository as owner/name")
	cmd.Flags().StringVar(&cat, "category", "", "product category")
	return cmd
}

// runFetch issues every definition dupes times concurrently, waits for the
// fetches and prints each result followed by a summary.
func runFetch(cmd *cobra.Command, qc *query.Cache, defs []query.Definition, views []func(query.Snapshot) string, dupes int) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	stats := newQueryStats()
	defer observability.Register(observability.Hooks{
		Query: observability.JoinQueryHooks(observability.Query(), stats),
	})()

	prog := newProgress(logger)
	g, gctx := errgroup.WithContext(ctx)
	for _, def := range defs {
		for range dupes {
			g.Go(func() error {
				_, err := def.Query(gctx, qc)
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	snaps := make([]query.Snapshot, len(defs))
	g, gctx = errgroup.WithContext(ctx)
	for i, def := range defs {
		g.Go(func() error {
			snap, err := qc.Await(gctx, def.Key)
			snaps[i] = snap
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	prog.done("queries resolved", "keys", len(defs), "callers", len(defs)*dupes)

	now := time.Now()
	failed := 0
	for i, snap := range snaps {
		fmt.Fprint(out, views[i](snap))
		fmt.Fprintln(out, viewStatus(snap, qc.StaleTime(defs[i].Options), now))
		fmt.Fprintln(out)
		if snap.IsError() {
			failed++
		}
	}
	fmt.Fprint(out, stats.summary())

	if failed > 0 {
		return errors.New(errors.ErrCodeFetchFailed, "%d of %d queries failed", failed, len(defs))
	}
	return nil
}

// queryStats counts query cache events per key.
type queryStats struct {
	observability.NoopQueryHooks

	mu      sync.Mutex
	fetches map[string]int
	dedups  map[string]int
	fresh   map[string]int
}

func newQueryStats() *queryStats {
	return &queryStats{
		fetches: make(map[string]int),
		dedups:  make(map[string]int),
		fresh:   make(map[string]int),
	}
}

func (s *queryStats) OnFetchStart(_ context.Context, key string, _ bool) {
	s.mu.Lock()
	s.fetches[key]++
	s.mu.Unlock()
}

func (s *queryStats) OnDeduplicated(_ context.Context, key string) {
	s.mu.Lock()
	s.dedups[key]++
	s.mu.Unlock()
}

func (s *queryStats) OnFresh(_ context.Context, key string) {
	s.mu.Lock()
	s.fresh[key]++
	s.mu.Unlock()
}

// summary returns one line per key: fetches started, queries that joined
// an in-flight fetch and queries answered from fresh data.
func (s *queryStats) summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make(map[string]struct{})
	for _, m := range []map[string]int{s.fetches, s.dedups, s.fresh} {
		for k := range m {
			keys[k] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var lines string
	for _, k := range sorted {
		lines += StyleDim.Render(fmt.Sprintf("%s: %d fetched, %d shared, %d fresh", k, s.fetches[k], s.dedups[k], s.fresh[k])) + "\n"
	}
	return lines
}
