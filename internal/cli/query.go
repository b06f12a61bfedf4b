package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackquery/pkg/errors"
	"github.com/matzehuels/stackquery/pkg/integrations/github"
	"github.com/matzehuels/stackquery/pkg/query"
)

// repoCommand creates the "repo" command.
func (c *CLI) repoCommand() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "repo [owner/name]",
		Short: "Show a GitHub repository's name, description and counts",
		Long: `Show a GitHub repository through the query cache.

Results stay fresh for three seconds. Older persisted results are shown
immediately while a background fetch revalidates them.`,
		Example: `  stackquery repo tannerlinsley/react-query`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := c.cfg.GitHub.Repo
			if len(args) > 0 {
				slug = args[0]
			}
			owner, name, err := github.ParseRepo(slug)
			if err != nil {
				return err
			}
			return c.runQuery(cmd, c.githubClient().RepoQuery(owner, name), noCache, viewRepo)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip persisted results")
	return cmd
}

// productsCommand creates the "products" command.
func (c *CLI) productsCommand() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:     "products [category]",
		Short:   "List the demo catalog's products in a category",
		Example: `  stackquery products jewelery`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := c.cfg.Fakestore.Category
			if len(args) > 0 {
				category = args[0]
			}
			if err := errors.ValidateCategory(category); err != nil {
				return err
			}
			return c.runQuery(cmd, c.fakestoreClient().CategoryQuery(category), noCache, viewProducts)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip persisted results")
	return cmd
}

// runQuery runs def once, waits for any fetch it started and prints the
// result with view.
func (c *CLI) runQuery(cmd *cobra.Command, def query.Definition, noCache bool, view func(query.Snapshot) string) error {
	ctx := cmd.Context()
	logger := queryLogger(ctx, def.Key)
	out := cmd.OutOrStdout()

	qc, closeCache, err := c.newQueryCache(ctx, noCache)
	if err != nil {
		return err
	}
	defer closeCache()

	prog := newProgress(logger)
	snap, err := def.Query(ctx, qc)
	if err != nil {
		return err
	}

	if snap.IsFetching {
		// Cached data is printed right away; the spinner covers the fetch.
		tty := isTerminal(cmd.ErrOrStderr())
		if snap.HasData || !tty {
			fmt.Fprint(out, view(snap))
		}
		var spinner *Spinner
		if tty {
			msg := textLoading
			if snap.HasData {
				msg = textUpdating
			}
			spinner = newSpinner(ctx, cmd.ErrOrStderr(), msg)
			spinner.Start()
		}

		snap, err = qc.Await(ctx, def.Key)
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			return err
		}
	}

	fmt.Fprint(out, view(snap))
	if snap.IsError() {
		logger.Debug("query failed", "err", snap.Err)
		logRetryHint(logger, snap.Err)
		if !snap.HasData {
			return errors.Wrap(errors.ErrCodeFetchFailed, snap.Err, "query %s failed", def.Key)
		}
		return nil
	}
	prog.done("query resolved", "status", snap.Status, "fetches", snap.FetchCount)
	return nil
}

// logRetryHint tells the user when a failed fetch is worth repeating.
func logRetryHint(logger *log.Logger, err error) {
	if !errors.IsTemporary(err) {
		return
	}
	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) && rl.RetryAfter > 0 {
		logger.Warn("rate limited, try again later", "after", rl.Wait())
		return
	}
	logger.Warn("the failure looks temporary, try again")
}
