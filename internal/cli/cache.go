package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackquery/internal/config"
	"github.com/matzehuels/stackquery/pkg/cache"
	"github.com/matzehuels/stackquery/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage persisted query results",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all persisted query results",
		Long: `Remove all persisted query results from the configured backend.

For the file backend this empties the query directory; for Redis it
deletes the query keys under the configured prefix; for MongoDB it
empties the collection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend := c.cfg.Cache.Backend
			store, err := openStore(ctx, backend, c.cfg.Cache)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New(errors.ErrCodeUnsupported, "persistence is disabled (backend %q)", backend)
			}
			defer store.Close()

			count, err := cache.Clear(ctx, store)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo(cmd.OutOrStdout(), "Cache is empty")
				return nil
			}
			printSuccess(cmd.OutOrStdout(), "Cleared %d cached entries", count)
			if backend == config.BackendFile {
				if dir, err := queryDir(c.cfg.Cache); err == nil {
					printDetail(cmd.OutOrStdout(), "Directory: %s", dir)
				}
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the directory of persisted query results",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := queryDir(c.cfg.Cache)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
