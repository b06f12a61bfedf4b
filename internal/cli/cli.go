package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackquery/internal/config"
	"github.com/matzehuels/stackquery/pkg/buildinfo"
	"github.com/matzehuels/stackquery/pkg/cache"
	"github.com/matzehuels/stackquery/pkg/integrations/fakestore"
	"github.com/matzehuels/stackquery/pkg/integrations/github"
	"github.com/matzehuels/stackquery/pkg/observability"
	"github.com/matzehuels/stackquery/pkg/query"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "stackquery"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "stackquery fetches API data through a stale-while-revalidate query cache",
		Long:         `stackquery queries the GitHub and demo catalog APIs through a query cache that de-duplicates concurrent fetches, serves fresh data from memory and revalidates stale data in the background.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if c.Logger.GetLevel() <= LogDebug {
				observability.Register(observability.NewLogHooks(c.Logger).Hooks())
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $"+config.EnvConfig+" or ~/.config/"+appName+"/config.toml)")

	// Register all subcommands
	root.AddCommand(c.repoCommand())
	root.AddCommand(c.productsCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Query Cache Factory
// =============================================================================

// newQueryCache builds the query cache for one command run. The returned
// function closes the cache and its persister.
func (c *CLI) newQueryCache(ctx context.Context, noCache bool) (*query.Cache, func(), error) {
	opts := []query.Option{
		query.WithLogger(c.Logger),
		query.WithStaleTime(c.cfg.Query.StaleTime.Std()),
		query.WithFetchTimeout(c.cfg.Query.FetchTimeout.Std()),
	}

	backend := c.cfg.Cache.Backend
	if noCache {
		backend = config.BackendNone
	}
	store, err := openStore(ctx, backend, c.cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	if store != nil {
		opts = append(opts, query.WithPersister(store, c.cfg.Cache.TTL.Std()))
		if ns := c.cfg.Cache.Namespace; ns != "" {
			opts = append(opts, query.WithKeyer(cache.NewScopedKeyer(nil, "ns:"+ns+":")))
		}
		c.Logger.Debug("persisting query results", "backend", backend)
	}

	qc := query.New(opts...)
	return qc, func() {
		qc.Close()
		if store != nil {
			store.Close()
		}
	}, nil
}

func (c *CLI) githubClient() *github.Client {
	return github.NewClient(c.cfg.GitHub.Token, c.cfg.GitHub.BaseURL)
}

func (c *CLI) fakestoreClient() *fakestore.Client {
	return fakestore.NewClient(c.cfg.Fakestore.BaseURL)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/stackquery/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// queryDir returns the directory of the file persister.
func queryDir(cfg config.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "queries"), nil
}
