// Package cli implements the stackquery command-line interface.
//
// Every command builds a query cache, optionally backed by a persister
// chosen in the config file, and renders query snapshots with lipgloss.
//
// # Commands
//
//   - repo: show one GitHub repository (fresh for three seconds)
//   - products: list the demo catalog's products in a category
//   - fetch: run both queries concurrently with duplicate callers
//   - watch: keep both views live in a bubbletea program
//   - cache: clear or locate persisted results
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which traces
// every fetch start, de-duplicated query and fresh hit. Loggers are passed
// through context.Context.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli
