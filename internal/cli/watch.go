package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackquery/pkg/errors"
	"github.com/matzehuels/stackquery/pkg/integrations/github"
	"github.com/matzehuels/stackquery/pkg/query"
)

// watchCommand creates the "watch" command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		interval time.Duration
		noCache  bool
		repo     string
		cat      string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the repository and product views live",
		Long: `Show the repository and the product list and re-query both every
--interval. Each query refetches only when its data is stale; while a
background fetch runs the old data stays on screen marked "Updating...".

Keys: r refetch now, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = c.cfg.Watch.Interval.Std()
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

			ctx := cmd.Context()
			qc, closeCache, err := c.newQueryCache(ctx, noCache)
			if err != nil {
				return err
			}
			defer closeCache()

			w := &watcher{
				panes: []*pane{
					{title: "Repository", observer: c.githubClient().RepoQuery(owner, name).Observe(qc), view: viewRepo},
					{title: "Products", observer: c.fakestoreClient().CategoryQuery(cat).Observe(qc), view: viewProducts},
				},
				interval: interval,
			}
			defer w.stop()

			if isTerminal(cmd.OutOrStdout()) {
				return w.runInteractive(ctx)
			}
			return w.runPlain(ctx, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "re-query interval (default from config, 1s)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip persisted results")
	cmd.Flags().StringVar(&repo, "repo", "", "repository as owner/name")
	cmd.Flags().StringVar(&cat, "category", "", "product category")
	return cmd
}

// =============================================================================
// Watcher
// =============================================================================

// pane is one observed query and how to render it.
type pane struct {
	title    string
	observer *query.Observer
	view     func(query.Snapshot) string
}

type watcher struct {
	panes    []*pane
	interval time.Duration
}

// start subscribes every pane with l and runs the first queries.
func (w *watcher) start(ctx context.Context, l func(int, query.Snapshot)) error {
	for i, p := range w.panes {
		if _, err := p.observer.Start(ctx, func(s query.Snapshot) { l(i, s) }); err != nil {
			return err
		}
	}
	return nil
}

// requery runs every pane's query, subject to its stale time.
func (w *watcher) requery(ctx context.Context, force bool) {
	for _, p := range w.panes {
		var err error
		if force {
			_, err = p.observer.Refetch(ctx)
		} else {
			_, err = p.observer.Query(ctx)
		}
		if err != nil {
			queryLogger(ctx, p.observer.Key()).Warn("requery failed", "err", err)
		}
	}
}

func (w *watcher) stop() {
	for _, p := range w.panes {
		p.observer.Stop()
	}
}

// runPlain prints every pane whenever one changes until ctx ends. Used
// when stdout is not a terminal.
func (w *watcher) runPlain(ctx context.Context, out io.Writer) error {
	var mu sync.Mutex
	snaps := make([]query.Snapshot, len(w.panes))
	render := func(i int, s query.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snaps[i] = s
		fmt.Fprintf(out, "%s %s\n%s\n", StyleDim.Render(time.Now().Format("15:04:05")), StyleTitle.Render(w.panes[i].title), w.panes[i].view(s))
	}
	if err := w.start(ctx, render); err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.requery(ctx, false)
		}
	}
}

// runInteractive runs the bubbletea view until the user quits or ctx ends.
func (w *watcher) runInteractive(ctx context.Context) error {
	m := newWatchModel(ctx, w)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	m.send = p.Send

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// =============================================================================
// watchModel - bubbletea model
// =============================================================================

type snapshotMsg struct {
	pane int
	snap query.Snapshot
}

type tickMsg time.Time

type startedMsg struct{ err error }

type watchModel struct {
	ctx     context.Context
	watcher *watcher
	send    func(tea.Msg)

	snaps []query.Snapshot
	err   error
}

func newWatchModel(ctx context.Context, w *watcher) *watchModel {
	snaps := make([]query.Snapshot, len(w.panes))
	for i, p := range w.panes {
		snaps[i] = query.Snapshot{Key: p.observer.Key()}
	}
	return &watchModel{ctx: ctx, watcher: w, snaps: snaps}
}

func (m *watchModel) tick() tea.Cmd {
	return tea.Tick(m.watcher.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init subscribes the panes from a command goroutine so that listener
// messages reach a running program.
func (m *watchModel) Init() tea.Cmd {
	start := func() tea.Msg {
		err := m.watcher.start(m.ctx, func(i int, s query.Snapshot) {
			m.send(snapshotMsg{pane: i, snap: s})
		})
		return startedMsg{err: err}
	}
	return tea.Batch(start, m.tick())
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.requery(true)
		}
	case snapshotMsg:
		m.snaps[msg.pane] = msg.snap
	case startedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(m.requery(false), m.tick())
	}
	return m, nil
}

func (m *watchModel) requery(force bool) tea.Cmd {
	return func() tea.Msg {
		m.watcher.requery(m.ctx, force)
		return nil
	}
}

func (m *watchModel) View() string {
	if m.err != nil {
		return StyleError.Render(errors.UserMessage(m.err)) + "\n"
	}
	var b strings.Builder
	now := time.Now()
	for i, p := range m.watcher.panes {
		snap := m.snaps[i]
		b.WriteString(StyleTitle.Render(p.title) + "\n")
		b.WriteString(p.view(snap))
		b.WriteString(viewStatus(snap, p.observer.StaleTime(), now) + "\n\n")
	}
	b.WriteString(StyleDim.Render("r refetch  q quit"))
	return b.String()
}
