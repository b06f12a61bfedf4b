package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stackquery/pkg/errors"
	"github.com/matzehuels/stackquery/pkg/integrations/fakestore"
	"github.com/matzehuels/stackquery/pkg/integrations/github"
	"github.com/matzehuels/stackquery/pkg/query"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleFresh = lipgloss.NewStyle().Foreground(colorGreen)
	styleStale = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success line to w.
func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

// printInfo prints a status line to w.
func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented detail line to w.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// =============================================================================
// Snapshot Views
// =============================================================================

const (
	textLoading  = "Loading..."
	textUpdating = "Updating..."
	textError    = "An error has occurred: "
)

// errorMessage returns the message shown for a failed snapshot.
func errorMessage(snap query.Snapshot) string {
	if snap.Err == nil {
		return ""
	}
	return errors.UserMessage(snap.Err)
}

// viewPending returns the loading or error view for a snapshot without
// data, and false once there is data to show.
func viewPending(snap query.Snapshot) (string, bool) {
	switch {
	case snap.HasData:
		return "", false
	case snap.IsError():
		return StyleError.Render(textError+errorMessage(snap)) + "\n", true
	default:
		return StyleDim.Render(textLoading) + "\n", true
	}
}

// viewFooter reports background activity and failed revalidations below
// data that is still shown.
func viewFooter(snap query.Snapshot) string {
	switch {
	case snap.IsFetching:
		return StyleDim.Render(textUpdating) + "\n"
	case snap.IsError():
		return StyleWarning.Render(textError+errorMessage(snap)) + "\n"
	}
	return ""
}

// viewRepo renders repository details.
func viewRepo(snap query.Snapshot) string {
	if s, ok := viewPending(snap); ok {
		return s
	}
	repo, ok := query.Data[*github.RepoDetails](snap)
	if !ok || repo == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(repo.Name) + "\n")
	if repo.Description != "" {
		b.WriteString(StyleValue.Render(repo.Description) + "\n")
	}
	b.WriteString(fmt.Sprintf("👀 %s  ✨ %s  🍴 %s\n",
		StyleNumber.Render(fmt.Sprint(repo.Subscribers)),
		StyleNumber.Render(fmt.Sprint(repo.Stars)),
		StyleNumber.Render(fmt.Sprint(repo.Forks))))
	b.WriteString(viewFooter(snap))
	return b.String()
}

// viewProducts renders a product listing, one line per product.
func viewProducts(snap query.Snapshot) string {
	if s, ok := viewPending(snap); ok {
		return s
	}
	products, _ := query.Data[[]fakestore.Product](snap)

	var b strings.Builder
	if len(products) == 0 {
		b.WriteString(StyleDim.Render("No products") + "\n")
	}
	for _, p := range products {
		b.WriteString(fmt.Sprintf("%s %s  %s  %s\n",
			StyleDim.Render("•"),
			StyleValue.Render(p.Title),
			StyleNumber.Render(fmt.Sprintf("$%.2f", p.Price)),
			StyleLink.Render(p.Image)))
	}
	b.WriteString(viewFooter(snap))
	return b.String()
}

// viewStatus renders a one-line summary of a snapshot.
func viewStatus(snap query.Snapshot, staleTime time.Duration, now time.Time) string {
	freshness := styleFresh.Render("fresh")
	if snap.IsStale(now, staleTime) {
		freshness = styleStale.Render("stale")
	}
	return StyleDim.Render(fmt.Sprintf("%s %s %s · fetched %d× · ", snap.Key, iconArrow, snap.Status, snap.FetchCount)) + freshness
}
