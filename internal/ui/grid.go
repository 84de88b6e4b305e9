package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/abelbrown/cinefind/internal/tmdb"
	"github.com/abelbrown/cinefind/internal/trending"
)

// overviewLines is how many lines of overview a card shows.
const overviewLines = 3

// cardChrome is the border (2) plus horizontal padding (2) of Card.
const cardChrome = 4

// cardHeight is the rendered height of every card: title, overview,
// rating, date/language and poster lines inside a two-line border.
const cardHeight = 1 + overviewLines + 3 + 2

// gridColumns picks 1-4 columns for the terminal width.
func gridColumns(width int) int {
	switch {
	case width < 60:
		return 1
	case width < 90:
		return 2
	case width < 120:
		return 3
	default:
		return 4
	}
}

// gridRows is the number of card rows needed for n movies.
func gridRows(n, cols int) int {
	if n == 0 {
		return 0
	}
	return (n + cols - 1) / cols
}

// RenderGrid renders movies as cards, starting at card row offset and
// showing at most maxRows rows.
func RenderGrid(movies []tmdb.Movie, imageBase string, width, offset, maxRows int) string {
	if len(movies) == 0 {
		return HelpStyle.Render("No movies found.")
	}
	if maxRows < 1 {
		maxRows = 1
	}

	cols := gridColumns(width)
	cardWidth := width / cols
	if cardWidth < cardChrome+4 {
		cardWidth = cardChrome + 4
	}

	var rows []string
	for r := offset; r < gridRows(len(movies), cols) && len(rows) < maxRows; r++ {
		var cards []string
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if i >= len(movies) {
				break
			}
			cards = append(cards, renderCard(movies[i], imageBase, cardWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return strings.Join(rows, "\n")
}

// renderCard renders one movie card exactly width columns wide.
func renderCard(m tmdb.Movie, imageBase string, width int) string {
	inner := width - cardChrome
	if inner < 4 {
		inner = 4
	}

	overview := clampLines(m.Overview, inner, overviewLines)
	for len(overview) < overviewLines {
		overview = append(overview, "")
	}

	lines := []string{
		CardTitle.Render(truncateWidth(m.Title, inner)),
		CardOverview.Render(strings.Join(overview, "\n")),
		CardRating.Render("★ " + formatRating(m.VoteAverage)),
		CardMeta.Render(truncateWidth(orNA(m.ReleaseDate)+" • "+orNA(m.OriginalLanguage), inner)),
		CardPoster.Render(truncateWidth(tmdb.PosterURL(imageBase, m.PosterPath), inner)),
	}
	// Width includes padding but not the border.
	return Card.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// clampLines word-wraps text to width terminal cells and keeps at most n
// lines. When text is cut, the last kept line ends with an ellipsis.
func clampLines(text string, width, n int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || n <= 0 || width <= 0 {
		return nil
	}

	// Wrap breaks inside words when it must, so text without spaces (CJK)
	// still fits.
	lines := strings.Split(ansi.Wrap(text, width, ""), "\n")
	for i := range lines {
		lines[i] = ansi.Truncate(strings.TrimRight(lines[i], " "), width, "")
	}
	if len(lines) <= n {
		return lines
	}

	lines = lines[:n]
	lines[n-1] = ansi.Truncate(lines[n-1], width-1, "") + "…"
	return lines
}

// truncateWidth shortens s to at most n terminal cells, ending in "…" when
// cut. Wide characters count as two cells.
func truncateWidth(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return ansi.Truncate(s, n, "…")
}

func formatRating(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// RenderTrending renders the numbered trending list. Returns "" for an
// empty list so the section disappears entirely.
func RenderTrending(entries []trending.Entry, width int) string {
	if len(entries) == 0 {
		return ""
	}

	lines := []string{SectionHeader.Render("Trending Movies")}
	for i, e := range entries {
		title := e.Title
		if title == "" {
			title = e.Query
		}
		count := TrendingCount.Render(fmt.Sprintf("(%q ×%d)", e.Query, e.Count))
		avail := width - 6 - lipgloss.Width(count)
		if avail < 8 {
			avail = 8
		}
		lines = append(lines, fmt.Sprintf(" %s %s %s",
			TrendingIndex.Render(strconv.Itoa(i+1)+"."),
			TrendingTitle.Render(truncateWidth(title, avail)),
			count,
		))
	}
	return strings.Join(lines, "\n")
}

// RenderStatusBar renders the bottom status bar with key hints.
func RenderStatusBar(left string, width int) string {
	keys := []string{
		StatusBarKey.Render("↑/↓") + StatusBarText.Render(":scroll"),
		StatusBarKey.Render("pgup/pgdn") + StatusBarText.Render(":page"),
		StatusBarKey.Render("ctrl+d") + StatusBarText.Render(":debug"),
		StatusBarKey.Render("esc") + StatusBarText.Render(":quit"),
	}
	keyHints := strings.Join(keys, " ")

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(keyHints)
	padding := width - leftWidth - rightWidth - 2
	if padding < 0 {
		padding = 0
	}

	bar := left + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).Render(bar)
}
