package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/cinefind/internal/eventlog"
	"github.com/abelbrown/cinefind/internal/search"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing search stats, the live search
// box state and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *eventlog.RingBuffer, sc search.Controller, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	// Keyed lookups, not map iteration, so the order is stable
	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Session Stats"))
	lines = append(lines, fmt.Sprintf("  Searches:   %d started, %d complete, %d errors, %d stale",
		stats[eventlog.KindSearchStart], stats[eventlog.KindSearchComplete],
		stats[eventlog.KindSearchError], stats[eventlog.KindSearchStale]))
	lines = append(lines, fmt.Sprintf("  Debounces:  %d", stats[eventlog.KindDebounce]))
	lines = append(lines, fmt.Sprintf("  Trending:   %d loads, %d errors, %d recorded, %d record errors",
		stats[eventlog.KindTrendingLoad], stats[eventlog.KindTrendingError],
		stats[eventlog.KindTrendingRecord], stats[eventlog.KindTrendingRecordError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Search Box"))
	lines = append(lines, fmt.Sprintf("  Text:       %q (debounced %q)",
		truncateWidth(sc.Raw(), 30), truncateWidth(sc.Debounced(), 30)))
	lines = append(lines, fmt.Sprintf("  Requests:   #%d latest, %d late responses dropped, %s debounce",
		sc.Seq(), sc.Stale(), sc.Delay()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-22s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Seq != 0 {
			line += fmt.Sprintf("  #%d", e.Seq)
		}
		if e.Query != "" {
			line += fmt.Sprintf("  q:%q", truncateWidth(e.Query, 20))
		}
		if e.Count != 0 {
			line += fmt.Sprintf("  n:%d", e.Count)
		}
		if e.Msg != "" {
			line += "  " + truncateWidth(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateWidth(e.Err, 30)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 90
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("ctrl+d") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
