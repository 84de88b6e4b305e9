package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/cinefind/internal/tmdb"
	"github.com/abelbrown/cinefind/internal/trending"
)

func TestGridColumns(t *testing.T) {
	tests := []struct {
		width, want int
	}{
		{40, 1},
		{59, 1},
		{60, 2},
		{89, 2},
		{90, 3},
		{119, 3},
		{120, 4},
		{300, 4},
	}
	for _, tt := range tests {
		if got := gridColumns(tt.width); got != tt.want {
			t.Errorf("gridColumns(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestGridRows(t *testing.T) {
	if gridRows(0, 3) != 0 || gridRows(1, 3) != 1 || gridRows(3, 3) != 1 || gridRows(4, 3) != 2 {
		t.Error("gridRows rounding is wrong")
	}
}

func TestClampLines(t *testing.T) {
	long := strings.Repeat("word ", 60)
	lines := clampLines(long, 20, 3)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if !strings.HasSuffix(lines[2], "…") {
		t.Errorf("clamped text should end with ellipsis: %q", lines[2])
	}
	for _, l := range lines {
		if lipgloss.Width(l) > 20 {
			t.Errorf("line wider than 20: %q", l)
		}
	}

	short := clampLines("A short one.", 20, 3)
	if len(short) != 1 || short[0] != "A short one." {
		t.Errorf("short overview = %q", short)
	}

	if clampLines("   ", 20, 3) != nil {
		t.Error("blank overview should produce no lines")
	}
}

func TestClampLinesWideText(t *testing.T) {
	overview := strings.Repeat("東京の夜に迷い込んだ少年が不思議な猫と出会う。", 6)
	lines := clampLines(overview, 20, 3)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	for _, l := range lines {
		if w := lipgloss.Width(l); w > 20 {
			t.Errorf("line is %d cells wide, want <= 20: %q", w, l)
		}
	}
	if !strings.HasSuffix(lines[2], "…") || lines[2] == "…" {
		t.Errorf("last line should keep text and end with ellipsis: %q", lines[2])
	}
}

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hell…"},
		{"héllo", 3, "hé…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateWidth(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateWidth(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}

	// Wide characters take two cells each.
	for _, n := range []int{1, 4, 5, 9} {
		got := truncateWidth("千と千尋の神隠し", n)
		if w := lipgloss.Width(got); w > n {
			t.Errorf("truncateWidth(wide, %d) = %q is %d cells", n, got, w)
		}
		if !strings.HasSuffix(got, "…") {
			t.Errorf("truncateWidth(wide, %d) = %q, want ellipsis", n, got)
		}
	}
	if got := truncateWidth("千と千尋", 8); got != "千と千尋" {
		t.Errorf("text that fits exactly should be unchanged, got %q", got)
	}
}

func TestRenderCardFixedSize(t *testing.T) {
	movies := []tmdb.Movie{
		{Title: "Short", Overview: "x"},
		{Title: "A Very Long Title That Will Not Fit In The Card", Overview: strings.Repeat("long overview ", 40), PosterPath: "/p.jpg", VoteAverage: 8.123, ReleaseDate: "2020-01-01", OriginalLanguage: "fr"},
		{},
	}
	for _, m := range movies {
		card := renderCard(m, tmdb.DefaultImageBaseURL, 30)
		if h := lipgloss.Height(card); h != cardHeight {
			t.Errorf("card for %q is %d lines, want %d", m.Title, h, cardHeight)
		}
		if w := lipgloss.Width(card); w != 30 {
			t.Errorf("card for %q is %d wide, want 30", m.Title, w)
		}
	}
}

func TestRenderCardWideTextKeepsSize(t *testing.T) {
	m := tmdb.Movie{
		Title:            "千と千尋の神隠し 特別版",
		Overview:         strings.Repeat("十歳の少女千尋は、両親と引っ越し先へ向かう途中で不思議な町に迷い込む。", 4),
		VoteAverage:      8.5,
		ReleaseDate:      "2001-07-20",
		OriginalLanguage: "ja",
	}
	for _, width := range []int{24, 30, 45} {
		card := renderCard(m, tmdb.DefaultImageBaseURL, width)
		if h := lipgloss.Height(card); h != cardHeight {
			t.Errorf("width %d: card is %d lines, want %d:\n%s", width, h, cardHeight, card)
		}
		if w := lipgloss.Width(card); w != width {
			t.Errorf("width %d: card is %d wide", width, w)
		}
	}
}

func TestRenderCardContent(t *testing.T) {
	m := tmdb.Movie{Title: "Alien", Overview: "In space no one can hear you scream.", VoteAverage: 8.1, ReleaseDate: "1979-05-25", OriginalLanguage: "en"}
	card := renderCard(m, tmdb.DefaultImageBaseURL, 60)

	for _, want := range []string{"Alien", "In space", "★ 8.1", "1979-05-25 • en", tmdb.PlaceholderPoster} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}

	empty := renderCard(tmdb.Movie{Title: "Unknown"}, "", 60)
	if !strings.Contains(empty, "★ N/A") || !strings.Contains(empty, "N/A • N/A") {
		t.Errorf("missing fields should render N/A:\n%s", empty)
	}
}

func TestRenderGrid(t *testing.T) {
	if got := RenderGrid(nil, "", 100, 0, 5); !strings.Contains(got, "No movies found") {
		t.Errorf("empty grid = %q", got)
	}

	movies := make([]tmdb.Movie, 10)
	for i := range movies {
		movies[i] = tmdb.Movie{Title: string(rune('A' + i))}
	}

	// 130 columns -> 4 per row; two rows shown from row 1 cover movies 4-11
	got := RenderGrid(movies, "", 130, 1, 2)
	if h := lipgloss.Height(got); h != 2*cardHeight {
		t.Errorf("grid height = %d, want %d", h, 2*cardHeight)
	}
	if strings.Contains(got, " A ") {
		t.Error("row 0 should be scrolled out")
	}
}

func TestRenderTrending(t *testing.T) {
	if RenderTrending(nil, 80) != "" {
		t.Error("empty trending list should render nothing")
	}

	got := RenderTrending([]trending.Entry{
		{Query: "bat", Title: "Batman", Count: 4},
		{Query: "obscure", Count: 1},
	}, 80)
	if !strings.Contains(got, "1.") || !strings.Contains(got, "Batman") {
		t.Errorf("first entry missing:\n%s", got)
	}
	if !strings.Contains(got, "2.") || !strings.Contains(got, "obscure") {
		t.Errorf("entry without title should fall back to query:\n%s", got)
	}
}
