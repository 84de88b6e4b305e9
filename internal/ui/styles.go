package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorGold      = lipgloss.Color("220")
)

// Banner style for the title line.
var Banner = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// BannerAccent highlights "Movies" in the banner.
var BannerAccent = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// SearchBox frames the search input.
var SearchBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// SectionHeader style for "Trending Movies" and "All Movies".
var SectionHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	MarginTop(1).
	Padding(0, 1)

// TrendingIndex style for the rank number in the trending list.
var TrendingIndex = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorPrimary).
	Width(3).
	Align(lipgloss.Right)

// TrendingTitle style for trending entry titles.
var TrendingTitle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// TrendingCount style for the search count next to a trending title.
var TrendingCount = lipgloss.NewStyle().
	Foreground(colorMuted)

// Card frames one movie in the grid.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

// CardTitle style for the movie title.
var CardTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

// CardOverview style for the clamped overview.
var CardOverview = lipgloss.NewStyle().
	Foreground(colorSecondary)

// CardRating style for the star rating.
var CardRating = lipgloss.NewStyle().
	Foreground(colorGold).
	Bold(true)

// CardMeta style for release date and language.
var CardMeta = lipgloss.NewStyle().
	Foreground(colorSecondary)

// CardPoster style for the poster URL line.
var CardPoster = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// SpinnerStyle colors the loading spinner.
var SpinnerStyle = lipgloss.NewStyle().
	Foreground(colorHighlight)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
