package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/cinefind/internal/eventlog"
	"github.com/abelbrown/cinefind/internal/logging"
	"github.com/abelbrown/cinefind/internal/search"
	"github.com/abelbrown/cinefind/internal/tmdb"
	"github.com/abelbrown/cinefind/internal/trending"
)

// ObsConfig holds the observability hooks for the UI.
type ObsConfig struct {
	Events *eventlog.Logger
	Ring   *eventlog.RingBuffer // feeds the debug overlay
}

// AppConfig wires the App to its side effects.
type AppConfig struct {
	// Search configures the search controller (fetch, record, debounce).
	Search       search.Options
	ImageBaseURL string
	Obs          ObsConfig
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the TMDB client or a store. It receives
// data via messages (TrendingLoaded is sent by the coordinator) and
// triggers side effects via the configured funcs.
type App struct {
	imageBase string
	events    *eventlog.Logger
	ring      *eventlog.RingBuffer

	input   textinput.Model
	spinner spinner.Model
	search  search.Controller
	// startCmd is the initial discovery request, issued from Init.
	startCmd tea.Cmd

	trending []trending.Entry

	scroll       int // first visible card row
	width        int
	height       int
	ready        bool
	debugVisible bool
}

// NewAppWithConfig creates the App. The search controller is started here
// so that the initial request's sequence number is part of the model.
func NewAppWithConfig(cfg AppConfig) App {
	ti := textinput.New()
	ti.Placeholder = "Search through thousands of movies"
	ti.Prompt = "🔍 "
	ti.CharLimit = 200
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	opts := cfg.Search
	if opts.Events == nil {
		opts.Events = cfg.Obs.Events
	}
	ctrl, startCmd := search.New(opts).Start()

	imageBase := cfg.ImageBaseURL
	if imageBase == "" {
		imageBase = tmdb.DefaultImageBaseURL
	}

	return App{
		imageBase: imageBase,
		events:    cfg.Obs.Events,
		ring:      cfg.Obs.Ring,
		input:     ti,
		spinner:   sp,
		search:    ctrl,
		startCmd:  startCmd,
	}
}

// Init starts the cursor blink, the spinner and the discovery request.
func (a App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.spinner.Tick, a.startCmd)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, tick := msg.(spinner.TickMsg); !tick && eventlog.TraceEnabled() {
		a.events.Emit(eventlog.Event{
			Level: eventlog.LevelDebug,
			Kind:  eventlog.KindMsgReceived,
			Comp:  "ui",
			Msg:   fmt.Sprintf("%T", msg),
		})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.Width = max(10, msg.Width-10)
		a.clampScroll()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case TrendingLoaded:
		if msg.Err != nil {
			// Never shown to the user; the list keeps its previous value.
			logging.Warn("trending list unavailable", "error", msg.Err)
			return a, nil
		}
		a.trending = msg.Entries
		return a, nil

	case search.DebounceElapsed, search.Fetched, search.Recorded:
		before := a.search.Seq()
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		if a.search.Seq() != before {
			a.scroll = 0
		}
		return a, cmd
	}

	// Cursor blink and anything else the input understands
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKeyMsg processes keyboard input. Printable keys edit the query.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return a, tea.Quit

	case "ctrl+d":
		a.debugVisible = !a.debugVisible
		return a, nil

	case "down":
		a.scroll++
		a.clampScroll()
		return a, nil

	case "up":
		if a.scroll > 0 {
			a.scroll--
		}
		return a, nil

	case "pgdown":
		a.scroll += a.visibleRows()
		a.clampScroll()
		return a, nil

	case "pgup":
		a.scroll -= a.visibleRows()
		if a.scroll < 0 {
			a.scroll = 0
		}
		return a, nil
	}

	before := a.input.Value()
	var inputCmd tea.Cmd
	a.input, inputCmd = a.input.Update(msg)
	if a.input.Value() == before {
		return a, inputCmd
	}

	var searchCmd tea.Cmd
	a.search, searchCmd = a.search.SetRawText(a.input.Value())
	return a, tea.Batch(inputCmd, searchCmd)
}

// header renders the banner and search box.
func (a App) header() string {
	banner := Banner.Render("Find " + BannerAccent.Render("Movies") + " You'll Enjoy Without the Hassle")
	box := SearchBox.Width(max(20, a.width-2)).Render(a.input.View())
	return banner + "\n" + box
}

// chromeHeight is every line above and below the grid.
func (a App) chromeHeight() int {
	h := lipgloss.Height(a.header())
	if t := RenderTrending(a.trending, a.width); t != "" {
		h += lipgloss.Height(t)
	}
	h += lipgloss.Height(SectionHeader.Render("All Movies"))
	return h + 1 // status bar
}

// visibleRows is how many card rows fit below the chrome.
func (a App) visibleRows() int {
	rows := (a.height - a.chromeHeight()) / cardHeight
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (a *App) clampScroll() {
	out := a.search.Outcome()
	last := gridRows(len(out.Movies), gridColumns(a.width)) - a.visibleRows()
	if last < 0 {
		last = 0
	}
	if a.scroll > last {
		a.scroll = last
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debugVisible {
		overlay := debugOverlay(a.ring, a.search, a.width, a.height-1)
		if overlay == "" {
			overlay = HelpStyle.Render("No event buffer attached.")
		}
		return overlay + "\n" + debugStatusBar(a.width)
	}

	var b strings.Builder
	b.WriteString(a.header())
	b.WriteString("\n")

	if t := RenderTrending(a.trending, a.width); t != "" {
		b.WriteString(t)
		b.WriteString("\n")
	}

	b.WriteString(SectionHeader.Render("All Movies"))
	b.WriteString("\n")

	out := a.search.Outcome()
	var status string
	switch out.Status {
	case search.StatusLoading:
		b.WriteString(" " + a.spinner.View() + " Loading...")
		status = "Loading..."
	case search.StatusError:
		b.WriteString(ErrorStyle.Width(a.width).Render(out.Message))
		status = "Error"
	default:
		b.WriteString(RenderGrid(out.Movies, a.imageBase, a.width, a.scroll, a.visibleRows()))
		status = fmt.Sprintf("%d movies", len(out.Movies))
	}
	b.WriteString("\n")

	// Pad so the status bar sits on the last line
	used := lipgloss.Height(b.String())
	if pad := a.height - used; pad > 0 {
		b.WriteString(strings.Repeat("\n", pad))
	}
	b.WriteString(RenderStatusBar(status, a.width))
	return b.String()
}

// Outcome returns the search outcome (for testing).
func (a App) Outcome() search.Outcome {
	return a.search.Outcome()
}

// Trending returns the trending list (for testing).
func (a App) Trending() []trending.Entry {
	return a.trending
}

// Query returns the raw search text (for testing).
func (a App) Query() string {
	return a.input.Value()
}
