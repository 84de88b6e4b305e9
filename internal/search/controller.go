// Package search owns the search box state: the raw text, its debounced
// projection, and the outcome of the latest listing request.
//
// Controller is a Bubble Tea sub-model. It never blocks; timers and
// requests run as commands and come back through Update as messages.
// Every request carries a sequence number and only the response to the
// latest request may change the outcome.
package search

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/cinefind/internal/eventlog"
	"github.com/abelbrown/cinefind/internal/logging"
	"github.com/abelbrown/cinefind/internal/tmdb"
)

// FallbackMessage is shown for failures that carry no message.
const FallbackMessage = "Something went wrong"

// FetchFunc lists movies: discovery for "", search otherwise.
type FetchFunc func(ctx context.Context, query string) ([]tmdb.Movie, error)

// RecordFunc reports a successful search and its first result.
type RecordFunc func(ctx context.Context, query string, top tmdb.Movie) error

// Options configures a Controller.
type Options struct {
	Fetch  FetchFunc
	Record RecordFunc // optional
	// Debounce is the quiet period before typed text is searched.
	// 0 fires immediately.
	Debounce time.Duration
	Events   *eventlog.Logger
}

// Controller is the search state machine. It is a value type; every
// transition returns the updated copy.
type Controller struct {
	fetch  FetchFunc
	record RecordFunc
	delay  time.Duration
	events *eventlog.Logger

	raw       string
	debounced string
	started   bool

	tag      uint64 // current debounce generation
	seq      uint64 // latest issued request
	issuedAt time.Time
	stale    int

	outcome Outcome
}

// New creates a Controller in the Loading state. Call Start to issue the
// initial discovery request.
func New(opts Options) Controller {
	return Controller{
		fetch:   opts.Fetch,
		record:  opts.Record,
		delay:   max(opts.Debounce, 0),
		events:  opts.Events,
		outcome: Loading(),
	}
}

// Start issues the request for the initial, empty, debounced value.
// Calling it again is a no-op.
func (c Controller) Start() (Controller, tea.Cmd) {
	if c.started {
		return c, nil
	}
	c.started = true
	return c.issue()
}

// SetRawText replaces the raw text and restarts the debounce timer. Any
// timer started earlier in the burst becomes inert.
func (c Controller) SetRawText(text string) (Controller, tea.Cmd) {
	c.raw = text
	c.tag++
	tag := c.tag

	if c.delay <= 0 {
		return c, func() tea.Msg { return DebounceElapsed{Tag: tag} }
	}
	return c, tea.Tick(c.delay, func(time.Time) tea.Msg {
		return DebounceElapsed{Tag: tag}
	})
}

// Update applies a controller message. Other messages are ignored.
func (c Controller) Update(msg tea.Msg) (Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case DebounceElapsed:
		return c.handleDebounce(msg)
	case Fetched:
		return c.handleFetched(msg)
	case Recorded:
		// Best effort: the outcome is already set and stays as it is.
		if msg.Err != nil {
			logging.Debug("search record failed", "query", msg.Query, "error", msg.Err)
		}
		return c, nil
	}
	return c, nil
}

func (c Controller) handleDebounce(msg DebounceElapsed) (Controller, tea.Cmd) {
	if msg.Tag != c.tag {
		return c, nil
	}

	c.events.Emit(eventlog.Event{
		Level: eventlog.LevelDebug,
		Kind:  eventlog.KindDebounce,
		Comp:  "search",
		Query: c.raw,
	})

	if c.started && c.raw == c.debounced {
		return c, nil
	}
	c.debounced = c.raw
	c.started = true
	return c.issue()
}

// issue starts the request for the current debounced value.
func (c Controller) issue() (Controller, tea.Cmd) {
	c.seq++
	c.issuedAt = time.Now()
	c.outcome = Loading()

	seq := c.seq
	query := c.query()
	fetch := c.fetch

	c.events.Emit(eventlog.Event{
		Level: eventlog.LevelInfo,
		Kind:  eventlog.KindSearchStart,
		Comp:  "search",
		Seq:   seq,
		Query: query,
	})
	logging.Debug("search issued", "seq", seq, "query", query)

	if fetch == nil {
		return c, nil
	}
	return c, func() tea.Msg {
		movies, err := fetch(context.Background(), query)
		return Fetched{Seq: seq, Query: query, Movies: movies, Err: err}
	}
}

func (c Controller) handleFetched(msg Fetched) (Controller, tea.Cmd) {
	if msg.Seq != c.seq {
		c.stale++
		c.events.Emit(eventlog.Event{
			Level: eventlog.LevelDebug,
			Kind:  eventlog.KindSearchStale,
			Comp:  "search",
			Seq:   msg.Seq,
			Query: msg.Query,
			Extra: map[string]any{"latest_seq": c.seq},
		})
		return c, nil
	}

	dur := time.Since(c.issuedAt)

	if msg.Err != nil {
		c.outcome = Failed(msg.Err.Error())
		c.events.Emit(eventlog.Event{
			Level: eventlog.LevelError,
			Kind:  eventlog.KindSearchError,
			Comp:  "search",
			Seq:   msg.Seq,
			Query: msg.Query,
			Dur:   dur,
			Err:   msg.Err.Error(),
		})
		logging.Warn("search failed", "seq", msg.Seq, "query", msg.Query, "error", msg.Err)
		return c, nil
	}

	c.outcome = Results(msg.Movies)
	c.events.Emit(eventlog.Event{
		Level: eventlog.LevelInfo,
		Kind:  eventlog.KindSearchComplete,
		Comp:  "search",
		Seq:   msg.Seq,
		Query: msg.Query,
		Dur:   dur,
		Count: len(c.outcome.Movies),
	})

	if msg.Query == "" || len(c.outcome.Movies) == 0 || c.record == nil {
		return c, nil
	}

	record := c.record
	query := msg.Query
	top := c.outcome.Movies[0]
	return c, func() tea.Msg {
		return Recorded{Query: query, Err: record(context.Background(), query, top)}
	}
}

// query is the text sent to the API for the debounced value. Surrounding
// whitespace is dropped, so a blank box lists popular movies.
func (c Controller) query() string {
	return strings.TrimSpace(c.debounced)
}

// Raw returns the text as typed.
func (c Controller) Raw() string { return c.raw }

// Debounced returns the last value that survived the debounce delay.
func (c Controller) Debounced() string { return c.debounced }

// Outcome returns what the results region should show.
func (c Controller) Outcome() Outcome { return c.outcome }

// Seq returns the sequence number of the latest issued request.
func (c Controller) Seq() uint64 { return c.seq }

// Stale returns how many out-of-date responses were discarded.
func (c Controller) Stale() int { return c.stale }

// Delay returns the effective debounce delay.
func (c Controller) Delay() time.Duration { return c.delay }
