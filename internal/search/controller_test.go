package search

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/abelbrown/cinefind/internal/eventlog"
	"github.com/abelbrown/cinefind/internal/tmdb"
)

type recordCall struct {
	Query string
	Top   tmdb.Movie
}

// fakeAPI stands in for the TMDB client and the trending reporter.
type fakeAPI struct {
	mu        sync.Mutex
	queries   []string
	responses map[string][]tmdb.Movie
	errs      map[string]error
	records   []recordCall
	recordErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{responses: map[string][]tmdb.Movie{}, errs: map[string]error{}}
}

func (f *fakeAPI) fetch(ctx context.Context, query string) ([]tmdb.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.responses[query], nil
}

func (f *fakeAPI) record(ctx context.Context, query string, top tmdb.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, recordCall{query, top})
	return f.recordErr
}

func newController(api *fakeAPI) Controller {
	return New(Options{Fetch: api.fetch, Record: api.record, Debounce: 10 * time.Millisecond})
}

// run executes cmd and feeds every resulting message back into c until no
// commands remain. Debounce ticks are run for real.
func run(t *testing.T, c Controller, cmd tea.Cmd) Controller {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		c, cmd = c.Update(msg)
	}
	return c
}

// typeText simulates one keystroke per prefix of text, delivering only the
// timer of the final keystroke, as happens when typing faster than the delay.
func typeText(t *testing.T, c Controller, text string) (Controller, tea.Cmd) {
	t.Helper()
	var cmds []tea.Cmd
	for i := 1; i <= len(text); i++ {
		var cmd tea.Cmd
		c, cmd = c.SetRawText(text[:i])
		cmds = append(cmds, cmd)
	}
	return c, cmds[len(cmds)-1]
}

var batMovies = []tmdb.Movie{
	{ID: 268, Title: "Batman", PosterPath: "/bat.jpg", VoteAverage: 7.2, ReleaseDate: "1989-06-23", OriginalLanguage: "en"},
	{ID: 414906, Title: "The Batman", VoteAverage: 7.7, ReleaseDate: "2022-03-01", OriginalLanguage: "en"},
}

func TestNewStartsLoading(t *testing.T) {
	c := New(Options{})
	if !c.Outcome().IsLoading() {
		t.Errorf("initial outcome = %v, want loading", c.Outcome().Status)
	}
	if c.Delay() != 0 {
		t.Errorf("Delay() = %v, want 0", c.Delay())
	}
}

func TestStartFetchesDiscovery(t *testing.T) {
	api := newFakeAPI()
	api.responses[""] = batMovies
	c, cmd := newController(api).Start()

	if !c.Outcome().IsLoading() {
		t.Fatalf("outcome before response = %v, want loading", c.Outcome().Status)
	}
	c = run(t, c, cmd)

	if diff := cmp.Diff([]string{""}, api.queries); diff != "" {
		t.Errorf("fetch queries (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Results(batMovies), c.Outcome()); diff != "" {
		t.Errorf("outcome (-want +got):\n%s", diff)
	}
	if len(api.records) != 0 {
		t.Errorf("discovery must not be recorded, got %v", api.records)
	}

	// A second Start does nothing.
	if _, cmd := c.Start(); cmd != nil {
		t.Error("second Start returned a command")
	}
}

func TestOnlyFinalValueOfBurstIsFetched(t *testing.T) {
	api := newFakeAPI()
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	var cmds []tea.Cmd
	for _, s := range []string{"b", "ba", "bat"} {
		c, cmd = c.SetRawText(s)
		cmds = append(cmds, cmd)
	}

	// Timers from earlier keystrokes fire but are inert.
	for _, early := range cmds[:2] {
		var next tea.Cmd
		c, next = c.Update(early())
		if next != nil {
			t.Fatal("superseded timer issued a command")
		}
	}
	if c.Debounced() != "" {
		t.Fatalf("Debounced() = %q before final timer", c.Debounced())
	}

	c = run(t, c, cmds[2])

	if diff := cmp.Diff([]string{"", "bat"}, api.queries); diff != "" {
		t.Errorf("fetch queries (-want +got):\n%s", diff)
	}
	if c.Debounced() != "bat" {
		t.Errorf("Debounced() = %q, want bat", c.Debounced())
	}
}

func TestDebounceTickWaitsForDelay(t *testing.T) {
	c := New(Options{Debounce: 30 * time.Millisecond})
	start := time.Now()
	c, cmd := c.SetRawText("x")

	msg := cmd()
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("tick fired after %v, want >= 30ms", elapsed)
	}
	if got, ok := msg.(DebounceElapsed); !ok || got.Tag != c.tag {
		t.Errorf("tick message = %#v, want DebounceElapsed{Tag: %d}", msg, c.tag)
	}
}

func TestZeroDebounceFiresImmediately(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		api := newFakeAPI()
		c := New(Options{Fetch: api.fetch, Debounce: d})
		c, cmd := c.Start()
		c = run(t, c, cmd)

		c, cmd = c.SetRawText("alien")
		if _, isTick := cmd().(DebounceElapsed); !isTick {
			t.Fatalf("Debounce %v: SetRawText did not yield DebounceElapsed", d)
		}
		c, cmd = c.SetRawText("alien")
		c = run(t, c, cmd)

		if diff := cmp.Diff([]string{"", "alien"}, api.queries); diff != "" {
			t.Errorf("Debounce %v: fetch queries (-want +got):\n%s", d, diff)
		}
		if c.Delay() != 0 {
			t.Errorf("Debounce %v: Delay() = %v, want 0", d, c.Delay())
		}
	}
}

func TestUnchangedDebouncedValueDoesNotRefetch(t *testing.T) {
	api := newFakeAPI()
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	// "a" typed and deleted within the delay: debounced stays "".
	c, _ = c.SetRawText("a")
	c, cmd = c.SetRawText("")
	c = run(t, c, cmd)

	if diff := cmp.Diff([]string{""}, api.queries); diff != "" {
		t.Errorf("fetch queries (-want +got):\n%s", diff)
	}
}

func TestEmptyQueryUsesDiscoveryAfterSearch(t *testing.T) {
	api := newFakeAPI()
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	c, cmd = typeText(t, c, "bat")
	c = run(t, c, cmd)
	c, cmd = c.SetRawText("")
	c = run(t, c, cmd)

	if diff := cmp.Diff([]string{"", "bat", ""}, api.queries); diff != "" {
		t.Errorf("fetch queries (-want +got):\n%s", diff)
	}
}

func TestBlankQueryIsDiscovery(t *testing.T) {
	api := newFakeAPI()
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	c, cmd = c.SetRawText("   ")
	c = run(t, c, cmd)

	if diff := cmp.Diff([]string{"", ""}, api.queries); diff != "" {
		t.Errorf("fetch queries (-want +got):\n%s", diff)
	}
	if len(api.records) != 0 {
		t.Errorf("blank query recorded: %v", api.records)
	}
}

func TestBatScenario(t *testing.T) {
	api := newFakeAPI()
	api.responses["bat"] = batMovies
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	c, cmd = typeText(t, c, "bat")
	c, cmd = c.Update(cmd()) // debounce elapses
	if !c.Outcome().IsLoading() {
		t.Fatalf("outcome after debounce = %v, want loading", c.Outcome().Status)
	}
	c = run(t, c, cmd)

	if diff := cmp.Diff([]string{"", "bat"}, api.queries); diff != "" {
		t.Errorf("fetch queries (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Results(batMovies), c.Outcome()); diff != "" {
		t.Errorf("outcome (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]recordCall{{"bat", batMovies[0]}}, api.records); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
}

func TestEmptyResultsAreResultsNotError(t *testing.T) {
	api := newFakeAPI()
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	c, cmd = typeText(t, c, "zzzz")
	c = run(t, c, cmd)

	want := Outcome{Status: StatusResults, Movies: []tmdb.Movie{}}
	if diff := cmp.Diff(want, c.Outcome()); diff != "" {
		t.Errorf("outcome (-want +got):\n%s", diff)
	}
	if len(api.records) != 0 {
		t.Errorf("zero results must not be recorded, got %v", api.records)
	}
}

func TestFailureMarkerScenario(t *testing.T) {
	api := newFakeAPI()
	api.errs[""] = &tmdb.APIError{Message: "Invalid API key"}
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	if diff := cmp.Diff(Failed("Invalid API key"), c.Outcome()); diff != "" {
		t.Errorf("outcome (-want +got):\n%s", diff)
	}
	if len(c.Outcome().Movies) != 0 {
		t.Errorf("movies not cleared: %v", c.Outcome().Movies)
	}
}

func TestFailureWithoutMessageUsesFallback(t *testing.T) {
	api := newFakeAPI()
	api.errs[""] = &tmdb.APIError{}
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	if c.Outcome().Message != FallbackMessage {
		t.Errorf("Message = %q, want %q", c.Outcome().Message, FallbackMessage)
	}
}

func TestErrorClearsPreviousResults(t *testing.T) {
	api := newFakeAPI()
	api.responses[""] = batMovies
	api.errs["bat"] = errors.New("tmdb: request failed: connection refused")
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	c, cmd = typeText(t, c, "bat")
	c = run(t, c, cmd)

	want := Failed("tmdb: request failed: connection refused")
	if diff := cmp.Diff(want, c.Outcome()); diff != "" {
		t.Errorf("outcome (-want +got):\n%s", diff)
	}
	if len(api.records) != 0 {
		t.Errorf("failed search recorded: %v", api.records)
	}
}

func TestRecordFailureLeavesOutcome(t *testing.T) {
	api := newFakeAPI()
	api.responses["bat"] = batMovies
	api.recordErr = errors.New("store down")
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	c, cmd = typeText(t, c, "bat")
	c = run(t, c, cmd)

	if diff := cmp.Diff(Results(batMovies), c.Outcome()); diff != "" {
		t.Errorf("outcome (-want +got):\n%s", diff)
	}
	if len(api.records) != 1 {
		t.Errorf("expected 1 record attempt, got %d", len(api.records))
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	api := newFakeAPI()
	api.responses["x"] = []tmdb.Movie{{ID: 1, Title: "X"}}
	api.responses["y"] = []tmdb.Movie{{ID: 2, Title: "Y"}}
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	// Issue x, then y, without resolving x.
	c, cmd = c.SetRawText("x")
	c, fetchX := c.Update(cmd())
	c, cmd = c.SetRawText("y")
	c, fetchY := c.Update(cmd())

	// y resolves first and is applied.
	c = run(t, c, fetchY)
	if diff := cmp.Diff(Results(api.responses["y"]), c.Outcome()); diff != "" {
		t.Fatalf("outcome after y (-want +got):\n%s", diff)
	}

	// x resolves later and must not overwrite y.
	c, next := c.Update(fetchX())
	if next != nil {
		t.Error("stale response issued a command")
	}
	if diff := cmp.Diff(Results(api.responses["y"]), c.Outcome()); diff != "" {
		t.Errorf("outcome after stale x (-want +got):\n%s", diff)
	}
	if c.Stale() != 1 {
		t.Errorf("Stale() = %d, want 1", c.Stale())
	}
	// Only the applied search is recorded.
	if diff := cmp.Diff([]recordCall{{"y", api.responses["y"][0]}}, api.records); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
}

func TestStaleResponseWhileLoading(t *testing.T) {
	api := newFakeAPI()
	api.errs["x"] = errors.New("boom")
	c, cmd := newController(api).Start()
	c = run(t, c, cmd)

	c, cmd = c.SetRawText("x")
	c, fetchX := c.Update(cmd())
	c, cmd = c.SetRawText("y")
	c, _ = c.Update(cmd())

	c, _ = c.Update(fetchX())
	if !c.Outcome().IsLoading() {
		t.Errorf("stale error replaced loading: %v", c.Outcome())
	}
}

func TestSequenceIncreases(t *testing.T) {
	api := newFakeAPI()
	c, cmd := newController(api).Start()
	if c.Seq() != 1 {
		t.Errorf("Seq() after Start = %d, want 1", c.Seq())
	}
	c = run(t, c, cmd)

	c, cmd = typeText(t, c, "a")
	c = run(t, c, cmd)
	c, cmd = typeText(t, c, "b")
	c = run(t, c, cmd)
	if c.Seq() != 3 {
		t.Errorf("Seq() = %d, want 3", c.Seq())
	}
}

func TestEventsEmitted(t *testing.T) {
	api := newFakeAPI()
	api.responses["bat"] = batMovies
	ring := eventlog.NewRingBuffer(64)
	events := eventlog.New(io.Discard)
	events.SetRingBuffer(ring)

	c := New(Options{Fetch: api.fetch, Record: api.record, Events: events})
	c, cmd := c.Start()
	c = run(t, c, cmd)
	c, cmd = c.SetRawText("bat")
	_ = run(t, c, cmd)
	events.Close()

	stats := ring.Stats()
	want := map[eventlog.Kind]int{
		eventlog.KindSearchStart:    2,
		eventlog.KindSearchComplete: 2,
		eventlog.KindDebounce:       1,
	}
	for kind, n := range want {
		if stats[kind] != n {
			t.Errorf("%s events = %d, want %d", kind, stats[kind], n)
		}
	}
}

func TestUnrelatedMessagesIgnored(t *testing.T) {
	c := New(Options{})
	c2, cmd := c.Update(tea.WindowSizeMsg{Width: 80})
	if cmd != nil {
		t.Error("unexpected command")
	}
	if diff := cmp.Diff(c.Outcome(), c2.Outcome()); diff != "" {
		t.Errorf("outcome changed:\n%s", diff)
	}
}
