// Package trending loads and records the most-searched queries.
//
// The counts live in an external store (SQLite or DynamoDB); the Reporter
// only reads the top entries once at start and reports each successful
// search. Neither operation ever surfaces an error to the user: callers log
// and move on.
package trending

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abelbrown/cinefind/internal/eventlog"
	"github.com/abelbrown/cinefind/internal/logging"
	"github.com/abelbrown/cinefind/internal/tmdb"
)

// DefaultLimit is how many entries Load returns when no limit is set.
const DefaultLimit = 5

// ErrEmptyQuery is returned by Record for a query that normalizes to "".
var ErrEmptyQuery = errors.New("trending: empty query")

// Entry is one counted search as shown in the trending list.
type Entry struct {
	ID        string `json:"id"`
	Query     string `json:"query"`
	Count     int64  `json:"count"`
	MovieID   int64  `json:"movie_id"`
	Title     string `json:"title"`
	PosterURL string `json:"poster_url"`
}

// Hit is what a single successful search contributes to the store.
// Query must already be normalized.
type Hit struct {
	Query     string
	MovieID   int64
	Title     string
	PosterURL string
}

// Store is the counter backend.
//
// Increment must be a single atomic insert-or-increment: a new query starts
// at count 1 with the hit's movie fields, an existing one gains 1 and keeps
// the fields it was created with. Get looks up one normalized query and
// reports false when it has never been counted.
type Store interface {
	Top(ctx context.Context, n int) ([]Entry, error)
	Increment(ctx context.Context, hit Hit) error
	Get(ctx context.Context, query string) (Entry, bool, error)
}

// Options configures a Reporter.
type Options struct {
	Limit        int
	ImageBaseURL string
	Events       *eventlog.Logger
}

// Reporter reads and writes the trending counters.
type Reporter struct {
	store     Store
	limit     int
	imageBase string
	events    *eventlog.Logger
}

// NewReporter creates a Reporter over store.
func NewReporter(store Store, opts Options) *Reporter {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = tmdb.DefaultImageBaseURL
	}
	return &Reporter{
		store:     store,
		limit:     opts.Limit,
		imageBase: opts.ImageBaseURL,
		events:    opts.Events,
	}
}

// Load returns the top entries by count, in store order.
func (r *Reporter) Load(ctx context.Context) ([]Entry, error) {
	start := time.Now()
	entries, err := r.store.Top(ctx, r.limit)
	if err != nil {
		r.events.Emit(eventlog.Event{
			Level: eventlog.LevelError,
			Kind:  eventlog.KindTrendingError,
			Comp:  "trending",
			Dur:   time.Since(start),
			Err:   err.Error(),
		})
		logging.Warn("trending load failed", "error", err)
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}

	r.events.Emit(eventlog.Event{
		Level: eventlog.LevelInfo,
		Kind:  eventlog.KindTrendingLoad,
		Comp:  "trending",
		Dur:   time.Since(start),
		Count: len(entries),
	})
	logging.Debug("trending loaded", "count", len(entries))
	return entries, nil
}

// Record counts one successful search for query whose first result was top.
func (r *Reporter) Record(ctx context.Context, query string, top tmdb.Movie) error {
	q := NormalizeQuery(query)
	if q == "" {
		return ErrEmptyQuery
	}

	hit := Hit{
		Query:     q,
		MovieID:   top.ID,
		Title:     top.Title,
		PosterURL: tmdb.PosterURL(r.imageBase, top.PosterPath),
	}
	if err := r.store.Increment(ctx, hit); err != nil {
		r.events.Emit(eventlog.Event{
			Level: eventlog.LevelWarn,
			Kind:  eventlog.KindTrendingRecordError,
			Comp:  "trending",
			Query: q,
			Err:   err.Error(),
		})
		logging.Warn("trending record failed", "query", q, "error", err)
		return err
	}

	r.events.Emit(eventlog.Event{
		Level: eventlog.LevelInfo,
		Kind:  eventlog.KindTrendingRecord,
		Comp:  "trending",
		Query: q,
		Extra: map[string]any{"movie_id": top.ID},
	})
	return nil
}

// Get returns the counter for query, normalized the same way Record does.
func (r *Reporter) Get(ctx context.Context, query string) (Entry, bool, error) {
	q := NormalizeQuery(query)
	if q == "" {
		return Entry{}, false, ErrEmptyQuery
	}
	return r.store.Get(ctx, q)
}

// NormalizeQuery is the counter key for q: trimmed, lower-cased, with runs
// of whitespace collapsed to one space.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
