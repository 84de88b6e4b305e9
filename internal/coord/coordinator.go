// Package coord runs CineFind's background work outside the UI loop: the
// one-time trending load at start, and the concurrent snapshot used by the
// command line.
package coord

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/cinefind/internal/logging"
	"github.com/abelbrown/cinefind/internal/tmdb"
	"github.com/abelbrown/cinefind/internal/trending"
	"github.com/abelbrown/cinefind/internal/ui"
)

// ErrNoMovieSource is returned by Snapshot on a Coordinator built without a
// movie listing function.
var ErrNoMovieSource = errors.New("coord: no movie source")

// loadTimeout bounds the trending load. Search requests are not bounded here.
const loadTimeout = 15 * time.Second

// moviesFunc lists movies: discovery for "", search otherwise.
type moviesFunc func(ctx context.Context, query string) ([]tmdb.Movie, error)

// trendingLoader interface for dependency injection (testing).
type trendingLoader interface {
	Load(ctx context.Context) ([]trending.Entry, error)
}

// sender is the part of *tea.Program the coordinator uses.
type sender interface {
	Send(msg tea.Msg)
}

// Coordinator manages background loading.
// Uses context cancellation as the ONLY stop mechanism.
type Coordinator struct {
	movies   moviesFunc
	trending trendingLoader
	wg       sync.WaitGroup
}

// NewCoordinator creates a Coordinator. movies may be nil when only Start
// is used; Snapshot then fails with ErrNoMovieSource.
func NewCoordinator(movies moviesFunc, t trendingLoader) *Coordinator {
	return &Coordinator{movies: movies, trending: t}
}

// Start loads the trending list once in the background and sends the
// result to program as ui.TrendingLoaded.
func (c *Coordinator) Start(ctx context.Context, program sender) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		entries, err := c.loadTrending(ctx)
		if ctx.Err() != nil {
			return
		}
		if program != nil {
			program.Send(ui.TrendingLoaded{Entries: entries, Err: err})
		}
	}()
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) loadTrending(ctx context.Context) ([]trending.Entry, error) {
	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	return c.trending.Load(loadCtx)
}

// Snapshot is the trending list and the listing for one query.
type Snapshot struct {
	Query    string           `json:"query"`
	Trending []trending.Entry `json:"trending"`
	Movies   []tmdb.Movie     `json:"movies"`
}

// Snapshot loads the trending list and the movies for query in parallel.
// A trending failure is logged and yields an empty list, as in the UI; a
// movie listing failure fails the snapshot.
func (c *Coordinator) Snapshot(ctx context.Context, query string) (Snapshot, error) {
	if c.movies == nil {
		return Snapshot{}, ErrNoMovieSource
	}
	snap := Snapshot{Query: query, Trending: []trending.Entry{}}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		entries, err := c.loadTrending(gctx)
		if err != nil {
			// never fail the group on trending
			logging.Warn("snapshot: trending unavailable", "error", err)
			return nil
		}
		snap.Trending = entries
		return nil
	})

	g.Go(func() error {
		movies, err := c.movies(gctx, query)
		if err != nil {
			return err
		}
		if movies == nil {
			movies = []tmdb.Movie{}
		}
		snap.Movies = movies
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
