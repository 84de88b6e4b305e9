package search

import "github.com/abelbrown/cinefind/internal/tmdb"

// DebounceElapsed is delivered when a debounce timer fires. Only the timer
// whose Tag matches the controller's current tag applies.
type DebounceElapsed struct {
	Tag uint64
}

// Fetched carries the result of one movie listing request.
type Fetched struct {
	Seq    uint64 // request sequence, for the stale check
	Query  string
	Movies []tmdb.Movie
	Err    error
}

// Recorded is delivered when a trending record attempt finishes.
type Recorded struct {
	Query string
	Err   error
}
