package search

import "github.com/abelbrown/cinefind/internal/tmdb"

// Status is the active variant of an Outcome.
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusResults
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusResults:
		return "results"
	}
	return "unknown"
}

// Outcome is what the results region shows: exactly one of Loading,
// Error(Message) or Results(Movies).
type Outcome struct {
	Status  Status
	Message string
	Movies  []tmdb.Movie
}

// Loading is the outcome while a fetch is in flight.
func Loading() Outcome {
	return Outcome{Status: StatusLoading}
}

// Failed is an Error outcome. Movies are always cleared.
func Failed(message string) Outcome {
	if message == "" {
		message = FallbackMessage
	}
	return Outcome{Status: StatusError, Message: message}
}

// Results is a successful outcome. A nil slice becomes an empty one.
func Results(movies []tmdb.Movie) Outcome {
	if movies == nil {
		movies = []tmdb.Movie{}
	}
	return Outcome{Status: StatusResults, Movies: movies}
}

func (o Outcome) IsLoading() bool { return o.Status == StatusLoading }
func (o Outcome) IsError() bool   { return o.Status == StatusError }
