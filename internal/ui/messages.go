// Package ui provides the Bubble Tea TUI for CineFind.
package ui

import "github.com/abelbrown/cinefind/internal/trending"

// TrendingLoaded is sent by the coordinator once the trending list has been
// read. On error the previous list is kept.
type TrendingLoaded struct {
	Entries []trending.Entry
	Err     error
}
