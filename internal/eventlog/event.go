// Package eventlog records structured CineFind events.
//
// Events are typed structs serialized as JSONL lines by an asynchronous
// Logger. An optional RingBuffer keeps the most recent events in memory for
// the debug overlay.
package eventlog

import (
	"encoding/json"
	"time"
)

// Level defines event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Kind identifies an event. Dot-delimited: "<subsystem>.<action>".
type Kind string

const (
	// Search controller
	KindDebounce       Kind = "search.debounce"
	KindSearchStart    Kind = "search.start"
	KindSearchComplete Kind = "search.complete"
	KindSearchError    Kind = "search.error"
	KindSearchStale    Kind = "search.stale"

	// Trending reporter
	KindTrendingLoad        Kind = "trending.load"
	KindTrendingError       Kind = "trending.error"
	KindTrendingRecord      Kind = "trending.record"
	KindTrendingRecordError Kind = "trending.record_error"

	// System
	KindStartup  Kind = "sys.startup"
	KindShutdown Kind = "sys.shutdown"
	KindError    Kind = "sys.error"

	// Message tracing, only when CINEFIND_TRACE is set
	KindMsgReceived Kind = "trace.msg_received"
)

// Event is one observability record. Everything except Kind and Time is
// optional.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      Kind           `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "search", "trending", "ui", "main"
	SessionID string         `json:"session_id,omitempty"`
	Seq       uint64         `json:"seq,omitempty"` // search request sequence
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Query     string         `json:"query,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
