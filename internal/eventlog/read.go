package eventlog

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// LevelRank returns a numeric rank for filtering (higher = more severe).
// Unknown and empty levels rank as debug.
func LevelRank(l Level) int {
	switch l {
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 0
	}
}

// Filter selects events when reading a log back.
type Filter struct {
	KindPrefix string // e.g. "search" or "trending.record"
	MinLevel   Level
	Comp       string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Event) bool {
	if f.KindPrefix != "" && !strings.HasPrefix(string(e.Kind), f.KindPrefix) {
		return false
	}
	if f.MinLevel != "" && LevelRank(e.Level) < LevelRank(f.MinLevel) {
		return false
	}
	if f.Comp != "" && e.Comp != f.Comp {
		return false
	}
	return true
}

// ReadTail decodes the JSONL stream r and returns the last n events that
// match f, oldest first. Lines that do not decode are skipped and counted.
func ReadTail(r io.Reader, n int, f Filter) (events []Event, skipped int, err error) {
	if n <= 0 {
		return nil, 0, nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ring := make([]Event, 0, n)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			skipped++
			continue
		}
		if !f.Match(e) {
			continue
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, e)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, err
	}
	return ring, skipped, nil
}
