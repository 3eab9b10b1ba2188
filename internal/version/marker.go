// Package version produces monotonic version markers for projects and
// solutions. A marker is derived from a file's last-write time when a path
// is known, otherwise from a process-wide logical clock that is guaranteed
// to differ between successive calls.
package version

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Marker is an opaque, comparable version stamp. Markers are attached to a
// project or solution at creation time; a stamped entity is never mutated,
// it is replaced by a new entity carrying a newer marker.
type Marker struct {
	wall    int64  // unix nanoseconds
	logical uint64 // tie-break for markers minted in the same nanosecond
}

// FromFile derives a marker from the file's last modification time.
// Stat failures propagate to the caller, which decides whether to fall
// back to the logical clock.
func FromFile(path string) (Marker, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Marker{}, fmt.Errorf("version: stat %s: %w", path, err)
	}
	return FromTime(info.ModTime()), nil
}

// FromTime derives a marker from an explicit timestamp. Two calls with the
// same timestamp yield equal markers.
func FromTime(t time.Time) Marker {
	return Marker{wall: t.UnixNano()}
}

// clock state shared by all FromClock callers.
var (
	clockMu  sync.Mutex
	lastWall int64
	lastTick uint64
)

// FromClock mints a marker from the wall clock. Successive calls always
// produce strictly increasing markers, even within the same nanosecond or
// across backwards clock adjustments.
func FromClock() Marker {
	clockMu.Lock()
	defer clockMu.Unlock()

	now := time.Now().UnixNano()
	if now < lastWall {
		now = lastWall
	}
	if now == lastWall {
		lastTick++
	} else {
		lastWall = now
		lastTick = 0
	}
	return Marker{wall: now, logical: lastTick}
}

// Compare orders two markers: -1 if m is older than o, 0 if equal, 1 if
// newer.
func (m Marker) Compare(o Marker) int {
	switch {
	case m.wall < o.wall:
		return -1
	case m.wall > o.wall:
		return 1
	case m.logical < o.logical:
		return -1
	case m.logical > o.logical:
		return 1
	}
	return 0
}

// Newer reports whether m is strictly newer than o.
func (m Marker) Newer(o Marker) bool { return m.Compare(o) > 0 }

// IsZero reports whether m is the zero marker.
func (m Marker) IsZero() bool { return m == Marker{} }

// Time returns the wall-clock component of the marker.
func (m Marker) Time() time.Time { return time.Unix(0, m.wall) }

// String renders the marker for logs.
func (m Marker) String() string {
	if m.logical == 0 {
		return m.Time().UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s+%d", m.Time().UTC().Format(time.RFC3339Nano), m.logical)
}
