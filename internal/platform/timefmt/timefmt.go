// Package timefmt renders timestamps in a business's timezone.
package timefmt

import (
	"sync"
	"time"
	_ "time/tzdata"
)

// Formatter resolves IANA zone names with a fallback zone for unknown or empty names.
type Formatter struct {
	fallback *time.Location

	mu    sync.RWMutex
	zones map[string]*time.Location
}

// New returns a Formatter falling back to fallbackZone, or UTC when that zone is unknown.
func New(fallbackZone string) *Formatter {
	loc, err := time.LoadLocation(fallbackZone)
	if err != nil || fallbackZone == "" {
		loc = time.UTC
	}
	return &Formatter{fallback: loc, zones: map[string]*time.Location{}}
}

// Location returns the zone for name, or the fallback.
func (f *Formatter) Location(name string) *time.Location {
	if name == "" {
		return f.fallback
	}
	f.mu.RLock()
	loc, ok := f.zones[name]
	f.mu.RUnlock()
	if ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = f.fallback
	}
	f.mu.Lock()
	f.zones[name] = loc
	f.mu.Unlock()
	return loc
}

// InZone formats t as RFC3339 in zone name.
func (f *Formatter) InZone(t time.Time, name string) string {
	return t.In(f.Location(name)).Format(time.RFC3339)
}

// Date formats the calendar date of t in zone name.
func (f *Formatter) Date(t time.Time, name string) string {
	return t.In(f.Location(name)).Format(time.DateOnly)
}

var utc = New("UTC")

// InZone formats t as RFC3339 in zone name, falling back to UTC.
func InZone(t time.Time, name string) string { return utc.InZone(t, name) }

// Date formats the calendar date of t in zone name, falling back to UTC.
func Date(t time.Time, name string) string { return utc.Date(t, name) }
