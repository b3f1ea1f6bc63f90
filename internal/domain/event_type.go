package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultEventTypes is the canonical enumeration used when none is configured.
var DefaultEventTypes = []string{"Academic", "Cultural", "Sports", "Technical", "Other"}

// EventTypes is the configured set of accepted event types.
// Lookups are case-insensitive and return the configured spelling.
type EventTypes struct {
	names []string
	index map[string]string
}

// NewEventTypes builds an EventTypes from names, dropping blanks and duplicates.
// An empty list falls back to DefaultEventTypes.
func NewEventTypes(names []string) EventTypes {
	t := buildEventTypes(names)
	if len(t.names) == 0 {
		return buildEventTypes(DefaultEventTypes)
	}
	return t
}

func buildEventTypes(names []string) EventTypes {
	t := EventTypes{index: make(map[string]string)}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := t.index[key]; ok {
			continue
		}
		t.index[key] = n
		t.names = append(t.names, n)
	}
	return t
}

// Canonical returns the configured spelling of name and whether it is accepted.
func (t EventTypes) Canonical(name string) (string, bool) {
	c, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Names returns a copy of the configured names in configuration order.
func (t EventTypes) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// eventDateLayouts are tried in order by ParseEventDate.
var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TimestampPrecision is the finest time resolution every event store keeps.
const TimestampPrecision = time.Millisecond

// StoredTime returns t as the stores hand it back: UTC, truncated to TimestampPrecision.
func StoredTime(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}

// ParseEventDate accepts a calendar date, an HTML datetime-local value or an RFC 3339 timestamp.
// Values without a zone are read as UTC. The result has stored precision.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return StoredTime(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
