package model

import (
	"sort"
	"strings"
	"time"
)

// dateLayout is the civil date layout used as HolidaySet key.
const dateLayout = "2006-01-02"

// HolidaySet is an immutable set of civil dates. The zero value is an empty set.
type HolidaySet struct {
	dates map[string]struct{}
}

// HolidayDate is a single dated entry of a holiday calendar.
type HolidayDate struct {
	CalendarCode string
	Date         string // YYYY-MM-DD
	Name         string
}

// NewHolidaySet builds a set from YYYY-MM-DD strings. Entries carrying a time
// suffix are truncated to the date; unparseable entries are skipped.
func NewHolidaySet(dates ...string) HolidaySet {
	set := HolidaySet{dates: make(map[string]struct{}, len(dates))}
	for _, d := range dates {
		if key, ok := normalizeDate(d); ok {
			set.dates[key] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the civil date of t, in t's own location, is a holiday.
func (h HolidaySet) Contains(t time.Time) bool {
	if len(h.dates) == 0 {
		return false
	}
	_, ok := h.dates[t.Format(dateLayout)]
	return ok
}

// Union returns a new set holding the dates of h and every other set.
func (h HolidaySet) Union(others ...HolidaySet) HolidaySet {
	size := len(h.dates)
	for _, o := range others {
		size += len(o.dates)
	}

	merged := HolidaySet{dates: make(map[string]struct{}, size)}
	for d := range h.dates {
		merged.dates[d] = struct{}{}
	}
	for _, o := range others {
		for d := range o.dates {
			merged.dates[d] = struct{}{}
		}
	}
	return merged
}

// Len returns the number of dates in the set.
func (h HolidaySet) Len() int {
	return len(h.dates)
}

// Dates returns the dates in ascending order.
func (h HolidaySet) Dates() []string {
	out := make([]string, 0, len(h.dates))
	for d := range h.dates {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", false
	}
	return t.Format(dateLayout), true
}
