package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// ResolveLocation returns the IANA location called name. Empty or unknown
// names resolve to fallback, and to UTC when fallback is nil. It never fails.
func ResolveLocation(name string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}

// civilDate returns midnight UTC of t's calendar date in loc. Working on UTC
// midnights keeps day stepping free of DST shifts.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// BusinessDayDiff counts business days in the half-open date range
// (date(from), date(to)] evaluated in loc. Weekends and dates in holidays are
// not counted. ok is false when from is the zero time. A to before from yields 0.
func BusinessDayDiff(from, to time.Time, holidays model.HolidaySet, loc *time.Location) (days int, ok bool) {
	if from.IsZero() {
		return 0, false
	}
	if loc == nil {
		loc = time.UTC
	}

	start := civilDate(from, loc)
	end := civilDate(to, loc)
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if isWeekend(d) || holidays.Contains(d) {
			continue
		}
		days++
	}
	return days, true
}

// CalendarDayDiff counts calendar days between the dates of from and to in loc.
// ok is false when from is the zero time. A to before from yields 0.
func CalendarDayDiff(from, to time.Time, loc *time.Location) (days int, ok bool) {
	if from.IsZero() {
		return 0, false
	}
	if loc == nil {
		loc = time.UTC
	}

	start := civilDate(from, loc)
	end := civilDate(to, loc)
	if !end.After(start) {
		return 0, true
	}
	return int(end.Sub(start).Hours() / 24), true
}

// ActorCalendar is the timezone and holiday union that applies to one person.
type ActorCalendar struct {
	Location *time.Location
	Holidays model.HolidaySet
}

// BusinessDaysSince returns the business days from since to now in this calendar.
func (c ActorCalendar) BusinessDaysSince(since, now time.Time) (int, bool) {
	return BusinessDayDiff(since, now, c.Holidays, c.Location)
}

// ActorCalendars is a pre-fetched lookup of per-actor calendars. Actors
// without preferences get the organization calendar.
type ActorCalendars struct {
	organization ActorCalendar
	byActor      map[int64]ActorCalendar
}

// NewActorCalendars builds a lookup from an organization calendar and
// per-actor overrides.
func NewActorCalendars(organization ActorCalendar, byActor map[int64]ActorCalendar) ActorCalendars {
	if byActor == nil {
		byActor = map[int64]ActorCalendar{}
	}
	return ActorCalendars{organization: organization, byActor: byActor}
}

// Organization returns the organization calendar.
func (c ActorCalendars) Organization() ActorCalendar {
	return c.organization
}

// For returns the calendar that applies to the given user.
func (c ActorCalendars) For(userID int64) ActorCalendar {
	if cal, ok := c.byActor[userID]; ok {
		return cal
	}
	return c.organization
}

// CalendarService builds organization and per-actor business-day calendars.
type CalendarService struct {
	holidays *HolidayCache
	prefs    driven.UserPreferenceStore
	logger   *slog.Logger
}

// NewCalendarService creates a new CalendarService.
func NewCalendarService(holidays *HolidayCache, prefs driven.UserPreferenceStore) *CalendarService {
	return &CalendarService{
		holidays: holidays,
		prefs:    prefs,
		logger:   slog.Default(),
	}
}

// OrganizationCalendar returns the calendar defined by the organization
// timezone and holiday calendar codes.
func (s *CalendarService) OrganizationCalendar(ctx context.Context, settings model.OrganizationSettings) (ActorCalendar, error) {
	holidays, err := s.holidays.Union(ctx, settings.HolidayCalendarCodes)
	if err != nil {
		return ActorCalendar{}, fmt.Errorf("load organization holidays: %w", err)
	}
	return ActorCalendar{
		Location: s.location(settings.Timezone, time.UTC, "organization", 0),
		Holidays: holidays,
	}, nil
}

// LoadActorCalendars pre-fetches the calendars of every given actor in one
// preference query and one holiday query per uncached calendar code.
func (s *CalendarService) LoadActorCalendars(ctx context.Context, settings model.OrganizationSettings, actorIDs []int64) (ActorCalendars, error) {
	org, err := s.OrganizationCalendar(ctx, settings)
	if err != nil {
		return ActorCalendars{}, err
	}

	ids := uniqueIDs(actorIDs)
	if len(ids) == 0 {
		return NewActorCalendars(org, nil), nil
	}

	prefs, err := s.prefs.GetPreferences(ctx, ids)
	if err != nil {
		return ActorCalendars{}, fmt.Errorf("load user preferences: %w", err)
	}

	var codes []string
	for _, p := range prefs {
		codes = append(codes, p.HolidayCalendarCodes...)
	}
	personalSets, err := s.holidays.Get(ctx, codes)
	if err != nil {
		return ActorCalendars{}, fmt.Errorf("load personal holidays: %w", err)
	}

	byActor := make(map[int64]ActorCalendar, len(prefs))
	for _, p := range prefs {
		sets := make([]model.HolidaySet, 0, len(p.HolidayCalendarCodes)+1)
		for _, code := range p.HolidayCalendarCodes {
			sets = append(sets, personalSets[normalizeCalendarCode(code)])
		}
		sets = append(sets, model.NewHolidaySet(p.HolidayDates...))

		byActor[p.UserID] = ActorCalendar{
			Location: s.location(p.Timezone, org.Location, "user", p.UserID),
			Holidays: org.Holidays.Union(sets...),
		}
	}

	return NewActorCalendars(org, byActor), nil
}

// location resolves a timezone name and logs when an invalid name falls back.
func (s *CalendarService) location(name string, fallback *time.Location, owner string, id int64) *time.Location {
	loc := ResolveLocation(name, fallback)
	if name != "" && loc.String() != name {
		s.logger.Warn("invalid timezone, using fallback",
			"owner", owner,
			"id", id,
			"timezone", name,
			"fallback", loc.String(),
		)
	}
	return loc
}

// uniqueIDs returns ids without duplicates or zero values, in first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
