package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/attentionhub/internal/application"
	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

func TestBusinessDayDiff(t *testing.T) {
	none := model.HolidaySet{}

	tests := []struct {
		name     string
		from, to time.Time
		holidays model.HolidaySet
		want     int
	}{
		{"same day", at(2026, 3, 16, 9), at(2026, 3, 16, 17), none, 0},
		{"friday to monday skips weekend", at(2026, 3, 13, 12), at(2026, 3, 16, 12), none, 1},
		{"full week", date(2026, 3, 9), date(2026, 3, 16), none, 5},
		{"holiday inside range", date(2026, 3, 9), date(2026, 3, 16), model.NewHolidaySet("2026-03-11"), 4},
		{"holiday on start day is not counted anyway", date(2026, 3, 9), date(2026, 3, 16), model.NewHolidaySet("2026-03-09"), 5},
		{"to before from", date(2026, 3, 16), date(2026, 3, 9), none, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := application.BusinessDayDiff(tt.from, tt.to, tt.holidays, time.UTC)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBusinessDayDiff_ZeroFrom(t *testing.T) {
	_, ok := application.BusinessDayDiff(time.Time{}, date(2026, 3, 16), model.HolidaySet{}, time.UTC)
	assert.False(t, ok)
}

func TestBusinessDayDiff_Timezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Friday evening to Monday evening in New York, but Friday night to
	// Tuesday morning in UTC.
	from := time.Date(2026, 3, 13, 23, 30, 0, 0, time.UTC)
	to := time.Date(2026, 3, 17, 2, 0, 0, 0, time.UTC)

	inNY, ok := application.BusinessDayDiff(from, to, model.HolidaySet{}, ny)
	require.True(t, ok)
	assert.Equal(t, 1, inNY)

	inUTC, ok := application.BusinessDayDiff(from, to, model.HolidaySet{}, time.UTC)
	require.True(t, ok)
	assert.Equal(t, 2, inUTC)
}

func TestBusinessDayDiff_Monotonic(t *testing.T) {
	to := date(2026, 4, 30)
	holidays := []string{"2026-04-03", "2026-04-06", "2026-04-15", "2026-04-16", "2026-04-27"}

	for from := date(2026, 3, 20); !from.After(to); from = from.AddDate(0, 0, 1) {
		prev := -1
		set := model.HolidaySet{}
		for i := 0; i <= len(holidays); i++ {
			got, ok := application.BusinessDayDiff(from, to, set, time.UTC)
			require.True(t, ok)
			assert.GreaterOrEqual(t, got, 0)
			if prev >= 0 {
				assert.LessOrEqual(t, got, prev, "adding %s increased the count from %s", holidays[i-1], from)
			}
			prev = got
			if i < len(holidays) {
				set = set.Union(model.NewHolidaySet(holidays[i]))
			}
		}
	}

	prev := -1
	for from := date(2026, 3, 20); !from.After(to); from = from.AddDate(0, 0, 1) {
		got, _ := application.BusinessDayDiff(from, to, model.HolidaySet{}, time.UTC)
		if prev >= 0 {
			assert.LessOrEqual(t, got, prev, "moving from later to %s increased the count", from)
		}
		prev = got
	}
}

func TestCalendarDayDiff(t *testing.T) {
	got, ok := application.CalendarDayDiff(date(2026, 2, 1), at(2026, 3, 18, 12), time.UTC)
	require.True(t, ok)
	assert.Equal(t, 45, got)

	got, ok = application.CalendarDayDiff(date(2026, 3, 18), date(2026, 3, 1), time.UTC)
	require.True(t, ok)
	assert.Equal(t, 0, got)

	_, ok = application.CalendarDayDiff(time.Time{}, date(2026, 3, 1), time.UTC)
	assert.False(t, ok)
}

func TestResolveLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", application.ResolveLocation("Europe/Berlin", time.UTC).String())
	assert.Equal(t, berlin, application.ResolveLocation("Not/A_Zone", berlin))
	assert.Equal(t, berlin, application.ResolveLocation("", berlin))
	assert.Equal(t, time.UTC, application.ResolveLocation("Not/A_Zone", nil))
}

func TestCalendarService_LoadActorCalendars(t *testing.T) {
	holidays := &fakeHolidayStore{rows: []model.HolidayDate{
		{CalendarCode: "US", Date: "2026-03-10"},
		{CalendarCode: "DE", Date: "2026-03-11"},
	}}
	prefs := &fakePreferenceStore{prefs: []model.UserPreferences{
		{UserID: 1, Timezone: "Europe/Berlin", HolidayCalendarCodes: []string{"de"}, HolidayDates: []string{"2026-03-12"}},
		{UserID: 2, Timezone: "Bogus/Zone"},
	}}
	svc := application.NewCalendarService(application.NewHolidayCache(holidays), prefs)

	settings := model.DefaultOrganizationSettings()
	settings.HolidayCalendarCodes = []string{"US"}

	cals, err := svc.LoadActorCalendars(context.Background(), settings, []int64{1, 2, 3, 1, 0})
	require.NoError(t, err)

	org := cals.Organization()
	assert.Equal(t, time.UTC, org.Location)
	assert.Equal(t, []string{"2026-03-10"}, org.Holidays.Dates())

	alice := cals.For(1)
	assert.Equal(t, "Europe/Berlin", alice.Location.String())
	assert.Equal(t, []string{"2026-03-10", "2026-03-11", "2026-03-12"}, alice.Holidays.Dates())

	bob := cals.For(2)
	assert.Equal(t, time.UTC, bob.Location, "invalid timezone falls back to the organization")

	assert.Equal(t, org, cals.For(3), "users without preferences get the organization calendar")

	// Mon 9 to Mon 16: five business days minus Alice's three days off.
	days, ok := alice.BusinessDaysSince(date(2026, 3, 9), date(2026, 3, 16))
	require.True(t, ok)
	assert.Equal(t, 2, days)

	assert.Equal(t, 1, prefs.calls)
}

func TestHolidayCache(t *testing.T) {
	store := &fakeHolidayStore{rows: []model.HolidayDate{
		{CalendarCode: "US", Date: "2026-07-03"},
		{CalendarCode: "US", Date: "2026-12-25"},
	}}
	cache := application.NewHolidayCache(store)
	ctx := context.Background()

	first, err := cache.Union(ctx, []string{"us", " US ", "FR"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Len())
	require.Len(t, store.calls, 1)
	assert.ElementsMatch(t, []string{"US", "FR"}, store.calls[0])

	_, err = cache.Union(ctx, []string{"US", "FR"})
	require.NoError(t, err)
	assert.Len(t, store.calls, 1, "cached codes, including empty ones, are not fetched again")

	cache.Invalidate("us")
	_, err = cache.Union(ctx, []string{"US", "FR"})
	require.NoError(t, err)
	require.Len(t, store.calls, 2)
	assert.Equal(t, []string{"US"}, store.calls[1])

	cache.InvalidateAll()
	_, err = cache.Get(ctx, []string{"US", "FR"})
	require.NoError(t, err)
	assert.Len(t, store.calls, 3)
}
