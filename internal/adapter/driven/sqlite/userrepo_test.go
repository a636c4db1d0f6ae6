package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

func TestUserRepo_Lookups(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, 2, "Bob")
	seedUser(t, db, 1, "alice")
	repo := NewUserRepo(db)
	ctx := context.Background()

	byID, err := repo.GetByIDs(ctx, []int64{2, 1, 42})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, "alice", byID[0].Login)
	assert.Equal(t, "Bob", byID[1].Login)

	byLogin, err := repo.GetByLogins(ctx, []string{"bob", "ALICE", "nobody"})
	require.NoError(t, err)
	assert.Equal(t, []model.User{{ID: 1, Login: "alice"}, {ID: 2, Login: "Bob"}}, byLogin)

	empty, err := repo.GetByLogins(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPreferenceRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	repo := NewPreferenceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.SetPreferences(ctx, model.UserPreferences{
		UserID:               1,
		Timezone:             " America/New_York ",
		HolidayCalendarCodes: []string{"US"},
		HolidayDates:         []string{"2026-03-12"},
	}))
	require.NoError(t, repo.SetPreferences(ctx, model.UserPreferences{UserID: 1, Timezone: "Europe/Berlin", HolidayCalendarCodes: []string{"DE"}}))

	prefs, err := repo.GetPreferences(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, prefs, 1, "users without preferences are omitted")
	assert.Equal(t, "Europe/Berlin", prefs[0].Timezone)
	assert.Equal(t, []string{"DE"}, prefs[0].HolidayCalendarCodes)
	assert.Empty(t, prefs[0].HolidayDates)
}

func TestPreferenceRepo_MalformedListsDecodeEmpty(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, 1, "alice")
	mustExec(t, db, `INSERT INTO user_preferences (user_id, timezone, holiday_calendar_codes, holiday_dates) VALUES (1, 'UTC', 'not json', '{')`)

	prefs, err := NewPreferenceRepo(db).GetPreferences(context.Background(), []int64{1})
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Nil(t, prefs[0].HolidayCalendarCodes)
	assert.Nil(t, prefs[0].HolidayDates)
}

func TestHolidayRepo_ReplaceAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHolidayRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceCalendar(ctx, "us", []model.HolidayDate{
		{Date: "2026-07-03", Name: "Independence Day (observed)"},
		{Date: "2026-01-01", Name: "New Year"},
	}))
	require.NoError(t, repo.ReplaceCalendar(ctx, "DE", []model.HolidayDate{{Date: "2026-10-03", Name: "Tag der Deutschen Einheit"}}))

	got, err := repo.ListHolidays(ctx, []string{" Us "})
	require.NoError(t, err)
	assert.Equal(t, []model.HolidayDate{
		{CalendarCode: "US", Date: "2026-01-01", Name: "New Year"},
		{CalendarCode: "US", Date: "2026-07-03", Name: "Independence Day (observed)"},
	}, got)

	require.NoError(t, repo.ReplaceCalendar(ctx, "US", nil))
	got, err = repo.ListHolidays(ctx, []string{"US", "DE"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "DE", got[0].CalendarCode)
}
