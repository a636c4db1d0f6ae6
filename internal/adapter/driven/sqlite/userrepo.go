package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.UserStore           = (*UserRepo)(nil)
	_ driven.UserPreferenceStore = (*PreferenceRepo)(nil)
)

// UserRepo is the SQLite implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByIDs returns the users with the given ids in id order.
func (r *UserRepo) GetByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, login, name FROM users
		WHERE id IN (SELECT value FROM json_each(?))
		ORDER BY id
	`
	return r.queryUsers(ctx, query, idList(ids))
}

// GetByLogins returns the users whose login matches one of logins, ignoring case.
func (r *UserRepo) GetByLogins(ctx context.Context, logins []string) ([]model.User, error) {
	if len(logins) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(logins))
	for i, l := range logins {
		lowered[i] = strings.ToLower(l)
	}

	const query = `
		SELECT id, login, name FROM users
		WHERE lower(login) IN (SELECT value FROM json_each(?))
		ORDER BY id
	`
	return r.queryUsers(ctx, query, stringList(lowered))
}

func (r *UserRepo) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Login, &u.Name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// PreferenceRepo is the SQLite implementation of the UserPreferenceStore port
// interface. Code and date lists are stored as JSON arrays.
type PreferenceRepo struct {
	db *DB
}

// NewPreferenceRepo creates a new PreferenceRepo backed by the given DB.
func NewPreferenceRepo(db *DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// GetPreferences returns the stored preferences of the given users. Users
// without a row are omitted; malformed JSON lists decode as empty.
func (r *PreferenceRepo) GetPreferences(ctx context.Context, userIDs []int64) ([]model.UserPreferences, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	const query = `
		SELECT user_id, timezone, holiday_calendar_codes, holiday_dates
		FROM user_preferences
		WHERE user_id IN (SELECT value FROM json_each(?))
		ORDER BY user_id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, idList(userIDs))
	if err != nil {
		return nil, fmt.Errorf("query user_preferences: %w", err)
	}
	defer rows.Close()

	var prefs []model.UserPreferences
	for rows.Next() {
		var p model.UserPreferences
		var codes, dates string
		if err := rows.Scan(&p.UserID, &p.Timezone, &codes, &dates); err != nil {
			return nil, fmt.Errorf("scan user preferences: %w", err)
		}
		p.HolidayCalendarCodes = decodeStringList(codes)
		p.HolidayDates = decodeStringList(dates)
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user_preferences: %w", err)
	}

	return prefs, nil
}

// SetPreferences stores or replaces a user's preferences.
func (r *PreferenceRepo) SetPreferences(ctx context.Context, prefs model.UserPreferences) error {
	const query = `
		INSERT INTO user_preferences (user_id, timezone, holiday_calendar_codes, holiday_dates)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			timezone = excluded.timezone,
			holiday_calendar_codes = excluded.holiday_calendar_codes,
			holiday_dates = excluded.holiday_dates
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		prefs.UserID,
		strings.TrimSpace(prefs.Timezone),
		stringList(prefs.HolidayCalendarCodes),
		stringList(prefs.HolidayDates),
	)
	if err != nil {
		return fmt.Errorf("set preferences for user %d: %w", prefs.UserID, err)
	}
	return nil
}
