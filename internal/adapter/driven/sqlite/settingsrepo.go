package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SettingsStore = (*SettingsRepo)(nil)

const (
	keyExcludedRepositories = "org.excluded_repository_ids"
	keyExcludedUsers        = "org.excluded_user_ids"
	keyHolidayCalendars     = "org.holiday_calendar_codes"
	keyTargetProject        = "org.target_project_name"
	keyTimezone             = "org.timezone"
	keyWeekStart            = "org.week_start"
	keyDateTimeFormat       = "org.date_time_format"
	keyMentionFilterMode    = "org.mention_filter_mode"
)

// SettingsRepo stores organization settings as rows of the global_settings
// key/value table.
type SettingsRepo struct {
	db *DB
}

// NewSettingsRepo creates a new SettingsRepo backed by the given DB.
func NewSettingsRepo(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// GetOrganizationSettings returns stored settings merged onto
// model.DefaultOrganizationSettings(). Unparseable values keep the default.
func (r *SettingsRepo) GetOrganizationSettings(ctx context.Context) (model.OrganizationSettings, error) {
	const query = `SELECT key, value FROM global_settings WHERE key LIKE 'org.%'`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return model.DefaultOrganizationSettings(), fmt.Errorf("query global_settings: %w", err)
	}
	defer rows.Close()

	settings := model.DefaultOrganizationSettings()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.DefaultOrganizationSettings(), fmt.Errorf("scan global_settings row: %w", err)
		}
		applySetting(&settings, key, value)
	}
	if err := rows.Err(); err != nil {
		return model.DefaultOrganizationSettings(), fmt.Errorf("iterate global_settings: %w", err)
	}

	return settings, nil
}

func applySetting(s *model.OrganizationSettings, key, value string) {
	switch key {
	case keyExcludedRepositories:
		var ids []int64
		if json.Unmarshal([]byte(value), &ids) == nil && ids != nil {
			s.ExcludedRepositoryIDs = ids
		}
	case keyExcludedUsers:
		var ids []int64
		if json.Unmarshal([]byte(value), &ids) == nil && ids != nil {
			s.ExcludedUserIDs = ids
		}
	case keyHolidayCalendars:
		if codes := decodeStringList(value); codes != nil {
			s.HolidayCalendarCodes = codes
		}
	case keyTargetProject:
		if value != "" {
			s.TargetProjectName = value
		}
	case keyTimezone:
		if value != "" {
			s.Timezone = value
		}
	case keyWeekStart:
		if v, err := strconv.Atoi(value); err == nil && v >= 0 && v <= 6 {
			s.WeekStart = time.Weekday(v)
		}
	case keyDateTimeFormat:
		if value != "" {
			s.DateTimeFormat = value
		}
	case keyMentionFilterMode:
		switch mode := model.MentionFilterMode(strings.ToLower(value)); mode {
		case model.MentionFilterClassifier, model.MentionFilterUnfiltered:
			s.MentionFilterMode = mode
		}
	}
}

// SetOrganizationSettings replaces every stored organization setting.
func (r *SettingsRepo) SetOrganizationSettings(ctx context.Context, settings model.OrganizationSettings) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	values := []struct{ key, value string }{
		{keyExcludedRepositories, idList(settings.ExcludedRepositoryIDs)},
		{keyExcludedUsers, idList(settings.ExcludedUserIDs)},
		{keyHolidayCalendars, stringList(settings.HolidayCalendarCodes)},
		{keyTargetProject, settings.TargetProjectName},
		{keyTimezone, settings.Timezone},
		{keyWeekStart, strconv.Itoa(int(settings.WeekStart))},
		{keyDateTimeFormat, settings.DateTimeFormat},
		{keyMentionFilterMode, string(settings.MentionFilterMode)},
	}

	const upsert = `INSERT OR REPLACE INTO global_settings (key, value) VALUES (?, ?)`
	for _, v := range values {
		if _, err := tx.ExecContext(ctx, upsert, v.key, v.value); err != nil {
			return fmt.Errorf("upsert global_settings %q: %w", v.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit global_settings: %w", err)
	}
	return nil
}
