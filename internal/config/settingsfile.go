package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // Timezone validation must not depend on the host zoneinfo.

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// SettingsFile is the declarative organization configuration applied by
// `attentionhub settings apply`. Repositories are named by owner/name and
// users by login; the CLI resolves them against the snapshot.
type SettingsFile struct {
	Organization *OrganizationSection  `yaml:"organization,omitempty"`
	Thresholds   *ThresholdOverrides   `yaml:"thresholds,omitempty"`
	Repositories []RepositorySection   `yaml:"repositories,omitempty"`
	Maintainers  []string              `yaml:"maintainers,omitempty"`
	Holidays     []HolidayCalendar     `yaml:"holidays,omitempty"`
	Users        []UserPreferenceEntry `yaml:"users,omitempty"`
}

// OrganizationSection overrides organization settings. Unset fields keep the
// stored value.
type OrganizationSection struct {
	ExcludedRepositories []string `yaml:"excluded_repositories,omitempty"`
	ExcludedUsers        []string `yaml:"excluded_users,omitempty"`
	HolidayCalendars     []string `yaml:"holiday_calendars,omitempty"`
	TargetProjectName    *string  `yaml:"target_project_name,omitempty"`
	Timezone             *string  `yaml:"timezone,omitempty"`
	WeekStart            *string  `yaml:"week_start,omitempty"`
	DateTimeFormat       *string  `yaml:"date_time_format,omitempty"`
	MentionFilterMode    *string  `yaml:"mention_filter_mode,omitempty"`
}

// ThresholdOverrides holds day thresholds. Nil fields are left unchanged.
type ThresholdOverrides struct {
	ReviewerUnassignedDays *int `yaml:"reviewer_unassigned_days,omitempty"`
	ReviewStalledDays      *int `yaml:"review_stalled_days,omitempty"`
	MergeDelayedDays       *int `yaml:"merge_delayed_days,omitempty"`
	StuckReviewRequestDays *int `yaml:"stuck_review_request_days,omitempty"`
	BacklogIssueDays       *int `yaml:"backlog_issue_days,omitempty"`
	StalledIssueDays       *int `yaml:"stalled_issue_days,omitempty"`
	UnansweredMentionDays  *int `yaml:"unanswered_mention_days,omitempty"`
}

// RepositorySection configures one repository.
type RepositorySection struct {
	Name        string              `yaml:"name"`
	Maintainers []string            `yaml:"maintainers,omitempty"`
	Thresholds  *ThresholdOverrides `yaml:"thresholds,omitempty"`
}

// HolidayCalendar replaces the dates of one calendar.
type HolidayCalendar struct {
	Code  string         `yaml:"code"`
	Dates []HolidayEntry `yaml:"dates"`
}

// HolidayEntry is one dated holiday.
type HolidayEntry struct {
	Date string `yaml:"date"`
	Name string `yaml:"name,omitempty"`
}

// UserPreferenceEntry sets one user's calendar preferences.
type UserPreferenceEntry struct {
	Login            string   `yaml:"login"`
	Timezone         string   `yaml:"timezone,omitempty"`
	HolidayCalendars []string `yaml:"holiday_calendars,omitempty"`
	HolidayDates     []string `yaml:"holiday_dates,omitempty"`
}

// LoadSettingsFile reads and validates a YAML settings file.
func LoadSettingsFile(path string) (*SettingsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes and validates YAML settings. Unknown keys are rejected.
func ParseSettings(data []byte) (*SettingsFile, error) {
	var sf SettingsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	if err := sf.validate(); err != nil {
		return nil, err
	}
	return &sf, nil
}

func (sf *SettingsFile) validate() error {
	if org := sf.Organization; org != nil {
		if org.WeekStart != nil {
			if _, err := ParseWeekday(*org.WeekStart); err != nil {
				return err
			}
		}
		if org.MentionFilterMode != nil {
			switch model.MentionFilterMode(*org.MentionFilterMode) {
			case model.MentionFilterClassifier, model.MentionFilterUnfiltered:
			default:
				return fmt.Errorf("organization.mention_filter_mode must be %q or %q, got %q",
					model.MentionFilterClassifier, model.MentionFilterUnfiltered, *org.MentionFilterMode)
			}
		}
		if org.Timezone != nil && *org.Timezone != "" {
			if _, err := time.LoadLocation(*org.Timezone); err != nil {
				return fmt.Errorf("organization.timezone %q: %w", *org.Timezone, err)
			}
		}
	}

	if err := sf.Thresholds.validate("thresholds"); err != nil {
		return err
	}
	for i, repo := range sf.Repositories {
		if !strings.Contains(repo.Name, "/") {
			return fmt.Errorf("repositories[%d].name must be owner/name, got %q", i, repo.Name)
		}
		if err := repo.Thresholds.validate(fmt.Sprintf("repositories[%d].thresholds", i)); err != nil {
			return err
		}
	}

	for i, cal := range sf.Holidays {
		if strings.TrimSpace(cal.Code) == "" {
			return fmt.Errorf("holidays[%d].code is required", i)
		}
		for _, d := range cal.Dates {
			if _, err := time.Parse("2006-01-02", d.Date); err != nil {
				return fmt.Errorf("holidays[%d]: invalid date %q", i, d.Date)
			}
		}
	}

	for i, u := range sf.Users {
		if strings.TrimSpace(u.Login) == "" {
			return fmt.Errorf("users[%d].login is required", i)
		}
		for _, d := range u.HolidayDates {
			if _, err := time.Parse("2006-01-02", d); err != nil {
				return fmt.Errorf("users[%d]: invalid holiday date %q", i, d)
			}
		}
	}
	return nil
}

func (o *ThresholdOverrides) validate(path string) error {
	if o == nil {
		return nil
	}
	for name, v := range o.fields() {
		if *v != nil && **v < 0 {
			return fmt.Errorf("%s.%s must not be negative", path, name)
		}
	}
	return nil
}

func (o *ThresholdOverrides) fields() map[string]**int {
	return map[string]**int{
		"reviewer_unassigned_days":  &o.ReviewerUnassignedDays,
		"review_stalled_days":       &o.ReviewStalledDays,
		"merge_delayed_days":        &o.MergeDelayedDays,
		"stuck_review_request_days": &o.StuckReviewRequestDays,
		"backlog_issue_days":        &o.BacklogIssueDays,
		"stalled_issue_days":        &o.StalledIssueDays,
		"unanswered_mention_days":   &o.UnansweredMentionDays,
	}
}

// MergeInto returns base with every set override applied.
func (o *ThresholdOverrides) MergeInto(base model.AttentionThresholds) model.AttentionThresholds {
	if o == nil {
		return base
	}
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&base.ReviewerUnassignedDays, o.ReviewerUnassignedDays)
	set(&base.ReviewStalledDays, o.ReviewStalledDays)
	set(&base.MergeDelayedDays, o.MergeDelayedDays)
	set(&base.StuckReviewRequestDays, o.StuckReviewRequestDays)
	set(&base.BacklogIssueDays, o.BacklogIssueDays)
	set(&base.StalledIssueDays, o.StalledIssueDays)
	set(&base.UnansweredMentionDays, o.UnansweredMentionDays)
	return base
}

// RepoThreshold converts the overrides to a per-repository row.
func (o *ThresholdOverrides) RepoThreshold(repositoryID int64) model.RepoThreshold {
	rt := model.RepoThreshold{RepositoryID: repositoryID}
	if o == nil {
		return rt
	}
	rt.ReviewerUnassignedDays = o.ReviewerUnassignedDays
	rt.ReviewStalledDays = o.ReviewStalledDays
	rt.MergeDelayedDays = o.MergeDelayedDays
	rt.StuckReviewRequestDays = o.StuckReviewRequestDays
	rt.BacklogIssueDays = o.BacklogIssueDays
	rt.StalledIssueDays = o.StalledIssueDays
	rt.UnansweredMentionDays = o.UnansweredMentionDays
	return rt
}

// ApplyScalars copies the set scalar fields onto settings. Id lists are
// resolved by the caller.
func (o *OrganizationSection) ApplyScalars(settings model.OrganizationSettings) model.OrganizationSettings {
	if o == nil {
		return settings
	}
	if o.HolidayCalendars != nil {
		settings.HolidayCalendarCodes = o.HolidayCalendars
	}
	if o.TargetProjectName != nil {
		settings.TargetProjectName = *o.TargetProjectName
	}
	if o.Timezone != nil {
		settings.Timezone = *o.Timezone
	}
	if o.WeekStart != nil {
		if day, err := ParseWeekday(*o.WeekStart); err == nil {
			settings.WeekStart = day
		}
	}
	if o.DateTimeFormat != nil {
		settings.DateTimeFormat = *o.DateTimeFormat
	}
	if o.MentionFilterMode != nil {
		settings.MentionFilterMode = model.MentionFilterMode(*o.MentionFilterMode)
	}
	return settings
}

// ParseWeekday accepts an English day name or its three-letter prefix.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid week start %q", s)
}

// HolidayDates converts the calendar entries to store rows.
func (c HolidayCalendar) HolidayDates() []model.HolidayDate {
	code := strings.ToUpper(strings.TrimSpace(c.Code))
	out := make([]model.HolidayDate, 0, len(c.Dates))
	for _, d := range c.Dates {
		out = append(out, model.HolidayDate{CalendarCode: code, Date: d.Date, Name: d.Name})
	}
	return out
}
