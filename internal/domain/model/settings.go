package model

import "time"

// OrganizationSettings is the organization-wide configuration consumed by the
// attention engine.
//
// WeekStart and DateTimeFormat are display preferences passed through to
// AttentionInsights. Business-day math always skips Saturday and Sunday
// regardless of WeekStart.
type OrganizationSettings struct {
	ExcludedRepositoryIDs []int64
	ExcludedUserIDs       []int64
	HolidayCalendarCodes  []string
	TargetProjectName     string
	Timezone              string
	WeekStart             time.Weekday
	DateTimeFormat        string
	MentionFilterMode     MentionFilterMode
}

// DefaultOrganizationSettings returns the settings used when nothing has been
// configured.
func DefaultOrganizationSettings() OrganizationSettings {
	return OrganizationSettings{
		ExcludedRepositoryIDs: []int64{},
		ExcludedUserIDs:       []int64{},
		HolidayCalendarCodes:  []string{},
		TargetProjectName:     "to-do list",
		Timezone:              "UTC",
		WeekStart:             time.Monday,
		DateTimeFormat:        "auto",
		MentionFilterMode:     MentionFilterClassifier,
	}
}

// IsUserExcluded reports whether the user is on the denylist.
func (s OrganizationSettings) IsUserExcluded(id int64) bool {
	for _, ex := range s.ExcludedUserIDs {
		if ex == id {
			return true
		}
	}
	return false
}
