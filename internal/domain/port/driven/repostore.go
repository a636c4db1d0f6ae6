package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// ErrRepoNotFound indicates the requested repository does not exist.
var ErrRepoNotFound = errors.New("repository not found")

// RepoStore defines the driven port for repository lookups and maintainer
// membership.
type RepoStore interface {
	// GetByIDs returns the repositories with the given ids in id order.
	// Unknown ids are silently skipped.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Repository, error)

	// ListRepositoryMaintainers returns maintainer user ids keyed by repository id.
	ListRepositoryMaintainers(ctx context.Context) (map[int64][]int64, error)

	// ListOrganizationMaintainers returns the user ids of organization-wide
	// maintainers, ordered by id.
	ListOrganizationMaintainers(ctx context.Context) ([]int64, error)
}

// UserStore defines the driven port for user lookups.
type UserStore interface {
	// GetByIDs returns the users with the given ids in id order.
	GetByIDs(ctx context.Context, ids []int64) ([]model.User, error)

	// GetByLogins returns the users whose login matches one of the given
	// logins, compared case-insensitively.
	GetByLogins(ctx context.Context, logins []string) ([]model.User, error)
}

// UserPreferenceStore defines the driven port for per-user calendar preferences.
type UserPreferenceStore interface {
	// GetPreferences returns preferences for the users that have any.
	// Users without a row are omitted.
	GetPreferences(ctx context.Context, userIDs []int64) ([]model.UserPreferences, error)

	// SetPreferences stores or replaces a user's preferences.
	SetPreferences(ctx context.Context, prefs model.UserPreferences) error
}

// HolidayStore defines the driven port for holiday calendar data.
type HolidayStore interface {
	// ListHolidays returns every holiday date for the given calendar codes.
	ListHolidays(ctx context.Context, calendarCodes []string) ([]model.HolidayDate, error)
}
