package driven

import (
	"context"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// ThresholdStore defines the driven port for attention threshold configuration persistence.
type ThresholdStore interface {
	// GetGlobalThresholds returns the current global thresholds.
	// Returns model.DefaultAttentionThresholds() if nothing has been saved.
	GetGlobalThresholds(ctx context.Context) (model.AttentionThresholds, error)

	// SetGlobalThresholds persists the global thresholds.
	SetGlobalThresholds(ctx context.Context, thresholds model.AttentionThresholds) error

	// ListRepoThresholds returns every per-repository override.
	ListRepoThresholds(ctx context.Context) ([]model.RepoThreshold, error)

	// SetRepoThreshold persists per-repository threshold overrides.
	SetRepoThreshold(ctx context.Context, threshold model.RepoThreshold) error

	// DeleteRepoThreshold removes the per-repository override, causing the
	// repository to fall back to global thresholds.
	DeleteRepoThreshold(ctx context.Context, repositoryID int64) error
}

// SettingsStore defines the driven port for organization settings.
type SettingsStore interface {
	// GetOrganizationSettings returns the stored settings merged onto
	// model.DefaultOrganizationSettings().
	GetOrganizationSettings(ctx context.Context) (model.OrganizationSettings, error)

	// SetOrganizationSettings replaces the stored settings.
	SetOrganizationSettings(ctx context.Context, settings model.OrganizationSettings) error
}
