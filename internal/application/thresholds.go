package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// ThresholdSet resolves effective thresholds per repository: a repository
// override wins when non-nil, otherwise the global value applies.
type ThresholdSet struct {
	global model.AttentionThresholds
	byRepo map[int64]model.RepoThreshold
}

// NewThresholdSet builds a set from global values and per-repository overrides.
func NewThresholdSet(global model.AttentionThresholds, overrides []model.RepoThreshold) ThresholdSet {
	byRepo := make(map[int64]model.RepoThreshold, len(overrides))
	for _, o := range overrides {
		byRepo[o.RepositoryID] = o
	}
	return ThresholdSet{global: global, byRepo: byRepo}
}

// Global returns the global thresholds.
func (t ThresholdSet) Global() model.AttentionThresholds {
	return t.global
}

// For returns the effective thresholds of a repository.
func (t ThresholdSet) For(repositoryID int64) model.AttentionThresholds {
	effective := t.global
	o, ok := t.byRepo[repositoryID]
	if !ok {
		return effective
	}

	if o.ReviewerUnassignedDays != nil {
		effective.ReviewerUnassignedDays = *o.ReviewerUnassignedDays
	}
	if o.ReviewStalledDays != nil {
		effective.ReviewStalledDays = *o.ReviewStalledDays
	}
	if o.MergeDelayedDays != nil {
		effective.MergeDelayedDays = *o.MergeDelayedDays
	}
	if o.StuckReviewRequestDays != nil {
		effective.StuckReviewRequestDays = *o.StuckReviewRequestDays
	}
	if o.BacklogIssueDays != nil {
		effective.BacklogIssueDays = *o.BacklogIssueDays
	}
	if o.StalledIssueDays != nil {
		effective.StalledIssueDays = *o.StalledIssueDays
	}
	if o.UnansweredMentionDays != nil {
		effective.UnansweredMentionDays = *o.UnansweredMentionDays
	}

	return effective
}

// LoadThresholds reads global thresholds and every repository override.
func LoadThresholds(ctx context.Context, store driven.ThresholdStore) (ThresholdSet, error) {
	global, err := store.GetGlobalThresholds(ctx)
	if err != nil {
		return ThresholdSet{}, fmt.Errorf("get global thresholds: %w", err)
	}
	overrides, err := store.ListRepoThresholds(ctx)
	if err != nil {
		return ThresholdSet{}, fmt.Errorf("list repo thresholds: %w", err)
	}
	return NewThresholdSet(global, overrides), nil
}
