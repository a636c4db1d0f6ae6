package model

// AttentionThresholds holds the minimum age, in days, an item must reach
// before it appears in each attention section.
type AttentionThresholds struct {
	ReviewerUnassignedDays int
	ReviewStalledDays      int
	MergeDelayedDays       int
	StuckReviewRequestDays int
	BacklogIssueDays       int
	StalledIssueDays       int
	UnansweredMentionDays  int
}

// Default threshold values used when no settings row exists.
const (
	defaultReviewerUnassignedDays = 2
	defaultReviewStalledDays      = 3
	defaultMergeDelayedDays       = 2
	defaultStuckReviewRequestDays = 2
	defaultBacklogIssueDays       = 40
	defaultStalledIssueDays       = 20
	defaultUnansweredMentionDays  = 2
)

// DefaultAttentionThresholds returns the hard-coded defaults used when no
// global thresholds have been saved.
func DefaultAttentionThresholds() AttentionThresholds {
	return AttentionThresholds{
		ReviewerUnassignedDays: defaultReviewerUnassignedDays,
		ReviewStalledDays:      defaultReviewStalledDays,
		MergeDelayedDays:       defaultMergeDelayedDays,
		StuckReviewRequestDays: defaultStuckReviewRequestDays,
		BacklogIssueDays:       defaultBacklogIssueDays,
		StalledIssueDays:       defaultStalledIssueDays,
		UnansweredMentionDays:  defaultUnansweredMentionDays,
	}
}

// RepoThreshold holds per-repository threshold overrides. Nil pointer fields
// mean "use the global default" for that setting.
type RepoThreshold struct {
	RepositoryID           int64
	ReviewerUnassignedDays *int
	ReviewStalledDays      *int
	MergeDelayedDays       *int
	StuckReviewRequestDays *int
	BacklogIssueDays       *int
	StalledIssueDays       *int
	UnansweredMentionDays  *int
}
