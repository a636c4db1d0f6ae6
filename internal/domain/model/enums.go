package model

// PRState represents the state of a pull request.
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateMerged PRState = "merged"
)

// ReviewState represents the state of a review.
type ReviewState string

const (
	ReviewStateApproved         ReviewState = "approved"
	ReviewStateChangesRequested ReviewState = "changes_requested"
	ReviewStateCommented        ReviewState = "commented"
	ReviewStatePending          ReviewState = "pending"
	ReviewStateDismissed        ReviewState = "dismissed"
)

// ContainerType identifies the kind of item a comment or reaction belongs to.
type ContainerType string

const (
	ContainerIssue       ContainerType = "issue"
	ContainerPullRequest ContainerType = "pull_request"
	ContainerDiscussion  ContainerType = "discussion"
)

// ProjectStatus is the closed set of work states an issue can resolve to.
type ProjectStatus string

const (
	ProjectStatusNoStatus   ProjectStatus = "no_status"
	ProjectStatusTodo       ProjectStatus = "todo"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusDone       ProjectStatus = "done"
	ProjectStatusPending    ProjectStatus = "pending"
)

// StatusSource records which signal produced an issue's project status.
type StatusSource string

const (
	StatusSourceTodoProject StatusSource = "todo_project"
	StatusSourceActivity    StatusSource = "activity"
	StatusSourceNone        StatusSource = "none"
)

// MentionFilterMode controls how mentions without a classification record
// are treated.
type MentionFilterMode string

const (
	// MentionFilterClassifier hides mentions until the classifier says a
	// response is required.
	MentionFilterClassifier MentionFilterMode = "classifier"
	// MentionFilterUnfiltered shows mentions that have not been classified yet.
	MentionFilterUnfiltered MentionFilterMode = "unfiltered"
)

// InsightsSection names one of the six attention lists.
type InsightsSection string

const (
	SectionReviewerUnassignedPRs   InsightsSection = "reviewer_unassigned_prs"
	SectionReviewStalledPRs        InsightsSection = "review_stalled_prs"
	SectionMergeDelayedPRs         InsightsSection = "merge_delayed_prs"
	SectionStuckReviewRequests     InsightsSection = "stuck_review_requests"
	SectionBacklogIssues           InsightsSection = "backlog_issues"
	SectionStalledInProgressIssues InsightsSection = "stalled_in_progress_issues"
	SectionUnansweredMentions      InsightsSection = "unanswered_mentions"
)

// AllSections lists every section in display order.
func AllSections() []InsightsSection {
	return []InsightsSection{
		SectionReviewerUnassignedPRs,
		SectionReviewStalledPRs,
		SectionMergeDelayedPRs,
		SectionStuckReviewRequests,
		SectionBacklogIssues,
		SectionStalledInProgressIssues,
		SectionUnansweredMentions,
	}
}

// Valid reports whether s names a known section.
func (s InsightsSection) Valid() bool {
	for _, known := range AllSections() {
		if s == known {
			return true
		}
	}
	return false
}
