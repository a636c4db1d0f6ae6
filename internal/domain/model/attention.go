package model

import "time"

// AttentionInsights is the complete result of one attention computation. It is
// built fresh on every call and never persisted.
type AttentionInsights struct {
	GeneratedAt    time.Time
	Timezone       string
	DateTimeFormat string
	WeekStart      time.Weekday

	ReviewerUnassignedPRs   []PullRequestAttentionItem
	ReviewStalledPRs        []PullRequestAttentionItem
	MergeDelayedPRs         []PullRequestAttentionItem
	StuckReviewRequests     []ReviewRequestAttentionItem
	BacklogIssues           []IssueAttentionItem
	StalledInProgressIssues []IssueAttentionItem
	UnansweredMentions      []MentionAttentionItem

	OrganizationMaintainers           []UserReference
	RepositoryMaintainersByRepository map[int64][]UserReference
}

// SectionLen returns the number of items in the given section.
func (a AttentionInsights) SectionLen(section InsightsSection) int {
	switch section {
	case SectionReviewerUnassignedPRs:
		return len(a.ReviewerUnassignedPRs)
	case SectionReviewStalledPRs:
		return len(a.ReviewStalledPRs)
	case SectionMergeDelayedPRs:
		return len(a.MergeDelayedPRs)
	case SectionStuckReviewRequests:
		return len(a.StuckReviewRequests)
	case SectionBacklogIssues:
		return len(a.BacklogIssues)
	case SectionStalledInProgressIssues:
		return len(a.StalledInProgressIssues)
	case SectionUnansweredMentions:
		return len(a.UnansweredMentions)
	default:
		return 0
	}
}

// LeaderboardRole names the role a user plays in a section's items.
type LeaderboardRole string

const (
	RoleAuthor        LeaderboardRole = "author"
	RoleReviewer      LeaderboardRole = "reviewer"
	RoleMaintainer    LeaderboardRole = "maintainer"
	RoleAssignee      LeaderboardRole = "assignee"
	RoleRequester     LeaderboardRole = "requester"
	RoleMentionTarget LeaderboardRole = "mention_target"
)

// LeaderboardEntry counts how often a user appears in a role.
type LeaderboardEntry struct {
	User  UserReference
	Count int
}

// RoleHighlight is the top entries for one role.
type RoleHighlight struct {
	Role    LeaderboardRole
	Entries []LeaderboardEntry
}

// SectionSummary summarizes one attention section.
type SectionSummary struct {
	Section    InsightsSection
	Count      int
	TotalDays  int
	Highlights []RoleHighlight
}

// Leaderboard is the read-side summary of an AttentionInsights value.
type Leaderboard struct {
	GeneratedAt time.Time
	TotalItems  int
	Sections    []SectionSummary
}
