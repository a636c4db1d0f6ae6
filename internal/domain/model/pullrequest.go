package model

import "time"

// PullRequestCandidate is a denormalized pull request row returned by the
// activity store for attention detection. It exists only for one computation.
type PullRequestCandidate struct {
	ID           int64
	Number       int
	RepositoryID int64
	AuthorID     int64
	Title        string
	URL          string
	IsDraft      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ApprovedAt   time.Time // Latest standing approval; zero when not approved.
}

// IsApproved reports whether the pull request has a standing approval.
func (pr PullRequestCandidate) IsApproved() bool {
	return !pr.ApprovedAt.IsZero()
}

// PullRequestAttentionItem is a pull request surfaced by one of the
// pull-request attention sections.
type PullRequestAttentionItem struct {
	ID          int64
	Number      int
	Title       string
	URL         string
	Repository  RepositoryReference
	Author      UserReference
	Reviewers   []UserReference // Stalled reviewers (review-stalled section only).
	Maintainers []UserReference // Stakeholders the wait was measured against.
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ApprovedAt  *time.Time
	WaitingDays int
}
