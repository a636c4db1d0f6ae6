package model

import "time"

// ReviewRequestCandidate is one outstanding review request joined with its
// pull request and the reviewer's most recent activity on that pull request.
type ReviewRequestCandidate struct {
	PullRequest    PullRequestCandidate
	ReviewerID     int64
	RequestedAt    time.Time
	LastActivityAt time.Time // Reviewer's latest review, comment, or reaction on the PR; zero if none.
}

// ReviewRequestAttentionItem is a review request nobody has acted on.
type ReviewRequestAttentionItem struct {
	PullRequestID int64
	Number        int
	Title         string
	URL           string
	Repository    RepositoryReference
	Author        UserReference
	Reviewers     []UserReference
	RequestedAt   time.Time
	WaitingDays   int
}
