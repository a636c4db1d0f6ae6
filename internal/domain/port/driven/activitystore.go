// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// ErrUnknownSection is returned when a caller names an insights section that
// does not exist.
var ErrUnknownSection = errors.New("unknown insights section")

// CandidateFilter carries the organization denylist. Stores drop rows whose
// repository or author is excluded before returning them.
type CandidateFilter struct {
	ExcludedRepositoryIDs []int64
	ExcludedUserIDs       []int64
}

// ActivityStore defines the driven port for read-only attention queries over
// the activity snapshot. Every method returns rows for open items only.
type ActivityStore interface {
	// ListUnreviewedPullRequests returns open, non-draft pull requests with no
	// requested reviewer and no review from anyone but the author.
	ListUnreviewedPullRequests(ctx context.Context, filter CandidateFilter) ([]model.PullRequestCandidate, error)

	// ListOutstandingReviewRequests returns every outstanding review request on
	// open pull requests together with the reviewer's latest activity.
	ListOutstandingReviewRequests(ctx context.Context, filter CandidateFilter) ([]model.ReviewRequestCandidate, error)

	// ListApprovedPullRequests returns open pull requests with a standing
	// approval (no changes requested after the latest approval).
	ListApprovedPullRequests(ctx context.Context, filter CandidateFilter) ([]model.PullRequestCandidate, error)

	// ListStuckReviewRequests returns outstanding review requests on
	// unapproved pull requests where the reviewer has not reviewed, commented,
	// or reacted since the request.
	ListStuckReviewRequests(ctx context.Context, filter CandidateFilter) ([]model.ReviewRequestCandidate, error)

	// ListOpenIssues returns open issues with their raw project payloads,
	// activity-derived status events, and manual field overrides.
	ListOpenIssues(ctx context.Context, filter CandidateFilter) ([]model.IssueCandidate, error)

	// ListMentionComments returns comments on open containers whose body
	// contains an "@" character.
	ListMentionComments(ctx context.Context, filter CandidateFilter) ([]model.CommentCandidate, error)

	// ListParticipantActivity returns comments, reviews, and reactions inside
	// the given containers, including reactions to comments in them.
	ListParticipantActivity(ctx context.Context, containers []model.ContainerRef) ([]model.ParticipantActivity, error)

	// GetComment returns a single comment candidate by id, or (nil, nil)
	// when the comment does not exist.
	GetComment(ctx context.Context, commentID int64) (*model.CommentCandidate, error)
}
