package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// detectionContext is the read-only state shared by every detector in one
// computation.
type detectionContext struct {
	now         time.Time
	settings    model.OrganizationSettings
	thresholds  ThresholdSet
	maintainers maintainerDirectory
	filter      driven.CandidateFilter
}

func (dc detectionContext) included(userID int64) bool {
	return userID != 0 && !dc.settings.IsUserExcluded(userID)
}

// withoutExcluded drops zero and denylisted user ids.
func (dc detectionContext) withoutExcluded(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		if dc.included(id) {
			out = append(out, id)
		}
	}
	return out
}

// maintainerDirectory resolves the stakeholders of a pull request: repository
// maintainers, then organization maintainers, then the author.
type maintainerDirectory struct {
	byRepo       map[int64][]int64
	organization []int64
}

func (d maintainerDirectory) forPullRequest(dc detectionContext, repositoryID, authorID int64) []int64 {
	if ids := dc.withoutExcluded(d.byRepo[repositoryID]); len(ids) > 0 {
		return ids
	}
	if ids := dc.withoutExcluded(d.organization); len(ids) > 0 {
		return ids
	}
	if dc.included(authorID) {
		return []int64{authorID}
	}
	return nil
}

// prFinding is a qualifying pull request before reference hydration.
type prFinding struct {
	pr          model.PullRequestCandidate
	maintainers []int64
	reviewers   []int64
	waitingDays int
}

// requestFinding is a qualifying stuck review request before hydration.
type requestFinding struct {
	pr          model.PullRequestCandidate
	reviewers   []int64
	requestedAt time.Time
	waitingDays int
}

// detectReviewerUnassigned finds open pull requests nobody was asked to review
// that every maintainer has waited on since creation.
func (s *InsightsService) detectReviewerUnassigned(ctx context.Context, dc detectionContext) ([]prFinding, error) {
	prs, err := s.activity.ListUnreviewedPullRequests(ctx, dc.filter)
	if err != nil {
		return nil, fmt.Errorf("list unreviewed pull requests: %w", err)
	}
	return s.evaluateMaintainerWait(ctx, dc, prs,
		func(pr model.PullRequestCandidate) time.Time { return pr.CreatedAt },
		func(t model.AttentionThresholds) int { return t.ReviewerUnassignedDays },
	)
}

// detectMergeDelayed finds approved pull requests that maintainers have not
// merged since the approval.
func (s *InsightsService) detectMergeDelayed(ctx context.Context, dc detectionContext) ([]prFinding, error) {
	prs, err := s.activity.ListApprovedPullRequests(ctx, dc.filter)
	if err != nil {
		return nil, fmt.Errorf("list approved pull requests: %w", err)
	}
	return s.evaluateMaintainerWait(ctx, dc, prs,
		func(pr model.PullRequestCandidate) time.Time { return pr.ApprovedAt },
		func(t model.AttentionThresholds) int { return t.MergeDelayedDays },
	)
}

func (s *InsightsService) evaluateMaintainerWait(
	ctx context.Context,
	dc detectionContext,
	prs []model.PullRequestCandidate,
	origin func(model.PullRequestCandidate) time.Time,
	threshold func(model.AttentionThresholds) int,
) ([]prFinding, error) {
	stakeholders := make([][]int64, len(prs))
	var actors []int64
	for i, pr := range prs {
		stakeholders[i] = dc.maintainers.forPullRequest(dc, pr.RepositoryID, pr.AuthorID)
		actors = append(actors, stakeholders[i]...)
	}

	calendars, err := s.calendars.LoadActorCalendars(ctx, dc.settings, actors)
	if err != nil {
		return nil, err
	}

	var findings []prFinding
	for i, pr := range prs {
		eval := EvaluateWaiting(dc.now, stakeholdersSince(stakeholders[i], origin(pr)), calendars, threshold(dc.thresholds.For(pr.RepositoryID)))
		if !eval.Qualifies {
			continue
		}
		findings = append(findings, prFinding{
			pr:          pr,
			maintainers: stakeholders[i],
			waitingDays: eval.WaitingDays,
		})
	}
	return findings, nil
}

// detectReviewStalled finds pull requests where at least one outstanding
// reviewer has been idle for the threshold. A reviewer's clock starts at the
// later of the request and their own last activity on the pull request.
func (s *InsightsService) detectReviewStalled(ctx context.Context, dc detectionContext) ([]prFinding, error) {
	requests, err := s.activity.ListOutstandingReviewRequests(ctx, dc.filter)
	if err != nil {
		return nil, fmt.Errorf("list outstanding review requests: %w", err)
	}

	var order []int64
	byPR := make(map[int64][]model.ReviewRequestCandidate)
	var actors []int64
	for _, rr := range requests {
		if !dc.included(rr.ReviewerID) {
			continue
		}
		if _, ok := byPR[rr.PullRequest.ID]; !ok {
			order = append(order, rr.PullRequest.ID)
		}
		byPR[rr.PullRequest.ID] = append(byPR[rr.PullRequest.ID], rr)
		actors = append(actors, rr.ReviewerID)
	}

	calendars, err := s.calendars.LoadActorCalendars(ctx, dc.settings, actors)
	if err != nil {
		return nil, err
	}

	var findings []prFinding
	for _, prID := range order {
		group := byPR[prID]
		pr := group[0].PullRequest
		threshold := dc.thresholds.For(pr.RepositoryID).ReviewStalledDays

		finding := prFinding{pr: pr}
		for _, rr := range group {
			since := rr.RequestedAt
			if rr.LastActivityAt.After(since) {
				since = rr.LastActivityAt
			}
			eval := EvaluateWaiting(dc.now, []Stakeholder{{UserID: rr.ReviewerID, Since: since}}, calendars, threshold)
			if !eval.Qualifies {
				continue
			}
			if len(finding.reviewers) == 0 || eval.WaitingDays < finding.waitingDays {
				finding.waitingDays = eval.WaitingDays
			}
			finding.reviewers = append(finding.reviewers, rr.ReviewerID)
		}
		if len(finding.reviewers) > 0 {
			finding.reviewers = uniqueIDs(finding.reviewers)
			findings = append(findings, finding)
		}
	}
	return findings, nil
}

// detectStuckReviewRequests finds review requests the reviewers never acted on.
// Requests made together form one candidate measured against all their
// reviewers; a pull request is reported once, with its largest wait.
func (s *InsightsService) detectStuckReviewRequests(ctx context.Context, dc detectionContext) ([]requestFinding, error) {
	requests, err := s.activity.ListStuckReviewRequests(ctx, dc.filter)
	if err != nil {
		return nil, fmt.Errorf("list stuck review requests: %w", err)
	}

	type groupKey struct {
		prID        int64
		requestedAt int64
	}
	var order []groupKey
	groups := make(map[groupKey][]model.ReviewRequestCandidate)
	var actors []int64
	for _, rr := range requests {
		if rr.PullRequest.IsApproved() || !dc.included(rr.ReviewerID) {
			continue
		}
		key := groupKey{prID: rr.PullRequest.ID, requestedAt: rr.RequestedAt.UTC().Unix()}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rr)
		actors = append(actors, rr.ReviewerID)
	}

	calendars, err := s.calendars.LoadActorCalendars(ctx, dc.settings, actors)
	if err != nil {
		return nil, err
	}

	var prOrder []int64
	best := make(map[int64]requestFinding)
	for _, key := range order {
		group := groups[key]
		pr := group[0].PullRequest

		reviewers := make([]int64, 0, len(group))
		for _, rr := range group {
			reviewers = append(reviewers, rr.ReviewerID)
		}
		reviewers = uniqueIDs(reviewers)

		eval := EvaluateWaiting(dc.now, stakeholdersSince(reviewers, group[0].RequestedAt), calendars, dc.thresholds.For(pr.RepositoryID).StuckReviewRequestDays)
		if !eval.Qualifies {
			continue
		}

		finding := requestFinding{
			pr:          pr,
			reviewers:   reviewers,
			requestedAt: group[0].RequestedAt,
			waitingDays: eval.WaitingDays,
		}
		existing, seen := best[pr.ID]
		if !seen {
			prOrder = append(prOrder, pr.ID)
		}
		if !seen || finding.waitingDays > existing.waitingDays {
			best[pr.ID] = finding
		}
	}

	findings := make([]requestFinding, 0, len(prOrder))
	for _, id := range prOrder {
		findings = append(findings, best[id])
	}
	return findings, nil
}
