// Package application contains the attention detectors and the services that
// orchestrate them.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// claimOrder is the precedence of the pull request sections. A pull request
// is reported only in the first section of this list that found it.
var claimOrder = []model.InsightsSection{
	model.SectionReviewerUnassignedPRs,
	model.SectionMergeDelayedPRs,
	model.SectionStuckReviewRequests,
	model.SectionReviewStalledPRs,
}

// InsightsService computes AttentionInsights from the activity snapshot. It
// holds no state between calls; concurrent Compute calls are independent.
type InsightsService struct {
	activity        driven.ActivityStore
	repos           driven.RepoStore
	settings        driven.SettingsStore
	thresholds      driven.ThresholdStore
	classifications driven.ClassificationStore
	calendars       *CalendarService
	mentions        mentionSource
	references      *ReferenceResolver
	promptVersion   string
	now             func() time.Time
	logger          *slog.Logger
}

// NewInsightsService creates a new InsightsService. promptVersion is the
// version of the classifier prompt whose records are trusted by the mention
// gate.
func NewInsightsService(
	activity driven.ActivityStore,
	repos driven.RepoStore,
	users driven.UserStore,
	settings driven.SettingsStore,
	thresholds driven.ThresholdStore,
	classifications driven.ClassificationStore,
	calendars *CalendarService,
	promptVersion string,
) *InsightsService {
	return &InsightsService{
		activity:        activity,
		repos:           repos,
		settings:        settings,
		thresholds:      thresholds,
		classifications: classifications,
		calendars:       calendars,
		mentions:        mentionSource{activity: activity, users: users},
		references:      NewReferenceResolver(users, repos),
		promptVersion:   promptVersion,
		now:             time.Now,
		logger:          slog.Default(),
	}
}

// WithClock replaces the time source. Used by tests.
func (s *InsightsService) WithClock(now func() time.Time) *InsightsService {
	s.now = now
	return s
}

// findings holds the raw output of every detector for one computation. Each
// detector goroutine writes only its own field.
type findings struct {
	unassigned   []prFinding
	stalled      []prFinding
	mergeDelayed []prFinding
	stuck        []requestFinding
	issues       issueFindings
	mentions     []mentionFinding
}

// Compute runs every detector concurrently and assembles the result. Any store
// failure fails the whole computation.
func (s *InsightsService) Compute(ctx context.Context) (model.AttentionInsights, error) {
	start := time.Now()

	dc, err := s.detectionContext(ctx)
	if err != nil {
		return model.AttentionInsights{}, err
	}

	var f findings
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		f.unassigned, err = s.detectReviewerUnassigned(gctx, dc)
		return err
	})
	g.Go(func() error {
		var err error
		f.stalled, err = s.detectReviewStalled(gctx, dc)
		return err
	})
	g.Go(func() error {
		var err error
		f.mergeDelayed, err = s.detectMergeDelayed(gctx, dc)
		return err
	})
	g.Go(func() error {
		var err error
		f.stuck, err = s.detectStuckReviewRequests(gctx, dc)
		return err
	})
	g.Go(func() error {
		var err error
		f.issues, err = s.detectIssues(gctx, dc)
		return err
	})
	g.Go(func() error {
		var err error
		f.mentions, err = s.detectUnansweredMentions(gctx, dc)
		return err
	})

	if err := g.Wait(); err != nil {
		return model.AttentionInsights{}, err
	}

	applyClaims(&f)

	set := collectReferences(f, dc)
	refs, err := s.references.Resolve(ctx, set)
	if err != nil {
		return model.AttentionInsights{}, err
	}

	org := ResolveLocation(dc.settings.Timezone, time.UTC)
	insights := hydrate(f, dc, refs)
	insights.GeneratedAt = dc.now
	insights.Timezone = org.String()
	insights.DateTimeFormat = dc.settings.DateTimeFormat
	insights.WeekStart = dc.settings.WeekStart
	sortInsights(&insights)

	s.logger.Info("insights computed",
		"duration", time.Since(start),
		"reviewer_unassigned", len(insights.ReviewerUnassignedPRs),
		"review_stalled", len(insights.ReviewStalledPRs),
		"merge_delayed", len(insights.MergeDelayedPRs),
		"stuck_requests", len(insights.StuckReviewRequests),
		"backlog", len(insights.BacklogIssues),
		"stalled_issues", len(insights.StalledInProgressIssues),
		"mentions", len(insights.UnansweredMentions),
	)

	return insights, nil
}

func (s *InsightsService) detectionContext(ctx context.Context) (detectionContext, error) {
	settings, err := s.settings.GetOrganizationSettings(ctx)
	if err != nil {
		return detectionContext{}, fmt.Errorf("get organization settings: %w", err)
	}
	thresholds, err := LoadThresholds(ctx, s.thresholds)
	if err != nil {
		return detectionContext{}, err
	}
	byRepo, err := s.repos.ListRepositoryMaintainers(ctx)
	if err != nil {
		return detectionContext{}, fmt.Errorf("list repository maintainers: %w", err)
	}
	org, err := s.repos.ListOrganizationMaintainers(ctx)
	if err != nil {
		return detectionContext{}, fmt.Errorf("list organization maintainers: %w", err)
	}

	return detectionContext{
		now:         s.now(),
		settings:    settings,
		thresholds:  thresholds,
		maintainers: maintainerDirectory{byRepo: byRepo, organization: org},
		filter: driven.CandidateFilter{
			ExcludedRepositoryIDs: settings.ExcludedRepositoryIDs,
			ExcludedUserIDs:       settings.ExcludedUserIDs,
		},
	}, nil
}

// applyClaims walks the pull request sections in claimOrder and drops every
// pull request already claimed by an earlier section.
func applyClaims(f *findings) {
	claimed := make(map[int64]bool)
	claimPRs := func(in []prFinding) []prFinding {
		out := make([]prFinding, 0, len(in))
		for _, p := range in {
			if claimed[p.pr.ID] {
				continue
			}
			claimed[p.pr.ID] = true
			out = append(out, p)
		}
		return out
	}

	for _, section := range claimOrder {
		switch section {
		case model.SectionReviewerUnassignedPRs:
			f.unassigned = claimPRs(f.unassigned)
		case model.SectionMergeDelayedPRs:
			f.mergeDelayed = claimPRs(f.mergeDelayed)
		case model.SectionReviewStalledPRs:
			f.stalled = claimPRs(f.stalled)
		case model.SectionStuckReviewRequests:
			out := make([]requestFinding, 0, len(f.stuck))
			for _, r := range f.stuck {
				if claimed[r.pr.ID] {
					continue
				}
				claimed[r.pr.ID] = true
				out = append(out, r)
			}
			f.stuck = out
		}
	}
}

// collectReferences gathers every id referenced by the claimed findings.
func collectReferences(f findings, dc detectionContext) *ReferenceSet {
	set := NewReferenceSet()
	for _, group := range [][]prFinding{f.unassigned, f.stalled, f.mergeDelayed} {
		for _, p := range group {
			set.AddRepository(p.pr.RepositoryID)
			set.AddUsers(model.RoleAuthor, p.pr.AuthorID)
			set.AddUsers(model.RoleMaintainer, p.maintainers...)
			set.AddUsers(model.RoleReviewer, p.reviewers...)
		}
	}
	for _, r := range f.stuck {
		set.AddRepository(r.pr.RepositoryID)
		set.AddUsers(model.RoleRequester, r.pr.AuthorID)
		set.AddUsers(model.RoleReviewer, r.reviewers...)
	}
	for _, group := range [][]issueFinding{f.issues.backlog, f.issues.stalled} {
		for _, i := range group {
			set.AddRepository(i.issue.RepositoryID)
			set.AddUsers(model.RoleAuthor, i.issue.AuthorID)
			set.AddUsers(model.RoleAssignee, i.assignees...)
		}
	}
	for _, m := range f.mentions {
		set.AddRepository(m.candidate.Comment.RepositoryID)
		set.AddUsers(model.RoleRequester, m.candidate.Comment.AuthorID)
		set.AddUsers(model.RoleMentionTarget, m.candidate.MentionedUserID)
	}

	set.AddUsers(model.RoleMaintainer, dc.withoutExcluded(dc.maintainers.organization)...)
	for _, repoID := range set.RepositoryIDs() {
		set.AddUsers(model.RoleMaintainer, dc.withoutExcluded(dc.maintainers.byRepo[repoID])...)
	}
	return set
}

func hydrate(f findings, dc detectionContext, refs References) model.AttentionInsights {
	insights := model.AttentionInsights{
		ReviewerUnassignedPRs:             hydratePRs(f.unassigned, refs),
		ReviewStalledPRs:                  hydratePRs(f.stalled, refs),
		MergeDelayedPRs:                   hydratePRs(f.mergeDelayed, refs),
		StuckReviewRequests:               make([]model.ReviewRequestAttentionItem, 0, len(f.stuck)),
		BacklogIssues:                     hydrateIssues(f.issues.backlog, refs),
		StalledInProgressIssues:           hydrateIssues(f.issues.stalled, refs),
		UnansweredMentions:                make([]model.MentionAttentionItem, 0, len(f.mentions)),
		OrganizationMaintainers:           refs.Users(dc.withoutExcluded(dc.maintainers.organization)),
		RepositoryMaintainersByRepository: make(map[int64][]model.UserReference),
	}

	for _, r := range f.stuck {
		insights.StuckReviewRequests = append(insights.StuckReviewRequests, model.ReviewRequestAttentionItem{
			PullRequestID: r.pr.ID,
			Number:        r.pr.Number,
			Title:         r.pr.Title,
			URL:           r.pr.URL,
			Repository:    refs.Repository(r.pr.RepositoryID),
			Author:        refs.User(r.pr.AuthorID),
			Reviewers:     refs.Users(r.reviewers),
			RequestedAt:   r.requestedAt,
			WaitingDays:   r.waitingDays,
		})
	}

	for _, m := range f.mentions {
		c := m.candidate.Comment
		insights.UnansweredMentions = append(insights.UnansweredMentions, model.MentionAttentionItem{
			CommentID:  c.CommentID,
			CommentURL: c.URL,
			Container: model.ContainerReference{
				Type:   c.Container.Type,
				ID:     c.Container.ID,
				Number: c.ContainerNumber,
				Title:  c.ContainerTitle,
				URL:    c.ContainerURL,
			},
			Repository:       refs.Repository(c.RepositoryID),
			Author:           refs.User(c.AuthorID),
			MentionedUser:    refs.User(m.candidate.MentionedUserID),
			Excerpt:          Excerpt(c.Body),
			MentionedAt:      c.CreatedAt,
			WaitingDays:      m.waitingDays,
			RequiresResponse: m.gate.RequiresResponse,
			ManualDecision:   m.gate.Manual,
		})
	}

	repoIDs := make(map[int64]bool)
	for _, group := range [][]model.PullRequestAttentionItem{insights.ReviewerUnassignedPRs, insights.ReviewStalledPRs, insights.MergeDelayedPRs} {
		for _, item := range group {
			repoIDs[item.Repository.ID] = true
		}
	}
	for _, item := range insights.StuckReviewRequests {
		repoIDs[item.Repository.ID] = true
	}
	for id := range repoIDs {
		if ids := dc.withoutExcluded(dc.maintainers.byRepo[id]); len(ids) > 0 {
			insights.RepositoryMaintainersByRepository[id] = refs.Users(ids)
		}
	}

	return insights
}

func hydratePRs(in []prFinding, refs References) []model.PullRequestAttentionItem {
	out := make([]model.PullRequestAttentionItem, 0, len(in))
	for _, p := range in {
		item := model.PullRequestAttentionItem{
			ID:          p.pr.ID,
			Number:      p.pr.Number,
			Title:       p.pr.Title,
			URL:         p.pr.URL,
			Repository:  refs.Repository(p.pr.RepositoryID),
			Author:      refs.User(p.pr.AuthorID),
			Reviewers:   refs.Users(p.reviewers),
			Maintainers: refs.Users(p.maintainers),
			CreatedAt:   p.pr.CreatedAt,
			UpdatedAt:   p.pr.UpdatedAt,
			WaitingDays: p.waitingDays,
		}
		if p.pr.IsApproved() {
			approved := p.pr.ApprovedAt
			item.ApprovedAt = &approved
		}
		out = append(out, item)
	}
	return out
}

func hydrateIssues(in []issueFinding, refs References) []model.IssueAttentionItem {
	out := make([]model.IssueAttentionItem, 0, len(in))
	for _, i := range in {
		out = append(out, model.IssueAttentionItem{
			ID:         i.issue.ID,
			Number:     i.issue.Number,
			Title:      i.issue.Title,
			URL:        i.issue.URL,
			Repository: refs.Repository(i.issue.RepositoryID),
			Author:     refs.User(i.issue.AuthorID),
			Assignees:  refs.Users(i.assignees),
			IssueType:  i.issue.IssueType,
			Milestone:  i.issue.Milestone,
			Labels:     i.issue.Labels,
			CreatedAt:  i.issue.CreatedAt,
			UpdatedAt:  i.issue.UpdatedAt,
			Project:    i.snapshot,
			AgeDays:    i.ageDays,
		})
	}
	return out
}

// sortInsights ranks every section by days descending, then id ascending.
func sortInsights(a *model.AttentionInsights) {
	sortPRs := func(items []model.PullRequestAttentionItem) {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].WaitingDays != items[j].WaitingDays {
				return items[i].WaitingDays > items[j].WaitingDays
			}
			return items[i].ID < items[j].ID
		})
	}
	sortIssues := func(items []model.IssueAttentionItem) {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].AgeDays != items[j].AgeDays {
				return items[i].AgeDays > items[j].AgeDays
			}
			return items[i].ID < items[j].ID
		})
	}

	sortPRs(a.ReviewerUnassignedPRs)
	sortPRs(a.ReviewStalledPRs)
	sortPRs(a.MergeDelayedPRs)
	sortIssues(a.BacklogIssues)
	sortIssues(a.StalledInProgressIssues)

	sort.SliceStable(a.StuckReviewRequests, func(i, j int) bool {
		x, y := a.StuckReviewRequests[i], a.StuckReviewRequests[j]
		if x.WaitingDays != y.WaitingDays {
			return x.WaitingDays > y.WaitingDays
		}
		return x.PullRequestID < y.PullRequestID
	})
	sort.SliceStable(a.UnansweredMentions, func(i, j int) bool {
		x, y := a.UnansweredMentions[i], a.UnansweredMentions[j]
		if x.WaitingDays != y.WaitingDays {
			return x.WaitingDays > y.WaitingDays
		}
		if x.CommentID != y.CommentID {
			return x.CommentID < y.CommentID
		}
		return x.MentionedUser.ID < y.MentionedUser.ID
	})
}
