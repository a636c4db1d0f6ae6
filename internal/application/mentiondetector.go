package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// mentionFinding is a qualifying unanswered mention before hydration.
type mentionFinding struct {
	candidate   model.MentionCandidate
	gate        GateDecision
	waitingDays int
}

// mentionSource extracts unanswered (comment, mentioned user) pairs from the
// activity snapshot. It is shared by the mention detector and the
// classification refresh.
type mentionSource struct {
	activity driven.ActivityStore
	users    driven.UserStore
}

// unanswered returns every mention whose target is a known user other than the
// comment author, who has not commented, reviewed, or reacted in the container
// since the mention, and who did not choose a discussion answer after it.
// The returned map holds the mentioned users by id.
func (m mentionSource) unanswered(ctx context.Context, filter driven.CandidateFilter, excluded func(int64) bool) ([]model.MentionCandidate, map[int64]model.User, error) {
	comments, err := m.activity.ListMentionComments(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list mention comments: %w", err)
	}

	loginsByComment := make([][]string, len(comments))
	var allLogins []string
	seenLogin := make(map[string]bool)
	for i, c := range comments {
		loginsByComment[i] = ExtractMentionLogins(c.Body)
		for _, l := range loginsByComment[i] {
			if !seenLogin[l] {
				seenLogin[l] = true
				allLogins = append(allLogins, l)
			}
		}
	}
	if len(allLogins) == 0 {
		return nil, map[int64]model.User{}, nil
	}

	users, err := m.users.GetByLogins(ctx, allLogins)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve mentioned logins: %w", err)
	}
	byLogin := make(map[string]model.User, len(users))
	byID := make(map[int64]model.User, len(users))
	for _, u := range users {
		byLogin[normalizeLogin(u.Login)] = u
		byID[u.ID] = u
	}

	var pairs []model.MentionCandidate
	containerSeen := make(map[model.ContainerRef]bool)
	var containers []model.ContainerRef
	for i, c := range comments {
		hash := ContentHash(c.Body)
		for _, login := range loginsByComment[i] {
			u, ok := byLogin[login]
			if !ok || u.ID == c.AuthorID || excluded(u.ID) {
				continue
			}
			pairs = append(pairs, model.MentionCandidate{Comment: c, MentionedUserID: u.ID, BodyHash: hash})
			if !containerSeen[c.Container] {
				containerSeen[c.Container] = true
				containers = append(containers, c.Container)
			}
		}
	}
	if len(pairs) == 0 {
		return nil, byID, nil
	}

	activity, err := m.activity.ListParticipantActivity(ctx, containers)
	if err != nil {
		return nil, nil, fmt.Errorf("list participant activity: %w", err)
	}
	type participant struct {
		container model.ContainerRef
		userID    int64
	}
	latest := make(map[participant]model.ParticipantActivity)
	for _, a := range activity {
		key := participant{container: a.Container, userID: a.UserID}
		if prev, ok := latest[key]; !ok || a.OccurredAt.After(prev.OccurredAt) {
			latest[key] = a
		}
	}

	out := pairs[:0]
	for _, p := range pairs {
		if a, ok := latest[participant{container: p.Comment.Container, userID: p.MentionedUserID}]; ok && a.OccurredAt.After(p.Comment.CreatedAt) {
			continue
		}
		if p.Comment.Container.Type == model.ContainerDiscussion &&
			p.Comment.AnswerChosenByID == p.MentionedUserID &&
			p.Comment.AnswerChosenAt.After(p.Comment.CreatedAt) {
			continue
		}
		out = append(out, p)
	}
	return out, byID, nil
}

// detectUnansweredMentions gates unanswered mentions through the classification
// cache and keeps those the mentioned user has waited on for the threshold.
func (s *InsightsService) detectUnansweredMentions(ctx context.Context, dc detectionContext) ([]mentionFinding, error) {
	candidates, _, err := s.mentions.unanswered(ctx, dc.filter, dc.settings.IsUserExcluded)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	keys := make([]driven.ClassificationKey, 0, len(candidates))
	for _, c := range candidates {
		keys = append(keys, driven.ClassificationKey{CommentID: c.Comment.CommentID, MentionedUserID: c.MentionedUserID})
	}
	records, err := s.classifications.GetClassifications(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get mention classifications: %w", err)
	}

	var gated []mentionFinding
	var actors []int64
	for i, c := range candidates {
		var rec *model.MentionClassification
		if r, ok := records[keys[i]]; ok {
			rec = &r
		}
		decision := EvaluateMentionGate(c, rec, dc.settings.MentionFilterMode, s.promptVersion)
		if !decision.Include {
			continue
		}
		gated = append(gated, mentionFinding{candidate: c, gate: decision})
		actors = append(actors, c.MentionedUserID)
	}
	if len(gated) == 0 {
		return nil, nil
	}

	calendars, err := s.calendars.LoadActorCalendars(ctx, dc.settings, actors)
	if err != nil {
		return nil, err
	}

	findings := gated[:0]
	for _, f := range gated {
		c := f.candidate
		eval := EvaluateWaiting(dc.now, []Stakeholder{{UserID: c.MentionedUserID, Since: c.Comment.CreatedAt}}, calendars, dc.thresholds.For(c.Comment.RepositoryID).UnansweredMentionDays)
		if !eval.Qualifies {
			continue
		}
		f.waitingDays = eval.WaitingDays
		findings = append(findings, f)
	}
	return findings, nil
}
