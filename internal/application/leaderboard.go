package application

import (
	"sort"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// leaderboardTopN is the number of users highlighted per role.
const leaderboardTopN = 2

// roleTally counts user occurrences for one role, remembering first appearance.
type roleTally struct {
	role   model.LeaderboardRole
	order  []int64
	counts map[int64]int
	users  map[int64]model.UserReference
}

func newRoleTally(role model.LeaderboardRole) *roleTally {
	return &roleTally{role: role, counts: make(map[int64]int), users: make(map[int64]model.UserReference)}
}

func (t *roleTally) add(users ...model.UserReference) {
	for _, u := range users {
		if u.ID == 0 {
			continue
		}
		if _, ok := t.counts[u.ID]; !ok {
			t.order = append(t.order, u.ID)
			t.users[u.ID] = u
		}
		t.counts[u.ID]++
	}
}

func (t *roleTally) highlight() (model.RoleHighlight, bool) {
	if len(t.order) == 0 {
		return model.RoleHighlight{}, false
	}
	ids := append([]int64(nil), t.order...)
	sort.SliceStable(ids, func(i, j int) bool {
		return t.counts[ids[i]] > t.counts[ids[j]]
	})
	if len(ids) > leaderboardTopN {
		ids = ids[:leaderboardTopN]
	}

	h := model.RoleHighlight{Role: t.role, Entries: make([]model.LeaderboardEntry, 0, len(ids))}
	for _, id := range ids {
		h.Entries = append(h.Entries, model.LeaderboardEntry{User: t.users[id], Count: t.counts[id]})
	}
	return h, true
}

type sectionTally struct {
	summary model.SectionSummary
	roles   []*roleTally
	byRole  map[model.LeaderboardRole]*roleTally
}

func newSectionTally(section model.InsightsSection, roles ...model.LeaderboardRole) *sectionTally {
	st := &sectionTally{
		summary: model.SectionSummary{Section: section},
		byRole:  make(map[model.LeaderboardRole]*roleTally, len(roles)),
	}
	for _, r := range roles {
		t := newRoleTally(r)
		st.roles = append(st.roles, t)
		st.byRole[r] = t
	}
	return st
}

func (st *sectionTally) item(days int) {
	st.summary.Count++
	st.summary.TotalDays += days
}

func (st *sectionTally) add(role model.LeaderboardRole, users ...model.UserReference) {
	st.byRole[role].add(users...)
}

func (st *sectionTally) finish() model.SectionSummary {
	for _, t := range st.roles {
		if h, ok := t.highlight(); ok {
			st.summary.Highlights = append(st.summary.Highlights, h)
		}
	}
	return st.summary
}

// BuildLeaderboard folds resolved insights into per-section counts, day totals,
// and the top users per role. Ties keep the order users first appear in.
func BuildLeaderboard(insights model.AttentionInsights) model.Leaderboard {
	prSection := func(section model.InsightsSection, items []model.PullRequestAttentionItem) model.SectionSummary {
		st := newSectionTally(section, model.RoleAuthor, model.RoleMaintainer, model.RoleReviewer)
		for _, item := range items {
			st.item(item.WaitingDays)
			st.add(model.RoleAuthor, item.Author)
			st.add(model.RoleMaintainer, item.Maintainers...)
			st.add(model.RoleReviewer, item.Reviewers...)
		}
		return st.finish()
	}
	issueSection := func(section model.InsightsSection, items []model.IssueAttentionItem) model.SectionSummary {
		st := newSectionTally(section, model.RoleAuthor, model.RoleAssignee)
		for _, item := range items {
			st.item(item.AgeDays)
			st.add(model.RoleAuthor, item.Author)
			st.add(model.RoleAssignee, item.Assignees...)
		}
		return st.finish()
	}

	stuck := newSectionTally(model.SectionStuckReviewRequests, model.RoleReviewer, model.RoleRequester)
	for _, item := range insights.StuckReviewRequests {
		stuck.item(item.WaitingDays)
		stuck.add(model.RoleReviewer, item.Reviewers...)
		stuck.add(model.RoleRequester, item.Author)
	}

	mentions := newSectionTally(model.SectionUnansweredMentions, model.RoleMentionTarget, model.RoleRequester)
	for _, item := range insights.UnansweredMentions {
		mentions.item(item.WaitingDays)
		mentions.add(model.RoleMentionTarget, item.MentionedUser)
		mentions.add(model.RoleRequester, item.Author)
	}

	lb := model.Leaderboard{
		GeneratedAt: insights.GeneratedAt,
		Sections: []model.SectionSummary{
			prSection(model.SectionReviewerUnassignedPRs, insights.ReviewerUnassignedPRs),
			prSection(model.SectionReviewStalledPRs, insights.ReviewStalledPRs),
			prSection(model.SectionMergeDelayedPRs, insights.MergeDelayedPRs),
			stuck.finish(),
			issueSection(model.SectionBacklogIssues, insights.BacklogIssues),
			issueSection(model.SectionStalledInProgressIssues, insights.StalledInProgressIssues),
			mentions.finish(),
		},
	}
	for _, s := range lb.Sections {
		lb.TotalItems += s.Count
	}
	return lb
}
