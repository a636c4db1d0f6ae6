package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

var denylist = driven.CandidateFilter{
	ExcludedRepositoryIDs: []int64{11},
	ExcludedUserIDs:       []int64{4},
}

func ts(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

// seedActivity builds a small snapshot covering every attention query.
func seedActivity(t *testing.T, db *DB) {
	t.Helper()

	for id, login := range map[int64]string{1: "alice", 2: "bob", 3: "carol", 4: "dave"} {
		seedUser(t, db, id, login)
	}
	seedRepository(t, db, 10, "acme/api")
	seedRepository(t, db, 11, "acme/secret")

	pr := func(id, repo, author int64, state string, draft bool) {
		mustExec(t, db, `
			INSERT INTO pull_requests (id, repository_id, number, author_id, title, url, state, is_draft, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, repo, id, author, "PR", "https://example.test/pr", state, boolToInt(draft),
			formatTime(ts(1, 9)), formatTime(ts(1, 9)),
		)
	}
	review := func(pr, reviewer int64, state string, at time.Time) {
		mustExec(t, db, `INSERT INTO pull_request_reviews (pull_request_id, reviewer_id, state, submitted_at) VALUES (?, ?, ?, ?)`,
			pr, reviewer, state, formatTime(at))
	}
	request := func(pr, reviewer int64, at time.Time) {
		mustExec(t, db, `INSERT INTO pull_request_review_requests (pull_request_id, reviewer_id, requested_at) VALUES (?, ?, ?)`,
			pr, reviewer, formatTime(at))
	}

	pr(100, 10, 1, "open", false)
	pr(101, 10, 1, "open", true)
	pr(102, 10, 1, "open", false)
	review(102, 1, "commented", ts(2, 9))
	pr(103, 10, 1, "open", false)
	request(103, 2, ts(2, 9))
	mustExec(t, db, `INSERT INTO reactions (container_type, container_id, user_id, content, created_at) VALUES ('pull_request', 103, 2, '+1', ?)`,
		formatTime(ts(1, 12)))
	pr(104, 10, 1, "open", false)
	request(104, 3, ts(2, 9))
	mustExec(t, db, `INSERT INTO comments (id, container_type, container_id, author_id, body, created_at) VALUES (290, 'pull_request', 104, 3, 'looking', ?)`,
		formatTime(ts(3, 9)))
	pr(105, 10, 1, "open", false)
	review(105, 2, "approved", ts(5, 9))
	pr(106, 10, 1, "open", false)
	review(106, 2, "approved", ts(5, 9))
	review(106, 3, "changes_requested", ts(6, 9))
	pr(107, 11, 1, "open", false)
	pr(108, 10, 4, "open", false)
	pr(109, 10, 1, "closed", false)
	pr(110, 10, 1, "open", false)
	review(110, 2, "approved", ts(5, 9))
	request(110, 3, ts(1, 10))

	issue := func(id, repo int64, state string) {
		mustExec(t, db, `
			INSERT INTO issues (id, repository_id, number, author_id, title, url, state, issue_type, milestone, labels,
			                    project_status_history, assignees, created_at, updated_at)
			VALUES (?, ?, ?, 1, 'Issue', 'https://example.test/issue', ?, 'Bug', 'Q1', '["bug"]',
			        '[{"projectTitle":"To-Do List","status":"Todo","occurredAt":"2026-02-01T00:00:00Z"}]', '[2]', ?, ?)`,
			id, repo, id, state, formatTime(ts(1, 8)), formatTime(ts(2, 8)),
		)
	}
	issue(200, 10, "open")
	issue(201, 10, "closed")
	issue(202, 11, "open")
	mustExec(t, db, `INSERT INTO issue_status_events (issue_id, status, occurred_at) VALUES (200, 'in progress', ?)`, formatTime(ts(10, 9)))
	mustExec(t, db, `INSERT INTO issue_status_events (issue_id, status, occurred_at) VALUES (200, 'todo', ?)`, formatTime(ts(4, 9)))
	mustExec(t, db, `INSERT INTO issue_project_overrides (issue_id, priority, weight, updated_at) VALUES (200, 'P1', 3, ?)`, formatTime(ts(5, 9)))

	mustExec(t, db, `
		INSERT INTO discussions (id, repository_id, number, author_id, title, url, state, answer_chosen_by_id, answer_chosen_at, created_at)
		VALUES (400, 10, 7, 1, 'How do I?', 'https://example.test/d/7', 'open', 2, ?, ?)`,
		formatTime(ts(4, 9)), formatTime(ts(1, 9)))

	comment := func(id int64, containerType string, containerID, author int64, body string, at time.Time) {
		mustExec(t, db, `INSERT INTO comments (id, container_type, container_id, author_id, body, url, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, containerType, containerID, author, body, "https://example.test/c", formatTime(at))
	}
	comment(300, "issue", 200, 1, "@bob please look", ts(2, 9))
	comment(301, "issue", 200, 2, "no mention here", ts(2, 10))
	comment(302, "discussion", 400, 1, "@bob question", ts(3, 9))
	comment(303, "pull_request", 109, 1, "@bob closed", ts(3, 9))
	comment(304, "issue", 200, 4, "@bob hi", ts(3, 10))
}

func pullRequestIDs(prs []model.PullRequestCandidate) []int64 {
	ids := make([]int64, len(prs))
	for i, pr := range prs {
		ids[i] = pr.ID
	}
	return ids
}

func TestActivityRepo_ListUnreviewedPullRequests(t *testing.T) {
	db := setupTestDB(t)
	seedActivity(t, db)
	repo := NewActivityRepo(db)

	prs, err := repo.ListUnreviewedPullRequests(context.Background(), denylist)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 102}, pullRequestIDs(prs), "drafts, closed, excluded, and self-reviewed-only handled")
	assert.Equal(t, ts(1, 9), prs[0].CreatedAt)
	assert.False(t, prs[0].IsApproved())
}

func TestActivityRepo_ListUnreviewedPullRequests_NoFilter(t *testing.T) {
	db := setupTestDB(t)
	seedActivity(t, db)

	prs, err := NewActivityRepo(db).ListUnreviewedPullRequests(context.Background(), driven.CandidateFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 102, 107, 108}, pullRequestIDs(prs))
}

func TestActivityRepo_ListApprovedPullRequests(t *testing.T) {
	db := setupTestDB(t)
	seedActivity(t, db)

	prs, err := NewActivityRepo(db).ListApprovedPullRequests(context.Background(), denylist)
	require.NoError(t, err)
	assert.Equal(t, []int64{105, 110}, pullRequestIDs(prs), "a later change request revokes the approval")
	assert.Equal(t, ts(5, 9), prs[0].ApprovedAt)
}

func TestActivityRepo_ListOutstandingReviewRequests(t *testing.T) {
	db := setupTestDB(t)
	seedActivity(t, db)

	reqs, err := NewActivityRepo(db).ListOutstandingReviewRequests(context.Background(), denylist)
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	assert.Equal(t, int64(103), reqs[0].PullRequest.ID)
	assert.Equal(t, int64(2), reqs[0].ReviewerID)
	assert.Equal(t, ts(2, 9), reqs[0].RequestedAt)
	assert.Equal(t, ts(1, 12), reqs[0].LastActivityAt, "reactions count as activity")

	assert.Equal(t, int64(104), reqs[1].PullRequest.ID)
	assert.Equal(t, ts(3, 9), reqs[1].LastActivityAt)

	assert.Equal(t, int64(110), reqs[2].PullRequest.ID)
	assert.True(t, reqs[2].PullRequest.IsApproved())
	assert.True(t, reqs[2].LastActivityAt.IsZero())
}

func TestActivityRepo_ListStuckReviewRequests(t *testing.T) {
	db := setupTestDB(t)
	seedActivity(t, db)

	reqs, err := NewActivityRepo(db).ListStuckReviewRequests(context.Background(), denylist)
	require.NoError(t, err)
	require.Len(t, reqs, 1, "approved PRs and reviewers active since the request are skipped")
	assert.Equal(t, int64(103), reqs[0].PullRequest.ID)
	assert.Equal(t, int64(2), reqs[0].ReviewerID)
}

func TestActivityRepo_ListOpenIssues(t *testing.T) {
	db := setupTestDB(t)
	seedActivity(t, db)

	issues, err := NewActivityRepo(db).ListOpenIssues(context.Background(), denylist)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	is := issues[0]
	assert.Equal(t, int64(200), is.ID)
	assert.Equal(t, []string{"bug"}, is.Labels)
	assert.Equal(t, "Bug", is.IssueType)
	assert.Equal(t, "[2]", is.RawAssignees)
	assert.Contains(t, is.RawProjectHistory, "To-Do List")
	assert.Equal(t, []model.ActivityStatusEvent{
		{Status: "todo", OccurredAt: ts(4, 9)},
		{Status: "in progress", OccurredAt: ts(10, 9)},
	}, is.ActivityEvents)

	require.NotNil(t, is.Override)
	require.NotNil(t, is.Override.Priority)
	assert.Equal(t, "P1", *is.Override.Priority)
	require.NotNil(t, is.Override.Weight)
	assert.Equal(t, 3, *is.Override.Weight)
	assert.Nil(t, is.Override.StartDate)
}

func TestActivityRepo_ListMentionComments(t *testing.T) {
	db := setupTestDB(t)
	seedActivity(t, db)

	comments, err := NewActivityRepo(db).ListMentionComments(context.Background(), denylist)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, int64(300), comments[0].CommentID)
	assert.Equal(t, model.ContainerRef{Type: model.ContainerIssue, ID: 200}, comments[0].Container)
	assert.Equal(t, int64(10), comments[0].RepositoryID)
	assert.Zero(t, comments[0].AnswerChosenByID)

	d := comments[1]
	assert.Equal(t, int64(302), d.CommentID)
	assert.Equal(t, model.ContainerDiscussion, d.Container.Type)
	assert.Equal(t, 7, d.ContainerNumber)
	assert.Equal(t, "How do I?", d.ContainerTitle)
	assert.Equal(t, int64(2), d.AnswerChosenByID)
	assert.Equal(t, ts(4, 9), d.AnswerChosenAt)
}

func TestActivityRepo_GetComment(t *testing.T) {
	db := setupTestDB(t)
	seedActivity(t, db)
	repo := NewActivityRepo(db)
	ctx := context.Background()

	c, err := repo.GetComment(ctx, 303)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "@bob closed", c.Body)
	assert.Equal(t, model.ContainerPullRequest, c.Container.Type)

	missing, err := repo.GetComment(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestActivityRepo_ListParticipantActivity(t *testing.T) {
	db := setupTestDB(t)
	seedActivity(t, db)

	activity, err := NewActivityRepo(db).ListParticipantActivity(context.Background(), []model.ContainerRef{
		{Type: model.ContainerIssue, ID: 200},
		{Type: model.ContainerPullRequest, ID: 104},
		{Type: model.ContainerPullRequest, ID: 103},
	})
	require.NoError(t, err)

	users := make(map[model.ContainerRef][]int64)
	for _, a := range activity {
		users[a.Container] = append(users[a.Container], a.UserID)
	}
	assert.Equal(t, []int64{1, 2, 4}, users[model.ContainerRef{Type: model.ContainerIssue, ID: 200}])
	assert.Equal(t, []int64{3}, users[model.ContainerRef{Type: model.ContainerPullRequest, ID: 104}])
	assert.Equal(t, []int64{2}, users[model.ContainerRef{Type: model.ContainerPullRequest, ID: 103}])
}

func TestActivityRepo_SkipsRowsWithMalformedTimes(t *testing.T) {
	db := setupTestDB(t)
	seedActivity(t, db)
	repo := NewActivityRepo(db)
	ctx := context.Background()

	mustExec(t, db, `
		INSERT INTO issues (id, repository_id, number, author_id, title, url, state, created_at, updated_at)
		VALUES (203, 10, 203, 1, 'Broken', 'https://example.test/issue', 'open', ?, '')`,
		formatTime(ts(1, 8)))
	mustExec(t, db, `INSERT INTO issue_status_events (issue_id, status, occurred_at) VALUES (200, 'done', 'yesterday')`)
	mustExec(t, db, `
		INSERT INTO pull_requests (id, repository_id, number, author_id, title, url, state, is_draft, created_at, updated_at)
		VALUES (111, 10, 111, 1, 'PR', 'https://example.test/pr', 'open', 0, 'not a time', ?)`,
		formatTime(ts(1, 9)))
	mustExec(t, db, `INSERT INTO comments (id, container_type, container_id, author_id, body, created_at) VALUES (305, 'issue', 200, 3, '@bob broken', 'garbage')`)

	issues, err := repo.ListOpenIssues(ctx, denylist)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, int64(200), issues[0].ID)
	assert.Len(t, issues[0].ActivityEvents, 2, "events with unreadable times are dropped")

	prs, err := repo.ListUnreviewedPullRequests(ctx, denylist)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 102}, pullRequestIDs(prs))

	comments, err := repo.ListMentionComments(ctx, denylist)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	c, err := repo.GetComment(ctx, 305)
	require.NoError(t, err)
	assert.Nil(t, c)

	activity, err := repo.ListParticipantActivity(ctx, []model.ContainerRef{{Type: model.ContainerIssue, ID: 200}})
	require.NoError(t, err)
	var users []int64
	for _, a := range activity {
		users = append(users, a.UserID)
	}
	assert.Equal(t, []int64{1, 2, 4}, users)
}

func TestActivityRepo_ComparesMixedTimeFormatsChronologically(t *testing.T) {
	db := setupTestDB(t)
	for id, login := range map[int64]string{1: "alice", 2: "bob", 3: "carol"} {
		seedUser(t, db, id, login)
	}
	seedRepository(t, db, 10, "acme/api")
	for _, id := range []int64{120, 121, 122} {
		mustExec(t, db, `
			INSERT INTO pull_requests (id, repository_id, number, author_id, title, url, state, is_draft, created_at, updated_at)
			VALUES (?, 10, ?, 1, 'PR', 'https://example.test/pr', 'open', 0, ?, ?)`,
			id, id, formatTime(ts(1, 9)), formatTime(ts(1, 9)))
	}
	review := func(pr, reviewer int64, state, at string) {
		mustExec(t, db, `INSERT INTO pull_request_reviews (pull_request_id, reviewer_id, state, submitted_at) VALUES (?, ?, ?, ?)`,
			pr, reviewer, state, at)
	}
	// Compared as text, 'T' sorts after ' ' and would invert each pair.
	review(120, 2, "approved", "2026-03-05T09:00:00Z")
	review(120, 3, "changes_requested", "2026-03-05 10:00:00")
	review(121, 2, "approved", "2026-03-05 10:00:00")
	review(121, 3, "changes_requested", "2026-03-05T09:00:00Z")
	mustExec(t, db, `INSERT INTO pull_request_review_requests (pull_request_id, reviewer_id, requested_at) VALUES (122, 3, '2026-03-02 09:00:00')`)
	mustExec(t, db, `INSERT INTO reactions (container_type, container_id, user_id, content, created_at) VALUES ('pull_request', 122, 3, '+1', '2026-03-02T08:00:00Z')`)

	repo := NewActivityRepo(db)
	ctx := context.Background()

	approved, err := repo.ListApprovedPullRequests(ctx, driven.CandidateFilter{})
	require.NoError(t, err)
	require.Equal(t, []int64{121}, pullRequestIDs(approved))
	assert.Equal(t, ts(5, 10), approved[0].ApprovedAt)

	stuck, err := repo.ListStuckReviewRequests(ctx, driven.CandidateFilter{})
	require.NoError(t, err)
	require.Len(t, stuck, 1, "activity before the request does not count")
	assert.Equal(t, int64(122), stuck[0].PullRequest.ID)
	assert.Equal(t, ts(2, 9), stuck[0].RequestedAt)
	assert.Equal(t, ts(2, 8), stuck[0].LastActivityAt)
}
