package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActivityStore = (*ActivityRepo)(nil)

// ActivityRepo answers the attention queries over the activity snapshot. It
// only reads; every query runs on the reader pool.
type ActivityRepo struct {
	db     *DB
	logger *slog.Logger
}

// NewActivityRepo creates a new ActivityRepo backed by the given DB.
func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db, logger: slog.Default()}
}

// skipMalformed logs err and reports true when it marks a row to skip.
func (r *ActivityRepo) skipMalformed(err error) bool {
	if err == nil || !errors.Is(err, errMalformedRow) {
		return false
	}
	r.logger.Warn("skipping malformed snapshot row", "error", err)
	return true
}

// standingApprovals yields, per pull request, the latest approval by someone
// other than the author that no later change request has superseded.
// Reviews with unparseable times are ignored.
const standingApprovals = `
	WITH approvals AS (
		SELECT r.pull_request_id, MAX(julianday(r.submitted_at)) AS approved_jd
		FROM pull_request_reviews r
		JOIN pull_requests ap ON ap.id = r.pull_request_id
		WHERE r.state = 'approved' AND r.reviewer_id <> ap.author_id
		  AND julianday(r.submitted_at) IS NOT NULL
		GROUP BY r.pull_request_id
	),
	standing AS (
		SELECT a.pull_request_id, strftime(` + sqlTimeLayout + `, a.approved_jd) AS approved_at
		FROM approvals a
		WHERE NOT EXISTS (
			SELECT 1 FROM pull_request_reviews cr
			WHERE cr.pull_request_id = a.pull_request_id
			  AND cr.state = 'changes_requested'
			  AND julianday(cr.submitted_at) > a.approved_jd
		)
	)
`

const pullRequestColumns = `
	p.id, p.number, p.repository_id, p.author_id, p.title, p.url, p.is_draft,
	p.created_at, p.updated_at, s.approved_at
`

// openPullRequestFilter expects the excluded repository and user id lists as
// its two arguments.
const openPullRequestFilter = `
	p.state = 'open'
	AND p.is_draft = 0
	AND p.repository_id NOT IN (SELECT value FROM json_each(?))
	AND p.author_id NOT IN (SELECT value FROM json_each(?))
`

func filterArgs(filter driven.CandidateFilter) []any {
	return []any{idList(filter.ExcludedRepositoryIDs), idList(filter.ExcludedUserIDs)}
}

// ListUnreviewedPullRequests returns open pull requests with no review request
// and no review from anyone but the author.
func (r *ActivityRepo) ListUnreviewedPullRequests(ctx context.Context, filter driven.CandidateFilter) ([]model.PullRequestCandidate, error) {
	query := standingApprovals + `
		SELECT ` + pullRequestColumns + `
		FROM pull_requests p
		LEFT JOIN standing s ON s.pull_request_id = p.id
		WHERE ` + openPullRequestFilter + `
		  AND NOT EXISTS (SELECT 1 FROM pull_request_review_requests rr WHERE rr.pull_request_id = p.id)
		  AND NOT EXISTS (
			SELECT 1 FROM pull_request_reviews rv
			WHERE rv.pull_request_id = p.id AND rv.reviewer_id <> p.author_id AND rv.state <> 'pending'
		  )
		ORDER BY p.id
	`
	return r.queryPullRequests(ctx, query, filterArgs(filter)...)
}

// ListApprovedPullRequests returns open pull requests with a standing approval.
func (r *ActivityRepo) ListApprovedPullRequests(ctx context.Context, filter driven.CandidateFilter) ([]model.PullRequestCandidate, error) {
	query := standingApprovals + `
		SELECT ` + pullRequestColumns + `
		FROM pull_requests p
		JOIN standing s ON s.pull_request_id = p.id
		WHERE ` + openPullRequestFilter + `
		ORDER BY p.id
	`
	return r.queryPullRequests(ctx, query, filterArgs(filter)...)
}

func (r *ActivityRepo) queryPullRequests(ctx context.Context, query string, args ...any) ([]model.PullRequestCandidate, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pull requests: %w", err)
	}
	defer rows.Close()

	var prs []model.PullRequestCandidate
	for rows.Next() {
		pr, err := scanPullRequest(rows)
		if r.skipMalformed(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		prs = append(prs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pull requests: %w", err)
	}

	return prs, nil
}

func scanPullRequest(s scanner, extra ...any) (model.PullRequestCandidate, error) {
	var pr model.PullRequestCandidate
	var draft int
	var createdAt, updatedAt string
	var approvedAt sql.NullString

	dest := append([]any{
		&pr.ID, &pr.Number, &pr.RepositoryID, &pr.AuthorID, &pr.Title, &pr.URL, &draft,
		&createdAt, &updatedAt, &approvedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return model.PullRequestCandidate{}, fmt.Errorf("scan pull request: %w", err)
	}
	pr.IsDraft = draft != 0

	var err error
	if pr.CreatedAt, err = requiredTime(createdAt, "created_at of pull request", pr.ID); err != nil {
		return model.PullRequestCandidate{}, err
	}
	if pr.UpdatedAt, err = requiredTime(updatedAt, "updated_at of pull request", pr.ID); err != nil {
		return model.PullRequestCandidate{}, err
	}
	pr.ApprovedAt = optionalTime(approvedAt)
	return pr, nil
}

// reviewerLastActivity is the reviewer's latest review, comment, or reaction
// on the pull request.
const reviewerLastActivity = `
	(SELECT strftime(` + sqlTimeLayout + `, MAX(julianday(pa.occurred_at))) FROM participant_activity pa
	 WHERE pa.container_type = 'pull_request'
	   AND pa.container_id = rr.pull_request_id
	   AND pa.user_id = rr.reviewer_id)
`

// ListOutstandingReviewRequests returns every outstanding review request on an
// open pull request with the reviewer's latest activity there.
func (r *ActivityRepo) ListOutstandingReviewRequests(ctx context.Context, filter driven.CandidateFilter) ([]model.ReviewRequestCandidate, error) {
	query := standingApprovals + `
		SELECT ` + pullRequestColumns + `, rr.reviewer_id, rr.requested_at, ` + reviewerLastActivity + `
		FROM pull_request_review_requests rr
		JOIN pull_requests p ON p.id = rr.pull_request_id
		LEFT JOIN standing s ON s.pull_request_id = p.id
		WHERE ` + openPullRequestFilter + `
		ORDER BY p.id, julianday(rr.requested_at), rr.reviewer_id
	`
	return r.queryReviewRequests(ctx, query, filterArgs(filter)...)
}

// ListStuckReviewRequests returns outstanding review requests on unapproved
// pull requests where the reviewer has not acted since the request.
func (r *ActivityRepo) ListStuckReviewRequests(ctx context.Context, filter driven.CandidateFilter) ([]model.ReviewRequestCandidate, error) {
	query := standingApprovals + `
		SELECT ` + pullRequestColumns + `, rr.reviewer_id, rr.requested_at, ` + reviewerLastActivity + `
		FROM pull_request_review_requests rr
		JOIN pull_requests p ON p.id = rr.pull_request_id
		LEFT JOIN standing s ON s.pull_request_id = p.id
		WHERE ` + openPullRequestFilter + `
		  AND s.pull_request_id IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM participant_activity pa
			WHERE pa.container_type = 'pull_request'
			  AND pa.container_id = rr.pull_request_id
			  AND pa.user_id = rr.reviewer_id
			  AND julianday(pa.occurred_at) > julianday(rr.requested_at)
		  )
		ORDER BY p.id, julianday(rr.requested_at), rr.reviewer_id
	`
	return r.queryReviewRequests(ctx, query, filterArgs(filter)...)
}

func (r *ActivityRepo) queryReviewRequests(ctx context.Context, query string, args ...any) ([]model.ReviewRequestCandidate, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query review requests: %w", err)
	}
	defer rows.Close()

	var out []model.ReviewRequestCandidate
	for rows.Next() {
		var c model.ReviewRequestCandidate
		var requestedAt string
		var lastActivity sql.NullString

		pr, err := scanPullRequest(rows, &c.ReviewerID, &requestedAt, &lastActivity)
		if err == nil {
			c.RequestedAt, err = requiredTime(requestedAt, "requested_at of pull request", pr.ID)
		}
		if r.skipMalformed(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		c.PullRequest = pr
		c.LastActivityAt = optionalTime(lastActivity)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review requests: %w", err)
	}

	return out, nil
}

// ListOpenIssues returns open issues with their stored project payloads,
// activity status events, and manual overrides.
func (r *ActivityRepo) ListOpenIssues(ctx context.Context, filter driven.CandidateFilter) ([]model.IssueCandidate, error) {
	const query = `
		SELECT i.id, i.number, i.repository_id, i.author_id, i.title, i.url, i.issue_type, i.milestone,
		       i.labels, i.project_status_history, i.assignees, i.created_at, i.updated_at
		FROM issues i
		WHERE i.state = 'open'
		  AND i.repository_id NOT IN (SELECT value FROM json_each(?))
		  AND i.author_id NOT IN (SELECT value FROM json_each(?))
		ORDER BY i.id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, filterArgs(filter)...)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	var issues []model.IssueCandidate
	index := make(map[int64]int)
	for rows.Next() {
		var is model.IssueCandidate
		var labels, createdAt, updatedAt string
		if err := rows.Scan(
			&is.ID, &is.Number, &is.RepositoryID, &is.AuthorID, &is.Title, &is.URL, &is.IssueType, &is.Milestone,
			&labels, &is.RawProjectHistory, &is.RawAssignees, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		is.Labels = decodeStringList(labels)
		is.CreatedAt, err = requiredTime(createdAt, "created_at of issue", is.ID)
		if err == nil {
			is.UpdatedAt, err = requiredTime(updatedAt, "updated_at of issue", is.ID)
		}
		if r.skipMalformed(err) {
			continue
		}
		index[is.ID] = len(issues)
		issues = append(issues, is)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}

	if len(issues) == 0 {
		return issues, nil
	}
	if err := r.attachStatusEvents(ctx, issues, index); err != nil {
		return nil, err
	}
	if err := r.attachOverrides(ctx, issues, index); err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *ActivityRepo) attachStatusEvents(ctx context.Context, issues []model.IssueCandidate, index map[int64]int) error {
	const query = `
		SELECT e.issue_id, e.status, e.occurred_at
		FROM issue_status_events e
		JOIN issues i ON i.id = e.issue_id
		WHERE i.state = 'open'
		ORDER BY e.issue_id, julianday(e.occurred_at), e.id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query issue status events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var issueID int64
		var ev model.ActivityStatusEvent
		var occurredAt string
		if err := rows.Scan(&issueID, &ev.Status, &occurredAt); err != nil {
			return fmt.Errorf("scan issue status event: %w", err)
		}
		i, ok := index[issueID]
		if !ok {
			continue
		}
		ev.OccurredAt, err = requiredTime(occurredAt, "occurred_at of status event on issue", issueID)
		if r.skipMalformed(err) {
			continue
		}
		issues[i].ActivityEvents = append(issues[i].ActivityEvents, ev)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate issue status events: %w", err)
	}
	return nil
}

func (r *ActivityRepo) attachOverrides(ctx context.Context, issues []model.IssueCandidate, index map[int64]int) error {
	const query = `
		SELECT o.issue_id, o.priority, o.weight, o.initiation_options, o.start_date, o.updated_at
		FROM issue_project_overrides o
		JOIN issues i ON i.id = o.issue_id
		WHERE i.state = 'open'
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query issue overrides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var issueID int64
		var priority, initiation, startDate sql.NullString
		var weight sql.NullInt64
		var updatedAt string
		if err := rows.Scan(&issueID, &priority, &weight, &initiation, &startDate, &updatedAt); err != nil {
			return fmt.Errorf("scan issue override: %w", err)
		}
		i, ok := index[issueID]
		if !ok {
			continue
		}
		issues[i].Override = &model.IssueFieldOverride{
			Priority:          stringPtr(priority),
			Weight:            intPtr(weight),
			InitiationOptions: stringPtr(initiation),
			StartDate:         stringPtr(startDate),
			UpdatedAt:         optionalTime(sql.NullString{String: updatedAt, Valid: true}),
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate issue overrides: %w", err)
	}
	return nil
}

// commentColumns joins a comment with whichever container it belongs to.
const commentColumns = `
	SELECT c.id, c.container_type, c.container_id,
	       COALESCE(i.number, p.number, d.number, 0),
	       COALESCE(i.title, p.title, d.title, ''),
	       COALESCE(i.url, p.url, d.url, ''),
	       COALESCE(i.author_id, p.author_id, d.author_id, 0),
	       COALESCE(i.repository_id, p.repository_id, d.repository_id, 0),
	       c.author_id, c.body, c.url, c.created_at,
	       d.answer_chosen_by_id, d.answer_chosen_at
	FROM comments c
	LEFT JOIN issues i ON c.container_type = 'issue' AND i.id = c.container_id
	LEFT JOIN pull_requests p ON c.container_type = 'pull_request' AND p.id = c.container_id
	LEFT JOIN discussions d ON c.container_type = 'discussion' AND d.id = c.container_id
`

// ListMentionComments returns comments containing "@" on open containers.
func (r *ActivityRepo) ListMentionComments(ctx context.Context, filter driven.CandidateFilter) ([]model.CommentCandidate, error) {
	query := commentColumns + `
		WHERE instr(c.body, '@') > 0
		  AND COALESCE(i.state, p.state, d.state) = 'open'
		  AND COALESCE(i.repository_id, p.repository_id, d.repository_id) NOT IN (SELECT value FROM json_each(?))
		  AND c.author_id NOT IN (SELECT value FROM json_each(?))
		ORDER BY julianday(c.created_at), c.id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, filterArgs(filter)...)
	if err != nil {
		return nil, fmt.Errorf("query mention comments: %w", err)
	}
	defer rows.Close()

	var out []model.CommentCandidate
	for rows.Next() {
		c, err := scanComment(rows)
		if r.skipMalformed(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mention comments: %w", err)
	}

	return out, nil
}

// GetComment returns one comment with its container, or (nil, nil) when it
// does not exist.
func (r *ActivityRepo) GetComment(ctx context.Context, commentID int64) (*model.CommentCandidate, error) {
	query := commentColumns + ` WHERE c.id = ?`

	c, err := scanComment(r.db.Reader.QueryRowContext(ctx, query, commentID))
	if errors.Is(err, sql.ErrNoRows) || r.skipMalformed(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", commentID, err)
	}
	return &c, nil
}

func scanComment(s scanner) (model.CommentCandidate, error) {
	var c model.CommentCandidate
	var containerType, createdAt string
	var answeredBy sql.NullInt64
	var answeredAt sql.NullString

	if err := s.Scan(
		&c.CommentID, &containerType, &c.Container.ID,
		&c.ContainerNumber, &c.ContainerTitle, &c.ContainerURL, &c.ContainerAuthorID, &c.RepositoryID,
		&c.AuthorID, &c.Body, &c.URL, &createdAt,
		&answeredBy, &answeredAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CommentCandidate{}, err
		}
		return model.CommentCandidate{}, fmt.Errorf("scan comment: %w", err)
	}
	c.Container.Type = model.ContainerType(containerType)
	c.AnswerChosenByID = answeredBy.Int64

	var err error
	if c.CreatedAt, err = requiredTime(createdAt, "created_at of comment", c.CommentID); err != nil {
		return model.CommentCandidate{}, err
	}
	c.AnswerChosenAt = optionalTime(answeredAt)
	return c, nil
}

// ListParticipantActivity returns comments, reviews, and reactions inside the
// given containers ordered by time.
func (r *ActivityRepo) ListParticipantActivity(ctx context.Context, containers []model.ContainerRef) ([]model.ParticipantActivity, error) {
	byType := make(map[model.ContainerType][]int64)
	var types []model.ContainerType
	for _, c := range containers {
		if _, ok := byType[c.Type]; !ok {
			types = append(types, c.Type)
		}
		byType[c.Type] = append(byType[c.Type], c.ID)
	}

	const query = `
		SELECT container_type, container_id, user_id, occurred_at
		FROM participant_activity
		WHERE container_type = ? AND container_id IN (SELECT value FROM json_each(?))
		ORDER BY julianday(occurred_at)
	`

	var out []model.ParticipantActivity
	for _, t := range types {
		rows, err := r.db.Reader.QueryContext(ctx, query, string(t), idList(byType[t]))
		if err != nil {
			return nil, fmt.Errorf("query participant activity: %w", err)
		}
		activity, err := r.scanParticipantActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, activity...)
	}
	return out, nil
}

func (r *ActivityRepo) scanParticipantActivity(rows *sql.Rows) ([]model.ParticipantActivity, error) {
	defer rows.Close()

	var out []model.ParticipantActivity
	for rows.Next() {
		var a model.ParticipantActivity
		var containerType, occurredAt string
		if err := rows.Scan(&containerType, &a.Container.ID, &a.UserID, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan participant activity: %w", err)
		}
		a.Container.Type = model.ContainerType(containerType)

		var err error
		a.OccurredAt, err = requiredTime(occurredAt, "participant activity time in container", a.Container.ID)
		if r.skipMalformed(err) {
			continue
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participant activity: %w", err)
	}
	return out, nil
}
