package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ThresholdStore = (*ThresholdRepo)(nil)

// thresholdField maps a global_settings key to its AttentionThresholds field.
type thresholdField struct {
	key   string
	field func(*model.AttentionThresholds) *int
}

var thresholdFields = []thresholdField{
	{"threshold.reviewer_unassigned_days", func(t *model.AttentionThresholds) *int { return &t.ReviewerUnassignedDays }},
	{"threshold.review_stalled_days", func(t *model.AttentionThresholds) *int { return &t.ReviewStalledDays }},
	{"threshold.merge_delayed_days", func(t *model.AttentionThresholds) *int { return &t.MergeDelayedDays }},
	{"threshold.stuck_review_request_days", func(t *model.AttentionThresholds) *int { return &t.StuckReviewRequestDays }},
	{"threshold.backlog_issue_days", func(t *model.AttentionThresholds) *int { return &t.BacklogIssueDays }},
	{"threshold.stalled_issue_days", func(t *model.AttentionThresholds) *int { return &t.StalledIssueDays }},
	{"threshold.unanswered_mention_days", func(t *model.AttentionThresholds) *int { return &t.UnansweredMentionDays }},
}

// ThresholdRepo is the SQLite implementation of the ThresholdStore port interface.
type ThresholdRepo struct {
	db *DB
}

// NewThresholdRepo creates a new ThresholdRepo backed by the given DB.
func NewThresholdRepo(db *DB) *ThresholdRepo {
	return &ThresholdRepo{db: db}
}

// GetGlobalThresholds returns the current global thresholds.
// Falls back to model.DefaultAttentionThresholds() for any missing or unparseable key.
func (r *ThresholdRepo) GetGlobalThresholds(ctx context.Context) (model.AttentionThresholds, error) {
	const query = `SELECT key, value FROM global_settings WHERE key LIKE 'threshold.%'`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return model.DefaultAttentionThresholds(), fmt.Errorf("query global_settings: %w", err)
	}
	defer rows.Close()

	stored := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.DefaultAttentionThresholds(), fmt.Errorf("scan global_settings row: %w", err)
		}
		stored[key] = value
	}
	if err := rows.Err(); err != nil {
		return model.DefaultAttentionThresholds(), fmt.Errorf("iterate global_settings: %w", err)
	}

	thresholds := model.DefaultAttentionThresholds()
	for _, f := range thresholdFields {
		raw, ok := stored[f.key]
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			*f.field(&thresholds) = v
		}
	}
	return thresholds, nil
}

// SetGlobalThresholds persists the global thresholds using a transaction.
func (r *ThresholdRepo) SetGlobalThresholds(ctx context.Context, thresholds model.AttentionThresholds) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT OR REPLACE INTO global_settings (key, value) VALUES (?, ?)`
	for _, f := range thresholdFields {
		value := strconv.Itoa(*f.field(&thresholds))
		if _, err := tx.ExecContext(ctx, upsert, f.key, value); err != nil {
			return fmt.Errorf("upsert global_settings %q: %w", f.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit global_settings: %w", err)
	}
	return nil
}

// ListRepoThresholds returns every per-repository override ordered by repository id.
func (r *ThresholdRepo) ListRepoThresholds(ctx context.Context) ([]model.RepoThreshold, error) {
	const query = `
		SELECT repository_id, reviewer_unassigned_days, review_stalled_days, merge_delayed_days,
		       stuck_review_request_days, backlog_issue_days, stalled_issue_days, unanswered_mention_days
		FROM repo_thresholds
		ORDER BY repository_id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query repo_thresholds: %w", err)
	}
	defer rows.Close()

	var out []model.RepoThreshold
	for rows.Next() {
		var t model.RepoThreshold
		var unassigned, stalled, merge, stuck, backlog, stalledIssue, mention sql.NullInt64
		if err := rows.Scan(&t.RepositoryID, &unassigned, &stalled, &merge, &stuck, &backlog, &stalledIssue, &mention); err != nil {
			return nil, fmt.Errorf("scan repo threshold: %w", err)
		}
		t.ReviewerUnassignedDays = intPtr(unassigned)
		t.ReviewStalledDays = intPtr(stalled)
		t.MergeDelayedDays = intPtr(merge)
		t.StuckReviewRequestDays = intPtr(stuck)
		t.BacklogIssueDays = intPtr(backlog)
		t.StalledIssueDays = intPtr(stalledIssue)
		t.UnansweredMentionDays = intPtr(mention)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repo_thresholds: %w", err)
	}

	return out, nil
}

// SetRepoThreshold persists per-repository threshold overrides. Nil fields are
// stored as NULL and fall back to the global value.
func (r *ThresholdRepo) SetRepoThreshold(ctx context.Context, threshold model.RepoThreshold) error {
	const query = `
		INSERT OR REPLACE INTO repo_thresholds (
			repository_id, reviewer_unassigned_days, review_stalled_days, merge_delayed_days,
			stuck_review_request_days, backlog_issue_days, stalled_issue_days, unanswered_mention_days
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		threshold.RepositoryID,
		nullableInt(threshold.ReviewerUnassignedDays),
		nullableInt(threshold.ReviewStalledDays),
		nullableInt(threshold.MergeDelayedDays),
		nullableInt(threshold.StuckReviewRequestDays),
		nullableInt(threshold.BacklogIssueDays),
		nullableInt(threshold.StalledIssueDays),
		nullableInt(threshold.UnansweredMentionDays),
	)
	if err != nil {
		return fmt.Errorf("set repo threshold %d: %w", threshold.RepositoryID, err)
	}
	return nil
}

// DeleteRepoThreshold removes the per-repository override for the given repo,
// causing it to fall back to global thresholds.
func (r *ThresholdRepo) DeleteRepoThreshold(ctx context.Context, repositoryID int64) error {
	const query = `DELETE FROM repo_thresholds WHERE repository_id = ?`
	_, err := r.db.Writer.ExecContext(ctx, query, repositoryID)
	if err != nil {
		return fmt.Errorf("delete repo threshold %d: %w", repositoryID, err)
	}
	return nil
}
