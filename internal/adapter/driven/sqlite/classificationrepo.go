package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ClassificationStore = (*ClassificationRepo)(nil)

// ClassificationRepo is the SQLite implementation of the ClassificationStore
// port interface.
type ClassificationRepo struct {
	db *DB
}

// NewClassificationRepo creates a new ClassificationRepo backed by the given DB.
func NewClassificationRepo(db *DB) *ClassificationRepo {
	return &ClassificationRepo{db: db}
}

// GetClassifications returns the stored records among keys.
func (r *ClassificationRepo) GetClassifications(ctx context.Context, keys []driven.ClassificationKey) (map[driven.ClassificationKey]model.MentionClassification, error) {
	out := make(map[driven.ClassificationKey]model.MentionClassification, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	wanted := make(map[driven.ClassificationKey]struct{}, len(keys))
	commentIDs := make([]int64, 0, len(keys))
	for _, k := range keys {
		if _, ok := wanted[k]; ok {
			continue
		}
		wanted[k] = struct{}{}
		commentIDs = append(commentIDs, k.CommentID)
	}

	const query = `
		SELECT comment_id, mentioned_user_id, comment_body_hash, requires_response, prompt_version,
		       model, reasoning, last_evaluated_at, manual_requires_response, manual_requires_response_at,
		       manual_body_hash
		FROM mention_classifications
		WHERE comment_id IN (SELECT value FROM json_each(?))
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, idList(commentIDs))
	if err != nil {
		return nil, fmt.Errorf("query mention_classifications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanClassification(rows)
		if err != nil {
			return nil, err
		}
		key := driven.ClassificationKey{CommentID: rec.CommentID, MentionedUserID: rec.MentionedUserID}
		if _, ok := wanted[key]; ok {
			out[key] = rec
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mention_classifications: %w", err)
	}

	return out, nil
}

func scanClassification(s scanner) (model.MentionClassification, error) {
	var rec model.MentionClassification
	var requires int
	var evaluatedAt, manualAt, manualHash sql.NullString
	var manual sql.NullInt64

	if err := s.Scan(
		&rec.CommentID, &rec.MentionedUserID, &rec.CommentBodyHash, &requires, &rec.PromptVersion,
		&rec.Model, &rec.Reasoning, &evaluatedAt, &manual, &manualAt,
		&manualHash,
	); err != nil {
		return model.MentionClassification{}, fmt.Errorf("scan mention classification: %w", err)
	}
	rec.RequiresResponse = requires != 0
	rec.ManualBodyHash = manualHash.String

	var err error
	if rec.LastEvaluatedAt, err = parseNullTime(evaluatedAt); err != nil {
		return model.MentionClassification{}, fmt.Errorf("parse last_evaluated_at: %w", err)
	}
	if manual.Valid {
		v := manual.Int64 != 0
		rec.ManualRequiresResponse = &v
	}
	if manualAt.Valid {
		t, err := parseTime(manualAt.String)
		if err != nil {
			return model.MentionClassification{}, fmt.Errorf("parse manual_requires_response_at: %w", err)
		}
		rec.ManualRequiresResponseAt = &t
	}

	return rec, nil
}

// UpsertClassification stores an automated verdict. Manual decision columns
// already on the row are left untouched.
func (r *ClassificationRepo) UpsertClassification(ctx context.Context, rec model.MentionClassification) error {
	const query = `
		INSERT INTO mention_classifications (
			comment_id, mentioned_user_id, comment_body_hash, requires_response,
			prompt_version, model, reasoning, last_evaluated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(comment_id, mentioned_user_id) DO UPDATE SET
			comment_body_hash = excluded.comment_body_hash,
			requires_response = excluded.requires_response,
			prompt_version = excluded.prompt_version,
			model = excluded.model,
			reasoning = excluded.reasoning,
			last_evaluated_at = excluded.last_evaluated_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.CommentID, rec.MentionedUserID, rec.CommentBodyHash, boolToInt(rec.RequiresResponse),
		rec.PromptVersion, rec.Model, rec.Reasoning, nullableTime(&rec.LastEvaluatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert classification %d/%d: %w", rec.CommentID, rec.MentionedUserID, err)
	}
	return nil
}

// SetManualDecision records a human decision against the comment body with
// bodyHash. A missing row is created with bodyHash and no automated verdict.
// An existing automated verdict keeps its own body hash.
func (r *ClassificationRepo) SetManualDecision(ctx context.Context, key driven.ClassificationKey, bodyHash string, requiresResponse bool, at time.Time) error {
	const query = `
		INSERT INTO mention_classifications (
			comment_id, mentioned_user_id, comment_body_hash,
			manual_requires_response, manual_requires_response_at, manual_body_hash
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(comment_id, mentioned_user_id) DO UPDATE SET
			manual_requires_response = excluded.manual_requires_response,
			manual_requires_response_at = excluded.manual_requires_response_at,
			manual_body_hash = excluded.manual_body_hash
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		key.CommentID, key.MentionedUserID, bodyHash, boolToInt(requiresResponse), formatTime(at), bodyHash,
	)
	if err != nil {
		return fmt.Errorf("set manual decision %d/%d: %w", key.CommentID, key.MentionedUserID, err)
	}
	return nil
}
