package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/attentionhub/internal/application"
	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

func TestClassificationRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassificationRepo(db)
	ctx := context.Background()
	evaluated := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	rec := model.MentionClassification{
		CommentID:        1,
		MentionedUserID:  2,
		CommentBodyHash:  "abc",
		RequiresResponse: true,
		PromptVersion:    "v2",
		Model:            "claude-test",
		Reasoning:        "direct question",
		LastEvaluatedAt:  evaluated,
	}
	require.NoError(t, repo.UpsertClassification(ctx, rec))
	require.NoError(t, repo.UpsertClassification(ctx, model.MentionClassification{CommentID: 1, MentionedUserID: 3, CommentBodyHash: "abc"}))

	key := driven.ClassificationKey{CommentID: 1, MentionedUserID: 2}
	got, err := repo.GetClassifications(ctx, []driven.ClassificationKey{key, {CommentID: 9, MentionedUserID: 2}})
	require.NoError(t, err)
	require.Len(t, got, 1, "only requested keys are returned")
	assert.Equal(t, rec, got[key])
}

func TestClassificationRepo_UpsertPreservesManualDecision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassificationRepo(db)
	ctx := context.Background()
	key := driven.ClassificationKey{CommentID: 5, MentionedUserID: 2}
	decidedAt := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SetManualDecision(ctx, key, "hash-1", false, decidedAt))

	got, err := repo.GetClassifications(ctx, []driven.ClassificationKey{key})
	require.NoError(t, err)
	created := got[key]
	assert.Equal(t, "hash-1", created.CommentBodyHash)
	assert.Equal(t, "hash-1", created.ManualBodyHash)
	require.NotNil(t, created.ManualRequiresResponse)
	assert.False(t, *created.ManualRequiresResponse)
	assert.Equal(t, decidedAt, *created.ManualRequiresResponseAt)
	assert.True(t, created.LastEvaluatedAt.IsZero())

	evaluated := decidedAt.Add(time.Hour)
	require.NoError(t, repo.UpsertClassification(ctx, model.MentionClassification{
		CommentID: 5, MentionedUserID: 2, CommentBodyHash: "hash-2", RequiresResponse: true,
		PromptVersion: "v2", LastEvaluatedAt: evaluated,
	}))

	got, err = repo.GetClassifications(ctx, []driven.ClassificationKey{key})
	require.NoError(t, err)
	updated := got[key]
	assert.Equal(t, "hash-2", updated.CommentBodyHash)
	assert.True(t, updated.RequiresResponse)
	assert.Equal(t, evaluated, updated.LastEvaluatedAt)
	require.NotNil(t, updated.ManualRequiresResponse, "manual columns survive an automated upsert")
	assert.False(t, *updated.ManualRequiresResponse)
	assert.Equal(t, decidedAt, *updated.ManualRequiresResponseAt)

	later := evaluated.Add(time.Hour)
	require.NoError(t, repo.SetManualDecision(ctx, key, "hash-3", true, later))
	got, err = repo.GetClassifications(ctx, []driven.ClassificationKey{key})
	require.NoError(t, err)
	assert.Equal(t, "hash-2", got[key].CommentBodyHash, "verdict hash is kept")
	assert.Equal(t, "hash-3", got[key].ManualBodyHash)
	assert.True(t, *got[key].ManualRequiresResponse)
	assert.Equal(t, later, *got[key].ManualRequiresResponseAt)
}

func TestClassificationRepo_GetEmpty(t *testing.T) {
	db := setupTestDB(t)

	got, err := NewClassificationRepo(db).GetClassifications(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassificationRepo_OptInAfterEditIncludesMention(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassificationRepo(db)
	ctx := context.Background()
	key := driven.ClassificationKey{CommentID: 7, MentionedUserID: 2}
	evaluated := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	original := application.ContentHash("@bob fyi")
	edited := application.ContentHash("@bob can you review this?")

	require.NoError(t, repo.UpsertClassification(ctx, model.MentionClassification{
		CommentID: 7, MentionedUserID: 2, CommentBodyHash: original,
		PromptVersion: "v2", LastEvaluatedAt: evaluated,
	}))
	require.NoError(t, repo.SetManualDecision(ctx, key, edited, true, evaluated.Add(time.Hour)))

	got, err := repo.GetClassifications(ctx, []driven.ClassificationKey{key})
	require.NoError(t, err)
	rec := got[key]

	candidate := model.MentionCandidate{
		Comment:         model.CommentCandidate{CommentID: 7},
		MentionedUserID: 2,
		BodyHash:        edited,
	}
	decision := application.EvaluateMentionGate(candidate, &rec, model.MentionFilterClassifier, "v2")
	assert.True(t, decision.Include)
	assert.Equal(t, application.GateManualOptIn, decision.Reason)
	assert.True(t, decision.Manual)

	candidate.BodyHash = original
	decision = application.EvaluateMentionGate(candidate, &rec, model.MentionFilterClassifier, "v2")
	assert.False(t, decision.Include, "the opt-in applies to the edited body only")
	assert.Equal(t, application.GateManualContentDiff, decision.Reason)
}
