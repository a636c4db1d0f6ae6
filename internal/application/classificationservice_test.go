package application_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/attentionhub/internal/application"
	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

func classificationFixture() (*fakeActivityStore, *fakeUserStore, *fakeSettingsStore) {
	activity := &fakeActivityStore{comments: []model.CommentCandidate{
		{CommentID: 1, Container: model.ContainerRef{Type: model.ContainerIssue, ID: 1}, AuthorID: 1, Body: "@bob ready?", CreatedAt: date(2026, 3, 2)},
		{CommentID: 2, Container: model.ContainerRef{Type: model.ContainerIssue, ID: 2}, AuthorID: 1, Body: "@bob new", CreatedAt: date(2026, 3, 2)},
		{CommentID: 3, Container: model.ContainerRef{Type: model.ContainerPullRequest, ID: 3}, AuthorID: 1, Body: "@bob edited", CreatedAt: date(2026, 3, 2)},
		{CommentID: 4, Container: model.ContainerRef{Type: model.ContainerIssue, ID: 4}, AuthorID: 1, Body: "@bob manual", CreatedAt: date(2026, 3, 2)},
		{CommentID: 5, Container: model.ContainerRef{Type: model.ContainerIssue, ID: 5}, AuthorID: 1, Body: "@bob old prompt", CreatedAt: date(2026, 3, 2)},
	}}
	users := &fakeUserStore{users: []model.User{{ID: 1, Login: "alice"}, {ID: 2, Login: "bob"}}}
	settings := &fakeSettingsStore{settings: model.DefaultOrganizationSettings()}
	return activity, users, settings
}

func TestClassificationService_Refresh(t *testing.T) {
	activity, users, settings := classificationFixture()
	store := newFakeClassificationStore(
		model.MentionClassification{CommentID: 1, MentionedUserID: 2, CommentBodyHash: application.ContentHash("@bob ready?"), PromptVersion: "v2"},
		model.MentionClassification{CommentID: 3, MentionedUserID: 2, CommentBodyHash: application.ContentHash("@bob original"), PromptVersion: "v2"},
		model.MentionClassification{
			CommentID: 4, MentionedUserID: 2, CommentBodyHash: application.ContentHash("@bob manual draft"),
			ManualRequiresResponse: boolPtr(true), ManualRequiresResponseAt: timePtr(date(2026, 3, 3)),
			ManualBodyHash: application.ContentHash("@bob manual"),
		},
		model.MentionClassification{CommentID: 5, MentionedUserID: 2, CommentBodyHash: application.ContentHash("@bob old prompt"), PromptVersion: "v1"},
	)
	classifier := &fakeClassifier{version: "v2"}
	now := at(2026, 3, 18, 12)

	svc := application.NewClassificationService(activity, users, settings, store, classifier).
		WithClock(func() time.Time { return now })

	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, application.RefreshResult{Candidates: 5, Classified: 3, Skipped: 2}, result)

	classified := make(map[int64]bool)
	for _, c := range classifier.calls {
		classified[c.CommentID] = true
		assert.Equal(t, "alice", c.AuthorLogin)
		assert.Equal(t, "bob", c.MentionedLogin)
	}
	assert.Equal(t, map[int64]bool{2: true, 3: true, 5: true}, classified)

	require.Len(t, store.upserts, 3)
	for _, u := range store.upserts {
		assert.Equal(t, "v2", u.PromptVersion)
		assert.Equal(t, now, u.LastEvaluatedAt)
		assert.True(t, u.RequiresResponse)
		assert.Equal(t, "test-model", u.Model)
	}
}

func TestClassificationService_Refresh_ClassifierFailureIsCounted(t *testing.T) {
	activity, users, settings := classificationFixture()
	var calls atomic.Int32
	classifier := &fakeClassifier{version: "v2", verdict: func(in driven.MentionClassificationInput) (driven.MentionVerdict, error) {
		calls.Add(1)
		if in.CommentID == 2 {
			return driven.MentionVerdict{}, errors.New("overloaded")
		}
		return driven.MentionVerdict{RequiresResponse: false}, nil
	}}
	store := newFakeClassificationStore()

	result, err := application.NewClassificationService(activity, users, settings, store, classifier).Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 4, result.Classified)
	assert.Equal(t, int32(5), calls.Load())
}

func TestClassificationService_Refresh_NoClassifier(t *testing.T) {
	activity, users, settings := classificationFixture()
	svc := application.NewClassificationService(activity, users, settings, newFakeClassificationStore(), nil)

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, application.ErrClassifierUnavailable)
}

func TestClassificationService_SetManualDecision(t *testing.T) {
	activity, users, settings := classificationFixture()
	store := newFakeClassificationStore()
	now := at(2026, 3, 18, 12)
	svc := application.NewClassificationService(activity, users, settings, store, nil).
		WithClock(func() time.Time { return now })

	require.NoError(t, svc.SetManualDecision(context.Background(), 2, 2, false))
	require.Len(t, store.manual, 1)
	call := store.manual[0]
	assert.Equal(t, driven.ClassificationKey{CommentID: 2, MentionedUserID: 2}, call.key)
	assert.Equal(t, application.ContentHash("@bob new"), call.bodyHash)
	assert.False(t, call.requiresResponse)
	assert.Equal(t, now, call.at)

	err := svc.SetManualDecision(context.Background(), 404, 2, true)
	assert.ErrorIs(t, err, driven.ErrClassificationNotFound)
}

type countingComputer struct {
	calls int
	now   *time.Time
}

func (c *countingComputer) Compute(_ context.Context) (model.AttentionInsights, error) {
	c.calls++
	return model.AttentionInsights{GeneratedAt: *c.now}, nil
}

func TestInsightsCache(t *testing.T) {
	now := at(2026, 3, 18, 12)
	source := &countingComputer{now: &now}
	cache := application.NewInsightsCache(source, 5*time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	first, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, now, first.GeneratedAt)
	assert.Equal(t, now, cache.GeneratedAt())

	now = now.Add(4 * time.Minute)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls, "fresh value is reused")

	now = now.Add(time.Minute)
	second, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "value older than max age is recomputed")
	assert.Equal(t, now, second.GeneratedAt)

	cache.Invalidate()
	assert.True(t, cache.GeneratedAt().IsZero())
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, source.calls)
}

func TestInsightsCache_Disabled(t *testing.T) {
	now := at(2026, 3, 18, 12)
	source := &countingComputer{now: &now}
	cache := application.NewInsightsCache(source, 0)

	for i := 0; i < 3; i++ {
		_, err := cache.Get(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, source.calls)
}
