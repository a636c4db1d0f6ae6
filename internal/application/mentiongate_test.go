package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/attentionhub/internal/application"
	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

func TestEvaluateMentionGate(t *testing.T) {
	const version = "v2"
	body := "@carol could you take a look?"
	hash := application.ContentHash(body)
	candidate := model.MentionCandidate{
		Comment:         model.CommentCandidate{CommentID: 1, Body: body},
		MentionedUserID: 3,
		BodyHash:        hash,
	}
	evaluated := date(2026, 3, 10)

	record := func(requires bool) *model.MentionClassification {
		return &model.MentionClassification{
			CommentID:        1,
			MentionedUserID:  3,
			CommentBodyHash:  hash,
			RequiresResponse: requires,
			PromptVersion:    version,
			LastEvaluatedAt:  evaluated,
		}
	}
	withManual := func(rec *model.MentionClassification, manual bool, decidedAt time.Time) *model.MentionClassification {
		rec.ManualRequiresResponse = boolPtr(manual)
		rec.ManualRequiresResponseAt = timePtr(decidedAt)
		return rec
	}

	tests := []struct {
		name    string
		rec     *model.MentionClassification
		mode    model.MentionFilterMode
		include bool
		reason  application.GateReason
	}{
		{
			name:   "non-stale manual false wins over classifier true",
			rec:    withManual(record(true), false, evaluated.Add(time.Hour)),
			mode:   model.MentionFilterClassifier,
			reason: application.GateManualOptOut,
		},
		{
			name:   "manual false at the same instant is not stale",
			rec:    withManual(record(true), false, evaluated),
			mode:   model.MentionFilterUnfiltered,
			reason: application.GateManualOptOut,
		},
		{
			name:   "no record in classifier mode",
			mode:   model.MentionFilterClassifier,
			reason: application.GateUnclassified,
		},
		{
			name:    "no record in unfiltered mode",
			mode:    model.MentionFilterUnfiltered,
			include: true,
			reason:  application.GateUnclassified,
		},
		{
			name: "prompt version mismatch",
			rec: func() *model.MentionClassification {
				r := record(true)
				r.PromptVersion = "v1"
				return r
			}(),
			mode:   model.MentionFilterUnfiltered,
			reason: application.GatePromptOutdated,
		},
		{
			name: "body hash mismatch",
			rec: func() *model.MentionClassification {
				r := record(true)
				r.CommentBodyHash = application.ContentHash("older body")
				return r
			}(),
			mode:   model.MentionFilterClassifier,
			reason: application.GateContentChanged,
		},
		{
			name:   "classifier says no response needed",
			rec:    record(false),
			mode:   model.MentionFilterClassifier,
			reason: application.GateNoResponseNeeded,
		},
		{
			name:    "classifier says response required",
			rec:     record(true),
			mode:    model.MentionFilterClassifier,
			include: true,
			reason:  application.GateResponseRequired,
		},
		{
			name:    "non-stale manual true overrides classifier false",
			rec:     withManual(record(false), true, evaluated.Add(time.Minute)),
			mode:    model.MentionFilterClassifier,
			include: true,
			reason:  application.GateManualOptIn,
		},
		{
			name:   "stale manual false is ignored, classifier false governs",
			rec:    withManual(record(false), false, evaluated.Add(-time.Hour)),
			mode:   model.MentionFilterClassifier,
			reason: application.GateNoResponseNeeded,
		},
		{
			name:    "stale manual false is ignored, classifier true governs",
			rec:     withManual(record(true), false, evaluated.Add(-time.Hour)),
			mode:    model.MentionFilterClassifier,
			include: true,
			reason:  application.GateResponseRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := application.EvaluateMentionGate(candidate, tt.rec, tt.mode, version)
			assert.Equal(t, tt.include, got.Include)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestEvaluateMentionGate_ManualTrueOnEditedComment(t *testing.T) {
	candidate := model.MentionCandidate{MentionedUserID: 3, BodyHash: application.ContentHash("edited")}
	rec := &model.MentionClassification{
		CommentBodyHash:          application.ContentHash("original"),
		ManualRequiresResponse:   boolPtr(true),
		ManualRequiresResponseAt: timePtr(date(2026, 3, 1)),
	}

	got := application.EvaluateMentionGate(candidate, rec, model.MentionFilterUnfiltered, "v1")
	assert.False(t, got.Include)
	assert.Equal(t, application.GateManualContentDiff, got.Reason)
}

func TestEvaluateMentionGate_ManualTrueAfterEdit(t *testing.T) {
	candidate := model.MentionCandidate{MentionedUserID: 3, BodyHash: application.ContentHash("edited")}
	rec := &model.MentionClassification{
		CommentBodyHash:          application.ContentHash("original"),
		PromptVersion:            "v1",
		ManualRequiresResponse:   boolPtr(true),
		ManualRequiresResponseAt: timePtr(date(2026, 3, 1)),
		ManualBodyHash:           application.ContentHash("edited"),
	}

	got := application.EvaluateMentionGate(candidate, rec, model.MentionFilterClassifier, "v1")
	assert.True(t, got.Include, "the decision was made against the edited body")
	assert.Equal(t, application.GateManualOptIn, got.Reason)

	candidate.BodyHash = application.ContentHash("edited again")
	got = application.EvaluateMentionGate(candidate, rec, model.MentionFilterClassifier, "v1")
	assert.False(t, got.Include)
	assert.Equal(t, application.GateManualContentDiff, got.Reason)
}

func TestManualDecisionIsStale(t *testing.T) {
	rec := model.MentionClassification{LastEvaluatedAt: date(2026, 3, 10)}
	assert.False(t, application.ManualDecisionIsStale(rec), "no manual decision")

	rec.ManualRequiresResponse = boolPtr(false)
	assert.True(t, application.ManualDecisionIsStale(rec), "manual decision without timestamp")

	rec.ManualRequiresResponseAt = timePtr(date(2026, 3, 9))
	assert.True(t, application.ManualDecisionIsStale(rec))

	rec.ManualRequiresResponseAt = timePtr(date(2026, 3, 11))
	assert.False(t, application.ManualDecisionIsStale(rec))
}

func TestContentHash_IgnoresSurroundingWhitespace(t *testing.T) {
	assert.Equal(t, application.ContentHash("hello @bob"), application.ContentHash("  hello @bob\n"))
	assert.NotEqual(t, application.ContentHash("hello @bob"), application.ContentHash("hello @alice"))
	assert.Len(t, application.ContentHash("x"), 64)
}
