package application

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// GateReason explains a gate decision. Reasons are stable strings suitable for
// logs and API output.
type GateReason string

const (
	GateManualOptOut      GateReason = "manual_opt_out"
	GateManualOptIn       GateReason = "manual_opt_in"
	GateManualContentDiff GateReason = "manual_content_changed"
	GateUnclassified      GateReason = "unclassified"
	GatePromptOutdated    GateReason = "prompt_outdated"
	GateContentChanged    GateReason = "content_changed"
	GateNoResponseNeeded  GateReason = "no_response_needed"
	GateResponseRequired  GateReason = "response_required"
)

// GateDecision is the outcome of the mention classification gate.
type GateDecision struct {
	Include          bool
	Reason           GateReason
	RequiresResponse *bool // Verdict that governed the decision; nil when none applied.
	Manual           bool  // True when a human decision governed.
}

// ContentHash returns the hex SHA-256 of the trimmed comment body.
func ContentHash(body string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(body)))
	return hex.EncodeToString(sum[:])
}

// ManualDecisionIsStale reports whether the record's manual decision predates
// its last automated evaluation. A decision without a timestamp is stale.
func ManualDecisionIsStale(rec model.MentionClassification) bool {
	if rec.ManualRequiresResponse == nil {
		return false
	}
	if rec.ManualRequiresResponseAt == nil {
		return true
	}
	return rec.ManualRequiresResponseAt.Before(rec.LastEvaluatedAt)
}

// manualBodyHash returns the body hash the manual decision of rec applies to.
// Records written before the hash was tracked fall back to the verdict hash.
func manualBodyHash(rec model.MentionClassification) string {
	if rec.ManualBodyHash != "" {
		return rec.ManualBodyHash
	}
	return rec.CommentBodyHash
}

// activeManualDecision returns the non-stale manual decision of rec, if any.
func activeManualDecision(rec *model.MentionClassification) (bool, bool) {
	if rec == nil || rec.ManualRequiresResponse == nil || ManualDecisionIsStale(*rec) {
		return false, false
	}
	return *rec.ManualRequiresResponse, true
}

// EvaluateMentionGate decides whether a candidate mention still requires a
// response. rec is the cached record for the candidate's key, or nil.
//
// A non-stale manual false always excludes. A non-stale manual true includes
// while the comment body matches the one the decision was made against. Otherwise the classifier record must
// exist, match the current prompt version and body hash, and say a response is
// required. In unfiltered mode a missing record includes the mention.
func EvaluateMentionGate(candidate model.MentionCandidate, rec *model.MentionClassification, mode model.MentionFilterMode, promptVersion string) GateDecision {
	if manual, ok := activeManualDecision(rec); ok {
		verdict := manual
		switch {
		case !manual:
			return GateDecision{Include: false, Reason: GateManualOptOut, RequiresResponse: &verdict, Manual: true}
		case manualBodyHash(*rec) == candidate.BodyHash:
			return GateDecision{Include: true, Reason: GateManualOptIn, RequiresResponse: &verdict, Manual: true}
		default:
			return GateDecision{Include: false, Reason: GateManualContentDiff}
		}
	}

	if rec == nil {
		return GateDecision{Include: mode == model.MentionFilterUnfiltered, Reason: GateUnclassified}
	}
	if rec.PromptVersion != promptVersion {
		return GateDecision{Include: false, Reason: GatePromptOutdated}
	}
	if rec.CommentBodyHash != candidate.BodyHash {
		return GateDecision{Include: false, Reason: GateContentChanged}
	}

	verdict := rec.RequiresResponse
	if !verdict {
		return GateDecision{Include: false, Reason: GateNoResponseNeeded, RequiresResponse: &verdict}
	}
	return GateDecision{Include: true, Reason: GateResponseRequired, RequiresResponse: &verdict}
}
