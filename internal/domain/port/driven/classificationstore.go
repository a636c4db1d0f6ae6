package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// ErrClassificationNotFound is returned when a manual decision targets a
// comment that does not exist.
var ErrClassificationNotFound = errors.New("mention classification not found")

// ClassificationKey identifies one (comment, mentioned user) pair.
type ClassificationKey struct {
	CommentID       int64
	MentionedUserID int64
}

// ClassificationStore defines the driven port for cached mention
// classification records.
type ClassificationStore interface {
	// GetClassifications returns the records that exist for the given keys.
	GetClassifications(ctx context.Context, keys []ClassificationKey) (map[ClassificationKey]model.MentionClassification, error)

	// UpsertClassification stores an automated verdict. Manual decision
	// fields already stored for the key are preserved.
	UpsertClassification(ctx context.Context, record model.MentionClassification) error

	// SetManualDecision records a human decision stamped at the given time and
	// tied to the comment body with bodyHash. When no record exists one is
	// created carrying bodyHash.
	SetManualDecision(ctx context.Context, key ClassificationKey, bodyHash string, requiresResponse bool, at time.Time) error
}

// MentionClassificationInput is the content handed to the answer-required
// classifier.
type MentionClassificationInput struct {
	CommentID      int64
	AuthorLogin    string
	MentionedLogin string
	ContainerType  model.ContainerType
	ContainerTitle string
	Body           string
}

// MentionVerdict is a classifier's answer.
type MentionVerdict struct {
	RequiresResponse bool
	Reasoning        string
	Model            string
}

// MentionClassifier defines the driven port for the probabilistic
// answer-required signal.
type MentionClassifier interface {
	// PromptVersion identifies the prompt; records with a different version
	// are re-evaluated.
	PromptVersion() string
	Classify(ctx context.Context, input MentionClassificationInput) (MentionVerdict, error)
}
