package model

import "time"

// ContainerRef identifies the issue, pull request, or discussion a comment
// belongs to.
type ContainerRef struct {
	Type ContainerType
	ID   int64
}

// CommentCandidate is a comment that may contain @mentions, joined with its
// open container.
type CommentCandidate struct {
	CommentID         int64
	Container         ContainerRef
	ContainerNumber   int
	ContainerTitle    string
	ContainerURL      string
	ContainerAuthorID int64
	RepositoryID      int64
	AuthorID          int64
	Body              string
	URL               string
	CreatedAt         time.Time
	AnswerChosenByID  int64     // Discussions only; zero when no answer was chosen.
	AnswerChosenAt    time.Time // Discussions only.
}

// ParticipantActivity is a comment, review, or reaction by a user inside a
// container. Used to decide whether a mentioned user has responded.
type ParticipantActivity struct {
	Container  ContainerRef
	UserID     int64
	OccurredAt time.Time
}

// MentionCandidate is a single (comment, mentioned user) pair extracted from a
// comment body, before the classification gate.
type MentionCandidate struct {
	Comment         CommentCandidate
	MentionedUserID int64
	BodyHash        string
}

// MentionClassification is the cached answer-required verdict for one
// (comment, mentioned user) pair.
type MentionClassification struct {
	CommentID                int64
	MentionedUserID          int64
	CommentBodyHash          string
	RequiresResponse         bool
	PromptVersion            string
	Model                    string
	Reasoning                string
	LastEvaluatedAt          time.Time
	ManualRequiresResponse   *bool
	ManualRequiresResponseAt *time.Time
	ManualBodyHash           string // Body hash the manual decision was made against.
}

// ContainerReference is the display projection of a mention's container.
type ContainerReference struct {
	Type   ContainerType
	ID     int64
	Number int
	Title  string
	URL    string
}

// MentionAttentionItem is an @mention the mentioned user has not answered.
type MentionAttentionItem struct {
	CommentID        int64
	CommentURL       string
	Container        ContainerReference
	Repository       RepositoryReference
	Author           UserReference
	MentionedUser    UserReference
	Excerpt          string
	MentionedAt      time.Time
	WaitingDays      int
	RequiresResponse *bool // Classifier or manual verdict; nil when unclassified.
	ManualDecision   bool
}
