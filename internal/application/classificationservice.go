package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// ErrClassifierUnavailable is returned by Refresh when no classifier is configured.
var ErrClassifierUnavailable = errors.New("mention classifier not configured")

// classifyConcurrency bounds in-flight classifier calls.
const classifyConcurrency = 4

// RefreshResult reports what one classification refresh did.
type RefreshResult struct {
	Candidates int
	Classified int
	Skipped    int
	Failed     int
}

// ClassificationService keeps the mention classification cache current.
type ClassificationService struct {
	activity        driven.ActivityStore
	users           driven.UserStore
	settings        driven.SettingsStore
	classifications driven.ClassificationStore
	classifier      driven.MentionClassifier
	mentions        mentionSource
	now             func() time.Time
	logger          *slog.Logger
}

// NewClassificationService creates a new ClassificationService. classifier may
// be nil, in which case Refresh fails with ErrClassifierUnavailable and manual
// decisions still work.
func NewClassificationService(
	activity driven.ActivityStore,
	users driven.UserStore,
	settings driven.SettingsStore,
	classifications driven.ClassificationStore,
	classifier driven.MentionClassifier,
) *ClassificationService {
	return &ClassificationService{
		activity:        activity,
		users:           users,
		settings:        settings,
		classifications: classifications,
		classifier:      classifier,
		mentions:        mentionSource{activity: activity, users: users},
		now:             time.Now,
		logger:          slog.Default(),
	}
}

// WithClock replaces the time source. Used by tests.
func (s *ClassificationService) WithClock(now func() time.Time) *ClassificationService {
	s.now = now
	return s
}

// Refresh classifies every unanswered mention whose record is missing or was
// produced for a different prompt version or comment body. Records that match,
// and records carrying a current manual decision for the same body, are left
// alone. Individual classifier failures are logged and counted; store
// failures abort the refresh.
func (s *ClassificationService) Refresh(ctx context.Context) (RefreshResult, error) {
	if s.classifier == nil {
		return RefreshResult{}, ErrClassifierUnavailable
	}

	settings, err := s.settings.GetOrganizationSettings(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("get organization settings: %w", err)
	}
	filter := driven.CandidateFilter{
		ExcludedRepositoryIDs: settings.ExcludedRepositoryIDs,
		ExcludedUserIDs:       settings.ExcludedUserIDs,
	}

	candidates, mentioned, err := s.mentions.unanswered(ctx, filter, settings.IsUserExcluded)
	if err != nil {
		return RefreshResult{}, err
	}
	result := RefreshResult{Candidates: len(candidates)}
	if len(candidates) == 0 {
		return result, nil
	}

	keys := make([]driven.ClassificationKey, 0, len(candidates))
	var authorIDs []int64
	for _, c := range candidates {
		keys = append(keys, driven.ClassificationKey{CommentID: c.Comment.CommentID, MentionedUserID: c.MentionedUserID})
		authorIDs = append(authorIDs, c.Comment.AuthorID)
	}
	records, err := s.classifications.GetClassifications(ctx, keys)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("get mention classifications: %w", err)
	}
	authors, err := s.users.GetByIDs(ctx, uniqueIDs(authorIDs))
	if err != nil {
		return RefreshResult{}, fmt.Errorf("resolve comment authors: %w", err)
	}
	authorLogins := make(map[int64]string, len(authors))
	for _, a := range authors {
		authorLogins[a.ID] = a.Login
	}

	version := s.classifier.PromptVersion()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(classifyConcurrency)

	for i, c := range candidates {
		if rec, ok := records[keys[i]]; ok && classificationIsCurrent(rec, c.BodyHash, version) {
			result.Skipped++
			continue
		}

		g.Go(func() error {
			verdict, err := s.classifier.Classify(gctx, driven.MentionClassificationInput{
				CommentID:      c.Comment.CommentID,
				AuthorLogin:    authorLogins[c.Comment.AuthorID],
				MentionedLogin: mentioned[c.MentionedUserID].Login,
				ContainerType:  c.Comment.Container.Type,
				ContainerTitle: c.Comment.ContainerTitle,
				Body:           c.Comment.Body,
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("mention classification failed",
					"comment_id", c.Comment.CommentID,
					"mentioned_user_id", c.MentionedUserID,
					"error", err,
				)
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return nil
			}

			record := model.MentionClassification{
				CommentID:        c.Comment.CommentID,
				MentionedUserID:  c.MentionedUserID,
				CommentBodyHash:  c.BodyHash,
				RequiresResponse: verdict.RequiresResponse,
				PromptVersion:    version,
				Model:            verdict.Model,
				Reasoning:        verdict.Reasoning,
				LastEvaluatedAt:  s.now().UTC(),
			}
			if err := s.classifications.UpsertClassification(gctx, record); err != nil {
				return fmt.Errorf("upsert classification for comment %d: %w", c.Comment.CommentID, err)
			}

			mu.Lock()
			result.Classified++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	s.logger.Info("mention classifications refreshed",
		"candidates", result.Candidates,
		"classified", result.Classified,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

// SetManualDecision records a human answer-required decision for a mention,
// stamped with the current time and the comment's current body hash.
func (s *ClassificationService) SetManualDecision(ctx context.Context, commentID, mentionedUserID int64, requiresResponse bool) error {
	comment, err := s.activity.GetComment(ctx, commentID)
	if err != nil {
		return fmt.Errorf("get comment %d: %w", commentID, err)
	}
	if comment == nil {
		return driven.ErrClassificationNotFound
	}

	key := driven.ClassificationKey{CommentID: commentID, MentionedUserID: mentionedUserID}
	if err := s.classifications.SetManualDecision(ctx, key, ContentHash(comment.Body), requiresResponse, s.now().UTC()); err != nil {
		return fmt.Errorf("set manual decision: %w", err)
	}

	s.logger.Info("manual mention decision recorded",
		"comment_id", commentID,
		"mentioned_user_id", mentionedUserID,
		"requires_response", requiresResponse,
	)
	return nil
}

// classificationIsCurrent reports whether rec already decides the mention of a
// body with bodyHash, either through a manual decision on that body or through
// a verdict from the current prompt version.
func classificationIsCurrent(rec model.MentionClassification, bodyHash, version string) bool {
	if _, manual := activeManualDecision(&rec); manual && manualBodyHash(rec) == bodyHash {
		return true
	}
	return rec.CommentBodyHash == bodyHash && rec.PromptVersion == version
}
