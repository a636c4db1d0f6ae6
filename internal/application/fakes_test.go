package application_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// date returns midnight UTC of the given civil date.
func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func timePtr(t time.Time) *time.Time { return &t }

type fakeActivityStore struct {
	unreviewed  []model.PullRequestCandidate
	outstanding []model.ReviewRequestCandidate
	approved    []model.PullRequestCandidate
	stuck       []model.ReviewRequestCandidate
	issues      []model.IssueCandidate
	comments    []model.CommentCandidate
	activity    []model.ParticipantActivity

	issuesErr error
}

func (f *fakeActivityStore) ListUnreviewedPullRequests(_ context.Context, _ driven.CandidateFilter) ([]model.PullRequestCandidate, error) {
	return f.unreviewed, nil
}

func (f *fakeActivityStore) ListOutstandingReviewRequests(_ context.Context, _ driven.CandidateFilter) ([]model.ReviewRequestCandidate, error) {
	return f.outstanding, nil
}

func (f *fakeActivityStore) ListApprovedPullRequests(_ context.Context, _ driven.CandidateFilter) ([]model.PullRequestCandidate, error) {
	return f.approved, nil
}

func (f *fakeActivityStore) ListStuckReviewRequests(_ context.Context, _ driven.CandidateFilter) ([]model.ReviewRequestCandidate, error) {
	return f.stuck, nil
}

func (f *fakeActivityStore) ListOpenIssues(_ context.Context, _ driven.CandidateFilter) ([]model.IssueCandidate, error) {
	if f.issuesErr != nil {
		return nil, f.issuesErr
	}
	return f.issues, nil
}

func (f *fakeActivityStore) ListMentionComments(_ context.Context, _ driven.CandidateFilter) ([]model.CommentCandidate, error) {
	return f.comments, nil
}

func (f *fakeActivityStore) ListParticipantActivity(_ context.Context, containers []model.ContainerRef) ([]model.ParticipantActivity, error) {
	wanted := make(map[model.ContainerRef]bool, len(containers))
	for _, c := range containers {
		wanted[c] = true
	}
	var out []model.ParticipantActivity
	for _, a := range f.activity {
		if wanted[a.Container] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActivityStore) GetComment(_ context.Context, id int64) (*model.CommentCandidate, error) {
	for _, c := range f.comments {
		if c.CommentID == id {
			return &c, nil
		}
	}
	return nil, nil
}

type fakeRepoStore struct {
	repos       []model.Repository
	maintainers map[int64][]int64
	org         []int64
}

func (f *fakeRepoStore) GetByIDs(_ context.Context, ids []int64) ([]model.Repository, error) {
	var out []model.Repository
	for _, id := range ids {
		for _, r := range f.repos {
			if r.ID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeRepoStore) ListRepositoryMaintainers(_ context.Context) (map[int64][]int64, error) {
	if f.maintainers == nil {
		return map[int64][]int64{}, nil
	}
	return f.maintainers, nil
}

func (f *fakeRepoStore) ListOrganizationMaintainers(_ context.Context) ([]int64, error) {
	return f.org, nil
}

type fakeUserStore struct {
	users []model.User
}

func (f *fakeUserStore) GetByIDs(_ context.Context, ids []int64) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		for _, u := range f.users {
			if u.ID == id {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeUserStore) GetByLogins(_ context.Context, logins []string) ([]model.User, error) {
	var out []model.User
	for _, l := range logins {
		for _, u := range f.users {
			if strings.EqualFold(u.Login, l) {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type fakePreferenceStore struct {
	mu    sync.Mutex
	prefs []model.UserPreferences
	calls int
}

func (f *fakePreferenceStore) GetPreferences(_ context.Context, ids []int64) ([]model.UserPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []model.UserPreferences
	for _, id := range ids {
		for _, p := range f.prefs {
			if p.UserID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakePreferenceStore) SetPreferences(_ context.Context, p model.UserPreferences) error {
	f.prefs = append(f.prefs, p)
	return nil
}

type fakeHolidayStore struct {
	mu    sync.Mutex
	rows  []model.HolidayDate
	calls [][]string
}

func (f *fakeHolidayStore) ListHolidays(_ context.Context, codes []string) ([]model.HolidayDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), codes...))

	var out []model.HolidayDate
	for _, row := range f.rows {
		for _, c := range codes {
			if strings.EqualFold(row.CalendarCode, c) {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

type fakeSettingsStore struct {
	settings model.OrganizationSettings
}

func (f *fakeSettingsStore) GetOrganizationSettings(_ context.Context) (model.OrganizationSettings, error) {
	return f.settings, nil
}

func (f *fakeSettingsStore) SetOrganizationSettings(_ context.Context, s model.OrganizationSettings) error {
	f.settings = s
	return nil
}

type fakeThresholdStore struct {
	global model.AttentionThresholds
	repos  []model.RepoThreshold
}

func (f *fakeThresholdStore) GetGlobalThresholds(_ context.Context) (model.AttentionThresholds, error) {
	return f.global, nil
}

func (f *fakeThresholdStore) SetGlobalThresholds(_ context.Context, t model.AttentionThresholds) error {
	f.global = t
	return nil
}

func (f *fakeThresholdStore) ListRepoThresholds(_ context.Context) ([]model.RepoThreshold, error) {
	return f.repos, nil
}

func (f *fakeThresholdStore) SetRepoThreshold(_ context.Context, t model.RepoThreshold) error {
	f.repos = append(f.repos, t)
	return nil
}

func (f *fakeThresholdStore) DeleteRepoThreshold(_ context.Context, _ int64) error {
	return nil
}

type manualCall struct {
	key              driven.ClassificationKey
	bodyHash         string
	requiresResponse bool
	at               time.Time
}

type fakeClassificationStore struct {
	mu      sync.Mutex
	records map[driven.ClassificationKey]model.MentionClassification
	upserts []model.MentionClassification
	manual  []manualCall
}

func newFakeClassificationStore(records ...model.MentionClassification) *fakeClassificationStore {
	f := &fakeClassificationStore{records: make(map[driven.ClassificationKey]model.MentionClassification)}
	for _, r := range records {
		f.records[driven.ClassificationKey{CommentID: r.CommentID, MentionedUserID: r.MentionedUserID}] = r
	}
	return f
}

func (f *fakeClassificationStore) GetClassifications(_ context.Context, keys []driven.ClassificationKey) (map[driven.ClassificationKey]model.MentionClassification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[driven.ClassificationKey]model.MentionClassification)
	for _, k := range keys {
		if r, ok := f.records[k]; ok {
			out[k] = r
		}
	}
	return out, nil
}

func (f *fakeClassificationStore) UpsertClassification(_ context.Context, r model.MentionClassification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, r)
	f.records[driven.ClassificationKey{CommentID: r.CommentID, MentionedUserID: r.MentionedUserID}] = r
	return nil
}

func (f *fakeClassificationStore) SetManualDecision(_ context.Context, key driven.ClassificationKey, hash string, requiresResponse bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manual = append(f.manual, manualCall{key: key, bodyHash: hash, requiresResponse: requiresResponse, at: at})
	return nil
}

type fakeClassifier struct {
	mu      sync.Mutex
	version string
	calls   []driven.MentionClassificationInput
	verdict func(driven.MentionClassificationInput) (driven.MentionVerdict, error)
}

func (f *fakeClassifier) PromptVersion() string { return f.version }

func (f *fakeClassifier) Classify(_ context.Context, in driven.MentionClassificationInput) (driven.MentionVerdict, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()
	if f.verdict != nil {
		return f.verdict(in)
	}
	return driven.MentionVerdict{RequiresResponse: true, Reasoning: "asks a question", Model: "test-model"}, nil
}
