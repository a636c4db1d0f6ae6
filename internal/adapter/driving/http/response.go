package httphandler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/attentionhub/internal/application"
	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// UserResponse is the JSON representation of a user reference.
type UserResponse struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

// RepositoryResponse is the JSON representation of a repository reference.
type RepositoryResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	NameWithOwner string `json:"name_with_owner"`
}

// PullRequestItemResponse is a pull request in one of the PR sections.
type PullRequestItemResponse struct {
	ID          int64              `json:"id"`
	Number      int                `json:"number"`
	Title       string             `json:"title"`
	URL         string             `json:"url"`
	Repository  RepositoryResponse `json:"repository"`
	Author      UserResponse       `json:"author"`
	Reviewers   []UserResponse     `json:"reviewers"`
	Maintainers []UserResponse     `json:"maintainers"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
	ApprovedAt  *string            `json:"approved_at"`
	WaitingDays int                `json:"waiting_days"`
}

// ReviewRequestItemResponse is a stuck review request.
type ReviewRequestItemResponse struct {
	PullRequestID int64              `json:"pull_request_id"`
	Number        int                `json:"number"`
	Title         string             `json:"title"`
	URL           string             `json:"url"`
	Repository    RepositoryResponse `json:"repository"`
	Author        UserResponse       `json:"author"`
	Reviewers     []UserResponse     `json:"reviewers"`
	RequestedAt   string             `json:"requested_at"`
	WaitingDays   int                `json:"waiting_days"`
}

// ProjectResponse is the resolved project state of an issue.
type ProjectResponse struct {
	Status            string  `json:"status"`
	Source            string  `json:"source"`
	Locked            bool    `json:"locked"`
	Priority          string  `json:"priority,omitempty"`
	Weight            *int    `json:"weight,omitempty"`
	InitiationOptions string  `json:"initiation_options,omitempty"`
	StartDate         string  `json:"start_date,omitempty"`
	StartedAt         *string `json:"started_at,omitempty"`
}

// IssueItemResponse is an issue in the backlog or stalled sections.
type IssueItemResponse struct {
	ID         int64              `json:"id"`
	Number     int                `json:"number"`
	Title      string             `json:"title"`
	URL        string             `json:"url"`
	Repository RepositoryResponse `json:"repository"`
	Author     UserResponse       `json:"author"`
	Assignees  []UserResponse     `json:"assignees"`
	IssueType  string             `json:"issue_type,omitempty"`
	Milestone  string             `json:"milestone,omitempty"`
	Labels     []string           `json:"labels"`
	CreatedAt  string             `json:"created_at"`
	UpdatedAt  string             `json:"updated_at"`
	Project    ProjectResponse    `json:"project"`
	AgeDays    int                `json:"age_days"`
}

// ContainerResponse identifies where a mention was posted.
type ContainerResponse struct {
	Type   string `json:"type"`
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// MentionItemResponse is an unanswered @mention.
type MentionItemResponse struct {
	CommentID        int64              `json:"comment_id"`
	CommentURL       string             `json:"comment_url"`
	Container        ContainerResponse  `json:"container"`
	Repository       RepositoryResponse `json:"repository"`
	Author           UserResponse       `json:"author"`
	MentionedUser    UserResponse       `json:"mentioned_user"`
	Excerpt          string             `json:"excerpt"`
	MentionedAt      string             `json:"mentioned_at"`
	WaitingDays      int                `json:"waiting_days"`
	RequiresResponse *bool              `json:"requires_response"`
	ManualDecision   bool               `json:"manual_decision"`
}

// InsightsResponse is the JSON representation of a full attention computation.
type InsightsResponse struct {
	GeneratedAt             string                      `json:"generated_at"`
	Timezone                string                      `json:"timezone"`
	DateTimeFormat          string                      `json:"date_time_format"`
	WeekStart               string                      `json:"week_start"`
	ReviewerUnassignedPRs   []PullRequestItemResponse   `json:"reviewer_unassigned_prs"`
	ReviewStalledPRs        []PullRequestItemResponse   `json:"review_stalled_prs"`
	MergeDelayedPRs         []PullRequestItemResponse   `json:"merge_delayed_prs"`
	StuckReviewRequests     []ReviewRequestItemResponse `json:"stuck_review_requests"`
	BacklogIssues           []IssueItemResponse         `json:"backlog_issues"`
	StalledInProgressIssues []IssueItemResponse         `json:"stalled_in_progress_issues"`
	UnansweredMentions      []MentionItemResponse       `json:"unanswered_mentions"`
	OrganizationMaintainers []UserResponse              `json:"organization_maintainers"`
	RepositoryMaintainers   map[int64][]UserResponse    `json:"repository_maintainers_by_repository"`
}

// LeaderboardEntryResponse counts one user's appearances in a role.
type LeaderboardEntryResponse struct {
	User  UserResponse `json:"user"`
	Count int          `json:"count"`
}

// RoleHighlightResponse holds the top users of one role.
type RoleHighlightResponse struct {
	Role    string                     `json:"role"`
	Entries []LeaderboardEntryResponse `json:"entries"`
}

// SectionSummaryResponse summarizes one section.
type SectionSummaryResponse struct {
	Section    string                  `json:"section"`
	Count      int                     `json:"count"`
	TotalDays  int                     `json:"total_days"`
	Highlights []RoleHighlightResponse `json:"highlights"`
}

// SummaryResponse is the JSON representation of the leaderboard.
type SummaryResponse struct {
	GeneratedAt string                   `json:"generated_at"`
	TotalItems  int                      `json:"total_items"`
	Sections    []SectionSummaryResponse `json:"sections"`
}

// SectionPageResponse is one page of a single section.
type SectionPageResponse struct {
	Section     string `json:"section"`
	GeneratedAt string `json:"generated_at"`
	Items       any    `json:"items"`
	Page        int    `json:"page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
	TotalPages  int    `json:"total_pages"`
}

// ManualDecisionRequest is the JSON body of the manual decision endpoint.
type ManualDecisionRequest struct {
	RequiresResponse *bool `json:"requires_response"`
}

// RefreshResponse reports a classification refresh.
type RefreshResponse struct {
	Candidates int `json:"candidates"`
	Classified int `json:"classified"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toUserResponse(u model.UserReference) UserResponse {
	return UserResponse{ID: u.ID, Login: u.Login, Name: u.Name}
}

func toUserResponses(users []model.UserReference) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toRepositoryResponse(r model.RepositoryReference) RepositoryResponse {
	return RepositoryResponse{ID: r.ID, Name: r.Name, NameWithOwner: r.NameWithOwner}
}

func toPullRequestItems(items []model.PullRequestAttentionItem) []PullRequestItemResponse {
	out := make([]PullRequestItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, PullRequestItemResponse{
			ID:          it.ID,
			Number:      it.Number,
			Title:       it.Title,
			URL:         it.URL,
			Repository:  toRepositoryResponse(it.Repository),
			Author:      toUserResponse(it.Author),
			Reviewers:   toUserResponses(it.Reviewers),
			Maintainers: toUserResponses(it.Maintainers),
			CreatedAt:   formatTime(it.CreatedAt),
			UpdatedAt:   formatTime(it.UpdatedAt),
			ApprovedAt:  formatTimePtr(it.ApprovedAt),
			WaitingDays: it.WaitingDays,
		})
	}
	return out
}

func toReviewRequestItems(items []model.ReviewRequestAttentionItem) []ReviewRequestItemResponse {
	out := make([]ReviewRequestItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ReviewRequestItemResponse{
			PullRequestID: it.PullRequestID,
			Number:        it.Number,
			Title:         it.Title,
			URL:           it.URL,
			Repository:    toRepositoryResponse(it.Repository),
			Author:        toUserResponse(it.Author),
			Reviewers:     toUserResponses(it.Reviewers),
			RequestedAt:   formatTime(it.RequestedAt),
			WaitingDays:   it.WaitingDays,
		})
	}
	return out
}

func toIssueItems(items []model.IssueAttentionItem) []IssueItemResponse {
	out := make([]IssueItemResponse, 0, len(items))
	for _, it := range items {
		labels := it.Labels
		if labels == nil {
			labels = []string{}
		}
		out = append(out, IssueItemResponse{
			ID:         it.ID,
			Number:     it.Number,
			Title:      it.Title,
			URL:        it.URL,
			Repository: toRepositoryResponse(it.Repository),
			Author:     toUserResponse(it.Author),
			Assignees:  toUserResponses(it.Assignees),
			IssueType:  it.IssueType,
			Milestone:  it.Milestone,
			Labels:     labels,
			CreatedAt:  formatTime(it.CreatedAt),
			UpdatedAt:  formatTime(it.UpdatedAt),
			Project: ProjectResponse{
				Status:            string(it.Project.Status),
				Source:            string(it.Project.Source),
				Locked:            it.Project.Locked,
				Priority:          it.Project.Priority,
				Weight:            it.Project.Weight,
				InitiationOptions: it.Project.InitiationOptions,
				StartDate:         it.Project.StartDate,
				StartedAt:         formatTimePtr(it.Project.StartedAt),
			},
			AgeDays: it.AgeDays,
		})
	}
	return out
}

func toMentionItems(items []model.MentionAttentionItem) []MentionItemResponse {
	out := make([]MentionItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, MentionItemResponse{
			CommentID:  it.CommentID,
			CommentURL: it.CommentURL,
			Container: ContainerResponse{
				Type:   string(it.Container.Type),
				ID:     it.Container.ID,
				Number: it.Container.Number,
				Title:  it.Container.Title,
				URL:    it.Container.URL,
			},
			Repository:       toRepositoryResponse(it.Repository),
			Author:           toUserResponse(it.Author),
			MentionedUser:    toUserResponse(it.MentionedUser),
			Excerpt:          it.Excerpt,
			MentionedAt:      formatTime(it.MentionedAt),
			WaitingDays:      it.WaitingDays,
			RequiresResponse: it.RequiresResponse,
			ManualDecision:   it.ManualDecision,
		})
	}
	return out
}

// NewInsightsResponse converts insights to their JSON representation.
func NewInsightsResponse(a model.AttentionInsights) InsightsResponse {
	maintainers := make(map[int64][]UserResponse, len(a.RepositoryMaintainersByRepository))
	for repoID, users := range a.RepositoryMaintainersByRepository {
		maintainers[repoID] = toUserResponses(users)
	}

	return InsightsResponse{
		GeneratedAt:             formatTime(a.GeneratedAt),
		Timezone:                a.Timezone,
		DateTimeFormat:          a.DateTimeFormat,
		WeekStart:               strings.ToLower(a.WeekStart.String()),
		ReviewerUnassignedPRs:   toPullRequestItems(a.ReviewerUnassignedPRs),
		ReviewStalledPRs:        toPullRequestItems(a.ReviewStalledPRs),
		MergeDelayedPRs:         toPullRequestItems(a.MergeDelayedPRs),
		StuckReviewRequests:     toReviewRequestItems(a.StuckReviewRequests),
		BacklogIssues:           toIssueItems(a.BacklogIssues),
		StalledInProgressIssues: toIssueItems(a.StalledInProgressIssues),
		UnansweredMentions:      toMentionItems(a.UnansweredMentions),
		OrganizationMaintainers: toUserResponses(a.OrganizationMaintainers),
		RepositoryMaintainers:   maintainers,
	}
}

// NewSummaryResponse converts a leaderboard to its JSON representation.
func NewSummaryResponse(lb model.Leaderboard) SummaryResponse {
	sections := make([]SectionSummaryResponse, 0, len(lb.Sections))
	for _, s := range lb.Sections {
		highlights := make([]RoleHighlightResponse, 0, len(s.Highlights))
		for _, h := range s.Highlights {
			entries := make([]LeaderboardEntryResponse, 0, len(h.Entries))
			for _, e := range h.Entries {
				entries = append(entries, LeaderboardEntryResponse{User: toUserResponse(e.User), Count: e.Count})
			}
			highlights = append(highlights, RoleHighlightResponse{Role: string(h.Role), Entries: entries})
		}
		sections = append(sections, SectionSummaryResponse{
			Section:    string(s.Section),
			Count:      s.Count,
			TotalDays:  s.TotalDays,
			Highlights: highlights,
		})
	}

	return SummaryResponse{
		GeneratedAt: formatTime(lb.GeneratedAt),
		TotalItems:  lb.TotalItems,
		Sections:    sections,
	}
}

// sectionPage pages the items of one section. The caller has validated section.
func sectionPage(a model.AttentionInsights, section model.InsightsSection, page, perPage int) SectionPageResponse {
	var items any
	var info application.PageInfo

	switch section {
	case model.SectionReviewerUnassignedPRs:
		var p []model.PullRequestAttentionItem
		p, info = application.Page(a.ReviewerUnassignedPRs, page, perPage)
		items = toPullRequestItems(p)
	case model.SectionReviewStalledPRs:
		var p []model.PullRequestAttentionItem
		p, info = application.Page(a.ReviewStalledPRs, page, perPage)
		items = toPullRequestItems(p)
	case model.SectionMergeDelayedPRs:
		var p []model.PullRequestAttentionItem
		p, info = application.Page(a.MergeDelayedPRs, page, perPage)
		items = toPullRequestItems(p)
	case model.SectionStuckReviewRequests:
		var p []model.ReviewRequestAttentionItem
		p, info = application.Page(a.StuckReviewRequests, page, perPage)
		items = toReviewRequestItems(p)
	case model.SectionBacklogIssues:
		var p []model.IssueAttentionItem
		p, info = application.Page(a.BacklogIssues, page, perPage)
		items = toIssueItems(p)
	case model.SectionStalledInProgressIssues:
		var p []model.IssueAttentionItem
		p, info = application.Page(a.StalledInProgressIssues, page, perPage)
		items = toIssueItems(p)
	case model.SectionUnansweredMentions:
		var p []model.MentionAttentionItem
		p, info = application.Page(a.UnansweredMentions, page, perPage)
		items = toMentionItems(p)
	}

	return SectionPageResponse{
		Section:     string(section),
		GeneratedAt: formatTime(a.GeneratedAt),
		Items:       items,
		Page:        info.Page,
		PerPage:     info.PerPage,
		Total:       info.Total,
		TotalPages:  info.TotalPages,
	}
}
