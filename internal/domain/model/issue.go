package model

import "time"

// IssueCandidate is an open issue row with its raw project and assignee payloads.
// Raw JSON fields are parsed by the application layer, which treats malformed
// payloads as empty.
type IssueCandidate struct {
	ID                int64
	Number            int
	RepositoryID      int64
	AuthorID          int64
	Title             string
	URL               string
	IssueType         string
	Milestone         string
	Labels            []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	RawProjectHistory string // JSON array of ProjectStatusEntry.
	RawAssignees      string // JSON array of user ids.
	ActivityEvents    []ActivityStatusEvent
	Override          *IssueFieldOverride
}

// ProjectStatusEntry is one status change recorded on a project board.
type ProjectStatusEntry struct {
	ProjectTitle      string    `json:"projectTitle"`
	Status            string    `json:"status"`
	OccurredAt        time.Time `json:"occurredAt"`
	Priority          string    `json:"priority,omitempty"`
	Weight            *int      `json:"weight,omitempty"`
	InitiationOptions string    `json:"initiationOptions,omitempty"`
	StartDate         string    `json:"startDate,omitempty"`
}

// ActivityStatusEvent is a status transition inferred from comments or labels
// when the issue is not tracked on the project board.
type ActivityStatusEvent struct {
	Status     string
	OccurredAt time.Time
}

// IssueFieldOverride holds manually entered planning fields. Nil fields are
// not overridden.
type IssueFieldOverride struct {
	Priority          *string
	Weight            *int
	InitiationOptions *string
	StartDate         *string
	UpdatedAt         time.Time
}

// IssueProjectSnapshot is the single authoritative view of an issue's
// project state.
type IssueProjectSnapshot struct {
	Status            ProjectStatus
	Source            StatusSource
	Locked            bool
	Priority          string
	Weight            *int
	InitiationOptions string
	StartDate         string
	StartedAt         *time.Time // Earliest transition into in_progress from either source.
}

// IssueAttentionItem is an issue surfaced by the backlog or stalled sections.
type IssueAttentionItem struct {
	ID         int64
	Number     int
	Title      string
	URL        string
	Repository RepositoryReference
	Author     UserReference
	Assignees  []UserReference
	IssueType  string
	Milestone  string
	Labels     []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Project    IssueProjectSnapshot
	AgeDays    int // Days since creation (backlog) or since work started (stalled).
}
