package application

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// StatusSignalKind tags where a status signal came from. Kinds are ordered:
// a higher kind always wins a merge.
type StatusSignalKind int

const (
	SignalUnset StatusSignalKind = iota
	SignalFromActivity
	SignalFromProjectBoard
)

// StatusSignal is one source's opinion of an issue's status.
type StatusSignal struct {
	Kind       StatusSignalKind
	Status     model.ProjectStatus
	OccurredAt time.Time
}

// Locked reports whether the signal freezes planning fields. Only project
// board signals in a locked status do.
func (s StatusSignal) Locked() bool {
	return s.Kind == SignalFromProjectBoard && IsLockedStatus(s.Status)
}

// Source returns the snapshot source of the signal.
func (s StatusSignal) Source() model.StatusSource {
	switch s.Kind {
	case SignalFromProjectBoard:
		return model.StatusSourceTodoProject
	case SignalFromActivity:
		return model.StatusSourceActivity
	default:
		return model.StatusSourceNone
	}
}

// MergeStatusSignals returns the signal with the highest kind. Ties keep a.
func MergeStatusSignals(a, b StatusSignal) StatusSignal {
	if b.Kind > a.Kind {
		return b
	}
	return a
}

// IsLockedStatus reports whether a project board status rejects field overrides.
func IsLockedStatus(status model.ProjectStatus) bool {
	return status == model.ProjectStatusDone || status == model.ProjectStatusPending
}

// statusRules are checked in order; the first rule with a matching substring wins.
var statusRules = []struct {
	status   model.ProjectStatus
	contains []string
}{
	{model.ProjectStatusInProgress, []string{"progress"}},
	{model.ProjectStatusDone, []string{"done", "complete", "closed", "shipped"}},
	{model.ProjectStatusPending, []string{"pending", "hold", "block", "wait", "review"}},
	{model.ProjectStatusTodo, []string{"todo", "to do", "backlog", "ready", "triage"}},
}

// NormalizeProjectStatus maps a raw status string onto the closed status enum.
// Unrecognized values map to no_status.
func NormalizeProjectStatus(raw string) model.ProjectStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return model.ProjectStatusNoStatus
	}
	for _, rule := range statusRules {
		for _, sub := range rule.contains {
			if strings.Contains(s, sub) {
				return rule.status
			}
		}
	}
	return model.ProjectStatusNoStatus
}

// ParseProjectHistory decodes a raw project status history payload. Malformed
// payloads decode to an empty history.
func ParseProjectHistory(raw string) []model.ProjectStatusEntry {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var entries []model.ProjectStatusEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}

// ParseAssigneeIDs decodes a raw assignee payload. Both [1,2] and
// [{"id":1},{"id":2}] shapes are accepted; anything else decodes to no
// assignees.
func ParseAssigneeIDs(raw string) []int64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err == nil {
		return uniqueIDs(ids)
	}

	var objects []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(raw), &objects); err != nil {
		return nil
	}
	ids = make([]int64, 0, len(objects))
	for _, o := range objects {
		ids = append(ids, o.ID)
	}
	return uniqueIDs(ids)
}

// ProjectStatusResolver reconciles project board history with activity-derived
// status events into one IssueProjectSnapshot.
type ProjectStatusResolver struct {
	targetProject string
}

// NewProjectStatusResolver creates a resolver that only trusts board entries
// from the named project.
func NewProjectStatusResolver(targetProject string) ProjectStatusResolver {
	return ProjectStatusResolver{targetProject: normalizeProjectName(targetProject)}
}

func normalizeProjectName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Resolve builds the snapshot. The chronologically last target-project entry is
// authoritative; without one the last activity event is used.
func (r ProjectStatusResolver) Resolve(history []model.ProjectStatusEntry, activity []model.ActivityStatusEvent) model.IssueProjectSnapshot {
	board := make([]model.ProjectStatusEntry, 0, len(history))
	for _, e := range history {
		if normalizeProjectName(e.ProjectTitle) == r.targetProject {
			board = append(board, e)
		}
	}
	sort.SliceStable(board, func(i, j int) bool {
		return board[i].OccurredAt.Before(board[j].OccurredAt)
	})

	events := append([]model.ActivityStatusEvent(nil), activity...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})

	var boardSignal, activitySignal StatusSignal
	if n := len(board); n > 0 {
		last := board[n-1]
		boardSignal = StatusSignal{Kind: SignalFromProjectBoard, Status: NormalizeProjectStatus(last.Status), OccurredAt: last.OccurredAt}
	}
	if n := len(events); n > 0 {
		last := events[n-1]
		activitySignal = StatusSignal{Kind: SignalFromActivity, Status: NormalizeProjectStatus(last.Status), OccurredAt: last.OccurredAt}
	}
	signal := MergeStatusSignals(activitySignal, boardSignal)

	snapshot := model.IssueProjectSnapshot{
		Status: model.ProjectStatusNoStatus,
		Source: signal.Source(),
		Locked: signal.Locked(),
	}
	if signal.Kind != SignalUnset {
		snapshot.Status = signal.Status
	}

	for _, e := range board {
		if e.Priority != "" {
			snapshot.Priority = e.Priority
		}
		if e.Weight != nil {
			w := *e.Weight
			snapshot.Weight = &w
		}
		if e.InitiationOptions != "" {
			snapshot.InitiationOptions = e.InitiationOptions
		}
		if e.StartDate != "" {
			snapshot.StartDate = e.StartDate
		}
	}

	snapshot.StartedAt = earliestInProgress(board, events)
	return snapshot
}

// earliestInProgress returns the earliest transition into in_progress from
// either source, or nil when work never started.
func earliestInProgress(board []model.ProjectStatusEntry, events []model.ActivityStatusEvent) *time.Time {
	var earliest time.Time
	consider := func(status string, at time.Time) {
		if at.IsZero() || NormalizeProjectStatus(status) != model.ProjectStatusInProgress {
			return
		}
		if earliest.IsZero() || at.Before(earliest) {
			earliest = at
		}
	}
	for _, e := range board {
		consider(e.Status, e.OccurredAt)
	}
	for _, e := range events {
		consider(e.Status, e.OccurredAt)
	}
	if earliest.IsZero() {
		return nil
	}
	return &earliest
}

// statusEnteredAt returns when the snapshot's current status was first entered
// on its winning source. Zero when unknown.
func (r ProjectStatusResolver) statusEnteredAt(snapshot model.IssueProjectSnapshot, history []model.ProjectStatusEntry, activity []model.ActivityStatusEvent) time.Time {
	var entered time.Time
	switch snapshot.Source {
	case model.StatusSourceTodoProject:
		for _, e := range history {
			if normalizeProjectName(e.ProjectTitle) != r.targetProject {
				continue
			}
			if NormalizeProjectStatus(e.Status) == snapshot.Status && (entered.IsZero() || e.OccurredAt.Before(entered)) {
				entered = e.OccurredAt
			}
		}
	case model.StatusSourceActivity:
		for _, e := range activity {
			if NormalizeProjectStatus(e.Status) == snapshot.Status && (entered.IsZero() || e.OccurredAt.Before(entered)) {
				entered = e.OccurredAt
			}
		}
	}
	return entered
}

// ApplyFieldOverride applies manual planning fields to the snapshot. A locked
// snapshot is returned unchanged.
func ApplyFieldOverride(snapshot model.IssueProjectSnapshot, override *model.IssueFieldOverride) model.IssueProjectSnapshot {
	if override == nil || snapshot.Locked {
		return snapshot
	}
	if override.Priority != nil {
		snapshot.Priority = *override.Priority
	}
	if override.Weight != nil {
		w := *override.Weight
		snapshot.Weight = &w
	}
	if override.InitiationOptions != nil {
		snapshot.InitiationOptions = *override.InitiationOptions
	}
	if override.StartDate != nil {
		snapshot.StartDate = *override.StartDate
	}
	return snapshot
}

// logMalformedPayload warns when a non-empty raw payload failed to decode.
func logMalformedPayload(logger *slog.Logger, issueID int64, field, raw string) {
	if strings.TrimSpace(raw) == "" || json.Valid([]byte(raw)) {
		return
	}
	logger.Warn("malformed issue payload, treating as empty", "issue_id", issueID, "field", field)
}
