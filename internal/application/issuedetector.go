package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// issueFinding is a qualifying issue before reference hydration.
type issueFinding struct {
	issue     model.IssueCandidate
	assignees []int64
	snapshot  model.IssueProjectSnapshot
	ageDays   int
}

// issueFindings holds the two issue sections, which share one query.
type issueFindings struct {
	backlog []issueFinding
	stalled []issueFinding
}

// detectIssues splits open issues by resolved project status. Untriaged and
// to-do issues are aged from creation; in-progress and pending issues are aged
// from when work started. Ages are calendar days in the organization timezone.
func (s *InsightsService) detectIssues(ctx context.Context, dc detectionContext) (issueFindings, error) {
	issues, err := s.activity.ListOpenIssues(ctx, dc.filter)
	if err != nil {
		return issueFindings{}, fmt.Errorf("list open issues: %w", err)
	}

	org, err := s.calendars.OrganizationCalendar(ctx, dc.settings)
	if err != nil {
		return issueFindings{}, err
	}

	resolver := NewProjectStatusResolver(dc.settings.TargetProjectName)

	var out issueFindings
	for _, issue := range issues {
		logMalformedPayload(s.logger, issue.ID, "project_status_history", issue.RawProjectHistory)
		logMalformedPayload(s.logger, issue.ID, "assignees", issue.RawAssignees)

		history := ParseProjectHistory(issue.RawProjectHistory)
		snapshot := resolver.Resolve(history, issue.ActivityEvents)
		snapshot = ApplyFieldOverride(snapshot, issue.Override)
		thresholds := dc.thresholds.For(issue.RepositoryID)

		finding := issueFinding{
			issue:     issue,
			assignees: dc.withoutExcluded(ParseAssigneeIDs(issue.RawAssignees)),
			snapshot:  snapshot,
		}

		switch snapshot.Status {
		case model.ProjectStatusNoStatus, model.ProjectStatusTodo:
			age, ok := CalendarDayDiff(issue.CreatedAt, dc.now, org.Location)
			if !ok || age < thresholds.BacklogIssueDays {
				continue
			}
			finding.ageDays = age
			out.backlog = append(out.backlog, finding)

		case model.ProjectStatusInProgress, model.ProjectStatusPending:
			origin := stalledOrigin(resolver, snapshot, history, issue)
			age, ok := CalendarDayDiff(origin, dc.now, org.Location)
			if !ok || age < thresholds.StalledIssueDays {
				continue
			}
			finding.ageDays = age
			out.stalled = append(out.stalled, finding)
		}
	}
	return out, nil
}

// stalledOrigin returns the clock origin of a stalled issue: when work started,
// else when the current status was entered, else creation.
func stalledOrigin(resolver ProjectStatusResolver, snapshot model.IssueProjectSnapshot, history []model.ProjectStatusEntry, issue model.IssueCandidate) time.Time {
	if snapshot.StartedAt != nil {
		return *snapshot.StartedAt
	}
	if entered := resolver.statusEnteredAt(snapshot, history, issue.ActivityEvents); !entered.IsZero() {
		return entered
	}
	return issue.CreatedAt
}
