package application

import "time"

// Stakeholder is an actor whose wait must clear a threshold, together with the
// instant their wait started.
type Stakeholder struct {
	UserID int64
	Since  time.Time
}

// StakeholderWait is one stakeholder's business-day wait.
type StakeholderWait struct {
	UserID int64
	Days   int
}

// WaitingEvaluation is the outcome of evaluating a candidate against a
// threshold for all of its stakeholders.
type WaitingEvaluation struct {
	Waits       []StakeholderWait
	Qualifies   bool
	WaitingDays int // Minimum across Waits.
}

// EvaluateWaiting measures the wait of every stakeholder in their own calendar.
// The candidate qualifies only when every stakeholder waited at least
// threshold business days; the reported wait is the minimum. A candidate with
// no stakeholders, or with a stakeholder whose wait cannot be computed, does
// not qualify.
func EvaluateWaiting(now time.Time, stakeholders []Stakeholder, calendars ActorCalendars, threshold int) WaitingEvaluation {
	eval := WaitingEvaluation{Waits: make([]StakeholderWait, 0, len(stakeholders))}
	if len(stakeholders) == 0 {
		return eval
	}

	eval.Qualifies = true
	for _, s := range stakeholders {
		days, ok := calendars.For(s.UserID).BusinessDaysSince(s.Since, now)
		if !ok {
			eval.Qualifies = false
			continue
		}
		eval.Waits = append(eval.Waits, StakeholderWait{UserID: s.UserID, Days: days})
		if len(eval.Waits) == 1 || days < eval.WaitingDays {
			eval.WaitingDays = days
		}
		if days < threshold {
			eval.Qualifies = false
		}
	}
	if len(eval.Waits) == 0 {
		eval.Qualifies = false
	}

	return eval
}

// stakeholdersSince builds stakeholders that all started waiting at since.
func stakeholdersSince(userIDs []int64, since time.Time) []Stakeholder {
	out := make([]Stakeholder, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, Stakeholder{UserID: id, Since: since})
	}
	return out
}
