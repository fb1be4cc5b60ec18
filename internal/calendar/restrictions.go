package calendar

import (
	"time"

	"weekplan/internal/planning"
)

// RestrictionState classifies a restriction against the current date.
type RestrictionState string

const (
	RestrictionResolved RestrictionState = "resolved"
	RestrictionPending  RestrictionState = "pending"
	RestrictionOverdue  RestrictionState = "overdue"
)

// StateOf returns the state of r on the given day. A deadline on today is
// still pending.
func StateOf(r Restriction, today time.Time) RestrictionState {
	if r.Resolved {
		return RestrictionResolved
	}
	if r.Deadline != nil && planning.CalendarDaysBetween(*r.Deadline, today) < 0 {
		return RestrictionOverdue
	}
	return RestrictionPending
}

// WeekSummary condenses the activities mapped to one week.
type WeekSummary struct {
	WeekID               string `json:"weekId"`
	Label                string `json:"label"`
	Activities           int    `json:"activities"`
	CompletedActivities  int    `json:"completedActivities"`
	PendingRestrictions  int    `json:"pendingRestrictions"`
	OverdueRestrictions  int    `json:"overdueRestrictions"`
	ResolvedRestrictions int    `json:"resolvedRestrictions"`
	IsCurrent            bool   `json:"isCurrent"`
}

// SummarizeWeeks builds one summary per week in calendar order.
func SummarizeWeeks(weeks []WeekBucket, mapping map[string][]Activity, today time.Time) []WeekSummary {
	out := make([]WeekSummary, 0, len(weeks))
	for _, w := range weeks {
		s := WeekSummary{WeekID: w.ID, Label: w.Label, IsCurrent: w.Contains(today)}
		for _, a := range mapping[w.ID] {
			s.Activities++
			if a.Completed {
				s.CompletedActivities++
			}
			for _, r := range a.Restrictions {
				switch StateOf(r, today) {
				case RestrictionResolved:
					s.ResolvedRestrictions++
				case RestrictionOverdue:
					s.OverdueRestrictions++
				default:
					s.PendingRestrictions++
				}
			}
		}
		out = append(out, s)
	}
	return out
}
