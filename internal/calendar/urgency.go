package calendar

import (
	"fmt"
	"time"

	"weekplan/internal/planning"
)

// DefaultCriticalDays is the remaining-days threshold for the critical status.
const DefaultCriticalDays = 14

// UrgencyStatus is the deadline-proximity class of a project.
type UrgencyStatus string

const (
	UrgencyNormal    UrgencyStatus = "normal"
	UrgencyCritical  UrgencyStatus = "critical"
	UrgencyOverdue   UrgencyStatus = "overdue"
	UrgencyCompleted UrgencyStatus = "completed"
)

// UrgencyInfo is presentation metadata for a countdown widget.
type UrgencyInfo struct {
	Status        UrgencyStatus `json:"status"`
	DaysRemaining int           `json:"daysRemaining"`
	Label         string        `json:"label"`
	Severity      string        `json:"severity"` // info, warning, danger, success
}

// Classify derives the urgency of a project ending on end, as seen on today.
// Completion overrides every date-based class. ok is false when there is no
// end date to classify against.
func Classify(today time.Time, end *time.Time, completed bool, criticalDays int) (UrgencyInfo, bool) {
	if criticalDays <= 0 {
		criticalDays = DefaultCriticalDays
	}

	var days int
	hasEnd := end != nil && !end.IsZero()
	if hasEnd {
		days = planning.CalendarDaysBetween(*end, today)
	}

	switch {
	case completed:
		return UrgencyInfo{Status: UrgencyCompleted, DaysRemaining: days, Label: "Completed", Severity: "success"}, true
	case !hasEnd:
		return UrgencyInfo{}, false
	case days < 0:
		return UrgencyInfo{Status: UrgencyOverdue, DaysRemaining: days, Label: fmt.Sprintf("Overdue by %d day(s)", -days), Severity: "danger"}, true
	case days <= criticalDays:
		return UrgencyInfo{Status: UrgencyCritical, DaysRemaining: days, Label: fmt.Sprintf("%d day(s) remaining", days), Severity: "warning"}, true
	default:
		return UrgencyInfo{Status: UrgencyNormal, DaysRemaining: days, Label: fmt.Sprintf("%d day(s) remaining", days), Severity: "info"}, true
	}
}
