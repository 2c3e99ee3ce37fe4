package domain

import "time"

// DeadlineLayout renders dates as a medium localized date, e.g. "Oct 19, 2026".
const DeadlineLayout = "Jan 2, 2006"

// fallbackBadgeClass is used for values outside the known enums.
const fallbackBadgeClass = "bg-muted"

var priorityBadgeClasses = map[Priority]string{
	PriorityLow:    "bg-priority-low",
	PriorityMedium: "bg-priority-medium",
	PriorityHigh:   "bg-priority-high",
}

var statusBadgeClasses = map[Status]string{
	StatusDone:          "bg-status-done",
	StatusInProgress:    "bg-status-in-progress",
	StatusToDo:          "bg-status-to-do",
	StatusPendingReview: "bg-status-pending-review",
}

// PriorityBadgeClass returns the badge colour class for p.
func PriorityBadgeClass(p Priority) string {
	if class, ok := priorityBadgeClasses[p]; ok {
		return class
	}
	return fallbackBadgeClass
}

// StatusBadgeClass returns the badge colour class for s.
func StatusBadgeClass(s Status) string {
	if class, ok := statusBadgeClasses[s]; ok {
		return class
	}
	return fallbackBadgeClass
}

// FormatDeadline renders t with DeadlineLayout. A zero time renders empty.
func FormatDeadline(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DeadlineLayout)
}
