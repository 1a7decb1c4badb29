package chore

import (
	"time"

	"github.com/chippn/chippn/internal/model"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

// DeriveStatus computes the display status for an assignment. Overdue is
// derived only: a pending assignment whose due date has passed. It is never
// persisted.
func DeriveStatus(a model.ChoreAssignment, today time.Time) Status {
	if a.Status == model.StatusCompleted {
		return StatusCompleted
	}
	if startOfDay(a.DueDate).Before(startOfDay(today)) {
		return StatusOverdue
	}
	return StatusPending
}

// NextDueDate advances a due date by one interval of the given frequency.
// Monthly uses calendar months, so Jan 31 advances to the equivalent
// normalized date per time.AddDate semantics.
func NextDueDate(from time.Time, frequency string) time.Time {
	switch frequency {
	case model.FreqDaily:
		return from.AddDate(0, 0, 1)
	case model.FreqWeekly:
		return from.AddDate(0, 0, 7)
	case model.FreqBiweekly:
		return from.AddDate(0, 0, 14)
	case model.FreqMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(0, 0, 1)
	}
}

// ValidFrequency reports whether f is one of the supported frequencies.
func ValidFrequency(f string) bool {
	switch f {
	case model.FreqDaily, model.FreqWeekly, model.FreqBiweekly, model.FreqMonthly:
		return true
	}
	return false
}

// ValidAssignmentType reports whether t is "single" or "rotating".
func ValidAssignmentType(t string) bool {
	return t == model.AssignSingle || t == model.AssignRotating
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
