package model

import "time"

// Chore frequencies.
const (
	FreqDaily    = "daily"
	FreqWeekly   = "weekly"
	FreqBiweekly = "biweekly"
	FreqMonthly  = "monthly"
)

// Assignment types.
const (
	AssignSingle   = "single"
	AssignRotating = "rotating"
)

// Assignment statuses as persisted. Overdue is derived at read time and
// never written.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Chore struct {
	ID             int64     `json:"id"`
	HouseholdID    int64     `json:"household_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Frequency      string    `json:"frequency"`
	AssignmentType string    `json:"assignment_type"`
	AssignedTo     *int64    `json:"assigned_to"`
	RequiresPhoto  bool      `json:"requires_photo"`
	PhotoGuidance  string    `json:"photo_guidance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChoreWithAssignee is a chore joined with its assignee's display name.
type ChoreWithAssignee struct {
	Chore
	AssigneeName *string `json:"assignee_name"`
}

type ChoreAssignment struct {
	ID            int64      `json:"id"`
	ChoreID       int64      `json:"chore_id"`
	AssignedTo    int64      `json:"assigned_to"`
	DueDate       time.Time  `json:"due_date"`
	Status        string     `json:"status"`
	CompletedAt   *time.Time `json:"completed_at"`
	PhotoURL      *string    `json:"photo_url"`
	PhotoVerified *bool      `json:"photo_verified"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AssignmentWithChore is an assignment joined with its chore's details.
type AssignmentWithChore struct {
	ChoreAssignment
	ChoreName     string `json:"chore_name"`
	Description   string `json:"description"`
	Frequency     string `json:"frequency"`
	RequiresPhoto bool   `json:"requires_photo"`
	PhotoGuidance string `json:"photo_guidance"`
}
