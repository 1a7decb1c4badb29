package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chippn/chippn/internal/model"
)

// ErrNotPending is returned when completing an assignment that is not in the
// pending state. Completed assignments never transition backward.
var ErrNotPending = errors.New("assignment is not pending")

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var assignedTo sql.NullInt64

	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.Name, &c.Description, &c.Frequency,
		&c.AssignmentType, &assignedTo, &c.RequiresPhoto, &c.PhotoGuidance,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo.Valid {
		c.AssignedTo = &assignedTo.Int64
	}
	return &c, nil
}

const choreCols = `id, household_id, name, description, frequency, assignment_type, assigned_to, requires_photo, photo_guidance, created_at, updated_at`

func (s *ChoreStore) Create(householdID int64, name, description, frequency, assignmentType string, assignedTo *int64, requiresPhoto bool, photoGuidance string) (*model.Chore, error) {
	var aTo sql.NullInt64
	if assignedTo != nil {
		aTo = sql.NullInt64{Int64: *assignedTo, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO chores (household_id, name, description, frequency, assignment_type, assigned_to, requires_photo, photo_guidance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, name, description, frequency, assignmentType, aTo, requiresPhoto, photoGuidance,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// ListByHousehold returns household chores joined with assignee display names.
func (s *ChoreStore) ListByHousehold(householdID int64) ([]model.ChoreWithAssignee, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.household_id, c.name, c.description, c.frequency, c.assignment_type,
		        c.assigned_to, c.requires_photo, c.photo_guidance, c.created_at, c.updated_at,
		        u.display_name
		 FROM chores c
		 LEFT JOIN users u ON u.id = c.assigned_to
		 WHERE c.household_id = ?
		 ORDER BY c.name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.ChoreWithAssignee
	for rows.Next() {
		var c model.ChoreWithAssignee
		var assignedTo sql.NullInt64
		var assigneeName sql.NullString
		err := rows.Scan(
			&c.ID, &c.HouseholdID, &c.Name, &c.Description, &c.Frequency,
			&c.AssignmentType, &assignedTo, &c.RequiresPhoto, &c.PhotoGuidance,
			&c.CreatedAt, &c.UpdatedAt, &assigneeName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		if assignedTo.Valid {
			c.AssignedTo = &assignedTo.Int64
		}
		if assigneeName.Valid {
			c.AssigneeName = &assigneeName.String
		}
		chores = append(chores, c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// --- Assignment methods ---

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.ChoreAssignment, error) {
	var a model.ChoreAssignment
	var completedAt sql.NullTime
	var photoURL sql.NullString
	var photoVerified sql.NullBool

	err := scanner.Scan(
		&a.ID, &a.ChoreID, &a.AssignedTo, &a.DueDate, &a.Status,
		&completedAt, &photoURL, &photoVerified, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	if photoURL.Valid {
		a.PhotoURL = &photoURL.String
	}
	if photoVerified.Valid {
		a.PhotoVerified = &photoVerified.Bool
	}
	return &a, nil
}

const assignmentCols = `id, chore_id, assigned_to, due_date, status, completed_at, photo_url, photo_verified, created_at`

func (s *ChoreStore) CreateAssignment(choreID, assignedTo int64, dueDate time.Time) (*model.ChoreAssignment, error) {
	result, err := s.db.Exec(
		`INSERT INTO chore_assignments (chore_id, assigned_to, due_date) VALUES (?, ?, ?)`,
		choreID, assignedTo, dueDate.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetAssignment(id)
}

func (s *ChoreStore) GetAssignment(id int64) (*model.ChoreAssignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentCols+` FROM chore_assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// Complete marks a pending assignment completed, recording the completion
// time and any photo evidence in one write. The status guard rejects
// completed assignments so the transition never runs backward.
func (s *ChoreStore) Complete(id int64, photoURL *string, photoVerified *bool) (*model.ChoreAssignment, error) {
	var pURL sql.NullString
	if photoURL != nil {
		pURL = sql.NullString{String: *photoURL, Valid: true}
	}
	var pVerified sql.NullBool
	if photoVerified != nil {
		pVerified = sql.NullBool{Bool: *photoVerified, Valid: true}
	}

	result, err := s.db.Exec(
		`UPDATE chore_assignments
		 SET status = 'completed', completed_at = datetime('now'), photo_url = ?, photo_verified = ?
		 WHERE id = ? AND status = 'pending'`,
		pURL, pVerified, id,
	)
	if err != nil {
		return nil, fmt.Errorf("complete assignment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotPending
	}
	return s.GetAssignment(id)
}

// ListAssignmentsForUser returns the user's assignments joined with chore
// details, ascending by due date.
func (s *ChoreStore) ListAssignmentsForUser(userID int64) ([]model.AssignmentWithChore, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.chore_id, a.assigned_to, a.due_date, a.status, a.completed_at,
		        a.photo_url, a.photo_verified, a.created_at,
		        c.name, c.description, c.frequency, c.requires_photo, c.photo_guidance
		 FROM chore_assignments a
		 JOIN chores c ON c.id = a.chore_id
		 WHERE a.assigned_to = ?
		 ORDER BY a.due_date ASC, a.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments for user: %w", err)
	}
	defer rows.Close()
	return collectAssignmentsWithChore(rows)
}

// ListPendingDueBy returns pending assignments due on or before the given
// date, joined with chore details. Used by the reminder scheduler.
func (s *ChoreStore) ListPendingDueBy(date time.Time) ([]model.AssignmentWithChore, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.chore_id, a.assigned_to, a.due_date, a.status, a.completed_at,
		        a.photo_url, a.photo_verified, a.created_at,
		        c.name, c.description, c.frequency, c.requires_photo, c.photo_guidance
		 FROM chore_assignments a
		 JOIN chores c ON c.id = a.chore_id
		 WHERE a.status = 'pending' AND a.due_date <= ?
		 ORDER BY a.due_date ASC, a.id ASC`,
		date.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending due: %w", err)
	}
	defer rows.Close()
	return collectAssignmentsWithChore(rows)
}

func collectAssignmentsWithChore(rows *sql.Rows) ([]model.AssignmentWithChore, error) {
	var assignments []model.AssignmentWithChore
	for rows.Next() {
		var a model.AssignmentWithChore
		var completedAt sql.NullTime
		var photoURL sql.NullString
		var photoVerified sql.NullBool
		err := rows.Scan(
			&a.ID, &a.ChoreID, &a.AssignedTo, &a.DueDate, &a.Status,
			&completedAt, &photoURL, &photoVerified, &a.CreatedAt,
			&a.ChoreName, &a.Description, &a.Frequency, &a.RequiresPhoto, &a.PhotoGuidance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		if completedAt.Valid {
			a.CompletedAt = &completedAt.Time
		}
		if photoURL.Valid {
			a.PhotoURL = &photoURL.String
		}
		if photoVerified.Valid {
			a.PhotoVerified = &photoVerified.Bool
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// LastAssignment returns the most recent assignment for a chore by due date,
// or nil if the chore has none.
func (s *ChoreStore) LastAssignment(choreID int64) (*model.ChoreAssignment, error) {
	row := s.db.QueryRow(
		`SELECT `+assignmentCols+` FROM chore_assignments WHERE chore_id = ? ORDER BY due_date DESC, id DESC LIMIT 1`,
		choreID,
	)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last assignment: %w", err)
	}
	return a, nil
}
