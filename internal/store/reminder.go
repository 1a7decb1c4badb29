package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ReminderStore tracks which assignments have been reminded on a given day so
// the scheduler sends each reminder at most once.
type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

func (s *ReminderStore) WasSent(assignmentID int64, day time.Time) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM reminder_log WHERE assignment_id = ? AND sent_on = ?`,
		assignmentID, day.Format("2006-01-02"),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check reminder sent: %w", err)
	}
	return n > 0, nil
}

func (s *ReminderStore) MarkSent(assignmentID int64, day time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO reminder_log (assignment_id, sent_on) VALUES (?, ?)
		 ON CONFLICT(assignment_id, sent_on) DO NOTHING`,
		assignmentID, day.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

// DeleteOlderThan prunes reminder log rows before the given day.
func (s *ReminderStore) DeleteOlderThan(day time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM reminder_log WHERE sent_on < ?`,
		day.Format("2006-01-02"),
	)
	if err != nil {
		return 0, fmt.Errorf("prune reminder log: %w", err)
	}
	return result.RowsAffected()
}
