package store

import (
	"database/sql"
	"fmt"

	"github.com/chippn/chippn/internal/model"
)

type NotificationTokenStore struct {
	db *sql.DB
}

func NewNotificationTokenStore(db *sql.DB) *NotificationTokenStore {
	return &NotificationTokenStore{db: db}
}

const tokenCols = `id, user_id, token, device_type, created_at, updated_at`

func scanToken(scanner interface{ Scan(...any) error }) (*model.NotificationToken, error) {
	var t model.NotificationToken
	err := scanner.Scan(&t.ID, &t.UserID, &t.Token, &t.DeviceType, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert inserts a token or, if the token already exists, reassigns it to the
// given user and device type. Tokens are device-scoped, so a token moving
// between accounts follows the device.
func (s *NotificationTokenStore) Upsert(userID int64, token, deviceType string) (*model.NotificationToken, error) {
	_, err := s.db.Exec(
		`INSERT INTO notification_tokens (user_id, token, device_type) VALUES (?, ?, ?)
		 ON CONFLICT(token) DO UPDATE SET user_id = excluded.user_id, device_type = excluded.device_type, updated_at = datetime('now')`,
		userID, token, deviceType,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert token: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+tokenCols+` FROM notification_tokens WHERE token = ?`, token)
	return scanToken(row)
}

func (s *NotificationTokenStore) ListByUser(userID int64) ([]model.NotificationToken, error) {
	rows, err := s.db.Query(
		`SELECT `+tokenCols+` FROM notification_tokens WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.NotificationToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

// DeleteByToken removes a token, typically after the push service reports the
// device is no longer registered.
func (s *NotificationTokenStore) DeleteByToken(token string) error {
	_, err := s.db.Exec(`DELETE FROM notification_tokens WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
