package store

import (
	"database/sql"
	"fmt"

	"github.com/chippn/chippn/internal/model"
)

// anonymousName is what anonymous senders display as. The real sender_id is
// always stored; anonymity is display-only.
const anonymousName = "Anonymous"

type ChatStore struct {
	db *sql.DB
}

func NewChatStore(db *sql.DB) *ChatStore {
	return &ChatStore{db: db}
}

const messageCols = `id, household_id, sender_id, message, is_anonymous, created_at`

func scanMessage(scanner interface{ Scan(...any) error }) (*model.ChatMessage, error) {
	var m model.ChatMessage
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.SenderID, &m.Message, &m.IsAnonymous, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *ChatStore) Create(householdID, senderID int64, message string, isAnonymous bool) (*model.ChatMessage, error) {
	result, err := s.db.Exec(
		`INSERT INTO chat_messages (household_id, sender_id, message, is_anonymous) VALUES (?, ?, ?, ?)`,
		householdID, senderID, message, isAnonymous,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+messageCols+` FROM chat_messages WHERE id = ?`, id)
	return scanMessage(row)
}

// ListRecent returns the newest `limit` messages for a household in ascending
// chronological order. The query fetches newest-first with a LIMIT and the
// slice is reversed before returning.
func (s *ChatStore) ListRecent(householdID int64, limit int) ([]model.MessageWithSender, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.household_id, m.sender_id, m.message, m.is_anonymous, m.created_at,
		        u.display_name
		 FROM chat_messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE m.household_id = ?
		 ORDER BY m.created_at DESC, m.id DESC
		 LIMIT ?`,
		householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.MessageWithSender
	for rows.Next() {
		var m model.MessageWithSender
		if err := rows.Scan(&m.ID, &m.HouseholdID, &m.SenderID, &m.Message, &m.IsAnonymous, &m.CreatedAt, &m.SenderName); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if m.IsAnonymous {
			m.SenderName = anonymousName
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into ascending order for the client.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
