package store

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/chippn/chippn/internal/model"
)

// ErrInvalidInviteCode is returned when joining with a code that matches no household.
var ErrInvalidInviteCode = errors.New("invalid invite code")

// ErrAlreadyMember is returned when joining a household the user already belongs to.
var ErrAlreadyMember = errors.New("already a member of this household")

const inviteCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const inviteCodeLen = 6

// maxCodeAttempts bounds invite code regeneration on UNIQUE conflicts.
const maxCodeAttempts = 5

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.InviteCode, &h.CreatedBy, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const householdCols = `id, name, invite_code, created_by, created_at, updated_at`
const memberCols = `id, household_id, user_id, joined_at`

// GenerateInviteCode returns a 6-character code drawn from [A-Z0-9].
func GenerateInviteCode() (string, error) {
	var b strings.Builder
	for i := 0; i < inviteCodeLen; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(inviteCodeChars))))
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		b.WriteByte(inviteCodeChars[n.Int64()])
	}
	return b.String(), nil
}

// Create inserts a household and the creator's membership row in a single
// transaction so a failed membership insert never leaves an orphaned
// household. Invite codes are regenerated on UNIQUE conflicts.
func (s *HouseholdStore) Create(name string, createdBy int64) (*model.Household, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	for attempt := 0; ; attempt++ {
		code, err := GenerateInviteCode()
		if err != nil {
			return nil, err
		}
		result, err := tx.Exec(
			`INSERT INTO households (name, invite_code, created_by) VALUES (?, ?, ?)`,
			name, code, createdBy,
		)
		if err == nil {
			id, err = result.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("last insert id: %w", err)
			}
			break
		}
		if isUniqueViolation(err) && attempt < maxCodeAttempts-1 {
			continue
		}
		return nil, fmt.Errorf("insert household: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO household_members (household_id, user_id) VALUES (?, ?)`,
		id, createdBy,
	); err != nil {
		return nil, fmt.Errorf("insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) GetByInviteCode(code string) (*model.Household, error) {
	row := s.db.QueryRow(
		`SELECT `+householdCols+` FROM households WHERE invite_code = ?`,
		strings.ToUpper(strings.TrimSpace(code)),
	)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household by invite code: %w", err)
	}
	return h, nil
}

// Join looks up a household by invite code and inserts a membership row.
// Returns ErrInvalidInviteCode when no household matches; nothing is written
// in that case.
func (s *HouseholdStore) Join(code string, userID int64) (*model.Household, error) {
	h, err := s.GetByInviteCode(code)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrInvalidInviteCode
	}

	if _, err := s.db.Exec(
		`INSERT INTO household_members (household_id, user_id) VALUES (?, ?)`,
		h.ID, userID,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("insert membership: %w", err)
	}
	return h, nil
}

// Leave deletes the user's membership row only; the household itself survives.
func (s *HouseholdStore) Leave(householdID, userID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// GetForUser returns the user's household (first membership by join time),
// or nil without error when the user belongs to none.
func (s *HouseholdStore) GetForUser(userID int64) (*model.Household, error) {
	row := s.db.QueryRow(
		`SELECT h.id, h.name, h.invite_code, h.created_by, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members hm ON h.id = hm.household_id
		 WHERE hm.user_id = ?
		 ORDER BY hm.joined_at ASC
		 LIMIT 1`,
		userID,
	)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household for user: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) GetMember(householdID, userID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(
		`SELECT `+memberCols+` FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// ListMembers returns memberships joined with user details, ordered by join time.
func (s *HouseholdStore) ListMembers(householdID int64) ([]model.MemberWithUser, error) {
	rows, err := s.db.Query(
		`SELECT hm.id, hm.household_id, hm.user_id, hm.joined_at, u.display_name, u.email
		 FROM household_members hm
		 JOIN users u ON u.id = hm.user_id
		 WHERE hm.household_id = ?
		 ORDER BY hm.joined_at ASC, hm.id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.MemberWithUser
	for rows.Next() {
		var m model.MemberWithUser
		if err := rows.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.JoinedAt, &m.DisplayName, &m.Email); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
