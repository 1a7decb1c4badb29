package model

import "time"

type Household struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	CreatedBy  int64     `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type HouseholdMember struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	UserID      int64     `json:"user_id"`
	JoinedAt    time.Time `json:"joined_at"`
}

// MemberWithUser is a membership row joined with the member's user record.
type MemberWithUser struct {
	HouseholdMember
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}
