package model

import "time"

// Device types for push tokens.
const (
	DeviceIOS     = "ios"
	DeviceAndroid = "android"
)

type NotificationToken struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Token      string    `json:"token"`
	DeviceType string    `json:"device_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
