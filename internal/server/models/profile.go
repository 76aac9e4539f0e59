package models

import "time"

// Profile holds per-user settings. PinHash is a bcrypt hash of the 6-digit
// second-factor PIN.
type Profile struct {
	UserID      string
	DisplayName string
	PinHash     []byte
	UpdatedAt   time.Time
}
