package models

import "time"

// RefreshToken is an opaque token row. Verified records whether the session
// had passed the PIN check when the token was issued.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Verified  bool
	Expires   time.Time
	CreatedAt time.Time
}
