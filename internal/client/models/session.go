// Package models defines client-side data models of the CryptoEx terminal
// client.
package models

import (
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/session"
)

// StoredSession is the token pair kept between client runs. There is at
// most one per local database.
type StoredSession struct {
	Email        string
	AccessToken  string
	RefreshToken string
	Stage        session.Stage
	SavedAt      time.Time
}

// State is the gate state the stored stage stands for.
func (s StoredSession) State() session.State {
	return session.StateOf(s.Stage)
}
