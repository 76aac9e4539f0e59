// Package session models the three-state authentication gate
// (signed out, signed in but PIN-unverified, fully verified) and the
// route accessibility rules derived from it.
package session

import "fmt"

// State is a stored session state.
type State int

const (
	SignedOut State = iota
	Unverified
	Verified
)

func (s State) String() string {
	switch s {
	case SignedOut:
		return "signed_out"
	case Unverified:
		return "unverified"
	case Verified:
		return "verified"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Stage is the wire form of a signed-in state, carried in access tokens
// and refresh token rows.
type Stage string

const (
	StageUnverified Stage = "unverified"
	StageVerified   Stage = "verified"
)

// StateOf converts a token stage to a State. Unknown stages are treated as
// signed out.
func StateOf(stage Stage) State {
	switch stage {
	case StageUnverified:
		return Unverified
	case StageVerified:
		return Verified
	}
	return SignedOut
}

// Stage returns the token stage for a signed-in state and "" for SignedOut.
func (s State) Stage() Stage {
	switch s {
	case Unverified:
		return StageUnverified
	case Verified:
		return StageVerified
	}
	return ""
}

// Status is what the gate reports to consumers. Loading is set while a
// persisted session is being resolved; routing must not redirect then.
type Status struct {
	State   State
	Loading bool
}
