package session

// Screen identifies a reachable area of the application.
type Screen string

const (
	ScreenRoot      Screen = "root"
	ScreenAuth      Screen = "auth"
	ScreenPin       Screen = "2fa"
	ScreenDashboard Screen = "dashboard"
	ScreenMarket    Screen = "market"
	ScreenWallet    Screen = "wallet"
	ScreenSettings  Screen = "settings"
)

// Protected reports whether the screen requires a verified session.
func (s Screen) Protected() bool {
	switch s {
	case ScreenDashboard, ScreenMarket, ScreenWallet, ScreenSettings:
		return true
	}
	return false
}

// Decision is the outcome of a route check.
type Decision int

const (
	Render Decision = iota
	Placeholder
	RedirectSignIn
	RedirectPin
	RedirectDashboard
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case Placeholder:
		return "placeholder"
	case RedirectSignIn:
		return "redirect:auth"
	case RedirectPin:
		return "redirect:2fa"
	case RedirectDashboard:
		return "redirect:dashboard"
	}
	return "unknown"
}

// Route decides what happens when screen is requested under st.
// It is a pure function of its inputs.
func Route(st Status, screen Screen) Decision {
	switch {
	case screen == ScreenAuth:
		return Render
	case st.Loading:
		return Placeholder
	}

	switch screen {
	case ScreenPin:
		switch st.State {
		case Unverified:
			return Render
		case Verified:
			return RedirectDashboard
		default:
			return RedirectSignIn
		}
	case ScreenRoot:
		if st.State == Verified {
			return RedirectDashboard
		}
		return RedirectSignIn
	}

	if !screen.Protected() {
		return Render
	}
	switch st.State {
	case Verified:
		return Render
	case Unverified:
		return RedirectPin
	default:
		return RedirectSignIn
	}
}
