package auth

// Decision is the outcome of the authorization gate
type Decision int

const (
	// Allow lets the request through
	Allow Decision = iota
	// RedirectLogin is returned when there is no usable session
	RedirectLogin
	// RedirectHome is returned when the session lacks the required role
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Decide applies the role gate. A nil session always fails closed.
func Decide(session *Session, requiredRole string) Decision {
	if session == nil {
		return RedirectLogin
	}
	if !session.HasRole(requiredRole) {
		return RedirectHome
	}
	return Allow
}
