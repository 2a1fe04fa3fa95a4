package auth

// AuthError reports a failed credential check. The central error handler maps
// it to 401.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// Failed builds an AuthError with the given reason.
func Failed(reason string) *AuthError { return &AuthError{Reason: reason} }
