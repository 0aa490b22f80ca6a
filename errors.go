package authgate

import "errors"

// Sentinel errors returned by the Engine. Callers branch with errors.Is;
// HTTP layers map them to status codes (see examples/http-minimal).
var (
	// ErrUserNotFound is returned by Login and the user stores when no
	// account matches the given login.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by Register when the login is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned by Login on a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized covers tokens that fail verification: bad signature,
	// expired, malformed, or wrong issuer.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden covers tokens that verify but are not acceptable here:
	// wrong token kind, unknown subject, replayed or missing session
	// records, and session-state corruption. It always means the session
	// no longer exists by the time the caller sees it.
	ErrForbidden = errors.New("forbidden")
	// ErrPasswordPolicy is returned by Register when the password does not
	// meet the hasher's minimum requirements.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrServiceUnavailable wraps backend outages (Redis, user store).
	// It is retryable and never alters session state.
	ErrServiceUnavailable = errors.New("auth backend unavailable")
	// ErrEngineNotReady is returned when the Engine was not built with all
	// required dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
