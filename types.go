package authgate

import (
	"context"
	"time"
)

// Identity is the engine's view of a user account. PasswordHash is the PHC
// encoded argon2id hash; the engine never sees or stores plaintext.
type Identity struct {
	ID           string
	Login        string
	PasswordHash string
}

// UserStore is the credential backend. Implementations return
// [ErrUserNotFound] when no account matches and [ErrUserExists] on a
// duplicate login; any other error is treated as a backend outage.
//
// stores/postgres provides a pgx-backed implementation.
type UserStore interface {
	GetByLogin(ctx context.Context, login string) (Identity, error)
	GetByID(ctx context.Context, id string) (Identity, error)
	Create(ctx context.Context, identity Identity) error
}

// PasswordHasher abstracts password hashing so the argon2id default can be
// swapped in tests. Verify takes the stored hash first, then the candidate
// plaintext.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hashed string, plain string) (bool, error)
}

// TokenPair is the result of a successful login or rotation.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// SessionInfo describes one active session for introspection. The refresh
// token itself is never exposed.
type SessionInfo struct {
	Fingerprint string
}
