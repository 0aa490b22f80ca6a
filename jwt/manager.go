package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind tags a token as usable either for protected-resource access or for
// refresh rotation. The tag travels in the "type" claim and is checked by
// the engine, never by callers.
type Kind string

const (
	// KindAccess marks short-lived tokens presented on protected routes.
	KindAccess Kind = "access"
	// KindRefresh marks single-use tokens exchanged for a new pair.
	KindRefresh Kind = "refresh"
)

// SigningMethod selects the signature algorithm for issued tokens.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

var (
	// ErrTokenInvalid covers every verification failure: bad signature,
	// malformed token, expired token, wrong algorithm. Callers must not be
	// able to tell which check failed.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrInvalidExpiry is returned when the computed expiry would not be
	// strictly after issuance. This is a configuration fault, not a caller
	// fault, and must abort startup or surface as a 5xx.
	ErrInvalidExpiry = errors.New("token expiry not after issuance")
	// ErrSigningFailed wraps signature-generation failures (usually bad key
	// material). Fatal and non-retryable.
	ErrSigningFailed = errors.New("token signing failed")
)

// Config carries the key material and TTLs for a [Manager]. All fields are
// read once at construction and never mutated afterwards.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration

	// Now is the clock used for iat/exp. Nil means time.Now. Injected by
	// tests to exercise expiry without sleeping.
	Now func() time.Time
}

// Claims is the decoded payload of an authgate token.
type Claims struct {
	Kind Kind `json:"type"`
	jwt.RegisteredClaims
}

// Manager issues and verifies signed, expiring tokens. It holds no mutable
// state; a single instance is safe for concurrent use.
type Manager struct {
	config    Config
	signKey   any
	verifyKey any
	method    jwt.SigningMethod
}

// NewManager validates the configuration and parses the key material once.
// ed25519 accepts raw keys or PEM; hs256 treats PrivateKey as the shared
// secret.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 {
		return nil, fmt.Errorf("%w: access TTL must be > 0", ErrInvalidExpiry)
	}
	if cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("%w: refresh TTL must be > 0", ErrInvalidExpiry)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{config: cfg}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
		m.method = jwt.SigningMethodHS256
		m.signKey = cfg.PrivateKey
		m.verifyKey = cfg.PrivateKey
	case MethodEd25519:
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		pub, err := parseEdPublicKey(cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		m.method = jwt.SigningMethodEdDSA
		m.signKey = priv
		m.verifyKey = pub
	default:
		return nil, errors.New("unsupported signing method")
	}

	return m, nil
}

// Issue signs a token of the given kind for subject. A zero ttl selects the
// kind-specific configured default. Returns the expiry alongside the token
// so callers can propagate it (refresh-cookie lifetime, session list TTL).
func (m *Manager) Issue(kind Kind, subject string, ttl time.Duration) (time.Time, string, error) {
	if ttl == 0 {
		if kind == KindRefresh {
			ttl = m.config.RefreshTTL
		} else {
			ttl = m.config.AccessTTL
		}
	}

	now := m.config.Now()
	expiresAt := now.Add(ttl)
	if !expiresAt.After(now) {
		return time.Time{}, "", ErrInvalidExpiry
	}

	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.signKey)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	return expiresAt, signed, nil
}

// Verify checks signature, algorithm, and expiry, and returns the decoded
// claims. Every failure collapses into [ErrTokenInvalid]; the distinction
// between "expired" and "forged" is never surfaced to callers.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.verifyKey, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
