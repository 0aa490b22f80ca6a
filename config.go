package authgate

import (
	"errors"
	"time"

	"github.com/MrEthical07/authgate/password"
)

// SessionLimitPolicy decides what happens when a login would exceed
// Session.MaxSessions.
type SessionLimitPolicy int

const (
	// LimitPurgeAll drops every existing session for the user before the
	// new one is stored. The user ends up logged in on one device only.
	LimitPurgeAll SessionLimitPolicy = iota
	// LimitEvictOldest drops only the oldest sessions so the new login
	// fits within the cap.
	LimitEvictOldest
)

// ReplayPolicy decides what happens when a refresh token is presented that
// was already consumed.
type ReplayPolicy int

const (
	// ReplayPurgeAll invalidates every session for the user. The safe
	// default: a replayed token means either the legitimate client or an
	// attacker holds a stolen credential, and there is no way to tell which.
	ReplayPurgeAll ReplayPolicy = iota
	// ReplayPurgeDevice invalidates only the sessions bound to the
	// presenting fingerprint.
	ReplayPurgeDevice
)

// Config carries every tunable of the Engine. Zero values are filled in by
// defaultConfig via the Builder; key material must be supplied by the caller.
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Password password.Params
	Audit    AuditConfig
	Metrics  MetricsConfig

	// Now overrides the engine clock. Nil means time.Now. Tests use it to
	// control token expiry without sleeping.
	Now func() time.Time
}

type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

type SessionConfig struct {
	RedisPrefix string
	// MaxSessions caps concurrent sessions per user. 0 disables the cap.
	MaxSessions int64
	// ListTTL is the Redis expiry of the per-user session list, refreshed
	// on every write. 0 means the refresh TTL is used.
	ListTTL     time.Duration
	LimitPolicy SessionLimitPolicy
	// ReplayAction is applied when a consumed refresh token is presented
	// again.
	ReplayAction ReplayPolicy
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit non-blocking; dropped events are counted and
	// reported via Engine.AuditDropped.
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. Callers still have
// to set key material before the config validates.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    30 * 24 * time.Hour,
			SigningMethod: "ed25519",
			Leeway:        30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix:  "authgate",
			MaxSessions:  5,
			LimitPolicy:  LimitPurgeAll,
			ReplayAction: ReplayPurgeAll,
		},
		Password: password.DefaultParams(),
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks configuration consistency before the Engine is built.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.SigningMethod != "ed25519" && c.JWT.SigningMethod != "hs256" {
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PrivateKey) == 0 {
		return errors.New("ed25519 requires PrivateKey")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}

	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.MaxSessions < 0 {
		return errors.New("Session MaxSessions must be >= 0")
	}
	if c.Session.ListTTL < 0 {
		return errors.New("Session ListTTL must be >= 0")
	}
	switch c.Session.LimitPolicy {
	case LimitPurgeAll, LimitEvictOldest:
	default:
		return errors.New("unknown session limit policy")
	}
	switch c.Session.ReplayAction {
	case ReplayPurgeAll, ReplayPurgeDevice:
	default:
		return errors.New("unknown replay policy")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

// listTTL resolves the session list expiry; it defaults to the refresh TTL
// so Redis never keeps a session list past the life of its newest token.
func (c *Config) listTTL() time.Duration {
	if c.Session.ListTTL > 0 {
		return c.Session.ListTTL
	}
	return c.JWT.RefreshTTL
}
