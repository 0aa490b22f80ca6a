package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authgate/jwt"
	"github.com/MrEthical07/authgate/session"
)

// Engine implements the session lifecycle: login, access validation,
// refresh rotation, and logout. Construct it with [New]; all methods are
// safe for concurrent use.
type Engine struct {
	config       Config
	sessionStore *session.Store
	jwtManager   *jwt.Manager
	users        UserStore
	hasher       PasswordHasher
	audit        *auditDispatcher
	metrics      *Metrics
	clock        func() time.Time
}

// Close flushes and stops the audit dispatcher. The Engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.sessionStore != nil && e.jwtManager != nil &&
		e.users != nil && e.hasher != nil
}

// Login authenticates a login/password pair and stores a new session bound
// to fingerprint. The returned pair's refresh token is single use.
//
// An unknown login returns [ErrUserNotFound]; a wrong password returns
// [ErrInvalidCredentials]. When the new session would exceed the configured
// cap, the session limit policy is applied before the new session is stored.
func (e *Engine) Login(ctx context.Context, login, plainPassword, fingerprint string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if !session.ValidFingerprint(fingerprint) {
		return nil, errors.New(`fingerprint must not contain "::"`)
	}

	user, err := e.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", fingerprint, ErrUserNotFound, func() map[string]string {
				return map[string]string{
					"login":  login,
					"reason": "user_not_found",
				}
			})
			return nil, ErrUserNotFound
		}
		return nil, e.mapStoreErr(err)
	}

	ok, err := e.hasher.Verify(user.PasswordHash, plainPassword)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, fingerprint, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"login":  login,
				"reason": "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}

	if err := e.applySessionCap(ctx, user.ID); err != nil {
		return nil, err
	}

	pair, err := e.issuePair(user.ID)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, fingerprint, err, nil)
		return nil, err
	}

	rec := session.Record{Fingerprint: fingerprint, Token: pair.RefreshToken}
	if _, err := e.sessionStore.Append(ctx, user.ID, rec, e.config.listTTL()); err != nil {
		return nil, e.mapStoreErr(err)
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, fingerprint, nil, nil)

	return pair, nil
}

// ValidateAccess checks an access token and resolves the identity it was
// issued for. Verification failures return [ErrUnauthorized]; a token of
// the wrong kind or for a since-deleted account returns [ErrForbidden].
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*Identity, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := e.now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}
	}()

	claims, err := e.jwtManager.Verify(accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims.Kind != jwt.KindAccess {
		return nil, ErrForbidden
	}

	user, err := e.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrForbidden
		}
		return nil, e.mapStoreErr(err)
	}

	return &user, nil
}

// Refresh rotates a refresh token: the presented token is atomically
// consumed and a new pair is issued bound to the same fingerprint.
//
// A token that fails verification returns [ErrUnauthorized]. A token that
// verifies but is not present in the session list was already consumed;
// the replay policy fires and [ErrForbidden] is returned. A corrupt session
// list forces a full logout, also [ErrForbidden]. Store outages return
// [ErrServiceUnavailable] and never touch session state.
func (e *Engine) Refresh(ctx context.Context, refreshToken, fingerprint string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	claims, err := e.jwtManager.Verify(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", fingerprint, ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}
	if claims.Kind != jwt.KindRefresh {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, fingerprint, ErrForbidden, func() map[string]string {
			return map[string]string{"reason": "wrong_token_kind"}
		})
		return nil, ErrForbidden
	}
	userID := claims.Subject

	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, userID, fingerprint, ErrForbidden, func() map[string]string {
				return map[string]string{"reason": "unknown_subject"}
			})
			return nil, ErrForbidden
		}
		return nil, e.mapStoreErr(err)
	}

	// A corrupt session list is unrecoverable state: force a full logout
	// before anything else can read it.
	if _, err := e.sessionStore.List(ctx, user.ID); err != nil {
		if errors.Is(err, session.ErrMalformedRecord) {
			return nil, e.forceLogout(ctx, user.ID, fingerprint, "malformed_record")
		}
		return nil, e.mapStoreErr(err)
	}

	rec := session.Record{Fingerprint: fingerprint, Token: refreshToken}
	removed, err := e.sessionStore.RemoveOne(ctx, user.ID, rec)
	if err != nil {
		return nil, e.mapStoreErr(err)
	}
	if !removed {
		return nil, e.handleReplay(ctx, user.ID, fingerprint)
	}

	pair, err := e.issuePair(user.ID)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, user.ID, fingerprint, err, nil)
		return nil, err
	}

	newRec := session.Record{Fingerprint: fingerprint, Token: pair.RefreshToken}
	if _, err := e.sessionStore.Append(ctx, user.ID, newRec, e.config.listTTL()); err != nil {
		return nil, e.mapStoreErr(err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, user.ID, fingerprint, nil, nil)

	return pair, nil
}

// Logout consumes one session record. It is idempotent: logging out a
// session that no longer exists succeeds. The presented token must still be
// a valid refresh token for an existing account, otherwise
// [ErrUnauthorized] or [ErrForbidden].
func (e *Engine) Logout(ctx context.Context, refreshToken, fingerprint string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	claims, err := e.jwtManager.Verify(refreshToken)
	if err != nil {
		return ErrUnauthorized
	}
	if claims.Kind != jwt.KindRefresh {
		return ErrForbidden
	}

	user, err := e.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrForbidden
		}
		return e.mapStoreErr(err)
	}

	rec := session.Record{Fingerprint: fingerprint, Token: refreshToken}
	if _, err := e.sessionStore.RemoveOne(ctx, user.ID, rec); err != nil {
		return e.mapStoreErr(err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, user.ID, fingerprint, nil, nil)

	return nil
}

// applySessionCap enforces Session.MaxSessions before a new session is
// stored. With LimitPurgeAll a user at the cap loses every existing session;
// with LimitEvictOldest only the oldest are dropped to make room.
func (e *Engine) applySessionCap(ctx context.Context, userID string) error {
	max := e.config.Session.MaxSessions
	if max <= 0 {
		return nil
	}

	count, err := e.sessionStore.Count(ctx, userID)
	if err != nil {
		return e.mapStoreErr(err)
	}
	if count < max {
		return nil
	}

	switch e.config.Session.LimitPolicy {
	case LimitEvictOldest:
		if err := e.sessionStore.TrimOldest(ctx, userID, max-1); err != nil {
			return e.mapStoreErr(err)
		}
		e.metricInc(MetricSessionEvicted)
	default:
		if err := e.sessionStore.Clear(ctx, userID); err != nil {
			return e.mapStoreErr(err)
		}
		e.metricInc(MetricSessionsPurged)
		e.emitAudit(ctx, auditEventSessionsPurged, true, userID, "", nil, func() map[string]string {
			return map[string]string{"reason": "session_limit"}
		})
	}

	return nil
}

// handleReplay fires when a verified refresh token is not in the session
// list: it was either already rotated or the whole session was revoked.
// Either way someone holds a credential that should not exist anymore.
func (e *Engine) handleReplay(ctx context.Context, userID, fingerprint string) error {
	e.metricInc(MetricReplayDetected)
	e.emitAudit(ctx, auditEventReplayDetected, false, userID, fingerprint, ErrForbidden, nil)

	switch e.config.Session.ReplayAction {
	case ReplayPurgeDevice:
		if _, err := e.sessionStore.RemoveByFingerprint(ctx, userID, fingerprint); err != nil {
			if errors.Is(err, session.ErrMalformedRecord) {
				return e.forceLogout(ctx, userID, fingerprint, "malformed_record")
			}
			return e.mapStoreErr(err)
		}
	default:
		if err := e.sessionStore.Clear(ctx, userID); err != nil {
			return e.mapStoreErr(err)
		}
	}

	e.metricInc(MetricSessionsPurged)
	e.emitAudit(ctx, auditEventSessionsPurged, true, userID, fingerprint, nil, func() map[string]string {
		return map[string]string{"reason": "replay"}
	})

	return ErrForbidden
}

// forceLogout clears every session for a user in response to corrupted
// session state and reports the rejection.
func (e *Engine) forceLogout(ctx context.Context, userID, fingerprint, reason string) error {
	if err := e.sessionStore.Clear(ctx, userID); err != nil {
		return e.mapStoreErr(err)
	}

	e.metricInc(MetricSessionsPurged)
	e.emitAudit(ctx, auditEventSessionsPurged, true, userID, fingerprint, ErrForbidden, func() map[string]string {
		return map[string]string{"reason": reason}
	})

	return ErrForbidden
}

func (e *Engine) issuePair(userID string) (*TokenPair, error) {
	accessExp, access, err := e.jwtManager.Issue(jwt.KindAccess, userID, 0)
	if err != nil {
		return nil, err
	}
	refreshExp, refresh, err := e.jwtManager.Issue(jwt.KindRefresh, userID, 0)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// mapStoreErr normalizes backend failures. Outages must surface as
// retryable and must never be mistaken for an auth decision.
func (e *Engine) mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, session.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrUserExists) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}
