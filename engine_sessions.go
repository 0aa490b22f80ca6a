package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authgate/session"
)

// ActiveSessions lists the fingerprints of every live session for a user,
// most recent first. Corrupted session state forces a full logout and
// returns [ErrForbidden].
func (e *Engine) ActiveSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	records, err := e.sessionStore.List(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrMalformedRecord) {
			return nil, e.forceLogout(ctx, userID, "", "malformed_record")
		}
		return nil, e.mapStoreErr(err)
	}

	sessions := make([]SessionInfo, 0, len(records))
	for _, rec := range records {
		sessions = append(sessions, SessionInfo{Fingerprint: rec.Fingerprint})
	}

	return sessions, nil
}

// LogoutAll revokes every session for a user. Always idempotent.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	if err := e.sessionStore.Clear(ctx, userID); err != nil {
		return e.mapStoreErr(err)
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, userID, "", nil, nil)

	return nil
}

// Ping checks the session backend and reports round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}

	latency, err := e.sessionStore.Ping(ctx)
	if err != nil {
		return latency, e.mapStoreErr(err)
	}
	return latency, nil
}
