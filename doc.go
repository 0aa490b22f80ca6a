// Package authgate provides a JWT authentication engine with single-use
// rotating refresh tokens and Redis-backed session tracking.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Model
//
// Every login stores a session record binding a device fingerprint to the
// issued refresh token. A refresh token is consumed on first use: Refresh
// atomically removes the presented record and issues a replacement, so two
// concurrent rotations of the same token produce exactly one winner. A
// verified token that is no longer stored is treated as a replay and the
// configured [ReplayPolicy] fires.
//
// # Error contract
//
// Engine methods return the sentinel errors in errors.go; callers branch
// with errors.Is. Backend outages always surface as [ErrServiceUnavailable]
// and never change session state, so a Redis blip can not log users out.
package authgate
