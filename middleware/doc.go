// Package middleware exposes an HTTP adapter over Engine access validation.
//
// [Guard] reads the Authorization header, calls Engine.ValidateAccess, and
// injects the resolved identity into the request context where handlers
// retrieve it with [IdentityFromContext].
//
// This package translates HTTP semantics into Engine calls only; it never
// parses tokens or talks to Redis itself.
package middleware
