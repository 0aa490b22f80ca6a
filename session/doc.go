// Package session stores active refresh sessions as per-user ordered lists
// in Redis.
//
// Each list entry is one "<fingerprint>::<refreshToken>" record. The store
// exposes list semantics plus the two primitives the rotation protocol
// depends on: an atomic remove-if-present (RemoveOne) and an atomic
// per-fingerprint purge (RemoveByFingerprint). Expiry is entirely
// store-side via list-level TTL; nothing here runs timers.
package session
