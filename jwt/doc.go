// Package jwt implements the authgate token codec: compact, signed,
// time-bounded access and refresh tokens carrying a subject identity and a
// token-kind tag.
//
// The codec is a pure function of the key material supplied at construction.
// It never touches storage; whether a refresh token is still outstanding is
// the engine's business, not the codec's.
package jwt
