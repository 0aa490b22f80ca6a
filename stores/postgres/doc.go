// Package postgres provides a pgx-backed UserStore for persistent
// credential storage. It satisfies the root package's UserStore
// interface and maps database errors onto the shared sentinels, so
// the engine never sees driver-level error types.
package postgres
