package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every transport-level Redis failure, including
// context deadlines. The engine maps it to a retryable service error and
// must never confuse it with a session-integrity failure.
var ErrUnavailable = errors.New("session store unavailable")

// removeByFingerprintScript removes every record bound to one fingerprint.
// It scans the list server-side so the scan and the removals are a single
// atomic step. Returns -1 after deleting the whole list when a corrupt
// entry (no separator) is found, otherwise the number of removed records.
const removeByFingerprintScript = `
local items = redis.call("LRANGE", KEYS[1], 0, -1)
local removed = 0
for i = 1, #items do
  local sep = string.find(items[i], "::", 1, true)
  if sep == nil then
    redis.call("DEL", KEYS[1])
    return -1
  end
  if string.sub(items[i], 1, sep - 1) == ARGV[1] then
    removed = removed + redis.call("LREM", KEYS[1], 1, items[i])
  end
end
return removed
`

var removeByFingerprintLua = redis.NewScript(removeByFingerprintScript)

// Store keeps the per-user ordered list of active refresh-session records in
// Redis. Key = prefix + user id, value = list of encoded [Record] strings,
// most recent first.
//
// RemoveOne is the atomic consume primitive of the rotation protocol: a
// single LREM with count 1 either removes the exact record or reports that
// it was already gone. Two concurrent rotations presenting the same record
// therefore produce exactly one winner.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix namespaces the keys (e.g. "ag").
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(userID string) string {
	return s.prefix + ":" + userID
}

// Append pushes rec to the head of the user's list and, when ttl > 0,
// refreshes the list-level expiry. Returns the resulting list length so the
// caller can apply its session-count policy. A fingerprint containing the
// separator is rejected with [ErrMalformedRecord] before anything is
// written.
func (s *Store) Append(ctx context.Context, userID string, rec Record, ttl time.Duration) (int64, error) {
	if !ValidFingerprint(rec.Fingerprint) {
		return 0, ErrMalformedRecord
	}

	key := s.key(userID)

	var pushCmd *redis.IntCmd
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pushCmd = pipe.LPush(ctx, key, rec.Encode())
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return pushCmd.Val(), nil
}

// List returns all current records for a user, most recent first. A user
// with no sessions yields an empty slice, not an error. The first entry
// that fails to decode aborts the listing with [ErrMalformedRecord]; the
// caller decides what corruption means.
func (s *Store) List(ctx context.Context, userID string) ([]Record, error) {
	raw, err := s.redis.LRange(ctx, s.key(userID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	records := make([]Record, 0, len(raw))
	for _, entry := range raw {
		rec, err := DecodeRecord(entry)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// Count returns the number of records currently stored for a user.
func (s *Store) Count(ctx context.Context, userID string) (int64, error) {
	n, err := s.redis.LLen(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

// RemoveOne removes exactly one occurrence of rec and reports whether
// anything was removed. A false return with a nil error means the record
// was already consumed, which during rotation signals a replay.
func (s *Store) RemoveOne(ctx context.Context, userID string, rec Record) (bool, error) {
	n, err := s.redis.LRem(ctx, s.key(userID), 1, rec.Encode()).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// RemoveByFingerprint atomically removes every record bound to fingerprint.
// A corrupt entry anywhere in the list deletes the whole list and returns
// [ErrMalformedRecord].
func (s *Store) RemoveByFingerprint(ctx context.Context, userID, fingerprint string) (int64, error) {
	n, err := removeByFingerprintLua.Run(ctx, s.redis, []string{s.key(userID)}, fingerprint).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n < 0 {
		return 0, ErrMalformedRecord
	}
	return n, nil
}

// TrimOldest drops records from the tail until at most keep remain. keep <= 0
// clears the list.
func (s *Store) TrimOldest(ctx context.Context, userID string, keep int64) error {
	if keep <= 0 {
		return s.Clear(ctx, userID)
	}
	if err := s.redis.LTrim(ctx, s.key(userID), 0, keep-1).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Clear deletes all session records for a user.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time availability check and its latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
