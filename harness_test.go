package authgate

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// memoryUserStore is a thread-safe in-memory UserStore for tests.
type memoryUserStore struct {
	mu      sync.Mutex
	byID    map[string]Identity
	byLogin map[string]string
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byID:    map[string]Identity{},
		byLogin: map[string]string{},
	}
}

func (s *memoryUserStore) GetByLogin(_ context.Context, login string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byLogin[login]
	if !ok {
		return Identity{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *memoryUserStore) GetByID(_ context.Context, id string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return Identity{}, ErrUserNotFound
	}
	return user, nil
}

func (s *memoryUserStore) Create(_ context.Context, user Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byLogin[user.Login]; ok {
		return ErrUserExists
	}
	s.byID[user.ID] = user
	s.byLogin[user.Login] = user.ID
	return nil
}

func (s *memoryUserStore) add(user Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[user.ID] = user
	s.byLogin[user.Login] = user.ID
}

func (s *memoryUserStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.byID[id]; ok {
		delete(s.byLogin, user.Login)
		delete(s.byID, id)
	}
}

// plainHasher skips argon2 so engine tests do not pay real hashing cost.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) {
	return "plain:" + plain, nil
}

func (plainHasher) Verify(hashed string, plain string) (bool, error) {
	return hashed == "plain:"+plain, nil
}

// safeBuffer is a bytes.Buffer safe for concurrent writers.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// failingHasher rejects every Hash call, standing in for the argon2id
// minimum-length check.
type failingHasher struct {
	reason string
}

func (h failingHasher) Hash(string) (string, error) {
	return "", errors.New(h.reason)
}

func (failingHasher) Verify(string, string) (bool, error) {
	return false, nil
}

func redisClientForTest(t *testing.T) *redis.Client {
	t.Helper()

	mr, client := newTestRedis(t)
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testKeyPair(t *testing.T) (ed25519.PrivateKey, ed25519.PublicKey) {
	t.Helper()

	seed := make([]byte, ed25519.SeedSize)
	copy(seed, "authgate-engine-test-seed-000000")
	priv := ed25519.NewKeyFromSeed(seed)
	return priv, priv.Public().(ed25519.PublicKey)
}

func testConfig(t *testing.T) Config {
	t.Helper()

	priv, pub := testKeyPair(t)
	cfg := defaultConfig()
	cfg.JWT.AccessTTL = 15 * time.Minute
	cfg.JWT.RefreshTTL = time.Hour
	cfg.JWT.PrivateKey = priv
	cfg.JWT.PublicKey = pub
	return cfg
}

type engineFixture struct {
	engine *Engine
	mr     *miniredis.Miniredis
	users  *memoryUserStore
}

func newEngineFixture(t *testing.T, mutate func(*Config)) *engineFixture {
	t.Helper()

	cfg := testConfig(t)
	if mutate != nil {
		mutate(&cfg)
	}

	mr, rdb := newTestRedis(t)
	users := newMemoryUserStore()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(users).
		WithHasher(plainHasher{}).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return &engineFixture{engine: engine, mr: mr, users: users}
}

func (f *engineFixture) addUser(t *testing.T, id, login, pass string) Identity {
	t.Helper()

	hash, err := plainHasher{}.Hash(pass)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	user := Identity{ID: id, Login: login, PasswordHash: hash}
	f.users.add(user)
	return user
}
