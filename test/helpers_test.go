//go:build integration
// +build integration

package test

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authgate "github.com/MrEthical07/authgate"
)

type memoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]authgate.Identity
	byLogin map[string]string
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{
		byID:    make(map[string]authgate.Identity),
		byLogin: make(map[string]string),
	}
}

func (s *memoryUsers) GetByLogin(_ context.Context, login string) (authgate.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLogin[login]
	if !ok {
		return authgate.Identity{}, authgate.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *memoryUsers) GetByID(_ context.Context, id string) (authgate.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return authgate.Identity{}, authgate.ErrUserNotFound
	}
	return user, nil
}

func (s *memoryUsers) Create(_ context.Context, user authgate.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byLogin[user.Login]; exists {
		return authgate.ErrUserExists
	}
	s.byID[user.ID] = user
	s.byLogin[user.Login] = user.ID
	return nil
}

// markHasher avoids argon2 cost in integration runs while still exercising
// the verify path.
type markHasher struct{}

func (markHasher) Hash(plain string) (string, error) { return "mark:" + plain, nil }

func (markHasher) Verify(hashed, plain string) (bool, error) {
	return hashed == "mark:"+plain, nil
}

type integrationEnv struct {
	engine *authgate.Engine
	users  *memoryUsers
	mr     *miniredis.Miniredis
}

func newIntegrationEnv(t *testing.T, mutate func(*authgate.Config)) *integrationEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	seed := []byte("authgate-integration-seed-000000")
	priv := ed25519.NewKeyFromSeed(seed)

	cfg := authgate.DefaultConfig()
	cfg.JWT.PrivateKey = priv
	cfg.JWT.PublicKey = priv.Public().(ed25519.PublicKey)
	if mutate != nil {
		mutate(&cfg)
	}

	users := newMemoryUsers()
	engine, err := authgate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(users).
		WithHasher(markHasher{}).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &integrationEnv{engine: engine, users: users, mr: mr}
}

func (env *integrationEnv) addUser(t *testing.T, id, login, pass string) {
	t.Helper()
	err := env.users.Create(context.Background(), authgate.Identity{
		ID:           id,
		Login:        login,
		PasswordHash: "mark:" + pass,
	})
	if err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
}
