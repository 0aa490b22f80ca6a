//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"sync"
	"testing"

	authgate "github.com/MrEthical07/authgate"
)

// Concurrent rotations of the same refresh token must produce exactly one
// winner; every loser is treated as a replay.
func TestConcurrentRefreshSingleWinner(t *testing.T) {
	ctx := context.Background()
	env := newIntegrationEnv(t, nil)
	env.addUser(t, "u1", "alice", "hunter22")

	pair, err := env.engine.Login(ctx, "alice", "hunter22", "phone")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := env.engine.Refresh(ctx, pair.RefreshToken, "phone")
			results <- err
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, authgate.ErrForbidden):
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}
