// AngelaMos | 2026
// state.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/carterperez-dev/tourguide/internal/core"
)

type pendingLogin struct {
	State     string `json:"-"`
	Provider  string `json:"provider"`
	ReturnURL string `json:"return_url"`
	Verifier  string `json:"verifier"`
}

// stateStore keeps in-flight external logins in Redis. A state is
// single-use: Consume deletes it atomically.
type stateStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func newStateStore(client *redis.Client, ttl time.Duration) *stateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &stateStore{redis: client, ttl: ttl}
}

func (s *stateStore) Save(
	ctx context.Context,
	provider, returnURL string,
) (*pendingLogin, error) {
	state, err := core.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	pending := &pendingLogin{
		State:     state,
		Provider:  provider,
		ReturnURL: returnURL,
		Verifier:  oauth2.GenerateVerifier(),
	}

	payload, err := json.Marshal(pending)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	if err := s.redis.Set(ctx, stateKey(state), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store state: %w", err)
	}

	return pending, nil
}

// Consume returns the pending login for state, or nil when it is unknown
// or expired.
func (s *stateStore) Consume(
	ctx context.Context,
	state string,
) (*pendingLogin, error) {
	if state == "" {
		return nil, nil
	}

	payload, err := s.redis.GetDel(ctx, stateKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	var pending pendingLogin
	if err := json.Unmarshal(payload, &pending); err != nil {
		return nil, nil //nolint:nilerr // a corrupt record is treated as expired
	}
	pending.State = state

	return &pending, nil
}

func stateKey(state string) string {
	return core.RedisKey("oauth_state", state)
}
