package agents

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/duamedical/medserve/internal/shared"
)

// TokenStore issues and resolves opaque bearer tokens.
type TokenStore interface {
	Issue(ctx context.Context, agentID uuid.UUID) (token string, expiresAt time.Time, err error)
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, token string) error
	// RevokeAgent drops every token issued to the agent.
	RevokeAgent(ctx context.Context, agentID uuid.UUID) error
}

// RedisTokenStore keeps tokens in Redis with a TTL. Each agent also has a
// set of its live tokens so they can be revoked together.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

type tokenPayload struct {
	AgentID  string    `json:"agent_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// NewRedisTokenStore constructs the store. ttl defaults to seven days.
func NewRedisTokenStore(client *redis.Client, ttl time.Duration) *RedisTokenStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisTokenStore{client: client, ttl: ttl, now: time.Now}
}

func tokenKey(token string) string {
	return "agent_token:" + token
}

func agentTokensKey(agentID uuid.UUID) string {
	return "agent_tokens:" + agentID.String()
}

func (s *RedisTokenStore) Issue(ctx context.Context, agentID uuid.UUID) (string, time.Time, error) {
	token, err := generateToken()
	if err != nil {
		return "", time.Time{}, err
	}
	now := s.now().UTC()
	data, err := json.Marshal(tokenPayload{AgentID: agentID.String(), IssuedAt: now})
	if err != nil {
		return "", time.Time{}, err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, tokenKey(token), data, s.ttl)
		p.SAdd(ctx, agentTokensKey(agentID), token)
		p.Expire(ctx, agentTokensKey(agentID), s.ttl)
		return nil
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("agents: store token: %w", err)
	}
	return token, now.Add(s.ttl), nil
}

func (s *RedisTokenStore) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, shared.ErrUnauthorized
	}
	raw, err := s.client.Get(ctx, tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, shared.ErrUnauthorized
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("agents: load token: %w", err)
	}
	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return uuid.Nil, shared.ErrUnauthorized
	}
	id, err := uuid.Parse(payload.AgentID)
	if err != nil {
		return uuid.Nil, shared.ErrUnauthorized
	}
	return id, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, token string) error {
	agentID, err := s.Resolve(ctx, token)
	if errors.Is(err, shared.ErrUnauthorized) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, tokenKey(token))
		p.SRem(ctx, agentTokensKey(agentID), token)
		return nil
	})
	return err
}

func (s *RedisTokenStore) RevokeAgent(ctx context.Context, agentID uuid.UUID) error {
	tokens, err := s.client.SMembers(ctx, agentTokensKey(agentID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, tokenKey(t))
	}
	keys = append(keys, agentTokensKey(agentID))
	return s.client.Del(ctx, keys...).Err()
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		id, uerr := uuid.NewRandom()
		if uerr != nil {
			return "", fmt.Errorf("agents: generate token: %w", err)
		}
		return id.String(), nil
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

var _ TokenStore = (*RedisTokenStore)(nil)
