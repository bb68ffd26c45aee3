package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/ports"
)

// Store implements ports.SessionStore using Redis. Each session lives in a
// hash with "data" (JSON) and "version" fields; Save runs a Lua script so the
// compare-and-swap on the version counter is atomic.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for sessions. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "deckwright:session:",
		ttl:    0,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// saveScript performs the version compare-and-swap and index update in one
// atomic step. Returns the new version, -1 on conflict, -2 when the session
// does not exist but a positive version was expected.
var saveScript = backend.NewScript(`
local current = redis.call("HGET", KEYS[1], "version")
local expected = ARGV[1]
if expected == "0" then
	if current then
		return -1
	end
	redis.call("HSET", KEYS[1], "data", ARGV[2], "version", 1)
	if tonumber(ARGV[3]) > 0 then
		redis.call("PEXPIRE", KEYS[1], ARGV[3])
	end
	redis.call("ZADD", KEYS[2], ARGV[4], ARGV[5])
	return 1
end
if not current then
	return -2
end
if current ~= expected then
	return -1
end
local bumped = tonumber(current) + 1
redis.call("HSET", KEYS[1], "data", ARGV[2], "version", bumped)
if tonumber(ARGV[3]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[3])
end
redis.call("ZADD", KEYS[2], ARGV[4], ARGV[5])
return bumped
`)

// Save persists the session if the stored version matches expectedVersion.
func (s *Store) Save(ctx context.Context, session *domain.Session, expectedVersion int64) (int64, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal session: %w", err)
	}

	// Index score mirrors the TTL so List can prune lazily. Far-future score
	// when sessions never expire.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	res, err := saveScript.Run(ctx, s.client,
		[]string{s.key(session.ID), s.indexKey()},
		expectedVersion, data, s.ttl.Milliseconds(), score, session.ID,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to save to redis: %w", err)
	}

	switch res {
	case -1:
		return 0, domain.ErrVersionConflict
	case -2:
		return 0, domain.ErrSessionNotFound
	default:
		return res, nil
	}
}

// Load retrieves the session and its version from Redis.
func (s *Store) Load(ctx context.Context, sessionID string) (*ports.VersionedSession, error) {
	vals, err := s.client.HMGet(ctx, s.key(sessionID), "data", "version").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if vals[0] == nil || vals[1] == nil {
		return nil, domain.ErrSessionNotFound
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected data type %T for session %s", vals[0], sessionID)
	}
	var sess domain.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	var version int64
	if _, err := fmt.Sscan(vals[1].(string), &version); err != nil {
		return nil, fmt.Errorf("corrupt version for session %s: %w", sessionID, err)
	}

	return &ports.VersionedSession{Session: &sess, Version: version}, nil
}

// Delete removes the session and its index entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns active sessions from the index, pruning expired entries lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
