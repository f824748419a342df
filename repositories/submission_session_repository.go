package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"manuscript-workflow/models"

	"github.com/redis/go-redis/v9"
)

const DefaultSessionTTL = 24 * time.Hour

// SubmissionSessionRepository holds wizard state. Sessions expire after a
// period of inactivity; no manuscript row exists until the wizard completes.
type SubmissionSessionRepository interface {
	Save(ctx context.Context, s *models.SubmissionSession) error
	Get(ctx context.Context, id string) (*models.SubmissionSession, error)
	// Take removes and returns the session in one step. Of several concurrent
	// callers at most one receives it; the rest get NotFound.
	Take(ctx context.Context, id string) (*models.SubmissionSession, error)
}

type redisSubmissionSessionRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSubmissionSessionRepository(client *redis.Client, prefix string, ttl time.Duration) SubmissionSessionRepository {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "manuscripts:submission"
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &redisSubmissionSessionRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisSubmissionSessionRepository) key(id string) string {
	return r.prefix + ":" + id
}

func (r *redisSubmissionSessionRepository) Save(ctx context.Context, s *models.SubmissionSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err()
}

func (r *redisSubmissionSessionRepository) Get(ctx context.Context, id string) (*models.SubmissionSession, error) {
	return decodeSession(r.client.Get(ctx, r.key(id)).Bytes())
}

func (r *redisSubmissionSessionRepository) Take(ctx context.Context, id string) (*models.SubmissionSession, error) {
	return decodeSession(r.client.GetDel(ctx, r.key(id)).Bytes())
}

func decodeSession(data []byte, err error) (*models.SubmissionSession, error) {
	if errors.Is(err, redis.Nil) {
		return nil, models.NotFound("submission session")
	}
	if err != nil {
		return nil, err
	}
	var s models.SubmissionSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type memorySession struct {
	data      []byte
	expiresAt time.Time
}

type memorySubmissionSessionRepository struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memorySession
}

func NewMemorySubmissionSessionRepository(ttl time.Duration) SubmissionSessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &memorySubmissionSessionRepository{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memorySession),
	}
}

func (r *memorySubmissionSessionRepository) Save(_ context.Context, s *models.SubmissionSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = memorySession{data: data, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *memorySubmissionSessionRepository) Get(_ context.Context, id string) (*models.SubmissionSession, error) {
	return r.load(id, false)
}

func (r *memorySubmissionSessionRepository) Take(_ context.Context, id string) (*models.SubmissionSession, error) {
	return r.load(id, true)
}

func (r *memorySubmissionSessionRepository) load(id string, remove bool) (*models.SubmissionSession, error) {
	r.mu.Lock()
	stored, ok := r.sessions[id]
	if ok && (remove || !r.now().Before(stored.expiresAt)) {
		delete(r.sessions, id)
		ok = ok && r.now().Before(stored.expiresAt)
	}
	r.mu.Unlock()
	if !ok {
		return nil, models.NotFound("submission session")
	}
	return decodeSession(stored.data, nil)
}
