// Package jobs tracks the status of asynchronous render requests.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TTL is how long a finished or pending job stays queryable in redis.
const TTL = 24 * time.Hour

var ErrNotFound = errors.New("job not found")

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Done reports whether the job reached a final state.
func (s Status) Done() bool {
	return s == StatusSucceeded || s == StatusFailed
}

type Job struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	InputURL  string    `json:"inputUrl"`
	VideoURL  string    `json:"videoUrl,omitempty"`
	QRURL     string    `json:"qrUrl,omitempty"`
	Error     string    `json:"error,omitempty"`
	Duration  int64     `json:"duration,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New returns a queued job for inputURL.
func New(inputURL string) *Job {
	now := time.Now()
	return &Job{ID: uuid.NewString(), Status: StatusQueued, InputURL: inputURL, CreatedAt: now, UpdatedAt: now}
}

func (j *Job) redisKey() string {
	return "job:" + j.ID
}

type Store interface {
	Put(ctx context.Context, j *Job) error
	Get(ctx context.Context, id string) (*Job, error)
}

// MemoryStore keeps jobs for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (m *MemoryStore) Put(ctx context.Context, j *Job) error {
	j.UpdatedAt = time.Now()
	m.mu.Lock()
	m.jobs[j.ID] = *j
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	m.mu.RLock()
	j, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}

// RedisStore keeps jobs as JSON values that expire after TTL.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

// OpenRedis connects to a redis:// URL and checks the connection.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return NewRedisStore(client), nil
}

func (s *RedisStore) Put(ctx context.Context, j *Job) error {
	j.UpdatedAt = time.Now()
	data, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, j.redisKey(), data, TTL).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.redis.Get(ctx, "job:"+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *RedisStore) Close() error {
	return s.redis.Close()
}
