// Package session keeps the admin console's credentials between commands.
//
// Two backends are involved.  The persistent one (a file or Redis) holds
// the session of an operator who asked to be remembered; the ephemeral one
// lives only as long as the process.  Reads look at the persistent backend
// first.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when nothing is stored under a key.
var ErrNoSession = errors.New("no session")

// Store is a small key/value backend.  Get returns ErrNoSession for a
// missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryStore is the ephemeral backend.
type MemoryStore struct {
	mu   sync.RWMutex
	vals map[string]string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{vals: map[string]string{}} }

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vals[key]
	if !ok {
		return "", ErrNoSession
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.vals, k)
	}
	return nil
}

// FileStore keeps every key in one JSON document, readable only by the
// owner.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore stores its document as session.json under dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, "session.json")}
}

func (s *FileStore) load() (map[string]string, error) {
	vals := map[string]string{}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return vals, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return vals, nil
	}
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, err
	}
	return vals, nil
}

func (s *FileStore) save(vals map[string]string) error {
	if len(vals) == 0 {
		err := os.Remove(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(vals, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vals, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := vals[key]
	if !ok {
		return "", ErrNoSession
	}
	return v, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vals, err := s.load()
	if err != nil {
		return err
	}
	vals[key] = value
	return s.save(vals)
}

func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vals, err := s.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(vals, k)
	}
	return s.save(vals)
}

// RedisStore keeps keys under Prefix.  A positive TTL expires every key
// that long after it was last written.
type RedisStore struct {
	RDB    *redis.Client
	Prefix string
	TTL    time.Duration
}

func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "hospital-admin:session"
	}
	return &RedisStore{RDB: rdb, Prefix: prefix, TTL: ttl}
}

func (s *RedisStore) key(k string) string { return s.Prefix + ":" + k }

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.RDB.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.RDB.Set(ctx, s.key(key), value, s.TTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return s.RDB.Del(ctx, full...).Err()
}
