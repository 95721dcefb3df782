// Package store keeps the journal's state in a small key/value store. It is
// the local, single-user equivalent of browser storage: one JSON document
// per logical record.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrNotFound = errors.New("store: key not found")

// KV is the raw byte store every backend implements.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Type      string // sqlite, redis or memory
	Path      string
	RedisAddr string
	RedisDB   int
	Prefix    string
}

func Open(opts Options) (KV, error) {
	switch opts.Type {
	case "", "sqlite":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite store needs a path")
		}
		return NewSQLite(opts.Path)
	case "redis":
		return NewRedis(opts.RedisAddr, opts.RedisDB, opts.Prefix)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", opts.Type)
	}
}

// Memory is an in-process KV used by tests and throwaway sessions.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }
