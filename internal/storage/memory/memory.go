// Package memory is an in-process state store with the same surface as the
// SQLite repository. It backs tests and the ephemeral backend mode.
package memory

import (
	"context"
	"sync"
)

type Store struct {
	mu     sync.Mutex
	state  string
	values map[string]string
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) LoadState(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *Store) SaveState(_ context.Context, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = payload
	return nil
}

func (s *Store) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *Store) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *Store) Close() error { return nil }
