package cart

import (
	"context"
	"sync"
)

// memoryStore is an in-process SessionStore for local development and tests.
type memoryStore struct {
	mu        sync.Mutex
	carts     map[string]string
	customers map[string]string
	flashes   map[string]string
}

// NewMemoryStore creates a SessionStore that keeps everything in memory.
func NewMemoryStore() SessionStore {
	return &memoryStore{
		carts:     map[string]string{},
		customers: map[string]string{},
		flashes:   map[string]string{},
	}
}

func (s *memoryStore) CartNumber(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[sessionID], nil
}

func (s *memoryStore) BindCartNumber(_ context.Context, sessionID, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = number
	return nil
}

func (s *memoryStore) ForgetCartNumber(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

func (s *memoryStore) CustomerRef(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers[sessionID], nil
}

func (s *memoryStore) BindCustomerRef(_ context.Context, sessionID, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[sessionID] = ref
	return nil
}

func (s *memoryStore) ForgetCustomerRef(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.customers, sessionID)
	return nil
}

func (s *memoryStore) SetFlash(_ context.Context, sessionID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes[sessionID] = message
	return nil
}

func (s *memoryStore) Flash(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flashes[sessionID]
	delete(s.flashes, sessionID)
	return msg, nil
}
