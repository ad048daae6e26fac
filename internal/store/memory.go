package store

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded documents in a map. Used in development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, userID string) (*Document, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.docs[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeDocument(data)
}

func (s *MemoryStore) Save(ctx context.Context, userID string, doc *Document) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[userID] = data
	return nil
}

func (s *MemoryStore) Close() error { return nil }
