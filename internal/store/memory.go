package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nconklindev/leadbook/internal/types"
)

// StorageKey is the key the collection is kept under.
const StorageKey = "work_pipeline_leads"

// MemoryStore is the key-value fallback: the collection is serialized to
// JSON and kept in an in-process map.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Location() string { return "memory:" + StorageKey }

func (s *MemoryStore) Load() ([]types.Lead, error) {
	s.mu.Lock()
	raw, ok := s.data[StorageKey]
	s.mu.Unlock()
	if !ok {
		return []types.Lead{}, nil
	}

	var leads []types.Lead
	if err := json.Unmarshal(raw, &leads); err != nil {
		return nil, fmt.Errorf("decoding stored leads: %w", err)
	}
	if leads == nil {
		leads = []types.Lead{}
	}
	return leads, nil
}

func (s *MemoryStore) Save(leads []types.Lead) (*SaveResult, error) {
	raw, err := json.Marshal(leads)
	if err != nil {
		return nil, fmt.Errorf("encoding leads: %w", err)
	}
	s.mu.Lock()
	s.data[StorageKey] = raw
	s.mu.Unlock()
	return &SaveResult{Path: s.Location()}, nil
}
