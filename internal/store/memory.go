package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
)

// MemoryStore is a Backend that keeps the serialised document in memory.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return fmt.Errorf("%w: memory store is empty", common.ErrorNotFound)
	}
	if err := json.Unmarshal(m.data, v); err != nil {
		return parseErr(err)
	}
	return nil
}

func (m *MemoryStore) Save(ctx context.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return parseErr(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.saves++
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data != nil, nil
}

// Bytes returns a copy of the stored JSON, nil when nothing was saved.
func (m *MemoryStore) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil
	}
	return append([]byte(nil), m.data...)
}

// SetBytes replaces the stored JSON verbatim.
func (m *MemoryStore) SetBytes(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), b...)
}

// Saves reports how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
