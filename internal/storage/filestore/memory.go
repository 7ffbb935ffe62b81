package filestore

import (
	"sync"

	"github.com/vadiminshakov/valutatrade/internal/domain"
)

// Memory is an in-process gateway used by tests and dry runs.
type Memory struct {
	mu       sync.Mutex
	records  map[domain.Kind][]byte
	failSave error
	saves    int
}

// NewMemory creates an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{records: make(map[domain.Kind][]byte)}
}

// Load returns a copy of the stored record.
func (m *Memory) Load(kind domain.Kind) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payload, ok := m.records[kind]
	if !ok || len(payload) == 0 {
		return nil, nil
	}
	return append([]byte(nil), payload...), nil
}

// Save stores a copy of payload.
func (m *Memory) Save(kind domain.Kind, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSave != nil {
		return m.failSave
	}
	m.records[kind] = append([]byte(nil), payload...)
	m.saves++
	return nil
}

// Delete drops a record.
func (m *Memory) Delete(kind domain.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, kind)
	return nil
}

// SetFailSave makes every Save return err until reset with nil.
func (m *Memory) SetFailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failSave = err
}

// Saves returns the number of successful saves.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saves
}
