// Package storage предоставляет долговременное key/value хранилище строк.
package storage

import (
	"errors"
	"sync"
)

// ErrClosed возвращается при обращении к закрытому хранилищу.
var ErrClosed = errors.New("storage: closed")

// Store - текстовое key/value хранилище.
type Store interface {
	// Get возвращает значение и признак его наличия.
	Get(key string) (string, bool, error)
	// Set записывает значение, заменяя предыдущее.
	Set(key, value string) error
}

// Memory хранит значения в памяти процесса.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory создаёт пустое хранилище в памяти.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
