package tools

import (
	"io/fs"
	"sync"
)

// MockDataProvider is an in-memory DataProvider for tests.
type MockDataProvider struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMockDataProvider returns an empty provider.
func NewMockDataProvider() *MockDataProvider {
	return &MockDataProvider{files: make(map[string][]byte)}
}

// AddFile stores content under name, replacing any previous content.
func (m *MockDataProvider) AddFile(name string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = content
}

// ReadFile returns fs.ErrNotExist for unknown names.
func (m *MockDataProvider) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return content, nil
}

// SetDefaultDataProvider replaces the provider used to load datasets.
func SetDefaultDataProvider(provider DataProvider) {
	defaultDataProvider = provider
}

// ResetDefaultDataProvider restores the embedded provider.
func ResetDefaultDataProvider() {
	defaultDataProvider = NewEmbeddedDataProvider()
}
