package preset

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory preset store for development and testing, and
// the default backend when the server runs without MongoDB.
type MemoryStore struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewMemoryStore creates an in-memory store seeded with the built-in
// landmarks.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{presets: make(map[string]Preset)}
	for _, p := range builtins {
		s.presets[p.Name] = p
	}
	return s
}

// Get retrieves a preset by name. Returns nil, nil if it doesn't exist.
func (s *MemoryStore) Get(ctx context.Context, name string) (*Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presets[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Set stores a preset, replacing any existing preset with the same name.
func (s *MemoryStore) Set(ctx context.Context, p *Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets[p.Name] = *p
	return nil
}

// Delete removes a preset.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.presets, name)
	return nil
}

// List returns all stored presets sorted by name.
func (s *MemoryStore) List(ctx context.Context) ([]Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Preset, 0, len(s.presets))
	for _, p := range s.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
