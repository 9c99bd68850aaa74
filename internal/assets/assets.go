// Package assets layers several GRF archives into one lookup space.
package assets

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/Faultbox/modelbake/pkg/grf"
)

// Manager resolves paths across GRF archives. Archives are searched in
// reverse order (last added = highest priority), the way the client
// patches data.grf with later archives.
type Manager struct {
	archives []*grf.Archive
	mu       sync.RWMutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Open creates a manager over the archives at paths, in priority order.
func Open(paths ...string) (*Manager, error) {
	m := NewManager()
	for _, p := range paths {
		if err := m.AddArchive(p); err != nil {
			return nil, multierr.Append(err, m.Close())
		}
	}
	return m, nil
}

// AddArchive opens a GRF archive and gives it the highest priority.
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}
	m.Add(archive)
	return nil
}

// Add registers an already opened archive with the highest priority.
func (m *Manager) Add(archive *grf.Archive) {
	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.mu.Unlock()
}

// Len returns the number of archives.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.archives)
}

// Read returns name from the highest-priority archive that has it.
func (m *Manager) Read(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.archives) - 1; i >= 0; i-- {
		if m.archives[i].Contains(name) {
			return m.archives[i].Read(name)
		}
	}
	return nil, fmt.Errorf("%w: %s", grf.ErrNotFound, name)
}

// Glob returns the sorted, deduplicated paths matching pattern in any archive.
func (m *Manager) Glob(pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var result []string
	for _, archive := range m.archives {
		matches, err := archive.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, p := range matches {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}
	sort.Strings(result)
	return result, nil
}

// Close closes all archives.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	for _, archive := range m.archives {
		err = multierr.Append(err, archive.Close())
	}
	m.archives = nil
	return err
}
