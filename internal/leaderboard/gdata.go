package leaderboard

import (
	"fmt"
	"log"
	"sync"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

const (
	gdataObject   = "leaderboard"
	gdataProperty = "entries"
)

// GdataStore keeps the leaderboard in the per-user application data directory.
//
// A nil manager runs in memory only, so the game still works where no data
// directory is available.
type GdataStore struct {
	manager *gdata.Manager

	mu      sync.Mutex
	entries []Entry
}

// NewGdataStore wraps manager, which may be nil.
func NewGdataStore(manager *gdata.Manager) *GdataStore {
	return &GdataStore{manager: manager}
}

// OpenGdataStore opens the data directory for appName.
func OpenGdataStore(appName string) (*GdataStore, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open app data %q: %w", appName, err)
	}
	return NewGdataStore(m), nil
}

// Load returns the stored entries, highest first.
func (s *GdataStore) Load() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	return Top(entries, len(entries)), nil
}

func (s *GdataStore) loadLocked() ([]Entry, error) {
	if s.manager == nil {
		return s.entries, nil
	}
	if !s.manager.ObjectPropExists(gdataObject, gdataProperty) {
		return nil, nil
	}
	data, err := s.manager.LoadObjectProp(gdataObject, gdataProperty)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal leaderboard: %w", err)
	}
	Sort(entries)
	return entries, nil
}

// Submit adds an entry and persists the whole board.
func (s *GdataStore) Submit(name string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadLocked()
	if err != nil {
		return err
	}
	entries, err = insert(entries, name, score)
	if err != nil {
		return err
	}

	if s.manager == nil {
		s.entries = entries
		return nil
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}
	if err := s.manager.SaveObjectProp(gdataObject, gdataProperty, data); err != nil {
		return fmt.Errorf("save leaderboard: %w", err)
	}
	log.Printf("[LEADERBOARD] Saved %s with score %d to app data", name, score)
	return nil
}
