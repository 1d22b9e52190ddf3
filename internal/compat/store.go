package compat

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore persists profiles as a YAML document on disk. Reads are
// served from memory; every update rewrites the file so validation
// results survive restarts.
type FileStore struct {
	path string

	mu       sync.RWMutex
	profiles map[string]Profile
}

var _ Store = (*FileStore)(nil)

// fileDoc is the on-disk shape.
type fileDoc struct {
	Profiles []Profile `yaml:"profiles"`
}

// OpenFileStore loads the profile cache at path, creating it from the
// built-in seed table if it does not exist.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		profiles: make(map[string]Profile),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		for _, p := range Seed() {
			s.profiles[p.ApplicationID] = p
		}
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("compat: reading profile cache: %w", err)
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("compat: parsing profile cache: %w", err)
	}
	for _, p := range doc.Profiles {
		if p.ApplicationID == "" {
			continue
		}
		s.profiles[p.ApplicationID] = p
	}
	return s, nil
}

// Get returns the profile for an application ID, if present.
func (s *FileStore) Get(applicationID string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[applicationID]
	return p, ok
}

// Update inserts or replaces a profile and rewrites the cache file.
func (s *FileStore) Update(p Profile) error {
	if p.ApplicationID == "" {
		return fmt.Errorf("compat: profile application_id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ApplicationID] = p
	return s.flushLocked()
}

// All returns every stored profile sorted by application ID.
func (s *FileStore) All() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ApplicationID < out[j].ApplicationID
	})
	return out
}

// flushLocked writes the cache file. Callers must hold s.mu.
func (s *FileStore) flushLocked() error {
	doc := fileDoc{Profiles: make([]Profile, 0, len(s.profiles))}
	for _, p := range s.profiles {
		doc.Profiles = append(doc.Profiles, p)
	}
	sort.Slice(doc.Profiles, func(i, j int) bool {
		return doc.Profiles[i].ApplicationID < doc.Profiles[j].ApplicationID
	})

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("compat: marshaling profile cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("compat: creating cache dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("compat: writing profile cache: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory Store for tests and one-shot runs.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

// Get returns the profile for an application ID, if present.
func (s *MemoryStore) Get(applicationID string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[applicationID]
	return p, ok
}

// Update inserts or replaces a profile.
func (s *MemoryStore) Update(p Profile) error {
	if p.ApplicationID == "" {
		return fmt.Errorf("compat: profile application_id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ApplicationID] = p
	return nil
}

// All returns every stored profile sorted by application ID.
func (s *MemoryStore) All() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ApplicationID < out[j].ApplicationID
	})
	return out
}
