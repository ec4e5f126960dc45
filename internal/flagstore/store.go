package flagstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/danmuck/bootctl/internal/observability"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidKey       = errors.New("flagstore: invalid key")
	ErrWriteUnavailable = errors.New("flagstore: write unavailable")
)

const (
	// KeyConsentAccepted records that the user accepted the consent gate.
	KeyConsentAccepted = "consent-accepted"
	// KeyCutsceneSeen records that the intro cutscene gate has fired.
	KeyCutsceneSeen = "cutscene-seen"
)

// Store is the durable key->bool contract consumed by gates.
// Absent keys read as false. Set is synchronous and idempotent.
type Store interface {
	Get(key string) bool
	Set(key string, value bool) error
	Reset(key string) error
	Snapshot() map[string]bool
}

// fileState is the on-disk shape of the state file.
type fileState struct {
	Flags map[string]bool `toml:"flags"`
}

// FileStore persists flags in a small typed TOML state file.
// All writes funnel through one mutex-guarded temp-file+rename path.
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]bool
}

// Open loads the state file at path, creating parent directories as
// needed. A missing file is an empty store, not an error.
func Open(path string) (*FileStore, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		return nil, fmt.Errorf("flagstore: state file path required")
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("flagstore: prepare state dir: %w", err)
	}

	store := &FileStore{path: resolved, values: make(map[string]bool)}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("flagstore: read state file (%s): %w", resolved, err)
	}

	var state fileState
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("flagstore: parse state file (%s): %w", resolved, err)
	}
	for k, v := range state.Flags {
		store.values[k] = v
	}
	return store, nil
}

// Get returns the stored value for key, defaulting absent keys to false.
func (s *FileStore) Get(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[strings.TrimSpace(key)]
}

// Set writes key=value through to disk. Re-setting the current value is
// an observable no-op. A failed disk write still updates the in-memory
// value for this session and returns the error to the caller.
func (s *FileStore) Set(key string, value bool) error {
	k := strings.TrimSpace(key)
	if k == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.values[k]; ok && current == value {
		return nil
	}
	if !value {
		if _, ok := s.values[k]; !ok {
			return nil
		}
	}
	s.values[k] = value

	if err := s.persistLocked(); err != nil {
		observability.RecordFlagWrite(k, false)
		log.Warn().Str("key", k).Bool("value", value).Err(err).Msg("flagstore_write_failed")
		return err
	}
	observability.RecordFlagWrite(k, true)
	return nil
}

// Reset returns key to its default (absent, reads false).
func (s *FileStore) Reset(key string) error {
	k := strings.TrimSpace(key)
	if k == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[k]; !ok {
		return nil
	}
	delete(s.values, k)

	if err := s.persistLocked(); err != nil {
		observability.RecordFlagWrite(k, false)
		log.Warn().Str("key", k).Err(err).Msg("flagstore_reset_failed")
		return err
	}
	observability.RecordFlagWrite(k, true)
	return nil
}

// Snapshot returns a defensive copy of all stored flags.
func (s *FileStore) Snapshot() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// persistLocked serializes state to a temp file and renames it into
// place so a crash mid-write cannot corrupt the previous state.
func (s *FileStore) persistLocked() error {
	state := fileState{Flags: make(map[string]bool, len(s.values))}
	for k, v := range s.values {
		state.Flags[k] = v
	}
	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("flagstore: encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("flagstore: write state file (%s): %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("flagstore: replace state file (%s): %w", s.path, err)
	}
	return nil
}
