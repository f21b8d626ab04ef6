package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rampkit/ramp/pkg/domain"
)

// Store implements ports.StateStore and ports.FragmentStore using the local
// filesystem. Sessions are stored as JSON files in a configured directory;
// fragments live in a sibling file per session.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".ramp/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".ramp", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) statePath(sessionID string) string {
	return filepath.Join(s.BasePath, sessionID+".json")
}

func (s *Store) fragmentPath(sessionID string) string {
	return filepath.Join(s.BasePath, sessionID+".fragments.json")
}

// writeAtomic writes data to path via a temp file, fsync and rename, so a
// crash mid-write never leaves a partial file behind.
func (s *Store) writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists. Remove first; the tiny
	// delete/rename window is acceptable compared to a partial file.
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Save persists the session state to a JSON file atomically.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.State) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return s.writeAtomic(s.statePath(sessionID), data)
}

// Load retrieves the session state from a JSON file.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	data, err := os.ReadFile(s.statePath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}

// Delete removes the session file and its fragments.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	if err := os.Remove(s.statePath(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns all active session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id := name[:len(name)-len(".json")]
		if filepath.Ext(id) == ".fragments" {
			continue
		}
		sessions = append(sessions, id)
	}
	return sessions, nil
}

func (s *Store) readFragments(sessionID string) (map[string]string, error) {
	data, err := os.ReadFile(s.fragmentPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read fragment file: %w", err)
	}

	frags := make(map[string]string)
	if err := json.Unmarshal(data, &frags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fragments: %w", err)
	}
	return frags, nil
}

// SaveFragment stores a durable fragment value.
func (s *Store) SaveFragment(ctx context.Context, sessionID, key, value string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	frags, err := s.readFragments(sessionID)
	if err != nil {
		return err
	}
	frags[key] = value

	data, err := json.MarshalIndent(frags, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal fragments: %w", err)
	}
	return s.writeAtomic(s.fragmentPath(sessionID), data)
}

// LoadFragment retrieves a durable fragment value.
func (s *Store) LoadFragment(ctx context.Context, sessionID, key string) (string, error) {
	frags, err := s.readFragments(sessionID)
	if err != nil {
		return "", err
	}

	val, ok := frags[key]
	if !ok {
		return "", domain.ErrFragmentNotFound
	}
	return val, nil
}

// DeleteFragments removes all fragments for a session.
func (s *Store) DeleteFragments(ctx context.Context, sessionID string) error {
	if err := os.Remove(s.fragmentPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete fragment file: %w", err)
	}
	return nil
}
