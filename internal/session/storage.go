package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"ticketbooth/internal/model"
)

// State is the durable part of a session: what survives a restart.
// The role and user here are hints; the identity endpoint is ground truth.
type State struct {
	Token string     `json:"access_token"`
	Role  model.Role `json:"role"`
	User  model.User `json:"user"`
}

// Storage persists session state between runs.
type Storage interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// FileStorage keeps the session as a JSON file under the user config dir.
type FileStorage struct {
	path string
}

// ConfigDir returns the per-user config directory for the app,
// honoring XDG_CONFIG_HOME.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "ticketbooth")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ticketbooth")
}

// NewFileStorage stores the session at dir/session.json. An empty dir means
// the default config dir.
func NewFileStorage(dir string) *FileStorage {
	if dir == "" {
		dir = ConfigDir()
	}
	return &FileStorage{path: filepath.Join(dir, "session.json")}
}

// Load reads the persisted state. A missing file yields an empty State.
func (f *FileStorage) Load() (State, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{Role: model.RoleGuest}, nil
	}
	if err != nil {
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Save writes the state with owner-only permissions.
func (f *FileStorage) Save(st State) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, b, 0o600)
}

// Clear removes the persisted state. Absence is not an error.
func (f *FileStorage) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
