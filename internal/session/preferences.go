package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PreferencesFile is the file name used inside the data directory.
const PreferencesFile = "preferences.json"

// Preferences are per-installation UI settings kept in a small JSON file.
// An empty path keeps them in memory only.
type Preferences struct {
	mu   sync.Mutex
	path string
	data preferencesData
}

type preferencesData struct {
	DarkMode bool `json:"dark_mode"`
}

// LoadPreferences reads path if it exists.
func LoadPreferences(path string) (*Preferences, error) {
	p := &Preferences{path: path}
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if err := json.Unmarshal(b, &p.data); err != nil {
		return nil, fmt.Errorf("decode preferences %s: %w", path, err)
	}
	return p, nil
}

func (p *Preferences) DarkMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.DarkMode
}

// SetDarkMode updates the value and writes the file. The in-memory value
// changes even when the write fails.
func (p *Preferences) SetDarkMode(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.DarkMode = on
	return p.saveLocked()
}

func (p *Preferences) saveLocked() error {
	if p.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
