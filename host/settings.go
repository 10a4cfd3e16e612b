package host

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// FileSettings is a Settings implementation backed by a single JSON file,
// for standalone deployments where no assistant runtime manages settings.
// Values are normalized to strings on load, so a hand-edited file may use
// bare numbers and booleans.
type FileSettings struct {
	path string

	mu   sync.Mutex
	vals map[string]string
}

// OpenSettings loads the settings file at path. A missing file is not an
// error; it yields empty settings that are created on the first write.
func OpenSettings(path string) (*FileSettings, error) {
	s := &FileSettings{path: path, vals: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var parsed map[string]any
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	for k, v := range parsed {
		s.vals[k] = settingString(v)
	}
	return s, nil
}

// settingString renders a decoded JSON value as the flat string form the
// Settings contract exposes. json.Number keeps the exact source digits.
func settingString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// Get returns the value for key and whether it was present.
func (s *FileSettings) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vals[key]
	return v, ok
}

// Set stores a single value and persists the file.
func (s *FileSettings) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[key] = value
	return s.save()
}

// Merge folds defaults into the settings. With newOnly, existing keys keep
// their values. The file is rewritten only when something changed.
func (s *FileSettings) Merge(defaults map[string]string, newOnly bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for k, v := range defaults {
		if newOnly {
			if _, exists := s.vals[k]; exists {
				continue
			}
		}
		if cur, exists := s.vals[k]; !exists || cur != v {
			s.vals[k] = v
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save()
}

// save writes the current values, creating the parent directory on the
// first run. Callers must hold s.mu.
func (s *FileSettings) save() error {
	data, err := json.MarshalIndent(s.vals, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
