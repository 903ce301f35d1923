package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// File keeps settings in a JSON file. Every write rewrites the whole file
// through a temp file and rename.
type File struct {
	mu   sync.Mutex
	path string
	s    Settings
}

// OpenFile loads path, creating it with defaults on first boot.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, s: Defaults()}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("store: first boot, writing defaults to %s", path)
		if err := f.save(f.s); err != nil {
			return nil, err
		}
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	f.s = s.sanitize()
	log.Printf("store: loaded channel=%d name=%q paired=%v", f.s.Channel, f.s.DeviceName, f.s.Paired)
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

func (f *File) Channel() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s.Channel
}

func (f *File) SetChannel(ch int) error {
	if !validChannel(ch) {
		return ErrInvalidChannel
	}
	return f.update(func(s *Settings) { s.Channel = ch })
}

func (f *File) DeviceName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s.DeviceName
}

func (f *File) SetDeviceName(name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	return f.update(func(s *Settings) { s.DeviceName = name })
}

func (f *File) Paired() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s.Paired
}

func (f *File) SetPaired(paired bool) error {
	return f.update(func(s *Settings) { s.Paired = paired })
}

// Clear restores the factory settings.
func (f *File) Clear() error {
	return f.update(func(s *Settings) { *s = Defaults() })
}

// update applies fn and saves. The in-memory value changes even if the
// save fails.
func (f *File) update(fn func(*Settings)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.s)
	return f.save(f.s)
}

func (f *File) save(s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
