// Package prefs persists the user flags that steer the render job registry.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/ncobase/rendercore/jobs"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Preference keys as they appear in the file
const (
	KeyRenderSequentially = "render_jobs_sequentially"
	KeyOpenPanelOnAdd     = "open_jobs_panel_on_add"
)

var ErrUnknownKey = errors.New("unknown preference")

// Prefs is a copy of the stored flags
type Prefs struct {
	RenderJobsSequentially bool `mapstructure:"render_jobs_sequentially" yaml:"render_jobs_sequentially" json:"render_jobs_sequentially"`
	OpenJobsPanelOnAdd     bool `mapstructure:"open_jobs_panel_on_add" yaml:"open_jobs_panel_on_add" json:"open_jobs_panel_on_add"`
}

// Store reads and writes preferences in a YAML file
type Store struct {
	mu        sync.RWMutex
	v         *viper.Viper
	path      string
	current   Prefs
	listeners []func(Prefs)
	watching  bool
}

var _ jobs.Preferences = (*Store)(nil)

// Keys returns every known preference key
func Keys() []string {
	keys := []string{KeyRenderSequentially, KeyOpenPanelOnAdd}
	sort.Strings(keys)
	return keys
}

// Open loads preferences from path. A missing file is created with defaults.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("preferences path is empty")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault(KeyRenderSequentially, false)
	v.SetDefault(KeyOpenPanelOnAdd, false)

	s := &Store{v: v, path: path}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read preferences: %w", err)
		}
		if err := s.save(Prefs{}); err != nil {
			return nil, err
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read preferences: %w", err)
		}
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file
func (s *Store) Path() string { return s.path }

// RenderSequentially implements jobs.Preferences
func (s *Store) RenderSequentially() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.RenderJobsSequentially
}

// OpenPanelOnAdd implements jobs.Preferences
func (s *Store) OpenPanelOnAdd() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.OpenJobsPanelOnAdd
}

// Get returns the current flags
func (s *Store) Get() Prefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Lookup returns the value stored under key
func (s *Store) Lookup(key string) (bool, error) {
	p := s.Get()
	switch key {
	case KeyRenderSequentially:
		return p.RenderJobsSequentially, nil
	case KeyOpenPanelOnAdd:
		return p.OpenJobsPanelOnAdd, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set stores value under key and writes the file
func (s *Store) Set(key string, value bool) error {
	_, err := s.update(key, func(bool) bool { return value })
	return err
}

// Toggle flips key and returns the new value
func (s *Store) Toggle(key string) (bool, error) {
	return s.update(key, func(cur bool) bool { return !cur })
}

// update applies fn to the flag under key and writes the file, all under
// one lock so concurrent toggles never lose a flip
func (s *Store) update(key string, fn func(cur bool) bool) (bool, error) {
	s.mu.Lock()
	next := s.current
	var flag *bool
	switch key {
	case KeyRenderSequentially:
		flag = &next.RenderJobsSequentially
	case KeyOpenPanelOnAdd:
		flag = &next.OpenJobsPanelOnAdd
	default:
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	*flag = fn(*flag)
	value := *flag

	err := s.save(next)
	if err == nil {
		err = s.v.ReadInConfig()
	}
	if err == nil {
		err = s.loadLocked()
	}
	p, listeners := s.current, s.listeners
	s.mu.Unlock()

	if err != nil {
		return false, err
	}
	notify(listeners, p)
	return value, nil
}

// ToggleRenderSequentially flips the sequential rendering flag
func (s *Store) ToggleRenderSequentially() (bool, error) { return s.Toggle(KeyRenderSequentially) }

// ToggleOpenPanelOnAdd flips the open panel on add flag
func (s *Store) ToggleOpenPanelOnAdd() (bool, error) { return s.Toggle(KeyOpenPanelOnAdd) }

// OnChange registers fn to run after the flags change, from Set or from an
// edit of the file while watching.
func (s *Store) OnChange(fn func(Prefs)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Watch reloads the flags whenever the file changes on disk
func (s *Store) Watch() {
	s.mu.Lock()
	if s.watching {
		s.mu.Unlock()
		return
	}
	s.watching = true
	s.v.OnConfigChange(func(fsnotify.Event) {
		s.mu.Lock()
		err := s.v.ReadInConfig()
		if err == nil {
			err = s.loadLocked()
		}
		p, listeners := s.current, s.listeners
		s.mu.Unlock()

		if err == nil {
			notify(listeners, p)
		}
	})
	s.mu.Unlock()

	s.v.WatchConfig()
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	var p Prefs
	if err := s.v.Unmarshal(&p); err != nil {
		return fmt.Errorf("failed to decode preferences: %w", err)
	}
	s.current = p
	return nil
}

func (s *Store) save(p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

func notify(listeners []func(Prefs), p Prefs) {
	for _, fn := range listeners {
		fn(p)
	}
}
