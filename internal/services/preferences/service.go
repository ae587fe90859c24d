// Package preferences persists operator settings to a JSON file and
// watches it for external edits.
//
// Reads and writes are best-effort: a missing or corrupt file yields
// defaults, and a failed write leaves the in-memory value in place.
package preferences

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/filerepo-console/internal/logger"
)

// Preferences are the operator-editable settings.
type Preferences struct {
	BaseURL         string `json:"baseUrl,omitempty"`
	APIKey          string `json:"apiKey,omitempty"`
	AdminKey        string `json:"adminKey,omitempty"`
	DownloadDir     string `json:"downloadDir,omitempty"`
	Version         int    `json:"version,omitempty"`
	AutoIdempotency bool   `json:"autoIdempotency"`
}

// Defaults returns the preferences used when nothing is stored.
func Defaults() Preferences {
	return Preferences{AutoIdempotency: true, Version: 1}
}

// EventType defines the type of preferences event.
type EventType int

const (
	// EventChanged fires after any effective change, local or external.
	EventChanged EventType = iota
	// EventError reports a watcher failure.
	EventError
)

// Event represents a preferences service event.
type Event struct {
	Error    error
	Prefs    Preferences
	Type     EventType
	External bool
}

// Service holds the current preferences and keeps them in sync with disk.
type Service struct {
	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer
	eventChan     chan Event
	stopChan      chan struct{}
	filePath      string
	prefs         Preferences
	mu            sync.RWMutex
	closeOnce     sync.Once
}

// New loads preferences from filePath, falling back to defaults.
func New(filePath string) *Service {
	s := &Service{
		filePath:  filePath,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}
	s.prefs = load(filePath)
	return s
}

// Events returns the event channel for subscribing to changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the backing file path.
func (s *Service) Path() string {
	return s.filePath
}

// Get returns the current preferences.
func (s *Service) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Update applies fn to a copy of the current preferences, stores the result
// and persists it. Persistence failures are logged and otherwise ignored.
func (s *Service) Update(fn func(*Preferences)) Preferences {
	s.mu.Lock()
	next := s.prefs
	fn(&next)
	changed := next != s.prefs
	s.prefs = next
	s.mu.Unlock()

	if !changed {
		return next
	}

	if err := save(s.filePath, next); err != nil {
		logger.Debug("preferences not persisted", "path", s.filePath, "error", err)
	}
	s.sendEvent(Event{Type: EventChanged, Prefs: next})
	return next
}

// load reads the preferences file. Any failure yields defaults.
func load(path string) Preferences {
	prefs := Defaults()
	if path == "" {
		return prefs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("preferences unreadable, using defaults", "path", path, "error", err)
		}
		return prefs
	}

	if err := json.Unmarshal(data, &prefs); err != nil {
		logger.Debug("preferences corrupt, using defaults", "path", path, "error", err)
		return Defaults()
	}
	return prefs
}

// save writes prefs atomically through a temp file.
func save(path string, prefs Preferences) error {
	if path == "" {
		return fmt.Errorf("no preferences path configured")
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	// Write to temp file first, then rename
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Watch starts watching the preferences directory for external edits.
func (s *Service) Watch() error {
	if s.filePath == "" {
		return fmt.Errorf("no preferences path configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory to catch atomic replace via rename
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(watcher)
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop(watcher *fsnotify.Watcher) {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads preferences after an external change. Our own
// writes round-trip to an identical value and are ignored.
func (s *Service) handleFileChange() {
	select {
	case <-s.stopChan:
		return
	default:
	}

	next := load(s.filePath)

	s.mu.Lock()
	if next == s.prefs {
		s.mu.Unlock()
		return
	}
	s.prefs = next
	s.mu.Unlock()

	logger.Info("preferences reloaded from disk", "path", s.filePath)
	s.sendEvent(Event{Type: EventChanged, Prefs: next, External: true})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		watcher := s.watcher
		s.mu.Unlock()

		if watcher != nil {
			err = watcher.Close()
		}
	})
	return err
}
