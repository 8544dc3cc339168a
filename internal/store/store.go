package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const (
	dispatchesFile  = "dispatches.json"
	screenshotsFile = "screenshots.json"
	logcatFile      = "logcat_sessions.json"
)

// Store persists command history and logcat captures as JSON files.
type Store struct {
	root string
	mu   sync.Mutex
}

// New creates a Store rooted at the given directory (typically
// ~/.local/state/adbdeck).
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the directory the store writes under.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) historyDir() string {
	return filepath.Join(s.root, "history")
}

func (s *Store) logsDir() string {
	return filepath.Join(s.root, "logs")
}

// AddDispatch appends a dispatch record.
func (s *Store) AddDispatch(r DispatchRecord) error {
	return s.appendRecord(dispatchesFile, r)
}

// AddScreenshot appends a screenshot record.
func (s *Store) AddScreenshot(r ScreenshotRecord) error {
	return s.appendRecord(screenshotsFile, r)
}

// AddLogcatSession appends a logcat session record.
func (s *Store) AddLogcatSession(r LogcatSession) error {
	return s.appendRecord(logcatFile, r)
}

// Dispatches returns all dispatch records, oldest first.
func (s *Store) Dispatches() ([]DispatchRecord, error) {
	var records []DispatchRecord
	err := s.loadRecords(dispatchesFile, &records)
	return records, err
}

// Screenshots returns all screenshot records.
func (s *Store) Screenshots() ([]ScreenshotRecord, error) {
	var records []ScreenshotRecord
	err := s.loadRecords(screenshotsFile, &records)
	return records, err
}

// LogcatSessions returns all logcat session records.
func (s *Store) LogcatSessions() ([]LogcatSession, error) {
	var records []LogcatSession
	err := s.loadRecords(logcatFile, &records)
	return records, err
}

// Clear removes every history file. Captured logcat files are kept.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(os.RemoveAll(s.historyDir()), "clear history")
}

// LogsDir returns the path to the logs directory, creating it if needed.
func (s *Store) LogsDir() (string, error) {
	dir := s.logsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create logs dir")
	}
	return dir, nil
}

func (s *Store) appendRecord(filename string, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.historyDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create history dir")
	}

	path := filepath.Join(dir, filename)

	// A corrupt file is started over rather than blocking new records.
	var records []json.RawMessage
	if data, err := os.ReadFile(path); err == nil {
		json.Unmarshal(data, &records)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	records = append(records, raw)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal history")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", filename)
}

func (s *Store) loadRecords(filename string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.historyDir(), filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "read %s", filename)
	}
	return errors.Wrapf(json.Unmarshal(data, dest), "decode %s", filename)
}
