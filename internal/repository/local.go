package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rpattn/rulesync/internal/domain"
)

// LocalFingerprintStore keeps fingerprints in plain files under a root
// directory, for development runs without real object storage. Keys may
// contain slashes; they become subdirectories.
type LocalFingerprintStore struct {
	mu  sync.Mutex
	dir string
}

// NewLocalFingerprintStore creates a store rooted at dir.
func NewLocalFingerprintStore(dir string) *LocalFingerprintStore {
	return &LocalFingerprintStore{dir: dir}
}

func (s *LocalFingerprintStore) path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

// Get returns the fingerprint stored under key.
func (s *LocalFingerprintStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(key)
}

func (s *LocalFingerprintStore) read(key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read fingerprint file: %w", err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Put stores value unconditionally.
func (s *LocalFingerprintStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(key, value)
}

func (s *LocalFingerprintStore) write(key, value string) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create fingerprint directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write fingerprint file: %w", err)
	}
	return nil
}

// CompareAndPut stores value only while the stored value still equals
// previous (empty previous means "expect absent"). The mutex makes the
// read-compare-write atomic within this process; the local backend
// assumes a single writer.
func (s *LocalFingerprintStore) CompareAndPut(ctx context.Context, key, previous, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, found, err := s.read(key)
	if err != nil {
		return false, err
	}
	if found != (previous != "") || (found && current != previous) {
		return false, nil
	}
	if err := s.write(key, value); err != nil {
		return false, err
	}
	return true, nil
}

// LocalRuleStore writes the published record set as pretty-printed JSON
// to one file, mirroring what the object-store backend publishes.
type LocalRuleStore struct {
	path string
}

// NewLocalRuleStore creates a rule store writing to path.
func NewLocalRuleStore(path string) *LocalRuleStore {
	return &LocalRuleStore{path: path}
}

// Replace overwrites the published file with records.
func (s *LocalRuleStore) Replace(ctx context.Context, records []domain.RuleRecord) error {
	if records == nil {
		records = []domain.RuleRecord{}
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	return nil
}
