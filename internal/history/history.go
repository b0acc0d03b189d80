// Package history persists completed search results as JSON files so past
// answers can be listed and reviewed from the CLI.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/codedock/docksearch/internal/domain"
)

var (
	ErrRecordNotFound  = errors.New("search record not found")
	ErrInvalidRecordID = errors.New("invalid search record id")
	ErrRecordTooLarge  = errors.New("search record file too large")
)

const maxRecordFileSize = 10 * 1024 * 1024 // 10MB

var recordIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Record is one completed search.
type Record struct {
	ID                   string            `json:"id"`
	CodebaseName         string            `json:"codebase_name"`
	Query                string            `json:"query"`
	Answer               string            `json:"answer"`
	RelevantFiles        []string          `json:"relevant_files"`
	FileContents         map[string]string `json:"file_contents,omitempty"`
	ProjectStructure     json.RawMessage   `json:"project_structure,omitempty"`
	ExecutionTimeSeconds float64           `json:"execution_time_seconds"`
	CompletedAt          time.Time         `json:"completed_at"`
}

// NewRecord builds a Record from a session snapshot and its result.
func NewRecord(snap domain.SessionSnapshot, result domain.SearchResult) Record {
	return Record{
		ID:                   snap.ID,
		CodebaseName:         snap.CodebaseName,
		Query:                snap.Query,
		Answer:               result.Answer,
		RelevantFiles:        result.RelevantFiles,
		FileContents:         result.FileContents,
		ProjectStructure:     result.ProjectStructure,
		ExecutionTimeSeconds: result.ExecutionTimeSeconds,
		CompletedAt:          time.Now(),
	}
}

// Result reconstructs the domain result held by this record.
func (r Record) Result() domain.SearchResult {
	return domain.SearchResult{
		Answer:               r.Answer,
		RelevantFiles:        r.RelevantFiles,
		FileContents:         r.FileContents,
		ProjectStructure:     r.ProjectStructure,
		ExecutionTimeSeconds: r.ExecutionTimeSeconds,
	}
}

// Store is a JSON-file-backed history of completed searches.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

func validateRecordID(id string) error {
	if !recordIDRegex.MatchString(id) {
		return fmt.Errorf("%w: %s", ErrInvalidRecordID, id)
	}
	return nil
}

// NewStore creates (if needed) the history directory under baseDir.
func NewStore(baseDir string) (*Store, error) {
	dir := filepath.Join(baseDir, "searches")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	if info, err := os.Stat(dir); err == nil {
		if info.Mode().Perm()&0o077 != 0 {
			_ = os.Chmod(dir, 0o700)
		}
	}
	return &Store{baseDir: baseDir}, nil
}

// DefaultBaseDir is ~/.docksearch, falling back to a relative directory
// when the home directory cannot be resolved.
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docksearch"
	}
	return filepath.Join(home, ".docksearch")
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.baseDir, "searches", id+".json")
}

// Save writes the record atomically (temp file + rename).
func (s *Store) Save(record Record) error {
	if err := validateRecordID(record.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal search record: %w", err)
	}

	path := s.recordPath(record.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write search record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write search record: %w", err)
	}
	return nil
}

// Load reads one record by id.
func (s *Store) Load(id string) (Record, error) {
	if err := validateRecordID(id); err != nil {
		return Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.recordPath(id)
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return Record{}, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if info.Size() > maxRecordFileSize {
		return Record{}, fmt.Errorf("%w: %s (%d bytes)", ErrRecordTooLarge, id, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("failed to decode search record %s: %w", id, err)
	}
	return record, nil
}

// Delete removes one record by id.
func (s *Store) Delete(id string) error {
	if err := validateRecordID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.recordPath(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return err
}

// List returns all records, newest first. Unreadable files are skipped.
func (s *Store) List() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.baseDir, "searches")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id := name[:len(name)-len(".json")]
		if validateRecordID(id) != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})
	return records, nil
}
