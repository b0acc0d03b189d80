package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codedock/docksearch/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func testRecord(id string) Record {
	return Record{
		ID:                   id,
		CodebaseName:         "repo1",
		Query:                "how does auth work",
		Answer:               "It uses JWT middleware.",
		RelevantFiles:        []string{"auth.py"},
		FileContents:         map[string]string{"auth.py": "def login(): ..."},
		ExecutionTimeSeconds: 2.5,
		CompletedAt:          time.Now(),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := testStore(t)
	record := testRecord("rec-1")

	if err := store.Save(record); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load("rec-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Query != record.Query || loaded.Answer != record.Answer {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.FileContents["auth.py"] != "def login(): ..." {
		t.Errorf("file contents = %v", loaded.FileContents)
	}
}

func TestLoadMissingRecord(t *testing.T) {
	store := testStore(t)

	_, err := store.Load("nope")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("error = %v, want ErrRecordNotFound", err)
	}
}

func TestRecordIDValidation(t *testing.T) {
	store := testStore(t)

	bad := []string{"", "a/b", "../../etc/passwd", "id with spaces", "x.y"}
	for _, id := range bad {
		if err := store.Save(testRecord(id)); !errors.Is(err, ErrInvalidRecordID) {
			t.Errorf("Save(%q) error = %v, want ErrInvalidRecordID", id, err)
		}
		if _, err := store.Load(id); !errors.Is(err, ErrInvalidRecordID) {
			t.Errorf("Load(%q) error = %v, want ErrInvalidRecordID", id, err)
		}
		if err := store.Delete(id); !errors.Is(err, ErrInvalidRecordID) {
			t.Errorf("Delete(%q) error = %v, want ErrInvalidRecordID", id, err)
		}
	}
}

func TestDelete(t *testing.T) {
	store := testStore(t)
	if err := store.Save(testRecord("rec-1")); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete("rec-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load("rec-1"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Load() after delete = %v, want ErrRecordNotFound", err)
	}
	if err := store.Delete("rec-1"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("second Delete() = %v, want ErrRecordNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := testStore(t)

	old := testRecord("rec-old")
	old.CompletedAt = time.Now().Add(-time.Hour)
	recent := testRecord("rec-new")

	if err := store.Save(old); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(recent); err != nil {
		t.Fatal(err)
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "rec-new" || records[1].ID != "rec-old" {
		t.Errorf("order = [%s, %s], want newest first", records[0].ID, records[1].ID)
	}
}

func TestListSkipsCorruptFiles(t *testing.T) {
	store := testStore(t)
	if err := store.Save(testRecord("rec-ok")); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(store.baseDir, "searches")
	if err := os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "rec-ok" {
		t.Errorf("records = %+v, want just rec-ok", records)
	}
}

func TestLoadRejectsSymlink(t *testing.T) {
	store := testStore(t)
	if err := store.Save(testRecord("rec-real")); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(store.baseDir, "searches")
	if err := os.Symlink(filepath.Join(dir, "rec-real.json"), filepath.Join(dir, "rec-link.json")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	if _, err := store.Load("rec-link"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Load() via symlink = %v, want ErrRecordNotFound", err)
	}
}

func TestSaveIsAtomic(t *testing.T) {
	store := testStore(t)
	if err := store.Save(testRecord("rec-1")); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(store.baseDir, "searches")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("temp file %s left behind", entry.Name())
		}
	}
}

func TestNewRecordAndResultRoundTrip(t *testing.T) {
	snap := domain.SessionSnapshot{
		ID:           "sess-1",
		CodebaseName: "repo1",
		Query:        "q",
	}
	result := domain.SearchResult{
		Answer:               "A",
		RelevantFiles:        []string{"a.py"},
		FileContents:         map[string]string{"a.py": "x"},
		ProjectStructure:     json.RawMessage(`{"root":[]}`),
		ExecutionTimeSeconds: 1.5,
	}

	record := NewRecord(snap, result)
	if record.ID != "sess-1" || record.CodebaseName != "repo1" {
		t.Errorf("record = %+v", record)
	}
	if record.CompletedAt.IsZero() {
		t.Error("CompletedAt not set")
	}

	back := record.Result()
	if back.Answer != result.Answer || back.ExecutionTimeSeconds != result.ExecutionTimeSeconds {
		t.Errorf("round trip result = %+v", back)
	}
	if string(back.ProjectStructure) != `{"root":[]}` {
		t.Errorf("project structure = %s", back.ProjectStructure)
	}
}
