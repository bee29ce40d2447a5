// ABOUTME: Tests for question and answer history persistence
// ABOUTME: Verifies recording, ordering, counting, and clearing entries
package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_CreatesMissingDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	if store.Path() != path {
		t.Errorf("Path() = %q, want %q", store.Path(), path)
	}
}

func TestRecord_AssignsIDAndTimestamp(t *testing.T) {
	store := openTestStore(t)

	id, err := store.Record(Entry{Question: "What is alpha?", Answer: "The first letter."})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if id == "" {
		t.Fatal("Record() returned empty ID")
	}

	entries, err := store.Recent(1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Recent() returned %d entries, want 1", len(entries))
	}
	if entries[0].ID != id {
		t.Errorf("ID = %q, want %q", entries[0].ID, id)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be assigned automatically")
	}
}

func TestRecord_RoundTripsAllFields(t *testing.T) {
	store := openTestStore(t)

	in := Entry{
		Question:  "What is beta?",
		Answer:    "The second letter.",
		Sources:   []string{"letters.txt", "greek.md"},
		Provider:  "ollama",
		Model:     "llama3.2",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if _, err := store.Record(in); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := store.Recent(1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	got := entries[0]

	if got.Question != in.Question {
		t.Errorf("Question = %q, want %q", got.Question, in.Question)
	}
	if got.Answer != in.Answer {
		t.Errorf("Answer = %q, want %q", got.Answer, in.Answer)
	}
	if len(got.Sources) != 2 || got.Sources[0] != "letters.txt" || got.Sources[1] != "greek.md" {
		t.Errorf("Sources = %v, want [letters.txt greek.md]", got.Sources)
	}
	if got.Provider != "ollama" {
		t.Errorf("Provider = %q, want ollama", got.Provider)
	}
	if got.Model != "llama3.2" {
		t.Errorf("Model = %q, want llama3.2", got.Model)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, in.CreatedAt)
	}
}

func TestRecent_NewestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.Record(Entry{
			Question:  "q",
			Answer:    "a",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent() returned %d entries, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Errorf("entries[%d] newer than entries[%d], want newest first", i, i-1)
		}
	}
}

func TestRecent_AppliesLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := store.Record(Entry{Question: "q", Answer: "a"}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	entries, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Recent(2) returned %d entries, want 2", len(entries))
	}
}

func TestRecent_EmptyStore(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent() returned %d entries, want 0", len(entries))
	}
}

func TestCountAndClear(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 4; i++ {
		if _, err := store.Record(Entry{Question: "q", Answer: "a"}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 4 {
		t.Errorf("Count() = %d, want 4", count)
	}

	removed, err := store.Clear()
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if removed != 4 {
		t.Errorf("Clear() removed %d, want 4", removed)
	}

	count, err = store.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() after clear = %d, want 0", count)
	}
}

func TestDefaultPath_RespectsXDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got := DefaultPath()
	want := filepath.Join(dir, "docquery", "history.db")
	if got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
