package main

import (
	"os"
	"path/filepath"
	"testing"
)

const testBank = `{
  "questions": [
    {"id": 1, "question": "First", "answers": [{"id": 1, "text": "A", "points": 10}]},
    {"id": 5, "question": "Second", "answers": [{"id": 1, "text": "B", "points": 20}, {"id": 2, "text": "C", "points": 5}]},
    {"id": 3, "question": "Third", "answers": [{"id": 1, "text": "D", "points": 15}]}
  ]
}`

func writeBank(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	cat, err := loadCatalog(writeBank(t, testBank))
	if err != nil {
		t.Fatal(err)
	}

	if cat.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", cat.Len())
	}

	q, ok := cat.ById(5)
	if !ok || q.Prompt != "Second" || len(q.Answers) != 2 {
		t.Errorf("ById(5) = %+v, %v", q, ok)
	}

	if _, ok := cat.ById(99); ok {
		t.Error("ById(99) reported a question for an unknown id")
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := loadCatalog(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadCatalogMalformed(t *testing.T) {
	if _, err := loadCatalog(writeBank(t, `{"questions": [`)); err == nil {
		t.Error("expected error for malformed bank")
	}
}

func TestCatalogNextCyclesInFileOrder(t *testing.T) {
	cat, err := loadCatalog(writeBank(t, testBank))
	if err != nil {
		t.Fatal(err)
	}

	// Ids are deliberately non-contiguous and unsorted (1, 5, 3);
	// advancement must follow file position, not id arithmetic.
	tests := []struct {
		afterID int
		wantID  int
	}{
		{1, 5},
		{5, 3},
		{3, 1},  // wraps from last to first
		{42, 1}, // unknown id wraps to first
	}

	for _, tc := range tests {
		q, ok := cat.Next(tc.afterID)
		if !ok || q.ID != tc.wantID {
			t.Errorf("Next(%d) = %d, %v; want %d, true", tc.afterID, q.ID, ok, tc.wantID)
		}
	}
}

func TestCatalogNextEmpty(t *testing.T) {
	cat := &Catalog{}
	if _, ok := cat.Next(1); ok {
		t.Error("Next on empty catalog reported a question")
	}
}

func TestDefaultQuestion(t *testing.T) {
	q := defaultQuestion()

	if q.Prompt != "Name something you take on vacation" {
		t.Errorf("prompt = %q", q.Prompt)
	}
	if len(q.Answers) != 5 {
		t.Fatalf("answer count = %d, want 5", len(q.Answers))
	}

	total := 0
	for _, a := range q.Answers {
		if a.Revealed {
			t.Errorf("default answer %d starts revealed", a.ID)
		}
		total += a.Points
	}
	if total != 100 {
		t.Errorf("default answer points sum to %d, want 100", total)
	}
}
