package store

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pavelanni/classifier/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewUnopenablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "classifier.db")
	if s, err := New(path); err == nil {
		s.Close()
		t.Fatal("expected an error for a database in a missing directory")
	}
}

func sampleTest(id int, name string) model.Test {
	return model.Test{
		ID:   id,
		Name: name,
		Images: []model.Image{
			{ID: 3, Src: "c.png"},
			{ID: 1, Src: "a.png"},
			{ID: 2, Src: "b.png"},
		},
		Labels:         []string{"Square", "Circle", "Triangle"},
		CorrectAnswers: map[int]string{1: "Circle", 2: "Square", 3: "Triangle"},
	}
}

func saveTest(t *testing.T, s *Store, tc model.Test) {
	t.Helper()
	if err := s.SaveTest(tc); err != nil {
		t.Fatalf("SaveTest(%d): %v", tc.ID, err)
	}
}

func TestTestCRUD(t *testing.T) {
	s := newTestStore(t)

	// Empty DB should return zero count and empty list.
	count, err := s.TestCount()
	if err != nil {
		t.Fatalf("TestCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 tests, got %d", count)
	}
	list, err := s.ListTests()
	if err != nil {
		t.Fatalf("ListTests: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	// Insert and retrieve.
	want := sampleTest(5, "Shapes")
	saveTest(t, s, want)
	got, err := s.GetTest(5)
	if err != nil {
		t.Fatalf("GetTest: %v", err)
	}
	if got == nil {
		t.Fatal("expected test, got nil")
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, want)
	}

	// Not found.
	missing, err := s.GetTest(9999)
	if err != nil {
		t.Fatalf("GetTest missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing test, got %+v", missing)
	}
}

func TestListTestsCatalogOrder(t *testing.T) {
	s := newTestStore(t)
	saveTest(t, s, sampleTest(9, "First"))
	saveTest(t, s, sampleTest(2, "Second"))
	saveTest(t, s, sampleTest(5, "Third"))

	tests, err := s.ListTests()
	if err != nil {
		t.Fatalf("ListTests: %v", err)
	}
	var ids []int
	for _, tc := range tests {
		ids = append(ids, tc.ID)
	}
	if !reflect.DeepEqual(ids, []int{9, 2, 5}) {
		t.Errorf("expected insertion order [9 2 5], got %v", ids)
	}
	// Images and labels keep their file order.
	if tests[0].Images[0].ID != 3 || tests[0].Labels[0] != "Square" {
		t.Errorf("image/label order not preserved: %+v", tests[0])
	}
}

func TestSaveTestReplaces(t *testing.T) {
	s := newTestStore(t)
	saveTest(t, s, sampleTest(1, "A"))
	saveTest(t, s, sampleTest(2, "B"))

	updated := model.Test{
		ID:             1,
		Name:           "A v2",
		Images:         []model.Image{{ID: 7, Src: "z.png"}},
		Labels:         []string{"Dog"},
		CorrectAnswers: map[int]string{7: "Dog"},
	}
	saveTest(t, s, updated)

	count, _ := s.TestCount()
	if count != 2 {
		t.Fatalf("expected 2 tests after replace, got %d", count)
	}
	tests, err := s.ListTests()
	if err != nil {
		t.Fatalf("ListTests: %v", err)
	}
	if tests[0].ID != 1 || tests[0].Name != "A v2" {
		t.Errorf("replaced test should keep first position, got %+v", tests[0])
	}
	if !reflect.DeepEqual(tests[0], updated) {
		t.Errorf("stale parts left behind: %+v", tests[0])
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	// Missing file returns empty string.
	hash, err := s.GetImportedFileHash("/some/path.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	// Set hash.
	if err := s.SetImportedFileHash("/some/path.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, err = s.GetImportedFileHash("/some/path.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "abc123" {
		t.Errorf("expected 'abc123', got %q", hash)
	}

	// Update existing.
	if err := s.SetImportedFileHash("/some/path.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}

func TestExportCatalog(t *testing.T) {
	s := newTestStore(t)

	exp, err := s.ExportCatalog()
	if err != nil {
		t.Fatalf("ExportCatalog empty: %v", err)
	}
	if exp.NumTests != 0 || exp.Tests == nil {
		t.Errorf("empty export should have zero tests and a non-nil slice, got %+v", exp)
	}

	saveTest(t, s, sampleTest(1, "A"))
	saveTest(t, s, sampleTest(2, "B"))
	exp, err = s.ExportCatalog()
	if err != nil {
		t.Fatalf("ExportCatalog: %v", err)
	}
	if exp.NumTests != 2 || len(exp.Tests) != 2 {
		t.Errorf("expected 2 tests, got %d/%d", exp.NumTests, len(exp.Tests))
	}
	if exp.ExportedAt.IsZero() {
		t.Error("expected export timestamp")
	}
}
