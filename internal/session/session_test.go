package session

import (
	"reflect"
	"testing"

	"github.com/pavelanni/classifier/internal/model"
)

func testCatalog() []model.Test {
	return []model.Test{
		{
			ID:   1,
			Name: "Shapes",
			Images: []model.Image{
				{ID: 1, Src: "/img/1.png"},
				{ID: 2, Src: "/img/2.png"},
				{ID: 3, Src: "/img/3.png"},
				{ID: 4, Src: "/img/4.png"},
				{ID: 5, Src: "/img/5.png"},
			},
			Labels: []string{"Circle", "Square", "Triangle"},
			CorrectAnswers: map[int]string{
				1: "Circle", 2: "Square", 3: "Triangle", 4: "Circle", 5: "Square",
			},
		},
		{
			ID:   2,
			Name: "Galaxies",
			Images: []model.Image{
				{ID: 1, Src: "/img/g1.png"},
				{ID: 2, Src: "/img/g2.png"},
			},
			Labels:         []string{"Spiral", "Elliptical"},
			CorrectAnswers: map[int]string{1: "Spiral", 2: "Elliptical"},
		},
	}
}

func labelAll(s *Store, answers map[int]string) {
	for id, l := range answers {
		s.SetLabel(id, l)
	}
}

func TestNewStoreHasNoActiveTest(t *testing.T) {
	s := New(testCatalog())

	if _, ok := s.ActiveTestID(); ok {
		t.Error("expected no active test id")
	}
	if _, ok := s.CurrentTest(); ok {
		t.Error("expected no current test")
	}
	if _, ok := s.CurrentImage(); ok {
		t.Error("expected no current image")
	}
	if _, ok := s.Cursor(); ok {
		t.Error("expected cursor to be absent")
	}
	if len(s.Tests()) != 2 {
		t.Errorf("expected 2 tests in catalog, got %d", len(s.Tests()))
	}
}

func TestSelectTest(t *testing.T) {
	for _, tc := range testCatalog() {
		t.Run(tc.Name, func(t *testing.T) {
			s := New(testCatalog())
			s.SelectTest(1)
			s.Advance()
			s.SetLabel(1, "Circle")
			s.Validate()

			s.SelectTest(tc.ID)

			got, ok := s.CurrentTest()
			if !ok || got.ID != tc.ID {
				t.Fatalf("CurrentTest() = %v, %v; want id %d", got.ID, ok, tc.ID)
			}
			if c, ok := s.Cursor(); !ok || c != 0 {
				t.Errorf("Cursor() = %d, %v; want 0, true", c, ok)
			}
			if len(s.Selections()) != 0 {
				t.Errorf("expected empty selections, got %v", s.Selections())
			}
			if len(s.Results()) != 0 {
				t.Errorf("expected empty results, got %v", s.Results())
			}
			img, ok := s.CurrentImage()
			if !ok || img.ID != tc.Images[0].ID {
				t.Errorf("CurrentImage() = %v, %v; want first image", img, ok)
			}
		})
	}
}

func TestSelectUnknownTest(t *testing.T) {
	s := New(testCatalog())
	s.SelectTest(99)

	if id, ok := s.ActiveTestID(); !ok || id != 99 {
		t.Errorf("ActiveTestID() = %d, %v; want 99, true", id, ok)
	}
	if _, ok := s.CurrentTest(); ok {
		t.Error("expected no current test for unknown id")
	}
	if _, ok := s.CurrentImage(); ok {
		t.Error("expected no current image for unknown id")
	}

	s.Advance()
	s.Validate()
	if len(s.Results()) != 0 {
		t.Error("Validate should be a no-op without a current test")
	}
}

func TestAdvanceClampsAtEnd(t *testing.T) {
	s := New(testCatalog())
	s.SelectTest(1)

	for i := 0; i < 4; i++ {
		s.Advance()
		if c, _ := s.Cursor(); c != i+1 {
			t.Fatalf("after %d advances cursor = %d, want %d", i+1, c, i+1)
		}
	}

	v := s.Version()
	s.Advance()
	if c, _ := s.Cursor(); c != 4 {
		t.Errorf("Advance on last image moved cursor to %d", c)
	}
	if s.Version() != v {
		t.Error("no-op Advance should not bump version")
	}
}

func TestRetreatClampsAtStart(t *testing.T) {
	s := New(testCatalog())
	s.SelectTest(1)
	s.SetCursor(3)

	for want := 2; want >= 0; want-- {
		s.Retreat()
		if c, _ := s.Cursor(); c != want {
			t.Fatalf("cursor = %d, want %d", c, want)
		}
	}

	s.Retreat()
	if c, _ := s.Cursor(); c != 0 {
		t.Errorf("Retreat on first image moved cursor to %d", c)
	}
}

func TestSetCursor(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"first", 0, 0},
		{"middle", 2, 2},
		{"last", 4, 4},
		{"negative ignored", -1, 0},
		{"past end ignored", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(testCatalog())
			s.SelectTest(1)
			s.SetCursor(tt.index)
			if c, _ := s.Cursor(); c != tt.want {
				t.Errorf("SetCursor(%d): cursor = %d, want %d", tt.index, c, tt.want)
			}
		})
	}
}

func TestSetCursorWithoutTest(t *testing.T) {
	s := New(testCatalog())
	s.SetCursor(1)
	if _, ok := s.Cursor(); ok {
		t.Error("cursor should stay absent without a test")
	}
}

func TestSetLabelOverwrites(t *testing.T) {
	s := New(testCatalog())
	s.SelectTest(1)
	s.SetLabel(1, "Circle")
	s.SetLabel(1, "Square")

	sel := s.Selections()
	if len(sel) != 1 {
		t.Fatalf("expected 1 selection, got %d", len(sel))
	}
	if l, ok := s.Selection(1); !ok || l != "Square" {
		t.Errorf("Selection(1) = %q, %v; want Square", l, ok)
	}
}

func TestSelectionsAreCopies(t *testing.T) {
	s := New(testCatalog())
	s.SelectTest(1)
	s.SetLabel(1, "Circle")

	sel := s.Selections()
	sel[2] = "Square"
	if _, ok := s.Selection(2); ok {
		t.Error("mutating the returned map must not change the store")
	}
}

func TestResetSelectionsKeepsCursorAndResults(t *testing.T) {
	s := New(testCatalog())
	s.SelectTest(2)
	labelAll(s, map[int]string{1: "Spiral", 2: "Spiral"})
	s.Validate()
	s.Advance()

	before := s.Results()
	s.ResetSelections()

	if len(s.Selections()) != 0 {
		t.Error("expected selections cleared")
	}
	if c, _ := s.Cursor(); c != 1 {
		t.Errorf("cursor = %d, want 1", c)
	}
	if !reflect.DeepEqual(s.Results(), before) {
		t.Errorf("results changed: %v -> %v", before, s.Results())
	}
}

func TestValidate(t *testing.T) {
	catalog := []model.Test{{
		ID:             7,
		Name:           "Two shapes",
		Images:         []model.Image{{ID: 1}, {ID: 2}},
		Labels:         []string{"Circle", "Square", "Triangle"},
		CorrectAnswers: map[int]string{1: "Circle", 2: "Square"},
	}}
	s := New(catalog)
	s.SelectTest(7)
	s.SetLabel(2, "Triangle")
	s.SetLabel(1, "Circle")
	s.Validate()

	want := []model.Result{
		{ImageID: 1, SelectedLabel: "Circle", CorrectLabel: "Circle", IsCorrect: true},
		{ImageID: 2, SelectedLabel: "Triangle", CorrectLabel: "Square", IsCorrect: false},
	}
	if got := s.Results(); !reflect.DeepEqual(got, want) {
		t.Errorf("Results() = %+v, want %+v", got, want)
	}
}

func TestValidatePartial(t *testing.T) {
	s := New(testCatalog())
	s.SelectTest(1)
	s.SetLabel(3, "Triangle")
	s.Validate()

	res := s.Results()
	if len(res) != 1 || res[0].ImageID != 3 || !res[0].IsCorrect {
		t.Errorf("unexpected partial results: %+v", res)
	}
}

func TestValidateUnknownImage(t *testing.T) {
	s := New(testCatalog())
	s.SelectTest(1)
	s.SetLabel(42, "Circle")
	s.Validate()

	res := s.Results()
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
	if res[0].CorrectLabel != "" || res[0].IsCorrect {
		t.Errorf("unknown image should be incorrect with empty correct label, got %+v", res[0])
	}
}

func TestValidateReplacesResults(t *testing.T) {
	s := New(testCatalog())
	s.SelectTest(2)
	labelAll(s, map[int]string{1: "Spiral", 2: "Spiral"})
	s.Validate()
	s.SetLabel(2, "Elliptical")
	s.Validate()

	res := s.Results()
	if len(res) != 2 || !res[0].IsCorrect || !res[1].IsCorrect {
		t.Errorf("expected two correct results after revalidation, got %+v", res)
	}
}

func TestHasNextTest(t *testing.T) {
	s := New(testCatalog())

	s.SelectTest(1)
	if !s.HasNextTest() {
		t.Error("expected next test after the first")
	}

	s.SelectTest(2)
	if s.HasNextTest() {
		t.Error("expected no next test after the last")
	}

	v := s.Version()
	s.AdvanceToNextTest()
	if id, _ := s.ActiveTestID(); id != 2 {
		t.Errorf("AdvanceToNextTest on last test changed active id to %d", id)
	}
	if s.Version() != v {
		t.Error("AdvanceToNextTest on last test should be a no-op")
	}
}

func TestNextTestFollowsCatalogOrder(t *testing.T) {
	catalog := testCatalog()
	catalog[0].ID, catalog[1].ID = 10, 3
	s := New(catalog)
	s.SelectTest(10)
	s.AdvanceToNextTest()

	if id, _ := s.ActiveTestID(); id != 3 {
		t.Errorf("next test id = %d, want 3 (catalog order, not id order)", id)
	}
}

func TestValidateThenAdvanceToNextTest(t *testing.T) {
	s := New(testCatalog())
	s.SelectTest(1)
	cur, _ := s.CurrentTest()
	labelAll(s, cur.CorrectAnswers)
	s.SetCursor(3)
	s.Validate()
	if len(s.Results()) != 5 {
		t.Fatalf("expected 5 results, got %d", len(s.Results()))
	}

	s.AdvanceToNextTest()

	got, ok := s.CurrentTest()
	if !ok || got.ID != 2 {
		t.Fatalf("CurrentTest() = %d, %v; want 2", got.ID, ok)
	}
	if len(s.Selections()) != 0 || len(s.Results()) != 0 {
		t.Error("expected fresh attempt after advancing")
	}
	if c, _ := s.Cursor(); c != 0 {
		t.Errorf("cursor = %d, want 0", c)
	}
}

func TestProgress(t *testing.T) {
	s := New(testCatalog())
	if l, n := s.Progress(); l != 0 || n != 0 {
		t.Errorf("Progress() without test = %d/%d, want 0/0", l, n)
	}

	s.SelectTest(1)
	s.SetLabel(1, "Circle")
	s.SetLabel(2, "Circle")
	if l, n := s.Progress(); l != 2 || n != 5 {
		t.Errorf("Progress() = %d/%d, want 2/5", l, n)
	}
}

func TestSubscribe(t *testing.T) {
	s := New(testCatalog())
	var got []EventKind
	cancel := s.Subscribe(func(ev Event) { got = append(got, ev.Kind) })

	s.SelectTest(1)
	s.Advance()
	s.SetLabel(1, "Circle")
	s.Validate()
	s.ResetSelections()
	s.Retreat()
	s.Retreat() // no-op

	want := []EventKind{
		EventTestSelected, EventCursorMoved, EventLabelSet,
		EventValidated, EventSelectionsReset, EventCursorMoved,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}

	cancel()
	s.Advance()
	if len(got) != len(want) {
		t.Error("cancelled subscriber still notified")
	}
}

func TestSubscriberMayReadStore(t *testing.T) {
	s := New(testCatalog())
	var testName string
	s.Subscribe(func(ev Event) {
		if cur, ok := s.CurrentTest(); ok {
			testName = cur.Name
		}
	})
	s.SelectTest(2)
	if testName != "Galaxies" {
		t.Errorf("subscriber saw %q, want Galaxies", testName)
	}
}

func TestSnapshot(t *testing.T) {
	s := New(testCatalog())
	st := s.Snapshot()
	if st.ActiveTestID != nil || st.Cursor != nil {
		t.Error("expected nil active id and cursor before selection")
	}
	if st.Results == nil {
		t.Error("results should be an empty slice, not nil")
	}

	s.SelectTest(1)
	s.Advance()
	s.SetLabel(1, "Circle")
	st = s.Snapshot()
	if st.ActiveTestID == nil || *st.ActiveTestID != 1 {
		t.Errorf("ActiveTestID = %v, want 1", st.ActiveTestID)
	}
	if st.Cursor == nil || *st.Cursor != 1 {
		t.Errorf("Cursor = %v, want 1", st.Cursor)
	}
	if st.Labeled != 1 || st.ImageCount != 5 || !st.HasNextTest {
		t.Errorf("unexpected snapshot: %+v", st)
	}
}
