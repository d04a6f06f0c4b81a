package session

import (
	"maps"
	"slices"
	"sync"

	"github.com/pavelanni/classifier/internal/model"
)

// EventKind names the transition that produced an Event.
type EventKind string

const (
	EventTestSelected    EventKind = "test_selected"
	EventCursorMoved     EventKind = "cursor_moved"
	EventLabelSet        EventKind = "label_set"
	EventSelectionsReset EventKind = "selections_reset"
	EventValidated       EventKind = "validated"
)

// Event is published to subscribers after every state change.
type Event struct {
	Kind    EventKind
	TestID  int
	Cursor  int
	Version uint64
}

// State is a point-in-time copy of a Store, safe to hand to views.
type State struct {
	ActiveTestID *int           `json:"active_test_id"`
	Cursor       *int           `json:"cursor"`
	Selections   map[int]string `json:"selections"`
	Results      []model.Result `json:"results"`
	Labeled      int            `json:"labeled"`
	ImageCount   int            `json:"image_count"`
	HasNextTest  bool           `json:"has_next_test"`
	Version      uint64         `json:"version"`
}

// Store holds the state of one quiz attempt over an immutable test catalog.
//
// Operations that receive out-of-range input are no-ops. Selecting an id that
// is not in the catalog still records it as active; CurrentTest then reports
// no test and the caller is expected to send the user back to the test list.
type Store struct {
	mu sync.Mutex

	tests      []model.Test
	activeID   *int
	cursor     int
	selections map[int]string
	results    []model.Result
	version    uint64

	subs   map[int]func(Event)
	nextID int
}

// New creates a store over the given catalog with no active test.
func New(tests []model.Test) *Store {
	return &Store{
		tests:      slices.Clone(tests),
		selections: make(map[int]string),
		subs:       make(map[int]func(Event)),
	}
}

// Subscribe registers fn to be called after each state change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// publish must be called with s.mu held; subscribers run after it is released.
func (s *Store) publish(kind EventKind) func() {
	s.version++
	ev := Event{Kind: kind, Cursor: s.cursor, Version: s.version}
	if s.activeID != nil {
		ev.TestID = *s.activeID
	}
	fns := make([]func(Event), 0, len(s.subs))
	for _, id := range slices.Sorted(maps.Keys(s.subs)) {
		fns = append(fns, s.subs[id])
	}
	return func() {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

// currentTest must be called with s.mu held.
func (s *Store) currentTest() (model.Test, int, bool) {
	if s.activeID == nil {
		return model.Test{}, -1, false
	}
	for i, t := range s.tests {
		if t.ID == *s.activeID {
			return t, i, true
		}
	}
	return model.Test{}, -1, false
}

// SelectTest makes testID the active test and starts a fresh attempt.
func (s *Store) SelectTest(testID int) {
	s.mu.Lock()
	notify := s.selectTest(testID)
	s.mu.Unlock()
	notify()
}

func (s *Store) selectTest(testID int) func() {
	s.activeID = &testID
	s.cursor = 0
	s.selections = make(map[int]string)
	s.results = nil
	return s.publish(EventTestSelected)
}

// SetCursor moves to image index i of the active test if it is in range.
func (s *Store) SetCursor(i int) {
	s.mu.Lock()
	t, _, ok := s.currentTest()
	if !ok || i < 0 || i >= len(t.Images) || i == s.cursor {
		s.mu.Unlock()
		return
	}
	s.cursor = i
	notify := s.publish(EventCursorMoved)
	s.mu.Unlock()
	notify()
}

// Advance moves to the next image; no-op on the last one.
func (s *Store) Advance() {
	s.mu.Lock()
	t, _, ok := s.currentTest()
	if !ok || s.cursor+1 >= len(t.Images) {
		s.mu.Unlock()
		return
	}
	s.cursor++
	notify := s.publish(EventCursorMoved)
	s.mu.Unlock()
	notify()
}

// Retreat moves to the previous image; no-op on the first one.
func (s *Store) Retreat() {
	s.mu.Lock()
	if _, _, ok := s.currentTest(); !ok || s.cursor == 0 {
		s.mu.Unlock()
		return
	}
	s.cursor--
	notify := s.publish(EventCursorMoved)
	s.mu.Unlock()
	notify()
}

// SetLabel records label as the selection for imageID, replacing any earlier
// choice. Neither argument is checked against the active test.
func (s *Store) SetLabel(imageID int, label string) {
	s.mu.Lock()
	s.selections[imageID] = label
	notify := s.publish(EventLabelSet)
	s.mu.Unlock()
	notify()
}

// ResetSelections clears all selections. Cursor and results are kept.
func (s *Store) ResetSelections() {
	s.mu.Lock()
	s.selections = make(map[int]string)
	notify := s.publish(EventSelectionsReset)
	s.mu.Unlock()
	notify()
}

// Validate replaces the results with one Result per selection, ordered by
// image id. Unlabeled images produce no Result. No-op without a current test.
func (s *Store) Validate() {
	s.mu.Lock()
	t, _, ok := s.currentTest()
	if !ok {
		s.mu.Unlock()
		return
	}
	results := make([]model.Result, 0, len(s.selections))
	for _, id := range slices.Sorted(maps.Keys(s.selections)) {
		selected := s.selections[id]
		correct := t.CorrectAnswers[id]
		results = append(results, model.Result{
			ImageID:       id,
			SelectedLabel: selected,
			CorrectLabel:  correct,
			IsCorrect:     selected == correct,
		})
	}
	s.results = results
	notify := s.publish(EventValidated)
	s.mu.Unlock()
	notify()
}

// CurrentTest returns the active test, if it exists in the catalog.
func (s *Store) CurrentTest() (model.Test, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.currentTest()
	return t, ok
}

// CurrentImage returns the image under the cursor.
func (s *Store) CurrentImage() (model.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, ok := s.currentTest()
	if !ok || s.cursor < 0 || s.cursor >= len(t.Images) {
		return model.Image{}, false
	}
	return t.Images[s.cursor], true
}

// HasNextTest reports whether a test follows the active one in catalog order.
func (s *Store) HasNextTest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasNextTest()
}

// An active id missing from the catalog sits at position -1, so the first
// catalog entry counts as its successor.
func (s *Store) hasNextTest() bool {
	_, i, _ := s.currentTest()
	return i+1 < len(s.tests)
}

// AdvanceToNextTest selects the test following the active one in catalog
// order. No-op on the last test.
func (s *Store) AdvanceToNextTest() {
	s.mu.Lock()
	_, i, _ := s.currentTest()
	if i+1 >= len(s.tests) {
		s.mu.Unlock()
		return
	}
	notify := s.selectTest(s.tests[i+1].ID)
	s.mu.Unlock()
	notify()
}

// Tests returns the catalog in order.
func (s *Store) Tests() []model.Test {
	return slices.Clone(s.tests)
}

// ActiveTestID returns the selected test id, which may not match any test.
func (s *Store) ActiveTestID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == nil {
		return 0, false
	}
	return *s.activeID, true
}

// Cursor returns the current image index; absent without a current test.
func (s *Store) Cursor() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, ok := s.currentTest(); !ok {
		return 0, false
	}
	return s.cursor, true
}

// Selection returns the label chosen for imageID.
func (s *Store) Selection(imageID int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.selections[imageID]
	return l, ok
}

// Selections returns a copy of all selections.
func (s *Store) Selections() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.selections)
}

// Results returns a copy of the latest validation results.
func (s *Store) Results() []model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.results)
}

// Progress returns how many selections exist and how many images the
// current test has. Submission is allowed once labeled >= total.
func (s *Store) Progress() (labeled, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, _ := s.currentTest()
	return len(s.selections), len(t.Images)
}

// Version increases with every state change.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Snapshot copies the whole state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Selections:  maps.Clone(s.selections),
		Results:     slices.Clone(s.results),
		Labeled:     len(s.selections),
		HasNextTest: s.hasNextTest(),
		Version:     s.version,
	}
	if st.Results == nil {
		st.Results = []model.Result{}
	}
	if s.activeID != nil {
		id := *s.activeID
		st.ActiveTestID = &id
	}
	if t, _, ok := s.currentTest(); ok {
		c := s.cursor
		st.Cursor = &c
		st.ImageCount = len(t.Images)
	}
	return st
}
