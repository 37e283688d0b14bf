package history

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"
)

// Helper to create a string history with == duplicate suppression
func newStringHistory(t *testing.T, maxSteps int, opts ...Option[string]) *History[string] {
	t.Helper()
	h, err := NewComparable(maxSteps, opts...)
	if err != nil {
		t.Fatalf("NewComparable(%d) failed: %v", maxSteps, err)
	}
	return h
}

// retained walks the history back to the start and returns every snapshot
// at or before the cursor, oldest first. It leaves the cursor at 0.
func retained(h *History[string]) []string {
	cur, ok := h.Current()
	if !ok {
		return nil
	}
	out := []string{cur}
	for {
		s, ok := h.Undo()
		if !ok {
			break
		}
		out = append(out, s)
	}
	slices.Reverse(out)
	return out
}

func TestNewRejectsNonPositiveMaxSteps(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		h, err := New[string](n)
		if !errors.Is(err, ErrInvalidMaxSteps) {
			t.Errorf("New(%d) error = %v, want ErrInvalidMaxSteps", n, err)
		}
		if h != nil {
			t.Errorf("New(%d) returned non-nil history", n)
		}
	}
}

func TestEmptyHistory(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)

	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
	if h.Cursor() != -1 {
		t.Errorf("Cursor() = %d, want -1", h.Cursor())
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("empty history should not allow undo or redo")
	}
	if _, ok := h.Undo(); ok {
		t.Error("Undo on empty history should report false")
	}
	if _, ok := h.Current(); ok {
		t.Error("Current on empty history should report false")
	}
}

func TestPushRetainsMinOfNAndMaxSteps(t *testing.T) {
	tests := []struct {
		pushes   int
		maxSteps int
	}{
		{1, 100},
		{5, 100},
		{100, 100},
		{101, 100},
		{250, 100},
		{3, 1},
		{10, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d,m=%d", tt.pushes, tt.maxSteps), func(t *testing.T) {
			h := newStringHistory(t, tt.maxSteps)
			var last string
			for i := 0; i < tt.pushes; i++ {
				last = fmt.Sprintf("s%d", i)
				h.Push(last)
			}

			want := min(tt.pushes, tt.maxSteps)
			if h.Len() != want {
				t.Errorf("Len() = %d, want %d", h.Len(), want)
			}
			if h.Cursor() != want-1 {
				t.Errorf("Cursor() = %d, want %d", h.Cursor(), want-1)
			}
			if cur, _ := h.Current(); cur != last {
				t.Errorf("Current() = %q, want %q", cur, last)
			}
		})
	}
}

func TestPushDuplicateIsNoop(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)
	h.Push("a")
	h.Push("b")

	h.Push("b")

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
	if h.Cursor() != 1 {
		t.Errorf("Cursor() = %d, want 1", h.Cursor())
	}
}

func TestPushDuplicateOfUndoneEntryIsNoop(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)
	h.Push("a")
	h.Push("b")
	h.Undo()

	// Equal to the current entry, so the redo branch survives.
	h.Push("a")

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
	if !h.CanRedo() {
		t.Error("redo branch should survive a duplicate push")
	}
}

func TestIsCurrent(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)
	if h.IsCurrent("") {
		t.Error("IsCurrent() on an empty history should be false")
	}

	h.Push("a")
	h.Push("b")
	if !h.IsCurrent("b") || h.IsCurrent("a") {
		t.Error("IsCurrent() should match only the entry at the cursor")
	}

	h.Undo()
	if !h.IsCurrent("a") {
		t.Error("IsCurrent() should follow the cursor after Undo")
	}

	plain, err := New[string](10)
	if err != nil {
		t.Fatal(err)
	}
	plain.Push("x")
	if plain.IsCurrent("x") {
		t.Error("IsCurrent() without an equality function should be false")
	}
}

func TestPushWithoutEqualityAlwaysRecords(t *testing.T) {
	h, err := New[string](10)
	if err != nil {
		t.Fatal(err)
	}
	h.Push("same")
	h.Push("same")
	h.Push("same")

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestUndoReturnsPreviousSnapshot(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)
	h.Push("A")
	h.Push("B")
	h.Push("C")

	got, ok := h.Undo()
	if !ok {
		t.Fatal("Undo should succeed")
	}
	if got != "B" {
		t.Errorf("Undo() = %q, want %q", got, "B")
	}
	if cur, _ := h.Current(); cur != "B" {
		t.Errorf("Current() = %q, want %q", cur, "B")
	}
}

func TestCanUndoMatchesUndo(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)

	for i := 0; i < 4; i++ {
		h.Push(fmt.Sprintf("s%d", i))
	}

	for {
		can := h.CanUndo()
		before := h.Cursor()
		_, ok := h.Undo()
		if ok != can {
			t.Fatalf("Undo() ok = %v, CanUndo() was %v", ok, can)
		}
		if !ok {
			if h.Cursor() != before {
				t.Errorf("failed Undo moved cursor from %d to %d", before, h.Cursor())
			}
			break
		}
	}
	if h.Cursor() != 0 {
		t.Errorf("Cursor() = %d after exhausting undo, want 0", h.Cursor())
	}
}

func TestSingleEntryCannotUndo(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)
	h.Push("only")

	if h.CanUndo() {
		t.Error("CanUndo() should be false with one entry")
	}
	if s, ok := h.Undo(); ok || s != "" {
		t.Errorf("Undo() = (%q, %v), want (\"\", false)", s, ok)
	}
	if cur, _ := h.Current(); cur != "only" {
		t.Errorf("Current() = %q, want %q", cur, "only")
	}
}

func TestPushAfterUndoDiscardsRedoBranch(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)
	h.Push("A")
	h.Push("B")
	h.Push("C")
	h.Undo()
	h.Push("D")

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
	if h.CanRedo() {
		t.Error("CanRedo() should be false after a new push")
	}

	want := []string{"A", "B", "D"}
	if got := retained(h); !slices.Equal(got, want) {
		t.Errorf("history = %v, want %v", got, want)
	}
}

func TestEvictionWithMaxStepsTwo(t *testing.T) {
	h := newStringHistory(t, 2)
	h.Push("A")
	h.Push("B")
	h.Push("C")

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
	if cur, _ := h.Current(); cur != "C" {
		t.Errorf("Current() = %q, want %q", cur, "C")
	}

	got, ok := h.Undo()
	if !ok || got != "B" {
		t.Errorf("Undo() = (%q, %v), want (\"B\", true)", got, ok)
	}
	if _, ok := h.Undo(); ok {
		t.Error("A should be unrecoverable")
	}
}

func TestEvictionAfterUndoKeepsLogicalCursor(t *testing.T) {
	h := newStringHistory(t, 3)
	h.Push("A")
	h.Push("B")
	h.Push("C")
	h.Undo() // at B
	h.Push("D")
	h.Push("E") // [A B D E] -> evict A

	want := []string{"B", "D", "E"}
	if got := retained(h); !slices.Equal(got, want) {
		t.Errorf("history = %v, want %v", got, want)
	}
}

func TestScenarioHelloWorld(t *testing.T) {
	h := newStringHistory(t, 100)
	h.Push("hello")
	h.Push("hello")
	h.Push("hello world")

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}

	got, ok := h.Undo()
	if !ok || got != "hello" {
		t.Errorf("Undo() = (%q, %v), want (\"hello\", true)", got, ok)
	}
	if h.CanUndo() {
		t.Error("CanUndo() should be false")
	}
}

func TestRedo(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)
	h.Push("A")
	h.Push("B")
	h.Push("C")

	if _, ok := h.Redo(); ok {
		t.Error("Redo at the newest entry should report false")
	}

	h.Undo()
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("CanRedo() should be true after undo")
	}

	got, ok := h.Redo()
	if !ok || got != "B" {
		t.Errorf("Redo() = (%q, %v), want (\"B\", true)", got, ok)
	}
	got, ok = h.Redo()
	if !ok || got != "C" {
		t.Errorf("Redo() = (%q, %v), want (\"C\", true)", got, ok)
	}
	if h.CanRedo() {
		t.Error("CanRedo() should be false at the newest entry")
	}
}

func TestWithoutRedo(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps, WithoutRedo[string]())
	h.Push("A")
	h.Push("B")
	h.Undo()

	if h.CanRedo() {
		t.Error("CanRedo() should be false when redo is disabled")
	}
	if _, ok := h.Redo(); ok {
		t.Error("Redo() should report false when redo is disabled")
	}
}

func TestCloneIsolatesStoredSnapshots(t *testing.T) {
	cloneSlice := func(s []int) []int { return slices.Clone(s) }
	h, err := New(10,
		WithEqual(slices.Equal[[]int]),
		WithClone(cloneSlice),
	)
	if err != nil {
		t.Fatal(err)
	}

	doc := []int{1, 2, 3}
	h.Push(doc)
	doc[0] = 100 // mutate live document after push
	h.Push(doc)

	prev, ok := h.Undo()
	if !ok {
		t.Fatal("Undo should succeed")
	}
	if prev[0] != 1 {
		t.Errorf("stored snapshot was aliased: got %v", prev)
	}

	prev[1] = 200
	cur, _ := h.Current()
	if cur[1] != 2 {
		t.Errorf("returned snapshot was aliased: got %v", cur)
	}
}

func TestSetMaxSteps(t *testing.T) {
	t.Run("rejects invalid", func(t *testing.T) {
		h := newStringHistory(t, 5)
		if err := h.SetMaxSteps(0); !errors.Is(err, ErrInvalidMaxSteps) {
			t.Errorf("SetMaxSteps(0) error = %v, want ErrInvalidMaxSteps", err)
		}
		if h.MaxSteps() != 5 {
			t.Errorf("MaxSteps() = %d, want 5", h.MaxSteps())
		}
	})

	t.Run("shrink evicts oldest", func(t *testing.T) {
		h := newStringHistory(t, 5)
		for _, s := range []string{"A", "B", "C", "D", "E"} {
			h.Push(s)
		}
		if err := h.SetMaxSteps(2); err != nil {
			t.Fatal(err)
		}
		want := []string{"D", "E"}
		if got := retained(h); !slices.Equal(got, want) {
			t.Errorf("history = %v, want %v", got, want)
		}
	})

	t.Run("shrink drops redo branch first", func(t *testing.T) {
		h := newStringHistory(t, 5)
		for _, s := range []string{"A", "B", "C", "D", "E"} {
			h.Push(s)
		}
		h.Undo()
		h.Undo()
		h.Undo() // at B

		if err := h.SetMaxSteps(2); err != nil {
			t.Fatal(err)
		}
		if cur, _ := h.Current(); cur != "B" {
			t.Errorf("Current() = %q, want %q", cur, "B")
		}
		if h.Len() != 2 {
			t.Errorf("Len() = %d, want 2", h.Len())
		}
		if h.CanRedo() {
			t.Error("redo branch should have been dropped")
		}
	})

	t.Run("grow keeps entries", func(t *testing.T) {
		h := newStringHistory(t, 2)
		h.Push("A")
		h.Push("B")
		if err := h.SetMaxSteps(10); err != nil {
			t.Fatal(err)
		}
		h.Push("C")
		if h.Len() != 3 {
			t.Errorf("Len() = %d, want 3", h.Len())
		}
	})
}

func TestClear(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)
	h.Push("A")
	h.Push("B")
	h.Clear()

	if h.Len() != 0 || h.Cursor() != -1 {
		t.Errorf("after Clear: Len()=%d Cursor()=%d", h.Len(), h.Cursor())
	}

	h.Push("C")
	if cur, _ := h.Current(); cur != "C" {
		t.Errorf("Current() = %q, want %q", cur, "C")
	}
}

func TestEntries(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	h := newStringHistory(t, DefaultMaxSteps, WithClock[string](clock))
	h.PushLabeled("Initial", "a")
	h.PushLabeled("Type", "ab")
	h.Undo()

	entries := h.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", len(entries))
	}
	if entries[0].Label != "Initial" || entries[1].Label != "Type" {
		t.Errorf("labels = %q, %q", entries[0].Label, entries[1].Label)
	}
	if !entries[0].Current || entries[1].Current {
		t.Error("first entry should be current")
	}
	if !entries[1].Timestamp.After(entries[0].Timestamp) {
		t.Error("timestamps should increase")
	}
}

func TestObserver(t *testing.T) {
	var changes []Change
	h := newStringHistory(t, 2, WithObserver[string](func(c Change) {
		changes = append(changes, c)
	}))

	h.Push("A")
	h.Push("A") // no-op, no notification
	h.Push("B")
	h.Push("C")
	h.Undo()
	h.Redo()

	kinds := make([]ChangeKind, len(changes))
	for i, c := range changes {
		kinds[i] = c.Kind
	}
	want := []ChangeKind{ChangePush, ChangePush, ChangePush, ChangeUndo, ChangeRedo}
	if !slices.Equal(kinds, want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}

	if changes[0].CanUndo {
		t.Error("first push should not enable undo")
	}
	if changes[2].Evicted != 1 {
		t.Errorf("third push Evicted = %d, want 1", changes[2].Evicted)
	}
	if !changes[3].CanRedo || changes[3].CanUndo {
		t.Errorf("after undo: CanUndo=%v CanRedo=%v", changes[3].CanUndo, changes[3].CanRedo)
	}
}

func TestObserverMayCallBack(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)
	var seen []bool
	h.Observe(func(Change) {
		seen = append(seen, h.CanUndo())
	})

	h.Push("A")
	h.Push("B")

	if !slices.Equal(seen, []bool{false, true}) {
		t.Errorf("seen = %v", seen)
	}
}

func TestCheckpoint(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)

	if h.Checkpoint().Valid() {
		t.Error("checkpoint of empty history should be invalid")
	}

	h.Push("A")
	cp := h.Checkpoint()
	h.Push("B")
	h.Push("C")

	got, ok := h.UndoTo(cp)
	if !ok || got != "A" {
		t.Errorf("UndoTo() = (%q, %v), want (\"A\", true)", got, ok)
	}

	if _, ok := h.UndoTo(cp); ok {
		t.Error("UndoTo the current entry should report false")
	}

	got, ok = h.Redo()
	if !ok || got != "B" {
		t.Errorf("Redo() = (%q, %v), want (\"B\", true)", got, ok)
	}
}

func TestCheckpointInvalidatedByEviction(t *testing.T) {
	h := newStringHistory(t, 2)
	h.Push("A")
	cp := h.Checkpoint()
	h.Push("B")
	h.Push("C")

	if _, ok := h.UndoTo(cp); ok {
		t.Error("UndoTo an evicted entry should report false")
	}
	if cur, _ := h.Current(); cur != "C" {
		t.Errorf("Current() = %q, want %q", cur, "C")
	}
}

func TestCheckpointInvalidatedByBranch(t *testing.T) {
	h := newStringHistory(t, DefaultMaxSteps)
	h.Push("A")
	h.Push("B")
	cp := h.Checkpoint()
	h.Undo()
	h.Push("X")

	if _, ok := h.UndoTo(cp); ok {
		t.Error("UndoTo a discarded entry should report false")
	}
}

func TestChangeKindString(t *testing.T) {
	tests := []struct {
		kind ChangeKind
		want string
	}{
		{ChangePush, "push"},
		{ChangeUndo, "undo"},
		{ChangeRedo, "redo"},
		{ChangeResize, "resize"},
		{ChangeClear, "clear"},
		{ChangeKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ChangeKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
