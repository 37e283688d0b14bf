package history

// Checkpoint marks a snapshot that can be returned to later.
// Usage:
//
//	cp := h.Checkpoint()
//	// ... several pushes ...
//	if s, ok := h.UndoTo(cp); ok {
//	    apply(s)
//	}
type Checkpoint struct {
	seq uint64
}

// Valid returns false for the checkpoint of an empty history.
func (cp Checkpoint) Valid() bool {
	return cp.seq != 0
}

// Checkpoint returns a checkpoint at the current snapshot.
func (h *History[S]) Checkpoint() Checkpoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor < 0 {
		return Checkpoint{}
	}
	return Checkpoint{seq: h.entries[h.cursor].seq}
}

// UndoTo moves the cursor back to the checkpointed snapshot and returns it.
// It reports false when the snapshot was evicted, discarded by a later push,
// or is not behind the cursor.
func (h *History[S]) UndoTo(cp Checkpoint) (S, bool) {
	h.mu.Lock()

	target := -1
	for i := h.cursor - 1; i >= 0; i-- {
		if h.entries[i].seq == cp.seq {
			target = i
			break
		}
	}
	if !cp.Valid() || target < 0 {
		h.mu.Unlock()
		var zero S
		return zero, false
	}

	label := h.entries[h.cursor].label
	h.cursor = target
	snapshot := h.copyOf(h.entries[target].snapshot)
	change := h.changeLocked(ChangeUndo, label)
	h.mu.Unlock()

	h.notify(change)
	return snapshot, true
}
