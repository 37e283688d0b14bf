// Package history provides a bounded, linear undo history of document
// snapshots.
//
// A History stores full-state snapshots rather than edit commands. The host
// pushes a snapshot after every commit-worthy mutation and applies whatever
// Undo or Redo hands back. The history never inspects a snapshot; equality
// and cloning are supplied by the host as strategies:
//
//	h, err := history.New(100,
//	    history.WithEqual(snapshot.TextEqual),
//	    history.WithClone(snapshot.TextClone),
//	)
//
//	h.Push(initial)
//	h.Push(edited)
//
//	if prev, ok := h.Undo(); ok {
//	    apply(prev)
//	}
//
// # Bounding
//
// At most maxSteps snapshots are retained. Pushing past the bound evicts the
// oldest entry; the cursor keeps pointing at the same logical snapshot.
//
// # Linear History
//
// Pushing after one or more undos discards every entry ahead of the cursor.
// Redo only walks back over entries that were undone since the last push.
//
// # Duplicate Suppression
//
// A push equal to the current entry is ignored, so debounced saves of
// unchanged content never grow the history. Without an equality strategy
// every push is recorded.
package history
