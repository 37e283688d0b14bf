// Package commit connects a widget's live document to its history.
//
// A Pipeline is the single sequential entry point through which every
// commit-worthy mutation reaches the history. Continuous input (typing)
// calls Schedule, which debounces; discrete actions (paste, clear, finishing
// a stroke) call Commit directly. Undo and Redo flush pending input first so
// the most recent edit is never lost, then apply the restored snapshot back
// to the document.
//
// The timer and all entry points share one lock, so snapshots are captured
// and pushed in the order the host issued them.
package commit
