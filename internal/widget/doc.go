// Package widget provides headless document models for the three editing
// widgets: a markdown text editor, a 3D scene editor and a vector drawing
// canvas.
//
// Each model owns its live document and a commit.Pipeline over a bounded
// snapshot history. Continuous gestures (typing, dragging a transform)
// schedule debounced commits; discrete actions (paste, add shape, finish a
// stroke, clear) commit immediately. Undo and Redo restore full snapshots.
//
// Rendering, DOM wiring and styling are left to the host; the models expose
// plain data only.
package widget
