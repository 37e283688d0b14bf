// Package snapshot defines the document snapshots pushed into history by
// the editing widgets, together with the equality and clone strategies the
// history uses for them.
//
// Three payloads are provided:
//   - Text: markdown source of the live-preview editor
//   - Scene: the object list of the 3D scene editor
//   - Drawing: the element list and selection of the vector drawing tool
//
// Snapshots are values. Clone functions return copies that share no mutable
// state with their argument.
package snapshot
