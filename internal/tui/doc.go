// Package tui is a terminal front end for the text editor widget.
//
// Keys:
//
//	Ctrl+Z      undo
//	Ctrl+Y      redo
//	Ctrl+S      commit pending typing
//	Esc, Ctrl+Q quit
//
// The bottom row is a status line with the history position and whether
// undo and redo are available.
package tui
