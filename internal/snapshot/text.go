package snapshot

// Text is the state of a text document.
type Text struct {
	Content string
	// Caret is the byte offset of the insertion point.
	Caret int
}

// TextEqual compares content only; moving the caret is not an edit.
func TextEqual(a, b Text) bool {
	return a.Content == b.Content
}

// TextClone returns t. Strings are immutable so a copy is a clone.
func TextClone(t Text) Text {
	return t
}
