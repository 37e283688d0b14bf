// Package script runs Lua scripts against an undoable text document.
//
// Scripts execute in a sandboxed gopher-lua state with only the base,
// table, string and math libraries. The document is exposed as the global
// table doc:
//
//	doc.text()      -- current text
//	doc.set(s)      -- replace the text (one undo step)
//	doc.insert(s)   -- insert at the caret (one undo step)
//	doc.undo()      -- returns true if something was undone
//	doc.redo()      -- returns true if something was redone
//	doc.can_undo()
//	doc.can_redo()
//	doc.commit()    -- flush pending typing into history
//
// print writes to the runner's output instead of stdout.
//
// Usage:
//
//	r := script.NewRunner(editor, script.WithOutput(os.Stdout))
//	defer r.Close()
//
//	if err := r.Run(ctx, `doc.set("# Notes") doc.undo()`); err != nil {
//	    log.Fatal(err)
//	}
package script
