package document

import "maps"

// Attributes are formatting attributes keyed by name. A nil value is never stored.
type Attributes map[string]any

// Attribute names understood by the in-memory editor and the Lexical bridge.
const (
	AttrHeader     = "header" // block level, int 1..6
	AttrList       = "list"   // block level, "bullet" | "number" | "check"
	AttrBackground = "background"
	AttrBold       = "bold"
	AttrItalic     = "italic"
	AttrUnderline  = "underline"
	AttrStrike     = "strike"
	AttrCode       = "code"
)

// IsBlockAttribute reports whether the attribute applies to whole blocks rather than characters.
func IsBlockAttribute(name string) bool {
	return name == AttrHeader || name == AttrList
}

// Equal compares two attribute sets, treating nil and empty as the same.
func (a Attributes) Equal(b Attributes) bool {
	return maps.Equal(a, b)
}

func (a Attributes) with(name string, value any) Attributes {
	out := make(Attributes, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	if value == nil {
		delete(out, name)
	} else {
		out[name] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Selection is a [Index, Index+Length) range. Length 0 is a caret.
type Selection struct {
	Index  int
	Length int
}

// End is the index just past the selection.
func (s Selection) End() int {
	return s.Index + s.Length
}

// Run is a contiguous piece of text within a block sharing one set of attributes.
type Run struct {
	Text       string
	Attributes Attributes
}

// Block is a paragraph-level unit. Index is the document offset of its first
// character and Length counts its characters, excluding the line break that
// separates it from the next block. Runs is nil when the document does not
// expose a finer structure.
type Block struct {
	Index      int
	Length     int
	Runs       []Run
	Attributes Attributes
}

// End is the document offset just past the block's last character.
func (b Block) End() int {
	return b.Index + b.Length
}

// Document is the editing surface the assistant drives.
//
// Implementations are not safe for concurrent use; the caller serializes all
// access on one goroutine.
type Document interface {
	Length() int
	Selection() Selection
	SetSelection(index, length int)
	InsertText(index int, text string)
	DeleteText(index, length int)
	Text(index, length int) string
	FormatRange(index, length int, attr string, value any)
	Blocks(start, end int) []Block
}

// FullText returns the whole content of doc.
func FullText(doc Document) string {
	return doc.Text(0, doc.Length())
}

// SelectedText returns the text under the current selection.
func SelectedText(doc Document) string {
	sel := doc.Selection()
	return doc.Text(sel.Index, sel.Length)
}
