package document

import (
	"strings"
	"unicode/utf8"
)

type char struct {
	r     rune
	attrs Attributes
}

// Memory is an in-memory Document. Text is stored per code point with its
// inline attributes; block attributes live on the line break that terminates
// a block, or on tail for the last block.
type Memory struct {
	chars []char
	tail  Attributes
	sel   Selection
}

// NewMemory returns an empty document.
func NewMemory() *Memory {
	return &Memory{}
}

// FromText returns a document holding s with the caret at its end.
func FromText(s string) *Memory {
	d := NewMemory()
	d.InsertText(0, s)
	d.SetSelection(d.Length(), 0)
	return d
}

// String returns the whole document text.
func (d *Memory) String() string {
	return d.Text(0, d.Length())
}

func (d *Memory) Length() int {
	return len(d.chars)
}

func (d *Memory) Selection() Selection {
	return d.sel
}

func (d *Memory) SetSelection(index, length int) {
	index = d.clamp(index)
	if length < 0 {
		length = 0
	}
	if index+length > len(d.chars) {
		length = len(d.chars) - index
	}
	d.sel = Selection{Index: index, Length: length}
}

// InsertText inserts plain text at index. A selection starting at or after
// index shifts right by the inserted length.
func (d *Memory) InsertText(index int, text string) {
	if text == "" {
		return
	}
	index = d.clamp(index)

	inserted := make([]char, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		inserted = append(inserted, char{r: r})
	}

	chars := make([]char, 0, len(d.chars)+len(inserted))
	chars = append(chars, d.chars[:index]...)
	chars = append(chars, inserted...)
	chars = append(chars, d.chars[index:]...)
	d.chars = chars

	n := len(inserted)
	switch {
	case index <= d.sel.Index:
		d.sel.Index += n
	case index < d.sel.End():
		d.sel.Length += n
	}
}

// DeleteText removes length characters starting at index.
func (d *Memory) DeleteText(index, length int) {
	index = d.clamp(index)
	if length <= 0 {
		return
	}
	end := index + length
	if end > len(d.chars) {
		end = len(d.chars)
	}
	d.chars = append(d.chars[:index:index], d.chars[end:]...)

	removed := end - index
	selStart, selEnd := d.sel.Index, d.sel.End()
	selStart = shiftForDelete(selStart, index, end, removed)
	selEnd = shiftForDelete(selEnd, index, end, removed)
	d.sel = Selection{Index: selStart, Length: selEnd - selStart}
}

func shiftForDelete(pos, start, end, removed int) int {
	switch {
	case pos >= end:
		return pos - removed
	case pos > start:
		return start
	default:
		return pos
	}
}

func (d *Memory) Text(index, length int) string {
	index = d.clamp(index)
	end := d.clamp(index + length)
	var sb strings.Builder
	for _, c := range d.chars[index:end] {
		sb.WriteRune(c.r)
	}
	return sb.String()
}

// FormatRange sets attr to value over [index, index+length). Block attributes
// apply to every block the range touches; a nil value removes the attribute.
func (d *Memory) FormatRange(index, length int, attr string, value any) {
	index = d.clamp(index)
	end := d.clamp(index + length)

	if IsBlockAttribute(attr) {
		for _, line := range d.lines() {
			if line.start > end || line.end < index {
				continue
			}
			if line.end < len(d.chars) {
				d.chars[line.end].attrs = d.chars[line.end].attrs.with(attr, value)
			} else {
				d.tail = d.tail.with(attr, value)
			}
		}
		return
	}

	for i := index; i < end; i++ {
		if d.chars[i].r == '\n' {
			continue
		}
		d.chars[i].attrs = d.chars[i].attrs.with(attr, value)
	}
}

// Blocks returns every block overlapping [start, end].
func (d *Memory) Blocks(start, end int) []Block {
	var blocks []Block
	for _, line := range d.lines() {
		if line.start > end || line.end < start {
			continue
		}
		blocks = append(blocks, d.block(line))
	}
	return blocks
}

type span struct {
	start, end int
}

// lines splits the document on line breaks. end is the index of the
// terminating line break, or Length() for the last block.
func (d *Memory) lines() []span {
	var out []span
	start := 0
	for i, c := range d.chars {
		if c.r == '\n' {
			out = append(out, span{start: start, end: i})
			start = i + 1
		}
	}
	return append(out, span{start: start, end: len(d.chars)})
}

func (d *Memory) block(line span) Block {
	b := Block{Index: line.start, Length: line.end - line.start}
	if line.end < len(d.chars) {
		b.Attributes = blockAttributes(d.chars[line.end].attrs)
	} else {
		b.Attributes = blockAttributes(d.tail)
	}

	var sb strings.Builder
	var current Attributes
	flush := func() {
		if sb.Len() > 0 {
			b.Runs = append(b.Runs, Run{Text: sb.String(), Attributes: current})
			sb.Reset()
		}
	}
	for _, c := range d.chars[line.start:line.end] {
		if sb.Len() > 0 && !c.attrs.Equal(current) {
			flush()
		}
		current = c.attrs
		sb.WriteRune(c.r)
	}
	flush()
	return b
}

func blockAttributes(attrs Attributes) Attributes {
	var out Attributes
	for k, v := range attrs {
		if IsBlockAttribute(k) {
			if out == nil {
				out = make(Attributes)
			}
			out[k] = v
		}
	}
	return out
}

func (d *Memory) clamp(index int) int {
	if index < 0 {
		return 0
	}
	if index > len(d.chars) {
		return len(d.chars)
	}
	return index
}

var _ Document = (*Memory)(nil)
