package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText(t *testing.T) {
	d := FromText("Hello\nWorld")

	assert.Equal(t, 11, d.Length())
	assert.Equal(t, Selection{Index: 11}, d.Selection())
	assert.Equal(t, "World", d.Text(6, 5))

	blocks := d.Blocks(0, d.Length())
	require.Len(t, blocks, 2)
	assert.Equal(t, 0, blocks[0].Index)
	assert.Equal(t, 5, blocks[0].Length)
	assert.Equal(t, 6, blocks[1].Index)
	assert.Equal(t, 5, blocks[1].Length)
	assert.Equal(t, []Run{{Text: "World"}}, blocks[1].Runs)
}

func TestEmptyDocumentHasOneBlock(t *testing.T) {
	blocks := NewMemory().Blocks(0, 0)
	require.Len(t, blocks, 1)
	assert.Equal(t, Block{}, blocks[0])
}

func TestInsertShiftsSelection(t *testing.T) {
	d := FromText("abc")
	d.SetSelection(1, 1)

	d.InsertText(0, "xy")
	assert.Equal(t, "xyabc", d.String())
	assert.Equal(t, Selection{Index: 3, Length: 1}, d.Selection())

	d.InsertText(d.Length(), "!")
	assert.Equal(t, Selection{Index: 3, Length: 1}, d.Selection())
}

func TestInsertCountsCodePoints(t *testing.T) {
	d := NewMemory()
	d.InsertText(0, "héllo")
	assert.Equal(t, 5, d.Length())
	assert.Equal(t, "é", d.Text(1, 1))
}

func TestDeleteText(t *testing.T) {
	d := FromText("Hello world")

	d.DeleteText(5, 6)
	assert.Equal(t, "Hello", d.String())
	assert.Equal(t, Selection{Index: 5}, d.Selection())

	d.SetSelection(1, 3)
	d.DeleteText(0, 2)
	assert.Equal(t, "llo", d.String())
	assert.Equal(t, Selection{Index: 0, Length: 2}, d.Selection())
}

func TestSetSelectionClamps(t *testing.T) {
	d := FromText("abc")
	d.SetSelection(-4, 2)
	assert.Equal(t, Selection{Index: 0, Length: 2}, d.Selection())
	d.SetSelection(2, 10)
	assert.Equal(t, Selection{Index: 2, Length: 1}, d.Selection())
}

func TestInlineFormatSplitsRuns(t *testing.T) {
	d := FromText("Hello world")

	d.FormatRange(0, 5, AttrBold, true)
	blocks := d.Blocks(0, d.Length())
	require.Len(t, blocks, 1)
	assert.Equal(t, []Run{
		{Text: "Hello", Attributes: Attributes{AttrBold: true}},
		{Text: " world"},
	}, blocks[0].Runs)

	d.FormatRange(0, 5, AttrBold, nil)
	blocks = d.Blocks(0, d.Length())
	assert.Equal(t, []Run{{Text: "Hello world"}}, blocks[0].Runs)
}

func TestBlockFormat(t *testing.T) {
	d := FromText("Title\nBody")

	d.FormatRange(0, 5, AttrHeader, 1)
	d.FormatRange(6, 4, AttrHeader, 2)

	blocks := d.Blocks(0, d.Length())
	require.Len(t, blocks, 2)
	assert.Equal(t, Attributes{AttrHeader: 1}, blocks[0].Attributes)
	assert.Equal(t, Attributes{AttrHeader: 2}, blocks[1].Attributes)
	assert.Nil(t, blocks[0].Runs[0].Attributes)

	d.FormatRange(0, 0, AttrHeader, nil)
	assert.Nil(t, d.Blocks(0, 0)[0].Attributes)
}

func TestBlocksOverlap(t *testing.T) {
	d := FromText("a\nb\nc")

	blocks := d.Blocks(2, 2)
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].Index)

	assert.Len(t, d.Blocks(0, 3), 2)
	assert.Len(t, d.Blocks(0, d.Length()), 3)
}

func TestSelectedText(t *testing.T) {
	d := FromText("one two three")
	d.SetSelection(4, 3)
	assert.Equal(t, "two", SelectedText(d))
	assert.Equal(t, "one two three", FullText(d))
}
