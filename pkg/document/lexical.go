package document

import (
	"fmt"
	"strings"

	"freewrite-assistant/pkg/lexical"
)

var formatAttributes = []struct {
	bit  int
	attr string
}{
	{lexical.FormatBold, AttrBold},
	{lexical.FormatItalic, AttrItalic},
	{lexical.FormatUnderline, AttrUnderline},
	{lexical.FormatStrikethrough, AttrStrike},
	{lexical.FormatCode, AttrCode},
}

// Load builds a document from either a serialized Lexical editor state or plain text.
func Load(content string) (*Memory, error) {
	if !lexical.LooksLikeLexical(content) {
		return FromText(content), nil
	}
	root, err := lexical.Decode(content)
	if err != nil {
		return nil, err
	}
	return FromLexical(root), nil
}

// FromLexical converts a Lexical tree into an in-memory document. Top-level
// elements and list items become blocks; text nodes become runs.
func FromLexical(root lexical.LexicalRoot) *Memory {
	b := &lexicalBuilder{doc: NewMemory()}
	for _, node := range root.Root.Children {
		b.element(node)
	}
	b.doc.SetSelection(b.doc.Length(), 0)
	return b.doc
}

type lexicalBuilder struct {
	doc     *Memory
	started bool
}

func (b *lexicalBuilder) element(node lexical.Node) {
	switch node.Type {
	case lexical.TypeList:
		for _, item := range node.Children {
			if item.Type != lexical.TypeListItem {
				continue
			}
			var nested []lexical.Node
			b.openBlock()
			start := b.doc.Length()
			for _, child := range item.Children {
				if child.Type == lexical.TypeList {
					nested = append(nested, child)
					continue
				}
				b.inline(child)
			}
			listType := node.ListType
			if listType == "" {
				listType = "bullet"
			}
			b.doc.FormatRange(start, b.doc.Length()-start, AttrList, listType)
			for _, child := range nested {
				b.element(child)
			}
		}
	default:
		b.openBlock()
		start := b.doc.Length()
		for _, child := range node.Children {
			b.inline(child)
		}
		if level := node.HeadingLevel(); level > 0 {
			b.doc.FormatRange(start, b.doc.Length()-start, AttrHeader, level)
		}
	}
}

func (b *lexicalBuilder) openBlock() {
	if b.started {
		b.doc.InsertText(b.doc.Length(), "\n")
	}
	b.started = true
}

func (b *lexicalBuilder) inline(node lexical.Node) {
	switch node.Type {
	case lexical.TypeText:
		start := b.doc.Length()
		b.doc.InsertText(start, node.Text)
		n := b.doc.Length() - start
		format := node.TextFormat()
		for _, f := range formatAttributes {
			if format&f.bit != 0 {
				b.doc.FormatRange(start, n, f.attr, true)
			}
		}
		if bg, ok := lexical.ParseStyle(node.Style)["background-color"]; ok {
			b.doc.FormatRange(start, n, AttrBackground, bg)
		}
	case lexical.TypeLineBreak:
		b.doc.InsertText(b.doc.Length(), "\n")
	default:
		for _, child := range node.Children {
			b.inline(child)
		}
	}
}

// ToLexical serializes doc as a Lexical tree. Consecutive list blocks of the
// same type are grouped into one list node.
func ToLexical(doc Document) lexical.LexicalRoot {
	root := lexical.Node{Type: lexical.TypeRoot, Version: 1}
	var list *lexical.Node

	flushList := func() {
		if list != nil {
			root.Children = append(root.Children, *list)
			list = nil
		}
	}

	for _, block := range doc.Blocks(0, doc.Length()) {
		children := textNodes(block)

		if listType, ok := block.Attributes[AttrList].(string); ok {
			if list != nil && list.ListType != listType {
				flushList()
			}
			if list == nil {
				list = &lexical.Node{Type: lexical.TypeList, Version: 1, ListType: listType, Tag: listTag(listType)}
			}
			list.Children = append(list.Children, lexical.Node{
				Type:     lexical.TypeListItem,
				Version:  1,
				Value:    len(list.Children) + 1,
				Children: children,
			})
			continue
		}
		flushList()

		node := lexical.Node{Type: lexical.TypeParagraph, Version: 1, Children: children}
		if level, ok := block.Attributes[AttrHeader].(int); ok && level > 0 {
			node.Type = lexical.TypeHeading
			node.Tag = fmt.Sprintf("h%d", level)
		}
		root.Children = append(root.Children, node)
	}
	flushList()

	return lexical.LexicalRoot{Root: root}
}

// Markdown renders doc through its Lexical form.
func Markdown(doc Document) string {
	return strings.TrimRight(lexical.NewParser().Render(ToLexical(doc)), "\n") + "\n"
}

func textNodes(block Block) []lexical.Node {
	nodes := make([]lexical.Node, 0, len(block.Runs))
	for _, run := range block.Runs {
		format := 0
		for _, f := range formatAttributes {
			if on, _ := run.Attributes[f.attr].(bool); on {
				format |= f.bit
			}
		}
		node := lexical.Node{Type: lexical.TypeText, Version: 1, Text: run.Text, Mode: "normal"}
		if format != 0 {
			node.Format = format
		}
		if bg, ok := run.Attributes[AttrBackground].(string); ok {
			node.Style = lexical.StyleMap{"background-color": bg}.String()
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func listTag(listType string) string {
	if listType == "number" {
		return "ol"
	}
	return "ul"
}
