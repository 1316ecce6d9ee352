package lexical

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parser renders Lexical trees as Markdown
type Parser struct{}

// NewParser creates a new parser instance
func NewParser() *Parser {
	return &Parser{}
}

// Decode unmarshals a serialized editor state.
func Decode(jsonContent string) (LexicalRoot, error) {
	var root LexicalRoot
	if err := json.Unmarshal([]byte(jsonContent), &root); err != nil {
		return LexicalRoot{}, fmt.Errorf("failed to parse lexical json: %w", err)
	}
	if root.Root.Type != TypeRoot {
		return LexicalRoot{}, fmt.Errorf("failed to parse lexical json: missing root node")
	}
	return root, nil
}

// Parse converts a Lexical JSON string to Markdown
func (p *Parser) Parse(jsonContent string) (string, error) {
	root, err := Decode(jsonContent)
	if err != nil {
		return "", err
	}
	return p.Render(root), nil
}

// Render converts a decoded tree to Markdown
func (p *Parser) Render(root LexicalRoot) string {
	var sb strings.Builder
	p.walkNode(root.Root, &sb, 0)
	return sb.String()
}

// LooksLikeLexical reports whether content is a serialized editor state rather than plain text.
func LooksLikeLexical(content string) bool {
	rest, ok := strings.CutPrefix(strings.TrimSpace(content), "{")
	return ok && strings.HasPrefix(strings.TrimSpace(rest), `"root"`)
}

func (p *Parser) walkNode(node Node, sb *strings.Builder, depth int) {
	switch node.Type {
	case TypeRoot:
		for _, child := range node.Children {
			p.walkNode(child, sb, depth)
			sb.WriteString("\n")
		}

	case TypeParagraph:
		p.writeChildren(node, sb, depth)
		sb.WriteString("\n")

	case TypeHeading:
		level := node.HeadingLevel()
		if level == 0 {
			level = 1
		}
		sb.WriteString(strings.Repeat("#", level) + " ")
		p.writeChildren(node, sb, depth)
		sb.WriteString("\n")

	case TypeQuote:
		sb.WriteString("> ")
		p.writeChildren(node, sb, depth)
		sb.WriteString("\n")

	case TypeText:
		p.handleText(node, sb)

	case TypeLineBreak:
		sb.WriteString("  \n")

	case TypeList:
		p.handleList(node, sb, depth)

	case TypeLink:
		sb.WriteString("[")
		p.writeChildren(node, sb, 0)
		sb.WriteString(fmt.Sprintf("](%s)", node.URL))

	default:
		p.writeChildren(node, sb, depth)
	}
}

func (p *Parser) writeChildren(node Node, sb *strings.Builder, depth int) {
	for _, child := range node.Children {
		p.walkNode(child, sb, depth)
	}
}

func (p *Parser) handleText(node Node, sb *strings.Builder) {
	openTag := ParseStyle(node.Style).BuildAnnotatedOpenTag()
	if openTag != "" {
		sb.WriteString(openTag)
	}

	format := node.TextFormat()
	isBold := format&FormatBold != 0
	isItalic := format&FormatItalic != 0
	isUnderline := format&FormatUnderline != 0
	isCode := format&FormatCode != 0
	isStrike := format&FormatStrikethrough != 0

	// Code > Bold > Italic > Underline > Strike
	if isCode {
		sb.WriteString("`")
	}
	if isBold {
		sb.WriteString("**")
	}
	if isItalic {
		sb.WriteString("_")
	}
	if isUnderline {
		sb.WriteString("<u>")
	}
	if isStrike {
		sb.WriteString("~~")
	}

	sb.WriteString(node.Text)

	if isStrike {
		sb.WriteString("~~")
	}
	if isUnderline {
		sb.WriteString("</u>")
	}
	if isItalic {
		sb.WriteString("_")
	}
	if isBold {
		sb.WriteString("**")
	}
	if isCode {
		sb.WriteString("`")
	}

	if openTag != "" {
		sb.WriteString("</span>")
	}
}

func (p *Parser) handleList(node Node, sb *strings.Builder, depth int) {
	index := 1
	if node.Start > 0 {
		index = node.Start
	}

	for _, child := range node.Children {
		if child.Type != TypeListItem {
			continue
		}

		sb.WriteString(strings.Repeat("  ", depth))

		switch node.ListType {
		case "number":
			sb.WriteString(fmt.Sprintf("%d. ", index))
			index++
		case "check":
			if child.Checked {
				sb.WriteString("- [x] ")
			} else {
				sb.WriteString("- [ ] ")
			}
		default:
			sb.WriteString("- ")
		}

		for _, grandChild := range child.Children {
			if grandChild.Type == TypeList {
				sb.WriteString("\n")
				p.handleList(grandChild, sb, depth+1)
			} else {
				p.walkNode(grandChild, sb, depth)
			}
		}
		sb.WriteString("\n")
	}
	if depth == 0 {
		sb.WriteString("\n")
	}
}
