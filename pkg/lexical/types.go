package lexical

// LexicalRoot represents the top-level structure of a serialized editor state
type LexicalRoot struct {
	Root Node `json:"root"`
}

// Node represents any node in the Lexical tree
type Node struct {
	Type     string `json:"type"`
	Version  int    `json:"version"`
	Children []Node `json:"children,omitempty"`

	// Text specific
	Text   string      `json:"text,omitempty"`
	Format interface{} `json:"format,omitempty"` // int bitmask on text, alignment string on elements
	Style  string      `json:"style,omitempty"`
	Mode   string      `json:"mode,omitempty"`
	Detail int         `json:"detail,omitempty"`

	// Element specific
	Direction string `json:"direction,omitempty"`
	Indent    int    `json:"indent,omitempty"`

	// Heading specific ("h1".."h6"), list tag ("ul"/"ol")
	Tag string `json:"tag,omitempty"`

	// Link specific
	URL string `json:"url,omitempty"`

	// List specific
	ListType string `json:"listType,omitempty"` // check, bullet, number
	Start    int    `json:"start,omitempty"`

	// ListItem specific
	Checked bool `json:"checked,omitempty"`
	Value   int  `json:"value,omitempty"`
}

// Node types the document bridge understands
const (
	TypeRoot      = "root"
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeQuote     = "quote"
	TypeText      = "text"
	TypeLineBreak = "linebreak"
	TypeList      = "list"
	TypeListItem  = "listitem"
	TypeLink      = "link"
)

// Constants for Text Format Bitmask
const (
	FormatBold          = 1
	FormatItalic        = 2
	FormatStrikethrough = 4
	FormatUnderline     = 8
	FormatCode          = 16
	FormatSubscript     = 32
	FormatSuperscript   = 64
	FormatHighlight     = 1 << 7
)

// TextFormat returns the bitmask of a text node. JSON numbers decode as float64.
func (n Node) TextFormat() int {
	switch f := n.Format.(type) {
	case float64:
		return int(f)
	case int:
		return f
	default:
		return 0
	}
}

// HeadingLevel returns 1..6 for heading nodes and 0 otherwise.
func (n Node) HeadingLevel() int {
	if n.Type != TypeHeading || len(n.Tag) != 2 || n.Tag[0] != 'h' {
		return 0
	}
	level := int(n.Tag[1] - '0')
	if level < 1 || level > 6 {
		return 0
	}
	return level
}
