package extractor

import (
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"freewrite-assistant/pkg/document"
)

// ErrContextTooShort is returned when the text before the cursor is too short
// to seed a generation. The user has to pick a different location.
var ErrContextTooShort = errors.New("not enough text before the cursor")

// Unit is the granularity of a backward scan.
type Unit int

const (
	// UnitParagraph counts whole blocks.
	UnitParagraph Unit = iota
	// UnitSentence counts runs within blocks.
	UnitSentence
)

func (u Unit) String() string {
	if u == UnitSentence {
		return "sentence"
	}
	return "paragraph"
}

// Config holds the scan limits.
type Config struct {
	MinChars        int // blocks and results shorter than this are trivial
	SentenceTarget  int
	ParagraphTarget int
}

// DefaultConfig returns the limits used by the editor: 5 characters, 1 sentence, 3 paragraphs.
func DefaultConfig() Config {
	return Config{MinChars: 5, SentenceTarget: 1, ParagraphTarget: 3}
}

// Extraction is the text collected by a scan.
type Extraction struct {
	Text    string
	Units   int // non-trivial units counted
	Visited int // blocks visited, including the cursor block
}

// Extractor rebuilds the prior text around the cursor.
type Extractor struct {
	cfg Config
}

// New creates an extractor. Zero fields fall back to DefaultConfig.
func New(cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.MinChars <= 0 {
		cfg.MinChars = def.MinChars
	}
	if cfg.SentenceTarget <= 0 {
		cfg.SentenceTarget = def.SentenceTarget
	}
	if cfg.ParagraphTarget <= 0 {
		cfg.ParagraphTarget = def.ParagraphTarget
	}
	return &Extractor{cfg: cfg}
}

func (e *Extractor) target(unit Unit) int {
	if unit == UnitSentence {
		return e.cfg.SentenceTarget
	}
	return e.cfg.ParagraphTarget
}

// Extract walks backward from the end of the current selection and collects
// up to the unit target of non-trivial text, oldest first.
//
// The block under the cursor contributes only the text from its start to the
// end of the selection. Trivial earlier blocks contribute a line break and are
// not counted.
func (e *Extractor) Extract(doc document.Document, unit Unit) (Extraction, error) {
	end := doc.Selection().End()
	blocks := doc.Blocks(0, end)
	if len(blocks) == 0 {
		return Extraction{}, ErrContextTooShort
	}

	target := e.target(unit)
	cursor := blocks[len(blocks)-1]
	partial := doc.Text(cursor.Index, end-cursor.Index)

	// parts is built newest first and reversed at the end
	parts := []string{partial}
	ext := Extraction{Visited: 1}
	if e.nonTrivial(partial, nil) {
		ext.Units++
	}

	for i := len(blocks) - 2; i >= 0 && ext.Units < target; i-- {
		block := blocks[i]
		text := doc.Text(block.Index, block.Length)
		ext.Visited++

		if !e.nonTrivial(text, block.Runs) {
			parts = append(parts, "\n")
			continue
		}
		parts = append(parts, "\n")

		if unit == UnitParagraph {
			parts = append(parts, text)
			ext.Units++
			continue
		}

		for _, piece := range slices.Backward(units(block, text)) {
			parts = append(parts, piece)
			if strings.TrimSpace(piece) != "" {
				ext.Units++
			}
			if ext.Units >= target {
				break
			}
		}
	}

	slices.Reverse(parts)
	ext.Text = strings.Join(parts, "")

	if utf8.RuneCountInString(strings.TrimSpace(ext.Text)) < e.cfg.MinChars {
		return ext, ErrContextTooShort
	}
	return ext, nil
}

func (e *Extractor) nonTrivial(text string, runs []document.Run) bool {
	if utf8.RuneCountInString(text) < e.cfg.MinChars {
		return false
	}
	if runs == nil {
		return strings.TrimSpace(text) != ""
	}
	for _, run := range runs {
		if strings.TrimSpace(run.Text) != "" {
			return true
		}
	}
	return false
}

// units splits a block into its finest textual pieces.
func units(block document.Block, text string) []string {
	if len(block.Runs) == 0 {
		return []string{text}
	}
	out := make([]string, 0, len(block.Runs))
	for _, run := range block.Runs {
		out = append(out, run.Text)
	}
	return out
}
