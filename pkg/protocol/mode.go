package protocol

// Mode selects the generation strategy of a request.
type Mode string

const (
	ModeSentence  Mode = "sentence"
	ModeParagraph Mode = "paragraph"
	ModeHeadline  Mode = "headline"
	ModeFlowery   Mode = "flowery"
	ModeTransform Mode = "transform"
	ModeGenerate  Mode = "generate"
	ModeDraft     Mode = "draft"
	ModeVSpice    Mode = "vspice"
	ModeLimmy     Mode = "limmy"
)

// Kind groups modes by how their output is consumed.
type Kind int

const (
	KindUnknown Kind = iota
	KindContinuation
	KindHeadline
	KindRewrite
	KindGenerate
	KindDraft
	KindRating
)

func (k Kind) String() string {
	switch k {
	case KindContinuation:
		return "continuation"
	case KindHeadline:
		return "headline"
	case KindRewrite:
		return "rewrite"
	case KindGenerate:
		return "generate"
	case KindDraft:
		return "draft"
	case KindRating:
		return "rating"
	default:
		return "unknown"
	}
}

// Kind classifies the mode. Every known mode maps to exactly one kind.
func (m Mode) Kind() Kind {
	switch m {
	case ModeSentence, ModeParagraph:
		return KindContinuation
	case ModeHeadline:
		return KindHeadline
	case ModeFlowery, ModeTransform:
		return KindRewrite
	case ModeGenerate:
		return KindGenerate
	case ModeDraft:
		return KindDraft
	case ModeVSpice, ModeLimmy:
		return KindRating
	default:
		return KindUnknown
	}
}

// Streams reports whether fragments of this mode are written into the document.
func (m Mode) Streams() bool {
	switch m.Kind() {
	case KindContinuation, KindHeadline, KindRewrite, KindGenerate, KindDraft:
		return true
	default:
		return false
	}
}

// ParseMode returns the mode named by s, or false when s names no known mode.
func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	if m.Kind() == KindUnknown {
		return "", false
	}
	return m, true
}
