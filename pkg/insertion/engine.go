package insertion

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"freewrite-assistant/pkg/document"
	"freewrite-assistant/pkg/protocol"

	"github.com/google/uuid"
)

// ErrNoSession is returned for fragments or completions that arrive while no
// insertion session is open. The message is dropped.
var ErrNoSession = errors.New("no active insertion session")

// State of the engine.
type State int

const (
	StateIdle State = iota
	StateAwaitingFirstFragment
	StateInserting
	StateFinalizing
	StateErrorStop
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstFragment:
		return "awaiting_first_fragment"
	case StateInserting:
		return "inserting"
	case StateFinalizing:
		return "finalizing"
	case StateErrorStop:
		return "error_stop"
	default:
		return "unknown"
	}
}

// Config controls the transient highlight.
type Config struct {
	HighlightAttribute string
	HighlightColor     string
	HighlightDuration  time.Duration
}

// DefaultConfig highlights with a yellow background for two seconds.
func DefaultConfig() Config {
	return Config{
		HighlightAttribute: document.AttrBackground,
		HighlightColor:     "#fff59d",
		HighlightDuration:  2 * time.Second,
	}
}

// Session tracks one streamed insertion. Everything the session wrote lives in
// [InsertStart, InsertStart+Inserted); generated text lives in [Anchor, Cursor).
type Session struct {
	ID          uuid.UUID
	Mode        protocol.Mode
	Anchor      int
	Cursor      int
	InsertStart int
	Inserted    int
	Prior       document.Selection

	// superseded is the previous session's highlight, flushed when this one
	// opened and put back if this one is rolled back.
	superseded *highlight
}

// Span returns the generated text range as index and length.
func (s Session) Span() (int, int) {
	return s.Anchor, s.Cursor - s.Anchor
}

// Summary describes a finalized session.
type Summary struct {
	SessionID uuid.UUID
	Mode      protocol.Mode
	Anchor    int
	Length    int
}

type highlight struct {
	sessionID uuid.UUID
	index     int
	length    int
	stop      func() bool
}

// Engine writes streamed fragments into a document. It is not safe for
// concurrent use; the owner of the document drives it.
type Engine struct {
	doc       document.Document
	cfg       Config
	scheduler Scheduler

	state   State
	session *Session
	pending *highlight
}

// NewEngine creates an engine over doc. Zero config fields fall back to DefaultConfig.
func NewEngine(doc document.Document, cfg Config, scheduler Scheduler) *Engine {
	def := DefaultConfig()
	if cfg.HighlightAttribute == "" {
		cfg.HighlightAttribute = def.HighlightAttribute
	}
	if cfg.HighlightColor == "" {
		cfg.HighlightColor = def.HighlightColor
	}
	if cfg.HighlightDuration <= 0 {
		cfg.HighlightDuration = def.HighlightDuration
	}
	if scheduler == nil {
		scheduler = NewTimerScheduler(nil)
	}
	return &Engine{doc: doc, cfg: cfg, scheduler: scheduler}
}

// State returns the current engine state.
func (e *Engine) State() State {
	return e.state
}

// Session returns a copy of the open session.
func (e *Engine) Session() (Session, bool) {
	if e.session == nil {
		return Session{}, false
	}
	return *e.session, true
}

// Expect marks that a request has been sent and its first fragment is due.
func (e *Engine) Expect() {
	if e.session == nil {
		e.state = StateAwaitingFirstFragment
	}
}

// Fragment writes one inbound fragment. The first fragment of a stream opens
// a session and prepares the document for mode.
func (e *Engine) Fragment(mode protocol.Mode, text string, first bool) error {
	if first {
		e.open(mode)
		if !lineBreakOnly(text) {
			e.insert(text)
		}
		return nil
	}

	if e.session == nil {
		return ErrNoSession
	}
	if e.session.Mode.Kind() == protocol.KindHeadline && lineBreakOnly(text) {
		return nil
	}
	e.insert(text)
	return nil
}

func (e *Engine) open(mode protocol.Mode) {
	superseded := e.flushHighlight()

	prior := e.doc.Selection()
	s := &Session{ID: uuid.New(), Mode: mode, Prior: prior, superseded: superseded}

	switch mode.Kind() {
	case protocol.KindHeadline:
		e.doc.SetSelection(0, 0)
		e.doc.InsertText(0, "\n\n")
		s.InsertStart, s.Inserted = 0, 2
		e.doc.SetSelection(0, 0)
		s.Anchor = 0
	case protocol.KindRewrite, protocol.KindGenerate:
		end := prior.End()
		e.doc.SetSelection(end, 0)
		e.doc.InsertText(end, "\n")
		s.InsertStart, s.Inserted = end, 1
		e.doc.SetSelection(end+1, 0)
		s.Anchor = end + 1
	default:
		end := prior.End()
		e.doc.SetSelection(end, 0)
		s.InsertStart = end
		s.Anchor = end
	}

	s.Cursor = s.Anchor
	e.session = s
	e.state = StateInserting
}

// insert writes text at the tracked cursor and advances it by the text's length.
func (e *Engine) insert(text string) {
	if text == "" {
		return
	}
	s := e.session
	e.doc.InsertText(s.Cursor, text)
	n := utf8.RuneCountInString(text)
	s.Cursor += n
	s.Inserted += n
	e.doc.SetSelection(s.Cursor, 0)
}

// Finish finalizes the open session: highlight the generated span, then
// either format the leading headline or append a trailing line break.
func (e *Engine) Finish() (Summary, error) {
	s := e.session
	if s == nil {
		return Summary{}, ErrNoSession
	}
	e.state = StateFinalizing

	index, length := s.Span()
	e.highlight(s.ID, index, length)

	if s.Mode.Kind() == protocol.KindHeadline {
		if blocks := e.doc.Blocks(0, 0); len(blocks) > 0 {
			first := blocks[0]
			e.doc.FormatRange(first.Index, first.Length, document.AttrHeader, HeadingLevel(first.Length))
		}
	} else {
		e.doc.SetSelection(s.Cursor, 0)
		e.doc.InsertText(s.Cursor, "\n")
		e.doc.SetSelection(s.Cursor+1, 0)
	}

	e.session = nil
	e.state = StateIdle
	return Summary{SessionID: s.ID, Mode: s.Mode, Anchor: index, Length: length}, nil
}

// Abort stops the open session without finalizing it. With rollback, every
// character the session inserted is removed and the prior selection restored,
// leaving the document as it was before the stream began.
func (e *Engine) Abort(rollback bool) {
	e.state = StateErrorStop
	s := e.session
	if s == nil {
		return
	}
	e.session = nil
	if rollback {
		e.doc.DeleteText(s.InsertStart, s.Inserted)
		if h := s.superseded; h != nil {
			e.highlight(h.sessionID, h.index, h.length)
		}
		e.doc.SetSelection(s.Prior.Index, s.Prior.Length)
	}
}

func (e *Engine) highlight(sessionID uuid.UUID, index, length int) {
	if length <= 0 {
		return
	}
	e.doc.FormatRange(index, length, e.cfg.HighlightAttribute, e.cfg.HighlightColor)

	h := &highlight{sessionID: sessionID, index: index, length: length}
	e.pending = h
	h.stop = e.scheduler.AfterFunc(e.cfg.HighlightDuration, func() {
		e.clearHighlight(h)
	})
}

// clearHighlight removes h if it is still the pending highlight. Callbacks of
// timers that were superseded by a newer session are ignored.
func (e *Engine) clearHighlight(h *highlight) {
	if e.pending != h {
		return
	}
	e.pending = nil
	e.doc.FormatRange(h.index, h.length, e.cfg.HighlightAttribute, nil)
}

// FlushHighlight removes the pending highlight now instead of waiting for its
// timer. Callers that hand the document off, e.g. to save it, call it first.
func (e *Engine) FlushHighlight() {
	e.flushHighlight()
}

// flushHighlight removes the pending highlight and cancels its timer. It
// returns the removed highlight, or nil when none was pending.
func (e *Engine) flushHighlight() *highlight {
	h := e.pending
	if h == nil {
		return nil
	}
	if h.stop != nil {
		h.stop()
	}
	e.clearHighlight(h)
	return h
}

// PendingHighlight reports the session whose highlight removal is scheduled.
func (e *Engine) PendingHighlight() (uuid.UUID, bool) {
	if e.pending == nil {
		return uuid.Nil, false
	}
	return e.pending.sessionID, true
}

// HeadingLevel sizes a heading by the length of its text.
func HeadingLevel(length int) int {
	switch {
	case length <= 40:
		return 1
	case length <= 80:
		return 2
	default:
		return 3
	}
}

func lineBreakOnly(text string) bool {
	return text != "" && strings.Trim(text, "\r\n") == ""
}
