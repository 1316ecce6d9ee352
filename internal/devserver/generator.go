package devserver

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"freewrite-assistant/pkg/protocol"

	"github.com/google/uuid"
)

// Markers in the input text that make the generator answer with an error.
const (
	MarkerQuota     = "#quota"
	MarkerFailure   = "#fail"
	MarkerMaxTokens = "#maxtokens"
)

var ratingCategories = map[protocol.Mode][]string{
	protocol.ModeVSpice: {"Vulnerability", "Specificity", "Perspective", "Insight", "Curiosity", "Expression"},
	protocol.ModeLimmy:  {"Logic", "Imagery", "Momentum", "Mood", "Voice"},
}

// Emit delivers one reply. It returns false once the connection is gone.
type Emit func(env protocol.Envelope) bool

// Generator answers requests with canned streamed replies.
type Generator struct {
	delay time.Duration
}

func NewGenerator(delay time.Duration) *Generator {
	return &Generator{delay: delay}
}

// Respond streams the replies to req until they are done or ctx ends.
func (g *Generator) Respond(ctx context.Context, req protocol.Envelope, emit Emit) {
	input := req.InputText
	if req.Type == protocol.ChannelDraft {
		input = req.DraftText
	}

	switch {
	case strings.Contains(input, MarkerQuota):
		emit(protocol.Envelope{Error: protocol.ErrorTokensUsed})
		return
	case strings.Contains(input, MarkerFailure):
		g.failAfterFirst(ctx, req, protocol.ErrorOpenAI, "", emit)
		return
	case strings.Contains(input, MarkerMaxTokens):
		g.failAfterFirst(ctx, req, protocol.ErrorMaxTokens, "The response reached its maximum length.", emit)
		return
	}

	switch req.Type {
	case protocol.ChannelSnippet:
		g.stream(ctx, req.Type, req.Mode, snippetText(req.Mode, input), emit)
	case protocol.ChannelDraft:
		g.stream(ctx, req.Type, protocol.ModeDraft, " The draft is saved; keep going.", emit)
	case protocol.ChannelRating:
		g.stream(ctx, req.Type, req.Mode, RatingText(req.Mode, input), emit)
	case protocol.ChannelCreate, protocol.ChannelRegenerate:
		threadID := req.ThreadID
		if threadID == "" {
			threadID = uuid.New().String()
		}
		emit(protocol.Envelope{
			Type:       req.Type,
			ThreadID:   threadID,
			OutputText: "Noted: " + firstWords(input, 8),
			Status:     protocol.StatusDone,
		})
	default:
		emit(protocol.Envelope{Error: protocol.ErrorOpenAI, Message: fmt.Sprintf("unsupported channel %q", req.Type)})
	}
}

func (g *Generator) stream(ctx context.Context, channel protocol.Channel, mode protocol.Mode, text string, emit Emit) {
	for i, piece := range fragments(text) {
		if i > 0 && !g.wait(ctx) {
			return
		}
		if !emit(protocol.Envelope{Type: channel, Mode: mode, OutputText: piece, FirstOutput: i == 0}) {
			return
		}
	}
	if !g.wait(ctx) {
		return
	}
	emit(protocol.Envelope{Type: channel, Mode: mode, Status: protocol.StatusDone})
}

func (g *Generator) failAfterFirst(ctx context.Context, req protocol.Envelope, code protocol.ErrorCode, message string, emit Emit) {
	if !emit(protocol.Envelope{Type: req.Type, Mode: req.Mode, OutputText: " Partial", FirstOutput: true}) {
		return
	}
	if !g.wait(ctx) {
		return
	}
	emit(protocol.Envelope{Type: req.Type, Mode: req.Mode, Status: protocol.StatusDone, Error: code, Message: message})
}

func (g *Generator) wait(ctx context.Context) bool {
	if g.delay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(g.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func snippetText(mode protocol.Mode, input string) string {
	switch mode {
	case protocol.ModeSentence:
		return " And then, quite suddenly, everything changed."
	case protocol.ModeParagraph:
		return " The light shifted across the room. Nobody spoke for a while. When they did, it was to agree that the plan had to change."
	case protocol.ModeHeadline:
		return titleCase(firstWords(input, 6)) + "\n"
	case protocol.ModeFlowery:
		return "Resplendent and unhurried, " + strings.TrimSpace(input)
	case protocol.ModeTransform:
		return "Put another way: " + strings.TrimSpace(input)
	case protocol.ModeGenerate:
		return "Here is a short piece on " + strings.TrimSpace(input) + ". It begins quietly and ends with a question."
	default:
		return " ..."
	}
}

// RatingText builds a rubric response for input, scored deterministically
// from its length.
func RatingText(mode protocol.Mode, input string) string {
	categories, ok := ratingCategories[mode]
	if !ok {
		categories = ratingCategories[protocol.ModeVSpice]
	}
	n := utf8.RuneCountInString(input)

	sections := make([]string, 0, len(categories))
	for i, category := range categories {
		score := 50 + (n*7+i*13)%50
		sections = append(sections, fmt.Sprintf("%s: %d/100\nFeedback: %s", category, score, feedbackFor(score)))
	}
	return strings.Join(sections, "\n\n")
}

func feedbackFor(score int) string {
	switch {
	case score >= 85:
		return "Strong work here."
	case score >= 70:
		return "Solid, with room to push further."
	default:
		return "Needs more attention."
	}
}

// fragments splits text into word sized pieces, keeping the separators.
func fragments(text string) []string {
	pieces := strings.SplitAfter(text, " ")
	out := pieces[:0]
	for _, p := range pieces {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
