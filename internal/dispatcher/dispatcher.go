package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"freewrite-assistant/internal/notice"
	"freewrite-assistant/internal/pkg/logger"
	"freewrite-assistant/internal/repository/contract"
	"freewrite-assistant/pkg/document"
	"freewrite-assistant/pkg/events"
	"freewrite-assistant/pkg/extractor"
	"freewrite-assistant/pkg/insertion"
	"freewrite-assistant/pkg/protocol"
	"freewrite-assistant/pkg/rating"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrQuotaExceeded is raised by a tokens_used error. The document is rolled back.
	ErrQuotaExceeded = errors.New("token quota exceeded")
	// ErrGenerationFailure is raised by openai_error and max_tokens. Inserted text stays.
	ErrGenerationFailure = errors.New("generation failed")
	// ErrEmptySelection means a rewrite was asked for with nothing selected.
	ErrEmptySelection = errors.New("nothing is selected")
	// ErrMissingInput means no input text could be resolved for the action.
	ErrMissingInput = errors.New("no input text")
	// ErrUnsupportedMode means the mode cannot be used with the action.
	ErrUnsupportedMode = errors.New("unsupported mode")
	// ErrLoopStopped is returned by Loop.Do once the loop has exited.
	ErrLoopStopped = errors.New("event loop stopped")
)

const (
	quotaMessage       = "You have used all of your tokens. Upgrade your plan to keep writing."
	failureMessage     = "Failed to generate. Please try again."
	maxTokensMessage   = "The response reached its maximum length."
	shortContextNotice = "Write a little more before the cursor, or move the cursor after some text."
	emptySelection     = "Select the text you want to rewrite."
	missingInput       = "Enter some text first."
	ratingReady        = "Your rating is ready."
	notConnected       = "The assistant is not connected. Please try again in a moment."
	publishTimeout     = 5 * time.Second
)

// Sender delivers encoded requests to the backend.
type Sender interface {
	Send(ctx context.Context, data []byte) error
}

// EventPublisher records usage events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ThreadListener receives messages of the chat thread channels.
type ThreadListener interface {
	ThreadUpdate(env protocol.Envelope)
}

// ThreadListenerFunc adapts a function to ThreadListener.
type ThreadListenerFunc func(env protocol.Envelope)

func (f ThreadListenerFunc) ThreadUpdate(env protocol.Envelope) { f(env) }

type Options struct {
	ThreadID  string // generated when empty
	Extractor *extractor.Extractor
	Ratings   contract.RatingRepository // nil keeps results in memory only
	Notifier  notice.Notifier
	Events    EventPublisher // nil disables usage events
	Threads   ThreadListener
	Logger    logger.ILogger
}

// Dispatcher is the single point where actions turn into requests and inbound
// messages are routed to their owner. It is not safe for concurrent use; run
// it on a Loop.
type Dispatcher struct {
	doc       document.Document
	engine    *insertion.Engine
	sender    Sender
	extractor *extractor.Extractor
	ratings   contract.RatingRepository
	notifier  notice.Notifier
	events    EventPublisher
	threads   ThreadListener
	logger    logger.ILogger
	validate  *validator.Validate
	tracer    trace.Tracer

	threadID   string
	req        *request
	lastRating *rating.Result
	lastErr    error
}

func New(doc document.Document, engine *insertion.Engine, sender Sender, opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Extractor == nil {
		opts.Extractor = extractor.New(extractor.DefaultConfig())
	}
	if opts.Notifier == nil {
		opts.Notifier = notice.NotifierFunc(func(notice.Notice) {})
	}
	if opts.ThreadID == "" {
		opts.ThreadID = uuid.New().String()
	}

	d := &Dispatcher{
		doc:       doc,
		engine:    engine,
		sender:    sender,
		extractor: opts.Extractor,
		ratings:   opts.Ratings,
		notifier:  opts.Notifier,
		events:    opts.Events,
		threads:   opts.Threads,
		logger:    opts.Logger,
		validate:  validator.New(),
		tracer:    otel.Tracer("freewrite-assistant/dispatcher"),
		threadID:  opts.ThreadID,
	}
	if d.threads == nil {
		d.threads = ThreadListenerFunc(d.logThread)
	}
	return d
}

// ThreadID returns the thread every request is sent for.
func (d *Dispatcher) ThreadID() string {
	return d.threadID
}

// Generating reports whether a request is waiting for its terminal message.
func (d *Dispatcher) Generating() bool {
	return d.req != nil && !d.req.done
}

// LastRating returns the result of the latest completed rating, or nil when
// none completed or the latest failed to parse.
func (d *Dispatcher) LastRating() *rating.Result {
	return d.lastRating
}

// LastError returns the error of the latest failed request.
func (d *Dispatcher) LastError() error {
	return d.lastErr
}

// Submit builds the request for action, sends it and opens its lifecycle. A
// request that is still generating is replaced.
func (d *Dispatcher) Submit(ctx context.Context, action Action) error {
	var (
		req  protocol.Request
		mode protocol.Mode
		err  error
	)

	switch a := action.(type) {
	case Snippet:
		req, err = d.snippetRequest(a)
		mode = a.Mode
	case Rate:
		req, err = d.rateRequest(a)
		mode = a.Mode
	case Draft:
		req, err = d.draftRequest(a)
		mode = protocol.ModeDraft
	case ThreadMessage:
		req = protocol.ThreadRequest{InputText: a.Text, Type: a.Channel, ThreadID: a.ThreadID}
	default:
		return fmt.Errorf("unsupported action %T", action)
	}
	if err != nil {
		d.reject(err)
		return err
	}

	if err := d.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid %s request: %w", req.Channel(), err)
	}
	data, err := protocol.Encode(req)
	if err != nil {
		return err
	}

	if err := d.sender.Send(ctx, data); err != nil {
		d.notifier.Notify(notice.Notice{Kind: notice.KindTransient, Message: notConnected, ThreadID: d.threadID})
		return fmt.Errorf("failed to send %s request: %w", req.Channel(), err)
	}

	r := d.begin(ctx, req.Channel(), mode, false)
	d.logger.Info("Dispatcher", "Request sent", map[string]interface{}{
		"request_id": r.id.String(),
		"channel":    r.channel,
		"mode":       r.mode,
		"bytes":      len(data),
	})
	return nil
}

func (d *Dispatcher) snippetRequest(a Snippet) (protocol.Request, error) {
	text, err := d.snippetInput(a)
	if err != nil {
		return nil, err
	}
	return protocol.SnippetRequest{InputText: text, Mode: a.Mode, ThreadID: d.threadID}, nil
}

// snippetInput resolves the input text: explicit text first, then the document
// region the mode works on.
func (d *Dispatcher) snippetInput(a Snippet) (string, error) {
	switch a.Mode.Kind() {
	case protocol.KindContinuation, protocol.KindHeadline, protocol.KindRewrite, protocol.KindGenerate:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, a.Mode)
	}
	if strings.TrimSpace(a.Text) != "" {
		return a.Text, nil
	}

	switch a.Mode.Kind() {
	case protocol.KindContinuation:
		unit := extractor.UnitParagraph
		if a.Mode == protocol.ModeSentence {
			unit = extractor.UnitSentence
		}
		ex, err := d.extractor.Extract(d.doc, unit)
		if err != nil {
			return "", err
		}
		return ex.Text, nil
	case protocol.KindRewrite:
		text := document.SelectedText(d.doc)
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptySelection
		}
		return text, nil
	case protocol.KindHeadline:
		text := document.FullText(d.doc)
		if strings.TrimSpace(text) == "" {
			return "", ErrMissingInput
		}
		return text, nil
	default:
		return "", ErrMissingInput
	}
}

func (d *Dispatcher) rateRequest(a Rate) (protocol.Request, error) {
	if a.Mode.Kind() != protocol.KindRating {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, a.Mode)
	}
	text := a.Text
	if strings.TrimSpace(text) == "" {
		text = document.FullText(d.doc)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrMissingInput
	}
	return protocol.RatingRequest{InputText: text, Mode: a.Mode, ThreadID: d.threadID}, nil
}

func (d *Dispatcher) draftRequest(a Draft) (protocol.Request, error) {
	text := a.Text
	if strings.TrimSpace(text) == "" {
		text = document.FullText(d.doc)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrMissingInput
	}
	return protocol.DraftRequest{DraftText: text, ThreadID: d.threadID}, nil
}

// reject surfaces an action that could not be turned into a request.
func (d *Dispatcher) reject(err error) {
	var message string
	switch {
	case errors.Is(err, extractor.ErrContextTooShort):
		message = shortContextNotice
	case errors.Is(err, ErrEmptySelection):
		message = emptySelection
	case errors.Is(err, ErrMissingInput):
		message = missingInput
	default:
		return
	}
	d.logger.Info("Dispatcher", "Action rejected before sending", map[string]interface{}{"reason": err.Error()})
	d.notifier.Notify(notice.Notice{Kind: notice.KindBlocking, Message: message, ThreadID: d.threadID})
}

// begin opens a request lifecycle and makes it the active one. The error of
// an earlier request no longer applies.
func (d *Dispatcher) begin(ctx context.Context, channel protocol.Channel, mode protocol.Mode, implicit bool) *request {
	if prev := d.req; prev != nil && !prev.done {
		d.logger.Warn("Dispatcher", "Replacing unfinished request", map[string]interface{}{
			"request_id": prev.id.String(),
			"channel":    prev.channel,
		})
		prev.end(nil)
	}

	d.lastErr = nil

	r := &request{id: uuid.New(), channel: channel, mode: mode, implicit: implicit, started: time.Now()}
	spanCtx, span := d.tracer.Start(ctx, "assistant."+string(channel), trace.WithAttributes(
		attribute.String("assistant.request_id", r.id.String()),
		attribute.String("assistant.channel", string(channel)),
		attribute.String("assistant.mode", string(mode)),
		attribute.String("assistant.thread_id", d.threadID),
		attribute.Bool("assistant.implicit", implicit),
	))
	r.ctx = context.WithoutCancel(spanCtx)
	r.span = span
	d.req = r

	if r.route() == routeEngine {
		d.engine.Expect()
	}
	return r
}

// Handle decodes one inbound message and hands it to its owner. Malformed
// messages and messages on unknown channels are dropped.
func (d *Dispatcher) Handle(data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		d.logger.Debug("Dispatcher", "Dropping malformed message", map[string]interface{}{"error": err})
		return
	}

	if env.HasError() {
		d.handleError(env)
		return
	}

	switch rt := routeOf(env.Type, env.Mode); rt {
	case routeEngine:
		d.handleFragment(env)
	case routeRating:
		d.handleRating(env)
	case routeThread:
		d.handleThread(env)
	case routeNone:
		d.logger.Warn("Dispatcher", "Dropping message for unknown channel", map[string]interface{}{
			"channel": env.Type,
			"mode":    env.Mode,
		})
	}
}

// owner returns the active request for messages on rt. With no active request
// a stream that announces its first output opens an implicit one.
func (d *Dispatcher) owner(rt route, env protocol.Envelope, mode protocol.Mode) *request {
	if r := d.req; r != nil && !r.done {
		if r.route() == rt {
			return r
		}
		d.logger.Warn("Dispatcher", "Message does not belong to the active request", map[string]interface{}{
			"request_id": r.id.String(),
			"active":     r.route().String(),
			"received":   rt.String(),
		})
		return nil
	}
	if d.req == nil || env.FirstOutput {
		channel := env.Type
		if channel == "" {
			channel = protocol.ChannelSnippet
			if rt == routeRating {
				channel = protocol.ChannelRating
			}
		}
		return d.begin(context.Background(), channel, mode, true)
	}
	return nil
}

func (d *Dispatcher) handleFragment(env protocol.Envelope) {
	mode := env.Mode
	if mode == "" && env.Type == protocol.ChannelDraft {
		mode = protocol.ModeDraft
	}
	if mode == "" && d.req != nil {
		mode = d.req.mode
	}

	r := d.owner(routeEngine, env, mode)
	if r == nil {
		d.logger.Debug("Dispatcher", "Dropping fragment without a request", map[string]interface{}{"mode": mode})
		return
	}

	if env.FirstOutput || env.OutputText != "" {
		if err := d.engine.Fragment(mode, env.OutputText, env.FirstOutput); err != nil {
			d.logger.Warn("Dispatcher", "Dropping fragment", map[string]interface{}{"error": err, "mode": mode})
		}
	}

	if env.IsDone() {
		d.finishGeneration(r)
	}
}

// finishGeneration runs the finalize step of a generation request.
func (d *Dispatcher) finishGeneration(r *request) {
	summary, err := d.engine.Finish()
	if err != nil {
		d.logger.Warn("Dispatcher", "Completion without an open insertion", map[string]interface{}{
			"request_id": r.id.String(),
			"error":      err,
		})
	}
	if !r.end(nil) {
		return
	}

	d.logger.Info("Dispatcher", "Generation finished", map[string]interface{}{
		"request_id": r.id.String(),
		"mode":       r.mode,
		"anchor":     summary.Anchor,
		"length":     summary.Length,
	})
	d.publish(r, events.TypeGenerationCompleted, map[string]interface{}{
		"mode":       string(r.mode),
		"characters": summary.Length,
	})
}

func (d *Dispatcher) handleRating(env protocol.Envelope) {
	mode := env.Mode
	if mode == "" && d.req != nil {
		mode = d.req.mode
	}
	r := d.owner(routeRating, env, mode)
	if r == nil {
		return
	}

	r.buffer = append(r.buffer, env.OutputText...)
	if !env.IsDone() {
		return
	}

	buf := r.buffer
	result, err := rating.Parse(buf)
	if err != nil {
		d.lastRating = nil
		d.lastErr = err
		d.logger.Error("Dispatcher", "Failed to parse rating", map[string]interface{}{
			"request_id": r.id.String(),
			"error":      err,
			"bytes":      len(buf),
		})
		if r.end(err) {
			d.publish(r, events.TypeGenerationFailed, map[string]interface{}{
				"mode":   string(r.mode),
				"reason": "rating_parse_failure",
			})
		}
		return
	}

	d.lastRating = result
	if d.ratings != nil {
		if err := d.ratings.Save(r.ctx, d.threadID, result); err != nil {
			d.logger.Error("Dispatcher", "Failed to store rating", map[string]interface{}{"error": err, "thread_id": d.threadID})
		}
	}
	if !r.end(nil) {
		return
	}

	d.notifier.Notify(notice.Notice{
		Kind:         notice.KindRatingReady,
		Message:      ratingReady,
		SessionID:    r.id.String(),
		ThreadID:     d.threadID,
		OverallScore: result.OverallScore,
	})
	d.publish(r, events.TypeRatingCompleted, map[string]interface{}{
		"mode":          string(r.mode),
		"overall_score": result.OverallScore,
		"categories":    len(result.Scores),
	})
}

func (d *Dispatcher) handleThread(env protocol.Envelope) {
	d.threads.ThreadUpdate(env)
	if !env.IsDone() {
		return
	}
	if r := d.req; r != nil && r.route() == routeThread {
		r.end(nil)
	}
}

func (d *Dispatcher) logThread(env protocol.Envelope) {
	d.logger.Info("Dispatcher", "Thread update", map[string]interface{}{
		"channel":   env.Type,
		"thread_id": env.ThreadID,
		"status":    env.Status,
	})
}

// handleError stops the active request. Quota errors roll the document back to
// where it was before the stream began; other failures keep what was inserted.
// Finalize-by-formatting never runs for an errored request.
func (d *Dispatcher) handleError(env protocol.Envelope) {
	if r := d.req; r != nil && r.done {
		d.logger.Debug("Dispatcher", "Ignoring error for a finished request", map[string]interface{}{
			"request_id": r.id.String(),
			"code":       env.Error,
		})
		return
	}

	var (
		err     error
		n       notice.Notice
		rolling bool
	)
	switch env.Error {
	case protocol.ErrorTokensUsed:
		err = ErrQuotaExceeded
		rolling = true
		n = notice.Notice{Kind: notice.KindUpgradePrompt, Message: quotaMessage}
	case protocol.ErrorMaxTokens:
		err = fmt.Errorf("%w: %s", ErrGenerationFailure, env.Error)
		n = notice.Notice{Kind: notice.KindTransient, Message: maxTokensMessage}
	default:
		err = fmt.Errorf("%w: %s", ErrGenerationFailure, env.Error)
		n = notice.Notice{Kind: notice.KindTransient, Message: failureMessage}
	}
	if env.Message != "" && !rolling {
		n.Message = env.Message
	}
	n.ThreadID = d.threadID

	d.engine.Abort(rolling)
	d.lastErr = err

	details := map[string]interface{}{"code": env.Error, "message": env.Message}
	if r := d.req; r != nil {
		r.end(err)
		n.SessionID = r.id.String()
		details["request_id"] = r.id.String()
		d.publish(r, events.TypeGenerationFailed, map[string]interface{}{
			"mode":   string(r.mode),
			"reason": string(env.Error),
		})
	}
	d.logger.Warn("Dispatcher", "Request failed", details)
	d.notifier.Notify(n)
}

func (d *Dispatcher) publish(r *request, eventType string, data map[string]interface{}) {
	if d.events == nil {
		return
	}
	data["request_id"] = r.id.String()
	data["thread_id"] = d.threadID
	data["channel"] = string(r.channel)
	data["duration_ms"] = time.Since(r.started).Milliseconds()

	ctx, cancel := context.WithTimeout(r.ctx, publishTimeout)
	defer cancel()
	if err := d.events.Publish(ctx, events.New(eventType, data)); err != nil {
		d.logger.Warn("Dispatcher", "Failed to publish usage event", map[string]interface{}{"type": eventType, "error": err})
	}
}
