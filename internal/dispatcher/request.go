package dispatcher

import (
	"context"
	"time"

	"freewrite-assistant/pkg/protocol"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// request is the lifecycle of one outbound action, from send to its terminal
// sentinel or error. It owns the rating buffer of rating requests.
type request struct {
	id       uuid.UUID
	channel  protocol.Channel
	mode     protocol.Mode
	implicit bool // opened by an unsolicited stream
	started  time.Time

	ctx  context.Context
	span trace.Span

	buffer []byte
	done   bool
}

func (r *request) route() route {
	return routeOf(r.channel, r.mode)
}

// end closes the request. It reports false if the request was already closed.
func (r *request) end(err error) bool {
	if r.done {
		return false
	}
	r.done = true
	r.buffer = nil
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	} else {
		r.span.SetStatus(codes.Ok, "")
	}
	r.span.End()
	return true
}

type route int

const (
	routeNone route = iota
	routeEngine
	routeRating
	routeThread
)

func (r route) String() string {
	switch r {
	case routeEngine:
		return "engine"
	case routeRating:
		return "rating"
	case routeThread:
		return "thread"
	default:
		return "none"
	}
}

// routeOf names the single owner of messages on channel. Messages without a
// channel are routed by mode.
func routeOf(channel protocol.Channel, mode protocol.Mode) route {
	switch channel {
	case protocol.ChannelSnippet, protocol.ChannelDraft:
		return routeEngine
	case protocol.ChannelRating:
		return routeRating
	case protocol.ChannelCreate, protocol.ChannelRegenerate:
		return routeThread
	case "":
		switch mode.Kind() {
		case protocol.KindRating:
			return routeRating
		case protocol.KindContinuation, protocol.KindHeadline, protocol.KindRewrite,
			protocol.KindGenerate, protocol.KindDraft:
			return routeEngine
		case protocol.KindUnknown:
			return routeNone
		}
	}
	return routeNone
}
