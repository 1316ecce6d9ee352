package notice

import (
	"context"
	"encoding/json"
	"fmt"

	"freewrite-assistant/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic carries every notice raised by the dispatcher.
const Topic = "assistant.notices"

// Kind says how a notice should be presented.
type Kind string

const (
	// KindUpgradePrompt asks the user to upgrade after the token quota ran out.
	KindUpgradePrompt Kind = "upgrade_prompt"
	// KindTransient is a short-lived message, e.g. a failed generation.
	KindTransient Kind = "transient"
	// KindBlocking must be acknowledged; no request was sent.
	KindBlocking Kind = "blocking"
	// KindRatingReady announces a parsed rating result.
	KindRatingReady Kind = "rating_ready"
)

// Notice is a user-facing message.
type Notice struct {
	Kind         Kind   `json:"kind"`
	Message      string `json:"message"`
	SessionID    string `json:"session_id,omitempty"`
	ThreadID     string `json:"thread_id,omitempty"`
	OverallScore int    `json:"overall_score,omitempty"`
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Bus publishes notices on an in-process watermill channel.
type Bus struct {
	pubSub *gochannel.GoChannel
	logger logger.ILogger
}

// NewPubSub creates the in-process channel the bus runs on.
func NewPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
}

func NewBus(pubSub *gochannel.GoChannel, log logger.ILogger) *Bus {
	return &Bus{pubSub: pubSub, logger: log}
}

// Notify publishes n. Failures are logged; a lost notice never blocks the caller.
func (b *Bus) Notify(n Notice) {
	payload, err := json.Marshal(n)
	if err != nil {
		b.logger.Error("NoticeBus", "Failed to encode notice", map[string]interface{}{"error": err, "kind": n.Kind})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubSub.Publish(Topic, msg); err != nil {
		b.logger.Error("NoticeBus", "Failed to publish notice", map[string]interface{}{"error": err, "kind": n.Kind})
	}
}

// Subscribe streams notices until ctx is done.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Notice, error) {
	messages, err := b.pubSub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to notices: %w", err)
	}

	out := make(chan Notice, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var n Notice
			if err := json.Unmarshal(msg.Payload, &n); err != nil {
				b.logger.Warn("NoticeBus", "Dropping undecodable notice", map[string]interface{}{"error": err})
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts the underlying channel down.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}
