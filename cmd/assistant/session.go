package main

import (
	"context"
	"fmt"
	"time"

	"freewrite-assistant/internal/bootstrap"
	"freewrite-assistant/internal/config"
	"freewrite-assistant/internal/dispatcher"
	"freewrite-assistant/internal/notice"
	"freewrite-assistant/internal/tracer"
	"freewrite-assistant/pkg/document"
	"freewrite-assistant/pkg/rating"

	"github.com/fatih/color"
)

const (
	pollInterval = 50 * time.Millisecond
	noticeGrace  = 200 * time.Millisecond
)

// outcome is what a finished session leaves behind.
type outcome struct {
	Text   string
	Rating *rating.Result
	Err    error
}

// runSession sends one action for doc and waits until its reply has been applied.
func runSession(ctx context.Context, doc *document.Memory, action dispatcher.Action) (*outcome, error) {
	cfg := config.Load()
	shutdownTracer := tracer.InitTracer("freewrite-assistant")
	defer shutdownTracer(context.Background())

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := bootstrap.NewContainer(cfg, doc)
	defer c.Close()

	notices, err := c.Notices.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	go printNotices(notices)

	connected := make(chan struct{})
	var once bool
	c.Client.OnStateChange(func(up bool) {
		if up && !once {
			once = true
			close(connected)
		}
	})
	c.Start(ctx)

	select {
	case <-connected:
	case <-ctx.Done():
		return nil, fmt.Errorf("could not reach the backend at %s: %w", cfg.Backend.WebSocketURL, ctx.Err())
	}

	if err := c.Loop.Do(ctx, func() error { return c.Dispatcher.Submit(ctx, action) }); err != nil {
		time.Sleep(noticeGrace)
		return nil, err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		var generating bool
		if err := c.Loop.Do(ctx, func() error {
			generating = c.Dispatcher.Generating()
			return nil
		}); err != nil {
			return nil, err
		}
		if !generating {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("no complete reply from the backend: %w", ctx.Err())
		case <-ticker.C:
		}
	}

	out := &outcome{}
	err = c.Loop.Do(ctx, func() error {
		// The highlight timer cannot fire once the loop stops.
		c.Engine.FlushHighlight()
		out.Text = doc.String()
		out.Rating = c.Dispatcher.LastRating()
		out.Err = c.Dispatcher.LastError()
		return nil
	})
	time.Sleep(noticeGrace)
	return out, err
}

func printNotices(notices <-chan notice.Notice) {
	for n := range notices {
		switch n.Kind {
		case notice.KindUpgradePrompt:
			color.Magenta("⚠ %s", n.Message)
		case notice.KindBlocking:
			color.Red("✗ %s", n.Message)
		case notice.KindTransient:
			color.Yellow("! %s", n.Message)
		case notice.KindRatingReady:
			color.Green("✓ %s Overall score: %d", n.Message, n.OverallScore)
		default:
			color.White("%s", n.Message)
		}
	}
}
