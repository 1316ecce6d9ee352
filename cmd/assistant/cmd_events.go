package main

import (
	"context"
	"encoding/json"
	"fmt"

	"freewrite-assistant/internal/config"
	"freewrite-assistant/pkg/events"
	pktNats "freewrite-assistant/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var eventsDurable string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail usage events from NATS",
	Long: `Print usage events (GENERATION_COMPLETED, GENERATION_FAILED, RATING_COMPLETED)
as they are published. Requires NATS_URL.`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsDurable, "durable", "", "durable consumer name (default: ephemeral, new events only)")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Store.NatsURL == "" {
		return fmt.Errorf("NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.Store.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	cc, err := sub.Subscribe(ctx, pktNats.SubjectPrefix+">", eventsDurable, func(_ context.Context, event events.Event) error {
		payload, err := json.Marshal(event.Payload())
		if err != nil {
			return err
		}
		eventColor(event.EventType()).Fprintf(w, "%s %-22s %s\n",
			event.Timestamp().Format("15:04:05"), event.EventType(), payload)
		return nil
	})
	if err != nil {
		return err
	}
	defer cc.Stop()

	<-ctx.Done()
	return nil
}

func eventColor(eventType string) *color.Color {
	switch eventType {
	case events.TypeGenerationFailed:
		return color.New(color.FgRed)
	case events.TypeRatingCompleted:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgGreen)
	}
}
