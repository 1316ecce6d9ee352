package main

import (
	"freewrite-assistant/internal/dispatcher"
	"freewrite-assistant/pkg/document"
	"freewrite-assistant/pkg/protocol"

	"github.com/spf13/cobra"
)

var (
	threadRegenerate bool
	threadID         string
)

var threadCmd = &cobra.Command{
	Use:   "thread <message>",
	Short: "Post a message to a chat thread",
	Args:  cobra.ExactArgs(1),
	RunE:  runThread,
}

func init() {
	threadCmd.Flags().BoolVar(&threadRegenerate, "regenerate", false, "regenerate the last reply instead of creating a new entry")
	threadCmd.Flags().StringVar(&threadID, "thread-id", "", "thread to post to")
	rootCmd.AddCommand(threadCmd)
}

func runThread(cmd *cobra.Command, args []string) error {
	channel := protocol.ChannelCreate
	if threadRegenerate {
		channel = protocol.ChannelRegenerate
	}

	out, err := runSession(cmd.Context(), document.NewMemory(), dispatcher.ThreadMessage{
		Channel:  channel,
		Text:     args[0],
		ThreadID: threadID,
	})
	if err != nil {
		return err
	}
	return out.Err
}
