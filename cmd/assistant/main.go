package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	docPath string
	timeout time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Streaming writing assistant",
	Long: `assistant drives a document through the writing assistant backend.

A document is a plain text file or a serialized Lexical editor state. Each
command opens one session: it connects, sends one request built from the
document, streams the reply into the document and prints the result.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&docPath, "doc", "d", "", "document file (plain text or Lexical JSON)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "how long to wait for the backend")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
