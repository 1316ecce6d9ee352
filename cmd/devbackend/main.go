package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freewrite-assistant/internal/bootstrap"
	"freewrite-assistant/internal/config"
	"freewrite-assistant/internal/pkg/serverutils"
	"freewrite-assistant/internal/tracer"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "devbackend",
	Short: "Development generation backend",
	Long: `devbackend speaks the assistant's websocket protocol and streams canned
replies. Put #quota, #fail or #maxtokens in the input text to get the
matching error back.`,
	SilenceUsage: true,
	RunE:         runServer,
}

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a token for BACKEND_TOKEN signed with JWT_SECRET",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "dev-user", "user_id claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	shutdownTracer := tracer.InitTracer("freewrite-devbackend")
	defer shutdownTracer(context.Background())

	cfg := config.Load()
	container := bootstrap.NewBackendContainer(cfg)
	defer container.Logger.Sync()

	ctx := cmd.Context()
	go container.Hub.Run(ctx)

	go func() {
		<-ctx.Done()
		if err := container.Server.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	return container.Server.Run()
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.DevServer.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set; the backend accepts anonymous connections")
	}
	token, err := serverutils.IssueToken(tokenUser, cfg.DevServer.JWTSecret, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
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
