package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"

	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run keeps deferred cleanup on the error path; main only reports.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.Log.Level)
	gin.SetMode(cfg.Server.GinMode)

	srv, err := NewServer(cfg, log, chat.SystemClock)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Info("server stopped cleanly")
	return nil
}
