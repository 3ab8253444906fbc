package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/app"
	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/server"
)

func main() {
	// Config path resolution (SURBMINER_CONFIG, binary dir, config/) lives in app
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	a, err := app.NewApp(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	common.PrintBanner(a.Config, a.Logger)

	// Background expiry sweep
	a.StartSweepScheduler()

	srv := server.NewServer(a)
	shutdownChan := make(chan struct{}, 1)
	srv.SetShutdownChannel(shutdownChan)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", a.Config.Server.Host, a.Config.Server.Port)).
		Msg("Server ready")

	// Wait for interrupt signal or HTTP shutdown request
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		a.Logger.Info().Msg("Shutdown signal received")
	case <-shutdownChan:
		a.Logger.Info().Msg("Shutdown requested over HTTP")
	}

	common.PrintShutdownBanner(a.Logger)

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	a.Close()
	a.Logger.Info().Msg("Server stopped")
}
