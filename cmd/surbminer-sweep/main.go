// Command surbminer-sweep runs one expiry sweep and prints the result as JSON.
// It is meant for cron when the server's built-in scheduler is disabled.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/app"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	a, err := app.NewApp(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := a.SweepService.Run(ctx, time.Now())
	if result != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result)
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("Sweep failed")
		a.Close()
		os.Exit(1)
	}
	if len(result.Errors) > 0 {
		a.Close()
		os.Exit(2)
	}
}
