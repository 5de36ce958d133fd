package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdbank/gdb/internal/app"
	"github.com/gdbank/gdb/internal/server"
)

func main() {
	ctx := context.Background()

	a, err := app.NewAccountsApp(ctx, os.Getenv("GDB_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize accounts service: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := server.NewServer(a)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	a.Logger.Info().Str("signal", sig.String()).Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("Shutdown error")
	}
}
