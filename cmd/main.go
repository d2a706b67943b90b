// Package main is the production entry point for the osutune music
// library player.
//
// Build:
//
//	go build -o build/osutune ./cmd
//
// Run:
//
//	./build/osutune
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tejashwikalptaru/osutune/internal/app"
)

func main() {
	application, err := app.New(app.Options{})
	if err != nil {
		log.Fatalf("failed to create application: %v", err)
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Blocks until interrupted.
	if err := application.Run(ctx); err != nil {
		log.Printf("application error: %v", err)
	}
}
