package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athulyan/docforge-go/internal/api"
	"github.com/athulyan/docforge-go/internal/core"
	"github.com/athulyan/docforge-go/internal/ingest"
	"github.com/athulyan/docforge-go/internal/jobs"
	"github.com/athulyan/docforge-go/internal/models"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Bound the lifetime of every background job; cancelled on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the core application components
	app, err := core.New(ctx)
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	// Start the progress hub before anything can publish to it.
	go app.WsHub().Run()

	// Start background maintenance (cache sweeps, job pruning).
	scheduler := jobs.StartMaintenance(app.Config(), app.Cache(), app.Queue(), app.Store())
	defer scheduler.Stop()

	// Watch the inbox directory when one is configured.
	if inbox := app.Config().InboxPath; inbox != "" {
		if err := os.MkdirAll(inbox, 0o755); err != nil {
			log.Fatalf("Could not create inbox directory: %v", err)
		}
		watcher := ingest.NewWatcher(inbox, app.Queue(),
			models.ProcessingOptions{ExtractText: true, AnalyzeText: true, GenerateThumb: true},
			app.Pipeline().SupportedExtensions())
		if err := watcher.Start(); err != nil {
			log.Fatalf("Could not start inbox watcher: %v", err)
		}
		defer watcher.Stop()
	}

	// Setup the API server
	server := api.NewServer(app)
	addr := fmt.Sprintf(":%d", app.Config().Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		log.Printf("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a context with a timeout to allow existing connections to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Attempt a graceful shutdown.
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
