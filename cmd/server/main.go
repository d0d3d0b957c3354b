package main

import (
	"call-lab/domain"
	"call-lab/infrastructure/ws"
	"call-lab/internal"
	"call-lab/moderation"
	"call-lab/observability"
	"call-lab/repositories"
	"call-lab/runtime"
	"call-lab/runtime/workers"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	censorChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Moderation pipeline
	censoredData, err := runtime.NewCensoredLoader().LoadAll("censored")
	if err != nil {
		return fmt.Errorf("censored words loading failed: %w", err)
	}
	log.Info("Censored words loaded",
		"words", len(censoredData.Words),
		"languages", strings.Join(censoredData.Languages, ","))

	moderator, err := moderation.NewModerator(censoredData.Words, censorChar)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}

	// 4. Core wiring
	monitor := observability.NewMonitor()
	registry := runtime.NewRegistry()
	store := repositories.NewRoomStore(db, log)
	messenger := runtime.NewMessenger(log, registry, monitor, config.DeliveryTimeout)
	chatQueue := make(chan domain.ChatPost, config.BufferSize)
	coordinator := runtime.NewCoordinator(log, store, registry, messenger, monitor, chatQueue)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervised workers
	sup := workers.NewSupervisor(log)
	sup.Add(
		workers.NewModerationWorker(moderator, messenger, monitor, chatQueue, log),
		workers.NewHeartbeatWorker(log, registry, monitor, config.MetricInterval),
	)
	go sup.Run(ctx)

	// 7. Debug inspector, only when running at debug level
	if strings.EqualFold(config.LogLevel, "debug") {
		internal.StartDebugServer(db, config.DebugPort, "/inspect", internal.RoomSlotMapper, func() map[string]any {
			stats := monitor.Snapshot()
			registryStats := registry.Stats()
			return map[string]any{
				"Sessions":   registryStats.Sessions,
				"Rooms":      registryStats.Rooms,
				"DirectSent": stats.DirectSent,
				"Broadcasts": stats.Broadcasts,
				"Failed":     stats.DeliveryFailed,
			}
		})
		log.Info("Debug inspector started", "port", config.DebugPort)
	}

	// 8. HTTP server (websocket endpoint + health)
	server := ws.NewServer(log, coordinator, registry, config.ConnectionBufferSize)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.Handler())
	mux.HandleFunc("/health", ws.HealthHandler)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: mux}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting signaling server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
