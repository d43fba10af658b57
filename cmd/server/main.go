package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-desk/auth"
	"chat-desk/bot"
	"chat-desk/domain"
	"chat-desk/infrastructure/ws"
	"chat-desk/internal"
	"chat-desk/observability"
	"chat-desk/repositories"
	"chat-desk/runtime"
	"chat-desk/runtime/workers"
	"chat-desk/services"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so that deferred cleanup always executes
// before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := internal.GetLoggerFromString(config.LogLevel)

	// 2. Archive storage (BadgerDB + Bluge index)
	// Live routing state is memory-only; only ended conversations and
	// offline query tickets touch disk.
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Router assembly
	monitor := observability.NewMonitor()
	supervisor := workers.NewSupervisor(logger)
	registry := runtime.NewRegistry()
	sessions := runtime.NewSessionStore()
	queue := domain.NewDomainQueue()
	tokens := auth.NewTokenIssuer(config.ReconnectTokenSecret, config.ReconnectTokenTTL)
	archive := repositories.NewConversationArchive(db, blugeWriter, logger)

	router := runtime.NewRouter(logger, supervisor, registry, sessions, queue,
		tokens, archive, monitor,
		config.BufferSize, config.ReconnectWindow, config.SweepInterval)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	// 5. Start the router loop and its supervised workers
	go func() {
		logger.Info("Starting router...")
		if err := router.Start(ctx); err != nil {
			errChan <- fmt.Errorf("router error: %w", err)
		}
	}()

	// 6. Transport
	var botClient *bot.Client
	if config.BotEndpoint != "" {
		botClient = bot.NewClient(logger, config.BotEndpoint, config.BotTimeout)
	}
	liveChatService := services.NewLiveChatService(router, registry)
	historyService := services.NewHistoryService(archive)
	queryService := services.NewQueryService(repositories.NewQueryRepository(db))

	server := ws.NewServer(logger, liveChatService, historyService, queryService,
		botClient, monitor, config.ConnectionBufferSize, config.WriteTimeout)

	mux := http.NewServeMux()
	server.Routes(mux)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: mux}

	go func() {
		logger.Info("Starting websocket server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	router.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}
