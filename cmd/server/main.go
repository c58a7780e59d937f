package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/cadence/internal/config"
	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/report"
	"github.com/rpggio/cadence/internal/domain/timeline"
	"github.com/rpggio/cadence/internal/mcp"
	"github.com/rpggio/cadence/internal/sqlite"
	"github.com/rpggio/cadence/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := newLogger(cfg.Log, cfg.Transport.Mode)
	defer closeLog()

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	keys := sqlite.NewAPIKeyRepository(db)
	if len(os.Args) > 1 && os.Args[1] == "create-api-key" {
		if err := createAPIKey(keys, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	resolver, err := cfg.Events.PolicyResolver()
	if err != nil {
		logger.Error("invalid event policy configuration", "error", err)
		os.Exit(1)
	}

	eventRepo := sqlite.NewEventRepository(db)
	recordRepo := sqlite.NewRecordRepository(db)
	timelineRepo := sqlite.NewTimelineRepository(db)

	timelineSvc := timeline.NewService(timelineRepo, logger)
	eventSvc := event.NewService(eventRepo, timelineSvc, resolver, logger).
		WithHistory(sqlite.NewHistoryRepository(db))
	recordSvc := adherence.NewService(recordRepo, logger)
	reportSvc := report.NewService(timelineRepo, eventRepo, recordRepo, logger)

	services := mcp.Services{
		Events:    eventSvc,
		Schedules: timelineSvc,
		Records:   recordSvc,
		Reports:   reportSvc,
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      keys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		DefaultTenant: cfg.Auth.DefaultTenant,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
		return
	}

	authMiddleware := transport.StaticTenant(cfg.Auth.DefaultTenant)
	if cfg.Auth.Enabled {
		authMiddleware = transport.AuthMiddleware(keys)
	}
	handler := mcp.NewHandler(services, logger)
	runHTTPMode(logger, mcpServer, handler, authMiddleware, cfg.Server.Host, cfg.Server.Port)
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func runHTTPMode(logger *slog.Logger, mcpServer *sdkmcp.Server, handler transport.MCPHandler, auth func(http.Handler) http.Handler, host string, port int) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(handler, mcpHandler, auth),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

// createAPIKey registers a key for a study: create-api-key <tenant> [description].
// The generated token is printed once; only its hash is stored.
func createAPIKey(keys *sqlite.APIKeyRepository, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return fmt.Errorf("usage: create-api-key <tenant> [description]")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(raw)
	if err := keys.Create(context.Background(), args[0], token, description); err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
