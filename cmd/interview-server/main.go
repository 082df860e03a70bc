package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mcxraider/agentic-travel-planner-backend/internal/httpapi"
	"github.com/mcxraider/agentic-travel-planner-backend/internal/interview"
	"github.com/mcxraider/agentic-travel-planner-backend/internal/observability"
	"github.com/mcxraider/agentic-travel-planner-backend/internal/report"
	"github.com/mcxraider/agentic-travel-planner-backend/internal/sessionstore"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "interview.db", "SQLite session database path (empty for in-memory sessions)")
	logsDir := flag.String("logs-dir", "logs", "Per-session debug log directory (empty to disable)")
	sessionTTL := flag.Duration("session-ttl", 24*time.Hour, "In-memory session expiry (0 disables)")
	traceEnabled := flag.Bool("trace", false, "Enable OpenTelemetry tracing")
	traceEndpoint := flag.String("trace-endpoint", "localhost:4318", "OTLP/HTTP trace endpoint")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := observability.NewTracerProvider(ctx, observability.TracingConfig{
		Enabled:        *traceEnabled,
		Endpoint:       *traceEndpoint,
		ServiceName:    "interview-server",
		ServiceVersion: "1.0.0",
	})
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}
	defer tp.Shutdown(context.Background())

	var store sessionstore.Store
	if *dbPath == "" {
		store = sessionstore.NewMemoryStore(sessionstore.MemoryConfig{TTL: *sessionTTL})
		logger.Info("using in-memory session store", zap.Duration("ttl", *sessionTTL))
	} else {
		sqlStore, err := sessionstore.NewSQLiteStore(*dbPath)
		if err != nil {
			logger.Fatal("open session store", zap.Error(err))
		}
		defer sqlStore.Close()
		store = sqlStore
		logger.Info("using sqlite session store", zap.String("path", *dbPath))
	}

	anthropic, err := interview.NewAnthropicGeneratorFromEnv()
	if err != nil {
		logger.Fatal("configure generator", zap.Error(err))
	}
	gen := interview.NewRetryingGenerator(anthropic, interview.DefaultRetryConfig())

	var opts []interview.ControllerOption
	if *logsDir != "" {
		opts = append(opts, interview.WithObserver(&httpapi.DebugObserver{LogsDir: *logsDir, Logger: logger}))
	}
	ctrl := interview.NewController(gen, interview.DefaultTierConfig(), opts...)

	handler := httpapi.NewServer(httpapi.Config{
		Store:      store,
		Controller: ctrl,
		Logger:     logger,
		LogsDir:    *logsDir,
		PDF:        report.NewChromiumPDFRenderer(),
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		if err := httpapi.Shutdown(context.Background(), srv, 15*time.Second); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("interview server listening", zap.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}
