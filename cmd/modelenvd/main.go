package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"modelenv/internal/httpapi"
	"modelenv/internal/store"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := ":8090"
	if v := os.Getenv("MODELENVD_ADDR"); v != "" {
		defaultAddr = v
	}
	defaultDataDir := os.Getenv("MODELENVD_DATA_DIR")
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8090")
	dataDir := flag.String("data-dir", defaultDataDir, "Model registry directory (default: per-user data dir)")
	logLevel := flag.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated list of allowed CORS origins (empty disables CORS)")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", *logLevel, err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	httpapi.SetLogger(logger)

	if origins := splitCSV(*corsOrigins); len(origins) > 0 {
		httpapi.SetCORSOptions(true, origins,
			[]string{"GET", "OPTIONS"},
			[]string{"Accept", "Content-Type"})
	}

	st, err := store.Open(*dataDir)
	if err != nil {
		log.Fatalf("failed to open model registry: %v", err)
	}

	// Re-read the registry when the CLI rewrites it on disk.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		if err := st.Watch(watchCtx, nil); err != nil && watchCtx.Err() == nil {
			logger.Warn().Err(err).Msg("registry watch stopped")
		}
	}()

	mux := httpapi.NewMux(st) // registers /models, /aliases, /healthz, /metrics
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", *addr).Str("data_dir", st.Dir()).Msg("modelenvd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
