package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/darkodi/shortlinks/internal/config"
	"github.com/darkodi/shortlinks/internal/handler"
	"github.com/darkodi/shortlinks/internal/logger"
	"github.com/darkodi/shortlinks/internal/metrics"
	"github.com/darkodi/shortlinks/internal/middleware"
	"github.com/darkodi/shortlinks/internal/repository"
	"github.com/darkodi/shortlinks/internal/service"
	"github.com/darkodi/shortlinks/internal/validator"
)

func main() {
	// ============================================================
	// LOAD CONFIGURATION
	// ============================================================
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	log.Info("starting shortlinks",
		"version", cfg.App.Version,
		"level", cfg.Log.Level,
		"format", cfg.Log.Format,
		"environment", cfg.App.Environment)

	// ============================================================
	// INITIALIZE LAYERS
	// ============================================================
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	srv, err := newApp(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Error("failed to initialize", "error", err.Error())
		os.Exit(1)
	}

	// ============================================================
	// CREATE SERVER WITH CONFIG TIMEOUTS
	// ============================================================
	addr := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      srv.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if cfg.IsDevelopment() {
			fmt.Printf("Server starting on http://localhost%s\n", addr)
			fmt.Println("Endpoints:")
			fmt.Println("  POST   /links         - Create short link")
			fmt.Println("  GET    /links         - List links")
			fmt.Println("  GET    /links/{code}  - Link details")
			fmt.Println("  DELETE /links/{code}  - Delete link")
			fmt.Println("  GET    /{code}        - Redirect to target")
			fmt.Println("  GET    /healthz       - Liveness")
			fmt.Println("  GET    /readyz        - Readiness")
			fmt.Println("  GET    /metrics       - Prometheus metrics")
		}
		log.Info("server starting", "addr", addr, "store", srv.storeKind)
		serverErr <- server.ListenAndServe()
	}()

	// ============================================================
	// WAIT FOR SHUTDOWN OR ERROR
	// ============================================================
	select {
	case err := <-serverErr:
		log.Error("server error", "error", err.Error())
		srv.close(log)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err.Error())
			if err := server.Close(); err != nil {
				log.Error("forced shutdown failed", "error", err.Error())
			}
		}

		srv.close(log)
		log.Info("server stopped")
	}
}

// app is the wired service: store, metrics and the routed handler.
type app struct {
	store     repository.Store
	storeKind string
	handler   http.Handler
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	store, err := repository.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	v := validator.NewURLValidator().WithMaxLength(cfg.Allocation.MaxURLLength)
	if cfg.Allocation.BlockPrivateTargets {
		v = v.WithBlockPrivateIPs()
	}

	svc := service.NewLinkService(store, service.Options{
		BaseURL:     cfg.App.BaseURL,
		MaxAttempts: cfg.Allocation.MaxAttempts,
		Validator:   v,
		Metrics:     m,
	})

	h := handler.NewLinkHandler(svc, log, m, cfg.App.Version)

	// Outermost first
	router := h.SetupRoutes(
		middleware.RequestID,
		middleware.Recovery(log),
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Logging(log),
		middleware.Metrics(m),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)

	return &app{
		store:     store,
		storeKind: fmt.Sprintf("%T", store),
		handler:   router,
	}, nil
}

func (a *app) close(log *logger.Logger) {
	if err := a.store.Close(); err != nil {
		log.Error("failed to close store", "error", err.Error())
	}
}
