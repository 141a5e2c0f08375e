package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/sharelyst/internal/auth"
	"github.com/mmynk/sharelyst/internal/config"
	"github.com/mmynk/sharelyst/internal/janitor"
	"github.com/mmynk/sharelyst/internal/metrics"
	"github.com/mmynk/sharelyst/internal/middleware"
	"github.com/mmynk/sharelyst/internal/service"
	"github.com/mmynk/sharelyst/internal/settlement"
	"github.com/mmynk/sharelyst/internal/storage"
	"github.com/mmynk/sharelyst/internal/storage/sqlite"
	"github.com/mmynk/sharelyst/pkg/api/apiconnect"
	"github.com/mmynk/sharelyst/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("")
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	m := metrics.New(prometheus.DefaultRegisterer)
	engine := settlement.NewEngine(store, settlement.WithMetrics(m))

	if cfg.Janitor.Enabled {
		sweeper, err := janitor.New(store, engine, m).Start(cfg.Janitor.Schedule)
		if err != nil {
			return err
		}
		defer func() { <-sweeper.Stop().Done() }()
	}

	// h2c serves HTTP/2 without TLS for gRPC-style Connect clients.
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(newHandler(cfg, store, engine, m, prometheus.DefaultGatherer), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Connect server starting", "address", cfg.Server.Addr, "env", cfg.Env)
	return serve(ctx, srv)
}

// newHandler mounts every RPC service plus /metrics and /healthz.
func newHandler(cfg config.Config, store storage.Store, engine *settlement.Engine, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store, 0)

	public := connect.WithInterceptors(middleware.LoggingInterceptor(m), middleware.OptionalAuth(jwtManager))
	protected := connect.WithInterceptors(middleware.LoggingInterceptor(m), middleware.RequireAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(service.NewAuthService(authenticator, store, jwtManager, slog.Default()), public))
	mux.Handle(apiconnect.NewGroupServiceHandler(service.NewGroupService(store), protected))
	mux.Handle(apiconnect.NewTransactionServiceHandler(service.NewTransactionService(store), protected))
	mux.Handle(apiconnect.NewSettlementServiceHandler(service.NewSettlementService(store, engine), protected))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return loggingMiddleware(corsMiddleware(cfg.Server.CORSOrigin, mux))
}

// serve runs srv until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
