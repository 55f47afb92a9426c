package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/marcelsud/posthook"
	"github.com/marcelsud/posthook/hook/signature"
	"github.com/marcelsud/posthook/hook/signature/redis"
	"github.com/marcelsud/posthook/internal/http/chi"
	"github.com/marcelsud/posthook/metrics"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

/* receiver - accepts Posthook deliveries, verifies them and logs them
 * Environment:
 *   POSTHOOK_SIGNING_KEY  required
 *   PORT                  default 8080
 *   REDIS_ADDR            optional; enables the shared replay guard
 *   REDIS_PASSWORD, REDIS_DB
 * Without Redis, replays are rejected per process with an in-memory guard
 */

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "posthook-receiver").Logger()

	guard, health, closeGuard, err := replayGuard()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer closeGuard()

	verifier, err := posthook.NewSignatures("",
		signature.WithReplayGuard(guard),
		signature.WithLogger(logger),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	exporter, err := metrics.NewOTelExporter()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer exporter.Shutdown(context.Background())

	instruments, err := metrics.NewInstruments(exporter.MeterProvider())
	if err != nil {
		fmt.Println(err)
		return
	}

	routes := chi.NewRoutes()
	if err := routes.Handle("/*", logDeliveries(logger)); err != nil {
		fmt.Println(err)
		return
	}

	r := chi.DeliveryHandlers(verifier, routes, chi.Options{
		Metrics:     exporter.Handler(),
		Timeout:     TIMEOUT,
		Logger:      logger,
		Instruments: instruments,
		HealthCheck: health,
	})
	port := getenv("PORT", "8080")
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	fmt.Printf("Listening on port %s\n", port)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

// replayGuard also returns the health check for /health; it is nil for the in-memory guard
func replayGuard() (signature.ReplayGuard, func(context.Context) error, func(), error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return signature.NewMemoryReplayGuard(10_000, 2*signature.DefaultTolerance), nil, func() {}, nil
	}
	db, err := strconv.Atoi(getenv("REDIS_DB", "0"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	g, err := redis.NewReplayGuard(addr, os.Getenv("REDIS_PASSWORD"), db)
	if err != nil {
		return nil, nil, nil, err
	}
	return g, g.Ping, func() { g.Close() }, nil
}

func logDeliveries(logger zerolog.Logger) chi.Dispatcher {
	return chi.DispatcherFunc(func(_ context.Context, d signature.Delivery) error {
		event := logger.Info().
			Str("hook_id", d.HookID).
			Str("path", d.Path).
			Time("post_at", d.PostAt)
		if len(d.Data) > 0 {
			event = event.RawJSON("data", d.Data)
		}
		event.Msg("delivery received")
		return nil
	})
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing server close after %s", TIMEOUT)
	default:
		errShutdown <- fmt.Errorf("shutting down server: %w", err)
	}
}
