package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visitq/queue-service/internal/config"
	"visitq/queue-service/internal/httpapi"
	"visitq/queue-service/internal/hub"
	"visitq/queue-service/internal/queue"
	"visitq/queue-service/internal/store"
	"visitq/queue-service/internal/store/memory"
	"visitq/queue-service/internal/store/postgres"
	"visitq/queue-service/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("queue-service")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	var visitorStore store.VisitorStore
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer pool.Close()

		pgStore := postgres.NewStore(pool)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("schema bootstrap: %v", err)
		}
		cancel()
		visitorStore = pgStore
	} else {
		log.Printf("DB_DSN not set, using in-memory store")
		visitorStore = memory.NewStore()
	}

	h := hub.New()
	coordinator := queue.NewCoordinator(visitorStore, hub.NewFanout(h), queue.Options{
		Location: cfg.Timezone,
	})
	handler := httpapi.NewHandler(coordinator)
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.Handle("/api/", handler.Routes())
	mux.Handle("/healthz", handler.Routes())

	sockjsHandler := sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, cfg.HubSendBuffer)}
		h.Register(client)
		defer h.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		// Clients reconcile on connect by fetching /api/visitors/today; the
		// session stays open purely for pushed events.
		for {
			if _, err := session.Recv(); err != nil {
				return
			}
		}
	})
	mux.Handle("/realtime/", sockjsHandler)

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(mux)), "queue-service")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("queue-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
