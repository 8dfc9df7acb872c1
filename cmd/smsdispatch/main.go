package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"smsdispatch/internal/api"
	"smsdispatch/internal/cache"
	"smsdispatch/internal/config"
	"smsdispatch/internal/metrics"
	"smsdispatch/internal/scheduler"
	"smsdispatch/internal/sender"
	"smsdispatch/internal/service"
	"smsdispatch/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatalf("ping postgres: %v", err)
	}
	cancel()

	st := store.NewPostgresTaskStore(db)
	if err := st.InitSchema(ctx); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	metrics.Register()

	executor := service.NewExecutor(sender.NewWebhook(cfg.Webhook.URL), st)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		executor.WithReceipts(cache.NewRedisCache(rdb, cfg.Redis.TTL))
	}

	dispatcher := service.NewDispatcher(st, executor, cfg.Scheduler.Workers)

	sched, err := scheduler.New(cfg.Scheduler.Interval, dispatcher.RunTick)
	if err != nil {
		log.Fatalf("create scheduler: %v", err)
	}

	svc := service.NewTaskService(st, cfg.Limits.MaxContentWords)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: loggingMiddleware(api.Router(api.NewHandler(svc, sched))),
	}

	startScheduler(ctx, sched)

	go func() {
		slog.Info("http server listening", "addr", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown requested")

	// No new ticks after shutdown; the in-flight tick drains first.
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
}

// startScheduler launches the tick loop detached from the shutdown signal.
// A SIGTERM must never cancel an in-flight send (that would record a terminal
// failure for a message whose remote state is unknown); shutdown goes through
// the Stop() drain instead.
func startScheduler(ctx context.Context, sched *scheduler.Scheduler) bool {
	return sched.Start(context.WithoutCancel(ctx))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		// Label by the matched route pattern, never the raw path: task ids in
		// the URL would mint one time series per task.
		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.IncHTTP(endpoint)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
