package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/durent/durent-backend/internal/app"
	"github.com/durent/durent-backend/internal/cron"
	"github.com/durent/durent-backend/pkg/config"
	"github.com/durent/durent-backend/pkg/db"
	"github.com/durent/durent-backend/pkg/instance"
	"github.com/durent/durent-backend/pkg/logger"
	"github.com/durent/durent-backend/pkg/migrate"
	"github.com/durent/durent-backend/pkg/redis"
)

func main() {
	replayJob := flag.String("replay-fire", "", "job name whose scheduled fire should be released and run once, then exit")
	fireAt := flag.String("fire-at", "", "fire time for -replay-fire (RFC3339, minute resolution)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Instance:    instance.GetID(),
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	components, err := app.Build(context.Background(), app.Params{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Registerer: registry,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *replayJob != "" {
		if err := replayFire(ctx, redisClient, cfg, components.Cron, *replayJob, *fireAt, logg); err != nil {
			logg.Error(ctx, "failed to replay cron fire", err)
			os.Exit(1)
		}
		return
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"timezone":    cfg.Scheduler.Timezone,
	})

	// the worker has no router; expose metrics on the app port when one is set
	if cfg.App.Port != "" {
		metricsServer := &http.Server{
			Addr:              ":" + cfg.App.Port,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "metrics server stopped", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	logg.Info(ctx, "starting cron worker")

	if err := components.Cron.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// replayFire re-runs a scheduled fire that failed. The old marker is dropped
// and re-claimed under this process's owner id before the job runs.
func replayFire(ctx context.Context, client *redis.Client, cfg *config.Config, runner *cron.Service, job, at string, logg *logger.Logger) error {
	if at == "" {
		return errors.New("-fire-at is required with -replay-fire")
	}
	fire, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return fmt.Errorf("parse -fire-at: %w", err)
	}
	guard, err := cron.NewRedisFireGuard(client, cfg.Scheduler.DedupTTL)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"job": job, "fire": cron.FireKey(fire)})
	if owner, ok, err := guard.Owner(ctx, job, fire); err != nil {
		return err
	} else if ok {
		logg.Info(logg.WithField(ctx, "previous_owner", owner), "cron.fire.releasing")
		if err := guard.Release(ctx, job, fire); err != nil {
			return err
		}
	}

	claimed, err := guard.Claim(ctx, job, fire)
	if err != nil {
		return err
	}
	if !claimed {
		logg.Info(ctx, "cron.fire.replay_skipped")
		return nil
	}
	return runner.Trigger(ctx, job)
}
