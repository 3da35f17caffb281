package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/keshon/jira-bot/internal/command/mention"
	_ "github.com/keshon/jira-bot/internal/command/mod"
	_ "github.com/keshon/jira-bot/internal/command/secret"
	_ "github.com/keshon/jira-bot/internal/command/tools"

	"github.com/keshon/jira-bot/datastore"
	"github.com/keshon/jira-bot/internal/config"
	"github.com/keshon/jira-bot/internal/discord"
	"github.com/keshon/jira-bot/internal/httpserver"
	"github.com/keshon/jira-bot/internal/logging"
	"github.com/keshon/jira-bot/internal/metrics"
	"github.com/keshon/jira-bot/internal/storage"
	"github.com/keshon/jira-bot/internal/strikes"
	"github.com/keshon/jira-bot/pkg/jobmgr"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Jira exited with error")
	}
	log.Info().Msg("Jira exited cleanly")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("backend", cfg.LedgerBackend).Msg("Starting Jira")

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	ledger := strikes.NewStore(backend)
	m := metrics.New(prometheus.DefaultRegisterer)

	jobs := jobmgr.NewManager(ctx, func(status string) {
		log.Debug().Str("status", status).Msg("Background job")
	})
	if err := jobs.StartAsync("ledger-sweeper", func(ctx context.Context) error {
		return strikes.RunSweeper(ctx, ledger, cfg.SweepInterval, m)
	}); err != nil {
		return err
	}
	defer jobs.Wait()
	defer jobs.StopAll()

	b, err := discord.New(cfg, ledger, m)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Run(gctx) })

	if cfg.HTTPAddr != "" {
		srv := httpserver.New(cfg.HTTPAddr, httpserver.Router(prometheus.DefaultGatherer))
		g.Go(func() error {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("Ops HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// openBackend returns the document store the strike ledger persists to.
func openBackend(ctx context.Context, cfg *config.Config) (strikes.Backend, func() error, error) {
	switch cfg.LedgerBackend {
	case config.BackendRedis:
		client, err := storage.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		doc := storage.NewRedisDocument(client, cfg.RedisKey)
		log.Info().Str("key", doc.Key()).Msg("Strike ledger stored in Redis")
		return doc, client.Close, nil
	default:
		fsCfg := datastore.DefaultConfig(cfg.LedgerPath)
		fsCfg.BackupCount = cfg.LedgerBackups
		store, err := datastore.NewWithConfig(fsCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open ledger file: %w", err)
		}
		log.Info().Str("path", store.Path()).Msg("Strike ledger stored on disk")
		return store, func() error { return nil }, nil
	}
}

