package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shuliakovsky/trg-remote/pkg/api"
	"github.com/shuliakovsky/trg-remote/pkg/enrich"
	"github.com/shuliakovsky/trg-remote/pkg/geo"
	"github.com/shuliakovsky/trg-remote/pkg/metrics"
	"github.com/shuliakovsky/trg-remote/pkg/peers"
	"github.com/shuliakovsky/trg-remote/pkg/poller"
	"github.com/shuliakovsky/trg-remote/pkg/prefs"
	"github.com/shuliakovsky/trg-remote/pkg/registry"
	"github.com/shuliakovsky/trg-remote/pkg/rpc"
)

const dnsCacheRefresh = 5 * time.Minute

func newServeCmd() *cobra.Command {
	var envFile, profile, url string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll the daemon and serve the peer table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return fmt.Errorf("env file: %w", err)
			}
			if profile != "" {
				cfg.Profile = profile
			}
			if url != "" {
				cfg.DaemonURL = url
			}
			logger, err := initLogger(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer logger.Sync()

			logger.Info("trg_remote_starting", zap.String("version", versionString()))
			return run(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().StringVar(&profile, "profile", "", "profile name from TRG_PROFILE_DIR")
	cmd.Flags().StringVar(&url, "url", "", "daemon RPC url, overrides any profile")
	return cmd
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	prof, err := resolveProfile(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("daemon_profile",
		zap.String("profile", prof.Name),
		zap.Int("update_interval_sec", prof.UpdateIntervalSec),
		zap.Int("max_peers", prof.MaxPeers),
		zap.Bool("socks5", prof.Socks5 != ""),
		zap.Bool("geoip", peers.GeoIPEnabled),
	)

	metrics.Init()
	api.LogBodyLimit = cfg.LogBodyLimit

	daemon, err := rpc.New(prof.URL, rpc.Options{Timeout: prof.Timeout(), Socks5: prof.Socks5}, logger)
	if err != nil {
		return err
	}

	rec := &peers.Reconciler{Logger: logger}
	if peers.GeoIPEnabled {
		if db := geo.Open(cfg.GeoIPPath, logger); db != nil {
			defer db.Close()
			rec.Geo = db
		}
	}
	resolver, dnsCache := enrich.NewCached(enrich.Config{Timeout: cfg.DNSTimeout, Concurrency: cfg.DNSWorkers}, logger)
	defer resolver.Close()
	rec.Enricher = resolver

	model := peers.NewModel(peers.NewStore(prof.MaxPeers), rec, resolver.Completions(), logger)
	reg := registry.New()
	session := &prefs.Cache{}
	poll := poller.New(daemon, model, reg, session, poller.Config{
		Interval:  prof.UpdateInterval(),
		TorrentID: prof.TorrentID,
	}, logger)
	manager := prefs.NewManager(session, daemon, logger)

	srv := newServer(cfg.Host, cfg.Port, registerRoutes(model, reg, poll, manager, cfg, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return model.Run(gctx) })
	g.Go(func() error { return poll.Run(gctx) })
	g.Go(func() error {
		enrich.RefreshLoop(gctx, dnsCache, dnsCacheRefresh, logger)
		return nil
	})
	g.Go(func() error { return serve(gctx, srv, logger) })

	err = g.Wait()
	logger.Info("trg_remote_stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
