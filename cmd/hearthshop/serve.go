// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hearthshop/hearthshop/internal/auth"
	authpg "github.com/hearthshop/hearthshop/internal/auth/postgres"
	"github.com/hearthshop/hearthshop/internal/config"
	"github.com/hearthshop/hearthshop/internal/logging"
	"github.com/hearthshop/hearthshop/internal/mail"
	"github.com/hearthshop/hearthshop/internal/observability"
	"github.com/hearthshop/hearthshop/internal/shop"
	shoppg "github.com/hearthshop/hearthshop/internal/shop/postgres"
	"github.com/hearthshop/hearthshop/internal/store"
	"github.com/hearthshop/hearthshop/internal/web"
)

// shutdownTimeout bounds graceful shutdown of the servers and the mail queue.
const shutdownTimeout = 15 * time.Second

// sessionSweepInterval controls how often expired web sessions are purged.
const sessionSweepInterval = time.Hour

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web and observability servers",
		Long: `Start the storefront web server and the observability server
(Prometheus metrics and health probes) with graceful shutdown.`,
		RunE: runServe,
	}

	// Flag names mirror config keys so posflag can overlay them directly.
	cmd.Flags().String("http.addr", "", "web server listen address")
	cmd.Flags().String("http.base_url", "", "public base URL used in reset links")
	cmd.Flags().String("metrics.addr", "", "observability server listen address")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().String("log.level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("log.format", "", "log format (json, text)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("hearthshop", version, cfg.Log.Level, cfg.Log.Format)
	logger := logging.Setup("hearthshop", version, cfg.Log.Level, cfg.Log.Format, nil)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	obsServer := observability.NewServer(cfg.Metrics.Addr, readinessCheck(pool))
	metrics := obsServer.Metrics()

	userRepo := authpg.NewUserRepository(pool)
	sessionRepo := authpg.NewWebSessionRepository(pool)
	productRepo := shoppg.NewProductRepository(pool)

	hasher := auth.NewBcryptHasher()

	authSvc, err := auth.NewServiceWithLogger(userRepo, sessionRepo, hasher, logger,
		auth.WithSessionTTL(cfg.Session.TTL))
	if err != nil {
		return err
	}
	resetSvc, err := auth.NewPasswordResetServiceWithLogger(userRepo, hasher, logger)
	if err != nil {
		return err
	}
	productSvc, err := shop.NewServiceWithLogger(productRepo, logger)
	if err != nil {
		return err
	}

	var notifier mail.Notifier
	if cfg.Mail.SendGridKey != "" {
		notifier, err = mail.NewSendGridNotifier(cfg.Mail.SendGridKey)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("no SendGrid API key configured, mail will be logged only")
		notifier = mail.NewLogNotifier(logger)
	}

	dispatcher, err := mail.NewDispatcher(notifier, logger, metrics.MailFailuresTotal.Inc)
	if err != nil {
		return err
	}

	webServer, err := web.NewServer(web.Options{
		Addr:          cfg.HTTP.Addr,
		BaseURL:       cfg.HTTP.BaseURL,
		MailFrom:      cfg.Mail.From,
		SecureCookies: cfg.Session.Secure,
	}, authSvc, resetSvc, productSvc, dispatcher, metrics, logger)
	if err != nil {
		return err
	}

	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}
	webErrCh, err := webServer.Start()
	if err != nil {
		stopObservability(obsServer, logger)
		return err
	}

	logger.Info("hearthshop running",
		"web_addr", webServer.Addr(), "metrics_addr", obsServer.Addr())

	sweepDone := startSessionSweeper(ctx, authSvc, sessionSweepInterval, logger)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-webErrCh:
		if err != nil {
			runErr = oops.With("server", "web").Wrap(err)
		}
	case err := <-obsErrCh:
		if err != nil {
			runErr = oops.With("server", "observability").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := webServer.Stop(shutdownCtx); err != nil {
		logger.Error("web server shutdown failed", "error", err)
	}
	stopObservability(obsServer, logger)
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("mail queue drain failed", "error", err)
	}
	stop()
	<-sweepDone

	return runErr
}

// startSessionSweeper purges expired web sessions on a fixed interval until
// ctx is cancelled. The returned channel closes once the sweeper has exited.
func startSessionSweeper(ctx context.Context, svc *auth.Service, interval time.Duration, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := svc.CleanupExpiredSessions(ctx); err != nil {
					logger.Error("session sweep failed", "error", err)
				}
			}
		}
	}()
	return done
}

func stopObservability(s *observability.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Error("observability server shutdown failed", "error", err)
	}
}

// readinessCheck reports ready while the database answers pings.
func readinessCheck(pool *pgxpool.Pool) func() bool {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx) == nil
	}
}
