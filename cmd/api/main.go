package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"missio.app/internal/auth"
	"missio.app/internal/config"
	"missio.app/internal/dashboard"
	"missio.app/internal/expense"
	"missio.app/internal/httpapi"
	"missio.app/internal/mail"
	"missio.app/internal/mission"
	"missio.app/internal/obs"
	"missio.app/internal/outreach"
	"missio.app/internal/store/pg"
	"missio.app/internal/tenancy"
)

// Overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cfg := config.MustLoad()

	obs.InitLogger(obs.LogOptions{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	obs.Init()
	obs.InitBuildInfo(version, commit)
	log := obs.Logger()

	store, err := pg.Open(cfg.Database.DSN, pg.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer func() { _ = store.Close() }()

	codec, err := auth.NewCodec(cfg.Auth.Secret,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAccessTTL(cfg.Auth.AccessTTL),
		auth.WithRefreshTTL(cfg.Auth.RefreshTTL),
	)
	if err != nil {
		log.WithError(err).Fatal("build token codec")
	}

	var sender mail.Sender = mail.NoopSender{}
	if cfg.SMTP.Host != "" {
		sender = mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Password)
	}

	tenants := tenancy.NewService(store)
	authSvc := auth.NewService(store, tenants, codec)
	missions := mission.NewService(store, store, sender)
	outreachSvc := outreach.NewService(store, missions)
	expenses := expense.NewService(store, missions)
	dash := dashboard.NewService(store)

	api := httpapi.New(httpapi.Config{
		Auth:       authSvc,
		Tenants:    tenants,
		Missions:   missions,
		Outreach:   outreachSvc,
		Expenses:   expenses,
		Dashboard:  dash,
		Ready:      store.Ping,
		Version:    version,
		RateBurst:  cfg.RateLimit.Burst,
		RatePerSec: cfg.RateLimit.PerSec,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithField("addr", srv.Addr).WithField("version", version).Info("missio-api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdown := cfg.Server.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
	log.Info("stopped")
}
