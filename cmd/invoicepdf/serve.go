package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/porticus-lab/invoice-pdf/auth"
	"github.com/porticus-lab/invoice-pdf/batch"
	"github.com/porticus-lab/invoice-pdf/extract"
	"github.com/porticus-lab/invoice-pdf/internal/config"
	"github.com/porticus-lab/invoice-pdf/internal/server"
)

func runServe(args []string) error {
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fset.String("config", "", "YAML configuration file")
	if err := fset.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	gate, err := auth.New(gateConfig(cfg))
	if err != nil {
		return err
	}

	conv, err := newConverter(cfg, logger)
	if err != nil {
		return err
	}
	defer conv.Close()

	srv := server.New(server.Config{
		Gate: gate,
		Runner: &batch.Runner{
			Open:      batch.TargetOpener(conv.OpenTarget, cfg.RenderOptions(logger)...),
			Names:     cfg.Synthesizer(),
			Extractor: extract.New(extract.Config{Logger: logger}),
			Logger:    logger,
		},
		DefaultCredential: cfg.DefaultCredential,
		Logger:            logger,
	})
	httpSrv := srv.NewHTTPServer(cfg.Listen)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", cfg.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", cfg.Listen, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func gateConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		ClientID:      cfg.Auth.ClientID,
		ClientSecret:  cfg.Auth.ClientSecret,
		RedirectURL:   cfg.Auth.RedirectURL,
		AllowedDomain: cfg.Auth.AllowedDomain,
		SessionSecret: cfg.Auth.SessionSecret,
		CookieDomain:  cfg.Auth.CookieDomain,
		SessionTTL:    cfg.Auth.SessionTTL,
		Secure:        cfg.Auth.Secure,
		DevEmail:      cfg.Auth.DevEmail,
		Logger:        slog.Default(),
	}
}
