// Command heist-server serves live getaway games over websockets and the
// simulation API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/john-pickett/card-heist-sub000/engine/sim"
	"github.com/john-pickett/card-heist-sub000/service/internal/auth"
	"github.com/john-pickett/card-heist-sub000/service/internal/cache"
	"github.com/john-pickett/card-heist-sub000/service/internal/config"
	"github.com/john-pickett/card-heist-sub000/service/internal/handlers"
	"github.com/john-pickett/card-heist-sub000/service/internal/history"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.WithError(err).Fatal("listen")
	}
	if err := run(ctx, cfg, log, ln); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("heist-server stopped")
}

// run serves on ln until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, log *logrus.Logger, ln net.Listener) error {
	defer ln.Close()

	if cfg.JWTSecret == config.DevJWTSecret {
		log.Warn("JWT_SECRET not set, using the development secret")
	}
	signer, err := auth.NewSigner(cfg.JWTSecret, 0)
	if err != nil {
		return fmt.Errorf("token signer: %w", err)
	}

	var recorder history.Recorder = history.NewMemoryRecorder()
	if cfg.DatabaseURL != "" {
		pg, err := history.NewPostgresRecorder(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		recorder = pg
		log.Info("recording games to postgres")
	} else {
		log.Info("DATABASE_URL not set, keeping game history in memory")
	}

	simCache := cache.New(nil, cfg.SimCacheTTL)
	if cfg.RedisAddr != "" {
		c, err := cache.Dial(ctx, cfg.RedisAddr, cfg.SimCacheTTL)
		if err != nil {
			return err
		}
		defer c.Close()
		simCache = c
		log.WithField("addr", cfg.RedisAddr).Info("simulation cache enabled")
	}

	srv := handlers.NewServer(handlers.Options{
		Log:           log,
		Signer:        signer,
		History:       recorder,
		Cache:         simCache,
		Runner:        sim.NewRunner(cfg.SimWorkers, log),
		PursuerThink:  cfg.PursuerThink,
		PursuerReveal: cfg.PursuerReveal,
		PlayerIdle:    cfg.PlayerIdle,
	})

	httpSrv := &http.Server{
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":          ln.Addr().String(),
		"pursuer_think": cfg.PursuerThink,
		"sim_workers":   cfg.SimWorkers,
	}).Info("heist-server listening")
	if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
