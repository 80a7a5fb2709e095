package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/packboard/internal/config"
	"github.com/DoyleJ11/packboard/internal/editor"
	"github.com/DoyleJ11/packboard/internal/httpapi"
	"github.com/DoyleJ11/packboard/internal/hub"
	"github.com/DoyleJ11/packboard/internal/logging"
	"github.com/DoyleJ11/packboard/internal/metrics"
	"github.com/DoyleJ11/packboard/internal/scoreboard"
	"github.com/DoyleJ11/packboard/internal/store"
	"github.com/DoyleJ11/packboard/internal/store/pgstore"
)

func main() {
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash of this password for PACKBOARD_PASSWORD_HASH and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := editor.HashPassword(*hashPassword)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	gate, err := editor.NewGate(cfg.PasswordHash)
	if err != nil {
		return err
	}
	if gate.Open() {
		logger.Warn("PACKBOARD_PASSWORD_HASH is empty, editor is unlocked for everyone")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	met := metrics.New(reg)

	h := hub.NewHub(ctx, func(ctx context.Context, topic store.Topic) (store.Snapshot, error) {
		return store.Load(ctx, st, topic)
	}, logger, met)
	go h.Pump(ctx, st.Changes())

	gw := scoreboard.NewGateway(st, logger, met)
	if err := gw.EnsureGameState(ctx, cfg.DefaultTotalPacks); err != nil {
		return err
	}

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(httpapi.Deps{
		Hub:            h,
		Store:          st,
		Gateway:        gw,
		Gate:           gate,
		Log:            logger,
		Gatherer:       reg,
		UnlockRate:     rate.Limit(cfg.UnlockRate),
		UnlockBurst:    cfg.UnlockBurst,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	h.Send(hub.ShutdownHub{})
	<-h.Done()
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return pg, nil
	default:
		return store.NewMemory(), nil
	}
}
