// Command arandaod runs the referral accounting daemon: it restores the
// ledger from its bbolt snapshot, serves the HTTP API and persists a fresh
// snapshot on shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/fash-ns/arandao-go/api"
	"github.com/fash-ns/arandao-go/bonus"
	"github.com/fash-ns/arandao-go/config"
	"github.com/fash-ns/arandao-go/core"
	"github.com/fash-ns/arandao-go/logger"
	"github.com/fash-ns/arandao-go/store"
)

func main() {
	app := &cli.App{
		Name:  "arandaod",
		Usage: "Referral tree accounting daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the configuration file",
				Aliases: []string{"c"},
				EnvVars: []string{"ARANDAO_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "listen address override",
				EnvVars: []string{"ARANDAO_LISTEN"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}
	if addr := ctx.String("listen"); addr != "" {
		cfg.ListenAddr = addr
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	access := core.StaticAccess{}
	for _, addr := range cfg.AdminAddrs {
		access[addr] = append(access[addr], core.RoleAdmin)
	}
	for _, addr := range cfg.MigratorAddrs {
		access[addr] = append(access[addr], core.RoleMigrator)
	}

	// In-process collaborators; production deployments swap these for the
	// marketplace's custody, token and pricing backends.
	c, err := core.New(core.Deps{
		Value:    core.NewMemoryValueTransfer(),
		Token:    core.NewMemoryTokenBackend(0),
		Price:    core.StaticPrice(0),
		Access:   access,
		Bonus:    bonus.NewMemoryPool(cfg.BonusMonthlyPool),
		Log:      log,
		Params:   &cfg.Params,
		Emission: &cfg.Emission,
		Genesis:  cfg.Genesis,
	})
	if err != nil {
		return err
	}

	snap, err := db.Load()
	switch {
	case err == nil:
		if err := c.RestoreSnapshot(snap); err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
		log.Info("restored snapshot",
			zap.Int("nodes", len(snap.Nodes)),
			zap.Int("orders", len(snap.Orders)),
		)
	case errors.Is(err, store.ErrNoSnapshot):
		log.Info("starting with an empty ledger")
	default:
		return err
	}

	r := mux.NewRouter()
	api.RegisterRoutes(r, api.NewHandler(c, log))
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}

	if err := db.Save(c.Snapshot()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	log.Info("snapshot saved")
	return nil
}
