package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xtding233/alienpod-sim/internal/api"
	"github.com/xtding233/alienpod-sim/internal/config"
	"github.com/xtding233/alienpod-sim/internal/mission"
	"github.com/xtding233/alienpod-sim/internal/rpc"
)

func main() {
	settingsPath := flag.String("config", "configs/settings.yaml", "settings file; missing file means defaults")
	flag.Parse()

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		slog.Error("failed to load settings", "path", *settingsPath, "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: settings.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)
	slog.Info("starting alienpod-sim", "strategy_ini", settings.Sources.StrategyINI)

	loader := config.NewLoader(settings)
	if created, err := loader.Manager().EnsureOriginal(); err != nil {
		slog.Warn("could not keep a pristine copy of the tuning file", "error", err)
	} else if created {
		slog.Info("saved pristine copy of the tuning file")
	}

	rng := mission.DefaultRNG()
	if settings.Engine.Seed != nil {
		rng = mission.Locked(mission.NewSeededRNG(*settings.Engine.Seed))
		slog.Info("using seeded draws", "seed", *settings.Engine.Seed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := api.NewHub()
	go hub.Run(ctx)

	srv, err := api.NewServer(loader, hub, rng)
	if err != nil {
		slog.Error("failed to load tuning", "error", err)
		os.Exit(1)
	}

	grpcSrv, health := rpc.NewServer(rpc.NewService(srv, rng))
	lis, err := net.Listen("tcp", settings.Server.GRPCAddr)
	if err != nil {
		slog.Error("failed to listen", "addr", settings.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("grpc listening", "addr", settings.Server.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			slog.Error("grpc server stopped", "error", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:              settings.Server.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("http listening", "addr", settings.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "error", err)
			stop()
		}
	}()

	var watcher *config.SourceWatcher
	if settings.Watch.On() {
		watcher = config.NewSourceWatcher(loader.Paths(), time.Duration(settings.Watch.IntervalMS)*time.Millisecond, func([]string) {
			srv.Reload("file_changed")
		})
		watcher.Start()
	}

	<-ctx.Done()
	slog.Info("shutting down")

	if watcher != nil {
		watcher.Stop()
	}
	health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	grpcSrv.GracefulStop()
}
