package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal/config"
	"github.com/scythe504/pp-backend/internal/database"
	"github.com/scythe504/pp-backend/internal/game"
	"github.com/scythe504/pp-backend/internal/server"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		klog.Errorf("pp-backend: %v", err)
		klog.Flush()
		os.Exit(1)
	}
}

func run() error {
	defer klog.Flush()

	flagSet := pflag.NewFlagSet("pp-backend", pflag.ContinueOnError)
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	flagSet.AddGoFlagSet(klogFlags)

	cfg, err := config.Load(flagSet, os.Args[1:])
	if err != nil {
		return err
	}
	cfg.Log()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []game.Option{
		game.WithDeck(cfg.Deck),
		game.WithConnectionTimeout(cfg.ConnectionTimeout),
	}
	var db database.Service
	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		db, err = database.New(connectCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			return fmt.Errorf("event journal: %w", err)
		}
		defer db.Close()
		opts = append(opts, game.WithJournal(db))
	}

	rooms := game.NewRooms(opts...)
	rooms.StartLiveness(ctx, cfg.Liveness())

	srv := server.NewServer(cfg.Port, rooms, db)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan error, 1)
	go func() {
		done <- srv.Start()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	klog.Info("shutting down gracefully, press Ctrl+C again to force")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		klog.Errorf("Server forced to shutdown with error: %v", err)
	}
	rooms.CloseAll()

	klog.Info("Graceful shutdown complete.")
	return nil
}
