package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lmangall/jot/server"
	"github.com/lmangall/jot/server/profile"
	"github.com/lmangall/jot/store"
	"github.com/lmangall/jot/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "jot",
	Short: "jot is an AI assistant server for personal notes and reminders",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	prof, err := profile.Load()
	if err != nil {
		slog.Error("failed to load profile", "err", err)
		return err
	}

	level := slog.LevelInfo
	if prof.IsDev() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver, err := db.NewDriver(prof)
	if err != nil {
		slog.Error("failed to open database", "err", err)
		return err
	}
	st := store.New(driver)
	if err := st.Migrate(ctx); err != nil {
		slog.Error("failed to migrate database", "err", err)
		return err
	}

	srv, err := server.NewServer(ctx, prof, st)
	if err != nil {
		slog.Error("failed to assemble server", "err", err)
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		slog.Info("shutting down")
		srv.Shutdown(ctx)
		cancel()
	}()

	return srv.Start(ctx)
}
