package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/conslogger/conslogger/internal/client/aggregator"
	"github.com/conslogger/conslogger/internal/client/api"
	"github.com/conslogger/conslogger/internal/client/auth"
	"github.com/conslogger/conslogger/internal/client/cli"
	"github.com/conslogger/conslogger/internal/client/halt"
	"github.com/conslogger/conslogger/internal/client/iocli"
	"github.com/conslogger/conslogger/internal/client/reconciler"
	"github.com/conslogger/conslogger/internal/client/sites"
	"github.com/conslogger/conslogger/internal/client/storage/boltdb"
	"github.com/conslogger/conslogger/internal/client/syncgraph"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "conslogger.db", "Path to local database")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}
	command := args[0]

	// watch живет до Ctrl+C, остальные команды разовые
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// Смена версии приложения сбрасывает локальный кеш (сессия остается)
	wiped, err := store.EnsureAppVersion(ctx, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to check app version: %v\n", err)
		os.Exit(1)
	}
	if wiped {
		fmt.Println("App version changed: local cache was reset.")
	}

	apiClient := api.NewClient(*serverURL)
	session := auth.NewService(apiClient, store)

	deps := cli.Deps{
		IO:     iocli.NewStdio(),
		Logger: logger,
		Auth:   session,
		API:    apiClient,
		Prefs:  store,
	}

	// Гость работает поверх локального bolt; авторизованный пользователь
	// поверх своего дерева на сервере, плюс партнёрские сервисы
	authData, err := session.CurrentUser(ctx)
	switch {
	case err == nil:
		remote := api.NewRemoteStore(apiClient, authData.UserID)
		deps.Halts = halt.NewService(logger, remote)
		deps.Sites = sites.NewService(logger, remote, store)
		deps.Shifts = remote
		deps.Graph = syncgraph.NewService(logger, apiClient, authData.UserID)
		deps.Agg = aggregator.NewService(logger, apiClient)
		deps.Rec = reconciler.New(logger, deps.Graph, deps.Sites)
		deps.Self = authData
	case errors.Is(err, auth.ErrNotAuthenticated):
		deps.Halts = halt.NewService(logger, store)
		deps.Sites = sites.NewService(logger, store, store)
		deps.Shifts = store
	default:
		fmt.Fprintf(os.Stderr, "Failed to read session: %v\n", err)
		os.Exit(1)
	}

	if err := cli.New(deps).Run(ctx, command, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("conslogger client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
