package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tasknest/tasknest/internal/assist"
	"github.com/tasknest/tasknest/internal/config"
	"github.com/tasknest/tasknest/internal/eventbus"
	"github.com/tasknest/tasknest/internal/image"
	"github.com/tasknest/tasknest/internal/pushnotification"
	pushsubrepo "github.com/tasknest/tasknest/internal/pushsubscription/repositoryimpl"
	"github.com/tasknest/tasknest/internal/task"
	taskrepo "github.com/tasknest/tasknest/internal/task/repositoryimpl"
	"github.com/tasknest/tasknest/pkg/clog"
	"github.com/tasknest/tasknest/pkg/storage"

	server "github.com/tasknest/tasknest/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup task repository: sqlite keeps records in a single database file,
	// anything else stores one YAML document per task on the storage backend.
	var taskRepo task.Repository
	if env.StorageEnv.Type == "sqlite" {
		sqliteRepo, err := taskrepo.NewSQLiteRepository(env.StorageEnv.SQLitePath)
		if err != nil {
			slog.Error("failed to open sqlite repository", "error", err)
			os.Exit(1)
		}
		defer sqliteRepo.Close()
		taskRepo = sqliteRepo
	} else {
		taskRepo = taskrepo.NewYAMLRepository(store)
	}
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	// Setup servers
	taskServer := task.NewServer(taskRepo, bus)
	assistServer := assist.NewServer(assist.NewClaudeGenerator(config.AssistEnvFromEnv(env)))
	imageServer := image.NewServer(store)

	// Setup push notification
	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushNotificationServer := pushnotification.NewServer(vapidEnv, pushSubRepo, pushSender)
	pushDispatcher := pushnotification.NewDispatcher(bus, pushSender)

	srv := server.NewServer(
		env,
		taskServer,
		assistServer,
		imageServer,
		pushNotificationServer,
	)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go pushDispatcher.Start(ctx)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after request contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
