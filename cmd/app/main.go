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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/config"
	"github.com/BuzzLyutic/task-tracker/internal/handler"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
	"github.com/BuzzLyutic/task-tracker/internal/service"
	"github.com/BuzzLyutic/task-tracker/internal/worker"
	"github.com/BuzzLyutic/task-tracker/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set up the logger
	log := logger.New(cfg.Logger())
	defer log.Sync()

	ctx := context.Background()

	// The database only holds snapshots; without DATABASE_URL the tracker lives in memory
	var snapshots repo.SnapshotRepository
	if cfg.PersistenceEnabled() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to Database", zap.Error(err)) // nothing useful to do without it
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatal("Failed to ping the Database", zap.Error(err))
		}

		snapshotRepo := repo.NewSnapshotRepo(pool)
		if err := snapshotRepo.Migrate(ctx); err != nil {
			log.Fatal("Failed to migrate", zap.Error(err))
		}
		snapshots = snapshotRepo
		log.Info("Successfully connected to the Database!")
	} else {
		log.Info("DATABASE_URL is empty, snapshots disabled")
	}

	srv := service.NewTaskService(cfg.Service(), snapshots, log.Named("service"))

	if snapshots != nil {
		snap, err := srv.Load(ctx)
		switch {
		case errors.Is(err, repo.ErrorNotFound):
			log.Info("No snapshot to restore, starting empty")
		case err != nil:
			log.Fatal("Failed to restore snapshot", zap.Error(err))
		default:
			log.Info("State restored", zap.String("snapshot_id", snap.ID), zap.Int("tasks", len(snap.Tasks)))
		}
	}

	autosaver := worker.NewAutosaver(srv, log.Named("autosave"), cfg.AutosaveInterval)
	if snapshots != nil {
		autosaver.Start(ctx)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Mount("/api", handler.NewTaskHandler(srv, log.Named("http")).Routes())

	httpSrv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server started", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
	autosaver.Stop()

	// final snapshot once requests have stopped coming in
	if snapshots != nil {
		if _, err := srv.Save(shutdownCtx); err != nil {
			log.Error("Final snapshot failed", zap.Error(err))
		}
	}
	log.Info("Server stopped successfully!")
}
