package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fennwick/hearth/internal/blob"
	"github.com/fennwick/hearth/internal/database"
	"github.com/fennwick/hearth/internal/identity"
	"github.com/fennwick/hearth/internal/logging"
	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/push"
	"github.com/fennwick/hearth/internal/server"
	"github.com/fennwick/hearth/internal/session"
	"github.com/fennwick/hearth/internal/store"
)

func main() {
	logger := logging.Setup(os.Getenv("HEARTH_LOG_LEVEL"))

	port := os.Getenv("HEARTH_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("HEARTH_DB_PATH")
	if dbPath == "" {
		dbPath = "hearth.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	familyStore := store.New(db)

	secret := os.Getenv("HEARTH_SECRET")
	if secret == "" {
		logger.Error("HEARTH_SECRET is required")
		os.Exit(1)
	}
	identityPath := os.Getenv("HEARTH_IDENTITY_PATH")
	if identityPath == "" {
		identityPath = "hearth-identity"
	}
	provider := identity.NewTokenProvider([]byte(secret), identityPath)

	var blobs blob.Store
	if bucket := os.Getenv("HEARTH_S3_BUCKET"); bucket != "" {
		blobs = blob.NewS3Store(blob.S3Config{
			Endpoint:      os.Getenv("HEARTH_S3_ENDPOINT"),
			Bucket:        bucket,
			Region:        os.Getenv("HEARTH_S3_REGION"),
			AccessKey:     os.Getenv("HEARTH_S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("HEARTH_S3_SECRET_KEY"),
			PublicBaseURL: os.Getenv("HEARTH_S3_PUBLIC_URL"),
		})
	} else {
		logger.Warn("no S3 bucket configured, storing evidence in memory")
		blobs = blob.NewMemoryStore()
	}

	var pushSvc *push.Service
	vapidPublic := os.Getenv("HEARTH_VAPID_PUBLIC_KEY")
	vapidPrivate := os.Getenv("HEARTH_VAPID_PRIVATE_KEY")
	if vapidPublic != "" && vapidPrivate != "" {
		pushSvc = push.NewService(vapidPublic, vapidPrivate)
	} else {
		logger.Warn("VAPID keys not configured, push notifications disabled")
	}

	srv := server.New(server.Config{
		Store:       familyStore,
		Provider:    provider,
		Blobs:       blobs,
		PushService: pushSvc,
		DeviceToken: os.Getenv("HEARTH_DEVICE_TOKEN"),
		Logger:      logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.Start(ctx)

	var scheduler *push.Scheduler
	if pushSvc != nil {
		coord := srv.Coordinator()
		board := func() (string, []model.Chore, bool) {
			state := coord.CurrentState()
			if state.Phase != session.PhaseParent || state.Family == nil {
				return "", nil, false
			}
			return state.Family.ID, state.Chores, true
		}
		scheduler = push.NewScheduler(pushSvc, familyStore, board, logger.With("component", "scheduler"))
		scheduler.Start(ctx)
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Hearth running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	cancel()
	if scheduler != nil {
		scheduler.Stop()
	}
	srv.Coordinator().FlushPending()
}
