package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/offnotes/offnotes/internal/blob"
	"github.com/offnotes/offnotes/internal/database"
	"github.com/offnotes/offnotes/internal/logging"
	"github.com/offnotes/offnotes/internal/server"
)

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	logger := logging.Setup(os.Getenv("OFFNOTES_LOG_LEVEL"))

	port := os.Getenv("OFFNOTES_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("OFFNOTES_DB_PATH")
	if dbPath == "" {
		dbPath = "offnotes.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	blobCfg := blob.Config{
		Endpoint:  os.Getenv("OFFNOTES_S3_ENDPOINT"),
		Bucket:    os.Getenv("OFFNOTES_S3_BUCKET"),
		Region:    os.Getenv("OFFNOTES_S3_REGION"),
		AccessKey: os.Getenv("OFFNOTES_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("OFFNOTES_S3_SECRET_KEY"),
	}
	if !blobCfg.Configured() {
		slog.Warn("blob storage not configured, file uploads disabled")
	}

	srv := server.New(db, blobCfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("offnotes starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
