package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/campus/internal/backup"
	"github.com/alfredjeanlab/campus/internal/config"
	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/hooks"
	"github.com/alfredjeanlab/campus/internal/logging"
	"github.com/alfredjeanlab/campus/internal/server"
	"github.com/alfredjeanlab/campus/internal/store"
	"github.com/alfredjeanlab/campus/internal/store/postgres"
	"github.com/alfredjeanlab/campus/internal/store/sqlite"
	"github.com/alfredjeanlab/campus/internal/uploads"
	"github.com/alfredjeanlab/campus/internal/uploads/local"
	"github.com/alfredjeanlab/campus/internal/uploads/s3"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the campus API server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create an API client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()

		st, err := openStore(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		up, err := openUploads(cfg)
		if err != nil {
			st.Close()
			return err
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = events.NoopPublisher{}
			logger.Info("events disabled (CAMPUS_NATS_URL not set)")
		}

		srv := server.New(st, up, publisher, server.Options{
			PublicURL:   cfg.PublicURL,
			CORSOrigins: cfg.CORSOrigins,
			Logger:      logger,
		})

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// The gRPC listener only carries the health service.
		var grpcStop func()
		if cfg.GRPCAddr != "" {
			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				httpServer.Close()
				publisher.Close()
				st.Close()
				return err
			}
			grpcServer, hs := server.NewGRPCServer()
			go func() {
				logger.Info("gRPC health server listening", "addr", cfg.GRPCAddr)
				if err := grpcServer.Serve(lis); err != nil {
					logger.Error("gRPC server error", "err", err)
				}
			}()
			grpcStop = func() {
				hs.Shutdown()
				grpcServer.GracefulStop()
			}
		}

		// Start backup scheduler if any destinations are configured.
		var scheduler *backup.Scheduler
		if cfg.BackupInterval > 0 {
			dests := backupDestinations(cfg, logger)
			if len(dests) > 0 {
				scheduler = backup.NewScheduler(st, dests, cfg.BackupInterval, logger)
				scheduler.Start(context.Background())
				logger.Info("backup scheduler started", "interval", cfg.BackupInterval)
			}
		}

		// Start shell hooks if configured. They consume events from NATS.
		var hooksCancel context.CancelFunc
		if cfg.HooksFile != "" {
			hooksCancel = startHooks(cfg, logger)
		}

		logger.Info("campus server started", "http_addr", cfg.HTTPAddr, "grpc_addr", cfg.GRPCAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if hooksCancel != nil {
			hooksCancel()
			logger.Info("hooks stopped")
		}
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("backup scheduler stopped")
		}
		if grpcStop != nil {
			grpcStop()
			logger.Info("gRPC server stopped")
		}

		// Realtime connections are hijacked and not tracked by Shutdown.
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// openStore picks Postgres for postgres:// URLs and SQLite for anything else.
func openStore(databaseURL string) (store.Store, error) {
	if store.IsPostgresURL(databaseURL) {
		return postgres.New(databaseURL)
	}
	return sqlite.New(databaseURL)
}

func openUploads(cfg *config.Config) (uploads.Store, error) {
	if cfg.UploadsS3Bucket != "" {
		return s3.New(context.Background(), cfg.UploadsS3Bucket, cfg.UploadsS3Prefix, cfg.UploadsS3Region, cfg.UploadsS3Endpoint)
	}
	return local.New(cfg.UploadsDir)
}

func backupDestinations(cfg *config.Config, logger *slog.Logger) []backup.Destination {
	var dests []backup.Destination
	if cfg.BackupS3Bucket != "" {
		d, err := backup.NewS3Destination(
			context.Background(),
			cfg.BackupS3Bucket,
			cfg.BackupS3Key,
			cfg.BackupS3Region,
			cfg.BackupS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 backup destination", "err", err)
		} else {
			dests = append(dests, d)
			logger.Info("backup S3 destination enabled", "bucket", cfg.BackupS3Bucket, "key", cfg.BackupS3Key)
		}
	}
	if cfg.BackupGitRepo != "" {
		dests = append(dests, backup.NewGitDestination(cfg.BackupGitRepo, cfg.BackupGitFile, cfg.BackupGitBranch))
		logger.Info("backup git destination enabled", "repo", cfg.BackupGitRepo, "file", cfg.BackupGitFile)
	}
	return dests
}

func startHooks(cfg *config.Config, logger *slog.Logger) context.CancelFunc {
	defs, err := hooks.LoadFile(cfg.HooksFile)
	if err != nil {
		logger.Error("failed to load hooks", "file", cfg.HooksFile, "err", err)
		return nil
	}
	if cfg.NATSURL == "" {
		logger.Warn("hooks need CAMPUS_NATS_URL, not starting", "file", cfg.HooksFile)
		return nil
	}
	sub, err := events.NewNATSSubscriber(cfg.NATSURL)
	if err != nil {
		logger.Error("failed to create hooks subscriber", "err", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	handler := hooks.NewHandler(defs, logger)
	go func() {
		if err := handler.StartSubscriber(ctx, sub); err != nil {
			logger.Error("hooks subscriber error", "err", err)
		}
		sub.Close()
	}()
	logger.Info("hooks started", "file", cfg.HooksFile, "count", len(defs))
	return cancel
}
