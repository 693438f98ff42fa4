package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"car-inventory-api/internal/config"
	"car-inventory-api/internal/constants"
	"car-inventory-api/internal/logging"
	"car-inventory-api/internal/memstore"
	"car-inventory-api/internal/repository"
	"car-inventory-api/internal/routes"
	"car-inventory-api/internal/service"
)

const migrationTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info(fmt.Sprintf("%s Starting car inventory server", constants.APIName()),
		zap.Int("http_port", cfg.ServerPort),
		zap.Int("grpc_port", cfg.GRPCServerPort),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open car store", zap.Error(err))
	}
	defer closeStore()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           routes.NewRouter(store, logger, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(logger)))
	service.RegisterCarServiceServer(grpcServer, service.NewCarServiceImpl(store, logger))
	reflection.Register(grpcServer)

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCServerPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err), zap.String("address", grpcAddr))
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info(fmt.Sprintf("%s HTTP server listening", constants.APIName()), zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Info(fmt.Sprintf("%s gRPC server listening", constants.APIName()), zap.String("address", grpcAddr))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	stopGRPC(shutdownCtx, grpcServer)

	logger.Info(fmt.Sprintf("%s Server stopped", constants.APIName()))
}

// openStore builds the store selected by cfg.StoreBackend. The returned
// func releases its resources.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.CarStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Info("Using in-memory car store", zap.Int("seed_count", cfg.SeedCount))
		return memstore.New(logger, memstore.WithSeedCount(cfg.SeedCount)), func() {}, nil

	case config.BackendSQLite:
		repo, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using SQLite car store", zap.String("path", cfg.SQLitePath))
		return repo, func() {
			if err := repo.Close(); err != nil {
				logger.Warn("Failed to close SQLite store", zap.Error(err))
			}
		}, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info(fmt.Sprintf("%s Connected to database", constants.APIName()))

		repo := repository.NewCarRepository(pool)
		migrateCtx, cancel := context.WithTimeout(ctx, migrationTimeout)
		defer cancel()
		if err := repo.Migrate(migrateCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Database migrations completed")
		return repo, pool.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("gRPC request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}

// stopGRPC drains in-flight calls until ctx expires, then forces the stop.
func stopGRPC(ctx context.Context, s *grpc.Server) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
	}
}
