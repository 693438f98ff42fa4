package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"car-inventory-api/internal/config"
	"car-inventory-api/internal/models"
)

func TestOpenStoreMemory(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendMemory, SeedCount: 3}

	store, closeStore, err := openStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeStore()

	cars, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, cars, 3)
}

func TestOpenStoreSQLite(t *testing.T) {
	cfg := &config.Config{
		StoreBackend: config.BackendSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "cars.db"),
	}

	store, closeStore, err := openStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeStore()

	car, err := store.Create(context.Background(), models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
	require.NoError(t, err)
	assert.NotEmpty(t, car.ID)
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, _, err := openStore(context.Background(), &config.Config{StoreBackend: "redis"}, zap.NewNop())
	assert.Error(t, err)
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	interceptor := loggingInterceptor(zap.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/carinventory.v1.CarService/GetCar"}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})
	assert.Nil(t, resp)
	assert.Equal(t, codes.NotFound, status.Code(err))
}
