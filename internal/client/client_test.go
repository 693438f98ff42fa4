package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"car-inventory-api/internal/client"
	"car-inventory-api/internal/memstore"
	"car-inventory-api/internal/models"
	"car-inventory-api/internal/routes"
	"car-inventory-api/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// countingServer serves the real router and counts GET requests.
type countingServer struct {
	*httptest.Server
	gets atomic.Int32
}

func newServer(t *testing.T, cars ...models.Car) *countingServer {
	t.Helper()
	store := memstore.New(zap.NewNop(), memstore.WithCars(cars...))
	router := routes.NewRouter(store, zap.NewNop(), nil)

	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			cs.gets.Add(1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func newClient(t *testing.T, srv *countingServer) *client.Client {
	t.Helper()
	c, err := client.New(srv.URL, client.WithTimeout(5*time.Second), client.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestClientCRUD(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	created, err := c.CreateCar(ctx, models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := c.GetCar(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := c.UpdateCar(ctx, created.ID, models.CarPatch{Year: testutil.IntPtr(2021)})
	require.NoError(t, err)
	assert.Equal(t, models.Car{ID: created.ID, Brand: "Toyota", Model: "Corolla", Year: 2021}, *updated)

	require.NoError(t, c.DeleteCar(ctx, created.ID))

	err = c.DeleteCar(ctx, created.ID)
	assert.True(t, client.IsNotFound(err))
}

func TestClientListCachesUntilWrite(t *testing.T) {
	srv := newServer(t, models.Car{ID: "a", Brand: "Fiat", Model: "Panda", Year: 2012})
	c := newClient(t, srv)
	ctx := context.Background()

	cars, err := c.ListCars(ctx)
	require.NoError(t, err)
	require.Len(t, cars, 1)

	_, err = c.ListCars(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.gets.Load())

	_, err = c.CreateCar(ctx, models.CarInput{Brand: "Seat", Model: "Ibiza", Year: 2018})
	require.NoError(t, err)

	cars, err = c.ListCars(ctx)
	require.NoError(t, err)
	assert.Len(t, cars, 2)
	assert.Equal(t, int32(2), srv.gets.Load())
}

func TestClientGetCacheInvalidatedByUpdate(t *testing.T) {
	srv := newServer(t, models.Car{ID: "a", Brand: "Fiat", Model: "Panda", Year: 2012})
	c := newClient(t, srv)
	ctx := context.Background()

	_, err := c.GetCar(ctx, "a")
	require.NoError(t, err)
	_, err = c.GetCar(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.gets.Load())

	_, err = c.UpdateCar(ctx, "a", models.CarPatch{Model: testutil.StrPtr("Punto")})
	require.NoError(t, err)

	got, err := c.GetCar(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Punto", got.Model)
	assert.Equal(t, int32(2), srv.gets.Load())
}

func TestClientListResultIsACopy(t *testing.T) {
	srv := newServer(t, models.Car{ID: "a", Brand: "Fiat", Model: "Panda", Year: 2012})
	c := newClient(t, srv)
	ctx := context.Background()

	cars, err := c.ListCars(ctx)
	require.NoError(t, err)
	cars[0].Brand = "changed"

	again, err := c.ListCars(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Fiat", again[0].Brand)
}

func TestClientErrors(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	_, err := c.CreateCar(ctx, models.CarInput{Brand: "", Model: "X", Year: 2020})
	require.Error(t, err)
	assert.True(t, client.IsValidation(err))
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "brand", apiErr.Field)
	assert.Equal(t, "brand is required", apiErr.Message)

	_, err = c.UpdateCar(ctx, "unknown-id", models.CarPatch{Year: testutil.IntPtr(2021)})
	assert.True(t, client.IsNotFound(err))
	assert.False(t, client.IsValidation(err))

	_, err = c.GetCar(ctx, "unknown-id")
	assert.True(t, client.IsNotFound(err))
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := client.New("not a url")
	assert.Error(t, err)
}

func TestClientTransportFailure(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	srv.Close()

	_, err := c.ListCars(context.Background())
	require.Error(t, err)
	assert.False(t, client.IsNotFound(err))
}

func TestClientSeesOtherWritersAfterTTL(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	reader, err := client.New(srv.URL, client.WithCacheTTL(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(reader.Close)
	writer := newClient(t, srv)

	cars, err := reader.ListCars(ctx)
	require.NoError(t, err)
	require.Empty(t, cars)

	_, err = writer.CreateCar(ctx, models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		cars, err := reader.ListCars(ctx)
		return err == nil && len(cars) == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestClientCacheDisabled(t *testing.T) {
	srv := newServer(t, models.Car{ID: "a", Brand: "Fiat", Model: "Panda", Year: 2012})
	c, err := client.New(srv.URL, client.WithCacheTTL(0))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	for i := 0; i < 2; i++ {
		_, err := c.ListCars(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), srv.gets.Load())
}

func TestWithTimeoutLeavesCallerClientAlone(t *testing.T) {
	srv := newServer(t)
	shared := &http.Client{}

	c, err := client.New(srv.URL, client.WithHTTPClient(shared), client.WithTimeout(time.Second))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	assert.Zero(t, shared.Timeout)

	_, err = c.ListCars(context.Background())
	require.NoError(t, err)
}

func TestWithNilHTTPClientKeepsDefault(t *testing.T) {
	srv := newServer(t)
	c, err := client.New(srv.URL, client.WithHTTPClient(nil))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, err = c.ListCars(context.Background())
	require.NoError(t, err)
}
