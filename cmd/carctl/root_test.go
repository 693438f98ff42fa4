package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"car-inventory-api/internal/client"
	"car-inventory-api/internal/memstore"
	"car-inventory-api/internal/models"
	"car-inventory-api/internal/routes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAPI(t *testing.T, cars ...models.Car) string {
	t.Helper()
	store := memstore.New(zap.NewNop(), memstore.WithCars(cars...))
	srv := httptest.NewServer(routes.NewRouter(store, zap.NewNop(), nil))
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, apiURL string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api-url", apiURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"list", "get", "create", "update", "delete"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestAPIURLFromEnv(t *testing.T) {
	t.Setenv("CAR_API_URL", "http://cars.internal:9000")

	flag := NewRootCommand().PersistentFlags().Lookup("api-url")
	require.NotNil(t, flag)
	assert.Equal(t, "http://cars.internal:9000", flag.DefValue)
}

func TestCreateListUpdateDelete(t *testing.T) {
	apiURL := newAPI(t)

	out, err := run(t, apiURL, "create", "--brand", "Toyota", "--model", "Corolla", "--year", "2020")
	require.NoError(t, err)
	var created models.Car
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotEmpty(t, created.ID)

	out, err = run(t, apiURL, "list")
	require.NoError(t, err)
	var cars []models.Car
	require.NoError(t, json.Unmarshal([]byte(out), &cars))
	assert.Equal(t, []models.Car{created}, cars)

	out, err = run(t, apiURL, "update", created.ID, "--year", "2021")
	require.NoError(t, err)
	var updated models.Car
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, 2021, updated.Year)
	assert.Equal(t, "Corolla", updated.Model)

	out, err = run(t, apiURL, "delete", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Car deleted successfully")

	_, err = run(t, apiURL, "get", created.ID)
	assert.True(t, client.IsNotFound(err))
}

func TestUpdateRequiresAFlag(t *testing.T) {
	_, err := run(t, newAPI(t), "update", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestCreateValidationError(t *testing.T) {
	_, err := run(t, newAPI(t), "create", "--brand", "Toyota", "--model", "Corolla", "--year", "1800")
	assert.True(t, client.IsValidation(err))
}
