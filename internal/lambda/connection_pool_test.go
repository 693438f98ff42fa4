package lambda

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetConnectionPoolInvalidURL(t *testing.T) {
	t.Cleanup(CloseConnectionPool)

	p, err := GetConnectionPool("://not-a-url", zap.NewNop())
	assert.Nil(t, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database URL")

	// The failed result is cached until the pool is reset.
	_, again := GetConnectionPool(os.Getenv("DATABASE_URL"), zap.NewNop())
	assert.Equal(t, err, again)

	CloseConnectionPool()
	_, err = GetConnectionPool("://still-bad", nil)
	assert.Error(t, err)
}

func TestGetConnectionPoolReusesPool(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	t.Cleanup(CloseConnectionPool)

	first, err := GetConnectionPool(databaseURL, zap.NewNop())
	require.NoError(t, err)
	second, err := GetConnectionPool(databaseURL, zap.NewNop())
	require.NoError(t, err)
	assert.Same(t, first, second)
}
