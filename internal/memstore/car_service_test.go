package memstore

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "car-inventory-api/internal/errors"
	"car-inventory-api/internal/models"
	"car-inventory-api/internal/repository"
	"car-inventory-api/internal/testutil"
)

func TestCarServiceContract(t *testing.T) {
	testutil.RunCarStoreContract(t, func(t *testing.T) repository.CarStore {
		return New(zap.NewNop(), WithSeedCount(0))
	})
}

func TestNewSeedsSampleCars(t *testing.T) {
	svc := New(zap.NewNop())

	cars, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cars, DefaultSeedCount)

	ids := make(map[string]bool)
	for _, car := range cars {
		assert.NoError(t, car.Validate())
		assert.GreaterOrEqual(t, car.Year, time.Now().Year()-sampleYears)
		assert.False(t, ids[car.ID])
		ids[car.ID] = true
	}
}

func TestSampleGenerationIsDeterministicWithRand(t *testing.T) {
	a := sampleCars(rand.New(rand.NewPCG(1, 2)), 10)
	b := sampleCars(rand.New(rand.NewPCG(1, 2)), 10)
	assert.Equal(t, a, b)
}

func TestWithCars(t *testing.T) {
	seed := models.Car{ID: "fixed", Brand: "Fiat", Model: "Panda", Year: 2012}
	svc := New(nil, WithCars(seed))

	got, err := svc.Get(context.Background(), "fixed")
	require.NoError(t, err)
	assert.Equal(t, seed, *got)
	assert.Equal(t, 1, svc.Len())
}

func TestWithCarsSkipsDuplicateAndInvalid(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	first := models.Car{ID: "a", Brand: "Fiat", Model: "Panda", Year: 2012}

	svc := New(zap.New(core), WithCars(
		first,
		models.Car{ID: "a", Brand: "Seat", Model: "Ibiza", Year: 2018},
		models.Car{ID: "b", Brand: "", Model: "Ibiza", Year: 2018},
		models.Car{ID: "c", Brand: "Seat", Model: "Ibiza", Year: 1},
	))

	cars, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Car{first}, cars)
	assert.Equal(t, 3, logs.Len())
}

func TestCreateRetriesUntilUnique(t *testing.T) {
	existing := models.Car{ID: "taken", Brand: "Fiat", Model: "Panda", Year: 2012}
	svc := New(zap.NewNop(),
		WithCars(existing),
		WithIDGenerator(testutil.SequenceIDs("taken", "taken", "fresh")),
	)

	car, err := svc.Create(context.Background(), models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
	require.NoError(t, err)
	assert.Equal(t, "fresh", car.ID)
}

func TestCreateFailsWhenIDsExhausted(t *testing.T) {
	existing := models.Car{ID: "taken", Brand: "Fiat", Model: "Panda", Year: 2012}
	calls := 0
	svc := New(zap.NewNop(),
		WithCars(existing),
		WithIDGenerator(func() string { calls++; return "taken" }),
	)

	_, err := svc.Create(context.Background(), models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInternal))
	assert.Equal(t, repository.MaxIDAttempts, calls)
	assert.Equal(t, 1, svc.Len())
}

func TestDeleteRemovesAllMatches(t *testing.T) {
	dup := models.Car{ID: "dup", Brand: "Fiat", Model: "Panda", Year: 2012}
	other := models.Car{ID: "other", Brand: "Fiat", Model: "500", Year: 2015}
	svc := New(zap.NewNop(), WithCars(dup, other))
	svc.cars = append(svc.cars, dup)

	require.NoError(t, svc.Delete(context.Background(), "dup"))

	cars, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Car{other}, cars)
}

func TestListReturnsCopy(t *testing.T) {
	svc := New(zap.NewNop(), WithCars(models.Car{ID: "a", Brand: "Fiat", Model: "Panda", Year: 2012}))

	cars, err := svc.List(context.Background())
	require.NoError(t, err)
	cars[0].Brand = "Mutated"

	got, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Fiat", got.Brand)
}

func TestCanceledContext(t *testing.T) {
	svc := New(zap.NewNop(), WithSeedCount(0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Create(ctx, models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, svc.Len())
}

func TestConcurrentCreates(t *testing.T) {
	svc := New(zap.NewNop(), WithSeedCount(0))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cars, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, cars, 50)
}
