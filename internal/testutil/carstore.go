package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "car-inventory-api/internal/errors"
	"car-inventory-api/internal/models"
	"car-inventory-api/internal/repository"
)

// StoreFactory returns an empty store for a single subtest.
type StoreFactory func(t *testing.T) repository.CarStore

func StrPtr(s string) *string { return &s }
func IntPtr(i int) *int { return &i }

// RunCarStoreContract exercises the behaviour every CarStore backend must share.
func RunCarStoreContract(t *testing.T, newStore StoreFactory) {
	ctx := context.Background()

	t.Run("CreateAssignsUniqueIDs", func(t *testing.T) {
		store := newStore(t)
		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			car, err := store.Create(ctx, models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
			require.NoError(t, err)
			require.NotEmpty(t, car.ID)
			assert.False(t, seen[car.ID], "duplicate id %s", car.ID)
			seen[car.ID] = true
		}

		cars, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, cars, 20)
	})

	t.Run("CreateReturnsFieldsVerbatim", func(t *testing.T) {
		store := newStore(t)
		car, err := store.Create(ctx, models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
		require.NoError(t, err)

		assert.Equal(t, "Toyota", car.Brand)
		assert.Equal(t, "Corolla", car.Model)
		assert.Equal(t, 2020, car.Year)

		got, err := store.Get(ctx, car.ID)
		require.NoError(t, err)
		assert.Equal(t, *car, *got)
	})

	t.Run("CreateRejectsInvalidInput", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Create(ctx, models.CarInput{Brand: "", Model: "X", Year: 2020})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		cars, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, cars)
	})

	t.Run("ListPreservesInsertionOrder", func(t *testing.T) {
		store := newStore(t)
		var ids []string
		for _, brand := range []string{"Audi", "BMW", "Citroen"} {
			car, err := store.Create(ctx, models.CarInput{Brand: brand, Model: "M", Year: 2015})
			require.NoError(t, err)
			ids = append(ids, car.ID)
		}

		cars, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, cars, 3)
		for i, car := range cars {
			assert.Equal(t, ids[i], car.ID)
		}
	})

	t.Run("GetUnknownID", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(ctx, "unknown-id")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("UpdateMergesPartialPayload", func(t *testing.T) {
		store := newStore(t)
		car, err := store.Create(ctx, models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
		require.NoError(t, err)

		updated, err := store.Update(ctx, car.ID, models.CarPatch{Year: IntPtr(2021)})
		require.NoError(t, err)
		assert.Equal(t, models.Car{ID: car.ID, Brand: "Toyota", Model: "Corolla", Year: 2021}, *updated)

		got, err := store.Get(ctx, car.ID)
		require.NoError(t, err)
		assert.Equal(t, *updated, *got)
	})

	t.Run("UpdateUnknownIDWritesNothing", func(t *testing.T) {
		store := newStore(t)
		car, err := store.Create(ctx, models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
		require.NoError(t, err)

		_, err = store.Update(ctx, "unknown-id", models.CarPatch{Year: IntPtr(2021)})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))

		cars, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.Car{*car}, cars)
	})

	t.Run("UpdateRejectsInvalidMerge", func(t *testing.T) {
		store := newStore(t)
		car, err := store.Create(ctx, models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
		require.NoError(t, err)

		_, err = store.Update(ctx, car.ID, models.CarPatch{Brand: StrPtr("Lexus"), Year: IntPtr(1800)})
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		got, err := store.Get(ctx, car.ID)
		require.NoError(t, err)
		assert.Equal(t, *car, *got)
	})

	t.Run("DeleteTwice", func(t *testing.T) {
		store := newStore(t)
		car, err := store.Create(ctx, models.CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, car.ID))
		err = store.Delete(ctx, car.ID)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))

		_, err = store.Get(ctx, car.ID)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}

// SequenceIDs returns an id generator yielding ids in order, then repeating the last.
func SequenceIDs(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i]
		if i < len(ids)-1 {
			i++
		}
		return id
	}
}
