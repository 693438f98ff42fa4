package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "car-inventory-api/internal/errors"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCarInputValidate(t *testing.T) {
	currentYear := time.Now().Year()

	cases := []struct {
		name  string
		input CarInput
		field string
	}{
		{"valid", CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020}, ""},
		{"lower bound", CarInput{Brand: "Ford", Model: "Model T", Year: 1900}, ""},
		{"current year", CarInput{Brand: "Kia", Model: "EV9", Year: currentYear}, ""},
		{"empty brand", CarInput{Brand: "", Model: "X", Year: 2020}, "brand"},
		{"empty model", CarInput{Brand: "Tesla", Model: "", Year: 2020}, "model"},
		{"missing year", CarInput{Brand: "Tesla", Model: "3"}, "year"},
		{"year too old", CarInput{Brand: "Benz", Model: "Velo", Year: 1899}, "year"},
		{"year in future", CarInput{Brand: "Tesla", Model: "Y", Year: currentYear + 1}, "year"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.field, appErr.Field)
		})
	}
}

func TestValidationMessages(t *testing.T) {
	err := CarInput{Model: "X", Year: 2020}.Validate()
	require.Error(t, err)
	assert.Equal(t, "brand is required", err.Error())

	err = CarInput{Brand: "A", Model: "X", Year: 1800}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year must be between 1900 and")
}

func TestNewCarValidatorRegistersNotFuture(t *testing.T) {
	v, err := newCarValidator()
	require.NoError(t, err)

	type yearOnly struct {
		Year int `json:"year" validate:"notfuture"`
	}
	assert.NoError(t, v.Struct(yearOnly{Year: 2000}))
	assert.Error(t, v.Struct(yearOnly{Year: time.Now().Year() + 1}))
}

// Swaps the package clock, so it must stay serial.
func TestNotFutureUsesClock(t *testing.T) {
	orig := now
	defer func() { now = orig }()
	now = func() time.Time { return time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC) }

	assert.NoError(t, CarInput{Brand: "A", Model: "B", Year: 2010}.Validate())
	assert.Error(t, CarInput{Brand: "A", Model: "B", Year: 2011}.Validate())
}

func TestApplyMergesOnlySuppliedFields(t *testing.T) {
	car := Car{ID: "id-1", Brand: "Toyota", Model: "Corolla", Year: 2020}

	merged := car.Apply(CarPatch{Year: intPtr(2021)})
	assert.Equal(t, Car{ID: "id-1", Brand: "Toyota", Model: "Corolla", Year: 2021}, merged)

	merged = car.Apply(CarPatch{Brand: strPtr("Lexus"), Model: strPtr("IS")})
	assert.Equal(t, Car{ID: "id-1", Brand: "Lexus", Model: "IS", Year: 2020}, merged)

	// original untouched
	assert.Equal(t, "Toyota", car.Brand)
}

func TestApplyEmptyPatch(t *testing.T) {
	car := Car{ID: "id-1", Brand: "Toyota", Model: "Corolla", Year: 2020}

	assert.True(t, CarPatch{}.IsEmpty())
	assert.Equal(t, car, car.Apply(CarPatch{}))
}

func TestCarValidateMergedRecord(t *testing.T) {
	car := Car{ID: "id-1", Brand: "Toyota", Model: "Corolla", Year: 2020}

	assert.NoError(t, car.Validate())
	assert.Error(t, car.Apply(CarPatch{Brand: strPtr("")}).Validate())
	assert.Error(t, car.Apply(CarPatch{Year: intPtr(1850)}).Validate())
}

func TestNewCar(t *testing.T) {
	car := NewCar("abc", CarInput{Brand: "Toyota", Model: "Corolla", Year: 2020})
	assert.Equal(t, Car{ID: "abc", Brand: "Toyota", Model: "Corolla", Year: 2020}, car)
}
