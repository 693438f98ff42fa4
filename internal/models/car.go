package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "car-inventory-api/internal/errors"
)

// MinYear is the earliest model year accepted for a car.
const MinYear = 1900

// carValidate is shared by every car payload type.
var carValidate *validator.Validate

// now is swapped in tests that need a fixed calendar year. Tests that
// replace it must not call t.Parallel.
var now = time.Now

func init() {
	v, err := newCarValidator()
	if err != nil {
		panic(fmt.Sprintf("car validator setup failed: %v", err))
	}
	carValidate = v
}

func newCarValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names ("brand") rather than Go names ("Brand").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("notfuture", validateNotFutureYear); err != nil {
		return nil, err
	}
	return v, nil
}

func validateNotFutureYear(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(now().Year())
}

// Car represents a car record
type Car struct {
	ID    string `json:"id" validate:"required"`
	Brand string `json:"brand" validate:"required"`
	Model string `json:"model" validate:"required"`
	Year  int    `json:"year" validate:"required,gte=1900,notfuture"`
}

// CarInput holds the fields a client must supply when creating a car.
type CarInput struct {
	Brand string `json:"brand" validate:"required"`
	Model string `json:"model" validate:"required"`
	Year  int    `json:"year" validate:"required,gte=1900,notfuture"`
}

// CarPatch holds the fields a client may supply when partially updating a car.
// A nil field was not supplied and keeps its stored value.
type CarPatch struct {
	Brand *string `json:"brand,omitempty"`
	Model *string `json:"model,omitempty"`
	Year  *int    `json:"year,omitempty"`
}

// NewCar builds a Car from a create payload and an assigned id.
func NewCar(id string, input CarInput) Car {
	return Car{
		ID:    id,
		Brand: input.Brand,
		Model: input.Model,
		Year:  input.Year,
	}
}

// Apply returns a copy of c with every supplied patch field merged in.
// The id is never touched.
func (c Car) Apply(patch CarPatch) Car {
	merged := c
	if patch.Brand != nil {
		merged.Brand = *patch.Brand
	}
	if patch.Model != nil {
		merged.Model = *patch.Model
	}
	if patch.Year != nil {
		merged.Year = *patch.Year
	}
	return merged
}

// IsEmpty reports whether the patch supplies no field at all.
func (p CarPatch) IsEmpty() bool {
	return p.Brand == nil && p.Model == nil && p.Year == nil
}

// Validate checks the full record.
func (c Car) Validate() error {
	return translate(carValidate.Struct(c))
}

// Validate checks a create payload.
func (in CarInput) Validate() error {
	return translate(carValidate.Struct(in))
}

// translate turns the first validator failure into a field-level AppError.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		if field == "year" {
			return apperrors.NewValidationError(field, yearRangeMessage())
		}
		return apperrors.NewValidationError(field, fmt.Sprintf("%s is required", field))
	case "gte", "notfuture":
		return apperrors.NewValidationError(field, yearRangeMessage())
	default:
		return apperrors.NewValidationError(field, fmt.Sprintf("%s is invalid", field))
	}
}

func yearRangeMessage() string {
	return fmt.Sprintf("year must be between %d and %d", MinYear, now().Year())
}
