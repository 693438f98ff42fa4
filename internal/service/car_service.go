package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"car-inventory-api/internal/constants"
	apperrors "car-inventory-api/internal/errors"
	"car-inventory-api/internal/models"
	"car-inventory-api/internal/repository"
)

// CarServiceImpl serves the car store over gRPC. Cars travel as
// google.protobuf.Struct values with the same keys as the REST JSON.
type CarServiceImpl struct {
	store  repository.CarStore
	logger *zap.Logger
}

var _ CarServiceServer = (*CarServiceImpl)(nil)

func NewCarServiceImpl(store repository.CarStore, logger *zap.Logger) *CarServiceImpl {
	return &CarServiceImpl{
		store:  store,
		logger: logger,
	}
}

func (s *CarServiceImpl) ListCars(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	cars, err := s.store.List(ctx)
	if err != nil {
		return nil, s.toStatus("Error listing cars", err)
	}

	values := make([]*structpb.Value, 0, len(cars))
	for _, car := range cars {
		values = append(values, structpb.NewStructValue(CarToStruct(car)))
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *CarServiceImpl) GetCar(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := strings.TrimSpace(req.GetValue())
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "Car ID is required")
	}

	car, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.toStatus("Error fetching car", err)
	}
	return CarToStruct(*car), nil
}

func (s *CarServiceImpl) CreateCar(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input models.CarInput
	if err := decodeStruct(req, &input); err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("Invalid car: %v", err))
	}

	car, err := s.store.Create(ctx, input)
	if err != nil {
		return nil, s.toStatus("Error creating car", err)
	}

	s.logger.Info(fmt.Sprintf("%s Created car via gRPC", constants.APIName()), zap.String("car_id", car.ID))
	return CarToStruct(*car), nil
}

// UpdateCar reads the target id from the "id" key and merges the remaining
// keys as a partial update.
func (s *CarServiceImpl) UpdateCar(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := strings.TrimSpace(req.GetFields()["id"].GetStringValue())
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "Car ID is required")
	}

	var patch models.CarPatch
	if err := decodeStruct(req, &patch); err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("Invalid car: %v", err))
	}

	car, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, s.toStatus("Error updating car", err)
	}
	return CarToStruct(*car), nil
}

func (s *CarServiceImpl) DeleteCar(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := strings.TrimSpace(req.GetValue())
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "Car ID is required")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return nil, s.toStatus("Error deleting car", err)
	}

	return structpb.NewStruct(map[string]interface{}{"message": constants.CarDeletedMessage})
}

func (s *CarServiceImpl) HealthCheck(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.logger.Debug(fmt.Sprintf("%s Health check requested", constants.APIName()))

	return structpb.NewStruct(map[string]interface{}{
		"healthy": true,
		"message": "Car inventory gRPC API is healthy",
	})
}

// toStatus maps store errors to gRPC status codes, hiding internal causes.
func (s *CarServiceImpl) toStatus(msg string, err error) error {
	appErr := apperrors.FromError(err)

	switch {
	case stderrors.Is(appErr, apperrors.ErrValidation):
		return status.Error(codes.InvalidArgument, appErr.Message)
	case stderrors.Is(appErr, apperrors.ErrNotFound):
		return status.Error(codes.NotFound, appErr.Message)
	case stderrors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case stderrors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}

	s.logger.Error(fmt.Sprintf("%s %s", constants.APIName(), msg), zap.Error(err))
	return status.Error(codes.Internal, appErr.Message)
}

// CarToStruct converts a car into its Struct form.
func CarToStruct(car models.Car) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":    structpb.NewStringValue(car.ID),
		"brand": structpb.NewStringValue(car.Brand),
		"model": structpb.NewStringValue(car.Model),
		"year":  structpb.NewNumberValue(float64(car.Year)),
	}}
}

// StructToCar converts a Struct produced by CarToStruct back into a car.
func StructToCar(st *structpb.Struct) (models.Car, error) {
	var car models.Car
	err := decodeStruct(st, &car)
	return car, err
}

// decodeStruct round-trips through JSON so struct keys follow the same json
// tags as the REST payloads. Fractional years fail to decode into int.
func decodeStruct(st *structpb.Struct, out interface{}) error {
	data, err := protojson.Marshal(st)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
