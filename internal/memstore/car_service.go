// Package memstore keeps cars in process memory. It backs local prototyping
// and tests; state is lost when the process exits.
package memstore

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"car-inventory-api/internal/constants"
	apperrors "car-inventory-api/internal/errors"
	"car-inventory-api/internal/models"
	"car-inventory-api/internal/repository"
)

// DefaultSeedCount is the number of sample cars loaded by New.
const DefaultSeedCount = 5

var _ repository.CarStore = (*CarService)(nil)

// CarService is an ordered, mutex-guarded collection of cars.
type CarService struct {
	mu     sync.RWMutex
	cars   []models.Car
	newID  func() string
	logger *zap.Logger
}

// Option configures the service.
type Option func(*config)

type config struct {
	seedCount int
	seed      []models.Car
	newID     func() string
	rng       *rand.Rand
}

// WithSeedCount sets how many sample cars are generated. Zero starts empty.
func WithSeedCount(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.seedCount = n
		}
	}
}

// WithCars starts the collection from the given cars instead of samples.
func WithCars(cars ...models.Car) Option {
	return func(c *config) {
		c.seed = append([]models.Car(nil), cars...)
		c.seedCount = 0
	}
}

// WithIDGenerator overrides the uuid v4 id source.
func WithIDGenerator(fn func() string) Option {
	return func(c *config) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithRand makes sample generation deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(c *config) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// New creates a service seeded with sample cars.
func New(logger *zap.Logger, opts ...Option) *CarService {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := config{
		seedCount: DefaultSeedCount,
		newID:     uuid.NewString,
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &CarService{
		cars:   make([]models.Car, 0, len(cfg.seed)+cfg.seedCount),
		newID:  cfg.newID,
		logger: logger,
	}
	for _, car := range cfg.seed {
		s.addSeedLocked(car)
	}
	for _, car := range sampleCars(cfg.rng, cfg.seedCount) {
		if car.ID = s.uniqueIDLocked(); car.ID == "" {
			break
		}
		s.cars = append(s.cars, car)
	}
	return s
}

func (s *CarService) List(ctx context.Context) ([]models.Car, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(make([]models.Car, 0, len(s.cars)), s.cars...), nil
}

func (s *CarService) Get(ctx context.Context, id string) (*models.Car, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, apperrors.NewNotFoundError(id)
	}
	car := s.cars[idx]
	return &car, nil
}

// Create validates input, assigns an id distinct from every stored id and
// appends the car.
func (s *CarService) Create(ctx context.Context, input models.CarInput) (*models.Car, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		s.logger.Debug(fmt.Sprintf("%s Rejected car", constants.APIName()), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.uniqueIDLocked()
	if id == "" {
		return nil, apperrors.NewInternalError(fmt.Errorf("no unique car id after %d attempts", repository.MaxIDAttempts))
	}

	car := models.NewCar(id, input)
	s.cars = append(s.cars, car)
	s.logger.Debug(fmt.Sprintf("%s Generated new car ID", constants.APIName()), zap.String("car_id", id))
	return &car, nil
}

// Update merges patch over the stored car and replaces it only if the
// merged record validates.
func (s *CarService) Update(ctx context.Context, id string, patch models.CarPatch) (*models.Car, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.logger.Debug(fmt.Sprintf("%s Car not found", constants.APIName()), zap.String("car_id", id))
		return nil, apperrors.NewNotFoundError(id)
	}

	merged := s.cars[idx].Apply(patch)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	s.cars[idx] = merged
	return &merged, nil
}

// Delete removes every car with the id.
func (s *CarService) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.cars[:0]
	for _, car := range s.cars {
		if car.ID != id {
			kept = append(kept, car)
		}
	}
	removed := len(s.cars) - len(kept)
	clear(s.cars[len(kept):])
	s.cars = kept

	if removed == 0 {
		return apperrors.NewNotFoundError(id)
	}
	return nil
}

// addSeedLocked appends a caller-supplied car, skipping invalid records and
// ids already present.
func (s *CarService) addSeedLocked(car models.Car) {
	if err := car.Validate(); err != nil {
		s.logger.Warn(fmt.Sprintf("%s Skipping invalid seed car", constants.APIName()),
			zap.String("car_id", car.ID), zap.Error(err))
		return
	}
	if s.indexLocked(car.ID) >= 0 {
		s.logger.Warn(fmt.Sprintf("%s Skipping seed car with duplicate id", constants.APIName()),
			zap.String("car_id", car.ID))
		return
	}
	s.cars = append(s.cars, car)
}

// Len returns the number of stored cars.
func (s *CarService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cars)
}

func (s *CarService) indexLocked(id string) int {
	for i := range s.cars {
		if s.cars[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueIDLocked returns "" once MaxIDAttempts candidates have all collided.
func (s *CarService) uniqueIDLocked() string {
	for attempt := 0; attempt < repository.MaxIDAttempts; attempt++ {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
	}
	return ""
}
