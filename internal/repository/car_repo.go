package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	apperrors "car-inventory-api/internal/errors"
	"car-inventory-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

const uniqueViolation = "23505"

// CarRepository stores cars in the Postgres "cars" table.
type CarRepository struct {
	pool  *pgxpool.Pool
	newID func() string
}

func NewCarRepository(pool *pgxpool.Pool, opts ...Option) *CarRepository {
	o := buildOptions(opts)
	return &CarRepository{pool: pool, newID: o.newID}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (r *CarRepository) Migrate(ctx context.Context) error {
	entries, err := postgresMigrations.ReadDir("migrations/postgres")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	for _, entry := range entries {
		migrationSQL, err := postgresMigrations.ReadFile("migrations/postgres/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}

		for _, stmt := range splitStatements(string(migrationSQL)) {
			if _, err := r.pool.Exec(ctx, stmt); err != nil {
				if !strings.Contains(err.Error(), "already exists") {
					return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
				}
			}
		}
	}

	return nil
}

func (r *CarRepository) List(ctx context.Context) ([]models.Car, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, brand, model, year FROM cars ORDER BY created_at, id")
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	defer rows.Close()

	cars := make([]models.Car, 0)
	for rows.Next() {
		var car models.Car
		if err := rows.Scan(&car.ID, &car.Brand, &car.Model, &car.Year); err != nil {
			return nil, apperrors.NewStoreError(err)
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	return cars, nil
}

func (r *CarRepository) Get(ctx context.Context, id string) (*models.Car, error) {
	var car models.Car
	err := r.pool.QueryRow(
		ctx,
		"SELECT id, brand, model, year FROM cars WHERE id = $1",
		id,
	).Scan(&car.ID, &car.Brand, &car.Model, &car.Year)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(id)
		}
		return nil, apperrors.NewStoreError(err)
	}

	return &car, nil
}

// Create inserts a new car under a fresh id. A primary key collision is
// retried with another id, up to MaxIDAttempts times.
func (r *CarRepository) Create(ctx context.Context, input models.CarInput) (*models.Car, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < MaxIDAttempts; attempt++ {
		car := models.NewCar(r.newID(), input)
		_, err := r.pool.Exec(
			ctx,
			"INSERT INTO cars (id, brand, model, year) VALUES ($1, $2, $3, $4)",
			car.ID, car.Brand, car.Model, car.Year,
		)
		if err == nil {
			return &car, nil
		}
		if !isUniqueViolation(err) {
			return nil, apperrors.NewStoreError(err)
		}
	}

	return nil, apperrors.NewInternalError(fmt.Errorf("no unique car id after %d attempts", MaxIDAttempts))
}

// Update merges patch into the stored car inside a transaction. Nothing is
// written unless the merged record validates.
func (r *CarRepository) Update(ctx context.Context, id string, patch models.CarPatch) (*models.Car, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current models.Car
	err = tx.QueryRow(
		ctx,
		"SELECT id, brand, model, year FROM cars WHERE id = $1 FOR UPDATE",
		id,
	).Scan(&current.ID, &current.Brand, &current.Model, &current.Year)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(id)
		}
		return nil, apperrors.NewStoreError(err)
	}

	merged := current.Apply(patch)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		ctx,
		"UPDATE cars SET brand = $1, model = $2, year = $3, updated_at = now() WHERE id = $4",
		merged.Brand, merged.Model, merged.Year, merged.ID,
	); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	return &merged, nil
}

func (r *CarRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM cars WHERE id = $1", id)
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// splitStatements splits a migration file on semicolons, dropping blanks and
// comment-only chunks.
func splitStatements(migrationSQL string) []string {
	var statements []string
	for _, stmt := range strings.Split(migrationSQL, ";") {
		stmt = strings.TrimSpace(stripComments(stmt))
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}

func stripComments(stmt string) string {
	lines := strings.Split(stmt, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
