package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	apperrors "car-inventory-api/internal/errors"
	"car-inventory-api/internal/models"

	"github.com/mattn/go-sqlite3"
)

//go:embed migrations/sqlite/001_initial_schema.sql
var sqliteSchema string

// SQLiteCarRepository stores cars in an embedded SQLite database.
// Use ":memory:" for a throwaway store.
type SQLiteCarRepository struct {
	db    *sql.DB
	newID func() string
}

// OpenSQLite creates or opens the database at path and applies the schema.
//
// The connection pool is limited to one connection: SQLite allows a single
// writer, and a ":memory:" database only lives as long as its connection.
func OpenSQLite(path string, opts ...Option) (*SQLiteCarRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	for _, stmt := range splitStatements(sqliteSchema) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	o := buildOptions(opts)
	return &SQLiteCarRepository{db: db, newID: o.newID}, nil
}

// Close closes the database connection.
func (r *SQLiteCarRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteCarRepository) List(ctx context.Context) ([]models.Car, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, brand, model, year FROM cars ORDER BY rowid")
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

func (r *SQLiteCarRepository) Get(ctx context.Context, id string) (*models.Car, error) {
	var car models.Car
	err := r.db.QueryRowContext(
		ctx,
		"SELECT id, brand, model, year FROM cars WHERE id = ?",
		id,
	).Scan(&car.ID, &car.Brand, &car.Model, &car.Year)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(id)
		}
		return nil, apperrors.NewStoreError(err)
	}

	return &car, nil
}

func (r *SQLiteCarRepository) Create(ctx context.Context, input models.CarInput) (*models.Car, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < MaxIDAttempts; attempt++ {
		car := models.NewCar(r.newID(), input)
		_, err := r.db.ExecContext(
			ctx,
			"INSERT INTO cars (id, brand, model, year) VALUES (?, ?, ?, ?)",
			car.ID, car.Brand, car.Model, car.Year,
		)
		if err == nil {
			return &car, nil
		}
		if !isSQLiteKeyConflict(err) {
			return nil, apperrors.NewStoreError(err)
		}
	}

	return nil, apperrors.NewInternalError(fmt.Errorf("no unique car id after %d attempts", MaxIDAttempts))
}

func (r *SQLiteCarRepository) Update(ctx context.Context, id string, patch models.CarPatch) (*models.Car, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	defer tx.Rollback() //nolint:errcheck

	var current models.Car
	err = tx.QueryRowContext(
		ctx,
		"SELECT id, brand, model, year FROM cars WHERE id = ?",
		id,
	).Scan(&current.ID, &current.Brand, &current.Model, &current.Year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(id)
		}
		return nil, apperrors.NewStoreError(err)
	}

	merged := current.Apply(patch)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(
		ctx,
		"UPDATE cars SET brand = ?, model = ?, year = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		merged.Brand, merged.Model, merged.Year, merged.ID,
	); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	return &merged, nil
}

func (r *SQLiteCarRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cars WHERE id = ?", id)
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(id)
	}
	return nil
}

func isSQLiteKeyConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
