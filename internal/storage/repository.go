package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenhaus/plant-tracker/internal/plant"
)

// Domain errors surfaced by the repository.
var (
	// ErrNotFound reports that a write targeted a row that does not exist
	// (or belongs to another user).
	ErrNotFound = errors.New("record not found")

	// ErrLocationHasPlants blocks deletion of a location while any plant
	// still references it.
	ErrLocationHasPlants = errors.New("location still has plants associated with it")
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides database access for locations, plants, and plant
// health rows. Every operation is scoped to the calling user where the
// table carries a user_id.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// ---- locations ----

const locationColumns = `id, name, city, country, latitude, longitude, user_id, created_at`

func scanLocation(row pgx.Row) (*plant.Location, error) {
	var l plant.Location
	err := row.Scan(&l.ID, &l.Name, &l.City, &l.Country, &l.Latitude, &l.Longitude, &l.UserID, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLocations returns the user's locations, newest first.
func (r *Repository) ListLocations(ctx context.Context, userID string) ([]plant.Location, error) {
	const q = `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var results []plant.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning location row: %w", err)
		}
		results = append(results, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating location rows: %w", err)
	}

	return results, nil
}

// GetLocation retrieves one of the user's locations by id.
// Returns nil, nil when not found.
func (r *Repository) GetLocation(ctx context.Context, userID, id string) (*plant.Location, error) {
	const q = `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE id = $1 AND user_id = $2
	`

	l, err := scanLocation(r.q.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying location %s: %w", id, err)
	}
	return l, nil
}

// CreateLocation inserts a fully populated location record.
func (r *Repository) CreateLocation(ctx context.Context, l plant.Location) error {
	const q = `
		INSERT INTO locations (id, name, city, country, latitude, longitude, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if _, err := r.q.Exec(ctx, q, l.ID, l.Name, l.City, l.Country, l.Latitude, l.Longitude, l.UserID, l.CreatedAt); err != nil {
		return fmt.Errorf("inserting location %s: %w", l.ID, err)
	}
	return nil
}

// UpdateLocation overwrites the mutable fields of a location. The caller
// supplies the full record; there is no optimistic concurrency check.
func (r *Repository) UpdateLocation(ctx context.Context, l plant.Location) error {
	const q = `
		UPDATE locations
		SET name = $1, city = $2, country = $3, latitude = $4, longitude = $5
		WHERE id = $6 AND user_id = $7
	`

	tag, err := r.q.Exec(ctx, q, l.Name, l.City, l.Country, l.Latitude, l.Longitude, l.ID, l.UserID)
	if err != nil {
		return fmt.Errorf("updating location %s: %w", l.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLocation removes a location, refusing while any plant still
// references it.
func (r *Repository) DeleteLocation(ctx context.Context, userID, id string) error {
	const countQ = `SELECT COUNT(*) FROM plants WHERE location_id = $1`

	var n int
	if err := r.q.QueryRow(ctx, countQ, id).Scan(&n); err != nil {
		return fmt.Errorf("counting plants at location %s: %w", id, err)
	}
	if n > 0 {
		return ErrLocationHasPlants
	}

	const q = `DELETE FROM locations WHERE id = $1 AND user_id = $2`

	tag, err := r.q.Exec(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("deleting location %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- plants ----

const plantColumns = `id, name, species, plant_type, weekly_water_need, expected_humidity,
	location_id, image_url, planted_date, watering_interval, last_watering_date, user_id, created_at`

func scanPlant(row pgx.Row) (*plant.Plant, error) {
	var p plant.Plant
	var planted, lastWatered time.Time
	err := row.Scan(&p.ID, &p.Name, &p.Species, &p.PlantType, &p.WeeklyWaterNeed, &p.ExpectedHumidity,
		&p.LocationID, &p.ImageURL, &planted, &p.WateringInterval, &lastWatered, &p.UserID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.PlantedDate = plant.DateOf(planted)
	p.LastWateringDate = plant.DateOf(lastWatered)
	return &p, nil
}

func (r *Repository) queryPlants(ctx context.Context, q string, args ...any) ([]plant.Plant, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying plants: %w", err)
	}
	defer rows.Close()

	var results []plant.Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plant row: %w", err)
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plant rows: %w", err)
	}

	return results, nil
}

// ListPlants returns the user's plants, newest first.
func (r *Repository) ListPlants(ctx context.Context, userID string) ([]plant.Plant, error) {
	const q = `
		SELECT ` + plantColumns + `
		FROM plants
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.queryPlants(ctx, q, userID)
}

// ListPlantsByLocation returns the user's plants at one location, newest first.
func (r *Repository) ListPlantsByLocation(ctx context.Context, userID, locationID string) ([]plant.Plant, error) {
	const q = `
		SELECT ` + plantColumns + `
		FROM plants
		WHERE user_id = $1 AND location_id = $2
		ORDER BY created_at DESC
	`
	return r.queryPlants(ctx, q, userID, locationID)
}

// GetPlant retrieves one of the user's plants by id.
// Returns nil, nil when not found.
func (r *Repository) GetPlant(ctx context.Context, userID, id string) (*plant.Plant, error) {
	const q = `
		SELECT ` + plantColumns + `
		FROM plants
		WHERE id = $1 AND user_id = $2
	`

	p, err := scanPlant(r.q.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying plant %s: %w", id, err)
	}
	return p, nil
}

// CreatePlant inserts a fully populated plant record.
func (r *Repository) CreatePlant(ctx context.Context, p plant.Plant) error {
	const q = `
		INSERT INTO plants (id, name, species, plant_type, weekly_water_need, expected_humidity,
			location_id, image_url, planted_date, watering_interval, last_watering_date, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.Exec(ctx, q, p.ID, p.Name, p.Species, p.PlantType, p.WeeklyWaterNeed, p.ExpectedHumidity,
		p.LocationID, p.ImageURL, p.PlantedDate.Time, p.WateringInterval, p.LastWateringDate.Time, p.UserID, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting plant %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePlant overwrites the mutable fields of a plant. Blind overwrite,
// same as UpdateLocation.
func (r *Repository) UpdatePlant(ctx context.Context, p plant.Plant) error {
	const q = `
		UPDATE plants
		SET name = $1, species = $2, plant_type = $3, weekly_water_need = $4, expected_humidity = $5,
		    location_id = $6, image_url = $7, planted_date = $8, watering_interval = $9, last_watering_date = $10
		WHERE id = $11 AND user_id = $12
	`

	tag, err := r.q.Exec(ctx, q, p.Name, p.Species, p.PlantType, p.WeeklyWaterNeed, p.ExpectedHumidity,
		p.LocationID, p.ImageURL, p.PlantedDate.Time, p.WateringInterval, p.LastWateringDate.Time, p.ID, p.UserID)
	if err != nil {
		return fmt.Errorf("updating plant %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePlant removes a plant. Health rows are left orphaned on purpose:
// they are recomputable cache entries, not records.
func (r *Repository) DeletePlant(ctx context.Context, userID, id string) error {
	const q = `DELETE FROM plants WHERE id = $1 AND user_id = $2`

	tag, err := r.q.Exec(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("deleting plant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordWatering sets the plant's last watering date to today.
func (r *Repository) RecordWatering(ctx context.Context, userID, id string, today plant.Date) error {
	const q = `UPDATE plants SET last_watering_date = $1 WHERE id = $2 AND user_id = $3`

	tag, err := r.q.Exec(ctx, q, today.Time, id, userID)
	if err != nil {
		return fmt.Errorf("recording watering for plant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- plant health ----

// GetPlantHealth returns stored health rows for the plant inside the date
// window, ascending by date.
func (r *Repository) GetPlantHealth(ctx context.Context, plantID string, start, end plant.Date) ([]plant.Health, error) {
	const q = `
		SELECT id, plant_id, health_score, actual_water, actual_humidity, date, created_at
		FROM plant_health
		WHERE plant_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`

	rows, err := r.q.Query(ctx, q, plantID, start.Time, end.Time)
	if err != nil {
		return nil, fmt.Errorf("querying plant health for %s: %w", plantID, err)
	}
	defer rows.Close()

	var results []plant.Health
	for rows.Next() {
		var h plant.Health
		var date time.Time
		if err := rows.Scan(&h.ID, &h.PlantID, &h.HealthScore, &h.ActualWater, &h.ActualHumidity, &date, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plant health row: %w", err)
		}
		h.Date = plant.DateOf(date)
		results = append(results, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plant health rows: %w", err)
	}

	return results, nil
}

// UpsertPlantHealth stores recomputed health rows. At most one row exists
// per (plant, date), so regenerating a range is idempotent.
func (r *Repository) UpsertPlantHealth(ctx context.Context, rows []plant.Health) error {
	const q = `
		INSERT INTO plant_health (id, plant_id, health_score, actual_water, actual_humidity, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (plant_id, date) DO UPDATE
		SET health_score    = EXCLUDED.health_score,
		    actual_water    = EXCLUDED.actual_water,
		    actual_humidity = EXCLUDED.actual_humidity,
		    created_at      = EXCLUDED.created_at
	`

	for _, h := range rows {
		if _, err := r.q.Exec(ctx, q, h.ID, h.PlantID, h.HealthScore, h.ActualWater, h.ActualHumidity, h.Date.Time, h.CreatedAt); err != nil {
			return fmt.Errorf("upserting health row for plant %s on %s: %w", h.PlantID, h.Date, err)
		}
	}
	return nil
}
