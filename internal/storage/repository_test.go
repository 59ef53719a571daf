package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhaus/plant-tracker/internal/plant"
)

// ---- mocks ----

type mockQuerier struct {
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFn(ctx, sql, args...)
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.queryFn(ctx, sql, args...)
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFn(ctx, sql, args...)
}

// scanInto copies vals into the scan destinations, with nil mapping to the
// destination's zero value.
func scanInto(dest []any, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d destinations, %d values", len(dest), len(vals))
	}
	for i, v := range vals {
		dv := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		dv.Set(reflect.ValueOf(v))
	}
	return nil
}

type fakeRow struct {
	vals []any
	err  error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(dest, r.vals)
}

type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}
func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(dest, r.rows[r.idx-1])
}
func (r *fakeRows) Values() ([]any, error) { return r.rows[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

func tag(s string) pgconn.CommandTag { return pgconn.NewCommandTag(s) }

func mustDate(t *testing.T, s string) plant.Date {
	t.Helper()
	d, err := plant.ParseDate(s)
	require.NoError(t, err)
	return d
}

// ---- locations ----

func TestListLocations(t *testing.T) {
	now := time.Now().UTC()
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
			assert.Equal(t, []any{"user-1"}, args)
			return &fakeRows{rows: [][]any{
				{"loc-2", "Balcony", "Boston", "USA", 42.3601, -71.0589, "user-1", now},
				{"loc-1", "Home", "New York", "USA", 40.7128, -74.0060, "user-1", now},
			}}, nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	locations, err := repo.ListLocations(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "loc-2", locations[0].ID)
	assert.Equal(t, "Balcony", locations[0].Name)
	assert.Equal(t, 40.7128, locations[1].Latitude)
}

func TestListLocations_QueryError(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return nil, errors.New("connection refused")
		},
	}

	repo := NewRepositoryWithQuerier(q)
	_, err := repo.ListLocations(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying locations")
}

func TestGetLocation_NotFound(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{err: pgx.ErrNoRows}
		},
	}

	repo := NewRepositoryWithQuerier(q)
	l, err := repo.GetLocation(context.Background(), "user-1", "ghost")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestGetLocation(t *testing.T) {
	now := time.Now().UTC()
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
			assert.Equal(t, []any{"loc-1", "user-1"}, args)
			return &fakeRow{vals: []any{"loc-1", "Home", "New York", "USA", 40.7128, -74.0060, "user-1", now}}
		},
	}

	repo := NewRepositoryWithQuerier(q)
	l, err := repo.GetLocation(context.Background(), "user-1", "loc-1")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "Home", l.Name)
	assert.Equal(t, "user-1", l.UserID)
}

func TestUpdateLocation_NotFound(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return tag("UPDATE 0"), nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	err := repo.UpdateLocation(context.Background(), plant.Location{ID: "ghost", UserID: "user-1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteLocation_BlockedByPlants(t *testing.T) {
	execCalled := false
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{vals: []any{3}}
		},
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			execCalled = true
			return tag("DELETE 1"), nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	err := repo.DeleteLocation(context.Background(), "user-1", "loc-1")
	assert.ErrorIs(t, err, ErrLocationHasPlants)
	assert.False(t, execCalled, "delete must not run while plants reference the location")
}

func TestDeleteLocation_NotFound(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{vals: []any{0}}
		},
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return tag("DELETE 0"), nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	err := repo.DeleteLocation(context.Background(), "user-1", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteLocation(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{vals: []any{0}}
		},
		execFn: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
			assert.Equal(t, []any{"loc-1", "user-1"}, args)
			return tag("DELETE 1"), nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	require.NoError(t, repo.DeleteLocation(context.Background(), "user-1", "loc-1"))
}

// ---- plants ----

func plantRowVals(id string, locationID, imageURL *string, planted, lastWatered time.Time, created time.Time) []any {
	return []any{
		id, "Orchid", "Phalaenopsis", "Flowering", 250.0, 60.0,
		locationID, imageURL, planted, 7, lastWatered, "user-1", created,
	}
}

func TestListPlants(t *testing.T) {
	now := time.Now().UTC()
	planted := mustDate(t, "2026-05-01").Time
	watered := mustDate(t, "2026-08-25").Time
	loc := "loc-1"

	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
			assert.Equal(t, []any{"user-1"}, args)
			return &fakeRows{rows: [][]any{
				plantRowVals("plant-1", &loc, nil, planted, watered, now),
			}}, nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	plants, err := repo.ListPlants(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, plants, 1)

	p := plants[0]
	assert.Equal(t, "plant-1", p.ID)
	require.NotNil(t, p.LocationID)
	assert.Equal(t, "loc-1", *p.LocationID)
	assert.Nil(t, p.ImageURL)
	assert.Equal(t, "2026-05-01", p.PlantedDate.String())
	assert.Equal(t, "2026-08-25", p.LastWateringDate.String())
}

func TestGetPlant_NotFound(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{err: pgx.ErrNoRows}
		},
	}

	repo := NewRepositoryWithQuerier(q)
	p, err := repo.GetPlant(context.Background(), "user-1", "ghost")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestListPlantsByLocation(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
			assert.Equal(t, []any{"user-1", "loc-1"}, args)
			return &fakeRows{}, nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	plants, err := repo.ListPlantsByLocation(context.Background(), "user-1", "loc-1")
	require.NoError(t, err)
	assert.Empty(t, plants)
}

func TestUpdatePlant_NotFound(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return tag("UPDATE 0"), nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	err := repo.UpdatePlant(context.Background(), plant.Plant{ID: "ghost", UserID: "user-1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordWatering(t *testing.T) {
	today := mustDate(t, "2026-08-29")
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
			require.Len(t, args, 3)
			assert.Equal(t, today.Time, args[0])
			assert.Equal(t, "plant-1", args[1])
			assert.Equal(t, "user-1", args[2])
			return tag("UPDATE 1"), nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	require.NoError(t, repo.RecordWatering(context.Background(), "user-1", "plant-1", today))
}

func TestRecordWatering_NotFound(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return tag("UPDATE 0"), nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	err := repo.RecordWatering(context.Background(), "user-1", "ghost", plant.Today())
	assert.ErrorIs(t, err, ErrNotFound)
}

// ---- plant health ----

func TestGetPlantHealth(t *testing.T) {
	now := time.Now().UTC()
	d1 := mustDate(t, "2026-08-01")
	d2 := mustDate(t, "2026-08-02")

	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
			assert.Equal(t, []any{"plant-1", d1.Time, d2.Time}, args)
			return &fakeRows{rows: [][]any{
				{"h-1", "plant-1", 80, 4.2, 58.0, d1.Time, now},
				{"h-2", "plant-1", 65, 0.0, 61.0, d2.Time, now},
			}}, nil
		},
	}

	repo := NewRepositoryWithQuerier(q)
	rows, err := repo.GetPlantHealth(context.Background(), "plant-1", d1, d2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 80, rows[0].HealthScore)
	assert.Equal(t, "2026-08-01", rows[0].Date.String())
	assert.Equal(t, "2026-08-02", rows[1].Date.String())
}

func TestUpsertPlantHealth(t *testing.T) {
	var execs [][]any
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
			execs = append(execs, args)
			return tag("INSERT 0 1"), nil
		},
	}

	d1 := mustDate(t, "2026-08-01")
	d2 := mustDate(t, "2026-08-02")
	rows := []plant.Health{
		{ID: "h-1", PlantID: "plant-1", HealthScore: 80, ActualWater: 4.2, ActualHumidity: 58, Date: d1},
		{ID: "h-2", PlantID: "plant-1", HealthScore: 65, ActualWater: 0, ActualHumidity: 61, Date: d2},
	}

	repo := NewRepositoryWithQuerier(q)
	require.NoError(t, repo.UpsertPlantHealth(context.Background(), rows))
	require.Len(t, execs, 2)
	assert.Equal(t, "h-1", execs[0][0])
	assert.Equal(t, d2.Time, execs[1][5])
}

func TestUpsertPlantHealth_ExecError(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("deadlock detected")
		},
	}

	repo := NewRepositoryWithQuerier(q)
	err := repo.UpsertPlantHealth(context.Background(), []plant.Health{{ID: "h-1", PlantID: "plant-1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upserting health row")
}

// ---- migrations ----

type mockMigrationPool struct {
	executed []string
	beginErr error
	execErr  error
}

func (m *mockMigrationPool) Begin(_ context.Context) (pgx.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &mockTx{pool: m}, nil
}

type mockTx struct {
	pgx.Tx
	pool       *mockMigrationPool
	rolledBack bool
}

func (t *mockTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if t.pool.execErr != nil {
		return pgconn.CommandTag{}, t.pool.execErr
	}
	t.pool.executed = append(t.pool.executed, sql)
	return tag("CREATE TABLE"), nil
}

func (t *mockTx) Commit(_ context.Context) error   { return nil }
func (t *mockTx) Rollback(_ context.Context) error { t.rolledBack = true; return nil }

func TestRunMigrations_OrderAndFiltering(t *testing.T) {
	fsys := fstest.MapFS{
		"002_plants.sql":    {Data: []byte("CREATE TABLE plants ()")},
		"001_locations.sql": {Data: []byte("CREATE TABLE locations ()")},
		"notes.txt":         {Data: []byte("not a migration")},
	}

	pool := &mockMigrationPool{}
	require.NoError(t, RunMigrations(context.Background(), pool, fsys))
	assert.Equal(t, []string{
		"CREATE TABLE locations ()",
		"CREATE TABLE plants ()",
	}, pool.executed)
}

func TestRunMigrations_ExecError(t *testing.T) {
	fsys := fstest.MapFS{
		"001_locations.sql": {Data: []byte("CREATE TABLE locations ()")},
	}

	pool := &mockMigrationPool{execErr: errors.New("syntax error")}
	err := RunMigrations(context.Background(), pool, fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_locations.sql")
}

func TestRunMigrations_BeginError(t *testing.T) {
	fsys := fstest.MapFS{
		"001_locations.sql": {Data: []byte("CREATE TABLE locations ()")},
	}

	pool := &mockMigrationPool{beginErr: errors.New("pool closed")}
	err := RunMigrations(context.Background(), pool, fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beginning transaction")
}
