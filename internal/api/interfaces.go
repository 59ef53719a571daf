package api

import (
	"context"
	"io"

	"github.com/greenhaus/plant-tracker/internal/cache"
	"github.com/greenhaus/plant-tracker/internal/plant"
)

// Repository defines the storage operations needed by handlers.
type Repository interface {
	ListLocations(ctx context.Context, userID string) ([]plant.Location, error)
	GetLocation(ctx context.Context, userID, id string) (*plant.Location, error)
	CreateLocation(ctx context.Context, l plant.Location) error
	UpdateLocation(ctx context.Context, l plant.Location) error
	DeleteLocation(ctx context.Context, userID, id string) error

	ListPlants(ctx context.Context, userID string) ([]plant.Plant, error)
	ListPlantsByLocation(ctx context.Context, userID, locationID string) ([]plant.Plant, error)
	GetPlant(ctx context.Context, userID, id string) (*plant.Plant, error)
	CreatePlant(ctx context.Context, p plant.Plant) error
	UpdatePlant(ctx context.Context, p plant.Plant) error
	DeletePlant(ctx context.Context, userID, id string) error
	RecordWatering(ctx context.Context, userID, id string, today plant.Date) error

	GetPlantHealth(ctx context.Context, plantID string, start, end plant.Date) ([]plant.Health, error)
	UpsertPlantHealth(ctx context.Context, rows []plant.Health) error
}

// SeriesCache defines the cache operations needed by handlers.
type SeriesCache interface {
	Get(ctx context.Context, plantID string, start, end plant.Date) (*cache.Series, error)
	Set(ctx context.Context, plantID string, start, end plant.Date, s *cache.Series) error
	Invalidate(ctx context.Context, plantID string) error
}

// SeriesBuilder defines the on-demand health computation needed by handlers.
type SeriesBuilder interface {
	BuildSeries(ctx context.Context, plantID string, weeklyWaterNeed, expectedHumidity, latitude, longitude float64, start, end plant.Date) ([]plant.Health, bool)
}

// WeatherOverview defines the all-locations conditions fetch needed by handlers.
type WeatherOverview interface {
	FetchAll(ctx context.Context, locations []plant.Location) ([]plant.LocationConditions, error)
}

// ImageUploader defines the object-storage upload needed by handlers.
type ImageUploader interface {
	Upload(ctx context.Context, userID, contentType string, sizeBytes int64, body io.Reader) (string, error)
}
