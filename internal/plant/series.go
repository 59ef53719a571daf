package plant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// conditionsFetcher is the interface satisfied by WeatherClient.
type conditionsFetcher interface {
	FetchDaily(ctx context.Context, latitude, longitude float64, start, end Date) ([]Observation, bool)
}

// SeriesBuilder derives a per-day health series for one plant from the
// weather at its location.
type SeriesBuilder struct {
	weather conditionsFetcher
}

// NewSeriesBuilder constructs a SeriesBuilder over the given weather source.
func NewSeriesBuilder(weather conditionsFetcher) *SeriesBuilder {
	return &SeriesBuilder{weather: weather}
}

// BuildSeries produces one Health row per day the weather source reports,
// in the source's (ascending) date order. The weekly water need is divided
// by 7 so each day's precipitation is scored against a daily figure.
// Side-effect-free and idempotent: two calls with identical inputs yield
// equal scores, water, and humidity values (ids and timestamps differ).
// The second return value reports whether fallback weather was used.
func (b *SeriesBuilder) BuildSeries(ctx context.Context, plantID string, weeklyWaterNeed, expectedHumidity, latitude, longitude float64, start, end Date) ([]Health, bool) {
	days, fallback := b.weather.FetchDaily(ctx, latitude, longitude, start, end)

	dailyWaterNeed := weeklyWaterNeed / 7
	now := time.Now().UTC()

	rows := make([]Health, 0, len(days))
	for _, day := range days {
		rows = append(rows, Health{
			ID:             uuid.NewString(),
			PlantID:        plantID,
			HealthScore:    Score(day.Precipitation, dailyWaterNeed, day.RelativeHumidity, expectedHumidity),
			ActualWater:    day.Precipitation,
			ActualHumidity: day.RelativeHumidity,
			Date:           day.Date,
			CreatedAt:      now,
		})
	}

	return rows, fallback
}
