package plant

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// LocationConditions pairs a location with its current-day observation.
type LocationConditions struct {
	Location   Location    `json:"location"`
	Conditions Observation `json:"conditions"`
	Fallback   bool        `json:"fallback"`
}

// Overview fetches current-day conditions for a set of locations in
// parallel. Failures never surface: the weather source substitutes
// fallback data per location instead.
type Overview struct {
	weather conditionsFetcher
}

// NewOverview constructs an Overview over the given weather source.
func NewOverview(weather conditionsFetcher) *Overview {
	return &Overview{weather: weather}
}

// FetchAll returns one entry per location, in the input order.
func (o *Overview) FetchAll(ctx context.Context, locations []Location) ([]LocationConditions, error) {
	g, gCtx := errgroup.WithContext(ctx)

	results := make([]LocationConditions, len(locations))
	today := Today()

	for i, loc := range locations {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("weather overview fetch panicked", "location", loc.ID, "recover", r)
					err = fmt.Errorf("weather fetch for location %s panicked: %v", loc.ID, r)
				}
			}()
			days, fallback := o.weather.FetchDaily(gCtx, loc.Latitude, loc.Longitude, today, today)
			results[i] = LocationConditions{
				Location:   loc,
				Conditions: days[0],
				Fallback:   fallback,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching weather overview: %w", err)
	}

	return results, nil
}
