package plant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	openMeteoDefaultURL = "https://api.open-meteo.com/v1/forecast"
	weatherHTTPTimeout  = 10 * time.Second
)

// WeatherClient fetches daily precipitation and relative humidity for a
// coordinate pair from Open-Meteo. It never reports an error to callers:
// any transport failure, non-2xx response, or empty result is replaced by
// a deterministic placeholder pair so the caller always has something to
// render. The fallback flag tells callers the data is synthetic.
type WeatherClient struct {
	baseURL string
	client  *http.Client
}

// NewWeatherClient constructs a WeatherClient against the production
// Open-Meteo endpoint.
func NewWeatherClient() *WeatherClient {
	return NewWeatherClientWithURL(openMeteoDefaultURL)
}

// NewWeatherClientWithURL constructs a WeatherClient against a custom base
// URL (used in tests).
func NewWeatherClientWithURL(baseURL string) *WeatherClient {
	return &WeatherClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: weatherHTTPTimeout},
	}
}

type openMeteoResponse struct {
	Daily struct {
		Time                 []string   `json:"time"`
		PrecipitationSum     []*float64 `json:"precipitation_sum"`
		RelativeHumidityMean []*float64 `json:"relative_humidity_mean"`
	} `json:"daily"`
}

// FetchDaily returns one observation per calendar day in [start, end],
// ascending by date. One fresh request per call: no retries, no caching.
// The second return value is true when the placeholder pair was
// substituted for real data.
func (c *WeatherClient) FetchDaily(ctx context.Context, latitude, longitude float64, start, end Date) ([]Observation, bool) {
	days, err := c.fetch(ctx, latitude, longitude, start, end)
	if err != nil {
		slog.Warn("weather fetch failed, substituting fallback data",
			"lat", latitude, "lon", longitude, "start", start.String(), "end", end.String(), "err", err)
		return fallbackObservations(start, end), true
	}
	if len(days) == 0 {
		slog.Warn("weather service returned no days, substituting fallback data",
			"lat", latitude, "lon", longitude, "start", start.String(), "end", end.String())
		return fallbackObservations(start, end), true
	}
	return days, false
}

func (c *WeatherClient) fetch(ctx context.Context, latitude, longitude float64, start, end Date) ([]Observation, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", latitude))
	values.Set("longitude", fmt.Sprintf("%f", longitude))
	values.Set("daily", "precipitation_sum,relative_humidity_mean")
	values.Set("timezone", "auto")
	values.Set("start_date", start.String())
	values.Set("end_date", end.String())

	endpoint := c.baseURL + "?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", endpoint, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned status %d", endpoint, resp.StatusCode)
	}

	var raw openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}

	days := make([]Observation, 0, len(raw.Daily.Time))
	for i, ts := range raw.Daily.Time {
		date, err := ParseDate(ts)
		if err != nil {
			return nil, fmt.Errorf("open-meteo returned malformed day %q: %w", ts, err)
		}
		days = append(days, Observation{
			Date:             date,
			Precipitation:    floatAt(raw.Daily.PrecipitationSum, i),
			RelativeHumidity: floatAt(raw.Daily.RelativeHumidityMean, i),
		})
	}

	return days, nil
}

// floatAt reads vals[i], defaulting missing entries and JSON nulls to 0.
func floatAt(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// fallbackObservations is the deterministic placeholder pair substituted
// when the weather service is unavailable. The values are documented test
// data, not real observations.
func fallbackObservations(start, end Date) []Observation {
	return []Observation{
		{Date: start, Precipitation: 2.5, RelativeHumidity: 65},
		{Date: end, Precipitation: 3.2, RelativeHumidity: 70},
	}
}
