package plant

import "time"

// Location is a named geographic site a user tracks plants at.
type Location struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Plant is a tracked specimen with its care requirements and watering history.
type Plant struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Species          string    `json:"species"`
	PlantType        string    `json:"plant_type"`
	WeeklyWaterNeed  float64   `json:"weekly_water_need"`
	ExpectedHumidity float64   `json:"expected_humidity"`
	LocationID       *string   `json:"location_id"`
	ImageURL         *string   `json:"image_url"`
	PlantedDate      Date      `json:"planted_date"`
	WateringInterval int       `json:"watering_interval"`
	LastWateringDate Date      `json:"last_watering_date"`
	UserID           string    `json:"user_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// Health is one derived daily score comparing a plant's expected care
// needs against observed weather. Rows are a recomputable cache, never a
// system of record: regenerating the same plant/date always yields the
// same score.
type Health struct {
	ID             string    `json:"id"`
	PlantID        string    `json:"plant_id"`
	HealthScore    int       `json:"health_score"`
	ActualWater    float64   `json:"actual_water"`
	ActualHumidity float64   `json:"actual_humidity"`
	Date           Date      `json:"date"`
	CreatedAt      time.Time `json:"created_at"`
}

// Observation is one day's precipitation and relative humidity for a
// coordinate pair. Observations are never persisted.
type Observation struct {
	Date             Date    `json:"date"`
	Precipitation    float64 `json:"precipitation"`
	RelativeHumidity float64 `json:"relative_humidity"`
}
