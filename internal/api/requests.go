package api

import (
	"github.com/go-playground/validator/v10"

	"github.com/greenhaus/plant-tracker/internal/plant"
)

var validate = validator.New()

// locationRequest is the payload for creating or updating a location.
type locationRequest struct {
	Name      string  `json:"name" validate:"required"`
	City      string  `json:"city" validate:"required"`
	Country   string  `json:"country" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// plantRequest is the payload for creating or updating a plant.
type plantRequest struct {
	Name             string  `json:"name" validate:"required"`
	Species          string  `json:"species" validate:"required"`
	PlantType        string  `json:"plant_type" validate:"required"`
	WeeklyWaterNeed  float64 `json:"weekly_water_need" validate:"gt=0"`
	ExpectedHumidity float64 `json:"expected_humidity" validate:"gte=0,lte=100"`
	LocationID       *string `json:"location_id"`
	ImageURL         *string `json:"image_url"`
	PlantedDate      string  `json:"planted_date" validate:"required,datetime=2006-01-02"`
	WateringInterval int     `json:"watering_interval" validate:"gte=1"`
	LastWateringDate string  `json:"last_watering_date" validate:"required,datetime=2006-01-02"`
}

// dates parses the two date fields, which validation has already shaped.
func (p *plantRequest) dates() (planted, lastWatered plant.Date, err error) {
	planted, err = plant.ParseDate(p.PlantedDate)
	if err != nil {
		return
	}
	lastWatered, err = plant.ParseDate(p.LastWateringDate)
	return
}
