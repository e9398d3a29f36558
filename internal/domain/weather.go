package domain

import (
	"time"

	"github.com/google/uuid"
)

// WeatherSource distinguishes provider-fetched snapshots from ones entered
// by hand.
type WeatherSource string

const (
	WeatherSourceAPI    WeatherSource = "api"
	WeatherSourceManual WeatherSource = "manual"
)

// WeatherSnapshot is one immutable capture of weather data for a trip's
// location and time window. Refreshing never mutates an existing snapshot —
// it inserts a new one, and the trip's "current" weather is whichever
// snapshot was fetched most recently.
type WeatherSnapshot struct {
	ID          uuid.UUID     `json:"id"`
	TripID      uuid.UUID     `json:"trip_id"`
	Source      WeatherSource `json:"source"`
	FetchedAt   time.Time     `json:"fetched_at"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	Hours       []WeatherHour `json:"hours,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// RefreshOutcome reports the result of an automatic weather refresh issued
// as a side effect of closing a trip. It rides on the close response as a
// secondary status: a failed refresh never fails the close itself.
type RefreshOutcome struct {
	Status     string     `json:"status"` // "ok" or "failed"
	SnapshotID *uuid.UUID `json:"snapshot_id,omitempty"`
	Error      string     `json:"error,omitempty"` // error code, present when Status is "failed"
}

// WeatherHour is a single point-in-time observation inside a snapshot.
// Every weather field is individually nullable: providers omit fields
// inconsistently, and an absent value must stay null rather than collapse
// to zero.
type WeatherHour struct {
	ID               uuid.UUID `json:"id"`
	SnapshotID       uuid.UUID `json:"-"`
	ObservedAt       time.Time `json:"observed_at"`
	TemperatureC     *float64  `json:"temperature_c"`
	FeelsLikeC       *float64  `json:"feels_like_c"`
	WindSpeedMS      *float64  `json:"wind_speed_ms"`
	WindGustMS       *float64  `json:"wind_gust_ms"`
	WindDirectionDeg *int      `json:"wind_direction_deg"`
	PressureHPa      *float64  `json:"pressure_hpa"`
	HumidityPct      *float64  `json:"humidity_pct"`
	PrecipitationMM  *float64  `json:"precipitation_mm"`
	CloudCoverPct    *int      `json:"cloud_cover_pct"`
	ConditionText    *string   `json:"condition_text"`
	IsDaylight       *bool     `json:"is_daylight"`
}
