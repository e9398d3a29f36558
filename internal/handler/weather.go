package handler

import (
	"net/http"
	"time"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

// refreshWeatherRequest is the POST /trips/{tripID}/weather/refresh body.
// All fields are optional; the period defaults to the trip's own window.
type refreshWeatherRequest struct {
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
	Force       bool       `json:"force"`
}

// manualWeatherRequest is the POST /trips/{tripID}/weather body: an
// operator-entered snapshot. The period is required and the hours carry the
// same nullable observation fields a provider snapshot does.
type manualWeatherRequest struct {
	PeriodStart time.Time           `json:"period_start"`
	PeriodEnd   time.Time           `json:"period_end"`
	Hours       []manualWeatherHour `json:"hours"`
}

// manualWeatherHour mirrors domain.WeatherHour minus the server-assigned ids,
// so a client cannot smuggle snapshot metadata into the body.
type manualWeatherHour struct {
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

// getWeather handles GET /trips/{tripID}/weather: the most recently fetched
// snapshot with its hourly rows. 404 when the trip has none yet.
func (s *Server) getWeather(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	tripID, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}

	snapshot, err := s.weather.Latest(r.Context(), ownerID, tripID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// createWeather handles POST /trips/{tripID}/weather: recording a manual
// snapshot. Unknown body fields are rejected, which keeps source and
// fetched_at server-assigned.
func (s *Server) createWeather(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	tripID, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req manualWeatherRequest
	if err := decodeBody(r, &req, true); err != nil {
		respondError(w, err)
		return
	}

	hours := make([]domain.WeatherHour, 0, len(req.Hours))
	for _, h := range req.Hours {
		hours = append(hours, domain.WeatherHour{
			ObservedAt:       h.ObservedAt,
			TemperatureC:     h.TemperatureC,
			FeelsLikeC:       h.FeelsLikeC,
			WindSpeedMS:      h.WindSpeedMS,
			WindGustMS:       h.WindGustMS,
			WindDirectionDeg: h.WindDirectionDeg,
			PressureHPa:      h.PressureHPa,
			HumidityPct:      h.HumidityPct,
			PrecipitationMM:  h.PrecipitationMM,
			CloudCoverPct:    h.CloudCoverPct,
			ConditionText:    h.ConditionText,
			IsDaylight:       h.IsDaylight,
		})
	}

	snapshot, err := s.weather.CreateManual(r.Context(), ownerID, tripID, req.PeriodStart, req.PeriodEnd, hours)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, snapshot)
}

// refreshWeather handles POST /trips/{tripID}/weather/refresh. An empty body
// is allowed and means "refresh the trip's own period".
func (s *Server) refreshWeather(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	tripID, err := pathID(r, "tripID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req refreshWeatherRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req, false); err != nil {
			respondError(w, err)
			return
		}
	}

	snapshot, err := s.weather.Refresh(r.Context(), ownerID, tripID, req.PeriodStart, req.PeriodEnd, req.Force)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}
