// Package handler implements the HTTP handlers for the fishing log API.
// All handlers are methods on Server; they decode and validate the HTTP
// shape, call the service layer with an explicit owner id, and map errors to
// the public taxonomy. Methods are split into resource-specific files but all
// share the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
	"github.com/mhalme/fishlog/backend/internal/repo"
)

// The service interfaces are defined here, in the consumer package, following
// the Go convention: "accept interfaces, return concrete types". Handler tests
// inject function-field mocks without touching the database or service layer.

// EquipmentServicer defines the registry operations for one equipment kind.
type EquipmentServicer interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string) (domain.Equipment, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Equipment, error)
	List(ctx context.Context, ownerID uuid.UUID, f domain.EquipmentFilter, p domain.ListParams) ([]domain.Equipment, domain.Page, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, name *string) (domain.Equipment, error)
	SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error
}

// AssignmentServicer defines the trip equipment assignment operations for one kind.
type AssignmentServicer interface {
	List(ctx context.Context, ownerID, tripID uuid.UUID) ([]domain.Assignment, error)
	ReplaceAll(ctx context.Context, ownerID, tripID uuid.UUID, ids []uuid.UUID) ([]domain.Assignment, error)
	AddOne(ctx context.Context, ownerID, tripID, equipmentID uuid.UUID) (domain.Assignment, error)
}

// TripServicer defines the trip lifecycle operations the trip handler depends on.
type TripServicer interface {
	Create(ctx context.Context, ownerID uuid.UUID, startedAt time.Time, endedAt *time.Time, status domain.TripStatus, location *domain.Location) (domain.Trip, error)
	QuickStart(ctx context.Context, ownerID uuid.UUID, location *domain.Location, copyEquipment bool) (domain.Trip, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, ownerID uuid.UUID, f repo.TripFilter, p domain.ListParams) ([]domain.Trip, domain.Page, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, patch domain.TripPatch) (domain.Trip, *domain.RefreshOutcome, error)
	SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error
}

// CatchServicer defines the catch recording operations.
type CatchServicer interface {
	Create(ctx context.Context, ownerID uuid.UUID, c domain.Catch) (domain.Catch, error)
	GetByID(ctx context.Context, ownerID, tripID, id uuid.UUID) (domain.Catch, error)
	List(ctx context.Context, ownerID, tripID uuid.UUID, f domain.CatchFilter, p domain.ListParams) ([]domain.Catch, domain.Page, error)
	Update(ctx context.Context, ownerID, tripID, id uuid.UUID, patch domain.CatchPatch) (domain.Catch, error)
	Delete(ctx context.Context, ownerID, tripID, id uuid.UUID) error
}

// LastUsedServicer derives the "copy from last trip" equipment set.
type LastUsedServicer interface {
	LastUsed(ctx context.Context, ownerID uuid.UUID) (domain.EquipmentSet, error)
}

// WeatherServicer defines the weather refresh, manual recording, and lookup
// operations.
type WeatherServicer interface {
	Refresh(ctx context.Context, ownerID, tripID uuid.UUID, periodStart, periodEnd *time.Time, force bool) (domain.WeatherSnapshot, error)
	CreateManual(ctx context.Context, ownerID, tripID uuid.UUID, periodStart, periodEnd time.Time, hours []domain.WeatherHour) (domain.WeatherSnapshot, error)
	Latest(ctx context.Context, ownerID, tripID uuid.UUID) (domain.WeatherSnapshot, error)
}

// SpeciesServicer exposes the species reference data.
type SpeciesServicer interface {
	List(ctx context.Context) ([]domain.Species, error)
}

// ExportServicer assembles the flat full-data export.
type ExportServicer interface {
	Export(ctx context.Context, ownerID uuid.UUID) ([]domain.ExportRow, error)
}

// Server holds all handler dependencies. Wire it in main.go and mount with
// Routes. The three equipment kinds get separate servicer instances rather
// than a kind parameter on every call, mirroring how they are routed.
type Server struct {
	trips    TripServicer
	catches  CatchServicer
	lastUsed LastUsedServicer
	weather  WeatherServicer
	species  SpeciesServicer
	export   ExportServicer

	equipment   map[domain.EquipmentKind]EquipmentServicer
	assignments map[domain.EquipmentKind]AssignmentServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(
	trips TripServicer,
	catches CatchServicer,
	lastUsed LastUsedServicer,
	weather WeatherServicer,
	species SpeciesServicer,
	export ExportServicer,
	equipment map[domain.EquipmentKind]EquipmentServicer,
	assignments map[domain.EquipmentKind]AssignmentServicer,
) *Server {
	return &Server{
		trips:       trips,
		catches:     catches,
		lastUsed:    lastUsed,
		weather:     weather,
		species:     species,
		export:      export,
		equipment:   equipment,
		assignments: assignments,
	}
}

// equipmentRoutes maps URL segments to equipment kinds. The three kinds get
// identical route trees under different prefixes.
var equipmentRoutes = []struct {
	prefix string
	kind   domain.EquipmentKind
}{
	{"/rods", domain.KindRod},
	{"/lures", domain.KindLure},
	{"/groundbaits", domain.KindGroundbait},
}

// Routes registers every API route on r. The caller mounts auth middleware
// around this router; /healthz is expected to be registered outside it.
func (s *Server) Routes(r chi.Router) {
	r.Get("/species", s.listSpecies)
	r.Get("/export", s.getExport)

	for _, er := range equipmentRoutes {
		er := er
		r.Route(er.prefix, func(r chi.Router) {
			r.Get("/", s.listEquipment(er.kind))
			r.Post("/", s.createEquipment(er.kind))
			r.Get("/{id}", s.getEquipment(er.kind))
			r.Patch("/{id}", s.updateEquipment(er.kind))
			r.Delete("/{id}", s.deleteEquipment(er.kind))
		})
	}

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.listTrips)
		r.Post("/", s.createTrip)
		r.Post("/quick-start", s.quickStartTrip)
		r.Get("/last-equipment", s.getLastEquipment)

		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.getTrip)
			r.Patch("/", s.updateTrip)
			r.Delete("/", s.deleteTrip)

			for _, er := range equipmentRoutes {
				er := er
				r.Route(er.prefix, func(r chi.Router) {
					r.Get("/", s.listAssignments(er.kind))
					r.Put("/", s.replaceAssignments(er.kind))
					r.Post("/", s.addAssignment(er.kind))
				})
			}

			r.Route("/catches", func(r chi.Router) {
				r.Get("/", s.listCatches)
				r.Post("/", s.createCatch)
				r.Get("/{catchID}", s.getCatch)
				r.Patch("/{catchID}", s.updateCatch)
				r.Delete("/{catchID}", s.deleteCatch)
			})

			r.Route("/weather", func(r chi.Router) {
				r.Get("/", s.getWeather)
				r.Post("/", s.createWeather)
				r.Post("/refresh", s.refreshWeather)
			})
		})
	})
}

// HealthHandler returns the unauthenticated health check handler.
// It reports HTTP 200 with {"status":"ok"} when the server is running.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
