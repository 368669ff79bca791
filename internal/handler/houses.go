package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/security/middleware"
	"github.com/yourorg/estateman/internal/service"
)

// HousesHandler handles unit inventory endpoints
type HousesHandler struct {
	houseService *service.HouseService
	logger       *slog.Logger
}

// NewHousesHandler creates a new houses handler
func NewHousesHandler(houseService *service.HouseService, logger *slog.Logger) *HousesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HousesHandler{houseService: houseService, logger: logger}
}

// HouseRequest represents a house create or update
type HouseRequest struct {
	HouseNumber string          `json:"house_number" validate:"required"`
	HouseType   string          `json:"house_type" validate:"required"`
	Status      string          `json:"status"`
	Location    string          `json:"location"`
	RentAmount  decimal.Decimal `json:"rent_amount"`
	Bedrooms    int             `json:"bedrooms" validate:"min=0"`
	Bathrooms   int             `json:"bathrooms" validate:"min=0"`
	Description string          `json:"description"`
}

func (req HouseRequest) input() service.HouseInput {
	return service.HouseInput{
		HouseNumber: req.HouseNumber,
		HouseType:   domain.HouseType(req.HouseType),
		Status:      domain.HouseStatus(req.Status),
		Location:    req.Location,
		RentAmount:  req.RentAmount,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Description: req.Description,
	}
}

// HouseResponse is the unit shape returned to clients
type HouseResponse struct {
	ID          int64           `json:"id"`
	HouseNumber string          `json:"house_number"`
	HouseType   string          `json:"house_type"`
	Status      string          `json:"status"`
	Location    string          `json:"location"`
	RentAmount  decimal.Decimal `json:"rent_amount"`
	Bedrooms    int             `json:"bedrooms"`
	Bathrooms   int             `json:"bathrooms"`
	Description string          `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

func houseResponse(h *domain.House) HouseResponse {
	return HouseResponse{
		ID:          h.ID,
		HouseNumber: h.HouseNumber,
		HouseType:   string(h.HouseType),
		Status:      string(h.Status),
		Location:    h.Location,
		RentAmount:  h.RentAmount,
		Bedrooms:    h.Bedrooms,
		Bathrooms:   h.Bathrooms,
		Description: h.Description,
		CreatedAt:   h.CreatedAt.Format(time.RFC3339),
	}
}

func houseResponses(houses []*domain.House) []HouseResponse {
	out := make([]HouseResponse, 0, len(houses))
	for _, h := range houses {
		out = append(out, houseResponse(h))
	}
	return out
}

// Create handles POST /api/houses
func (h *HousesHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	var req HouseRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	house, err := h.houseService.Create(actor, req.input())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, houseResponse(house))
}

// List handles GET /api/houses
func (h *HousesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	houses, err := h.houseService.List(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"houses": houseResponses(houses)})
}

// Vacant handles GET /api/houses/vacant
func (h *HousesHandler) Vacant(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	houses, err := h.houseService.ListVacant(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"houses": houseResponses(houses)})
}

// Stats handles GET /api/houses/stats
func (h *HousesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	stats, err := h.houseService.Stats(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Get handles GET /api/houses/{id}
func (h *HousesHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	house, err := h.houseService.Get(actor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, houseResponse(house))
}

// Update handles PUT /api/houses/{id}
func (h *HousesHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req HouseRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	house, err := h.houseService.Update(actor, id, req.input())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, houseResponse(house))
}

// Delete handles DELETE /api/houses/{id}
func (h *HousesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.houseService.Delete(actor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
