package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/middleware"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/service"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/logger"
)

// ComplaintHandler handles complaint and category endpoints.
type ComplaintHandler struct {
	service *service.ComplaintService
	logger  *logger.Logger
}

// NewComplaintHandler creates a new complaint handler.
func NewComplaintHandler(svc *service.ComplaintService, log *logger.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		service: svc,
		logger:  log,
	}
}

// Categories handles GET /api/v1/categories
func (h *ComplaintHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list categories")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": cats})
}

// Create handles POST /api/v1/complaints
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateComplaintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.service.Create(ctx, middleware.GetCitizenID(ctx), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create complaint")
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// Mine handles GET /api/v1/complaints/mine
func (h *ComplaintHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.service.Mine(ctx, middleware.GetCitizenID(ctx))
	if err != nil {
		writeServiceError(w, h.logger, err, "list complaints")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"complaints": out})
}

// Map handles GET /api/v1/complaints/map
func (h *ComplaintHandler) Map(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	query := model.MapQuery{
		CitizenID: middleware.GetCitizenID(ctx),
		RadiusKm:  service.DefaultRadiusKm,
		OnlyMine:  parseBool(q.Get("mine")),
		OnlyToday: parseBool(q.Get("today")),
		Search:    q.Get("q"),
	}
	if v, err := strconv.ParseFloat(q.Get("radius_km"), 64); err == nil {
		query.RadiusKm = v
	}
	// Both coordinates must parse for a radius search.
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr == nil && lngErr == nil {
		query.Latitude, query.Longitude = &lat, &lng
	}
	if v, err := strconv.ParseInt(q.Get("category_id"), 10, 64); err == nil {
		query.CategoryID = &v
	}

	resp, err := h.service.Map(ctx, query)
	if err != nil {
		writeServiceError(w, h.logger, err, "load complaint map")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "si", "sí":
		return true
	}
	return false
}
