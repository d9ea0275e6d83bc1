package adaptor

import (
	"net/http"

	"stadium-ticketing/internal/dto/request"
	"stadium-ticketing/internal/usecase"
	"stadium-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog      usecase.CatalogService
	availability usecase.AvailabilityService
	log          *zap.Logger
}

func NewCatalogHandler(catalog usecase.CatalogService, availability usecase.AvailabilityService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:      catalog,
		availability: availability,
		log:          log.With(zap.String("handler", "catalog")),
	}
}

// ==================== MATCHES ====================

// GetMatches handles GET /api/matches
func (h *CatalogHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.catalog.ListMatches(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "list matches")
		return
	}
	utils.ResponseSuccess(w, matches)
}

// GetMatch handles GET /api/matches/{id}: the match with per-sector price and sold-out flag.
func (h *CatalogHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := h.matchID(w, r)
	if !ok {
		return
	}

	summary, err := h.availability.MatchSummary(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, h.log, err, "get match")
		return
	}
	utils.ResponseSuccess(w, summary)
}

// GetAvailability handles GET /api/matches/{id}/availability
func (h *CatalogHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	matchID, ok := h.matchID(w, r)
	if !ok {
		return
	}

	sectors, err := h.availability.Availability(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, h.log, err, "get availability")
		return
	}
	utils.ResponseSuccess(w, map[string]any{"matchId": matchID, "sectors": sectors})
}

// CreateMatch handles POST /api/matches (admin)
func (h *CatalogHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req request.CreateMatchRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	match, err := h.catalog.CreateMatchWithSectors(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create match")
		return
	}
	utils.ResponseCreated(w, match)
}

// ==================== SECTORS ====================

// GetSectors handles GET /api/sectors
func (h *CatalogHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.catalog.ListSectors(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "list sectors")
		return
	}
	utils.ResponseSuccess(w, sectors)
}

// CreateSector handles POST /api/sectors (admin)
func (h *CatalogHandler) CreateSector(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSectorRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	sector, err := h.catalog.CreateSector(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create sector")
		return
	}
	utils.ResponseCreated(w, sector)
}

func (h *CatalogHandler) matchID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Match ID must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
