package wire

import (
	"stadium-ticketing/internal/adaptor"
	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/pkg/middleware"
	"stadium-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCatalog(
	r chi.Router,
	catalogHandler *adaptor.CatalogHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/matches", catalogHandler.GetMatches)
	r.Get("/api/matches/{id}", catalogHandler.GetMatch)
	r.Get("/api/matches/{id}/availability", catalogHandler.GetAvailability)
	r.Get("/api/sectors", catalogHandler.GetSectors)

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(config.JWT.Secret, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Post("/api/matches", catalogHandler.CreateMatch)
		r.Post("/api/sectors", catalogHandler.CreateSector)
	})
}
