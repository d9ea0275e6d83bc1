package wire

import (
	"stadium-ticketing/internal/adaptor"
	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/pkg/middleware"
	"stadium-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireTicket(
	r chi.Router,
	ticketHandler *adaptor.TicketHandler,
	repo *repository.Repository,
	infra Infra,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(config.JWT.Secret, repo.User, log))

		// limiter runs after auth so buckets are per user
		r.With(middleware.RateLimit(config.RateLimit, infra.Redis, log)).
			Post("/api/buy", ticketHandler.BuyTicket)

		r.Get("/api/user/tickets", ticketHandler.GetUserTickets)
	})
}
