package adaptor

import (
	"stadium-ticketing/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	Catalog *CatalogHandler
	Ticket  *TicketHandler
	Health  *HealthHandler
}

func NewHandler(service *usecase.Service, db Pinger, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		Catalog: NewCatalogHandler(service.Catalog, service.Availability, log),
		Ticket:  NewTicketHandler(service.Ticket, log),
		Health:  NewHealthHandler(db, log),
	}
}
