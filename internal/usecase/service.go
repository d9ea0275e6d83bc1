package usecase

import (
	"stadium-ticketing/internal/clock"
	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/internal/domain"
	"stadium-ticketing/pkg/cache"
	"stadium-ticketing/pkg/queue"
	"stadium-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth         AuthService
	Catalog      CatalogService
	Ticket       TicketService
	Availability AvailabilityService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
	c cache.Cache,
	publisher queue.Publisher,
	clk clock.Clock,
) *Service {
	return &Service{
		Auth:         NewAuthService(repo.User, config, clk, log),
		Catalog:      NewCatalogService(repo, log),
		Ticket:       NewTicketService(repo, c, publisher, clk, log),
		Availability: NewAvailabilityService(repo, c, log),
	}
}

// validate runs struct tags and returns a *domain.ValidationError on failure
func validate(req any, msg string) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return domain.NewValidationError(msg, errs)
	}
	return nil
}
