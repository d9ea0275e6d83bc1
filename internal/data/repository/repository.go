package repository

import (
	"fmt"

	"stadium-ticketing/internal/domain"
	"stadium-ticketing/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User    UserRepository
	Catalog CatalogRepository
	Ticket  TicketRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:    NewUserRepository(db, log),
		Catalog: NewCatalogRepository(db, log),
		Ticket:  NewTicketRepository(db, log),
	}
}

// wrapErr tags connectivity failures with domain.ErrStorageUnavailable.
func wrapErr(op string, err error) error {
	if database.IsUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
