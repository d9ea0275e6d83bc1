package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stadium-ticketing/internal/clock"
	"stadium-ticketing/internal/data/entity"
	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/internal/domain"
	"stadium-ticketing/internal/dto/request"
	"stadium-ticketing/internal/dto/response"
	"stadium-ticketing/pkg/cache"
	"stadium-ticketing/pkg/lock"
	"stadium-ticketing/pkg/queue"
	"stadium-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sideEffectTimeout = 2 * time.Second

// TicketService is the reservation engine plus read access to the ledger.
type TicketService interface {
	Purchase(ctx context.Context, buyer domain.Identity, req *request.BuyTicketRequest) (*response.PurchaseResponse, error)
	CountSold(ctx context.Context, matchID, sectorID int64) (int, error)
	GetUserTickets(ctx context.Context, buyer domain.Identity, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserTicketResponse], error)
}

// saleKey identifies one capacity pool.
type saleKey struct {
	matchID  int64
	sectorID int64
}

type ticketService struct {
	repo      *repository.Repository
	locks     *lock.KeyedMutex[saleKey]
	cache     cache.Cache
	publisher queue.Publisher
	clock     clock.Clock
	log       *zap.Logger
}

func NewTicketService(
	repo *repository.Repository,
	c cache.Cache,
	publisher queue.Publisher,
	clk clock.Clock,
	log *zap.Logger,
) TicketService {
	return &ticketService{
		repo:      repo,
		locks:     lock.NewKeyedMutex[saleKey](),
		cache:     c,
		publisher: publisher,
		clock:     clk,
		log:       log.With(zap.String("service", "ticket")),
	}
}

// Purchase sells one ticket of the sector for the match, or fails with
// domain.ErrNotFound, domain.ErrSectorSoldOut or a *domain.ValidationError.
// The count-and-append runs under the per-(match, sector) lock inside a
// transaction holding a row lock on the pricing link.
func (s *ticketService) Purchase(ctx context.Context, buyer domain.Identity, req *request.BuyTicketRequest) (*response.PurchaseResponse, error) {
	if err := validate(req, "invalid purchase"); err != nil {
		return nil, err
	}
	if buyer.UserID <= 0 {
		return nil, domain.NewValidationError("invalid purchase", map[string]string{"buyerId": "Buyer identity required"})
	}

	log := s.log.With(
		zap.Int64("match_id", req.MatchID),
		zap.Int64("sector_id", req.SectorID),
		zap.Int64("buyer_id", buyer.UserID),
	)

	link, err := s.repo.Catalog.FindMatchSector(ctx, req.MatchID, req.SectorID)
	if err != nil {
		return nil, fmt.Errorf("resolve pricing link: %w", err)
	}
	if link == nil {
		return nil, fmt.Errorf("match %d sector %d: %w", req.MatchID, req.SectorID, domain.ErrNotFound)
	}
	match, err := s.repo.Catalog.FindMatchByID(ctx, req.MatchID)
	if err != nil {
		return nil, fmt.Errorf("load match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", req.MatchID, domain.ErrNotFound)
	}

	ticket, err := s.reserve(ctx, saleKey{req.MatchID, req.SectorID}, buyer.UserID)
	switch {
	case errors.Is(err, domain.ErrSectorSoldOut):
		log.Info("Purchase rejected: sector sold out")
		return nil, err
	case errors.Is(err, domain.ErrConflict):
		log.Error("Ledger constraint tripped during purchase", zap.Error(err))
		return nil, err
	case err != nil:
		log.Warn("Purchase failed", zap.Error(err))
		return nil, err
	}

	log.Info("Ticket sold", zap.String("ticket_id", ticket.ID.String()), zap.Int("slot", ticket.Slot))

	s.afterSale(ctx, ticket, link)

	return &response.PurchaseResponse{
		Message: "Ticket purchased successfully",
		Ticket: response.TicketResponse{
			ID:         ticket.ID.String(),
			MatchID:    ticket.MatchID,
			SectorID:   ticket.SectorID,
			BuyerID:    ticket.BuyerID,
			CreatedAt:  ticket.CreatedAt,
			Price:      link.Price,
			SectorName: link.SectorName,
			Match:      response.MatchToResponse(match),
		},
	}, nil
}

// reserve is the critical section. The lock is released before returning.
func (s *ticketService) reserve(ctx context.Context, key saleKey, buyerID int64) (*entity.Ticket, error) {
	unlock, err := s.locks.Lock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("acquire sale lock: %w", err)
	}
	defer unlock()

	ticket := &entity.Ticket{
		ID:        uuid.New(),
		MatchID:   key.matchID,
		SectorID:  key.sectorID,
		BuyerID:   buyerID,
		CreatedAt: s.clock.Now(),
	}

	err = s.repo.Ticket.WithTx(ctx, func(txCtx context.Context) error {
		link, err := s.repo.Ticket.LockMatchSector(txCtx, key.matchID, key.sectorID)
		if err != nil {
			return err
		}
		if link == nil {
			return fmt.Errorf("match %d sector %d: %w", key.matchID, key.sectorID, domain.ErrNotFound)
		}

		sold, err := s.repo.Ticket.CountSold(txCtx, key.matchID, key.sectorID)
		if err != nil {
			return err
		}
		if sold >= link.Capacity {
			return domain.ErrSectorSoldOut
		}

		ticket.Slot = sold + 1
		return s.repo.Ticket.Append(txCtx, ticket)
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// afterSale runs outside the sale lock; failures are logged only.
func (s *ticketService) afterSale(ctx context.Context, ticket *entity.Ticket, link *entity.MatchSectorDetail) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.cache.Delete(ctx, cache.MatchKeys(ticket.MatchID)...); err != nil {
		s.log.Warn("Failed to invalidate availability cache", zap.Error(err), zap.Int64("match_id", ticket.MatchID))
	}

	event := queue.TicketPurchasedEvent{
		TicketID:   ticket.ID.String(),
		MatchID:    ticket.MatchID,
		SectorID:   ticket.SectorID,
		SectorName: link.SectorName,
		BuyerID:    ticket.BuyerID,
		Price:      link.Price,
		Slot:       ticket.Slot,
		CreatedAt:  ticket.CreatedAt,
	}
	if err := s.publisher.PublishTicketPurchased(ctx, event); err != nil {
		s.log.Warn("Failed to publish ticket event", zap.Error(err), zap.String("ticket_id", event.TicketID))
	}
}

func (s *ticketService) CountSold(ctx context.Context, matchID, sectorID int64) (int, error) {
	sold, err := s.repo.Ticket.CountSold(ctx, matchID, sectorID)
	if err != nil {
		return 0, fmt.Errorf("count sold: %w", err)
	}
	return sold, nil
}

func (s *ticketService) GetUserTickets(ctx context.Context, buyer domain.Identity, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserTicketResponse], error) {
	page, perPage := utils.NormalizePage(req.Page, req.PerPage)
	req.Page, req.PerPage = page, perPage

	tickets, err := s.repo.Ticket.FindByBuyer(ctx, buyer.UserID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get user tickets: %w", err)
	}

	total, err := s.repo.Ticket.CountByBuyer(ctx, buyer.UserID)
	if err != nil {
		return nil, fmt.Errorf("count user tickets: %w", err)
	}

	return response.NewPaginatedResponse(response.UserTicketsToResponse(tickets), page, perPage, total), nil
}
