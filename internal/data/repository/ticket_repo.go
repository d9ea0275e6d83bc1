package repository

import (
	"context"
	"errors"
	"fmt"

	"stadium-ticketing/internal/data/entity"
	"stadium-ticketing/internal/domain"
	"stadium-ticketing/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TicketRepository is the inventory ledger. Append is its only mutator.
type TicketRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// LockMatchSector row-locks the pricing link for the rest of the transaction.
	LockMatchSector(ctx context.Context, matchID, sectorID int64) (*entity.MatchSectorDetail, error)
	CountSold(ctx context.Context, matchID, sectorID int64) (int, error)
	Append(ctx context.Context, ticket *entity.Ticket) error

	CountSoldByMatch(ctx context.Context, matchID int64) (map[int64]int, error)
	FindByBuyer(ctx context.Context, buyerID int64, limit, offset int) ([]*entity.TicketDetail, error)
	CountByBuyer(ctx context.Context, buyerID int64) (int64, error)
}

type ticketRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTicketRepository(db database.PgxIface, log *zap.Logger) TicketRepository {
	return &ticketRepository{
		db:  db,
		log: log.With(zap.String("repository", "ticket")),
	}
}

func (tr *ticketRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTx(ctx, tr.db, fn)
}

func (tr *ticketRepository) LockMatchSector(ctx context.Context, matchID, sectorID int64) (*entity.MatchSectorDetail, error) {
	tx := database.TxFromContext(ctx)
	if tx == nil {
		return nil, domain.ErrNoTransaction
	}

	query := `
		SELECT ms.match_id, ms.sector_id, ms.price, s.name, s.capacity
		FROM match_sectors ms
		JOIN sectors s ON s.id = ms.sector_id
		WHERE ms.match_id = $1 AND ms.sector_id = $2
		FOR UPDATE OF ms
	`

	var d entity.MatchSectorDetail
	err := tx.QueryRow(ctx, query, matchID, sectorID).
		Scan(&d.MatchID, &d.SectorID, &d.Price, &d.SectorName, &d.Capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		tr.log.Error("Failed to lock match sector",
			zap.Error(err),
			zap.Int64("match_id", matchID),
			zap.Int64("sector_id", sectorID),
		)
		return nil, wrapErr("lock match sector", err)
	}
	return &d, nil
}

func (tr *ticketRepository) CountSold(ctx context.Context, matchID, sectorID int64) (int, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE match_id = $1 AND sector_id = $2`

	var sold int
	if err := database.Conn(ctx, tr.db).QueryRow(ctx, query, matchID, sectorID).Scan(&sold); err != nil {
		tr.log.Error("Failed to count sold tickets",
			zap.Error(err),
			zap.Int64("match_id", matchID),
			zap.Int64("sector_id", sectorID),
		)
		return 0, wrapErr("count sold", err)
	}
	return sold, nil
}

// Append inserts the ticket only when its slot lies within the sector's capacity.
// A slot outside capacity or already taken yields domain.ErrConflict.
func (tr *ticketRepository) Append(ctx context.Context, ticket *entity.Ticket) error {
	tx := database.TxFromContext(ctx)
	if tx == nil {
		return domain.ErrNoTransaction
	}

	query := `
		INSERT INTO tickets (id, match_id, sector_id, buyer_id, slot, created_at)
		SELECT $1::uuid, $2::bigint, $3::bigint, $4::bigint, $5::int, $6::timestamptz
		FROM sectors s
		WHERE s.id = $3::bigint AND $5::int BETWEEN 1 AND s.capacity
	`

	tag, err := tx.Exec(ctx, query,
		ticket.ID,
		ticket.MatchID,
		ticket.SectorID,
		ticket.BuyerID,
		ticket.Slot,
		ticket.CreatedAt,
	)
	if database.IsUniqueViolation(err) || database.IsCheckViolation(err) {
		tr.log.Error("Ledger constraint rejected ticket",
			zap.Error(err),
			zap.Int64("match_id", ticket.MatchID),
			zap.Int64("sector_id", ticket.SectorID),
			zap.Int("slot", ticket.Slot),
		)
		return fmt.Errorf("append ticket slot %d: %w", ticket.Slot, domain.ErrConflict)
	}
	if err != nil {
		tr.log.Error("Failed to append ticket", zap.Error(err), zap.String("ticket_id", ticket.ID.String()))
		return wrapErr("append ticket", err)
	}
	if tag.RowsAffected() != 1 {
		tr.log.Error("Ledger capacity guard rejected ticket",
			zap.Int64("match_id", ticket.MatchID),
			zap.Int64("sector_id", ticket.SectorID),
			zap.Int("slot", ticket.Slot),
		)
		return fmt.Errorf("append ticket slot %d beyond capacity: %w", ticket.Slot, domain.ErrConflict)
	}
	return nil
}

func (tr *ticketRepository) CountSoldByMatch(ctx context.Context, matchID int64) (map[int64]int, error) {
	query := `SELECT sector_id, COUNT(*) FROM tickets WHERE match_id = $1 GROUP BY sector_id`

	rows, err := database.Conn(ctx, tr.db).Query(ctx, query, matchID)
	if err != nil {
		tr.log.Error("Failed to count sold by match", zap.Error(err), zap.Int64("match_id", matchID))
		return nil, wrapErr("count sold by match", err)
	}
	defer rows.Close()

	sold := make(map[int64]int)
	for rows.Next() {
		var sectorID int64
		var n int
		if err := rows.Scan(&sectorID, &n); err != nil {
			return nil, fmt.Errorf("scan sold count: %w", err)
		}
		sold[sectorID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate sold counts", err)
	}
	return sold, nil
}

func (tr *ticketRepository) FindByBuyer(ctx context.Context, buyerID int64, limit, offset int) ([]*entity.TicketDetail, error) {
	query := `
		SELECT t.id, t.match_id, t.sector_id, t.buyer_id, t.slot, t.created_at,
		       s.name, ms.price, m.date, m.team_a, m.team_b
		FROM tickets t
		JOIN match_sectors ms ON ms.match_id = t.match_id AND ms.sector_id = t.sector_id
		JOIN sectors s ON s.id = t.sector_id
		JOIN matches m ON m.id = t.match_id
		WHERE t.buyer_id = $1
		ORDER BY t.created_at DESC, t.id
		LIMIT $2 OFFSET $3
	`

	rows, err := database.Conn(ctx, tr.db).Query(ctx, query, buyerID, limit, offset)
	if err != nil {
		tr.log.Error("Failed to list buyer tickets", zap.Error(err), zap.Int64("buyer_id", buyerID))
		return nil, wrapErr("find tickets by buyer", err)
	}
	defer rows.Close()

	tickets := make([]*entity.TicketDetail, 0)
	for rows.Next() {
		var d entity.TicketDetail
		if err := rows.Scan(
			&d.ID, &d.MatchID, &d.SectorID, &d.BuyerID, &d.Slot, &d.CreatedAt,
			&d.SectorName, &d.Price, &d.MatchDate, &d.TeamA, &d.TeamB,
		); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate tickets", err)
	}
	return tickets, nil
}

func (tr *ticketRepository) CountByBuyer(ctx context.Context, buyerID int64) (int64, error) {
	var total int64
	err := database.Conn(ctx, tr.db).
		QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE buyer_id = $1`, buyerID).
		Scan(&total)
	if err != nil {
		tr.log.Error("Failed to count buyer tickets", zap.Error(err), zap.Int64("buyer_id", buyerID))
		return 0, wrapErr("count tickets by buyer", err)
	}
	return total, nil
}
