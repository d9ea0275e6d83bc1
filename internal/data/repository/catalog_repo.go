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

// CatalogRepository owns matches, sectors and their pricing links.
type CatalogRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateSector(ctx context.Context, sector *entity.Sector) error
	FindSectorByID(ctx context.Context, id int64) (*entity.Sector, error)
	FindSectorsByIDs(ctx context.Context, ids []int64) ([]*entity.Sector, error)
	ListSectors(ctx context.Context) ([]*entity.Sector, error)

	CreateMatch(ctx context.Context, match *entity.Match) error
	CreateMatchSector(ctx context.Context, link *entity.MatchSector) error
	FindMatchByID(ctx context.Context, id int64) (*entity.Match, error)
	ListMatches(ctx context.Context) ([]*entity.Match, error)
	FindMatchSector(ctx context.Context, matchID, sectorID int64) (*entity.MatchSectorDetail, error)
	FindMatchSectors(ctx context.Context, matchID int64) ([]*entity.MatchSectorDetail, error)
}

type catalogRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCatalogRepository(db database.PgxIface, log *zap.Logger) CatalogRepository {
	return &catalogRepository{
		db:  db,
		log: log.With(zap.String("repository", "catalog")),
	}
}

func (cr *catalogRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTx(ctx, cr.db, fn)
}

// ==================== SECTORS ====================

func (cr *catalogRepository) CreateSector(ctx context.Context, sector *entity.Sector) error {
	query := `
		INSERT INTO sectors (name, capacity)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := database.Conn(ctx, cr.db).QueryRow(ctx, query, sector.Name, sector.Capacity).
		Scan(&sector.ID, &sector.CreatedAt)
	if err != nil {
		cr.log.Error("Failed to create sector", zap.Error(err), zap.String("name", sector.Name))
		return wrapErr("create sector", err)
	}
	return nil
}

func (cr *catalogRepository) FindSectorByID(ctx context.Context, id int64) (*entity.Sector, error) {
	query := `SELECT id, name, capacity, created_at FROM sectors WHERE id = $1`

	var s entity.Sector
	err := database.Conn(ctx, cr.db).QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Capacity, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		cr.log.Error("Failed to find sector", zap.Error(err), zap.Int64("sector_id", id))
		return nil, wrapErr("find sector by id", err)
	}
	return &s, nil
}

func (cr *catalogRepository) FindSectorsByIDs(ctx context.Context, ids []int64) ([]*entity.Sector, error) {
	query := `SELECT id, name, capacity, created_at FROM sectors WHERE id = ANY($1) ORDER BY id`

	rows, err := database.Conn(ctx, cr.db).Query(ctx, query, ids)
	if err != nil {
		cr.log.Error("Failed to find sectors", zap.Error(err), zap.Int64s("sector_ids", ids))
		return nil, wrapErr("find sectors by ids", err)
	}
	return collectSectors(rows)
}

func (cr *catalogRepository) ListSectors(ctx context.Context) ([]*entity.Sector, error) {
	query := `SELECT id, name, capacity, created_at FROM sectors ORDER BY id`

	rows, err := database.Conn(ctx, cr.db).Query(ctx, query)
	if err != nil {
		cr.log.Error("Failed to list sectors", zap.Error(err))
		return nil, wrapErr("list sectors", err)
	}
	return collectSectors(rows)
}

func collectSectors(rows pgx.Rows) ([]*entity.Sector, error) {
	defer rows.Close()

	sectors := make([]*entity.Sector, 0)
	for rows.Next() {
		var s entity.Sector
		if err := rows.Scan(&s.ID, &s.Name, &s.Capacity, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sector: %w", err)
		}
		sectors = append(sectors, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate sectors", err)
	}
	return sectors, nil
}

// ==================== MATCHES ====================

func (cr *catalogRepository) CreateMatch(ctx context.Context, match *entity.Match) error {
	query := `
		INSERT INTO matches (date, location, team_a, team_b)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := database.Conn(ctx, cr.db).QueryRow(ctx, query,
		match.Date,
		match.Location,
		match.TeamA,
		match.TeamB,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		cr.log.Error("Failed to create match",
			zap.Error(err),
			zap.String("team_a", match.TeamA),
			zap.String("team_b", match.TeamB),
		)
		return wrapErr("create match", err)
	}
	return nil
}

// CreateMatchSector returns domain.ErrNotFound when the match or sector does not exist.
func (cr *catalogRepository) CreateMatchSector(ctx context.Context, link *entity.MatchSector) error {
	query := `INSERT INTO match_sectors (match_id, sector_id, price) VALUES ($1, $2, $3)`

	_, err := database.Conn(ctx, cr.db).Exec(ctx, query, link.MatchID, link.SectorID, link.Price)
	switch {
	case err == nil:
		return nil
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("link sector %d: %w", link.SectorID, domain.ErrNotFound)
	case database.IsUniqueViolation(err):
		return fmt.Errorf("link sector %d twice: %w", link.SectorID, domain.ErrConflict)
	case database.IsCheckViolation(err), database.IsNumericOutOfRange(err):
		// price rounds to 0.00 or overflows NUMERIC(12,2)
		return domain.NewValidationError("invalid match", map[string]string{
			"price": fmt.Sprintf("Price %v for sector %d is outside 0.01 to 9999999999.99", link.Price, link.SectorID),
		})
	default:
		cr.log.Error("Failed to create match sector",
			zap.Error(err),
			zap.Int64("match_id", link.MatchID),
			zap.Int64("sector_id", link.SectorID),
		)
		return wrapErr("create match sector", err)
	}
}

func (cr *catalogRepository) FindMatchByID(ctx context.Context, id int64) (*entity.Match, error) {
	query := `SELECT id, date, location, team_a, team_b, created_at FROM matches WHERE id = $1`

	var m entity.Match
	err := database.Conn(ctx, cr.db).QueryRow(ctx, query, id).
		Scan(&m.ID, &m.Date, &m.Location, &m.TeamA, &m.TeamB, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		cr.log.Error("Failed to find match", zap.Error(err), zap.Int64("match_id", id))
		return nil, wrapErr("find match by id", err)
	}
	return &m, nil
}

func (cr *catalogRepository) ListMatches(ctx context.Context) ([]*entity.Match, error) {
	query := `SELECT id, date, location, team_a, team_b, created_at FROM matches ORDER BY date, id`

	rows, err := database.Conn(ctx, cr.db).Query(ctx, query)
	if err != nil {
		cr.log.Error("Failed to list matches", zap.Error(err))
		return nil, wrapErr("list matches", err)
	}
	defer rows.Close()

	matches := make([]*entity.Match, 0)
	for rows.Next() {
		var m entity.Match
		if err := rows.Scan(&m.ID, &m.Date, &m.Location, &m.TeamA, &m.TeamB, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate matches", err)
	}
	return matches, nil
}

// ==================== PRICING LINKS ====================

const matchSectorSelect = `
	SELECT ms.match_id, ms.sector_id, ms.price, s.name, s.capacity
	FROM match_sectors ms
	JOIN sectors s ON s.id = ms.sector_id
`

func (cr *catalogRepository) FindMatchSector(ctx context.Context, matchID, sectorID int64) (*entity.MatchSectorDetail, error) {
	query := matchSectorSelect + ` WHERE ms.match_id = $1 AND ms.sector_id = $2`

	var d entity.MatchSectorDetail
	err := database.Conn(ctx, cr.db).QueryRow(ctx, query, matchID, sectorID).
		Scan(&d.MatchID, &d.SectorID, &d.Price, &d.SectorName, &d.Capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		cr.log.Error("Failed to find match sector",
			zap.Error(err),
			zap.Int64("match_id", matchID),
			zap.Int64("sector_id", sectorID),
		)
		return nil, wrapErr("find match sector", err)
	}
	return &d, nil
}

func (cr *catalogRepository) FindMatchSectors(ctx context.Context, matchID int64) ([]*entity.MatchSectorDetail, error) {
	query := matchSectorSelect + ` WHERE ms.match_id = $1 ORDER BY ms.sector_id`

	rows, err := database.Conn(ctx, cr.db).Query(ctx, query, matchID)
	if err != nil {
		cr.log.Error("Failed to list match sectors", zap.Error(err), zap.Int64("match_id", matchID))
		return nil, wrapErr("find match sectors", err)
	}
	defer rows.Close()

	links := make([]*entity.MatchSectorDetail, 0)
	for rows.Next() {
		var d entity.MatchSectorDetail
		if err := rows.Scan(&d.MatchID, &d.SectorID, &d.Price, &d.SectorName, &d.Capacity); err != nil {
			return nil, fmt.Errorf("scan match sector: %w", err)
		}
		links = append(links, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate match sectors", err)
	}
	return links, nil
}
