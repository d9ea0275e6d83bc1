package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"stadium-ticketing/internal/data/entity"
	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/internal/domain"
	"stadium-ticketing/internal/dto/request"
	"stadium-ticketing/internal/dto/response"

	"go.uber.org/zap"
)

// CatalogService manages matches, sectors and per-match sector pricing.
type CatalogService interface {
	GetSectorCapacity(ctx context.Context, sectorID int64) (int, error)
	GetMatchSectorPrice(ctx context.Context, matchID, sectorID int64) (float64, error)
	CreateMatchWithSectors(ctx context.Context, req *request.CreateMatchRequest) (*response.MatchCreatedResponse, error)
	ListMatches(ctx context.Context) ([]response.MatchResponse, error)

	CreateSector(ctx context.Context, req *request.CreateSectorRequest) (*response.SectorResponse, error)
	ListSectors(ctx context.Context) ([]response.SectorResponse, error)
}

type catalogService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCatalogService(repo *repository.Repository, log *zap.Logger) CatalogService {
	return &catalogService{
		repo: repo,
		log:  log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) GetSectorCapacity(ctx context.Context, sectorID int64) (int, error) {
	sector, err := s.repo.Catalog.FindSectorByID(ctx, sectorID)
	if err != nil {
		return 0, fmt.Errorf("get sector capacity: %w", err)
	}
	if sector == nil {
		return 0, fmt.Errorf("sector %d: %w", sectorID, domain.ErrNotFound)
	}
	return sector.Capacity, nil
}

func (s *catalogService) GetMatchSectorPrice(ctx context.Context, matchID, sectorID int64) (float64, error) {
	link, err := s.repo.Catalog.FindMatchSector(ctx, matchID, sectorID)
	if err != nil {
		return 0, fmt.Errorf("get match sector price: %w", err)
	}
	if link == nil {
		return 0, fmt.Errorf("match %d sector %d: %w", matchID, sectorID, domain.ErrNotFound)
	}
	return link.Price, nil
}

// CreateMatchWithSectors persists the match and all of its pricing links, or nothing.
func (s *catalogService) CreateMatchWithSectors(ctx context.Context, req *request.CreateMatchRequest) (*response.MatchCreatedResponse, error) {
	req.TeamA = strings.TrimSpace(req.TeamA)
	req.TeamB = strings.TrimSpace(req.TeamB)

	if err := validate(req, "invalid match"); err != nil {
		s.log.Warn("Create match validation failed", zap.Error(err))
		return nil, err
	}

	date, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, domain.NewValidationError("invalid match", map[string]string{
			"date": "Must be an RFC3339 timestamp, e.g. 2025-10-20T15:00:00Z",
		})
	}

	ids := make([]int64, 0, len(req.Sectors))
	seen := make(map[int64]struct{}, len(req.Sectors))
	for i, sec := range req.Sectors {
		if _, dup := seen[sec.SectorID]; dup {
			return nil, domain.NewValidationError("invalid match", map[string]string{
				fmt.Sprintf("sectors[%d].sectorId", i): "Sector listed more than once",
			})
		}
		seen[sec.SectorID] = struct{}{}
		ids = append(ids, sec.SectorID)
	}

	existing, err := s.repo.Catalog.FindSectorsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check sectors: %w", err)
	}
	sectors := make(map[int64]*entity.Sector, len(existing))
	for _, sec := range existing {
		sectors[sec.ID] = sec
	}
	if missing := missingSectors(ids, sectors); len(missing) > 0 {
		return nil, domain.NewValidationError("one or more sectors do not exist", map[string]string{
			"sectors": "Unknown sector ids: " + joinIDs(missing),
		})
	}

	match := &entity.Match{
		Date:     date.UTC(),
		Location: req.Location,
		TeamA:    req.TeamA,
		TeamB:    req.TeamB,
	}

	err = s.repo.Catalog.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Catalog.CreateMatch(txCtx, match); err != nil {
			return err
		}
		for _, sec := range req.Sectors {
			link := &entity.MatchSector{MatchID: match.ID, SectorID: sec.SectorID, Price: sec.Price}
			if err := s.repo.Catalog.CreateMatchSector(txCtx, link); err != nil {
				return err
			}
		}
		return nil
	})
	if domain.IsValidation(err) {
		return nil, err
	}
	if errors.Is(err, domain.ErrNotFound) {
		// sector removed between the existence check and the insert
		return nil, domain.NewValidationError("one or more sectors do not exist", map[string]string{
			"sectors": err.Error(),
		})
	}
	if err != nil {
		s.log.Error("Failed to create match", zap.Error(err))
		return nil, fmt.Errorf("create match: %w", err)
	}

	resp := &response.MatchCreatedResponse{
		MatchResponse: response.MatchToResponse(match),
		Sectors:       make([]response.MatchSectorPriceResponse, 0, len(req.Sectors)),
	}
	for _, sec := range req.Sectors {
		resp.Sectors = append(resp.Sectors, response.MatchSectorPriceResponse{
			SectorID: sec.SectorID,
			Name:     sectors[sec.SectorID].Name,
			Capacity: sectors[sec.SectorID].Capacity,
			Price:    sec.Price,
		})
	}

	s.log.Info("Match created",
		zap.Int64("match_id", match.ID),
		zap.Int("sectors", len(resp.Sectors)),
	)
	return resp, nil
}

func (s *catalogService) ListMatches(ctx context.Context) ([]response.MatchResponse, error) {
	matches, err := s.repo.Catalog.ListMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return response.MatchesToResponse(matches), nil
}

func (s *catalogService) CreateSector(ctx context.Context, req *request.CreateSectorRequest) (*response.SectorResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req, "invalid sector"); err != nil {
		return nil, err
	}

	sector := &entity.Sector{Name: req.Name, Capacity: req.Capacity}
	if err := s.repo.Catalog.CreateSector(ctx, sector); err != nil {
		return nil, fmt.Errorf("create sector: %w", err)
	}

	s.log.Info("Sector created", zap.Int64("sector_id", sector.ID), zap.Int("capacity", sector.Capacity))

	resp := response.SectorToResponse(sector)
	return &resp, nil
}

func (s *catalogService) ListSectors(ctx context.Context) ([]response.SectorResponse, error) {
	sectors, err := s.repo.Catalog.ListSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	return response.SectorsToResponse(sectors), nil
}

func missingSectors(ids []int64, found map[int64]*entity.Sector) []int64 {
	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ", ")
}
