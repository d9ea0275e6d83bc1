package usecase

import (
	"context"
	"fmt"

	"stadium-ticketing/internal/data/entity"
	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/internal/domain"
	"stadium-ticketing/internal/dto/response"
	"stadium-ticketing/pkg/cache"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AvailabilityService projects sold and available counts from the ledger.
// It never takes the sale lock, so results may trail in-flight purchases.
type AvailabilityService interface {
	Availability(ctx context.Context, matchID int64) ([]response.SectorAvailability, error)
	MatchSummary(ctx context.Context, matchID int64) (*response.MatchSummaryResponse, error)
}

type availabilityService struct {
	repo  *repository.Repository
	cache cache.Cache
	log   *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, c cache.Cache, log *zap.Logger) AvailabilityService {
	return &availabilityService{
		repo:  repo,
		cache: c,
		log:   log.With(zap.String("service", "availability")),
	}
}

func (s *availabilityService) Availability(ctx context.Context, matchID int64) ([]response.SectorAvailability, error) {
	key := cache.AvailabilityKey(matchID)
	var cached []response.SectorAvailability
	if hit := s.fromCache(ctx, key, &cached); hit {
		return cached, nil
	}

	match, links, sold, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, domain.ErrNotFound)
	}

	out := make([]response.SectorAvailability, 0, len(links))
	for _, l := range links {
		n := sold[l.SectorID]
		out = append(out, response.SectorAvailability{
			SectorID:  l.SectorID,
			Name:      l.SectorName,
			Capacity:  l.Capacity,
			Sold:      n,
			Available: max(l.Capacity-n, 0),
		})
	}

	s.toCache(ctx, key, out)
	return out, nil
}

func (s *availabilityService) MatchSummary(ctx context.Context, matchID int64) (*response.MatchSummaryResponse, error) {
	key := cache.MatchKey(matchID)
	var cached response.MatchSummaryResponse
	if hit := s.fromCache(ctx, key, &cached); hit {
		return &cached, nil
	}

	match, links, sold, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, domain.ErrNotFound)
	}

	out := &response.MatchSummaryResponse{
		MatchResponse: response.MatchToResponse(match),
		Sectors:       make([]response.SectorStatus, 0, len(links)),
	}
	for _, l := range links {
		out.Sectors = append(out.Sectors, response.SectorStatus{
			ID:      l.SectorID,
			Name:    l.SectorName,
			Price:   l.Price,
			SoldOut: sold[l.SectorID] >= l.Capacity,
		})
	}

	s.toCache(ctx, key, out)
	return out, nil
}

// load reads the match, its pricing links and sold counts concurrently.
func (s *availabilityService) load(ctx context.Context, matchID int64) (*entity.Match, []*entity.MatchSectorDetail, map[int64]int, error) {
	var (
		match *entity.Match
		links []*entity.MatchSectorDetail
		sold  map[int64]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		match, err = s.repo.Catalog.FindMatchByID(gctx, matchID)
		return err
	})
	g.Go(func() error {
		var err error
		links, err = s.repo.Catalog.FindMatchSectors(gctx, matchID)
		return err
	})
	g.Go(func() error {
		var err error
		sold, err = s.repo.Ticket.CountSoldByMatch(gctx, matchID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, fmt.Errorf("load match %d: %w", matchID, err)
	}
	return match, links, sold, nil
}

func (s *availabilityService) fromCache(ctx context.Context, key string, dst any) bool {
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *availabilityService) toCache(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
