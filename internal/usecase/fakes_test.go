package usecase

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"stadium-ticketing/internal/data/entity"
	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/internal/domain"
	"stadium-ticketing/pkg/queue"

	"github.com/google/uuid"
)

type linkKey struct {
	matchID, sectorID int64
}

// fakeStore backs every fake repository. Its ledger is not
// atomic between CountSold and Append, but Append enforces the same
// unique-slot and capacity constraint as the tickets table.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]*entity.User
	sectors map[int64]*entity.Sector
	matches map[int64]*entity.Match
	links   map[linkKey]float64
	tickets []*entity.Ticket

	// beforeAppend runs inside the transaction, before the ledger insert.
	beforeAppend func(ctx context.Context, t *entity.Ticket)
	failLinkFor  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[int64]*entity.User),
		sectors: make(map[int64]*entity.Sector),
		matches: make(map[int64]*entity.Match),
		links:   make(map[linkKey]float64),
	}
}

func (s *fakeStore) repository() *repository.Repository {
	return &repository.Repository{
		User:    &fakeUserRepo{s: s},
		Catalog: &fakeCatalogRepo{s: s},
		Ticket:  &fakeTicketRepo{s: s},
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addSector(name string, capacity int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.sectors[id] = &entity.Sector{ID: id, Name: name, Capacity: capacity}
	return id
}

func (s *fakeStore) addMatch(teamA, teamB string, links map[int64]float64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.matches[id] = &entity.Match{ID: id, TeamA: teamA, TeamB: teamB}
	for sectorID, price := range links {
		s.links[linkKey{id, sectorID}] = price
	}
	return id
}

func (s *fakeStore) ticketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

func (s *fakeStore) detail(k linkKey) *entity.MatchSectorDetail {
	price, ok := s.links[k]
	if !ok {
		return nil
	}
	sec := s.sectors[k.sectorID]
	return &entity.MatchSectorDetail{
		MatchSector: entity.MatchSector{MatchID: k.matchID, SectorID: k.sectorID, Price: price},
		SectorName:  sec.Name,
		Capacity:    sec.Capacity,
	}
}

// ==================== USERS ====================

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	user.ID = r.s.id()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// ==================== CATALOG ====================

type fakeCatalogRepo struct{ s *fakeStore }

// WithTx restores matches and links when fn fails.
func (r *fakeCatalogRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.s.mu.Lock()
	matches := make(map[int64]*entity.Match, len(r.s.matches))
	for k, v := range r.s.matches {
		matches[k] = v
	}
	links := make(map[linkKey]float64, len(r.s.links))
	for k, v := range r.s.links {
		links[k] = v
	}
	r.s.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.s.mu.Lock()
		r.s.matches, r.s.links = matches, links
		r.s.mu.Unlock()
		return err
	}
	return nil
}

func (r *fakeCatalogRepo) CreateSector(_ context.Context, sector *entity.Sector) error {
	sector.ID = r.s.addSector(sector.Name, sector.Capacity)
	return nil
}

func (r *fakeCatalogRepo) FindSectorByID(_ context.Context, id int64) (*entity.Sector, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.sectors[id], nil
}

func (r *fakeCatalogRepo) FindSectorsByIDs(_ context.Context, ids []int64) ([]*entity.Sector, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Sector
	for _, id := range ids {
		if sec, ok := r.s.sectors[id]; ok {
			out = append(out, sec)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) ListSectors(_ context.Context) ([]*entity.Sector, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Sector, 0, len(r.s.sectors))
	for _, sec := range r.s.sectors {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCatalogRepo) CreateMatch(_ context.Context, match *entity.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	match.ID = r.s.id()
	cp := *match
	r.s.matches[match.ID] = &cp
	return nil
}

func (r *fakeCatalogRepo) CreateMatchSector(_ context.Context, link *entity.MatchSector) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if link.SectorID == r.s.failLinkFor {
		return fmt.Errorf("link sector %d: %w", link.SectorID, domain.ErrNotFound)
	}
	if _, ok := r.s.sectors[link.SectorID]; !ok {
		return fmt.Errorf("link sector %d: %w", link.SectorID, domain.ErrNotFound)
	}
	if _, ok := r.s.matches[link.MatchID]; !ok {
		return fmt.Errorf("link match %d: %w", link.MatchID, domain.ErrNotFound)
	}
	r.s.links[linkKey{link.MatchID, link.SectorID}] = link.Price
	return nil
}

func (r *fakeCatalogRepo) FindMatchByID(_ context.Context, id int64) (*entity.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.matches[id], nil
}

func (r *fakeCatalogRepo) ListMatches(_ context.Context) ([]*entity.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Match, 0, len(r.s.matches))
	for _, m := range r.s.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCatalogRepo) FindMatchSector(_ context.Context, matchID, sectorID int64) (*entity.MatchSectorDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.detail(linkKey{matchID, sectorID}), nil
}

func (r *fakeCatalogRepo) FindMatchSectors(_ context.Context, matchID int64) ([]*entity.MatchSectorDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.MatchSectorDetail
	for k := range r.s.links {
		if k.matchID == matchID {
			out = append(out, r.s.detail(k))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectorID < out[j].SectorID })
	return out, nil
}

// ==================== LEDGER ====================

type fakeTxKey struct{}

type fakeTx struct {
	appended []uuid.UUID
}

type fakeTicketRepo struct{ s *fakeStore }

// WithTx discards tickets appended by fn when fn fails or ctx ends before commit.
func (r *fakeTicketRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := &fakeTx{}
	err := fn(context.WithValue(ctx, fakeTxKey{}, tx))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		kept := r.s.tickets[:0]
		for _, t := range r.s.tickets {
			if !containsID(tx.appended, t.ID) {
				kept = append(kept, t)
			}
		}
		r.s.tickets = kept
		return err
	}
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (r *fakeTicketRepo) LockMatchSector(ctx context.Context, matchID, sectorID int64) (*entity.MatchSectorDetail, error) {
	if _, ok := ctx.Value(fakeTxKey{}).(*fakeTx); !ok {
		return nil, domain.ErrNoTransaction
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.detail(linkKey{matchID, sectorID}), nil
}

func (r *fakeTicketRepo) CountSold(_ context.Context, matchID, sectorID int64) (int, error) {
	r.s.mu.Lock()
	n := 0
	for _, t := range r.s.tickets {
		if t.MatchID == matchID && t.SectorID == sectorID {
			n++
		}
	}
	r.s.mu.Unlock()
	runtime.Gosched()
	return n, nil
}

func (r *fakeTicketRepo) Append(ctx context.Context, ticket *entity.Ticket) error {
	tx, ok := ctx.Value(fakeTxKey{}).(*fakeTx)
	if !ok {
		return domain.ErrNoTransaction
	}
	if hook := r.s.beforeAppend; hook != nil {
		hook(ctx, ticket)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sec := r.s.sectors[ticket.SectorID]
	if sec == nil || ticket.Slot < 1 || ticket.Slot > sec.Capacity {
		return fmt.Errorf("slot %d beyond capacity: %w", ticket.Slot, domain.ErrConflict)
	}
	for _, t := range r.s.tickets {
		if t.MatchID == ticket.MatchID && t.SectorID == ticket.SectorID && t.Slot == ticket.Slot {
			return fmt.Errorf("slot %d taken: %w", ticket.Slot, domain.ErrConflict)
		}
	}
	cp := *ticket
	r.s.tickets = append(r.s.tickets, &cp)
	tx.appended = append(tx.appended, ticket.ID)
	return nil
}

func (r *fakeTicketRepo) CountSoldByMatch(_ context.Context, matchID int64) (map[int64]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int64]int)
	for _, t := range r.s.tickets {
		if t.MatchID == matchID {
			out[t.SectorID]++
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) FindByBuyer(_ context.Context, buyerID int64, limit, offset int) ([]*entity.TicketDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.TicketDetail
	for _, t := range r.s.tickets {
		if t.BuyerID != buyerID {
			continue
		}
		d := r.s.detail(linkKey{t.MatchID, t.SectorID})
		m := r.s.matches[t.MatchID]
		all = append(all, &entity.TicketDetail{
			Ticket:     *t,
			SectorName: d.SectorName,
			Price:      d.Price,
			TeamA:      m.TeamA,
			TeamB:      m.TeamB,
		})
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r *fakeTicketRepo) CountByBuyer(_ context.Context, buyerID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.tickets {
		if t.BuyerID == buyerID {
			n++
		}
	}
	return n, nil
}

// ==================== SIDE EFFECTS ====================

type fakeCache struct {
	mu      sync.Mutex
	deleted []string
}

func (c *fakeCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (c *fakeCache) Set(context.Context, string, any) error        { return nil }
func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, keys...)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	events    []queue.TicketPurchasedEvent
	err       error
	deadlines []time.Time
}

func (p *fakePublisher) PublishTicketPurchased(ctx context.Context, ev queue.TicketPurchasedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	deadline, _ := ctx.Deadline()
	p.deadlines = append(p.deadlines, deadline)
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
