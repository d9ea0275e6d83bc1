package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stadium-ticketing/internal/clock"
	"stadium-ticketing/internal/data/entity"
	"stadium-ticketing/internal/domain"
	"stadium-ticketing/internal/dto/request"
	"stadium-ticketing/pkg/cache"
	"stadium-ticketing/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

type ticketFixture struct {
	store     *fakeStore
	cache     *fakeCache
	publisher *fakePublisher
	svc       TicketService
	avail     AvailabilityService
}

func newTicketFixture() *ticketFixture {
	store := newFakeStore()
	c := &fakeCache{}
	p := &fakePublisher{}
	repo := store.repository()
	return &ticketFixture{
		store:     store,
		cache:     c,
		publisher: p,
		svc:       NewTicketService(repo, c, p, clock.NewFixed(testNow), zap.NewNop()),
		avail:     NewAvailabilityService(repo, cache.NewNoop(), zap.NewNop()),
	}
}

func buyer(id int64) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleCustomer}
}

func TestTicketService_Purchase(t *testing.T) {
	ctx := context.Background()

	t.Run("sells a ticket with price and emits side effects", func(t *testing.T) {
		f := newTicketFixture()
		sector := f.store.addSector("North", 10)
		match := f.store.addMatch("Reds", "Blues", map[int64]float64{sector: 80})

		resp, err := f.svc.Purchase(ctx, buyer(7), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
		require.NoError(t, err)
		assert.Equal(t, "Ticket purchased successfully", resp.Message)
		assert.Equal(t, 80.0, resp.Ticket.Price)
		assert.Equal(t, int64(7), resp.Ticket.BuyerID)
		assert.Equal(t, "North", resp.Ticket.SectorName)
		assert.Equal(t, "Reds", resp.Ticket.Match.TeamA)
		assert.Equal(t, testNow, resp.Ticket.CreatedAt)
		assert.NotEmpty(t, resp.Ticket.ID)

		assert.Equal(t, cache.MatchKeys(match), f.cache.deleted)
		require.Equal(t, 1, f.publisher.count())
		assert.Equal(t, resp.Ticket.ID, f.publisher.events[0].TicketID)
		assert.Equal(t, 1, f.publisher.events[0].Slot)
	})

	t.Run("missing pricing link is not found and ledger unchanged", func(t *testing.T) {
		f := newTicketFixture()
		linked := f.store.addSector("North", 10)
		unlinked := f.store.addSector("South", 10)
		match := f.store.addMatch("Reds", "Blues", map[int64]float64{linked: 50})

		_, err := f.svc.Purchase(ctx, buyer(1), &request.BuyTicketRequest{MatchID: match, SectorID: unlinked})
		require.ErrorIs(t, err, domain.ErrNotFound)

		_, err = f.svc.Purchase(ctx, buyer(1), &request.BuyTicketRequest{MatchID: match + 100, SectorID: linked})
		require.ErrorIs(t, err, domain.ErrNotFound)

		assert.Equal(t, 0, f.store.ticketCount())
		assert.Equal(t, 0, f.publisher.count())
	})

	t.Run("rejects malformed input before the core", func(t *testing.T) {
		f := newTicketFixture()

		_, err := f.svc.Purchase(ctx, buyer(1), &request.BuyTicketRequest{MatchID: 0, SectorID: -1})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "matchId")
		assert.Contains(t, ve.Fields, "sectorId")

		_, err = f.svc.Purchase(ctx, domain.Identity{}, &request.BuyTicketRequest{MatchID: 1, SectorID: 1})
		require.ErrorAs(t, err, &ve)
	})

	t.Run("sold out appends nothing", func(t *testing.T) {
		f := newTicketFixture()
		sector := f.store.addSector("Box", 1)
		match := f.store.addMatch("A", "B", map[int64]float64{sector: 500})

		_, err := f.svc.Purchase(ctx, buyer(1), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
		require.NoError(t, err)

		_, err = f.svc.Purchase(ctx, buyer(2), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
		require.ErrorIs(t, err, domain.ErrSectorSoldOut)
		assert.Equal(t, 1, f.store.ticketCount())
		assert.Equal(t, 1, f.publisher.count())
	})

	t.Run("publish failure does not fail the purchase", func(t *testing.T) {
		f := newTicketFixture()
		f.publisher.err = errors.New("broker down")
		sector := f.store.addSector("North", 3)
		match := f.store.addMatch("A", "B", map[int64]float64{sector: 20})

		_, err := f.svc.Purchase(ctx, buyer(1), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
		require.NoError(t, err)
		assert.Equal(t, 1, f.store.ticketCount())
	})
}

func TestTicketService_SideEffectsHaveTheirOwnBudget(t *testing.T) {
	f := newTicketFixture()
	sector := f.store.addSector("North", 3)
	match := f.store.addMatch("A", "B", map[int64]float64{sector: 10})

	// the request context carries no deadline of its own
	before := time.Now()
	_, err := f.svc.Purchase(context.Background(), buyer(1), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
	require.NoError(t, err)

	require.Len(t, f.publisher.deadlines, 1)
	deadline := f.publisher.deadlines[0]
	require.False(t, deadline.IsZero(), "publish must run under a deadline")
	assert.WithinDuration(t, before.Add(sideEffectTimeout), deadline, time.Second)
}

func TestTicketService_ConcurrentPurchasesNeverOversell(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newTicketFixture()
	sector := f.store.addSector("North", 2)
	match := f.store.addMatch("Reds", "Blues", map[int64]float64{sector: 45})

	const buyers = 5
	start := make(chan struct{})
	errs := make(chan error, buyers)
	var wg sync.WaitGroup
	for i := 1; i <= buyers; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			<-start
			_, err := f.svc.Purchase(context.Background(), buyer(id), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
			errs <- err
		}(int64(i))
	}
	close(start)
	wg.Wait()
	close(errs)

	var ok, soldOut int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrSectorSoldOut):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 3, soldOut)

	avail, err := f.avail.Availability(context.Background(), match)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, 2, avail[0].Sold)
	assert.Equal(t, 0, avail[0].Available)
}

func TestTicketService_SuccessesEqualMinOfCapacityAndCalls(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, tc := range []struct {
		capacity, calls int
	}{
		{capacity: 1, calls: 20},
		{capacity: 10, calls: 10},
		{capacity: 25, calls: 8},
	} {
		f := newTicketFixture()
		sector := f.store.addSector("S", tc.capacity)
		match := f.store.addMatch("A", "B", map[int64]float64{sector: 1})

		var wg sync.WaitGroup
		for i := 0; i < tc.calls; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				_, _ = f.svc.Purchase(context.Background(), buyer(id), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
			}(int64(i + 1))
		}
		wg.Wait()

		sold, err := f.svc.CountSold(context.Background(), match, sector)
		require.NoError(t, err)
		assert.Equal(t, min(tc.capacity, tc.calls), sold, "capacity=%d calls=%d", tc.capacity, tc.calls)
	}
}

func TestTicketService_DistinctKeysDoNotBlockEachOther(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newTicketFixture()
	hot := f.store.addSector("Hot", 5)
	cold := f.store.addSector("Cold", 5)
	match := f.store.addMatch("A", "B", map[int64]float64{hot: 10, cold: 10})

	entered := make(chan struct{})
	release := make(chan struct{})
	f.store.beforeAppend = func(_ context.Context, tk *entity.Ticket) {
		if tk.SectorID == hot {
			close(entered)
			<-release
		}
	}

	hotDone := make(chan error, 1)
	go func() {
		_, err := f.svc.Purchase(context.Background(), buyer(1), &request.BuyTicketRequest{MatchID: match, SectorID: hot})
		hotDone <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := f.svc.Purchase(ctx, buyer(2), &request.BuyTicketRequest{MatchID: match, SectorID: cold})
	require.NoError(t, err, "purchase on another sector must not wait for the held lock")

	close(release)
	require.NoError(t, <-hotDone)
	assert.Equal(t, 2, f.store.ticketCount())
}

func TestTicketService_SoldCountIsMonotonic(t *testing.T) {
	f := newTicketFixture()
	sector := f.store.addSector("North", 4)
	match := f.store.addMatch("A", "B", map[int64]float64{sector: 10})
	ctx := context.Background()

	prev := 0
	for i := 0; i < 6; i++ {
		_, err := f.svc.Purchase(ctx, buyer(int64(i+1)), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
		sold, cerr := f.svc.CountSold(ctx, match, sector)
		require.NoError(t, cerr)
		if err == nil {
			assert.Equal(t, prev+1, sold)
		} else {
			require.ErrorIs(t, err, domain.ErrSectorSoldOut)
			assert.Equal(t, prev, sold)
		}
		prev = sold
	}
	assert.Equal(t, 4, prev)
}

func TestTicketService_CancellationLeavesNoTicket(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("cancelled before the critical section", func(t *testing.T) {
		f := newTicketFixture()
		sector := f.store.addSector("North", 3)
		match := f.store.addMatch("A", "B", map[int64]float64{sector: 10})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.svc.Purchase(ctx, buyer(1), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, f.store.ticketCount())
		assert.Equal(t, 0, f.publisher.count())
	})

	t.Run("cancelled inside the critical section", func(t *testing.T) {
		f := newTicketFixture()
		sector := f.store.addSector("North", 3)
		match := f.store.addMatch("A", "B", map[int64]float64{sector: 10})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.store.beforeAppend = func(context.Context, *entity.Ticket) { cancel() }

		_, err := f.svc.Purchase(ctx, buyer(1), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, f.store.ticketCount())

		f.store.beforeAppend = nil
		_, err = f.svc.Purchase(context.Background(), buyer(1), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
		require.NoError(t, err, "lock must be released after a cancelled purchase")
	})
}

func TestTicketService_GetUserTickets(t *testing.T) {
	f := newTicketFixture()
	sector := f.store.addSector("North", 10)
	match := f.store.addMatch("Reds", "Blues", map[int64]float64{sector: 30})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Purchase(ctx, buyer(9), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
		require.NoError(t, err)
	}
	_, err := f.svc.Purchase(ctx, buyer(10), &request.BuyTicketRequest{MatchID: match, SectorID: sector})
	require.NoError(t, err)

	page, err := f.svc.GetUserTickets(ctx, buyer(9), &request.PaginatedRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "North", page.Data[0].SectorName)
	assert.Equal(t, 30.0, page.Data[0].Price)
}

var _ queue.Publisher = (*fakePublisher)(nil)
