package purchase_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/cineseat/internal/domain"
	"github.com/kirinyoku/cineseat/internal/metrics"
	"github.com/kirinyoku/cineseat/internal/pgtest"
	"github.com/kirinyoku/cineseat/internal/postgres"
	"github.com/kirinyoku/cineseat/internal/redis"
	postgresrepo "github.com/kirinyoku/cineseat/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/cineseat/internal/repository/redis"
	"github.com/kirinyoku/cineseat/internal/service/cinema"
	"github.com/kirinyoku/cineseat/internal/service/purchase"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.SeatsSold
}

func (p *recordingPublisher) PublishSeatsSold(_ context.Context, ev domain.SeatsSold) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) all() []domain.SeatsSold {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.SeatsSold(nil), p.events...)
}

type fixture struct {
	store     *postgresrepo.Store
	cinemas   *cinema.Service
	purchases *purchase.Service
	metrics   *metrics.Metrics
	published *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := pgtest.Store(t)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	pub := &recordingPublisher{}

	return &fixture{
		store:     store,
		cinemas:   cinema.New(store, nil, cinema.Config{}),
		purchases: purchase.New(store, nil, nil, m, purchase.Config{Timeout: 10 * time.Second}, pub),
		metrics:   m,
		published: pub,
	}
}

func (f *fixture) seed(t *testing.T, total, capacity int) string {
	t.Helper()

	externalID := pgtest.CinemaID(t)
	_, err := f.cinemas.Create(context.Background(), cinema.CreateInput{
		Name:        "Test Cinema",
		ExternalID:  externalID,
		Address:     "1 Test St",
		TotalSeats:  total,
		RowCapacity: capacity,
	})
	require.NoError(t, err)

	return externalID
}

func (f *fixture) counts(t *testing.T, externalID string) domain.SeatCounts {
	t.Helper()

	c, err := f.cinemas.Availability(context.Background(), externalID)
	require.NoError(t, err)
	return *c
}

func TestPurchaseSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	externalID := f.seed(t, 10, 4)

	seatID, err := f.purchases.PurchaseSeat(ctx, externalID, 3, "")
	require.NoError(t, err)
	assert.Positive(t, seatID)

	_, err = f.purchases.PurchaseSeat(ctx, externalID, 3, "")
	assert.ErrorIs(t, err, purchase.ErrSeatUnavailable)

	assert.Equal(t, domain.SeatCounts{Available: 9, Sold: 1, Total: 10}, f.counts(t, externalID))

	events := f.published.all()
	require.Len(t, events, 1)
	assert.Equal(t, externalID, events[0].ExternalID)
	assert.Equal(t, []int64{seatID}, events[0].SeatIDs)
	assert.Equal(t, []int{3}, events[0].SeatNumbers)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PurchasesTotal.WithLabelValues(metrics.KindSingle, metrics.OutcomeSold)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PurchasesTotal.WithLabelValues(metrics.KindSingle, metrics.OutcomeUnavailable)))
}

func TestPurchaseSeat_Unavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	externalID := f.seed(t, 4, 2)
	otherID := f.seed(t, 8, 4)

	tests := []struct {
		name       string
		externalID string
		seatNumber int
	}{
		{name: "beyond capacity", externalID: externalID, seatNumber: 5},
		{name: "zero", externalID: externalID, seatNumber: 0},
		{name: "negative", externalID: externalID, seatNumber: -1},
		{name: "unknown cinema", externalID: pgtest.CinemaID(t), seatNumber: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.purchases.PurchaseSeat(ctx, tt.externalID, tt.seatNumber, "")
			assert.ErrorIs(t, err, purchase.ErrSeatUnavailable)
		})
	}

	// seat 6 exists only in the other cinema
	_, err := f.purchases.PurchaseSeat(ctx, externalID, 6, "")
	assert.ErrorIs(t, err, purchase.ErrSeatUnavailable)

	assert.Equal(t, int64(0), f.counts(t, externalID).Sold)
	assert.Equal(t, int64(0), f.counts(t, otherID).Sold)
	assert.Empty(t, f.published.all())
}

func TestPurchaseSeat_ConcurrentBuyersOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	externalID := f.seed(t, 20, 5)

	const buyers = 16

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		losers  int
		other   []error
	)

	start := make(chan struct{})
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			_, err := f.purchases.PurchaseSeat(ctx, externalID, 7, "")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, purchase.ErrSeatUnavailable):
				losers++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, winners)
	assert.Equal(t, buyers-1, losers)
	assert.Equal(t, int64(1), f.counts(t, externalID).Sold)
	assert.Len(t, f.published.all(), 1)
}

func TestPurchaseSeat_LockWaitGivesUp(t *testing.T) {
	const purchaseTimeout = 5 * time.Second

	ctx := context.Background()

	store := postgresrepo.NewStore(pgtest.PoolWithConfig(t, postgres.Config{LockTimeout: 200 * time.Millisecond}))
	holderPool := pgtest.Pool(t)

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	pub := &recordingPublisher{}
	cinemas := cinema.New(store, nil, cinema.Config{})
	purchases := purchase.New(store, nil, nil, m, purchase.Config{Timeout: purchaseTimeout}, pub)

	externalID := pgtest.CinemaID(t)
	_, err := cinemas.Create(ctx, cinema.CreateInput{
		Name: "Test Cinema", ExternalID: externalID, Address: "1 Test St", TotalSeats: 4, RowCapacity: 4,
	})
	require.NoError(t, err)

	holder, err := holderPool.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = holder.Rollback(context.Background()) })

	_, err = holder.Exec(ctx,
		`SELECT s.id FROM seats s
		 JOIN cinemas c ON c.id = s.cinema_id
		 WHERE c.cinema_id = $1 AND s.seat_number = 2
		 FOR UPDATE OF s`,
		externalID,
	)
	require.NoError(t, err)

	started := time.Now()
	_, err = purchases.PurchaseSeat(ctx, externalID, 2, "")
	require.ErrorIs(t, err, purchase.ErrSeatUnavailable)
	assert.Less(t, time.Since(started), purchaseTimeout)

	// only the held row is blocked
	_, err = purchases.PurchaseSeat(ctx, externalID, 3, "")
	require.NoError(t, err)

	require.NoError(t, holder.Rollback(ctx))

	seats, err := cinemas.ListSeats(ctx, externalID, false)
	require.NoError(t, err)
	for _, s := range seats {
		assert.Equal(t, s.Number == 3, s.Sold, "seat %d", s.Number)
	}
	assert.Len(t, pub.all(), 1)

	// the seat is sellable again once the holder is gone
	_, err = purchases.PurchaseSeat(ctx, externalID, 2, "")
	require.NoError(t, err)
}

func TestPurchaseSeat_DifferentSeatsInParallel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	externalID := f.seed(t, 12, 4)

	var wg sync.WaitGroup
	errs := make([]error, 12)

	for i := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.purchases.PurchaseSeat(ctx, externalID, i+1, "")
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "seat %d", i+1)
	}
	assert.Equal(t, domain.SeatCounts{Available: 0, Sold: 12, Total: 12}, f.counts(t, externalID))
}

func TestPurchasePair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	externalID := f.seed(t, 4, 4)

	first, err := f.purchases.PurchasePair(ctx, externalID, "")
	require.NoError(t, err)
	assert.Equal(t, [2]int{1, 2}, [2]int{first[0].Number, first[1].Number})
	assert.True(t, first[0].Sold)
	assert.True(t, first[1].Sold)

	second, err := f.purchases.PurchasePair(ctx, externalID, "")
	require.NoError(t, err)
	assert.Equal(t, [2]int{3, 4}, [2]int{second[0].Number, second[1].Number})

	before := f.counts(t, externalID)

	_, err = f.purchases.PurchasePair(ctx, externalID, "")
	assert.ErrorIs(t, err, purchase.ErrNoAdjacentSeats)

	// a failed attempt, repeated, changes nothing
	_, err = f.purchases.PurchasePair(ctx, externalID, "")
	assert.ErrorIs(t, err, purchase.ErrNoAdjacentSeats)
	assert.Equal(t, before, f.counts(t, externalID))
	assert.Equal(t, int64(4), before.Sold)

	events := f.published.all()
	require.Len(t, events, 2)
	assert.Equal(t, []int{1, 2}, events[0].SeatNumbers)
}

func TestPurchasePair_SkipsSplitSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// rows: [1 2 3] [4 5 6]
	externalID := f.seed(t, 6, 3)

	_, err := f.purchases.PurchaseSeat(ctx, externalID, 2, "")
	require.NoError(t, err)

	pair, err := f.purchases.PurchasePair(ctx, externalID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, pair[0].Row)
	assert.Equal(t, [2]int{4, 5}, [2]int{pair[0].Number, pair[1].Number})
}

func TestPurchasePair_NeverAcrossRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// rows: [1] [2 3]
	externalID := f.seed(t, 3, 2)

	_, err := f.purchases.PurchaseSeat(ctx, externalID, 3, "")
	require.NoError(t, err)

	_, err = f.purchases.PurchasePair(ctx, externalID, "")
	assert.ErrorIs(t, err, purchase.ErrNoAdjacentSeats)
	assert.Equal(t, int64(2), f.counts(t, externalID).Available)
}

func TestPurchasePair_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// two rows of five: at most two disjoint pairs per row
	externalID := f.seed(t, 10, 5)

	const buyers = 8

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		pairs [][2]domain.Seat
		none  int
		other []error
	)

	start := make(chan struct{})
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			pair, err := f.purchases.PurchasePair(ctx, externalID, "")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				pairs = append(pairs, pair)
			case errors.Is(err, purchase.ErrNoAdjacentSeats):
				none++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, other)
	assert.Len(t, pairs, 4)
	assert.Equal(t, buyers-4, none)

	seen := map[int64]bool{}
	for _, p := range pairs {
		assert.Equal(t, p[0].Row, p[1].Row)
		assert.Equal(t, p[0].Number+1, p[1].Number)
		for _, s := range p {
			assert.False(t, seen[s.ID], "seat %d sold twice", s.Number)
			seen[s.ID] = true
		}
	}

	assert.Equal(t, int64(8), f.counts(t, externalID).Sold)
}

func TestPurchaseSeat_RefreshesCachedAvailability(t *testing.T) {
	addr := os.Getenv("CINESEAT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CINESEAT_TEST_REDIS_ADDR not set, skipping redis test")
	}

	store := pgtest.Store(t)
	ctx := context.Background()

	rdb, err := redis.New(ctx, redis.Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	cache := redisrepo.New(rdb)
	cinemas := cinema.New(store, cache, cinema.Config{AvailabilityTTL: time.Minute})
	purchases := purchase.New(store, cache, nil, metrics.NewWithRegistry(prometheus.NewRegistry()), purchase.Config{})

	externalID := pgtest.CinemaID(t)
	_, err = cinemas.Create(ctx, cinema.CreateInput{
		Name: "Test Cinema", ExternalID: externalID, Address: "1 Test St", TotalSeats: 4, RowCapacity: 4,
	})
	require.NoError(t, err)

	counts, err := cinemas.Availability(ctx, externalID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Sold)

	_, err = purchases.PurchaseSeat(ctx, externalID, 1, "")
	require.NoError(t, err)

	counts, err = cinemas.Availability(ctx, externalID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatCounts{Available: 3, Sold: 1, Total: 4}, *counts)
}

func TestPurchaseSeat_RateLimited(t *testing.T) {
	addr := os.Getenv("CINESEAT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CINESEAT_TEST_REDIS_ADDR not set, skipping redis test")
	}

	store := pgtest.Store(t)
	ctx := context.Background()

	rdb, err := redis.New(ctx, redis.Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "test-"+t.Name(), 2, time.Minute)
	cinemas := cinema.New(store, redisrepo.New(rdb), cinema.Config{})
	purchases := purchase.New(store, redisrepo.New(rdb), limiter, m, purchase.Config{})

	externalID := pgtest.CinemaID(t)
	_, err = cinemas.Create(ctx, cinema.CreateInput{
		Name: "Test Cinema", ExternalID: externalID, Address: "1 Test St", TotalSeats: 5, RowCapacity: 5,
	})
	require.NoError(t, err)

	client := "ip:" + pgtest.CinemaID(t)

	_, err = purchases.PurchaseSeat(ctx, externalID, 1, client)
	require.NoError(t, err)
	_, err = purchases.PurchaseSeat(ctx, externalID, 2, client)
	require.NoError(t, err)

	_, err = purchases.PurchaseSeat(ctx, externalID, 3, client)
	require.ErrorIs(t, err, purchase.ErrRateLimited)

	var rl purchase.RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Positive(t, rl.RetryAfter)

	// rejected attempts never touch the seat
	counts, err := cinemas.Availability(ctx, externalID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Sold)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PurchasesTotal.WithLabelValues(metrics.KindSingle, metrics.OutcomeRateLimited)))
}
