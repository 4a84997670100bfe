package services_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mikiasyonas/casino-rounds/internal/ledger"
	"github.com/mikiasyonas/casino-rounds/internal/models"
	"github.com/mikiasyonas/casino-rounds/internal/services"
)

var errConnectionLost = errors.New("connection lost")

// flakyStore is a MemoryStore whose reads and writes can be made to fail.
type flakyStore struct {
	*ledger.MemoryStore

	mu          sync.Mutex
	failAdjust  bool
	failBalance bool
}

func (s *flakyStore) setFailAdjust(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAdjust = v
}

func (s *flakyStore) setFailBalance(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failBalance = v
}

func (s *flakyStore) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	fail := s.failBalance
	s.mu.Unlock()
	if fail {
		return decimal.Zero, errConnectionLost
	}
	return s.MemoryStore.Balance(ctx, userID)
}

func (s *flakyStore) Adjust(ctx context.Context, adj ledger.Adjustment) (*models.Transaction, error) {
	s.mu.Lock()
	fail := s.failAdjust
	s.mu.Unlock()
	if fail {
		return nil, errConnectionLost
	}
	return s.MemoryStore.Adjust(ctx, adj)
}

// seqRNG returns its values in order, wrapping around.
type seqRNG struct {
	mu   sync.Mutex
	vals []int
	i    int
}

func (r *seqRNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx       context.Context
	userID    int64
	store     *flakyStore
	locks     *services.UserLocks
	balances  *services.BalanceSynchronizer
	blackjack *services.BlackjackEngine
	roulette  *services.RouletteService
	slots     *services.SlotService
	wallet    *services.WalletService
	clock     *fakeClock
}

type fixtureConfig struct {
	draws []models.Card
	rng   services.RNG
}

type fixtureOption func(*fixtureConfig)

// withDraws stacks the blackjack shoe: player, dealer, player, dealer, then
// every later draw in order.
func withDraws(ranks ...string) fixtureOption {
	return func(c *fixtureConfig) { c.draws = cards(ranks...) }
}

func withRNG(rng services.RNG) fixtureOption {
	return func(c *fixtureConfig) { c.rng = rng }
}

func cards(ranks ...string) []models.Card {
	out := make([]models.Card, len(ranks))
	for i, r := range ranks {
		out[i] = models.Card{Rank: r, Suit: "♥"}
	}
	return out
}

func newFixture(t *testing.T, bank int64, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{rng: rand.New(rand.NewPCG(1, 2))}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &fixture{
		ctx:    context.Background(),
		userID: 42,
		store:  &flakyStore{MemoryStore: ledger.NewMemoryStore()},
		locks:  services.NewUserLocks(),
		clock:  &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.balances = services.NewBalanceSynchronizer(f.store)

	deckRNG := rand.New(rand.NewPCG(3, 4))
	draws := cfg.draws
	f.blackjack = services.NewBlackjackEngine(f.balances, f.locks,
		services.WithDeckFactory(func() *services.Deck { return services.NewStackedDeck(deckRNG, draws...) }),
		services.WithClock(f.clock.Now),
	)
	f.roulette = services.NewRouletteService(f.balances, f.locks, f.blackjack, services.WithRNG(cfg.rng))
	f.slots = services.NewSlotService(f.balances, f.locks, f.blackjack, services.WithRNG(cfg.rng))
	f.wallet = services.NewWalletService(f.balances, f.locks, f.blackjack)

	if err := f.store.Open(f.ctx, f.userID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if bank > 0 {
		_, err := f.store.Adjust(f.ctx, ledger.Adjustment{
			UserID: f.userID,
			Delta:  decimal.NewFromInt(bank),
			Kind:   models.TransactionKindDeposit,
			Method: models.MethodCard,
		})
		if err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	return f
}

func (f *fixture) apply(t *testing.T, action models.Action, amount int64) *models.BlackjackSnapshot {
	t.Helper()
	snap, err := f.blackjack.Apply(f.ctx, f.userID, action, amount)
	if err != nil {
		t.Fatalf("%s: %v", action, err)
	}
	return snap
}

func (f *fixture) ledgerBalance(t *testing.T) decimal.Decimal {
	t.Helper()
	bal, err := f.store.MemoryStore.Balance(f.ctx, f.userID)
	if err != nil {
		t.Fatalf("ledger balance: %v", err)
	}
	return bal
}

func assertBalance(t *testing.T, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("balance = %s, want %d", got, want)
	}
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
