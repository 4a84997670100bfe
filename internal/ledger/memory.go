package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mikiasyonas/casino-rounds/internal/models"
)

// MemoryStore keeps the ledger in process. It backs tests and local runs
// with LEDGER_BACKEND=memory.
type MemoryStore struct {
	mu       sync.Mutex
	balances map[int64]decimal.Decimal
	txs      map[int64][]models.Transaction
	refs     map[string]string
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[int64]decimal.Decimal),
		txs:      make(map[int64][]models.Transaction),
		refs:     make(map[string]string),
		now:      time.Now,
	}
}

func (s *MemoryStore) Open(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.balances[userID]; !ok {
		s.balances[userID] = decimal.Zero
	}
	return nil
}

func (s *MemoryStore) Balance(_ context.Context, userID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.balances[userID]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	return bal, nil
}

func (s *MemoryStore) Adjust(_ context.Context, adj Adjustment) (*models.Transaction, error) {
	if err := adj.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bal, ok := s.balances[adj.UserID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if adj.Reference != "" {
		if _, dup := s.refs[adj.Reference]; dup {
			return nil, ErrDuplicateReference
		}
	}
	next, err := adj.apply(bal)
	if err != nil {
		return nil, err
	}

	tx := models.Transaction{
		ID:           uuid.NewString(),
		UserID:       adj.UserID,
		Kind:         adj.Kind,
		Amount:       adj.Delta,
		BalanceAfter: next,
		Status:       adj.status(),
		Method:       adj.Method,
		Reference:    adj.Reference,
		Description:  adj.Description,
		CreatedAt:    s.now(),
	}
	s.balances[adj.UserID] = next
	s.txs[adj.UserID] = append(s.txs[adj.UserID], tx)
	if adj.Reference != "" {
		s.refs[adj.Reference] = tx.ID
	}
	return &tx, nil
}

func (s *MemoryStore) Transactions(_ context.Context, userID int64, kind models.TransactionKind, limit int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.balances[userID]; !ok {
		return nil, ErrAccountNotFound
	}

	all := s.txs[userID]
	out := make([]models.Transaction, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if kind == "" || all[i].Kind == kind {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
