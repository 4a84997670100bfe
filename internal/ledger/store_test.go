package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mikiasyonas/casino-rounds/internal/ledger"
	"github.com/mikiasyonas/casino-rounds/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func deposit(userID int64, amount string) ledger.Adjustment {
	return ledger.Adjustment{
		UserID: userID,
		Delta:  dec(amount),
		Kind:   models.TransactionKindDeposit,
		Method: models.MethodCard,
	}
}

// runStoreSuite exercises the behaviour every backend must share. userID
// must not exist in the store yet.
func runStoreSuite(t *testing.T, store ledger.Store, userID int64) {
	ctx := context.Background()

	t.Run("missing account", func(t *testing.T) {
		if _, err := store.Balance(ctx, userID); !errors.Is(err, ledger.ErrAccountNotFound) {
			t.Fatalf("Balance on unknown user: %v", err)
		}
		if _, err := store.Adjust(ctx, deposit(userID, "1")); !errors.Is(err, ledger.ErrAccountNotFound) {
			t.Fatalf("Adjust on unknown user: %v", err)
		}
	})

	if err := store.Open(ctx, userID); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Open(ctx, userID); err != nil {
		t.Fatalf("second Open: %v", err)
	}

	t.Run("deposit and debit", func(t *testing.T) {
		tx, err := store.Adjust(ctx, deposit(userID, "100.50"))
		if err != nil {
			t.Fatalf("deposit: %v", err)
		}
		if !tx.BalanceAfter.Equal(dec("100.50")) {
			t.Errorf("balance after deposit = %s", tx.BalanceAfter)
		}

		_, err = store.Adjust(ctx, ledger.Adjustment{
			UserID:    userID,
			Delta:     dec("-10"),
			Require:   dec("10"),
			Kind:      models.TransactionKindAdjustment,
			Method:    models.MethodBlackjack,
			Reference: "blackjack:" + time.Now().Format(time.RFC3339Nano),
		})
		if err != nil {
			t.Fatalf("debit: %v", err)
		}

		bal, err := store.Balance(ctx, userID)
		if err != nil {
			t.Fatalf("Balance: %v", err)
		}
		if !bal.Equal(dec("90.50")) {
			t.Errorf("balance = %s, want 90.50", bal)
		}
	})

	t.Run("requirement enforced", func(t *testing.T) {
		_, err := store.Adjust(ctx, ledger.Adjustment{
			UserID:  userID,
			Delta:   dec("50"),
			Require: dec("1000"),
			Kind:    models.TransactionKindAdjustment,
			Method:  models.MethodRoulette,
		})
		if !errors.Is(err, ledger.ErrInsufficientFunds) {
			t.Fatalf("expected insufficient funds, got %v", err)
		}

		_, err = store.Adjust(ctx, ledger.Adjustment{
			UserID: userID,
			Delta:  dec("-1000"),
			Kind:   models.TransactionKindWithdrawal,
			Method: models.MethodCard,
		})
		if !errors.Is(err, ledger.ErrInsufficientFunds) {
			t.Fatalf("overdraft should fail, got %v", err)
		}

		bal, _ := store.Balance(ctx, userID)
		if !bal.Equal(dec("90.50")) {
			t.Errorf("rejected adjustments moved balance to %s", bal)
		}
	})

	t.Run("duplicate reference", func(t *testing.T) {
		adj := ledger.Adjustment{
			UserID:    userID,
			Delta:     dec("5"),
			Kind:      models.TransactionKindAdjustment,
			Method:    models.MethodSlots,
			Reference: "slots:dup-" + time.Now().Format(time.RFC3339Nano),
		}
		if _, err := store.Adjust(ctx, adj); err != nil {
			t.Fatalf("first adjust: %v", err)
		}
		if _, err := store.Adjust(ctx, adj); !errors.Is(err, ledger.ErrDuplicateReference) {
			t.Fatalf("expected duplicate reference, got %v", err)
		}
		bal, _ := store.Balance(ctx, userID)
		if !bal.Equal(dec("95.50")) {
			t.Errorf("balance = %s, want 95.50", bal)
		}
	})

	t.Run("pending does not move balance", func(t *testing.T) {
		tx, err := store.Adjust(ctx, ledger.Adjustment{
			UserID:    userID,
			Delta:     dec("200"),
			Kind:      models.TransactionKindDeposit,
			Status:    models.TransactionStatusPending,
			Method:    models.MethodBankTransfer,
			Reference: models.GenerateDepositReference(userID),
		})
		if err != nil {
			t.Fatalf("pending deposit: %v", err)
		}
		if tx.Status != models.TransactionStatusPending {
			t.Errorf("status = %s", tx.Status)
		}
		if !tx.BalanceAfter.Equal(dec("95.50")) {
			t.Errorf("pending balance after = %s", tx.BalanceAfter)
		}
	})

	t.Run("transactions newest first", func(t *testing.T) {
		txs, err := store.Transactions(ctx, userID, "", 10)
		if err != nil {
			t.Fatalf("Transactions: %v", err)
		}
		if len(txs) != 4 {
			t.Fatalf("got %d transactions, want 4", len(txs))
		}
		if txs[0].Status != models.TransactionStatusPending {
			t.Errorf("newest transaction = %+v", txs[0])
		}

		deposits, err := store.Transactions(ctx, userID, models.TransactionKindDeposit, 10)
		if err != nil {
			t.Fatalf("Transactions(deposit): %v", err)
		}
		if len(deposits) != 2 {
			t.Errorf("got %d deposits, want 2", len(deposits))
		}
	})

	t.Run("concurrent debits never overdraw", func(t *testing.T) {
		var wg sync.WaitGroup
		var mu sync.Mutex
		ok := 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Adjust(ctx, ledger.Adjustment{
					UserID:  userID,
					Delta:   dec("-10"),
					Require: dec("10"),
					Kind:    models.TransactionKindWithdrawal,
					Method:  models.MethodCard,
				})
				if err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				} else if !errors.Is(err, ledger.ErrInsufficientFunds) {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if ok != 9 {
			t.Errorf("%d debits succeeded, want 9", ok)
		}
		bal, _ := store.Balance(ctx, userID)
		if !bal.Equal(dec("5.50")) {
			t.Errorf("balance = %s, want 5.50", bal)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, ledger.NewMemoryStore(), 1)
}

func TestAdjustValidation(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()
	_ = store.Open(ctx, 7)

	bad := []ledger.Adjustment{
		{Delta: dec("1"), Kind: models.TransactionKindDeposit, Method: models.MethodCard},
		{UserID: 7, Delta: dec("1")},
		{UserID: 7, Delta: dec("0.001"), Kind: models.TransactionKindDeposit, Method: models.MethodCard},
		{UserID: 7, Delta: dec("1"), Require: dec("-1"), Kind: models.TransactionKindDeposit, Method: models.MethodCard},
	}
	for i, adj := range bad {
		if _, err := store.Adjust(ctx, adj); !errors.Is(err, ledger.ErrInvalidAdjustment) {
			t.Errorf("case %d: expected invalid adjustment, got %v", i, err)
		}
	}
}
