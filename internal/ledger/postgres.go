package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mikiasyonas/casino-rounds/internal/models"
)

//go:embed schema.sql
var schema string

const pgUniqueViolation = "23505"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

// Migrate creates the ledger tables if they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) Open(ctx context.Context, userID int64) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO balances (user_id, current_balance) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING",
		userID)
	if err != nil {
		return fmt.Errorf("open balance: %w", err)
	}
	return nil
}

func (s *PostgresStore) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var raw string
	err := s.db.QueryRow(ctx,
		"SELECT current_balance::text FROM balances WHERE user_id = $1", userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	}
	return decimal.NewFromString(raw)
}

// Adjust locks the balance row with FOR UPDATE, checks the adjustment
// against the locked value, then writes the balance and the transaction row
// in the same database transaction.
func (s *PostgresStore) Adjust(ctx context.Context, adj Adjustment) (*models.Transaction, error) {
	if err := adj.validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw string
	err = tx.QueryRow(ctx,
		"SELECT current_balance::text FROM balances WHERE user_id = $1 FOR UPDATE",
		adj.UserID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", raw, err)
	}
	next, err := adj.apply(balance)
	if err != nil {
		return nil, err
	}

	if !next.Equal(balance) {
		_, err = tx.Exec(ctx,
			"UPDATE balances SET current_balance = $1::numeric, last_updated = now() WHERE user_id = $2",
			next.String(), adj.UserID)
		if err != nil {
			return nil, fmt.Errorf("update balance: %w", err)
		}
	}

	rec := models.Transaction{
		ID:           uuid.NewString(),
		UserID:       adj.UserID,
		Kind:         adj.Kind,
		Amount:       adj.Delta,
		BalanceAfter: next,
		Status:       adj.status(),
		Method:       adj.Method,
		Reference:    adj.Reference,
		Description:  adj.Description,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (id, user_id, kind, amount, balance_after, status, method, reference, description)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8, $9)
		RETURNING created_at`,
		rec.ID, rec.UserID, string(rec.Kind), rec.Amount.String(), rec.BalanceAfter.String(),
		string(rec.Status), string(rec.Method), nullable(rec.Reference), rec.Description,
	).Scan(&rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) Transactions(ctx context.Context, userID int64, kind models.TransactionKind, limit int) ([]models.Transaction, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM balances WHERE user_id = $1)", userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check balance: %w", err)
	}
	if !exists {
		return nil, ErrAccountNotFound
	}

	rows, err := s.db.Query(ctx, `
		SELECT id::text, user_id, kind, amount::text, balance_after::text, status, method,
		       COALESCE(reference, ''), description, created_at
		FROM transactions
		WHERE user_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC
		LIMIT $3`,
		userID, string(kind), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			t                       models.Transaction
			rowKind, status, method string
			amount, after           string
			created                 time.Time
		)
		if err := rows.Scan(&t.ID, &t.UserID, &rowKind, &amount, &after, &status, &method,
			&t.Reference, &t.Description, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = models.TransactionKind(rowKind)
		t.Status = models.TransactionStatus(status)
		t.Method = models.PaymentMethod(method)
		t.CreatedAt = created
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if t.BalanceAfter, err = decimal.NewFromString(after); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
