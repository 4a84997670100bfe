package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mikiasyonas/casino-rounds/internal/models"
)

const (
	keyBalance      = "ledger:balance:%d"
	keyTransaction  = "ledger:tx:%s"
	keyUserTxIndex  = "ledger:user:%d:tx"
	keyReference    = "ledger:ref:%s"
	maxIndexedTxs   = 1000
	redisScanWindow = 500
)

// RedisStore keeps balances as integer cents in a hash per user. Adjust runs
// as a single Lua script, so the check and the write cannot interleave with
// another adjustment of the same user.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisRecord struct {
	ID          string `json:"id"`
	UserID      int64  `json:"user_id"`
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`

	// Written by the adjust script next to the JSON body.
	BalanceAfterCents int64 `json:"-"`
}

func (r redisRecord) transaction() models.Transaction {
	return models.Transaction{
		ID:           r.ID,
		UserID:       r.UserID,
		Kind:         models.TransactionKind(r.Kind),
		Amount:       decimal.New(r.AmountCents, -2),
		BalanceAfter: decimal.New(r.BalanceAfterCents, -2),
		Status:       models.TransactionStatus(r.Status),
		Method:       models.PaymentMethod(r.Method),
		Reference:    r.Reference,
		Description:  r.Description,
		CreatedAt:    time.UnixMicro(r.CreatedAt).UTC(),
	}
}

var adjustScript = redis.NewScript(`
	local balanceKey = KEYS[1]
	local refKey = KEYS[2]
	local txKey = KEYS[3]
	local indexKey = KEYS[4]

	local delta = tonumber(ARGV[1])
	local required = tonumber(ARGV[2])
	local completed = ARGV[3] == "Completed"
	local hasRef = ARGV[4] == "1"

	local current = redis.call("HGET", balanceKey, "cents")
	if not current then
		return redis.error_reply("account not found")
	end
	current = tonumber(current)

	if hasRef and redis.call("EXISTS", refKey) == 1 then
		return redis.error_reply("duplicate reference")
	end

	local nextBalance = current
	if completed then
		nextBalance = current + delta
		if current < required or nextBalance < 0 then
			return redis.error_reply("insufficient funds")
		end
		redis.call("HSET", balanceKey, "cents", nextBalance, "updated", ARGV[6])
	end

	redis.call("HSET", txKey, "data", ARGV[5], "balance_after", nextBalance)
	redis.call("ZADD", indexKey, ARGV[6], ARGV[8])
	redis.call("ZREMRANGEBYRANK", indexKey, 0, -(tonumber(ARGV[7]) + 1))
	if hasRef then
		redis.call("SET", refKey, ARGV[8])
	end

	return nextBalance
`)

func (s *RedisStore) Open(ctx context.Context, userID int64) error {
	if err := s.client.HSetNX(ctx, fmt.Sprintf(keyBalance, userID), "cents", 0).Err(); err != nil {
		return fmt.Errorf("open balance: %w", err)
	}
	return nil
}

func (s *RedisStore) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	raw, err := s.client.HGet(ctx, fmt.Sprintf(keyBalance, userID), "cents").Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	}
	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", raw, err)
	}
	return decimal.New(cents, -2), nil
}

func (s *RedisStore) Adjust(ctx context.Context, adj Adjustment) (*models.Transaction, error) {
	if err := adj.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	rec := redisRecord{
		ID:          uuid.NewString(),
		UserID:      adj.UserID,
		Kind:        string(adj.Kind),
		AmountCents: toCents(adj.Delta),
		Status:      string(adj.status()),
		Method:      string(adj.Method),
		Reference:   adj.Reference,
		Description: adj.Description,
		CreatedAt:   now.UnixMicro(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}

	hasRef := "0"
	if adj.Reference != "" {
		hasRef = "1"
	}
	keys := []string{
		fmt.Sprintf(keyBalance, adj.UserID),
		fmt.Sprintf(keyReference, adj.Reference),
		fmt.Sprintf(keyTransaction, rec.ID),
		fmt.Sprintf(keyUserTxIndex, adj.UserID),
	}

	next, err := adjustScript.Run(ctx, s.client, keys,
		rec.AmountCents, toCents(adj.Require), rec.Status, hasRef, data, rec.CreatedAt, maxIndexedTxs, rec.ID,
	).Int64()
	if err != nil {
		return nil, scriptError(err)
	}

	rec.BalanceAfterCents = next
	tx := rec.transaction()
	return &tx, nil
}

func (s *RedisStore) Transactions(ctx context.Context, userID int64, kind models.TransactionKind, limit int) ([]models.Transaction, error) {
	exists, err := s.client.Exists(ctx, fmt.Sprintf(keyBalance, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("check balance: %w", err)
	}
	if exists == 0 {
		return nil, ErrAccountNotFound
	}

	limit = clampLimit(limit)
	window := int64(limit - 1)
	if kind != "" {
		window = redisScanWindow - 1
	}
	ids, err := s.client.ZRevRange(ctx, fmt.Sprintf(keyUserTxIndex, userID), 0, window).Result()
	if err != nil {
		return nil, fmt.Errorf("read transaction index: %w", err)
	}
	if len(ids) == 0 {
		return []models.Transaction{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, fmt.Sprintf(keyTransaction, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}

	out := make([]models.Transaction, 0, limit)
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		var rec redisRecord
		if err := json.Unmarshal([]byte(fields["data"]), &rec); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		if kind != "" && rec.Kind != string(kind) {
			continue
		}
		if rec.BalanceAfterCents, err = strconv.ParseInt(fields["balance_after"], 10, 64); err != nil {
			return nil, fmt.Errorf("decode balance_after: %w", err)
		}
		out = append(out, rec.transaction())
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *RedisStore) Close() error { return nil }

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func scriptError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "account not found"):
		return ErrAccountNotFound
	case strings.Contains(msg, "insufficient funds"):
		return ErrInsufficientFunds
	case strings.Contains(msg, "duplicate reference"):
		return ErrDuplicateReference
	}
	return fmt.Errorf("adjust script: %w", err)
}
