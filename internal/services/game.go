package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/mikiasyonas/casino-rounds/internal/ledger"
	"github.com/mikiasyonas/casino-rounds/internal/models"
)

var (
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
	ErrInvalidBet        = errors.New("invalid bet")
	ErrInvalidRequest    = errors.New("invalid request")
)

// PersistenceError means the ledger could not be read or written. The
// action that needed it has been abandoned and its state rolled back.
type PersistenceError struct {
	Op     string
	UserID int64
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger %s for user %d: %v", e.Op, e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Exposure reports stake committed to a hand that has not settled. Callers
// must hold the user's lock from the shared UserLocks.
type Exposure interface {
	OpenStake(userID int64) int64
}

func openStake(e Exposure, userID int64) int64 {
	if e == nil {
		return 0
	}
	return e.OpenStake(userID)
}

type options struct {
	rng     RNG
	notify  Broadcaster
	newDeck func() *Deck
	now     func() time.Time
	newRef  func(userID int64) string
}

type Option func(*options)

func WithRNG(rng RNG) Option {
	return func(o *options) { o.rng = rng }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(o *options) { o.notify = b }
}

// WithDeckFactory sets how a blackjack table gets its shoe.
func WithDeckFactory(f func() *Deck) Option {
	return func(o *options) { o.newDeck = f }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithDepositReferences sets how bank transfer references are generated.
func WithDepositReferences(f func(userID int64) string) Option {
	return func(o *options) { o.newRef = f }
}

func buildOptions(opts []Option) options {
	o := options{
		rng:    SystemRNG,
		notify: nopBroadcaster{},
		now:    time.Now,
		newRef: models.GenerateDepositReference,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.newDeck == nil {
		rng := o.rng
		o.newDeck = func() *Deck { return NewDeck(rng) }
	}
	return o
}
