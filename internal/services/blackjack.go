package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mikiasyonas/casino-rounds/internal/ledger"
	"github.com/mikiasyonas/casino-rounds/internal/logger"
	"github.com/mikiasyonas/casino-rounds/internal/metrics"
	"github.com/mikiasyonas/casino-rounds/internal/models"
	"github.com/mikiasyonas/casino-rounds/internal/payout"
)

const (
	MsgPlaceBet          = "PLACE YOUR BET"
	MsgInsufficientFunds = "INSUFFICIENT FUNDS"
	MsgBust              = "BUST"
	MsgWin               = "YOU WIN"
	MsgLose              = "YOU LOSE"
	MsgPush              = "PUSH"
	MsgDealerBust        = "DEALER BUSTS"
	MsgDealerBlackjack   = "DEALER BLACKJACK"

	dealerStandsOn = 17
)

var phaseActions = map[models.Phase][]models.Action{
	models.PhaseBetting: {models.ActionBet, models.ActionClearBet, models.ActionDeal},
	models.PhasePlayer:  {models.ActionHit, models.ActionStand, models.ActionDouble},
	models.PhaseEnd:     {models.ActionNewRound},
}

type blackjackRound struct {
	id      string
	deck    *Deck
	player  []models.Card
	dealer  []models.Card
	bet     int64
	bank    decimal.Decimal
	phase   models.Phase
	message string
}

func newBlackjackRound(deck *Deck) *blackjackRound {
	return &blackjackRound{deck: deck, phase: models.PhaseBetting, message: MsgPlaceBet}
}

func (r *blackjackRound) clone() *blackjackRound {
	c := *r
	c.deck = r.deck.clone()
	c.player = append([]models.Card(nil), r.player...)
	c.dealer = append([]models.Card(nil), r.dealer...)
	return &c
}

func (r *blackjackRound) covers(amount int64) bool {
	return decimal.NewFromInt(amount).LessThanOrEqual(r.bank)
}

func (r *blackjackRound) canDouble() bool {
	return r.phase == models.PhasePlayer && len(r.player) == 2 && r.covers(2*r.bet)
}

func (r *blackjackRound) allowedActions() []models.Action {
	actions := make([]models.Action, 0, 3)
	for _, a := range phaseActions[r.phase] {
		if a == models.ActionDouble && !r.canDouble() {
			continue
		}
		actions = append(actions, a)
	}
	return actions
}

func (r *blackjackRound) allows(action models.Action) bool {
	for _, a := range r.allowedActions() {
		if a == action {
			return true
		}
	}
	return false
}

// apply runs a legal action and returns the bank delta it settled.
func (r *blackjackRound) apply(action models.Action, amount int64) int64 {
	switch action {
	case models.ActionBet:
		r.increaseBet(amount)
	case models.ActionClearBet:
		r.bet = 0
		r.message = MsgPlaceBet
	case models.ActionDeal:
		return r.deal()
	case models.ActionHit:
		return r.hit()
	case models.ActionStand:
		return r.stand()
	case models.ActionDouble:
		return r.double()
	case models.ActionNewRound:
		r.reset()
	}
	return 0
}

func (r *blackjackRound) increaseBet(amount int64) {
	if amount <= 0 || !r.covers(r.bet+amount) {
		r.message = MsgInsufficientFunds
		return
	}
	r.bet += amount
	r.message = fmt.Sprintf("BET: $%d", r.bet)
}

func (r *blackjackRound) deal() int64 {
	if r.bet <= 0 {
		r.message = MsgPlaceBet
		return 0
	}
	if !r.covers(r.bet) {
		r.message = MsgInsufficientFunds
		return 0
	}

	r.id = models.GenerateRoundID()
	r.player = []models.Card{r.deck.Draw()}
	r.dealer = []models.Card{r.deck.Draw()}
	r.player = append(r.player, r.deck.Draw())
	r.dealer = append(r.dealer, r.deck.Draw())
	r.phase = models.PhasePlayer
	r.message = ""

	playerNatural := payout.IsBlackjack(r.player)
	dealerNatural := payout.IsBlackjack(r.dealer)
	switch {
	case playerNatural && dealerNatural:
		return r.settle(0, MsgPush)
	case playerNatural:
		win := payout.NaturalPayout(r.bet)
		return r.settle(win, fmt.Sprintf("BLACKJACK! +$%d", win))
	case dealerNatural:
		return r.settle(-r.bet, MsgDealerBlackjack)
	}
	return 0
}

func (r *blackjackRound) hit() int64 {
	r.player = append(r.player, r.deck.Draw())
	if payout.IsBust(r.player) {
		return r.settle(-r.bet, MsgBust)
	}
	return 0
}

func (r *blackjackRound) stand() int64 {
	for payout.HandValue(r.dealer) < dealerStandsOn {
		r.dealer = append(r.dealer, r.deck.Draw())
	}

	player := payout.HandValue(r.player)
	dealer := payout.HandValue(r.dealer)
	switch {
	case dealer > payout.BlackjackTarget:
		return r.settle(r.bet, MsgDealerBust)
	case player > dealer:
		return r.settle(r.bet, MsgWin)
	case player < dealer:
		return r.settle(-r.bet, MsgLose)
	default:
		return r.settle(0, MsgPush)
	}
}

// double settles at twice the stake in one adjustment, so a doubled hand
// that pushes leaves the bank untouched.
func (r *blackjackRound) double() int64 {
	r.bet *= 2
	r.player = append(r.player, r.deck.Draw())
	if payout.IsBust(r.player) {
		return r.settle(-r.bet, MsgBust)
	}
	return r.stand()
}

func (r *blackjackRound) settle(delta int64, message string) int64 {
	r.bank = r.bank.Add(decimal.NewFromInt(delta))
	r.phase = models.PhaseEnd
	r.message = message
	return delta
}

func (r *blackjackRound) reset() {
	r.id = ""
	r.player = nil
	r.dealer = nil
	r.bet = 0
	r.phase = models.PhaseBetting
	r.message = MsgPlaceBet
}

func cardViews(cards []models.Card) []models.CardView {
	views := make([]models.CardView, len(cards))
	for i, c := range cards {
		views[i] = models.CardView{Rank: c.Rank, Suit: c.Suit}
	}
	return views
}

func (r *blackjackRound) snapshot() *models.BlackjackSnapshot {
	hidden := r.phase == models.PhasePlayer && len(r.dealer) >= 2

	dealer := cardViews(r.dealer)
	dealerValue := payout.HandValue(r.dealer)
	if hidden {
		for i := 1; i < len(dealer); i++ {
			dealer[i] = models.CardView{FaceDown: true}
		}
		dealerValue = payout.HandValue(r.dealer[:1])
	}

	return &models.BlackjackSnapshot{
		RoundID:        r.id,
		Player:         cardViews(r.player),
		Dealer:         dealer,
		PlayerValue:    payout.HandValue(r.player),
		DealerValue:    dealerValue,
		Bet:            r.bet,
		Bank:           r.bank,
		Phase:          r.phase,
		Message:        r.message,
		AllowedActions: r.allowedActions(),
		DealerHidden:   hidden,
	}
}

type blackjackTable struct {
	round    *blackjackRound
	lastUsed time.Time
}

// BlackjackEngine keeps one table per user in memory. All work on a table
// happens under that user's lock from the shared UserLocks.
type BlackjackEngine struct {
	balances *BalanceSynchronizer
	locks    *UserLocks
	opts     options

	mu     sync.Mutex
	tables map[int64]*blackjackTable
}

func NewBlackjackEngine(balances *BalanceSynchronizer, locks *UserLocks, opts ...Option) *BlackjackEngine {
	return &BlackjackEngine{
		balances: balances,
		locks:    locks,
		opts:     buildOptions(opts),
		tables:   make(map[int64]*blackjackTable),
	}
}

func (e *BlackjackEngine) table(userID int64) *blackjackTable {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[userID]
	if !ok {
		t = &blackjackTable{round: newBlackjackRound(e.opts.newDeck())}
		e.tables[userID] = t
	}
	t.lastUsed = e.opts.now()
	return t
}

func (e *BlackjackEngine) State(ctx context.Context, userID int64) (*models.BlackjackSnapshot, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	t := e.table(userID)
	bank, err := e.balances.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	t.round.bank = bank
	return t.round.snapshot(), nil
}

// Apply runs one player action. An action the phase does not allow returns
// the current snapshot unchanged. When the action settles the round the
// result is committed to the ledger; if that fails the table is restored to
// where it was before the action and the error is returned.
func (e *BlackjackEngine) Apply(ctx context.Context, userID int64, action models.Action, amount int64) (*models.BlackjackSnapshot, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	t := e.table(userID)
	bank, err := e.balances.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	t.round.bank = bank

	if !t.round.allows(action) {
		return t.round.snapshot(), nil
	}

	before := t.round.clone()
	delta := t.round.apply(action, amount)
	if before.phase == models.PhaseEnd || t.round.phase != models.PhaseEnd {
		return e.publish(userID, t.round), nil
	}

	r := t.round
	tx, err := e.balances.Commit(ctx, ledger.Adjustment{
		UserID:      userID,
		Delta:       decimal.NewFromInt(delta),
		Require:     decimal.NewFromInt(r.bet),
		Kind:        models.TransactionKindAdjustment,
		Method:      models.MethodBlackjack,
		Reference:   models.RoundReference(models.GameTypeBlackjack, r.id),
		Description: fmt.Sprintf("blackjack %s: bet %d, %d vs %d", r.message, r.bet, payout.HandValue(r.player), payout.HandValue(r.dealer)),
	})
	if err != nil {
		t.round = before
		return nil, err
	}
	r.bank = tx.BalanceAfter

	metrics.RecordRound(string(models.GameTypeBlackjack), r.bet, r.bet+delta, delta)
	logger.InfoCtx(ctx, "blackjack round settled",
		zap.Int64("user_id", userID),
		zap.String("round_id", r.id),
		zap.Int64("bet", r.bet),
		zap.Int64("delta", delta),
		zap.String("balance", r.bank.String()))
	e.opts.notify.BroadcastBalance(userID, r.bank)
	return e.publish(userID, r), nil
}

func (e *BlackjackEngine) publish(userID int64, r *blackjackRound) *models.BlackjackSnapshot {
	snap := r.snapshot()
	e.opts.notify.BroadcastRound(userID, models.GameTypeBlackjack, snap)
	return snap
}

// OpenStake is the bet of a hand still in play. The caller holds the user's
// lock.
func (e *BlackjackEngine) OpenStake(userID int64) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[userID]
	if !ok || t.round.phase != models.PhasePlayer {
		return 0
	}
	return t.round.bet
}

// CleanupStaleTables drops tables idle for longer than maxIdle. A hand in
// play is never dropped, nor is a table whose user is mid-request.
func (e *BlackjackEngine) CleanupStaleTables(maxIdle time.Duration) int {
	cutoff := e.opts.now().Add(-maxIdle)

	e.mu.Lock()
	var stale []int64
	for id, t := range e.tables {
		if t.lastUsed.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	e.mu.Unlock()

	removed := 0
	for _, id := range stale {
		unlock, ok := e.locks.TryLock(id)
		if !ok {
			continue
		}
		e.mu.Lock()
		if t, ok := e.tables[id]; ok && t.lastUsed.Before(cutoff) && t.round.phase != models.PhasePlayer {
			delete(e.tables, id)
			removed++
		}
		e.mu.Unlock()
		unlock()
	}
	return removed
}

func (e *BlackjackEngine) Tables() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tables)
}
