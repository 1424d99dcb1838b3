// Package table hosts the per-table controller: the single writer that owns a
// table's seats and current hand, serializes every operation, persists the
// results and fans out snapshots.
package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"

	"github.com/Palmergill/poker-app/internal/auth"
	"github.com/Palmergill/poker-app/internal/broadcast"
	"github.com/Palmergill/poker-app/internal/deck"
	"github.com/Palmergill/poker-app/internal/game"
	"github.com/Palmergill/poker-app/internal/store"
)

var (
	// ErrBusy indicates the table's mutator could not be acquired before the
	// caller's deadline.
	ErrBusy = errors.New("table busy")

	// ErrQuarantined indicates the controller hit an internal error and is
	// read-only pending operator intervention.
	ErrQuarantined = errors.New("table quarantined")
)

// Controller serializes all access to one table. Every mutating operation
// acquires the exclusive mutator; in-memory state is never touched outside it.
type Controller struct {
	table       store.Table
	store       store.Store
	broadcaster *broadcast.Broadcaster
	clock       quartz.Clock
	rng         *rand.Rand
	logger      *log.Logger

	mutator chan struct{}

	// State below is guarded by the mutator.
	seats       []*game.Seat
	hand        *game.Hand
	handNumber  int
	dealerIndex int
	history     []*game.HandRecord
	summary     *GameSummary
	lastSeq     int
	quarantined bool
}

// Options configures a Controller.
type Options struct {
	Table       store.Table
	Store       store.Store
	Broadcaster *broadcast.Broadcaster
	Clock       quartz.Clock
	RNG         *rand.Rand
	Logger      *log.Logger
}

// NewController creates the controller for one table.
func NewController(opts Options) *Controller {
	return &Controller{
		table:       opts.Table,
		store:       opts.Store,
		broadcaster: opts.Broadcaster,
		clock:       opts.Clock,
		rng:         opts.RNG,
		logger:      opts.Logger.WithPrefix("table").With("table", opts.Table.ID),
		mutator:     make(chan struct{}, 1),
		dealerIndex: -1,
	}
}

// ID returns the table id.
func (c *Controller) ID() string { return c.table.ID }

// acquire takes the exclusive mutator, failing with ErrBusy when the context
// expires first.
func (c *Controller) acquire(ctx context.Context) error {
	select {
	case c.mutator <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ErrBusy
	}
}

func (c *Controller) release() { <-c.mutator }

// guard converts an engine panic into quarantine. Engine panics indicate
// corrupted state (an exhausted deck mid-hand); the table goes read-only
// rather than keep mutating.
func (c *Controller) guard(err *error) {
	if r := recover(); r != nil {
		c.quarantine(fmt.Errorf("engine panic: %v", r))
		*err = ErrQuarantined
	}
}

func (c *Controller) quarantine(err error) {
	c.quarantined = true
	c.logger.Error("quarantining table", "lastSeq", c.lastSeq, "err", err)
}

// Join seats a player, debiting the buy-in from their bankroll. The bankroll
// debit commits before the seat exists in memory; a failed debit changes
// nothing.
func (c *Controller) Join(ctx context.Context, id *auth.Identity, buyIn decimal.Decimal) (*Snapshot, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	if c.quarantined {
		return nil, ErrQuarantined
	}
	if c.summary != nil {
		return nil, game.ErrGameNotInProgress
	}
	if buyIn.LessThan(c.table.MinBuyIn) || buyIn.GreaterThan(c.table.MaxBuyIn) {
		return nil, fmt.Errorf("%w: buy-in must be between %s and %s",
			game.ErrInvalidAmount, c.table.MinBuyIn, c.table.MaxBuyIn)
	}
	for _, s := range c.seats {
		if s.PlayerID == id.PlayerID && s.Status != game.SeatLeft {
			return nil, game.ErrAlreadySeated
		}
	}
	if len(c.seats) >= c.table.MaxSeats {
		return nil, game.ErrTableFull
	}

	if _, err := c.store.DebitBankroll(ctx, id.PlayerID, buyIn); err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return nil, game.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("debit bankroll: %w", err)
	}

	seat := game.NewSeat(len(c.seats), id.PlayerID, id.DisplayName, buyIn)
	c.seats = append(c.seats, seat)
	c.logger.Info("player joined", "player", id.PlayerID, "seat", seat.Index, "buyIn", buyIn)

	c.broadcastSnapshot()
	return c.snapshotFor(id.PlayerID), nil
}

// Start deals the first hand, or the next one from WAITING_FOR_PLAYERS.
func (c *Controller) Start(ctx context.Context, id *auth.Identity) (snap *Snapshot, err error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	defer c.guard(&err)

	if c.quarantined {
		return nil, ErrQuarantined
	}
	if _, err := c.seatFor(id.PlayerID); err != nil {
		return nil, err
	}
	if c.hand != nil && !c.hand.Complete() {
		return nil, game.ErrGameAlreadyStarted
	}

	if err := c.deal(); err != nil {
		return nil, err
	}
	c.broadcastSnapshot()
	return c.snapshotFor(id.PlayerID), nil
}

// deal starts the next hand. Must be called under the mutator.
func (c *Controller) deal() error {
	eligible := 0
	for _, s := range c.seats {
		if s.Eligible() {
			eligible++
		}
	}
	if eligible < 2 {
		return game.ErrNotEnoughPlayers
	}

	// Rotate the button; the first hand of a session seats it randomly.
	dealer := c.nextEligible(c.dealerIndex)
	if c.dealerIndex == -1 {
		dealer = c.randomEligible()
	}

	d := deck.New(c.rng)
	d.Shuffle()

	hand, err := game.NewHand(game.Config{
		Seats:       c.seats,
		HandNumber:  c.handNumber + 1,
		DealerIndex: dealer,
		SmallBlind:  c.table.SmallBlind,
		BigBlind:    c.table.BigBlind,
		Deck:        d,
		Now:         c.clock.Now(),
	})
	if err != nil {
		return err
	}

	c.hand = hand
	c.handNumber++
	c.dealerIndex = dealer
	c.logger.Info("hand started", "hand", c.handNumber, "dealer", dealer, "players", eligible)
	return nil
}

// Action validates and applies one player action on the current hand.
func (c *Controller) Action(ctx context.Context, id *auth.Identity, kind game.ActionKind, amount decimal.Decimal) (snap *Snapshot, err error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	defer c.guard(&err)

	if c.quarantined {
		return nil, ErrQuarantined
	}
	seat, err := c.seatFor(id.PlayerID)
	if err != nil {
		return nil, err
	}
	if c.hand == nil || c.hand.Complete() {
		return nil, game.ErrGameNotInProgress
	}

	if err := c.hand.Apply(seat.Index, kind, amount, c.clock.Now()); err != nil {
		return nil, err
	}
	c.lastSeq = c.hand.LastSeq()

	if c.hand.Complete() {
		rec := c.hand.Record()
		c.history = append(c.history, rec)
		if err := c.store.AppendHandRecord(ctx, c.table.ID, rec); err != nil {
			// The hand already resolved in memory; losing its archive is
			// corruption, not a rollback.
			c.quarantine(fmt.Errorf("append hand record: %w", err))
			return nil, ErrQuarantined
		}
		c.logger.Info("hand complete", "hand", rec.HandNumber, "pot", rec.Pot, "type", rec.Winner.Type)
	}

	c.broadcastSnapshot()
	return c.snapshotFor(id.PlayerID), nil
}

// ReadyResult reports readiness progress toward the next hand.
type ReadyResult struct {
	ReadyCount int `json:"readyCount"`
	TotalCount int `json:"totalCount"`
}

// Ready marks the player ready for the next hand; when every eligible seat is
// ready the next hand is dealt immediately.
func (c *Controller) Ready(ctx context.Context, id *auth.Identity) (res *ReadyResult, err error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	defer c.guard(&err)

	if c.quarantined {
		return nil, ErrQuarantined
	}
	seat, err := c.seatFor(id.PlayerID)
	if err != nil {
		return nil, err
	}
	if c.hand == nil || c.hand.Winner() == nil {
		return nil, fmt.Errorf("%w: no completed hand to ready up for", game.ErrInvalidAction)
	}

	seat.ReadyForNext = true

	ready, total := 0, 0
	for _, s := range c.seats {
		if !s.Eligible() {
			continue
		}
		total++
		if s.ReadyForNext {
			ready++
		}
	}

	if total >= 2 && ready == total {
		if err := c.deal(); err != nil {
			return nil, err
		}
	}

	c.broadcastSnapshot()
	return &ReadyResult{ReadyCount: ready, TotalCount: total}, nil
}

// CashOutResult is the outcome of a cash-out.
type CashOutResult struct {
	Stack                decimal.Decimal `json:"stack"`
	GameSummaryGenerated bool            `json:"gameSummaryGenerated"`
	GameSummary          *GameSummary    `json:"gameSummary,omitempty"`
}

// CashOut freezes the seat's stack as its final stack. Forbidden while the
// seat is contesting a hand. The cash-out that gives every seat a final stack
// also ends the game: the summary is persisted, the table row deleted, and the
// notification broadcast exactly once.
func (c *Controller) CashOut(ctx context.Context, id *auth.Identity) (*CashOutResult, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	if c.quarantined {
		return nil, ErrQuarantined
	}
	seat, err := c.seatFor(id.PlayerID)
	if err != nil {
		return nil, err
	}
	if seat.Status == game.SeatCashedOut {
		return nil, game.ErrAlreadyCashedOut
	}
	if seat.Status != game.SeatActive {
		return nil, fmt.Errorf("%w: seat has left", game.ErrInvalidAction)
	}
	if c.handInProgress() && seat.InHand() {
		return nil, game.ErrCannotLeaveWhileActive
	}

	completes := true
	for _, s := range c.seats {
		if s != seat && s.FinalStack == nil {
			completes = false
			break
		}
	}

	// When this cash-out completes the game, persist the summary before any
	// in-memory mutation so a failed commit leaves the table untouched.
	var summary *GameSummary
	if completes {
		final := seat.Stack
		seatCopy := *seat
		seatCopy.FinalStack = &final
		seatCopy.Status = game.SeatCashedOut

		saved := c.seats[seat.Index]
		c.seats[seat.Index] = &seatCopy
		summary = c.buildSummary(c.clock.Now())
		c.seats[seat.Index] = saved

		payload, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("marshal summary: %w", err)
		}
		if err := c.store.SaveGameSummaryAndDeleteTable(ctx, c.table.ID, payload); err != nil {
			return nil, fmt.Errorf("save game summary: %w", err)
		}
	}

	final := seat.Stack
	seat.FinalStack = &final
	seat.Status = game.SeatCashedOut
	c.logger.Info("player cashed out", "player", id.PlayerID, "stack", final)

	if summary != nil {
		c.summary = summary
		c.logger.Info("game complete", "hands", summary.HandsPlayed)
		c.broadcaster.Publish(c.table.ID, broadcast.KindGameSummary, func(string) any {
			return map[string]any{
				"gameId":      c.table.ID,
				"gameSummary": summary,
				"totalHands":  summary.HandsPlayed,
			}
		})
	}

	c.broadcastSnapshot()
	return &CashOutResult{
		Stack:                final,
		GameSummaryGenerated: summary != nil,
		GameSummary:          summary,
	}, nil
}

// BuyBackInResult is the outcome of a buy-back-in.
type BuyBackInResult struct {
	TotalStack decimal.Decimal `json:"totalStack"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// BuyBackIn returns a cashed-out seat to play, converting bankroll to stack.
func (c *Controller) BuyBackIn(ctx context.Context, id *auth.Identity, amount decimal.Decimal) (*BuyBackInResult, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	if c.quarantined {
		return nil, ErrQuarantined
	}
	seat, err := c.seatFor(id.PlayerID)
	if err != nil {
		return nil, err
	}
	if seat.Status != game.SeatCashedOut {
		return nil, fmt.Errorf("%w: must cash out before buying back in", game.ErrInvalidAction)
	}
	if c.summary != nil {
		return nil, game.ErrGameNotInProgress
	}
	if c.handInProgress() {
		return nil, fmt.Errorf("%w: cannot buy back in mid-hand", game.ErrInvalidAction)
	}
	if amount.LessThan(c.table.MinBuyIn) || amount.GreaterThan(c.table.MaxBuyIn) {
		return nil, fmt.Errorf("%w: amount must be between %s and %s",
			game.ErrInvalidAmount, c.table.MinBuyIn, c.table.MaxBuyIn)
	}

	balance, err := c.store.DebitBankroll(ctx, id.PlayerID, amount)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return nil, game.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("debit bankroll: %w", err)
	}

	seat.Stack = seat.Stack.Add(amount)
	seat.StartingStack = seat.StartingStack.Add(amount)
	seat.FinalStack = nil
	seat.Status = game.SeatActive
	c.logger.Info("player bought back in", "player", id.PlayerID, "amount", amount)

	c.broadcastSnapshot()
	return &BuyBackInResult{TotalStack: seat.Stack, NewBalance: balance}, nil
}

// LeaveResult is the outcome of leaving the table.
type LeaveResult struct {
	LeftWith   decimal.Decimal `json:"leftWith"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// Leave releases a cashed-out seat, crediting its stack back to the bankroll.
func (c *Controller) Leave(ctx context.Context, id *auth.Identity) (*LeaveResult, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	if c.quarantined {
		return nil, ErrQuarantined
	}
	seat, err := c.seatFor(id.PlayerID)
	if err != nil {
		return nil, err
	}
	if seat.Status != game.SeatCashedOut {
		return nil, game.ErrCannotLeaveWhileActive
	}

	leftWith := seat.Stack
	balance, err := c.store.CreditBankroll(ctx, id.PlayerID, leftWith)
	if err != nil {
		return nil, fmt.Errorf("credit bankroll: %w", err)
	}

	seat.Stack = decimal.Zero
	seat.Status = game.SeatLeft
	c.logger.Info("player left", "player", id.PlayerID, "leftWith", leftWith)

	c.broadcastSnapshot()
	return &LeaveResult{LeftWith: leftWith, NewBalance: balance}, nil
}

// Snapshot renders the table for the given viewer.
func (c *Controller) Snapshot(ctx context.Context, viewerID string) (*Snapshot, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	return c.snapshotFor(viewerID), nil
}

// HandHistory returns the completed hand records, oldest first.
func (c *Controller) HandHistory(ctx context.Context) ([]*game.HandRecord, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	return append([]*game.HandRecord(nil), c.history...), nil
}

// Summary returns the terminal game summary, or nil while the game runs.
func (c *Controller) Summary(ctx context.Context) (*GameSummary, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	return c.summary, nil
}

// Attach subscribes a participant to the table's snapshot stream and returns
// the snapshot they must receive first. Non-participants are rejected.
func (c *Controller) Attach(ctx context.Context, viewerID string) (*broadcast.Subscriber, *Snapshot, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, nil, err
	}
	defer c.release()

	if _, err := c.seatFor(viewerID); err != nil {
		return nil, nil, err
	}

	sub := c.broadcaster.Subscribe(c.table.ID, viewerID)
	return sub, c.snapshotFor(viewerID), nil
}

// Detach removes a subscriber.
func (c *Controller) Detach(sub *broadcast.Subscriber) {
	c.broadcaster.Unsubscribe(c.table.ID, sub)
}

// broadcastSnapshot enqueues a per-viewer snapshot for every subscriber. Must
// be called under the mutator; delivery happens outside it.
func (c *Controller) broadcastSnapshot() {
	c.broadcaster.Publish(c.table.ID, broadcast.KindSnapshot, func(viewerID string) any {
		return c.snapshotFor(viewerID)
	})
}

func (c *Controller) seatFor(playerID string) (*game.Seat, error) {
	for _, s := range c.seats {
		if s.PlayerID == playerID && s.Status != game.SeatLeft {
			return s, nil
		}
	}
	return nil, game.ErrNotSeated
}

func (c *Controller) handInProgress() bool {
	return c.hand != nil && c.hand.Phase() != game.PhaseWaiting
}

func (c *Controller) status() string {
	switch {
	case c.summary != nil:
		return "FINISHED"
	case c.handInProgress():
		return "IN_PROGRESS"
	default:
		return "WAITING_FOR_PLAYERS"
	}
}

// nextEligible returns the first eligible seat clockwise of from, or -1.
func (c *Controller) nextEligible(from int) int {
	n := len(c.seats)
	if n == 0 {
		return -1
	}
	if from < 0 {
		from = n - 1
	}
	for i := 1; i <= n; i++ {
		pos := (from + i) % n
		if c.seats[pos].Eligible() {
			return pos
		}
	}
	return -1
}

// randomEligible picks a uniformly random eligible seat for the first button.
func (c *Controller) randomEligible() int {
	var eligible []int
	for _, s := range c.seats {
		if s.Eligible() {
			eligible = append(eligible, s.Index)
		}
	}
	return eligible[c.rng.IntN(len(eligible))]
}
