package game

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Palmergill/poker-app/internal/deck"
	"github.com/Palmergill/poker-app/internal/evaluator"
)

// Hand is the state machine for a single hand of no-limit hold'em. It holds
// the seat slice owned by the table controller and refers to seats strictly
// by index. All methods must be called under the controller's mutator.
type Hand struct {
	seats      []*Seat
	handNumber int
	smallBlind decimal.Decimal
	bigBlind   decimal.Decimal

	phase          Phase
	dealerIndex    int
	currentToAct   int
	currentBet     decimal.Decimal
	pot            decimal.Decimal
	community      []deck.Card
	deck           *deck.Deck
	lastAggressor  int
	riverAggressor int
	acted          map[int]bool
	bbIndex        int
	bbActed        bool

	actions []Action
	seq     int

	record *HandRecord
	winner *WinnerInfo
}

// Config carries everything the engine needs to deal a hand. The deck must be
// a fresh 52-card deck, already shuffled.
type Config struct {
	Seats       []*Seat
	HandNumber  int
	DealerIndex int
	SmallBlind  decimal.Decimal
	BigBlind    decimal.Decimal
	Deck        *deck.Deck
	Now         time.Time
}

// NewHand deals a hand: resets per-hand seat state, posts blinds, deals hole
// cards and opens the pre-flop betting round. The dealer index must already
// be rotated to an eligible seat by the caller.
func NewHand(cfg Config) (*Hand, error) {
	h := &Hand{
		seats:          cfg.Seats,
		handNumber:     cfg.HandNumber,
		smallBlind:     cfg.SmallBlind,
		bigBlind:       cfg.BigBlind,
		dealerIndex:    cfg.DealerIndex,
		deck:           cfg.Deck,
		currentBet:     decimal.Zero,
		pot:            decimal.Zero,
		lastAggressor:  -1,
		riverAggressor: -1,
		acted:          make(map[int]bool),
	}

	eligible := h.eligibleIndices()
	if len(eligible) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	for _, s := range h.seats {
		s.resetForHand()
	}

	// Blind positions. Heads-up the dealer posts the small blind and acts
	// first pre-flop; the opponent posts the big blind and acts last.
	var sbIndex int
	if len(eligible) == 2 {
		sbIndex = h.dealerIndex
	} else {
		sbIndex = h.nextEligible(h.dealerIndex)
	}
	h.bbIndex = h.nextEligible(sbIndex)

	h.postBlind(h.seats[sbIndex], h.smallBlind)
	bbAmount := h.postBlind(h.seats[h.bbIndex], h.bigBlind)
	h.currentBet = bbAmount
	h.lastAggressor = h.bbIndex

	// Two hole cards per eligible seat, two at a time, starting left of the
	// dealer.
	for i := 1; i <= len(h.seats); i++ {
		s := h.seats[(h.dealerIndex+i)%len(h.seats)]
		if !h.dealtIn(s, eligible) {
			continue
		}
		cards, err := h.deck.Deal(2)
		if err != nil {
			return nil, err
		}
		s.HoleCards = cards
	}

	h.phase = PhasePreflop
	h.currentToAct = h.nextActing(h.bbIndex + 1)
	return h, nil
}

func (h *Hand) dealtIn(s *Seat, eligible []int) bool {
	for _, idx := range eligible {
		if idx == s.Index {
			return true
		}
	}
	return false
}

// postBlind deducts up to amount from the seat and credits the pot. A blind
// that empties the stack leaves the seat all-in.
func (h *Hand) postBlind(s *Seat, amount decimal.Decimal) decimal.Decimal {
	moved := decimal.Min(amount, s.Stack)
	s.Stack = s.Stack.Sub(moved)
	s.CurrentBet = moved
	s.TotalBet = moved
	if s.Stack.IsZero() {
		s.AllIn = true
	}
	h.pot = h.pot.Add(moved)
	return moved
}

// Apply validates and applies one player action. Validation failures leave
// all state untouched.
func (h *Hand) Apply(seatIndex int, kind ActionKind, amount decimal.Decimal, now time.Time) error {
	if !h.phase.betting() {
		return ErrGameNotInProgress
	}
	if seatIndex != h.currentToAct {
		return ErrNotYourTurn
	}
	s := h.seats[seatIndex]
	if !s.CanAct() {
		return fmt.Errorf("%w: seat cannot act", ErrInvalidAction)
	}

	recorded := decimal.Zero
	switch kind {
	case Fold:
		s.Folded = true

	case Check:
		if !s.CurrentBet.Equal(h.currentBet) {
			return fmt.Errorf("%w: cannot check, %s to call", ErrInvalidAction, h.currentBet.Sub(s.CurrentBet))
		}

	case Call:
		if !s.CurrentBet.LessThan(h.currentBet) {
			return fmt.Errorf("%w: nothing to call", ErrInvalidAction)
		}
		recorded = h.commit(s, h.currentBet.Sub(s.CurrentBet))

	case Bet:
		if h.currentBet.IsPositive() {
			return fmt.Errorf("%w: there is already a bet, raise instead", ErrInvalidAction)
		}
		if amount.LessThan(h.bigBlind) {
			return fmt.Errorf("%w: bet must be at least the big blind %s", ErrInvalidAction, h.bigBlind)
		}
		h.commit(s, amount)
		h.currentBet = s.CurrentBet
		h.reopen(seatIndex)
		recorded = s.CurrentBet

	case Raise:
		if !h.currentBet.IsPositive() {
			return fmt.Errorf("%w: there is no bet, bet instead", ErrInvalidAction)
		}
		// The raise-to target must be at least double the outstanding bet;
		// the chips actually moved are capped by the stack (short all-in).
		if amount.LessThan(h.currentBet.Mul(decimal.NewFromInt(2))) {
			return fmt.Errorf("%w: raise must be at least double the current bet (%s)", ErrInvalidAction, h.currentBet.Mul(decimal.NewFromInt(2)))
		}
		h.commit(s, amount.Sub(s.CurrentBet))
		h.currentBet = s.CurrentBet
		h.reopen(seatIndex)
		recorded = s.CurrentBet

	default:
		return fmt.Errorf("%w: unknown kind", ErrInvalidAction)
	}

	h.appendAction(s, kind, recorded, now)
	h.acted[seatIndex] = true
	if h.phase == PhasePreflop && seatIndex == h.bbIndex {
		h.bbActed = true
	}

	h.advance(now)
	return nil
}

// commit moves up to amount chips from the seat into the pot.
func (h *Hand) commit(s *Seat, amount decimal.Decimal) decimal.Decimal {
	moved := s.post(amount)
	h.pot = h.pot.Add(moved)
	return moved
}

// reopen records an aggressive action: the betting round restarts with only
// the aggressor having acted.
func (h *Hand) reopen(seatIndex int) {
	h.lastAggressor = seatIndex
	if h.phase == PhaseRiver {
		h.riverAggressor = seatIndex
	}
	h.acted = map[int]bool{seatIndex: true}
}

func (h *Hand) appendAction(s *Seat, kind ActionKind, amount decimal.Decimal, now time.Time) {
	h.seq++
	h.actions = append(h.actions, Action{
		Seq:        h.seq,
		SeatIndex:  s.Index,
		PlayerName: s.DisplayName,
		Kind:       kind.String(),
		Amount:     amount,
		Phase:      h.phase.String(),
		At:         now,
	})
}

// roundComplete is the authoritative round-completion predicate. It is a pure
// function of the betting state; folds run through it like any other action.
func roundComplete(phase Phase, seats []*Seat, currentBet decimal.Decimal, acted map[int]bool, bbIndex int, bbActed bool) bool {
	for _, s := range seats {
		if !s.CanAct() {
			continue
		}
		if !s.CurrentBet.Equal(currentBet) {
			return false
		}
		if !acted[s.Index] {
			return false
		}
	}

	// Pre-flop the big blind keeps the option to check or raise: posting the
	// blind does not count as acting.
	if phase == PhasePreflop && seats[bbIndex].CanAct() && !bbActed {
		return false
	}
	return true
}

// advance moves the action pointer, closes the betting round, or resolves the
// hand, per the state after the latest action.
func (h *Hand) advance(now time.Time) {
	if h.contenders() == 1 {
		h.resolveFoldOut(now)
		return
	}

	if roundComplete(h.phase, h.seats, h.currentBet, h.acted, h.bbIndex, h.bbActed) {
		h.nextPhase(now)
		return
	}

	next := h.nextActing(h.currentToAct + 1)
	if next == -1 {
		// Nobody left who can act; run the remaining streets out.
		h.nextPhase(now)
		return
	}
	h.currentToAct = next
}

// nextPhase closes the betting round, deals the next street and positions the
// action left of the dealer. River closure resolves the showdown.
func (h *Hand) nextPhase(now time.Time) {
	if h.phase == PhaseRiver {
		h.resolveShowdown(now)
		return
	}

	for _, s := range h.seats {
		s.CurrentBet = decimal.Zero
	}
	h.currentBet = decimal.Zero
	h.acted = make(map[int]bool)
	h.lastAggressor = -1

	n := 3
	if h.phase != PhasePreflop {
		n = 1
	}
	cards, err := h.deck.Deal(n)
	if err != nil {
		// A fresh 52-card deck cannot exhaust over five community cards;
		// reaching this means corrupted deck state.
		panic(err)
	}
	h.community = append(h.community, cards...)
	h.phase++

	h.currentToAct = h.nextActing(h.dealerIndex + 1)
	if h.currentToAct == -1 {
		// Everyone contesting is all-in: auto-advance.
		h.nextPhase(now)
	}
}

// resolveShowdown evaluates every contesting hand, awards each pot layer to
// its best eligible hand and archives the hand record.
func (h *Hand) resolveShowdown(now time.Time) {
	order := h.showdownOrder()

	results := make(map[int]evaluator.Result, len(order))
	for _, idx := range order {
		s := h.seats[idx]
		res, err := evaluator.Evaluate(append(append([]deck.Card{}, s.HoleCards...), h.community...))
		if err != nil {
			panic(err)
		}
		results[idx] = res
	}

	totalPot := h.pot
	shares := make(map[int]decimal.Decimal)
	for _, p := range buildPots(h.seats) {
		h.awardPot(p, results, shares)
	}

	info := &WinnerInfo{
		Type:           WinShowdown,
		PotAmount:      totalPot,
		CommunityCards: deck.Strings(h.community),
		ShowdownOrder:  order,
	}
	for _, idx := range order {
		s := h.seats[idx]
		res := results[idx]
		info.AllHands = append(info.AllHands, ShownHand{
			SeatIndex:  idx,
			PlayerID:   s.PlayerID,
			PlayerName: s.DisplayName,
			HoleCards:  deck.Strings(s.HoleCards),
			HandName:   res.Name,
			BestFive:   deck.Strings(res.BestFive),
		})
		if amount, ok := shares[idx]; ok {
			info.Winners = append(info.Winners, WinnerShare{
				SeatIndex:  idx,
				PlayerID:   s.PlayerID,
				PlayerName: s.DisplayName,
				Amount:     amount,
				HandName:   res.Name,
			})
		}
	}

	h.finish(info, PhaseShowdown, now)
}

// awardPot pays one pot layer: the best hand among the eligible seats wins;
// exact ties split, with remainder cents going to the first winner clockwise
// of the dealer.
func (h *Hand) awardPot(p pot, results map[int]evaluator.Result, shares map[int]decimal.Decimal) {
	var winners []int
	for _, idx := range p.eligible {
		if len(winners) == 0 {
			winners = []int{idx}
			continue
		}
		cmp := evaluator.Compare(results[idx], results[winners[0]])
		switch {
		case cmp > 0:
			winners = []int{idx}
		case cmp == 0:
			winners = append(winners, idx)
		}
	}
	if len(winners) == 0 {
		return
	}

	k := decimal.NewFromInt(int64(len(winners)))
	share := p.amount.Div(k).Truncate(2)
	remainder := p.amount.Sub(share.Mul(k))

	first := h.firstClockwise(winners)
	for _, idx := range winners {
		amount := share
		if idx == first {
			amount = amount.Add(remainder)
		}
		h.seats[idx].Stack = h.seats[idx].Stack.Add(amount)
		shares[idx] = sharesGet(shares, idx).Add(amount)
	}
}

func sharesGet(m map[int]decimal.Decimal, idx int) decimal.Decimal {
	if v, ok := m[idx]; ok {
		return v
	}
	return decimal.Zero
}

// firstClockwise returns the member of idxs reached first going clockwise
// from the dealer.
func (h *Hand) firstClockwise(idxs []int) int {
	for i := 1; i <= len(h.seats); i++ {
		pos := (h.dealerIndex + i) % len(h.seats)
		for _, idx := range idxs {
			if idx == pos {
				return idx
			}
		}
	}
	return idxs[0]
}

// showdownOrder lists contesting seats in reveal order: the last river
// aggressor first, otherwise the first contesting seat clockwise of the
// dealer, then clockwise.
func (h *Hand) showdownOrder() []int {
	start := h.riverAggressor
	if start == -1 || !h.seats[start].InHand() {
		start = -1
		for i := 1; i <= len(h.seats); i++ {
			pos := (h.dealerIndex + i) % len(h.seats)
			if h.seats[pos].InHand() {
				start = pos
				break
			}
		}
	}

	var order []int
	for i := 0; i < len(h.seats); i++ {
		pos := (start + i) % len(h.seats)
		if h.seats[pos].InHand() {
			order = append(order, pos)
		}
	}
	return order
}

// resolveFoldOut awards the whole pot to the sole remaining seat.
func (h *Hand) resolveFoldOut(now time.Time) {
	var winner *Seat
	for _, s := range h.seats {
		if s.InHand() {
			winner = s
			break
		}
	}

	finalPhase := h.phase
	winner.Stack = winner.Stack.Add(h.pot)

	info := &WinnerInfo{
		Type:   WinSingleWinner,
		Reason: "All other players folded",
		Winners: []WinnerShare{{
			SeatIndex:  winner.Index,
			PlayerID:   winner.PlayerID,
			PlayerName: winner.DisplayName,
			Amount:     h.pot,
		}},
		PotAmount:      h.pot,
		CommunityCards: deck.Strings(h.community),
	}

	h.finish(info, finalPhase, now)
}

// finish archives the hand record, clears the pot and moves the table to
// WAITING_FOR_PLAYERS.
func (h *Hand) finish(info *WinnerInfo, finalPhase Phase, now time.Time) {
	// Only seats that still contest the pot have their cards archived;
	// folded cards stay mucked.
	holeCards := make(map[string][]string)
	for _, s := range h.seats {
		if s.InHand() {
			holeCards[s.PlayerID] = deck.Strings(s.HoleCards)
		}
	}

	h.winner = info
	h.record = &HandRecord{
		HandNumber:     h.handNumber,
		Pot:            info.PotAmount,
		FinalPhase:     finalPhase.String(),
		CommunityCards: deck.Strings(h.community),
		HoleCards:      holeCards,
		Actions:        append([]Action(nil), h.actions...),
		Winner:         info,
		CompletedAt:    now,
	}

	h.pot = decimal.Zero
	for _, s := range h.seats {
		s.CurrentBet = decimal.Zero
	}
	h.currentToAct = -1
	h.phase = PhaseWaiting
}

// eligibleIndices lists seats that can be dealt in, in index order.
func (h *Hand) eligibleIndices() []int {
	var out []int
	for _, s := range h.seats {
		if s.Eligible() {
			out = append(out, s.Index)
		}
	}
	return out
}

// nextEligible returns the first eligible seat clockwise of from.
func (h *Hand) nextEligible(from int) int {
	for i := 1; i <= len(h.seats); i++ {
		pos := (from + i) % len(h.seats)
		if h.seats[pos].Eligible() || h.seats[pos].InHand() {
			return pos
		}
	}
	return -1
}

// nextActing returns the first seat at or clockwise of from that may act.
func (h *Hand) nextActing(from int) int {
	n := len(h.seats)
	for i := 0; i < n; i++ {
		pos := ((from % n) + n + i) % n
		if h.seats[pos].CanAct() {
			return pos
		}
	}
	return -1
}

// contenders counts seats still contesting the pot.
func (h *Hand) contenders() int {
	n := 0
	for _, s := range h.seats {
		if s.InHand() {
			n++
		}
	}
	return n
}

// Complete reports whether the hand has been resolved and archived.
func (h *Hand) Complete() bool { return h.record != nil }

// Record returns the archived record of a completed hand, or nil.
func (h *Hand) Record() *HandRecord { return h.record }

// Winner returns the winner info of a completed hand, or nil.
func (h *Hand) Winner() *WinnerInfo { return h.winner }

// Phase returns the current phase.
func (h *Hand) Phase() Phase { return h.phase }

// Pot returns the chips committed so far.
func (h *Hand) Pot() decimal.Decimal { return h.pot }

// CurrentBet returns the outstanding bet to match this round.
func (h *Hand) CurrentBet() decimal.Decimal { return h.currentBet }

// CurrentToAct returns the acting seat index, or -1.
func (h *Hand) CurrentToAct() int { return h.currentToAct }

// DealerIndex returns the dealer button position.
func (h *Hand) DealerIndex() int { return h.dealerIndex }

// HandNumber returns the table-scoped hand counter value.
func (h *Hand) HandNumber() int { return h.handNumber }

// Community returns the community cards dealt so far.
func (h *Hand) Community() []deck.Card {
	return append([]deck.Card(nil), h.community...)
}

// Actions returns the append-only action log.
func (h *Hand) Actions() []Action {
	return append([]Action(nil), h.actions...)
}

// LastSeq returns the sequence number of the most recent action.
func (h *Hand) LastSeq() int { return h.seq }

// DeckRemaining exposes the undealt portion of the deck for invariant checks.
func (h *Hand) DeckRemaining() []deck.Card { return h.deck.Cards() }
