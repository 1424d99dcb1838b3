package table

import (
	"github.com/shopspring/decimal"

	"github.com/Palmergill/poker-app/internal/deck"
	"github.com/Palmergill/poker-app/internal/game"
)

// recentActionCap bounds the action tail carried on snapshots.
const recentActionCap = 20

// HoleCards is a seat's private cards, tagged with the owning player.
type HoleCards struct {
	Cards   []string `json:"cards"`
	OwnerID string   `json:"ownerId"`
}

// PlayerView is one seat as rendered on a snapshot.
type PlayerView struct {
	SeatIndex     int              `json:"seatIndex"`
	PlayerID      string           `json:"playerId"`
	DisplayName   string           `json:"displayName"`
	Stack         decimal.Decimal  `json:"stack"`
	StartingStack decimal.Decimal  `json:"startingStack"`
	FinalStack    *decimal.Decimal `json:"finalStack,omitempty"`
	State         string           `json:"state"`
	CurrentBet    decimal.Decimal  `json:"currentBet"`
	TotalBet      decimal.Decimal  `json:"totalBet"`
	ReadyForNext  bool             `json:"readyForNext"`
	HoleCards     *HoleCards       `json:"holeCards,omitempty"`
}

// Snapshot is the authoritative view of a table, rendered for one viewer.
// Decimals serialize as strings; hole cards appear only for the viewer's own
// seat, with showdown reveals carried on winnerInfo.
type Snapshot struct {
	TableID        string           `json:"tableId"`
	Name           string           `json:"name"`
	Status         string           `json:"status"`
	Phase          string           `json:"phase"`
	HandNumber     int              `json:"handNumber"`
	Pot            decimal.Decimal  `json:"pot"`
	CurrentBet     decimal.Decimal  `json:"currentBet"`
	SmallBlind     decimal.Decimal  `json:"smallBlind"`
	BigBlind       decimal.Decimal  `json:"bigBlind"`
	DealerIndex    int              `json:"dealerIndex"`
	CurrentToAct   int              `json:"currentToAct"`
	CommunityCards []string         `json:"communityCards"`
	Players        []PlayerView     `json:"players"`
	RecentActions  []game.Action    `json:"recentActions"`
	WinnerInfo     *game.WinnerInfo `json:"winnerInfo,omitempty"`
	GameSummary    *GameSummary     `json:"gameSummary,omitempty"`
}

// snapshotFor assembles the table view for one viewer. Must be called under
// the mutator.
func (c *Controller) snapshotFor(viewerID string) *Snapshot {
	snap := &Snapshot{
		TableID:        c.table.ID,
		Name:           c.table.Name,
		Status:         c.status(),
		Phase:          game.PhaseWaiting.String(),
		Pot:            decimal.Zero,
		CurrentBet:     decimal.Zero,
		SmallBlind:     c.table.SmallBlind,
		BigBlind:       c.table.BigBlind,
		DealerIndex:    c.dealerIndex,
		CurrentToAct:   -1,
		CommunityCards: []string{},
		GameSummary:    c.summary,
	}

	if c.hand != nil {
		snap.Phase = c.hand.Phase().String()
		snap.HandNumber = c.hand.HandNumber()
		snap.Pot = c.hand.Pot()
		snap.CurrentBet = c.hand.CurrentBet()
		snap.DealerIndex = c.hand.DealerIndex()
		snap.CurrentToAct = c.hand.CurrentToAct()
		snap.CommunityCards = deck.Strings(c.hand.Community())
		snap.WinnerInfo = c.hand.Winner()

		actions := c.hand.Actions()
		if len(actions) > recentActionCap {
			actions = actions[len(actions)-recentActionCap:]
		}
		snap.RecentActions = actions
	}
	if snap.RecentActions == nil {
		snap.RecentActions = []game.Action{}
	}

	for _, s := range c.seats {
		pv := PlayerView{
			SeatIndex:     s.Index,
			PlayerID:      s.PlayerID,
			DisplayName:   s.DisplayName,
			Stack:         s.Stack,
			StartingStack: s.StartingStack,
			FinalStack:    s.FinalStack,
			State:         seatState(s, c.hand),
			CurrentBet:    s.CurrentBet,
			TotalBet:      s.TotalBet,
			ReadyForNext:  s.ReadyForNext,
		}
		if s.PlayerID == viewerID && len(s.HoleCards) > 0 {
			pv.HoleCards = &HoleCards{Cards: deck.Strings(s.HoleCards), OwnerID: s.PlayerID}
		}
		snap.Players = append(snap.Players, pv)
	}

	return snap
}

// seatState reports the seat's state vocabulary: table-level status for
// inactive seats, hand-level status while a hand is being contested.
func seatState(s *game.Seat, h *game.Hand) string {
	if s.Status != game.SeatActive {
		return s.Status.String()
	}
	if h != nil && h.Phase() != game.PhaseWaiting {
		switch {
		case s.Folded:
			return "FOLDED"
		case s.AllIn:
			return "ALL_IN"
		case s.InHand():
			return "ACTIVE_IN_HAND"
		default:
			return "SITTING_OUT"
		}
	}
	return s.Status.String()
}
