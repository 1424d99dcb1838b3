package game

import (
	"time"

	"github.com/shopspring/decimal"
)

// Winner info types.
const (
	WinShowdown     = "showdown"
	WinSingleWinner = "single_winner"
)

// Action is one applied player action, append-only within a hand.
type Action struct {
	Seq        int             `json:"seq"`
	SeatIndex  int             `json:"seatIndex"`
	PlayerName string          `json:"playerName"`
	Kind       string          `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Phase      string          `json:"phase"`
	At         time.Time       `json:"ts"`
}

// WinnerShare is one seat's total winnings for a hand.
type WinnerShare struct {
	SeatIndex  int             `json:"seatIndex"`
	PlayerID   string          `json:"playerId"`
	PlayerName string          `json:"playerName"`
	Amount     decimal.Decimal `json:"winningAmount"`
	HandName   string          `json:"handName,omitempty"`
}

// ShownHand is a revealed hand at showdown.
type ShownHand struct {
	SeatIndex  int      `json:"seatIndex"`
	PlayerID   string   `json:"playerId"`
	PlayerName string   `json:"playerName"`
	HoleCards  []string `json:"holeCards"`
	HandName   string   `json:"handName"`
	BestFive   []string `json:"bestFive"`
}

// WinnerInfo summarises how a completed hand was decided. It is surfaced on
// snapshots until the next hand is dealt.
type WinnerInfo struct {
	Type           string          `json:"type"`
	Reason         string          `json:"reason,omitempty"`
	Winners        []WinnerShare   `json:"winners"`
	PotAmount      decimal.Decimal `json:"potAmount"`
	CommunityCards []string        `json:"communityCards"`
	ShowdownOrder  []int           `json:"showdownOrder,omitempty"`
	AllHands       []ShownHand     `json:"allHands,omitempty"`
}

// HandRecord is the immutable archive of one completed hand.
type HandRecord struct {
	HandNumber     int                 `json:"handNumber"`
	Pot            decimal.Decimal     `json:"potAmount"`
	FinalPhase     string              `json:"finalPhase"`
	CommunityCards []string            `json:"communityCards"`
	HoleCards      map[string][]string `json:"holeCards"` // playerID -> cards
	Actions        []Action            `json:"actions"`
	Winner         *WinnerInfo         `json:"winnerInfo"`
	CompletedAt    time.Time           `json:"completedAt"`
}
