package table

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeatSummary is one seat's final accounting for a completed game.
type SeatSummary struct {
	SeatIndex     int             `json:"seatIndex"`
	PlayerID      string          `json:"playerId"`
	PlayerName    string          `json:"playerName"`
	StartingStack decimal.Decimal `json:"startingStack"`
	FinalStack    decimal.Decimal `json:"finalStack"`
	Net           decimal.Decimal `json:"net"`
	Status        string          `json:"status"`
}

// GameSummary is the terminal record of a table's session, produced exactly
// once when every seat has a final stack.
type GameSummary struct {
	TableID     string        `json:"tableId"`
	CompletedAt time.Time     `json:"completedAt"`
	HandsPlayed int           `json:"handsPlayed"`
	Players     []SeatSummary `json:"players"`
}

// buildSummary assembles the terminal summary from the current seats. Must be
// called under the mutator, after every seat's final stack is set.
func (c *Controller) buildSummary(now time.Time) *GameSummary {
	summary := &GameSummary{
		TableID:     c.table.ID,
		CompletedAt: now,
		HandsPlayed: c.handNumber,
	}
	for _, s := range c.seats {
		final := s.Stack
		if s.FinalStack != nil {
			final = *s.FinalStack
		}
		summary.Players = append(summary.Players, SeatSummary{
			SeatIndex:     s.Index,
			PlayerID:      s.PlayerID,
			PlayerName:    s.DisplayName,
			StartingStack: s.StartingStack,
			FinalStack:    final,
			Net:           final.Sub(s.StartingStack),
			Status:        s.Status.String(),
		})
	}
	return summary
}
