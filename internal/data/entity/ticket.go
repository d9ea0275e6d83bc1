package entity

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is append-only. Slot is its 1-based position within the sector's capacity.
type Ticket struct {
	ID        uuid.UUID `db:"id"`
	MatchID   int64     `db:"match_id"`
	SectorID  int64     `db:"sector_id"`
	BuyerID   int64     `db:"buyer_id"`
	Slot      int       `db:"slot"`
	CreatedAt time.Time `db:"created_at"`
}

// TicketDetail is a ticket joined with its match and sector for buyer history.
type TicketDetail struct {
	Ticket
	SectorName string    `db:"sector_name"`
	Price      float64   `db:"price"`
	MatchDate  time.Time `db:"match_date"`
	TeamA      string    `db:"team_a"`
	TeamB      string    `db:"team_b"`
}
