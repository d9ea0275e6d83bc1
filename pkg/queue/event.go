// Package queue carries ticket events over RabbitMQ.
package queue

import "time"

// TicketPurchasedEvent is published after a purchase commits.
type TicketPurchasedEvent struct {
	TicketID   string    `json:"ticketId"`
	MatchID    int64     `json:"matchId"`
	SectorID   int64     `json:"sectorId"`
	SectorName string    `json:"sectorName"`
	BuyerID    int64     `json:"buyerId"`
	Price      float64   `json:"price"`
	Slot       int       `json:"slot"`
	CreatedAt  time.Time `json:"createdAt"`
}
