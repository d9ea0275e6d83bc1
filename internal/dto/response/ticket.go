package response

import (
	"time"

	"stadium-ticketing/internal/data/entity"
)

type TicketResponse struct {
	ID         string        `json:"id"`
	MatchID    int64         `json:"matchId"`
	SectorID   int64         `json:"sectorId"`
	BuyerID    int64         `json:"buyerId"`
	CreatedAt  time.Time     `json:"createdAt"`
	Price      float64       `json:"price"`
	SectorName string        `json:"sectorName"`
	Match      MatchResponse `json:"match"`
}

type PurchaseResponse struct {
	Message string         `json:"message"`
	Ticket  TicketResponse `json:"ticket"`
}

type UserTicketResponse struct {
	ID         string    `json:"id"`
	MatchID    int64     `json:"matchId"`
	SectorID   int64     `json:"sectorId"`
	SectorName string    `json:"sectorName"`
	Price      float64   `json:"price"`
	MatchDate  time.Time `json:"matchDate"`
	TeamA      string    `json:"teamA"`
	TeamB      string    `json:"teamB"`
	CreatedAt  time.Time `json:"createdAt"`
}

func UserTicketsToResponse(tickets []*entity.TicketDetail) []UserTicketResponse {
	out := make([]UserTicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, UserTicketResponse{
			ID:         t.ID.String(),
			MatchID:    t.MatchID,
			SectorID:   t.SectorID,
			SectorName: t.SectorName,
			Price:      t.Price,
			MatchDate:  t.MatchDate,
			TeamA:      t.TeamA,
			TeamB:      t.TeamB,
			CreatedAt:  t.CreatedAt,
		})
	}
	return out
}
