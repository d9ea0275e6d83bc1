package request

type BuyTicketRequest struct {
	MatchID  int64 `json:"matchId" validate:"required,gt=0"`
	SectorID int64 `json:"sectorId" validate:"required,gt=0"`
}
