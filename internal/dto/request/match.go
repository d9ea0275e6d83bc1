package request

type MatchSectorRequest struct {
	SectorID int64   `json:"sectorId" validate:"required,gt=0"`
	Price    float64 `json:"price" validate:"required,gte=0.01,lte=9999999999.99"`
}

// CreateMatchRequest.Date is an RFC3339 timestamp, e.g. 2025-10-20T15:00:00Z.
type CreateMatchRequest struct {
	Date     string               `json:"date" validate:"required"`
	Location *string              `json:"location,omitempty" validate:"omitempty,max=200"`
	TeamA    string               `json:"teamA" validate:"required,max=100"`
	TeamB    string               `json:"teamB" validate:"required,max=100"`
	Sectors  []MatchSectorRequest `json:"sectors" validate:"required,min=1,dive"`
}
