package response

import (
	"time"

	"stadium-ticketing/internal/data/entity"
)

type MatchResponse struct {
	ID       int64     `json:"id"`
	Date     time.Time `json:"date"`
	Location *string   `json:"location"`
	TeamA    string    `json:"teamA"`
	TeamB    string    `json:"teamB"`
}

type MatchSectorPriceResponse struct {
	SectorID int64   `json:"sectorId"`
	Name     string  `json:"name"`
	Capacity int     `json:"capacity"`
	Price    float64 `json:"price"`
}

// MatchCreatedResponse is returned after a match and its pricing links persist.
type MatchCreatedResponse struct {
	MatchResponse
	Sectors []MatchSectorPriceResponse `json:"sectors"`
}

// SectorStatus is one sector line of a match summary.
type SectorStatus struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	SoldOut bool    `json:"soldOut"`
}

type MatchSummaryResponse struct {
	MatchResponse
	Sectors []SectorStatus `json:"sectors"`
}

func MatchToResponse(m *entity.Match) MatchResponse {
	return MatchResponse{
		ID:       m.ID,
		Date:     m.Date,
		Location: m.Location,
		TeamA:    m.TeamA,
		TeamB:    m.TeamB,
	}
}

func MatchesToResponse(matches []*entity.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchToResponse(m))
	}
	return out
}
