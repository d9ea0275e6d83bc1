package response

import "stadium-ticketing/internal/data/entity"

type SectorResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func SectorToResponse(s *entity.Sector) SectorResponse {
	return SectorResponse{ID: s.ID, Name: s.Name, Capacity: s.Capacity}
}

func SectorsToResponse(sectors []*entity.Sector) []SectorResponse {
	out := make([]SectorResponse, 0, len(sectors))
	for _, s := range sectors {
		out = append(out, SectorToResponse(s))
	}
	return out
}
