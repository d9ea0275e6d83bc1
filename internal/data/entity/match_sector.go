package entity

// MatchSector prices one sector for one match.
type MatchSector struct {
	MatchID  int64   `db:"match_id"`
	SectorID int64   `db:"sector_id"`
	Price    float64 `db:"price"`
}

// MatchSectorDetail is a pricing link joined with its sector.
type MatchSectorDetail struct {
	MatchSector
	SectorName string `db:"name"`
	Capacity   int    `db:"capacity"`
}
