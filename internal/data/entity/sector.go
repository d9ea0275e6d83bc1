package entity

import "time"

// Sector is reference data shared across matches.
type Sector struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Capacity  int       `db:"capacity"`
	CreatedAt time.Time `db:"created_at"`
}
