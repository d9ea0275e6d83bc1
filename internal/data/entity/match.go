package entity

import "time"

type Match struct {
	ID        int64     `db:"id"`
	Date      time.Time `db:"date"`
	Location  *string   `db:"location"`
	TeamA     string    `db:"team_a"`
	TeamB     string    `db:"team_b"`
	CreatedAt time.Time `db:"created_at"`
}
