package entity

import "time"

type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password"`
	Name         string    `db:"name"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}
