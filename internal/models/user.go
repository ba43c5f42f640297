package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID   int64  `json:"sub"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
