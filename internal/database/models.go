package database

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// User is the persistence model for the users table
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

// Entry is the persistence model shared by the expenses and assets tables.
// It has no fixed table: queries name one with ModelTableExpr.
type Entry struct {
	bun.BaseModel `bun:"alias:e"`

	ID          int64           `bun:"id,pk,autoincrement"`
	UserID      int64           `bun:"user_id,notnull"`
	Description string          `bun:"description,notnull"`
	Amount      decimal.Decimal `bun:"amount,notnull"`
	CreatedAt   time.Time       `bun:"created_at,notnull"`
	UpdatedAt   time.Time       `bun:"updated_at,notnull"`
}
