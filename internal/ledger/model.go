// Package ledger manages the per-user expense and asset entries.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/redmonkez12/finance-tracker-api/internal/apperr"
)

// Kind selects which ledger an entry belongs to
type Kind string

const (
	KindExpense Kind = "expense"
	KindAsset   Kind = "asset"
)

func (k Kind) table() string {
	if k == KindAsset {
		return "assets"
	}
	return "expenses"
}

var (
	ErrNotFound = apperr.New(apperr.KindNotFound, apperr.CodeEntryNotFound, "entry not found")
	// ErrForbidden is returned when the entry exists but belongs to another user
	ErrForbidden = apperr.New(apperr.KindAuthorization, apperr.CodeForbidden, "entry belongs to another user")
)

// Entry is one expense or asset owned by a user
type Entry struct {
	ID          int64
	UserID      int64
	Description string
	Amount      decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
