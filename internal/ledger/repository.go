package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/finance-tracker-api/internal/apperr"
	"github.com/redmonkez12/finance-tracker-api/internal/database"
)

// Repository persists entries of one kind. Every method is scoped to the owning user.
type Repository struct {
	db    bun.IDB
	kind  Kind
	table bun.Ident
	now   func() time.Time
}

func NewRepository(db bun.IDB, kind Kind) *Repository {
	return &Repository{db: db, kind: kind, table: bun.Ident(kind.table()), now: time.Now}
}

// List returns the user's entries, oldest first
func (r *Repository) List(ctx context.Context, userID int64) ([]*Entry, error) {
	var rows []database.Entry
	err := r.db.NewSelect().
		Model(&rows).
		ModelTableExpr("? AS e", r.table).
		Where("e.user_id = ?", userID).
		Order("e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Store(err, "list "+string(r.kind))
	}

	entries := make([]*Entry, 0, len(rows))
	for i := range rows {
		entries = append(entries, mapDBEntryToModel(&rows[i]))
	}
	return entries, nil
}

// Get returns ErrNotFound for an unknown id and ErrForbidden for another user's entry
func (r *Repository) Get(ctx context.Context, userID, id int64) (*Entry, error) {
	row := new(database.Entry)
	err := r.db.NewSelect().
		Model(row).
		ModelTableExpr("? AS e", r.table).
		Where("e.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.Store(err, "get "+string(r.kind))
	}

	if row.UserID != userID {
		return nil, ErrForbidden
	}
	return mapDBEntryToModel(row), nil
}

// Create stamps the entry with userID
func (r *Repository) Create(ctx context.Context, userID int64, description string, amount decimal.Decimal) (*Entry, error) {
	now := r.now().UTC()
	row := &database.Entry{
		UserID:      userID,
		Description: description,
		Amount:      amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.NewInsert().
		Model(row).
		ModelTableExpr("?", r.table).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, apperr.Store(err, "create "+string(r.kind))
	}

	return mapDBEntryToModel(row), nil
}

// Update replaces description and amount of an entry the user owns
func (r *Repository) Update(ctx context.Context, userID, id int64, description string, amount decimal.Decimal) (*Entry, error) {
	result, err := r.db.NewUpdate().
		Model((*database.Entry)(nil)).
		ModelTableExpr("?", r.table).
		Set("description = ?", description).
		Set("amount = ?", amount).
		Set("updated_at = ?", r.now().UTC()).
		Where("id = ? AND user_id = ?", id, userID).
		Exec(ctx)
	if err != nil {
		return nil, apperr.Store(err, "update "+string(r.kind))
	}

	if err := r.checkAffected(ctx, result, userID, id); err != nil {
		return nil, err
	}

	return r.Get(ctx, userID, id)
}

// Delete removes an entry the user owns
func (r *Repository) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.db.NewDelete().
		Model((*database.Entry)(nil)).
		ModelTableExpr("?", r.table).
		Where("id = ? AND user_id = ?", id, userID).
		Exec(ctx)
	if err != nil {
		return apperr.Store(err, "delete "+string(r.kind))
	}

	return r.checkAffected(ctx, result, userID, id)
}

// checkAffected explains a write that matched no row: the id is unknown or owned by someone else
func (r *Repository) checkAffected(ctx context.Context, result sql.Result, userID, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperr.Store(err, string(r.kind)+" rows affected")
	}
	if rowsAffected > 0 {
		return nil
	}

	var owner int64
	err = r.db.NewSelect().
		TableExpr("?", r.table).
		Column("user_id").
		Where("id = ?", id).
		Limit(1).
		Scan(ctx, &owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return apperr.Store(err, "lookup "+string(r.kind)+" owner")
	}
	if owner != userID {
		return ErrForbidden
	}
	return ErrNotFound
}

func mapDBEntryToModel(row *database.Entry) *Entry {
	return &Entry{
		ID:          row.ID,
		UserID:      row.UserID,
		Description: row.Description,
		Amount:      row.Amount,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
