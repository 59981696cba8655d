package ledger

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/redmonkez12/finance-tracker-api/internal/apperr"
	"github.com/redmonkez12/finance-tracker-api/internal/logging"
)

const (
	maxDescriptionLength = 255
	// amountScale matches the NUMERIC(12,2) column
	amountScale = 2

	// Limits on the raw decimal checked before any rescaling. Round and LessThan
	// allocate 10^|exponent|, so "1e-20000000" must be refused from its metadata alone.
	minAmountExponent = -20
	maxAmountExponent = 10
	maxAmountBits     = 128
)

// maxAmount is the first value NUMERIC(12,2) cannot hold
var maxAmount = decimal.New(1, 10)

var (
	ErrDescriptionInvalid = apperr.Validation(apperr.CodeDescriptionInvalid,
		fmt.Sprintf("description is required and must be at most %d characters", maxDescriptionLength))
	ErrAmountRequired = apperr.Validation(apperr.CodeAmountInvalid, "amount is required")
	ErrAmountInvalid  = apperr.Validation(apperr.CodeAmountInvalid,
		fmt.Sprintf("amount must be non-negative, below %s and have at most %d decimal places", maxAmount.String(), amountScale))
)

// Store is the persistence the service depends on
type Store interface {
	List(ctx context.Context, userID int64) ([]*Entry, error)
	Get(ctx context.Context, userID, id int64) (*Entry, error)
	Create(ctx context.Context, userID int64, description string, amount decimal.Decimal) (*Entry, error)
	Update(ctx context.Context, userID, id int64, description string, amount decimal.Decimal) (*Entry, error)
	Delete(ctx context.Context, userID, id int64) error
}

// Service validates entry input and delegates to the store.
// userID always comes from the authenticated request, never from the payload.
type Service struct {
	store  Store
	kind   Kind
	logger *logging.Logger
}

func NewService(store Store, kind Kind, logger *logging.Logger) *Service {
	return &Service{store: store, kind: kind, logger: logger}
}

// Kind reports which ledger the service manages
func (s *Service) Kind() Kind {
	return s.kind
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Entry, error) {
	return s.store.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*Entry, error) {
	return s.store.Get(ctx, userID, id)
}

func (s *Service) Create(ctx context.Context, userID int64, description string, amount *decimal.Decimal) (*Entry, error) {
	description, value, err := validateEntry(description, amount)
	if err != nil {
		return nil, err
	}

	entry, err := s.store.Create(ctx, userID, description, value)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("entry created", "kind", s.kind, "id", entry.ID, "user_id", userID)
	return entry, nil
}

func (s *Service) Update(ctx context.Context, userID, id int64, description string, amount *decimal.Decimal) (*Entry, error) {
	description, value, err := validateEntry(description, amount)
	if err != nil {
		return nil, err
	}

	return s.store.Update(ctx, userID, id, description, value)
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Debug("entry deleted", "kind", s.kind, "id", id, "user_id", userID)
	return nil
}

func validateEntry(description string, amount *decimal.Decimal) (string, decimal.Decimal, error) {
	description = strings.TrimSpace(description)
	if description == "" || utf8.RuneCountInString(description) > maxDescriptionLength {
		return "", decimal.Decimal{}, ErrDescriptionInvalid
	}

	if amount == nil {
		return "", decimal.Decimal{}, ErrAmountRequired
	}
	value := *amount
	if exp := value.Exponent(); exp < minAmountExponent || exp > maxAmountExponent || value.Coefficient().BitLen() > maxAmountBits {
		return "", decimal.Decimal{}, ErrAmountInvalid
	}
	if value.IsNegative() || !value.Equal(value.Round(amountScale)) || !value.LessThan(maxAmount) {
		return "", decimal.Decimal{}, ErrAmountInvalid
	}

	return description, value, nil
}
