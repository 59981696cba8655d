package ledger

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/redmonkez12/finance-tracker-api/internal/apperr"
	"github.com/redmonkez12/finance-tracker-api/internal/auth"
	"github.com/redmonkez12/finance-tracker-api/internal/httputil"
)

var ErrInvalidID = apperr.Validation(apperr.CodeInvalidID, "id must be a positive integer")

// Handler exposes one ledger as a REST collection
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// EntryRequest is the body of create and update. Amount accepts a JSON number or string.
type EntryRequest struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
}

// EntryResponse renders amount as a number with exactly two decimals
type EntryResponse struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	UserID      int64       `json:"user_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Routes registers the collection under the router it is mounted on.
// Every route expects RequireAuth to have run.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrMissingAuth)
		return
	}

	entries, err := h.service.List(r.Context(), userID)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	httputil.RespondJSON(w, r, resp, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrMissingAuth)
		return
	}

	var req EntryRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	entry, err := h.service.Create(r.Context(), userID, req.Description, req.Amount)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, r, toEntryResponse(entry), http.StatusCreated)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.identify(w, r)
	if !ok {
		return
	}

	entry, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, r, toEntryResponse(entry), http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req EntryRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	entry, err := h.service.Update(r.Context(), userID, id, req.Description, req.Amount)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, r, toEntryResponse(entry), http.StatusOK)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.identify(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// identify resolves the caller and the {id} path parameter, writing the error response itself
func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, auth.ErrMissingAuth)
		return 0, 0, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondError(w, r, ErrInvalidID)
		return 0, 0, false
	}

	return userID, id, true
}

func toEntryResponse(e *Entry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		Description: e.Description,
		Amount:      json.Number(e.Amount.StringFixed(amountScale)),
		UserID:      e.UserID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
