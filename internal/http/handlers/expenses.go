package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"expense-api/internal/config"
	"expense-api/internal/http/respond"
	"expense-api/internal/middleware"
	"expense-api/internal/models"
	"expense-api/internal/models/dto"
	"expense-api/internal/policy"
	"expense-api/internal/storage"
)

// ExpenseHandler implements list/create/read/update/delete over expense
// records. Lists and writes are scoped to the acting identity; reads,
// updates, and deletes consult the authorization policy on the fetched
// record before touching it.
type ExpenseHandler struct {
	store  storage.ExpenseStore
	policy policy.Policy
	cfg    *config.Config
}

// NewExpenseHandler constructs the handler.
func NewExpenseHandler(store storage.ExpenseStore, pol policy.Policy, cfg *config.Config) *ExpenseHandler {
	return &ExpenseHandler{store: store, policy: pol, cfg: cfg}
}

// Register attaches expense routes to the mux, all behind requireAuth.
func (h *ExpenseHandler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	guard := func(fn http.HandlerFunc) http.Handler { return requireAuth(fn) }
	mux.Handle("GET /expenses", guard(h.handleList))
	mux.Handle("POST /expenses", guard(h.handleCreate))
	mux.Handle("GET /expenses/{id}", guard(h.handleShow))
	mux.Handle("PUT /expenses/{id}", guard(h.handleUpdate))
	mux.Handle("PATCH /expenses/{id}", guard(h.handleUpdate))
	mux.Handle("DELETE /expenses/{id}", guard(h.handleDelete))
}

func (h *ExpenseHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	expenses, err := h.store.ListExpensesByOwner(r.Context(), identity.User.ID)
	if err != nil {
		log.Printf("list expenses error: %v", err)
		respond.Message(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	if len(expenses) == 0 {
		// Upstream treats an empty collection as an error. Kept behind a
		// compat flag so new deployments can opt into a plain empty list.
		if h.cfg.CompatEmptyList404 {
			respond.Message(w, http.StatusNotFound, "No expenses found.")
			return
		}
		expenses = []models.Expense{}
	}
	respond.JSON(w, http.StatusOK, map[string][]models.Expense{"expenses": expenses})
}

func (h *ExpenseHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	var req dto.CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "The request body must be valid JSON.")
		return
	}
	if errs := validateCreateExpense(req); len(errs) > 0 {
		respond.Invalid(w, errs)
		return
	}

	// Ownership comes from the token, never from the payload.
	expense := models.Expense{
		Title:       req.Title,
		Amount:      *req.Amount,
		Description: req.Description,
		UserID:      identity.User.ID,
	}
	if _, err := h.store.CreateExpense(r.Context(), expense); err != nil {
		log.Printf("create expense error: %v", err)
		respond.Message(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	respond.Message(w, http.StatusCreated, "Expense created successfully.")
}

func (h *ExpenseHandler) handleShow(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	expense, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !h.policy.Can(identity.User, policy.OpRead, expense) {
		h.denied(w)
		return
	}

	// The success payload is a single-element list wrapping the record under
	// an "expense" key. Odd, but clients depend on it.
	respond.JSON(w, http.StatusOK, []map[string]models.Expense{{"expense": expense}})
}

func (h *ExpenseHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	expense, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !h.policy.Can(identity.User, policy.OpUpdate, expense) {
		h.denied(w)
		return
	}

	var req dto.UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "The request body must be valid JSON.")
		return
	}
	if errs := validateUpdateExpense(req); len(errs) > 0 {
		respond.Invalid(w, errs)
		return
	}

	// Partial update: only supplied fields change, the owner never does.
	if req.Title != nil {
		expense.Title = *req.Title
	}
	if req.Amount != nil {
		expense.Amount = *req.Amount
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}

	if err := h.store.UpdateExpense(r.Context(), expense); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Message(w, http.StatusNotFound, "Expense not found.")
			return
		}
		log.Printf("update expense error: %v", err)
		respond.Message(w, http.StatusInternalServerError, "Something went wrong! Please try again.")
		return
	}
	respond.Message(w, http.StatusOK, "Expense updated successfully.")
}

func (h *ExpenseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	expense, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !h.policy.Can(identity.User, policy.OpDelete, expense) {
		h.denied(w)
		return
	}

	if err := h.store.DeleteExpense(r.Context(), expense.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Message(w, http.StatusNotFound, "Expense not found.")
			return
		}
		log.Printf("delete expense error: %v", err)
		respond.Message(w, http.StatusInternalServerError, "Something went wrong! Please try again.")
		return
	}
	respond.Message(w, http.StatusOK, "Expense deleted successfully.")
}

// fetch resolves the {id} path value to an expense, writing the 404 reply
// itself when the id is malformed or absent.
func (h *ExpenseHandler) fetch(w http.ResponseWriter, r *http.Request) (models.Expense, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respond.Message(w, http.StatusNotFound, "Expense not found.")
		return models.Expense{}, false
	}
	expense, err := h.store.FindExpenseByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Message(w, http.StatusNotFound, "Expense not found.")
			return models.Expense{}, false
		}
		log.Printf("fetch expense error: %v", err)
		respond.Message(w, http.StatusInternalServerError, "Something went wrong!")
		return models.Expense{}, false
	}
	return expense, true
}

// denied maps an authorization failure onto the wire. The upstream API
// folded these into a generic 500; the compat flag keeps that mapping until
// clients can handle a proper 403.
func (h *ExpenseHandler) denied(w http.ResponseWriter) {
	if h.cfg.CompatForbiddenAs500 {
		respond.Message(w, http.StatusInternalServerError, "Something went wrong! Please try again.")
		return
	}
	respond.Message(w, http.StatusForbidden, "This action is unauthorized.")
}

func validateCreateExpense(req dto.CreateExpenseRequest) map[string][]string {
	errs := map[string][]string{}
	if strings.TrimSpace(req.Title) == "" {
		errs["title"] = append(errs["title"], "The title field is required.")
	}
	switch {
	case req.Amount == nil:
		errs["expense"] = append(errs["expense"], "The expense field is required.")
	case *req.Amount < 0:
		errs["expense"] = append(errs["expense"], "The expense must be at least 0.")
	}
	if strings.TrimSpace(req.Description) == "" {
		errs["description"] = append(errs["description"], "The description field is required.")
	}
	return errs
}

func validateUpdateExpense(req dto.UpdateExpenseRequest) map[string][]string {
	errs := map[string][]string{}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		errs["title"] = append(errs["title"], "The title field is required.")
	}
	if req.Amount != nil && *req.Amount < 0 {
		errs["expense"] = append(errs["expense"], "The expense must be at least 0.")
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		errs["description"] = append(errs["description"], "The description field is required.")
	}
	return errs
}
