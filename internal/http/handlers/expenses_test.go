package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-api/internal/config"
)

func TestListRequiresAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	status, raw := doJSON(t, ts, http.MethodGet, "/expenses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthenticated.", decodeMap(t, raw)["message"])
}

func TestListEmptyIs404(t *testing.T) {
	ts := newTestServer(t, nil)
	token := registerUser(t, ts, "J", "j@x.com", "secret123")

	status, raw := doJSON(t, ts, http.MethodGet, "/expenses", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No expenses found.", decodeMap(t, raw)["message"])
}

func TestListEmptyIs200WhenCompatDisabled(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) { cfg.CompatEmptyList404 = false })
	token := registerUser(t, ts, "J", "j@x.com", "secret123")

	status, raw := doJSON(t, ts, http.MethodGet, "/expenses", token, nil)
	require.Equal(t, http.StatusOK, status, "body: %s", raw)

	var body struct {
		Expenses []json.RawMessage `json:"expenses"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.NotNil(t, body.Expenses)
	assert.Empty(t, body.Expenses)
}

func TestCreateThenListReturnsOwnedRecord(t *testing.T) {
	ts := newTestServer(t, nil)
	token := registerUser(t, ts, "J", "j@x.com", "secret123")

	createExpense(t, ts, token, "groceries", 42.50, "weekly shop")

	status, raw := doJSON(t, ts, http.MethodGet, "/expenses", token, nil)
	require.Equal(t, http.StatusOK, status, "body: %s", raw)

	var body struct {
		Expenses []struct {
			ID          int64   `json:"id"`
			Title       string  `json:"title"`
			Amount      float64 `json:"expense"`
			Description string  `json:"description"`
			UserID      int64   `json:"user_id"`
		} `json:"expenses"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Expenses, 1)
	got := body.Expenses[0]
	assert.Equal(t, "groceries", got.Title)
	assert.Equal(t, 42.50, got.Amount)
	assert.Equal(t, "weekly shop", got.Description)
	assert.NotZero(t, got.UserID)
}

func TestListNeverLeaksOtherUsersExpenses(t *testing.T) {
	ts := newTestServer(t, nil)
	alice := registerUser(t, ts, "Alice", "alice@x.com", "secret123")
	bob := registerUser(t, ts, "Bob", "bob@x.com", "secret123")

	createExpense(t, ts, alice, "groceries", 42.50, "weekly shop")

	status, raw := doJSON(t, ts, http.MethodGet, "/expenses", bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No expenses found.", decodeMap(t, raw)["message"])
}

func TestCreateValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	token := registerUser(t, ts, "J", "j@x.com", "secret123")

	tests := []struct {
		name    string
		payload map[string]any
		field   string
	}{
		{"missing title", map[string]any{"expense": 10, "description": "d"}, "title"},
		{"blank title", map[string]any{"title": "  ", "expense": 10, "description": "d"}, "title"},
		{"missing amount", map[string]any{"title": "t", "description": "d"}, "expense"},
		{"negative amount", map[string]any{"title": "t", "expense": -1, "description": "d"}, "expense"},
		{"missing description", map[string]any{"title": "t", "expense": 10}, "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := doJSON(t, ts, http.MethodPost, "/expenses", token, tt.payload)
			require.Equal(t, http.StatusUnprocessableEntity, status, "body: %s", raw)

			body := decodeMap(t, raw)
			assert.Equal(t, "The given data was invalid.", body["message"])
			errs, _ := body["errors"].(map[string]any)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestCreateIgnoresClientSuppliedOwner(t *testing.T) {
	ts := newTestServer(t, nil)
	alice := registerUser(t, ts, "Alice", "alice@x.com", "secret123")
	registerUser(t, ts, "Bob", "bob@x.com", "secret123")

	status, raw := doJSON(t, ts, http.MethodPost, "/expenses", alice, map[string]any{
		"title":       "sneaky",
		"expense":     5,
		"description": "owner spoof attempt",
		"user_id":     2,
	})
	require.Equal(t, http.StatusCreated, status, "body: %s", raw)

	// The record lands under Alice regardless of the payload's user_id.
	id := firstExpenseID(t, ts, alice, "sneaky")
	assert.NotZero(t, id)
}

func TestShowWrapsRecordInSingleElementList(t *testing.T) {
	ts := newTestServer(t, nil)
	token := registerUser(t, ts, "J", "j@x.com", "secret123")
	createExpense(t, ts, token, "groceries", 42.50, "weekly shop")
	id := firstExpenseID(t, ts, token, "groceries")

	status, raw := doJSON(t, ts, http.MethodGet, expensePath(id), token, nil)
	require.Equal(t, http.StatusOK, status, "body: %s", raw)

	var body []map[string]struct {
		ID     int64   `json:"id"`
		Title  string  `json:"title"`
		Amount float64 `json:"expense"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body, 1)
	record, ok := body[0]["expense"]
	require.True(t, ok, "payload must nest the record under an expense key")
	assert.Equal(t, id, record.ID)
	assert.Equal(t, "groceries", record.Title)
	assert.Equal(t, 42.50, record.Amount)
}

func TestShowMissingExpense(t *testing.T) {
	ts := newTestServer(t, nil)
	token := registerUser(t, ts, "J", "j@x.com", "secret123")

	status, raw := doJSON(t, ts, http.MethodGet, "/expenses/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Expense not found.", decodeMap(t, raw)["message"])
}

// Upstream behavior: single-record reads skip the ownership check, so any
// authenticated user can fetch any expense by id.
func TestShowAllowsNonOwnerByDefault(t *testing.T) {
	ts := newTestServer(t, nil)
	alice := registerUser(t, ts, "Alice", "alice@x.com", "secret123")
	bob := registerUser(t, ts, "Bob", "bob@x.com", "secret123")
	createExpense(t, ts, alice, "groceries", 42.50, "weekly shop")
	id := firstExpenseID(t, ts, alice, "groceries")

	status, _ := doJSON(t, ts, http.MethodGet, expensePath(id), bob, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestShowDeniesNonOwnerWhenEnforced(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.EnforceReadOwnership = true
		cfg.CompatForbiddenAs500 = false
	})
	alice := registerUser(t, ts, "Alice", "alice@x.com", "secret123")
	bob := registerUser(t, ts, "Bob", "bob@x.com", "secret123")
	createExpense(t, ts, alice, "groceries", 42.50, "weekly shop")
	id := firstExpenseID(t, ts, alice, "groceries")

	status, raw := doJSON(t, ts, http.MethodGet, expensePath(id), bob, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "This action is unauthorized.", decodeMap(t, raw)["message"])

	status, _ = doJSON(t, ts, http.MethodGet, expensePath(id), alice, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUpdatePartialFields(t *testing.T) {
	ts := newTestServer(t, nil)
	token := registerUser(t, ts, "J", "j@x.com", "secret123")
	createExpense(t, ts, token, "groceries", 42.50, "weekly shop")
	id := firstExpenseID(t, ts, token, "groceries")

	status, raw := doJSON(t, ts, http.MethodPatch, expensePath(id), token, map[string]any{
		"title": "monthly groceries",
	})
	require.Equal(t, http.StatusOK, status, "body: %s", raw)
	assert.Equal(t, "Expense updated successfully.", decodeMap(t, raw)["message"])

	// Unsent fields keep their values.
	status, raw = doJSON(t, ts, http.MethodGet, expensePath(id), token, nil)
	require.Equal(t, http.StatusOK, status)

	var body []map[string]struct {
		Title       string  `json:"title"`
		Amount      float64 `json:"expense"`
		Description string  `json:"description"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body, 1)
	assert.Equal(t, "monthly groceries", body[0]["expense"].Title)
	assert.Equal(t, 42.50, body[0]["expense"].Amount)
	assert.Equal(t, "weekly shop", body[0]["expense"].Description)
}

func TestUpdateMissingExpense(t *testing.T) {
	ts := newTestServer(t, nil)
	token := registerUser(t, ts, "J", "j@x.com", "secret123")

	status, raw := doJSON(t, ts, http.MethodPut, "/expenses/9999", token, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Expense not found.", decodeMap(t, raw)["message"])
}

// Upstream folds the ownership denial into a generic 500; the default
// config reproduces that mapping.
func TestUpdateByNonOwnerCompat500(t *testing.T) {
	ts := newTestServer(t, nil)
	alice := registerUser(t, ts, "Alice", "alice@x.com", "secret123")
	bob := registerUser(t, ts, "Bob", "bob@x.com", "secret123")
	createExpense(t, ts, alice, "groceries", 42.50, "weekly shop")
	id := firstExpenseID(t, ts, alice, "groceries")

	status, raw := doJSON(t, ts, http.MethodPut, expensePath(id), bob, map[string]any{"title": "hijack"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Something went wrong! Please try again.", decodeMap(t, raw)["message"])
}

func TestUpdateByNonOwnerForbiddenWhenCompatDisabled(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) { cfg.CompatForbiddenAs500 = false })
	alice := registerUser(t, ts, "Alice", "alice@x.com", "secret123")
	bob := registerUser(t, ts, "Bob", "bob@x.com", "secret123")
	createExpense(t, ts, alice, "groceries", 42.50, "weekly shop")
	id := firstExpenseID(t, ts, alice, "groceries")

	status, raw := doJSON(t, ts, http.MethodPut, expensePath(id), bob, map[string]any{"title": "hijack"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "This action is unauthorized.", decodeMap(t, raw)["message"])
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t, nil)
	token := registerUser(t, ts, "J", "j@x.com", "secret123")
	createExpense(t, ts, token, "groceries", 42.50, "weekly shop")
	id := firstExpenseID(t, ts, token, "groceries")

	status, raw := doJSON(t, ts, http.MethodDelete, expensePath(id), token, nil)
	require.Equal(t, http.StatusOK, status, "body: %s", raw)
	assert.Equal(t, "Expense deleted successfully.", decodeMap(t, raw)["message"])

	// Gone from reads and from subsequent lists.
	status, _ = doJSON(t, ts, http.MethodGet, expensePath(id), token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, ts, http.MethodGet, "/expenses", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteMissingExpense(t *testing.T) {
	ts := newTestServer(t, nil)
	token := registerUser(t, ts, "J", "j@x.com", "secret123")

	status, raw := doJSON(t, ts, http.MethodDelete, "/expenses/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Expense not found.", decodeMap(t, raw)["message"])
}

func TestDeleteByNonOwnerCompat500(t *testing.T) {
	ts := newTestServer(t, nil)
	alice := registerUser(t, ts, "Alice", "alice@x.com", "secret123")
	bob := registerUser(t, ts, "Bob", "bob@x.com", "secret123")
	createExpense(t, ts, alice, "groceries", 42.50, "weekly shop")
	id := firstExpenseID(t, ts, alice, "groceries")

	status, raw := doJSON(t, ts, http.MethodDelete, expensePath(id), bob, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Something went wrong! Please try again.", decodeMap(t, raw)["message"])

	// The record survives the denied delete.
	status, _ = doJSON(t, ts, http.MethodGet, expensePath(id), alice, nil)
	assert.Equal(t, http.StatusOK, status)
}
