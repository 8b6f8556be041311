package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"expense-api/internal/config"
	"expense-api/internal/server"
	"expense-api/internal/storage/sqlite"
)

// newTestServer mounts the production route tree (server.Handler, including
// CORS and request logging) on an in-memory sqlite store. mutate tweaks the
// default config before wiring.
func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		JWTSecret:            "test-secret",
		JWTIssuer:            "expense-api",
		JWTTTL:               time.Hour,
		CORSOrigins:          []string{"*"},
		CompatEmptyList404:   true,
		CompatForbiddenAs500: true,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	store, err := sqlite.New(":memory:")
	require.NoError(t, err, "init test store")
	t.Cleanup(store.Close)

	ts := httptest.NewServer(server.Handler(cfg, store))
	t.Cleanup(ts.Close)
	return ts
}

// doJSON sends a JSON request, optionally with a bearer token, and returns
// the status code and response body.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeMap(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

// registerUser creates an account and returns its bearer token.
func registerUser(t *testing.T, ts *httptest.Server, name, email, password string) string {
	t.Helper()
	status, raw := doJSON(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, "register: %s", raw)

	body := decodeMap(t, raw)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token, "register response missing token")
	return token
}

// createExpense posts a new expense for the token's user.
func createExpense(t *testing.T, ts *httptest.Server, token, title string, amount float64, description string) {
	t.Helper()
	status, raw := doJSON(t, ts, http.MethodPost, "/expenses", token, map[string]any{
		"title":       title,
		"expense":     amount,
		"description": description,
	})
	require.Equal(t, http.StatusCreated, status, "create expense: %s", raw)
}

// firstExpenseID lists the token's expenses and returns the id of the one
// with the given title.
func firstExpenseID(t *testing.T, ts *httptest.Server, token, title string) int64 {
	t.Helper()
	status, raw := doJSON(t, ts, http.MethodGet, "/expenses", token, nil)
	require.Equal(t, http.StatusOK, status, "list expenses: %s", raw)

	var body struct {
		Expenses []struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"expenses"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	for _, e := range body.Expenses {
		if e.Title == title {
			return e.ID
		}
	}
	t.Fatalf("no expense titled %q in %s", title, raw)
	return 0
}

func expensePath(id int64) string {
	return fmt.Sprintf("/expenses/%d", id)
}
