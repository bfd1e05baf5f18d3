package customers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _, _ := newTestService(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/api/customers", h.MountRoutes)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndLedgerFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/customers", `{"customerName":"Iota","amount":"250","debitCredit":"Debit"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "CUST001", created.SerialNumber)
	assert.Equal(t, 250.0, created.TotalBalance)

	rec = doRequest(t, router, http.MethodPost, "/api/customers/"+created.ID.String()+"/ledger",
		`{"date":"2024-02-10","particulars":"Payment","creditAmount":100}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var withEntry Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &withEntry))
	require.Len(t, withEntry.Ledger, 2)
	assert.Equal(t, 150.0, withEntry.TotalBalance)

	rec = doRequest(t, router, http.MethodDelete, "/api/customers/"+created.ID.String()+"/ledger/"+withEntry.Ledger[1].ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/customers?includeStats=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed ListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Customers, 1)
	assert.Equal(t, 250.0, listed.Stats.TotalDebit)

	rec = doRequest(t, router, http.MethodDelete, "/api/customers/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Customer deleted successfully"}`, rec.Body.String())
}

func TestHandlerErrors(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/customers/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Customer not found")

	rec = doRequest(t, router, http.MethodPost, "/api/customers", `{"phoneNumber":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "customerName")

	rec = doRequest(t, router, http.MethodPost, "/api/customers", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
