package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/app"
	envconfig "github.com/hirosato/construction-erp/internal/common/config"
	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/platform/memory"
)

func newTestServer(t *testing.T, secret string) *fiber.App {
	t.Helper()
	cfg := &envconfig.Config{
		StoreDriver:           envconfig.StoreMemory,
		DefaultCurrency:       "USD",
		ForecastHistoryMonths: 6,
		ForecastMonths:        3,
		JWTSecret:             secret,
	}
	return New(app.NewWithRepositories(cfg, app.MemoryRepositories(memory.New()), zap.NewNop()))
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    struct {
		RequestID string `json:"requestId"`
	} `json:"metadata"`
	Pagination *struct {
		Total int `json:"total"`
	} `json:"pagination"`
}

func do(t *testing.T, server *fiber.App, method, path, body string, headers ...string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func createAccount(t *testing.T, server *fiber.App, code, typ string) string {
	t.Helper()
	status, env := do(t, server, http.MethodPost, "/api/finance/accounts",
		`{"accountCode":"`+code+`","accountName":"Account `+code+`","accountType":"`+typ+`"}`)
	require.Equal(t, http.StatusCreated, status, env.Error)
	var acc struct {
		AccountID string `json:"accountId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &acc))
	return acc.AccountID
}

func TestServer_LedgerFlow(t *testing.T) {
	// Setup
	server := newTestServer(t, "")
	cash := createAccount(t, server, "1000", "Asset")
	revenue := createAccount(t, server, "4000", "Revenue")

	// Act
	status, env := do(t, server, http.MethodPost, "/api/finance/journal-entries", `{
		"entryNumber": "JE-1",
		"entryDate": "2025-05-01",
		"description": "Milestone billing",
		"lines": [
			{"accountId": "`+cash+`", "debit": "800"},
			{"accountId": "`+revenue+`", "credit": "800"}
		]
	}`, "X-Actor-Id", "clerk-1")
	require.Equal(t, http.StatusCreated, status, env.Error)
	var entry struct {
		JournalEntryID string `json:"journalEntryId"`
		CreatedBy      string `json:"createdBy"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entry))

	postStatus, _ := do(t, server, http.MethodPost, "/api/finance/journal-entries/"+entry.JournalEntryID+"/post", "")
	againStatus, again := do(t, server, http.MethodPost, "/api/finance/journal-entries/"+entry.JournalEntryID+"/post", "")

	// Assert
	assert.Equal(t, "clerk-1", entry.CreatedBy)
	assert.Equal(t, http.StatusOK, postStatus)
	assert.Equal(t, http.StatusConflict, againStatus)
	assert.Equal(t, "ALREADY_POSTED", again.Error)
	assert.False(t, again.Success)
	assert.NotEmpty(t, again.Meta.RequestID)

	_, list := do(t, server, http.MethodGet, "/api/finance/journal-entries?status=Posted", "")
	require.NotNil(t, list.Pagination)
	assert.Equal(t, 1, list.Pagination.Total)

	_, sheet := do(t, server, http.MethodGet, "/api/finance/reports/balance-sheet?asOfDate=2025-05-31", "")
	assert.True(t, sheet.Success)
}

func TestServer_Errors(t *testing.T) {
	server := newTestServer(t, "")

	t.Run("unbalanced entry", func(t *testing.T) {
		cash := createAccount(t, server, "1100", "Asset")
		status, env := do(t, server, http.MethodPost, "/api/finance/journal-entries", `{
			"entryNumber": "JE-X",
			"entryDate": "2025-05-01",
			"description": "Bad",
			"lines": [
				{"accountId": "`+cash+`", "debit": "10"},
				{"accountId": "`+cash+`", "credit": "5"}
			]
		}`)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "UNBALANCED_ENTRY", env.Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		status, env := do(t, server, http.MethodPost, "/api/invoices", `{"subtotal":`)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "INVALID_INPUT", env.Error)
	})

	t.Run("unknown route", func(t *testing.T) {
		status, env := do(t, server, http.MethodGet, "/api/nowhere", "")

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", env.Error)
	})

	t.Run("unknown aging type", func(t *testing.T) {
		status, _ := do(t, server, http.MethodGet, "/api/invoices/aging/sideways", "")

		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("forecast months out of range", func(t *testing.T) {
		status, _ := do(t, server, http.MethodGet, "/api/insights/cash-flow-forecast?months=48", "")

		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestServer_InvoicePayments(t *testing.T) {
	// Setup
	server := newTestServer(t, "")
	status, env := do(t, server, http.MethodPost, "/api/invoices", `{
		"invoiceNumber": "AR-1",
		"invoiceType": "Receivable",
		"customerId": "C-1",
		"invoiceDate": "2025-04-01",
		"dueDate": "2025-04-30",
		"subtotal": "500",
		"status": "Sent"
	}`)
	require.Equal(t, http.StatusCreated, status, env.Error)
	var inv struct {
		InvoiceID string `json:"invoiceId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inv))
	path := "/api/invoices/" + inv.InvoiceID + "/payments"

	// Act
	overStatus, over := do(t, server, http.MethodPost, path, `{"amount":"600","paymentMethod":"check","paymentDate":"2025-04-10"}`)
	paidStatus, paid := do(t, server, http.MethodPost, path, `{"amount":"500","paymentMethod":"check","paymentDate":"2025-04-10"}`)

	// Assert
	assert.Equal(t, http.StatusConflict, overStatus)
	assert.Equal(t, "OVERPAYMENT_REJECTED", over.Error)
	require.Equal(t, http.StatusCreated, paidStatus, paid.Error)
	var result struct {
		Invoice struct {
			Status string `json:"status"`
		} `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(paid.Data, &result))
	assert.Equal(t, "Paid", result.Invoice.Status)
}

func TestServer_BearerTokenRequiredWithSecret(t *testing.T) {
	secret := "s3cret"
	server := newTestServer(t, secret)

	t.Run("missing token", func(t *testing.T) {
		status, env := do(t, server, http.MethodGet, "/api/projects", "")

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "AUTHENTICATION_ERROR", env.Error)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := utils.SignJWT(utils.ActorClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "pm-7",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, []byte(secret))
		require.NoError(t, err)

		status, env := do(t, server, http.MethodPost, "/api/projects",
			`{"projectCode":"P-1","projectName":"Tower","budget":"100000"}`,
			"Authorization", "Bearer "+token)

		require.Equal(t, http.StatusCreated, status, env.Error)
		var p struct {
			CreatedBy string `json:"createdBy"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &p))
		assert.Equal(t, "pm-7", p.CreatedBy)
	})
}
