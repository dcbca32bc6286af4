package api

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/mobile-money-parser/internal/models"
	"github.com/insightdelivered/mobile-money-parser/internal/samples"
)

func setupTestApp(t *testing.T, staticDir string) *fiber.App {
	t.Helper()
	h := NewHandler(nil, zerolog.Nop(), staticDir)
	return NewApp(h, 4*1024)
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func parseBody(message string, combined bool) string {
	b, _ := json.Marshal(ParseRequest{Message: message, Combined: combined})
	return string(b)
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t, "")

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	require.NoError(t, json.Unmarshal(body, &result))

	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "fiber", result["engine"])
	assert.Equal(t, Version, result["version"])
}

func TestParseEndpoint(t *testing.T) {
	app := setupTestApp(t, "")

	tests := []struct {
		name         string
		sample       string
		combined     bool
		wantSuccess  bool
		wantProvider models.Provider
		wantAmount   string
	}{
		{"mpesa payment", samples.MpesaPayment, false, true, models.ProviderMpesa, "500"},
		{"airtel send", samples.AirtelSend, false, true, models.ProviderAirtel, "500"},
		{"bank credit", samples.BankCredit, false, true, models.ProviderBank, "25000"},
		{"combined till", samples.BankToTillCombined, true, true, models.ProviderBank, "8247"},
		{"combined flag on single message falls back", samples.MpesaSend, true, true, models.ProviderMpesa, "1000"},
		{"unrecognized", samples.Unrecognized, false, false, models.ProviderUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := doJSON(t, app, "POST", "/api/parse", parseBody(samples.MustGet(tt.sample).Message, tt.combined))
			require.Equal(t, fiber.StatusOK, status, string(data))

			var resp ParseResponse
			require.NoError(t, json.Unmarshal(data, &resp))

			assert.NotEmpty(t, resp.RequestID)
			assert.Equal(t, tt.wantSuccess, resp.Transaction.Success)
			assert.Equal(t, tt.wantProvider, resp.Transaction.Provider)
			if tt.wantAmount == "" {
				assert.False(t, resp.Transaction.Amount.Valid)
				return
			}
			require.True(t, resp.Transaction.Amount.Valid)
			assert.Equal(t, tt.wantAmount, resp.Transaction.Amount.Decimal.String())
		})
	}
}

func TestParseEndpoint_AbsentFeeIsNull(t *testing.T) {
	app := setupTestApp(t, "")

	status, data := doJSON(t, app, "POST", "/api/parse", parseBody(samples.MustGet(samples.BankToTill).Message, false))
	require.Equal(t, fiber.StatusOK, status)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	tx := raw["transaction"].(map[string]interface{})

	assert.Nil(t, tx["transactionCost"])
	assert.Equal(t, true, tx["requiresManualFee"])
	assert.Equal(t, "bank_to_till", tx["bankTransferType"])
}

func TestParseEndpoint_FailedTypesAreNull(t *testing.T) {
	app := setupTestApp(t, "")

	status, data := doJSON(t, app, "POST", "/api/parse", parseBody(samples.MustGet(samples.Unrecognized).Message, false))
	require.Equal(t, fiber.StatusOK, status)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	tx := raw["transaction"].(map[string]interface{})

	assert.Equal(t, false, tx["success"])
	for _, key := range []string{"transactionType", "bankTransferType", "amount"} {
		require.Contains(t, tx, key)
		assert.Nil(t, tx[key], key)
	}
}

func TestParseEndpoint_BadRequests(t *testing.T) {
	app := setupTestApp(t, "")

	tests := []struct {
		name string
		body string
	}{
		{"empty message", `{"message":"   "}`},
		{"malformed json", `{"message":`},
		{"no body", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := doJSON(t, app, "POST", "/api/parse", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, status)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(data, &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestParseEndpoint_BodyLimit(t *testing.T) {
	app := setupTestApp(t, "")

	huge := parseBody(strings.Repeat("Ksh500.00 paid to SHOP. ", 400), false)
	status, _ := doJSON(t, app, "POST", "/api/parse", huge)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, status)
}

func TestBatchEndpoint(t *testing.T) {
	app := setupTestApp(t, "")

	thread := strings.Join([]string{
		samples.MustGet(samples.MpesaPayment).Message,
		samples.MustGet(samples.BankToTillCombined).Message,
		samples.MustGet(samples.Unrecognized).Message,
	}, "\n")

	status, data := doJSON(t, app, "POST", "/api/parse/batch", parseBody(thread, false))
	require.Equal(t, fiber.StatusOK, status, string(data))

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(data, &resp))

	require.Equal(t, 3, resp.Count)
	assert.Equal(t, 2, resp.Parsed)
	assert.Equal(t, models.TypePayment, resp.Transactions[0].TransactionType)
	assert.Equal(t, models.BankToTill, resp.Transactions[1].BankTransferType)
	assert.Equal(t, "16/11/25", resp.Transactions[1].Date)
	assert.False(t, resp.Transactions[2].Success)
}

func TestSamplesEndpoint(t *testing.T) {
	app := setupTestApp(t, "")

	status, data := doJSON(t, app, "GET", "/api/samples", "")
	require.Equal(t, fiber.StatusOK, status)

	var list []samples.Sample
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Len(t, list, len(samples.All()))

	status, data = doJSON(t, app, "GET", "/api/samples?format=airtel", "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Len(t, list, 3)

	status, data = doJSON(t, app, "GET", "/api/samples?format=nope", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, "[]", string(data))
}

func TestSampleEndpoint(t *testing.T) {
	app := setupTestApp(t, "")

	status, data := doJSON(t, app, "GET", "/api/samples/mpesa_send", "")
	require.Equal(t, fiber.StatusOK, status)

	var resp SampleResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, samples.MpesaSend, resp.Sample.Name)
	assert.True(t, resp.Transaction.Success)
	assert.Equal(t, "254712345678", resp.Transaction.RecipientNumber)

	status, _ = doJSON(t, app, "GET", "/api/samples/does_not_exist", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>parser ui</html>"), 0o644))
	app := setupTestApp(t, dir)

	status, data := doJSON(t, app, "GET", "/history", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(data), "parser ui")

	status, _ = doJSON(t, app, "GET", "/api/unknown", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
