package sheet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testClient(url string) *Client {
	return &Client{
		webappURL: url,
		http:      &http.Client{Timeout: 2 * time.Second},
	}
}

// TestForwardSuccess - 200 do Apps Script vira Ok e a nota entra no payload
func TestForwardSuccess(t *testing.T) {
	var got LeadPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	result := testClient(srv.URL).Forward(context.Background(), LeadPayload{
		Name:   "Ana",
		Email:  "ana@example.com",
		UserID: 123,
		Status: "Validated",
	}, "create")

	assert.True(t, result.OK)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, "create", got.Note)
	assert.Equal(t, int64(123), got.UserID)
}

// TestForwardServerError - status >= 400 vira Err com o motivo
func TestForwardServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := testClient(srv.URL).Forward(context.Background(), LeadPayload{Email: "x@y.com"}, "create")

	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "500")
}

// TestForwardMissingURL - sem SHEET_WEBAPP_URL o sink degrada para Err, sem pânico
func TestForwardMissingURL(t *testing.T) {
	result := testClient("").Forward(context.Background(), LeadPayload{Email: "x@y.com"}, "create")

	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Reason)
}

// TestForwardUnreachableHost - erro de rede vira Err, nunca erro propagado
func TestForwardUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // derruba antes de usar

	result := testClient(srv.URL).Forward(context.Background(), LeadPayload{Email: "x@y.com"}, "create")

	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Reason)
}

// TestResultConstructors - contrato Ok/Err padronizado
func TestResultConstructors(t *testing.T) {
	assert.True(t, Ok().OK)
	assert.Empty(t, Ok().Reason)

	e := Err("planilha retornou status 500")
	assert.False(t, e.OK)
	assert.Equal(t, "planilha retornou status 500", e.Reason)
}
