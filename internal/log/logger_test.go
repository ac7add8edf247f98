package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Component: ComponentPayments})

	logger.Info("hello", FieldPaymentID, "p1")
	logger.WithComponent(ComponentWallets).Warn("careful")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "payments", lines[0][FieldComponent])
	assert.Equal(t, "p1", lines[0][FieldPaymentID])
	assert.Equal(t, "wallets", lines[1][FieldComponent])
	assert.Equal(t, "WARN", lines[1]["level"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Level: slog.LevelWarn})
	logger.Info("dropped")
	logger.Error("kept")
	assert.Len(t, decodeLines(t, &buf), 1)
}

func TestFromContext(t *testing.T) {
	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	assert.Equal(t, "unknown", fallback.Component())

	logger := Discard()
	var seen *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { seen = FromContext(r.Context()) })))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	assert.Equal(t, logger.Component(), seen.Component())
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithPayment("p1", -100, "Market", "food").
		WithPage(2, 10).
		WithError(errors.New("boom")).
		WithError(nil)

	assert.Equal(t, "boom", f[FieldError])
	assert.Equal(t, int64(2), f[FieldPage])
	assert.Len(t, f.ToSlice(), len(f)*2)

	h := NewFields().
		WithHTTPRequest("GET", "/api/payments", "page=1", "curl/8", "https://example.test").
		WithHTTPResponse(404, 1500*time.Millisecond)
	assert.Equal(t, "https://example.test", h[FieldReferer])
	assert.Equal(t, int64(1500), h[FieldDuration])
	assert.Equal(t, "1.5s", h[FieldDurationHuman])
	assert.Equal(t, false, h[FieldSuccess])
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))

	sl.LogError(context.Background(), "Request failed", errors.New("db down"), ComponentHTTP, OpList, LogFields{FieldPath: "/api/payments"})
	sl.LogError(context.Background(), "Request failed", errors.New("again"), ComponentHTTP, OpRead, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "ERROR", lines[0]["level"])
	assert.Equal(t, "db down", lines[0][FieldError])
	assert.Equal(t, "list", lines[0][FieldOperation])
	assert.Equal(t, "http", lines[0][FieldComponent])
	assert.Equal(t, "/api/payments", lines[0][FieldPath])
	assert.Equal(t, "read", lines[1][FieldOperation])
}

func TestRequestIDMiddlewareStampsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Component: ComponentHTTP})

	ids := []string{"req_abc", ""}
	for _, id := range ids {
		h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return id })(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				FromContext(r.Context()).InfoContext(r.Context(), "handled")
			})))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "req_abc", lines[0][FieldRequestID])
	assert.NotContains(t, lines[1], FieldRequestID)
	assert.Equal(t, "http", lines[1][FieldComponent])
}
