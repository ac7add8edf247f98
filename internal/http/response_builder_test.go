package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expenses/internal/core"
	"expenses/internal/log"
)

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		JSON(map[string]string{"name": "Cash"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Test") != "1" {
		t.Error("custom header not set")
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["name"] != "Cash" {
		t.Errorf("body = %v", body)
	}
}

func TestResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "" {
		t.Error("Content-Type should not be set without a body")
	}
}

func TestErrorFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"validation error", core.Invalid("wallet", "wallet %q does not exist", "Ghost"), http.StatusBadRequest, `wallet: wallet "Ghost" does not exist`},
		{"wrapped validation", fmt.Errorf("create: %w", core.Invalid("merchantName", "must not be empty")), http.StatusBadRequest, "merchantName: must not be empty"},
		{"not found", fmt.Errorf("delete payment: %w", core.ErrNotFound), http.StatusNotFound, "delete payment: not found"},
		{"conflict", fmt.Errorf("wallet %q: %w", "Cash", core.ErrConflict), http.StatusConflict, `wallet "Cash": already exists`},
		{"unavailable", fmt.Errorf("acquire: %w", core.ErrUnavailable), http.StatusServiceUnavailable, "service temporarily unavailable"},
		{"inconsistent", core.ErrInconsistent, http.StatusInternalServerError, "internal server error"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFor(tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Code != tt.wantStatus {
				t.Errorf("body code = %d, want %d", body.Code, tt.wantStatus)
			}
			if body.Detail != tt.wantDetail {
				t.Errorf("body detail = %q, want %q", body.Detail, tt.wantDetail)
			}
		})
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowedError("GET, POST").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w.Header().Get("Allow") != "GET, POST" {
		t.Errorf("Allow = %q", w.Header().Get("Allow"))
	}
}

func TestWriteErrorLogsServerFailuresOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &buf, Component: log.ComponentHTTP})
	r := httptest.NewRequest(http.MethodGet, "/api/payments", nil)

	writeError(httptest.NewRecorder(), r, logger, log.OpList, core.Invalid("page", "must be a non-negative integer"))
	if buf.Len() != 0 {
		t.Fatalf("client error was logged: %s", buf.String())
	}

	w := httptest.NewRecorder()
	writeError(w, r, logger, log.OpList, errors.New("disk on fire"))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	for _, want := range []string{`"error":"disk on fire"`, `"operation":"list"`, `"component":"http"`, `"path":"/api/payments"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log line %s lacks %s", buf.String(), want)
		}
	}
}
