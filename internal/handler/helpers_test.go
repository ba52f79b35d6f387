package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gennetta/gennetta/internal/config"
	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/generator"
	"github.com/gennetta/gennetta/internal/wizard"
)

// ---------------------------------------------------------------------------
// classifyError tests
// ---------------------------------------------------------------------------

func TestClassifyError(t *testing.T) {
	d := connector.Descriptor{Server: "db1", Password: "pw"}
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &connector.ValidationError{Message: "bad"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("connection string: %w", &connector.ValidationError{Message: "bad"}), http.StatusBadRequest},
		{"connection", connector.NewConnectionError("mssql", d, cause), http.StatusBadGateway},
		{"query", connector.NewQueryError("mssql", "list tables", d, cause), http.StatusInternalServerError},
		{"lookup", &generator.LookupError{Table: "Ghosts"}, http.StatusNotFound},
		{"store not found", config.ErrNotFound, http.StatusNotFound},
		{"collision", &generator.CollisionError{Identifier: "OrderItems"}, http.StatusUnprocessableEntity},
		{"no tables", generator.ErrNoTables, http.StatusBadRequest},
		{"nothing selected", wizard.ErrNothingSelected, http.StatusBadRequest},
		{"not connected", wizard.ErrNotConnected, http.StatusConflict},
		{"deadline", fmt.Errorf("analyze: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unknown", cause, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); got != tt.want {
				t.Errorf("classifyError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// writeError tests
// ---------------------------------------------------------------------------

func TestWriteError(t *testing.T) {
	t.Run("writes JSON error response", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeError(w, http.StatusBadRequest, "Invalid input")

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		body := w.Body.String()
		if !strings.Contains(body, `"code":400`) {
			t.Errorf("expected code 400 in body: %s", body)
		}
		if !strings.Contains(body, `"message":"Invalid input"`) {
			t.Errorf("expected message in body: %s", body)
		}
	})

	t.Run("includes context", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeError(w, http.StatusNotFound, "missing", map[string]interface{}{"table": "Ghosts"})
		if !strings.Contains(w.Body.String(), `"context":{"table":"Ghosts"}`) {
			t.Errorf("context missing: %s", w.Body.String())
		}
	})
}

// ---------------------------------------------------------------------------
// writeJSON tests
// ---------------------------------------------------------------------------

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	if body := w.Body.String(); !strings.Contains(body, `"hello":"world"`) {
		t.Errorf("expected JSON body, got: %s", body)
	}
}
