package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/gennetta/gennetta/internal/config"
	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/connector/demo"
	"github.com/gennetta/gennetta/internal/connector/sqlite"
	"github.com/gennetta/gennetta/internal/model"
)

const demoConn = "Server=demo;Database=Shop;User Id=sa;Password=secret;"

// brokenProvider fails every analysis with a QueryError.
type brokenProvider struct{}

func (brokenProvider) Name() string { return "broken" }
func (brokenProvider) Live() bool   { return true }
func (brokenProvider) Analyze(_ context.Context, d connector.Descriptor) (*model.SchemaSnapshot, error) {
	return nil, connector.NewQueryError("broken", "list tables", d, errors.New("permission denied for "+d.Password))
}

// testEnv holds shared state for handler tests.
type testEnv struct {
	store    *config.Store
	registry *connector.Registry
	router   chi.Router
}

// newTestEnv creates an in-memory config store, a registry with the demo,
// sqlite and broken providers, and a Chi router with every route mounted (no
// auth middleware).
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := config.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := connector.NewRegistry()
	registry.RegisterDriver(demo.Name, demo.New)
	registry.RegisterDriver("sqlite", func() connector.Provider { return sqlite.New(connector.Config{}) })
	registry.RegisterDriver("broken", func() connector.Provider { return brokenProvider{} })

	schemaHandler := NewSchemaHandler(registry, demo.Name)
	generateHandler := NewGenerateHandler("GeneratedApp")
	sessionHandler := NewSessionHandler(store, registry, demo.Name, "GeneratedApp")
	systemHandler := NewSystemHandler(registry, "test", demo.Name, false)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/schema/analyze", schemaHandler.Analyze)
		r.Post("/generate", generateHandler.Generate)
		r.Get("/drivers", systemHandler.ListDrivers)
		r.Get("/system/info", systemHandler.Info)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Post("/", sessionHandler.Create)
			r.Get("/{sessionId}", sessionHandler.Get)
			r.Delete("/{sessionId}", sessionHandler.Delete)
			r.Post("/{sessionId}/connect", sessionHandler.Connect)
			r.Put("/{sessionId}/selection", sessionHandler.UpdateSelection)
			r.Post("/{sessionId}/generate", sessionHandler.Generate)
			r.Post("/{sessionId}/reset", sessionHandler.Reset)
		})
	})

	return &testEnv{store: store, registry: registry, router: r}
}

// do executes a request against the router. A non-nil body is JSON encoded.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = bytes.NewBufferString(raw)
		} else {
			b, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			reader = bytes.NewReader(b)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, rr.Body.String())
	}
}
