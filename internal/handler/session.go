package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gennetta/gennetta/internal/config"
	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/generator"
	"github.com/gennetta/gennetta/internal/model"
	"github.com/gennetta/gennetta/internal/wizard"
)

// SessionHandler exposes the wizard over HTTP. Each session is a wizard
// persisted in the config store between requests.
type SessionHandler struct {
	store          *config.Store
	registry       *connector.Registry
	defaultDriver  string
	defaultProject string
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(store *config.Store, registry *connector.Registry, defaultDriver, defaultProject string) *SessionHandler {
	return &SessionHandler{
		store:          store,
		registry:       registry,
		defaultDriver:  defaultDriver,
		defaultProject: defaultProject,
	}
}

// selectionRequest is the payload of UpdateSelection.
type selectionRequest struct {
	Tables []string `json:"tables"`
}

// sessionGenerateRequest is the payload of Generate.
type sessionGenerateRequest struct {
	Project string `json:"project"`
}

// load fetches the wizard named by the {sessionId} URL parameter and writes
// the error response itself when that fails.
func (h *SessionHandler) load(w http.ResponseWriter, r *http.Request) (*wizard.Wizard, bool) {
	id := chi.URLParam(r, "sessionId")
	sess, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		if classifyError(err) == http.StatusNotFound {
			writeError(w, http.StatusNotFound, "Session not found: "+id)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to load session: "+err.Error())
		}
		return nil, false
	}
	return wizard.FromSession(*sess), true
}

func (h *SessionHandler) save(w http.ResponseWriter, r *http.Request, wz *wizard.Wizard) bool {
	sess := wz.Session()
	if err := h.store.UpdateSession(r.Context(), &sess); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save session: "+err.Error())
		return false
	}
	return true
}

// Create starts a new wizard at the connect step.
// POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	wz := wizard.New()
	sess := wz.Session()
	if err := h.store.CreateSession(r.Context(), &sess); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// List returns every session without snapshots.
// GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resource": sessions})
}

// Get returns one session including its snapshot.
// GET /api/v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wz.Session())
}

// Connect analyzes a connection descriptor into the session. A failed
// analysis leaves the session unchanged.
// POST /api/v1/sessions/{sessionId}/connect
func (h *SessionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}

	var req model.AnalyzeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	driver := strings.TrimSpace(req.Driver)
	if driver == "" {
		driver = h.defaultDriver
	}

	if err := wz.Connect(r.Context(), h.registry, driver, req.ConnectionString); err != nil {
		writeError(w, classifyError(err), err.Error())
		return
	}
	if !h.save(w, r, wz) {
		return
	}
	writeJSON(w, http.StatusOK, wz.Session())
}

// UpdateSelection sets the tables to generate.
// PUT /api/v1/sessions/{sessionId}/selection
func (h *SessionHandler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if err := wz.Select(req.Tables); err != nil {
		writeError(w, classifyError(err), err.Error())
		return
	}
	if !h.save(w, r, wz) {
		return
	}
	writeJSON(w, http.StatusOK, wz.Session())
}

// Generate renders the session's selection. The session is not modified.
// POST /api/v1/sessions/{sessionId}/generate
func (h *SessionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}

	var req sessionGenerateRequest
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, model.GenerateResponse{Error: "Invalid JSON body: " + err.Error()})
			return
		}
	}
	if req.Project == "" {
		req.Project = h.defaultProject
	}

	bundle, err := wz.Generate(generator.Options{Project: req.Project})
	if err != nil {
		writeJSON(w, classifyError(err), model.GenerateResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, model.GenerateResponse{Success: true, Files: bundle.Map()})
}

// Reset returns the session to the connect step, discarding its snapshot
// and selection.
// POST /api/v1/sessions/{sessionId}/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.load(w, r)
	if !ok {
		return
	}
	wz.Reset()
	if !h.save(w, r, wz) {
		return
	}
	writeJSON(w, http.StatusOK, wz.Session())
}

// Delete resets the wizard and discards the session.
// DELETE /api/v1/sessions/{sessionId}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	if err := h.store.DeleteSession(r.Context(), id); err != nil {
		if classifyError(err) == http.StatusNotFound {
			writeError(w, http.StatusNotFound, "Session not found: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
