package handler

import (
	"net/http"
	"strings"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/model"
)

// SchemaHandler serves schema analysis.
type SchemaHandler struct {
	registry      *connector.Registry
	defaultDriver string
}

// NewSchemaHandler creates a new SchemaHandler. Requests that name no driver
// use defaultDriver.
func NewSchemaHandler(registry *connector.Registry, defaultDriver string) *SchemaHandler {
	return &SchemaHandler{
		registry:      registry,
		defaultDriver: defaultDriver,
	}
}

// Analyze parses a connection descriptor, introspects the database behind it
// and returns its base tables. The descriptor is echoed back masked.
//
// Failures keep the {success:false,error} envelope: 400 for a malformed
// descriptor or unknown driver, 502 when the database cannot be reached, 500
// when a catalog query fails.
// POST /api/v1/schema/analyze
func (h *SchemaHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req model.AnalyzeRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.AnalyzeResponse{Error: "Invalid JSON body: " + err.Error()})
		return
	}

	driver := strings.TrimSpace(req.Driver)
	if driver == "" {
		driver = h.defaultDriver
	}

	snap, d, err := h.registry.Analyze(r.Context(), driver, req.ConnectionString)
	if err != nil {
		writeJSON(w, classifyError(err), model.AnalyzeResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, model.AnalyzeResponse{
		Success:          true,
		Driver:           snap.Driver,
		Demo:             snap.Demo,
		ConnectionString: d.Masked(),
		Tables:           snap.Tables,
	})
}
