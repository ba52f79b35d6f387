package handler

import (
	"net/http"

	"github.com/gennetta/gennetta/internal/generator"
	"github.com/gennetta/gennetta/internal/model"
)

// GenerateHandler renders bundles from a caller-supplied table list. It is
// stateless: the client sends back the tables an earlier analyze returned.
type GenerateHandler struct {
	defaultProject string
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(defaultProject string) *GenerateHandler {
	return &GenerateHandler{defaultProject: defaultProject}
}

// Generate renders the selected tables. 400 on an empty selection, 404 when a
// selected table is not among the supplied tables, 422 when two names map to
// the same C# identifier.
// POST /api/v1/generate
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.GenerateResponse{Error: "Invalid JSON body: " + err.Error()})
		return
	}

	project := req.Project
	if project == "" {
		project = h.defaultProject
	}

	snap := &model.SchemaSnapshot{Tables: req.Tables}
	bundle, err := generator.Generate(snap, req.Selected, generator.Options{Project: project})
	if err != nil {
		writeJSON(w, classifyError(err), model.GenerateResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Files:   bundle.Map(),
	})
}
