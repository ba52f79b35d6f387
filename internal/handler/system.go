package handler

import (
	"net/http"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/generator"
)

// SystemHandler reports what this instance can do.
type SystemHandler struct {
	registry      *connector.Registry
	version       string
	defaultDriver string
	authEnabled   bool
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(registry *connector.Registry, version, defaultDriver string, authEnabled bool) *SystemHandler {
	return &SystemHandler{
		registry:      registry,
		version:       version,
		defaultDriver: defaultDriver,
		authEnabled:   authEnabled,
	}
}

// ListDrivers returns the registered schema providers. Live is false for
// providers that fabricate data.
// GET /api/v1/drivers
func (h *SystemHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Drivers())
}

// systemInfo is the payload of Info.
type systemInfo struct {
	Version       string   `json:"version"`
	DefaultDriver string   `json:"default_driver"`
	Drivers       []string `json:"drivers"`
	Targets       []string `json:"ef_targets"`
	AuthEnabled   bool     `json:"auth_enabled"`
}

// Info describes the running instance.
// GET /api/v1/system/info
func (h *SystemHandler) Info(w http.ResponseWriter, r *http.Request) {
	drivers := h.registry.Drivers()
	names := make([]string, len(drivers))
	for i, d := range drivers {
		names[i] = d.Name
	}
	writeJSON(w, http.StatusOK, systemInfo{
		Version:       h.version,
		DefaultDriver: h.defaultDriver,
		Drivers:       names,
		Targets:       generator.SupportedTargets(),
		AuthEnabled:   h.authEnabled,
	})
}
