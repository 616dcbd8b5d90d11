// Package handlers provides the HTTP handlers for the LaunchPad local API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aardel/launchpad/internal/logging"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/vault"
)

// GroupLister is the store capability the readiness check needs.
type GroupLister interface {
	ListGroups() ([]*store.Group, error)
}

// VaultStater reports the vault lifecycle state.
type VaultStater interface {
	State() vault.State
}

// HealthHandler serves /health and /ready.
type HealthHandler struct {
	store   GroupLister
	vault   VaultStater
	started time.Time
}

func NewHealthHandler(s GroupLister, v VaultStater) *HealthHandler {
	return &HealthHandler{store: s, vault: v, started: time.Now()}
}

// HealthResponse is the body of both probes.
type HealthResponse struct {
	Status   string            `json:"status"`
	Time     time.Time         `json:"time"`
	Uptime   string            `json:"uptime"`
	Services map[string]string `json:"services,omitempty"`
}

func (h *HealthHandler) write(w http.ResponseWriter, code int, status string, services map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:   status,
		Time:     time.Now().UTC(),
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		Services: services,
	})
}

// Liveness answers as long as the process serves requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, "healthy", nil)
}

// Readiness checks the store. The vault state is reported but a locked
// vault is still ready: catalog reads and most launches work without it.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"store": "healthy",
		"vault": h.vault.State().String(),
	}

	if _, err := h.store.ListGroups(); err != nil {
		logging.Logger(r.Context()).Error("store readiness check failed", "error", err)
		services["store"] = "unhealthy"
		h.write(w, http.StatusServiceUnavailable, "unhealthy", services)
		return
	}
	h.write(w, http.StatusOK, "healthy", services)
}
