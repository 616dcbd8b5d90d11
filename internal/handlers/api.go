package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aardel/launchpad/internal/config"
	"github.com/aardel/launchpad/internal/health"
	"github.com/aardel/launchpad/internal/launcher"
	"github.com/aardel/launchpad/internal/logging"
	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/target"
	"github.com/aardel/launchpad/internal/vault"
)

// ItemStore is the read side of the store used by the API.
type ItemStore interface {
	ListGroups() ([]*store.Group, error)
	GetGroup(id uuid.UUID) (*store.Group, error)
	ListItems(groupID uuid.UUID) ([]*store.Item, error)
	GetItem(id uuid.UUID) (*store.Item, error)
	ListAccess(limit int) ([]*store.AccessEntry, error)
}

// VaultControl is the vault surface exposed over the API.
type VaultControl interface {
	State() vault.State
	Unlock(password string) error
	Lock()
}

// Launcher launches items.
type Launcher interface {
	Launch(ctx context.Context, item *store.Item, opts launcher.Options) (*launcher.Result, error)
	LaunchGroup(ctx context.Context, items []*store.Item, opts launcher.Options) []launcher.GroupResult
}

// Prober reports per-profile reachability.
type Prober interface {
	Check(ctx context.Context, item *store.Item) ([]health.Status, error)
}

// APIHandler handles REST API endpoints.
type APIHandler struct {
	store              ItemStore
	vault              VaultControl
	launcher           Launcher
	prober             Prober
	defaults           config.LaunchConfig
	defaultProfile     network.Profile
	maxRequestBodySize int64
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(
	s ItemStore,
	v VaultControl,
	l Launcher,
	p Prober,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		store:              s,
		vault:              v,
		launcher:           l,
		prober:             p,
		defaults:           cfg.Launch,
		defaultProfile:     cfg.Network.DefaultProfile,
		maxRequestBodySize: cfg.Serve.MaxRequestBodySize,
	}
}

// Response helpers

type apiResponse struct {
	Data any            `json:"data,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]any `json:"meta,omitempty"`
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Data: data})
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiError{}
	resp.Error.Code = code
	resp.Error.Message = message
	json.NewEncoder(w).Encode(resp)
}

// decodeBody reads an optional JSON body. An empty body leaves dst untouched.
func (h *APIHandler) decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, h.maxRequestBodySize)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// launchRequest is the optional body of the launch endpoints. Unset fields
// fall back to the configured defaults.
type launchRequest struct {
	Profile   string `json:"profile"`
	Browser   string `json:"browser"`
	AutoRoute *bool  `json:"auto_route"`
}

func (h *APIHandler) launchOptions(req launchRequest) (launcher.Options, error) {
	opts := launcher.Options{
		Profile:   h.defaultProfile,
		Browser:   h.defaults.Browser,
		Terminal:  h.defaults.Terminal,
		AutoRoute: h.defaults.AutoRoute,
	}
	if req.Profile != "" {
		p, err := network.ParseProfile(req.Profile)
		if err != nil {
			return opts, err
		}
		opts.Profile = p
	}
	if req.Browser != "" {
		b, err := target.ParseBrowser(req.Browser)
		if err != nil {
			return opts, err
		}
		opts.Browser = b
	}
	if req.AutoRoute != nil {
		opts.AutoRoute = *req.AutoRoute
	}
	return opts, nil
}

func redactAll(items []*store.Item) []*store.Item {
	out := make([]*store.Item, len(items))
	for i, it := range items {
		out[i] = it.Redacted()
	}
	return out
}

// Groups

// ListGroups handles GET /api/v1/groups
func (h *APIHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListGroups()
	if err != nil {
		logging.Logger(r.Context()).Error("failed to list groups", "error", err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list groups")
		return
	}
	jsonResponse(w, http.StatusOK, groups)
}

// ListGroupItems handles GET /api/v1/groups/{id}/items
func (h *APIHandler) ListGroupItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "INVALID_ID", "Invalid group ID")
		return
	}
	if _, err := h.store.GetGroup(id); err != nil {
		renderError(w, err)
		return
	}
	items, err := h.store.ListItems(id)
	if err != nil {
		renderError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, redactAll(items))
}

// LaunchGroup handles POST /api/v1/groups/{id}/launch
func (h *APIHandler) LaunchGroup(w http.ResponseWriter, r *http.Request) {
	log := logging.Logger(r.Context())

	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "INVALID_ID", "Invalid group ID")
		return
	}

	var req launchRequest
	if err := h.decodeBody(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	opts, err := h.launchOptions(req)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	if _, err := h.store.GetGroup(id); err != nil {
		renderError(w, err)
		return
	}
	items, err := h.store.ListItems(id)
	if err != nil {
		renderError(w, err)
		return
	}

	type groupEntry struct {
		ItemID uuid.UUID        `json:"item_id"`
		Name   string           `json:"name"`
		Result *launcher.Result `json:"result,omitempty"`
		Error  string           `json:"error,omitempty"`
		Code   string           `json:"code,omitempty"`
	}

	results := h.launcher.LaunchGroup(r.Context(), items, opts)
	entries := make([]groupEntry, 0, len(results))
	failed := 0
	for _, gr := range results {
		e := groupEntry{ItemID: gr.Item.ID, Name: gr.Item.Name, Result: gr.Result}
		if gr.Err != nil {
			failed++
			e.Error = launcher.Describe(gr.Err)
			e.Code = launcher.Class(gr.Err)
			log.Warn("group item failed", "item", gr.Item.Name, "error", gr.Err)
		}
		entries = append(entries, e)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResponse{
		Data: entries,
		Meta: map[string]any{"launched": len(results) - failed, "failed": failed},
	})
}

// Items

// ListItems handles GET /api/v1/items
func (h *APIHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListItems(uuid.Nil)
	if err != nil {
		logging.Logger(r.Context()).Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, redactAll(items))
}

// GetItem handles GET /api/v1/items/{id}
func (h *APIHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "INVALID_ID", "Invalid item ID")
		return
	}
	item, err := h.store.GetItem(id)
	if err != nil {
		renderError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item.Redacted())
}

// resolveResponse is the body of the resolve endpoint.
type resolveResponse struct {
	Requested   network.Profile `json:"requested"`
	Address     string          `json:"address"`
	AddressFrom network.Profile `json:"address_from"`
	Probes      []health.Status `json:"probes,omitempty"`
}

// ResolveItem handles GET /api/v1/items/{id}/resolve?profile=&probe=
func (h *APIHandler) ResolveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "INVALID_ID", "Invalid item ID")
		return
	}

	profile := h.defaultProfile
	if raw := r.URL.Query().Get("profile"); raw != "" {
		p, err := network.ParseProfile(raw)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
		profile = p
	}
	probe, _ := strconv.ParseBool(r.URL.Query().Get("probe"))

	item, err := h.store.GetItem(id)
	if err != nil {
		renderError(w, err)
		return
	}

	var addrs network.Addresses
	switch {
	case item.Bookmark != nil:
		addrs = item.Bookmark.Addresses
	case item.SSH != nil:
		addrs = item.SSH.Addresses
	default:
		jsonError(w, http.StatusUnprocessableEntity, "NOT_ADDRESSABLE", "Only bookmark and SSH items have addresses")
		return
	}

	address, from, ok := network.ResolveWithProfile(addrs, profile)
	if !ok {
		renderError(w, target.ErrNoAddressForProfile)
		return
	}
	resp := resolveResponse{Requested: profile, Address: address, AddressFrom: from}

	if probe && h.prober != nil {
		statuses, err := h.prober.Check(r.Context(), item)
		if err != nil && !errors.Is(err, health.ErrNoProbePort) {
			renderError(w, err)
			return
		}
		resp.Probes = statuses
	}

	jsonResponse(w, http.StatusOK, resp)
}

// LaunchItem handles POST /api/v1/items/{id}/launch
func (h *APIHandler) LaunchItem(w http.ResponseWriter, r *http.Request) {
	log := logging.Logger(r.Context())

	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "INVALID_ID", "Invalid item ID")
		return
	}

	var req launchRequest
	if err := h.decodeBody(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	opts, err := h.launchOptions(req)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	item, err := h.store.GetItem(id)
	if err != nil {
		renderError(w, err)
		return
	}

	res, err := h.launcher.Launch(r.Context(), item, opts)
	if err != nil {
		log.Warn("launch failed", "item", item.Name, "error", err)
		renderError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// ListAccess handles GET /api/v1/access?limit=
func (h *APIHandler) ListAccess(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	entries, err := h.store.ListAccess(limit)
	if err != nil {
		logging.Logger(r.Context()).Error("failed to list access", "error", err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list access history")
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Vault

// VaultStatus handles GET /api/v1/vault/status
func (h *APIHandler) VaultStatus(w http.ResponseWriter, r *http.Request) {
	state := h.vault.State()
	jsonResponse(w, http.StatusOK, map[string]any{
		"state":    state.String(),
		"setup":    state != vault.StateNotSetup,
		"unlocked": state == vault.StateUnlocked,
	})
}

// UnlockVault handles POST /api/v1/vault/unlock
func (h *APIHandler) UnlockVault(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := h.decodeBody(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "password is required")
		return
	}

	if err := h.vault.Unlock(req.Password); err != nil {
		logging.Logger(r.Context()).Warn("vault unlock failed", "error", err)
		renderError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"state": vault.StateUnlocked.String()})
}

// LockVault handles POST /api/v1/vault/lock
func (h *APIHandler) LockVault(w http.ResponseWriter, r *http.Request) {
	h.vault.Lock()
	jsonResponse(w, http.StatusOK, map[string]any{"state": h.vault.State().String()})
}
