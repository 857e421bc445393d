// ABOUTME: Store CRUD handlers scoped to the authenticated owner
// ABOUTME: Deletion is soft; inactive stores behave as missing everywhere

package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/easyshop/easyshop-api/internal/auth"
	"github.com/easyshop/easyshop-api/internal/store"
)

const storeNotFound = "store not found"

// CreateStoreRequest is the body of POST /api/stores
type CreateStoreRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Industry    string         `json:"industry"`
	LogoURL     string         `json:"logo_url"`
	Domain      string         `json:"domain"`
	Settings    map[string]any `json:"settings"`
	UserID      string         `json:"user_id"`
}

func (req *CreateStoreRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return invalid("name is required")
	case strings.TrimSpace(req.Industry) == "":
		return invalid("industry is required")
	case strings.TrimSpace(req.UserID) == "":
		return invalid("user_id is required")
	}
	return nil
}

func validateStoreUpdate(upd *store.StoreUpdate) error {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return invalid("name cannot be empty")
	}
	if upd.Industry != nil && strings.TrimSpace(*upd.Industry) == "" {
		return invalid("industry cannot be empty")
	}
	return nil
}

// handleCreateStore handles POST /api/stores.
func (s *Server) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var req CreateStoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID != user.UserID {
		s.sendJSONError(w, http.StatusForbidden, "not allowed to create a store for another user")
		return
	}

	now := s.now()
	st := &store.Store{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Industry:    req.Industry,
		LogoURL:     req.LogoURL,
		Domain:      req.Domain,
		Settings:    req.Settings,
		UserID:      user.UserID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateStore(r.Context(), st); err != nil {
		s.sendStoreError(w, r, err, storeNotFound)
		return
	}

	s.logger.Info("store created", "store_id", st.ID, "user_id", st.UserID)
	s.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "store": st})
}

// handleListStores handles GET /api/stores.
func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	stores, err := s.store.ListStores(r.Context(), user.UserID, store.ListLimit)
	if err != nil {
		s.sendStoreError(w, r, err, storeNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"stores": stores, "count": len(stores)})
}

// handleGetStore handles GET /api/stores/{id}.
func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	st, err := s.store.GetStore(r.Context(), r.PathValue("id"), user.UserID)
	if err != nil {
		s.sendStoreError(w, r, err, storeNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"store": st})
}

// handleUpdateStore handles PUT and PATCH /api/stores/{id}.
func (s *Server) handleUpdateStore(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var upd store.StoreUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateStoreUpdate(&upd); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := s.store.UpdateStore(r.Context(), r.PathValue("id"), user.UserID, upd, s.now())
	if err != nil {
		s.sendStoreError(w, r, err, storeNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "store": st})
}

// handleDeleteStore handles DELETE /api/stores/{id}.
func (s *Server) handleDeleteStore(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())
	id := r.PathValue("id")

	if err := s.store.DeactivateStore(r.Context(), id, user.UserID, s.now()); err != nil {
		s.sendStoreError(w, r, err, storeNotFound)
		return
	}
	s.logger.Info("store deactivated", "store_id", id, "user_id", user.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// ownedStore resolves an active store of the caller, writing 404 when there is none.
func (s *Server) ownedStore(w http.ResponseWriter, r *http.Request, storeID string, notFound string) (*store.Store, bool) {
	st, err := s.store.GetStore(r.Context(), storeID, mustUser(r))
	if err != nil {
		s.sendStoreError(w, r, err, notFound)
		return nil, false
	}
	return st, true
}

func mustUser(r *http.Request) string {
	return auth.MustFromContext(r.Context()).UserID
}
