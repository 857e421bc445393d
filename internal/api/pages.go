// ABOUTME: Page CRUD handlers and the public published-page lookup
// ABOUTME: Slugs are lowercase kebab-case and unique within a store

package api

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/easyshop/easyshop-api/internal/store"
)

const pageNotFound = "page not found"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CreatePageRequest is the body of POST /api/pages
type CreatePageRequest struct {
	Title          string              `json:"title"`
	Slug           string              `json:"slug"`
	StoreID        string              `json:"store_id"`
	Sections       []store.PageSection `json:"sections"`
	IsPublished    bool                `json:"is_published"`
	SEOTitle       string              `json:"seo_title"`
	SEODescription string              `json:"seo_description"`
}

func (req *CreatePageRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Title) == "":
		return invalid("title is required")
	case strings.TrimSpace(req.StoreID) == "":
		return invalid("store_id is required")
	case !slugPattern.MatchString(req.Slug):
		return invalid("slug must be lowercase letters, digits and single hyphens")
	}
	return validateSections(req.Sections)
}

func validatePageUpdate(upd *store.PageUpdate) error {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return invalid("title cannot be empty")
	}
	if upd.Slug != nil && !slugPattern.MatchString(*upd.Slug) {
		return invalid("slug must be lowercase letters, digits and single hyphens")
	}
	return validateSections(upd.Sections)
}

func validateSections(sections []store.PageSection) error {
	for i, sec := range sections {
		if strings.TrimSpace(sec.ID) == "" {
			return invalid("sections[%d].id is required", i)
		}
		if strings.TrimSpace(sec.Type) == "" {
			return invalid("sections[%d].type is required", i)
		}
	}
	return nil
}

// handleCreatePage handles POST /api/pages.
func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req CreatePageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.requireStoreForCreate(w, r, req.StoreID) {
		return
	}

	now := s.now()
	p := &store.Page{
		ID:             uuid.New().String(),
		Title:          req.Title,
		Slug:           req.Slug,
		StoreID:        req.StoreID,
		Sections:       req.Sections,
		IsPublished:    req.IsPublished,
		SEOTitle:       req.SEOTitle,
		SEODescription: req.SEODescription,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreatePage(r.Context(), p); err != nil {
		s.sendStoreError(w, r, err, pageNotFound)
		return
	}

	s.logger.Info("page created", "page_id", p.ID, "store_id", p.StoreID, "slug", p.Slug)
	s.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "page": p})
}

// handleListPages handles GET /api/stores/{id}/pages.
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	st, ok := s.ownedStore(w, r, r.PathValue("id"), storeNotFound)
	if !ok {
		return
	}
	pages, err := s.store.ListPages(r.Context(), st.ID, store.ListLimit)
	if err != nil {
		s.sendStoreError(w, r, err, storeNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"pages": pages, "count": len(pages)})
}

// ownedPage loads a page whose store belongs to the caller.
func (s *Server) ownedPage(w http.ResponseWriter, r *http.Request) (*store.Page, bool) {
	p, err := s.store.GetPage(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sendStoreError(w, r, err, pageNotFound)
		return nil, false
	}
	if _, ok := s.ownedStore(w, r, p.StoreID, pageNotFound); !ok {
		return nil, false
	}
	return p, true
}

// handleGetPage handles GET /api/pages/{id}.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.ownedPage(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"page": p})
}

// handleUpdatePage handles PUT and PATCH /api/pages/{id}.
func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	var upd store.PageUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validatePageUpdate(&upd); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := s.ownedPage(w, r)
	if !ok {
		return
	}
	updated, err := s.store.UpdatePage(r.Context(), p.ID, upd, s.now())
	if err != nil {
		s.sendStoreError(w, r, err, pageNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "page": updated})
}

// handleDeletePage handles DELETE /api/pages/{id}.
func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.ownedPage(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePage(r.Context(), p.ID); err != nil {
		s.sendStoreError(w, r, err, pageNotFound)
		return
	}
	s.logger.Info("page deleted", "page_id", p.ID, "store_id", p.StoreID)
	w.WriteHeader(http.StatusNoContent)
}

// handlePublicPage handles GET /api/public/stores/{id}/pages/{slug}.
// Only published pages of active stores are visible; everything else is 404.
func (s *Server) handlePublicPage(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.GetActiveStore(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sendStoreError(w, r, err, pageNotFound)
		return
	}

	p, err := s.store.GetPageBySlug(r.Context(), st.ID, r.PathValue("slug"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && !p.IsPublished) {
		s.sendJSONError(w, http.StatusNotFound, pageNotFound)
		return
	}
	if err != nil {
		s.sendStoreError(w, r, err, pageNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"store": map[string]any{
			"id":       st.ID,
			"name":     st.Name,
			"industry": st.Industry,
			"logo_url": st.LogoURL,
			"settings": st.Settings,
		},
		"page": p,
	})
}
