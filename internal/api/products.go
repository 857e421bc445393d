// ABOUTME: Product CRUD handlers; ownership is checked through the parent store
// ABOUTME: Products are hard-deleted and listed per store

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/easyshop/easyshop-api/internal/store"
)

const productNotFound = "product not found"

// CreateProductRequest is the body of POST /api/products
type CreateProductRequest struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	StoreID        string                 `json:"store_id"`
	Price          *float64               `json:"price"`
	CompareAtPrice *float64               `json:"compare_at_price"`
	Images         []store.ProductImage   `json:"images"`
	Variants       []store.ProductVariant `json:"variants"`
	Category       string                 `json:"category"`
	Tags           []string               `json:"tags"`
	IsActive       *bool                  `json:"is_active"`
}

func (req *CreateProductRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return invalid("name is required")
	case strings.TrimSpace(req.StoreID) == "":
		return invalid("store_id is required")
	case req.Price == nil:
		return invalid("price is required")
	}
	return validatePricing(req.Price, req.CompareAtPrice, req.Images, req.Variants)
}

func validateProductUpdate(upd *store.ProductUpdate) error {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return invalid("name cannot be empty")
	}
	return validatePricing(upd.Price, upd.CompareAtPrice, upd.Images, upd.Variants)
}

func validatePricing(price, compareAt *float64, images []store.ProductImage, variants []store.ProductVariant) error {
	if price != nil && *price < 0 {
		return invalid("price must be >= 0")
	}
	if compareAt != nil && *compareAt < 0 {
		return invalid("compare_at_price must be >= 0")
	}
	for i, img := range images {
		if strings.TrimSpace(img.URL) == "" {
			return invalid("images[%d].url is required", i)
		}
	}
	for i, v := range variants {
		switch {
		case strings.TrimSpace(v.ID) == "":
			return invalid("variants[%d].id is required", i)
		case strings.TrimSpace(v.Name) == "":
			return invalid("variants[%d].name is required", i)
		case v.Price < 0:
			return invalid("variants[%d].price must be >= 0", i)
		case v.CompareAtPrice != nil && *v.CompareAtPrice < 0:
			return invalid("variants[%d].compare_at_price must be >= 0", i)
		case v.Stock < 0:
			return invalid("variants[%d].stock must be >= 0", i)
		}
	}
	return nil
}

// handleCreateProduct handles POST /api/products.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
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
	p := &store.Product{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Description:    req.Description,
		StoreID:        req.StoreID,
		Price:          *req.Price,
		CompareAtPrice: req.CompareAtPrice,
		Images:         req.Images,
		Variants:       req.Variants,
		Category:       req.Category,
		Tags:           req.Tags,
		IsActive:       req.IsActive == nil || *req.IsActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateProduct(r.Context(), p); err != nil {
		s.sendStoreError(w, r, err, productNotFound)
		return
	}

	s.logger.Info("product created", "product_id", p.ID, "store_id", p.StoreID)
	s.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "product": p})
}

// requireStoreForCreate writes 403 unless storeID is an active store of the caller.
func (s *Server) requireStoreForCreate(w http.ResponseWriter, r *http.Request, storeID string) bool {
	user := mustUser(r)
	_, err := s.store.GetStore(r.Context(), storeID, user)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusForbidden, "store not found or not owned by user")
		return false
	}
	if err != nil {
		s.sendStoreError(w, r, err, storeNotFound)
		return false
	}
	return true
}

// handleListProducts handles GET /api/stores/{id}/products.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	st, ok := s.ownedStore(w, r, r.PathValue("id"), storeNotFound)
	if !ok {
		return
	}
	products, err := s.store.ListProducts(r.Context(), st.ID, store.ListLimit)
	if err != nil {
		s.sendStoreError(w, r, err, storeNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"products": products, "count": len(products)})
}

// ownedProduct loads a product whose store belongs to the caller.
func (s *Server) ownedProduct(w http.ResponseWriter, r *http.Request) (*store.Product, bool) {
	p, err := s.store.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sendStoreError(w, r, err, productNotFound)
		return nil, false
	}
	if _, ok := s.ownedStore(w, r, p.StoreID, productNotFound); !ok {
		return nil, false
	}
	return p, true
}

// handleGetProduct handles GET /api/products/{id}.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.ownedProduct(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

// handleUpdateProduct handles PUT and PATCH /api/products/{id}.
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var upd store.ProductUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateProductUpdate(&upd); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := s.ownedProduct(w, r)
	if !ok {
		return
	}
	updated, err := s.store.UpdateProduct(r.Context(), p.ID, upd, s.now())
	if err != nil {
		s.sendStoreError(w, r, err, productNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": updated})
}

// handleDeleteProduct handles DELETE /api/products/{id}.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.ownedProduct(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteProduct(r.Context(), p.ID); err != nil {
		s.sendStoreError(w, r, err, productNotFound)
		return
	}
	s.logger.Info("product deleted", "product_id", p.ID, "store_id", p.StoreID)
	w.WriteHeader(http.StatusNoContent)
}
