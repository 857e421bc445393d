// ABOUTME: AI content generation handlers
// ABOUTME: Upstream failures are logged in full and answered with a generic message

package api

import (
	"errors"
	"net/http"

	"github.com/easyshop/easyshop-api/internal/content"
)

const generationFailed = "content generation failed"

// handleGenerateStoreContent handles POST /api/ai/generate-store-content.
func (s *Server) handleGenerateStoreContent(w http.ResponseWriter, r *http.Request) {
	var brief content.StoreBrief
	if err := decodeJSON(w, r, &brief); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.generator.StoreContent(r.Context(), brief)
	if err != nil {
		s.sendGenerationError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"content":    out.Sections,
		"model_used": out.ModelUsed(),
	})
}

// handleGenerateProductDescription handles POST /api/ai/generate-product-description.
func (s *Server) handleGenerateProductDescription(w http.ResponseWriter, r *http.Request) {
	var brief content.ProductBrief
	if err := decodeJSON(w, r, &brief); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	desc, err := s.generator.ProductDescription(r.Context(), brief)
	if err != nil {
		s.sendGenerationError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"description": desc,
	})
}

// handleTestGeneration handles POST /api/ai/test-generation. No auth required.
func (s *Server) handleTestGeneration(w http.ResponseWriter, r *http.Request) {
	res, err := s.generator.Probe(r.Context())
	if err != nil {
		s.logger.Error("generation probe failed", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   generationFailed,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"response":   res.Text,
		"message":    "IA fonctionnelle !",
		"model_used": res.Model.Name,
	})
}

func (s *Server) sendGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, content.ErrInvalidBrief) {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("content generation failed", "path", r.URL.Path, "user_id", mustUser(r), "error", err)
	s.sendJSONError(w, http.StatusInternalServerError, generationFailed)
}
