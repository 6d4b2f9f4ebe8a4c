package api

import (
	"net/http"

	"mealbuddy/internal/apperr"
)

func (s *Server) listIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := s.catalog.List(r.Context())
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"ingredients": ingredients, "count": len(ingredients)})
}

func (s *Server) createIngredient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"ingredient_name"`
		Category string `json:"category"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	id, err := s.catalog.Create(r.Context(), req.Name, req.Category)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"ingredient_id": id})
}

func (s *Server) deleteIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) setStandardizedName(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	var req struct {
		StandardizedName string `json:"standardized_name"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	if req.StandardizedName == "" {
		respondError(w, s.logger, apperr.Validation("standardized_name is required"))
		return
	}
	if err := s.catalog.SetStandardizedName(r.Context(), id, req.StandardizedName); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"ingredient_id": id, "standardized_name": req.StandardizedName})
}
