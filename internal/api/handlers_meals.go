package api

import (
	"net/http"
	"strconv"

	"mealbuddy/internal/apperr"
	"mealbuddy/internal/meal"
)

func (s *Server) listMeals(w http.ResponseWriter, r *http.Request) {
	var filter meal.Filter
	filter.Difficulty = r.URL.Query().Get("difficulty")
	if raw := r.URL.Query().Get("max_time"); raw != "" {
		maxTime, err := strconv.Atoi(raw)
		if err != nil || maxTime < 0 {
			respondError(w, s.logger, apperr.Validation("invalid max_time %q", raw))
			return
		}
		filter.MaxTime = maxTime
	}

	meals, err := s.meals.List(r.Context(), filter)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"meals": meals, "count": len(meals)})
}

func (s *Server) getMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	m, err := s.meals.Get(r.Context(), id)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (s *Server) mealIngredients(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	ingredients, err := s.meals.Ingredients(r.Context(), id)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"meal_id": id, "ingredients": ingredients})
}

func (s *Server) mealCosts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	cost, err := s.meals.LatestCost(r.Context(), id)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if cost == nil {
		// No calculation yet is an empty result, not an error.
		respond(w, http.StatusOK, map[string]any{"meal_id": id, "cost": nil})
		return
	}
	respond(w, http.StatusOK, map[string]any{"meal_id": id, "cost": cost})
}

func (s *Server) mealSuggestions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("user_id")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, s.logger, apperr.Validation("invalid user_id %q", raw))
		return
	}
	suggestions, err := s.meals.SuggestForUser(r.Context(), userID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}
