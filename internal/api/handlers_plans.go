package api

import (
	"net/http"
	"strconv"

	"mealbuddy/internal/apperr"
)

func (s *Server) listPlannedMeals(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	meals, err := s.plans.PlannedMeals(r.Context(), planID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"plan_id": planID, "planned_meals": meals})
}

func (s *Server) addPlannedMeal(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	var req struct {
		MealID    int64  `json:"meal_id"`
		DayOfWeek string `json:"day_of_week"`
		MealType  string `json:"meal_type"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	id, err := s.plans.AddPlannedMeal(r.Context(), planID, req.MealID, req.DayOfWeek, req.MealType)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"planned_meal_id": id})
}

func (s *Server) getPlannedMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	pm, err := s.plans.GetPlannedMeal(r.Context(), id)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, pm)
}

func (s *Server) swapPlannedMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	var req struct {
		MealID int64 `json:"meal_id"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.plans.SwapMeal(r.Context(), id, req.MealID); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"planned_meal_id": id, "meal_id": req.MealID})
}

func (s *Server) removePlannedMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.plans.RemovePlannedMeal(r.Context(), id); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

// planIngredients derives the shopping list without persisting it.
// user_id overrides whose inventory is subtracted; the plan owner's by
// default.
func (s *Server) planIngredients(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	userID, err := s.planUserID(r, planID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	lines, err := s.aggregator.Build(r.Context(), planID, userID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"plan_id": planID, "ingredients": lines})
}

func (s *Server) sharedIngredients(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	shared, err := s.plans.SharedIngredients(r.Context(), planID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"plan_id": planID, "shared_ingredients": shared})
}

func (s *Server) weeklyNutrition(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	nutrition, err := s.plans.WeeklyNutrition(r.Context(), planID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, nutrition)
}

func (s *Server) materializeGroceryList(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	userID, err := s.planUserID(r, planID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	items, err := s.aggregator.Materialize(r.Context(), planID, userID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"plan_id": planID, "items": items, "count": len(items)})
}

// planUserID resolves whose inventory a plan-scoped operation uses: the
// user_id query parameter when given, the plan owner otherwise.
func (s *Server) planUserID(r *http.Request, planID int64) (int64, error) {
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, apperr.Validation("invalid user_id %q", raw)
		}
		return userID, nil
	}
	plan, err := s.plans.Get(r.Context(), planID)
	if err != nil {
		return 0, err
	}
	return plan.UserID, nil
}
