package api

import (
	"net/http"
	"strconv"

	"mealbuddy/internal/apperr"
)

func (s *Server) listGroceryItems(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	items, err := s.aggregator.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"user_id": userID, "items": items, "count": len(items)})
}

func (s *Server) setGroceryItemOwned(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	var req struct {
		Owned bool `json:"owned"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.reconciler.SetOwned(r.Context(), itemID, req.Owned); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"item_id": itemID, "owned": req.Owned})
}

func (s *Server) nutritionSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days <= 0 {
			respondError(w, s.logger, apperr.Validation("invalid days %q", raw))
			return
		}
	}
	summaries, err := s.plans.NutritionSummary(r.Context(), userID, days)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"user_id": userID, "days": days, "summaries": summaries})
}

func (s *Server) mealReports(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	switch reportType := r.URL.Query().Get("type"); reportType {
	case "category":
		report, err := s.plans.CategoryReport(r.Context(), userID)
		if err != nil {
			respondError(w, s.logger, err)
			return
		}
		respond(w, http.StatusOK, map[string]any{"user_id": userID, "report_type": "category", "report": report})
	case "", "schedule":
		report, err := s.plans.ScheduleReport(r.Context(), userID)
		if err != nil {
			respondError(w, s.logger, err)
			return
		}
		respond(w, http.StatusOK, map[string]any{"user_id": userID, "report_type": "schedule", "report": report})
	default:
		respondError(w, s.logger, apperr.Validation("unknown report type %q", r.URL.Query().Get("type")))
	}
}
