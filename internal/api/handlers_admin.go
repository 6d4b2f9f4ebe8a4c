package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mealbuddy/internal/apperr"
	"mealbuddy/internal/ingredient"
	"mealbuddy/internal/mealplan"
	"mealbuddy/internal/ops"
)

// detectDuplicates runs the duplicate report. Normalization defaults to
// the conservative case fold; plural and qualifier stripping are opt-in
// through the comma separated normalize parameter. normalize=exact skips
// normalization entirely and reports byte-identical names only.
func (s *Server) detectDuplicates(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("normalize")
	if raw == "exact" {
		groups, err := s.catalog.ExactDuplicates(r.Context())
		if err != nil {
			respondError(w, s.logger, err)
			return
		}
		respond(w, http.StatusOK, map[string]any{"duplicate_groups": groups, "count": len(groups)})
		return
	}

	var opts ingredient.DetectOptions
	if raw != "" {
		for _, mode := range strings.Split(raw, ",") {
			switch strings.TrimSpace(mode) {
			case "fold":
			case "plural":
				opts.StripPlurals = true
			case "qualifier":
				opts.StripQualifiers = true
			default:
				respondError(w, s.logger, apperr.Validation("unknown normalize mode %q", mode))
				return
			}
		}
	}

	groups, err := s.catalog.DetectDuplicates(r.Context(), opts)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"duplicate_groups": groups, "count": len(groups)})
}

func (s *Server) unmatchedIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := s.catalog.Unmatched(r.Context())
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"ingredients": ingredients, "count": len(ingredients)})
}

func (s *Server) mergeIngredients(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PrimaryID    int64   `json:"primary_id"`
		DuplicateIDs []int64 `json:"duplicate_ids"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	report, err := s.catalog.Merge(r.Context(), req.PrimaryID, req.DuplicateIDs)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, report)
}

func (s *Server) listErrorLogs(w http.ResponseWriter, r *http.Request) {
	var filter ops.ErrorFilter
	switch r.URL.Query().Get("resolved") {
	case "true":
		resolved := true
		filter.Resolved = &resolved
	case "false", "":
		// Unresolved rows are the default view.
		resolved := false
		filter.Resolved = &resolved
	case "all":
		filter.Resolved = nil
	default:
		respondError(w, s.logger, apperr.Validation("invalid resolved filter"))
		return
	}
	filter.Severity = r.URL.Query().Get("severity")

	logs, err := s.ops.ErrorLogs(r.Context(), filter)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}

	if r.URL.Query().Get("export") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="error_logs.csv"`)
		if err := ops.WriteErrorLogsCSV(w, logs); err != nil {
			s.logger.Error("failed to stream error log CSV", zap.Error(err))
		}
		return
	}
	respond(w, http.StatusOK, map[string]any{"error_logs": logs, "count": len(logs)})
}

func (s *Server) resolveErrorLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	req := struct {
		Resolved bool `json:"is_resolved"`
	}{Resolved: true}
	// An empty body resolves the entry; the flag is only needed to reopen.
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			respondError(w, s.logger, err)
			return
		}
	}
	if err := s.ops.ResolveError(r.Context(), id, req.Resolved); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"error_id": id, "is_resolved": req.Resolved})
}

func (s *Server) apiMetrics(w http.ResponseWriter, r *http.Request) {
	timeRange := ops.TimeRange(r.URL.Query().Get("time_range"))
	if timeRange == "" {
		timeRange = ops.RangeDay
	}
	metrics, err := s.ops.ServiceMetrics(r.Context(), timeRange)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"time_range": timeRange, "services": metrics})
}

func (s *Server) listMealPlans(w http.ResponseWriter, r *http.Request) {
	status := mealplan.PlanStatus(r.URL.Query().Get("status"))
	plans, err := s.plans.ListAll(r.Context(), status)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"meal_plans": plans, "count": len(plans)})
}

func (s *Server) systemHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.ops.SystemHealth(r.Context())
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, health)
}
