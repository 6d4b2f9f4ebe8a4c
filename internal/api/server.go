package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"mealbuddy/internal/apperr"
	"mealbuddy/internal/grocery"
	"mealbuddy/internal/ingredient"
	"mealbuddy/internal/inventory"
	"mealbuddy/internal/meal"
	"mealbuddy/internal/mealplan"
	"mealbuddy/internal/ops"
)

// Server holds the HTTP surface and its repositories.
type Server struct {
	logger     *zap.Logger
	catalog    *ingredient.Catalog
	meals      *meal.Repository
	plans      *mealplan.Repository
	inventory  *inventory.Repository
	aggregator *grocery.Aggregator
	reconciler *grocery.Reconciler
	ops        *ops.Store
}

// NewServer wires every repository onto one database connection.
func NewServer(db *sql.DB, logger *zap.Logger) *Server {
	return &Server{
		logger:     logger,
		catalog:    ingredient.NewCatalog(db),
		meals:      meal.NewRepository(db),
		plans:      mealplan.NewRepository(db),
		inventory:  inventory.NewRepository(db),
		aggregator: grocery.NewAggregator(db),
		reconciler: grocery.NewReconciler(db),
		ops:        ops.NewStore(db),
	}
}

// Routes builds the router with the access log wrapped around every
// handler.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/meals", s.listMeals).Methods(http.MethodGet)
	r.HandleFunc("/meals/suggestions", s.mealSuggestions).Methods(http.MethodGet)
	r.HandleFunc("/meals/{id:[0-9]+}", s.getMeal).Methods(http.MethodGet)
	r.HandleFunc("/meals/{id:[0-9]+}/ingredients", s.mealIngredients).Methods(http.MethodGet)
	r.HandleFunc("/meals/{id:[0-9]+}/costs", s.mealCosts).Methods(http.MethodGet)

	r.HandleFunc("/meal_plans/{id:[0-9]+}/planned_meals", s.listPlannedMeals).Methods(http.MethodGet)
	r.HandleFunc("/meal_plans/{id:[0-9]+}/planned_meals", s.addPlannedMeal).Methods(http.MethodPost)
	r.HandleFunc("/meal_plans/{id:[0-9]+}/ingredients", s.planIngredients).Methods(http.MethodGet)
	r.HandleFunc("/meal_plans/{id:[0-9]+}/shared_ingredients", s.sharedIngredients).Methods(http.MethodGet)
	r.HandleFunc("/meal_plans/{id:[0-9]+}/weekly_nutrition", s.weeklyNutrition).Methods(http.MethodGet)
	r.HandleFunc("/meal_plans/{id:[0-9]+}/grocery_list", s.materializeGroceryList).Methods(http.MethodPost)

	r.HandleFunc("/planned_meals/{id:[0-9]+}", s.getPlannedMeal).Methods(http.MethodGet)
	r.HandleFunc("/planned_meals/{id:[0-9]+}", s.swapPlannedMeal).Methods(http.MethodPut)
	r.HandleFunc("/planned_meals/{id:[0-9]+}", s.removePlannedMeal).Methods(http.MethodDelete)

	r.HandleFunc("/ingredients", s.listIngredients).Methods(http.MethodGet)
	r.HandleFunc("/ingredients", s.createIngredient).Methods(http.MethodPost)
	r.HandleFunc("/ingredients/{id:[0-9]+}", s.deleteIngredient).Methods(http.MethodDelete)
	r.HandleFunc("/ingredients/{id:[0-9]+}/standardized_name", s.setStandardizedName).Methods(http.MethodPut)

	r.HandleFunc("/users/{id:[0-9]+}/inventory", s.listInventory).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}/inventory", s.addInventory).Methods(http.MethodPost)
	r.HandleFunc("/users/{id:[0-9]+}/inventory/commit/{item_id:[0-9]+}", s.commitGroceryItem).Methods(http.MethodPost)
	r.HandleFunc("/users/{id:[0-9]+}/inventory/{ingredient_id:[0-9]+}", s.getInventoryItem).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}/inventory/{ingredient_id:[0-9]+}", s.updateInventoryItem).Methods(http.MethodPut)
	r.HandleFunc("/users/{id:[0-9]+}/inventory/{ingredient_id:[0-9]+}", s.removeInventoryItem).Methods(http.MethodDelete)

	r.HandleFunc("/users/{id:[0-9]+}/grocery_list", s.listGroceryItems).Methods(http.MethodGet)
	r.HandleFunc("/grocery_list/item/{id:[0-9]+}", s.setGroceryItemOwned).Methods(http.MethodPut)

	r.HandleFunc("/users/{id:[0-9]+}/nutrition_summary", s.nutritionSummary).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}/meal_reports", s.mealReports).Methods(http.MethodGet)

	r.HandleFunc("/admin/ingredients/duplicates", s.detectDuplicates).Methods(http.MethodGet)
	r.HandleFunc("/admin/ingredients/unmatched", s.unmatchedIngredients).Methods(http.MethodGet)
	r.HandleFunc("/admin/data/merge_ingredients", s.mergeIngredients).Methods(http.MethodPost)
	r.HandleFunc("/admin/error_logs", s.listErrorLogs).Methods(http.MethodGet)
	r.HandleFunc("/admin/error_logs/{id:[0-9]+}", s.resolveErrorLog).Methods(http.MethodPut)
	r.HandleFunc("/admin/api_logs", s.apiMetrics).Methods(http.MethodGet)
	r.HandleFunc("/admin/meal_plans", s.listMealPlans).Methods(http.MethodGet)
	r.HandleFunc("/admin/system_health", s.systemHealth).Methods(http.MethodGet)

	return s.accessLog(r)
}

// pathID parses a numeric {name} route variable. The router's [0-9]+
// patterns guarantee the parse succeeds for matched routes.
func pathID(r *http.Request, name string) (int64, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, apperr.Validation("missing path parameter %q", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return id, nil
}
