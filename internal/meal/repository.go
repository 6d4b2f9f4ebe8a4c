package meal

import (
	"context"
	"database/sql"
	"fmt"

	"mealbuddy/internal/apperr"
)

// Repository is a database-backed repository for meals.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// List retrieves meal summaries matching the filter, ordered by name.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Meal, error) {
	query := `
		SELECT meal_id, meal_name, difficulty, cooking_time_minutes, calories
		FROM meals
		WHERE 1=1`
	var args []any
	if filter.Difficulty != "" {
		query += ` AND difficulty = ?`
		args = append(args, filter.Difficulty)
	}
	if filter.MaxTime > 0 {
		query += ` AND cooking_time_minutes <= ?`
		args = append(args, filter.MaxTime)
	}
	query += ` ORDER BY meal_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	var meals []Meal
	for rows.Next() {
		var m Meal
		if err := rows.Scan(&m.ID, &m.Name, &m.Difficulty, &m.CookingTimeMinutes, &m.Calories); err != nil {
			return nil, fmt.Errorf("failed to scan meal row: %w", err)
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meal rows: %w", err)
	}
	return meals, nil
}

// Get retrieves the complete details for a meal.
func (r *Repository) Get(ctx context.Context, id int64) (*Meal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT meal_id, meal_name, difficulty, cooking_time_minutes,
		       calories, protein_g, carbs_g, fat_g, recipe_steps
		FROM meals WHERE meal_id = ?`, id)

	var m Meal
	if err := row.Scan(&m.ID, &m.Name, &m.Difficulty, &m.CookingTimeMinutes,
		&m.Calories, &m.ProteinG, &m.CarbsG, &m.FatG, &m.RecipeSteps); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("meal %d not found", id)
		}
		return nil, fmt.Errorf("failed to get meal %d: %w", id, err)
	}
	return &m, nil
}

// Ingredients retrieves the requirement rows for a meal, ordered by
// category then name.
func (r *Repository) Ingredients(ctx context.Context, mealID int64) ([]Ingredient, error) {
	if _, err := r.Get(ctx, mealID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT i.ingredient_id, i.ingredient_name, i.category, mi.quantity, mi.unit
		FROM meal_ingredients mi
		JOIN ingredients i ON mi.ingredient_id = i.ingredient_id
		WHERE mi.meal_id = ?
		ORDER BY i.category, i.ingredient_name`, mealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients for meal %d: %w", mealID, err)
	}
	defer rows.Close()

	var ingredients []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.IngredientID, &ing.Name, &ing.Category, &ing.Quantity, &ing.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient row: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredient rows: %w", err)
	}
	return ingredients, nil
}

// LatestCost retrieves the most recent cost calculation for a meal.
// A meal with no cost history returns (nil, nil): missing optional data
// is not an error.
func (r *Repository) LatestCost(ctx context.Context, mealID int64) (*Cost, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT meal_id, total_cost, cost_per_serving, calculation_date
		FROM meal_cost_history
		WHERE meal_id = ?
		ORDER BY calculation_date DESC
		LIMIT 1`, mealID)

	var c Cost
	if err := row.Scan(&c.MealID, &c.TotalCost, &c.CostPerServing, &c.CalculationDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cost for meal %d: %w", mealID, err)
	}
	return &c, nil
}

// SuggestForUser ranks meals by how many of their ingredients overlap
// with the user's inventory, best matches first.
func (r *Repository) SuggestForUser(ctx context.Context, userID int64) ([]Suggestion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.meal_id, m.meal_name, m.difficulty, m.cooking_time_minutes, m.calories,
		       COUNT(DISTINCT mi.ingredient_id) AS matching_ingredients
		FROM meals m
		JOIN meal_ingredients mi ON m.meal_id = mi.meal_id
		JOIN inventory inv ON inv.ingredient_id = mi.ingredient_id
		WHERE inv.user_id = ?
		GROUP BY m.meal_id, m.meal_name, m.difficulty, m.cooking_time_minutes, m.calories
		ORDER BY matching_ingredients DESC, m.meal_name
		LIMIT 10`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest meals for user %d: %w", userID, err)
	}
	defer rows.Close()

	var suggestions []Suggestion
	for rows.Next() {
		var s Suggestion
		if err := rows.Scan(&s.ID, &s.Name, &s.Difficulty, &s.CookingTimeMinutes,
			&s.Calories, &s.MatchingIngredients); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion row: %w", err)
		}
		suggestions = append(suggestions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suggestion rows: %w", err)
	}
	return suggestions, nil
}
