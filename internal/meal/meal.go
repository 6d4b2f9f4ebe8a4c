package meal

import "time"

// Meal is a recipe template planned into meal plans.
type Meal struct {
	ID                 int64   `json:"meal_id"`
	Name               string  `json:"meal_name"`
	Difficulty         string  `json:"difficulty"`
	CookingTimeMinutes int     `json:"cooking_time_minutes"`
	Calories           int     `json:"calories"`
	ProteinG           float64 `json:"protein_g,omitempty"`
	CarbsG             float64 `json:"carbs_g,omitempty"`
	FatG               float64 `json:"fat_g,omitempty"`
	RecipeSteps        string  `json:"recipe_steps,omitempty"`
}

// Filter narrows a meal listing.
type Filter struct {
	Difficulty string
	MaxTime    int
}

// Ingredient is one requirement row of a recipe.
type Ingredient struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"ingredient_name"`
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// Cost is a historical cost calculation for a meal.
type Cost struct {
	MealID          int64     `json:"meal_id"`
	TotalCost       float64   `json:"total_cost"`
	CostPerServing  float64   `json:"cost_per_serving"`
	CalculationDate time.Time `json:"calculation_date"`
}

// Suggestion ranks a meal by how many of its ingredients the user
// already stocks.
type Suggestion struct {
	Meal
	MatchingIngredients int `json:"matching_ingredients"`
}
