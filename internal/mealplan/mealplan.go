package mealplan

import "time"

// PlanStatus represents the lifecycle state of a meal plan.
type PlanStatus string

const (
	StatusDraft     PlanStatus = "draft"
	StatusComplete  PlanStatus = "complete"
	StatusFailed    PlanStatus = "failed"
	StatusCorrupted PlanStatus = "corrupted"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s PlanStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusComplete, StatusFailed, StatusCorrupted:
		return true
	}
	return false
}

// MealPlan is a week of planned meals owned by a user. Username is joined
// in for the admin listing.
type MealPlan struct {
	ID        int64      `json:"plan_id"`
	UserID    int64      `json:"user_id"`
	Username  string     `json:"username,omitempty"`
	Status    PlanStatus `json:"status"`
	WeekStart string     `json:"week_start"`
	WeekEnd   string     `json:"week_end"`
	CreatedAt time.Time  `json:"created_at"`
}

// PlannedMeal assigns a meal to one (day, meal type) slot of a plan.
// A slot holds at most one meal.
type PlannedMeal struct {
	ID        int64  `json:"planned_meal_id"`
	PlanID    int64  `json:"plan_id"`
	MealID    int64  `json:"meal_id"`
	MealName  string `json:"meal_name"`
	DayOfWeek string `json:"day_of_week"`
	MealType  string `json:"meal_type"`
	Calories  int    `json:"calories"`
}

// SharedIngredient is an ingredient required by more than one meal in a
// plan, a batching opportunity when shopping.
type SharedIngredient struct {
	Name       string   `json:"ingredient_name"`
	UsageCount int      `json:"usage_count"`
	UsedIn     []string `json:"used_in_meals"`
}

// WeeklyNutrition sums the nutrition of every meal planned into a plan.
type WeeklyNutrition struct {
	TotalCalories int     `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFat      float64 `json:"total_fat"`
	DaysPlanned   int     `json:"days_planned"`
}

// CategoryUsage is one row of the ingredient-category report.
type CategoryUsage struct {
	Category   string `json:"category"`
	UsageCount int    `json:"usage_count"`
}

// ScheduleEntry is one row of the default meal report.
type ScheduleEntry struct {
	DayOfWeek string `json:"day_of_week"`
	MealName  string `json:"meal_name"`
	Calories  int    `json:"calories"`
}

// DailySummary is one day of a user's recorded nutrition.
type DailySummary struct {
	Date     string  `json:"summary_date"`
	Calories int     `json:"total_calories"`
	ProteinG float64 `json:"total_protein_g"`
	CarbsG   float64 `json:"total_carbs_g"`
	FatG     float64 `json:"total_fat_g"`
}

var dayOfWeekOrder = map[string]int{
	"Mon": 1, "Tue": 2, "Wed": 3, "Thu": 4, "Fri": 5, "Sat": 6, "Sun": 7,
}

var mealTypeOrder = map[string]int{
	"breakfast": 1, "lunch": 2, "dinner": 3,
}

// ValidDay reports whether day is a known short weekday name.
func ValidDay(day string) bool {
	_, ok := dayOfWeekOrder[day]
	return ok
}

// ValidMealType reports whether mealType is a known slot type.
func ValidMealType(mealType string) bool {
	_, ok := mealTypeOrder[mealType]
	return ok
}
