package mealplan

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mealbuddy/internal/apperr"
)

// Repository is a database-backed repository for meal plans and their
// planned meal slots.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Custom sort orders the original schema expressed with MySQL's FIELD();
// sqlite spells them as CASE expressions.
const (
	dayOrderExpr = `CASE day_of_week
		WHEN 'Mon' THEN 1 WHEN 'Tue' THEN 2 WHEN 'Wed' THEN 3 WHEN 'Thu' THEN 4
		WHEN 'Fri' THEN 5 WHEN 'Sat' THEN 6 WHEN 'Sun' THEN 7 ELSE 8 END`
	mealTypeOrderExpr = `CASE meal_type
		WHEN 'breakfast' THEN 1 WHEN 'lunch' THEN 2 WHEN 'dinner' THEN 3 ELSE 4 END`
	statusOrderExpr = `CASE mp.status
		WHEN 'failed' THEN 1 WHEN 'corrupted' THEN 2 WHEN 'draft' THEN 3
		WHEN 'complete' THEN 4 ELSE 5 END`
)

// Get retrieves one plan by id.
func (r *Repository) Get(ctx context.Context, planID int64) (*MealPlan, error) {
	var p MealPlan
	err := r.db.QueryRowContext(ctx, `
		SELECT plan_id, user_id, status, week_start, week_end, created_at
		FROM meal_plans WHERE plan_id = ?`, planID).
		Scan(&p.ID, &p.UserID, &p.Status, &p.WeekStart, &p.WeekEnd, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("meal plan %d not found", planID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan %d: %w", planID, err)
	}
	return &p, nil
}

// PlannedMeals retrieves a plan's slots in chronological order:
// Mon..Sun, breakfast before lunch before dinner.
func (r *Repository) PlannedMeals(ctx context.Context, planID int64) ([]PlannedMeal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pm.planned_meal_id, pm.plan_id, pm.day_of_week, pm.meal_type,
		       m.meal_id, m.meal_name, m.calories
		FROM planned_meals pm
		JOIN meals m ON pm.meal_id = m.meal_id
		WHERE pm.plan_id = ?
		ORDER BY `+dayOrderExpr+`, `+mealTypeOrderExpr, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list planned meals for plan %d: %w", planID, err)
	}
	defer rows.Close()

	var meals []PlannedMeal
	for rows.Next() {
		var pm PlannedMeal
		if err := rows.Scan(&pm.ID, &pm.PlanID, &pm.DayOfWeek, &pm.MealType,
			&pm.MealID, &pm.MealName, &pm.Calories); err != nil {
			return nil, fmt.Errorf("failed to scan planned meal row: %w", err)
		}
		meals = append(meals, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate planned meal rows: %w", err)
	}
	return meals, nil
}

// AddPlannedMeal assigns a meal to a slot. A slot already holding a meal
// rejects the assignment with Conflict rather than silently replacing it.
func (r *Repository) AddPlannedMeal(ctx context.Context, planID, mealID int64, dayOfWeek, mealType string) (int64, error) {
	if !ValidDay(dayOfWeek) {
		return 0, apperr.Validation("unknown day of week %q", dayOfWeek)
	}
	if !ValidMealType(mealType) {
		return 0, apperr.Validation("unknown meal type %q", mealType)
	}
	if err := r.requirePlan(ctx, planID); err != nil {
		return 0, err
	}
	if err := r.requireMeal(ctx, mealID); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO planned_meals (plan_id, meal_id, day_of_week, meal_type) VALUES (?, ?, ?, ?)`,
		planID, mealID, dayOfWeek, mealType)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, apperr.Conflict("plan %d already has a %s planned for %s", planID, mealType, dayOfWeek)
		}
		return 0, fmt.Errorf("failed to add planned meal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read planned meal id: %w", err)
	}
	return id, nil
}

// GetPlannedMeal retrieves one slot with its meal details.
func (r *Repository) GetPlannedMeal(ctx context.Context, id int64) (*PlannedMeal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT pm.planned_meal_id, pm.plan_id, pm.day_of_week, pm.meal_type,
		       m.meal_id, m.meal_name, m.calories
		FROM planned_meals pm
		JOIN meals m ON pm.meal_id = m.meal_id
		WHERE pm.planned_meal_id = ?`, id)

	var pm PlannedMeal
	if err := row.Scan(&pm.ID, &pm.PlanID, &pm.DayOfWeek, &pm.MealType,
		&pm.MealID, &pm.MealName, &pm.Calories); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("planned meal %d not found", id)
		}
		return nil, fmt.Errorf("failed to get planned meal %d: %w", id, err)
	}
	return &pm, nil
}

// SwapMeal replaces the meal in an existing slot.
func (r *Repository) SwapMeal(ctx context.Context, plannedMealID, mealID int64) error {
	if err := r.requireMeal(ctx, mealID); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE planned_meals SET meal_id = ? WHERE planned_meal_id = ?`,
		mealID, plannedMealID)
	if err != nil {
		return fmt.Errorf("failed to swap planned meal %d: %w", plannedMealID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("planned meal %d not found", plannedMealID)
	}
	return nil
}

// RemovePlannedMeal clears a slot.
func (r *Repository) RemovePlannedMeal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM planned_meals WHERE planned_meal_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove planned meal %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("planned meal %d not found", id)
	}
	return nil
}

// SharedIngredients reports ingredients used by more than one meal in the
// plan, most shared first.
func (r *Repository) SharedIngredients(ctx context.Context, planID int64) ([]SharedIngredient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.ingredient_name, COUNT(DISTINCT pm.meal_id) AS usage_count,
		       GROUP_CONCAT(DISTINCT m.meal_name) AS used_in_meals
		FROM planned_meals pm
		JOIN meal_ingredients mi ON pm.meal_id = mi.meal_id
		JOIN ingredients i ON mi.ingredient_id = i.ingredient_id
		JOIN meals m ON pm.meal_id = m.meal_id
		WHERE pm.plan_id = ?
		GROUP BY i.ingredient_id, i.ingredient_name
		HAVING COUNT(DISTINCT pm.meal_id) > 1
		ORDER BY usage_count DESC, i.ingredient_name`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared ingredients for plan %d: %w", planID, err)
	}
	defer rows.Close()

	var shared []SharedIngredient
	for rows.Next() {
		var (
			s        SharedIngredient
			mealsCSV string
		)
		if err := rows.Scan(&s.Name, &s.UsageCount, &mealsCSV); err != nil {
			return nil, fmt.Errorf("failed to scan shared ingredient row: %w", err)
		}
		s.UsedIn = strings.Split(mealsCSV, ",")
		shared = append(shared, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shared ingredient rows: %w", err)
	}
	return shared, nil
}

// WeeklyNutrition sums nutrition across every planned meal in the plan.
func (r *Repository) WeeklyNutrition(ctx context.Context, planID int64) (*WeeklyNutrition, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(m.calories), 0),
		       COALESCE(SUM(m.protein_g), 0),
		       COALESCE(SUM(m.carbs_g), 0),
		       COALESCE(SUM(m.fat_g), 0),
		       COUNT(DISTINCT pm.day_of_week)
		FROM planned_meals pm
		JOIN meals m ON pm.meal_id = m.meal_id
		WHERE pm.plan_id = ?`, planID)

	var n WeeklyNutrition
	if err := row.Scan(&n.TotalCalories, &n.TotalProtein, &n.TotalCarbs, &n.TotalFat, &n.DaysPlanned); err != nil {
		return nil, fmt.Errorf("failed to sum weekly nutrition for plan %d: %w", planID, err)
	}
	return &n, nil
}

// CategoryReport counts how often each ingredient category appears across
// all of a user's plans.
func (r *Repository) CategoryReport(ctx context.Context, userID int64) ([]CategoryUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.category, COUNT(*) AS usage_count
		FROM meal_plans mp
		JOIN planned_meals pm ON mp.plan_id = pm.plan_id
		JOIN meal_ingredients mi ON pm.meal_id = mi.meal_id
		JOIN ingredients i ON mi.ingredient_id = i.ingredient_id
		WHERE mp.user_id = ?
		GROUP BY i.category
		ORDER BY usage_count DESC, i.category`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build category report for user %d: %w", userID, err)
	}
	defer rows.Close()

	var report []CategoryUsage
	for rows.Next() {
		var row CategoryUsage
		if err := rows.Scan(&row.Category, &row.UsageCount); err != nil {
			return nil, fmt.Errorf("failed to scan category report row: %w", err)
		}
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category report rows: %w", err)
	}
	return report, nil
}

// ScheduleReport lists the user's planned meals in weekday order.
func (r *Repository) ScheduleReport(ctx context.Context, userID int64) ([]ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pm.day_of_week, m.meal_name, m.calories
		FROM meal_plans mp
		JOIN planned_meals pm ON mp.plan_id = pm.plan_id
		JOIN meals m ON pm.meal_id = m.meal_id
		WHERE mp.user_id = ?
		ORDER BY `+dayOrderExpr, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build schedule report for user %d: %w", userID, err)
	}
	defer rows.Close()

	var report []ScheduleEntry
	for rows.Next() {
		var entry ScheduleEntry
		if err := rows.Scan(&entry.DayOfWeek, &entry.MealName, &entry.Calories); err != nil {
			return nil, fmt.Errorf("failed to scan schedule report row: %w", err)
		}
		report = append(report, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule report rows: %w", err)
	}
	return report, nil
}

// ListAll retrieves every meal plan for the admin dashboard, problematic
// statuses (failed, corrupted) first, newest within each status.
func (r *Repository) ListAll(ctx context.Context, status PlanStatus) ([]MealPlan, error) {
	query := `
		SELECT mp.plan_id, mp.user_id, u.username, mp.status,
		       mp.week_start, mp.week_end, mp.created_at
		FROM meal_plans mp
		JOIN users u ON mp.user_id = u.user_id
		WHERE 1=1`
	var args []any
	if status != "" {
		if !status.Valid() {
			return nil, apperr.Validation("unknown plan status %q", status)
		}
		query += ` AND mp.status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY ` + statusOrderExpr + `, mp.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	defer rows.Close()

	var plans []MealPlan
	for rows.Next() {
		var p MealPlan
		if err := rows.Scan(&p.ID, &p.UserID, &p.Username, &p.Status,
			&p.WeekStart, &p.WeekEnd, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan row: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meal plan rows: %w", err)
	}
	return plans, nil
}

// NutritionSummary retrieves the user's most recent daily nutrition rows.
func (r *Repository) NutritionSummary(ctx context.Context, userID int64, days int) ([]DailySummary, error) {
	if days <= 0 {
		days = 7
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT summary_date, total_calories, total_protein_g, total_carbs_g, total_fat_g
		FROM daily_nutrition_summary
		WHERE user_id = ?
		ORDER BY summary_date DESC
		LIMIT ?`, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to list nutrition summary for user %d: %w", userID, err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var s DailySummary
		if err := rows.Scan(&s.Date, &s.Calories, &s.ProteinG, &s.CarbsG, &s.FatG); err != nil {
			return nil, fmt.Errorf("failed to scan nutrition summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nutrition summary rows: %w", err)
	}
	return summaries, nil
}

func (r *Repository) requirePlan(ctx context.Context, planID int64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_plans WHERE plan_id = ?`, planID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check plan %d: %w", planID, err)
	}
	if n == 0 {
		return apperr.NotFound("meal plan %d not found", planID)
	}
	return nil
}

func (r *Repository) requireMeal(ctx context.Context, mealID int64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meals WHERE meal_id = ?`, mealID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check meal %d: %w", mealID, err)
	}
	if n == 0 {
		return apperr.NotFound("meal %d not found", mealID)
	}
	return nil
}
