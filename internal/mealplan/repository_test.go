package mealplan

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"mealbuddy/internal/apperr"
	"mealbuddy/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db.SQL
}

func seedUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (username) VALUES (?)`, username)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func seedPlan(t *testing.T, db *sql.DB, userID int64, status string) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO meal_plans (user_id, status, week_start, week_end) VALUES (?, ?, '2026-08-31', '2026-09-06')`,
		userID, status)
	if err != nil {
		t.Fatalf("Failed to seed plan: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func seedMeal(t *testing.T, db *sql.DB, name string, calories int) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO meals (meal_name, calories) VALUES (?, ?)`, name, calories)
	if err != nil {
		t.Fatalf("Failed to seed meal: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func TestPlannedMealSlots(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepository(db)

	userID := seedUser(t, db, "jordan")
	planID := seedPlan(t, db, userID, "draft")
	oatmeal := seedMeal(t, db, "Oatmeal", 300)
	tacos := seedMeal(t, db, "Tacos", 650)

	t.Run("AddAndOrder", func(t *testing.T) {
		if _, err := repo.AddPlannedMeal(ctx, planID, tacos, "Tue", "dinner"); err != nil {
			t.Fatalf("Failed to add dinner: %v", err)
		}
		if _, err := repo.AddPlannedMeal(ctx, planID, oatmeal, "Mon", "breakfast"); err != nil {
			t.Fatalf("Failed to add breakfast: %v", err)
		}

		meals, err := repo.PlannedMeals(ctx, planID)
		if err != nil {
			t.Fatalf("Failed to list planned meals: %v", err)
		}
		if len(meals) != 2 {
			t.Fatalf("Expected 2 planned meals, got %d", len(meals))
		}
		if meals[0].DayOfWeek != "Mon" || meals[0].MealType != "breakfast" {
			t.Errorf("Expected Mon breakfast first, got %s %s", meals[0].DayOfWeek, meals[0].MealType)
		}
	})

	t.Run("SlotConflict", func(t *testing.T) {
		_, err := repo.AddPlannedMeal(ctx, planID, oatmeal, "Tue", "dinner")
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Errorf("Expected Conflict for an occupied slot, got %v", err)
		}
	})

	t.Run("InvalidSlot", func(t *testing.T) {
		if _, err := repo.AddPlannedMeal(ctx, planID, oatmeal, "Funday", "dinner"); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected Validation for bad day, got %v", err)
		}
		if _, err := repo.AddPlannedMeal(ctx, planID, oatmeal, "Mon", "brunch"); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected Validation for bad meal type, got %v", err)
		}
	})

	t.Run("MissingPlanOrMeal", func(t *testing.T) {
		if _, err := repo.AddPlannedMeal(ctx, 9999, oatmeal, "Wed", "lunch"); !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("Expected NotFound for missing plan, got %v", err)
		}
		if _, err := repo.AddPlannedMeal(ctx, planID, 9999, "Wed", "lunch"); !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("Expected NotFound for missing meal, got %v", err)
		}
	})

	t.Run("SwapAndRemove", func(t *testing.T) {
		id, err := repo.AddPlannedMeal(ctx, planID, oatmeal, "Wed", "lunch")
		if err != nil {
			t.Fatalf("Failed to add planned meal: %v", err)
		}

		if err := repo.SwapMeal(ctx, id, tacos); err != nil {
			t.Fatalf("Failed to swap meal: %v", err)
		}
		pm, err := repo.GetPlannedMeal(ctx, id)
		if err != nil {
			t.Fatalf("Failed to get planned meal: %v", err)
		}
		if pm.MealID != tacos {
			t.Errorf("Expected swapped meal %d, got %d", tacos, pm.MealID)
		}

		if err := repo.RemovePlannedMeal(ctx, id); err != nil {
			t.Fatalf("Failed to remove planned meal: %v", err)
		}
		if _, err := repo.GetPlannedMeal(ctx, id); !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("Expected NotFound after removal, got %v", err)
		}
	})
}

func TestSharedIngredients(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepository(db)

	userID := seedUser(t, db, "jordan")
	planID := seedPlan(t, db, userID, "draft")
	friedRice := seedMeal(t, db, "Fried Rice", 500)
	riceBowl := seedMeal(t, db, "Rice Bowl", 450)

	res, _ := db.Exec(`INSERT INTO ingredients (ingredient_name, category) VALUES ('Rice', 'grains')`)
	riceID, _ := res.LastInsertId()
	res, _ = db.Exec(`INSERT INTO ingredients (ingredient_name, category) VALUES ('Egg', 'protein')`)
	eggID, _ := res.LastInsertId()

	db.Exec(`INSERT INTO meal_ingredients (meal_id, ingredient_id, quantity, unit) VALUES (?, ?, 2, 'cups')`, friedRice, riceID)
	db.Exec(`INSERT INTO meal_ingredients (meal_id, ingredient_id, quantity, unit) VALUES (?, ?, 1, 'cups')`, riceBowl, riceID)
	db.Exec(`INSERT INTO meal_ingredients (meal_id, ingredient_id, quantity, unit) VALUES (?, ?, 2, 'pieces')`, friedRice, eggID)

	repo.AddPlannedMeal(ctx, planID, friedRice, "Mon", "dinner")
	repo.AddPlannedMeal(ctx, planID, riceBowl, "Tue", "dinner")

	shared, err := repo.SharedIngredients(ctx, planID)
	if err != nil {
		t.Fatalf("Failed to list shared ingredients: %v", err)
	}
	if len(shared) != 1 {
		t.Fatalf("Expected 1 shared ingredient, got %d", len(shared))
	}
	if shared[0].Name != "Rice" || shared[0].UsageCount != 2 {
		t.Errorf("Expected Rice used by 2 meals, got %+v", shared[0])
	}
	if len(shared[0].UsedIn) != 2 {
		t.Errorf("Expected 2 meal names, got %v", shared[0].UsedIn)
	}
}

func TestWeeklyNutrition(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepository(db)

	userID := seedUser(t, db, "jordan")
	planID := seedPlan(t, db, userID, "draft")

	res, _ := db.Exec(`INSERT INTO meals (meal_name, calories, protein_g, carbs_g, fat_g) VALUES ('A', 400, 30, 40, 10)`)
	mealA, _ := res.LastInsertId()
	res, _ = db.Exec(`INSERT INTO meals (meal_name, calories, protein_g, carbs_g, fat_g) VALUES ('B', 600, 20, 70, 15)`)
	mealB, _ := res.LastInsertId()

	repo.AddPlannedMeal(ctx, planID, mealA, "Mon", "lunch")
	repo.AddPlannedMeal(ctx, planID, mealB, "Mon", "dinner")

	n, err := repo.WeeklyNutrition(ctx, planID)
	if err != nil {
		t.Fatalf("Failed to sum weekly nutrition: %v", err)
	}
	if n.TotalCalories != 1000 {
		t.Errorf("Expected 1000 total calories, got %d", n.TotalCalories)
	}
	if n.TotalProtein != 50 {
		t.Errorf("Expected 50g protein, got %v", n.TotalProtein)
	}
	if n.DaysPlanned != 1 {
		t.Errorf("Expected 1 day planned, got %d", n.DaysPlanned)
	}
}

func TestListAllOrdersProblemsFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepository(db)

	userID := seedUser(t, db, "emily")
	seedPlan(t, db, userID, "complete")
	seedPlan(t, db, userID, "failed")
	seedPlan(t, db, userID, "draft")

	plans, err := repo.ListAll(ctx, "")
	if err != nil {
		t.Fatalf("Failed to list plans: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("Expected 3 plans, got %d", len(plans))
	}
	if plans[0].Status != StatusFailed {
		t.Errorf("Expected failed plan first, got %s", plans[0].Status)
	}
	if plans[2].Status != StatusComplete {
		t.Errorf("Expected complete plan last, got %s", plans[2].Status)
	}

	t.Run("StatusFilter", func(t *testing.T) {
		plans, err := repo.ListAll(ctx, StatusFailed)
		if err != nil {
			t.Fatalf("Failed to filter plans: %v", err)
		}
		if len(plans) != 1 || plans[0].Status != StatusFailed {
			t.Errorf("Expected only the failed plan, got %+v", plans)
		}
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		_, err := repo.ListAll(ctx, "exploded")
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected Validation for unknown status, got %v", err)
		}
	})
}

func TestNutritionSummary(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepository(db)

	userID := seedUser(t, db, "jordan")
	for _, day := range []string{"2026-08-25", "2026-08-26", "2026-08-27"} {
		db.Exec(`INSERT INTO daily_nutrition_summary (user_id, summary_date, total_calories) VALUES (?, ?, 2000)`,
			userID, day)
	}

	summaries, err := repo.NutritionSummary(ctx, userID, 2)
	if err != nil {
		t.Fatalf("Failed to list nutrition summary: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Date != "2026-08-27" {
		t.Errorf("Expected newest day first, got %s", summaries[0].Date)
	}
}
