package grocery

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

// fixture wires a user, a plan and helpers for building scenarios.
type fixture struct {
	t      *testing.T
	db     *sql.DB
	userID int64
	planID int64
}

func newFixture(t *testing.T, db *sql.DB) *fixture {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (username) VALUES ('jordan')`)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	userID, _ := res.LastInsertId()

	res, err = db.Exec(
		`INSERT INTO meal_plans (user_id, status, week_start, week_end) VALUES (?, 'draft', '2026-08-31', '2026-09-06')`,
		userID)
	if err != nil {
		t.Fatalf("Failed to seed plan: %v", err)
	}
	planID, _ := res.LastInsertId()

	return &fixture{t: t, db: db, userID: userID, planID: planID}
}

func (f *fixture) ingredient(name, category string) int64 {
	f.t.Helper()
	res, err := f.db.Exec(`INSERT INTO ingredients (ingredient_name, category) VALUES (?, ?)`, name, category)
	if err != nil {
		f.t.Fatalf("Failed to seed ingredient: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func (f *fixture) plannedMeal(name, day, mealType string, requirements ...requirement) {
	f.t.Helper()
	res, err := f.db.Exec(`INSERT INTO meals (meal_name) VALUES (?)`, name)
	if err != nil {
		f.t.Fatalf("Failed to seed meal: %v", err)
	}
	mealID, _ := res.LastInsertId()
	for _, req := range requirements {
		if _, err := f.db.Exec(
			`INSERT INTO meal_ingredients (meal_id, ingredient_id, quantity, unit) VALUES (?, ?, ?, ?)`,
			mealID, req.ingredientID, req.quantity, req.unit); err != nil {
			f.t.Fatalf("Failed to seed requirement: %v", err)
		}
	}
	if _, err := f.db.Exec(
		`INSERT INTO planned_meals (plan_id, meal_id, day_of_week, meal_type) VALUES (?, ?, ?, ?)`,
		f.planID, mealID, day, mealType); err != nil {
		f.t.Fatalf("Failed to seed planned meal: %v", err)
	}
}

func (f *fixture) stock(ingredientID int64, quantity float64, unit string) {
	f.t.Helper()
	if _, err := f.db.Exec(
		`INSERT INTO inventory (user_id, ingredient_id, quantity, unit) VALUES (?, ?, ?, ?)`,
		f.userID, ingredientID, quantity, unit); err != nil {
		f.t.Fatalf("Failed to seed inventory: %v", err)
	}
}

type requirement struct {
	ingredientID int64
	quantity     float64
	unit         string
}

func TestBuildSubtractsInventory(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := newFixture(t, db)
	agg := NewAggregator(db)

	// Meal A needs 2 cups rice, Meal B needs 1 cup; the user has 1 cup.
	riceID := f.ingredient("Rice", "grains")
	f.plannedMeal("Meal A", "Mon", "dinner", requirement{riceID, 2, "cups"})
	f.plannedMeal("Meal B", "Tue", "dinner", requirement{riceID, 1, "cups"})
	f.stock(riceID, 1, "cups")

	lines, err := agg.Build(ctx, f.planID, f.userID)
	if err != nil {
		t.Fatalf("Failed to build grocery list: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("Expected one rice line, got %d", len(lines))
	}

	line := lines[0]
	if line.Required != 3 {
		t.Errorf("Expected required 3, got %v", line.Required)
	}
	if line.Covered != 1 {
		t.Errorf("Expected 1 covered by inventory, got %v", line.Covered)
	}
	if line.ToBuy != 2 {
		t.Errorf("Expected to buy 2, got %v", line.ToBuy)
	}
	if line.Owned {
		t.Error("Expected line not owned")
	}
}

func TestBuildFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := newFixture(t, db)
	agg := NewAggregator(db)

	// Inventory exceeds the requirement: fully covered, still listed.
	eggID := f.ingredient("Egg", "protein")
	f.plannedMeal("Omelette", "Mon", "breakfast", requirement{eggID, 3, "pieces"})
	f.stock(eggID, 12, "pieces")

	lines, err := agg.Build(ctx, f.planID, f.userID)
	if err != nil {
		t.Fatalf("Failed to build grocery list: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("Expected the covered line to still be listed, got %d lines", len(lines))
	}
	if lines[0].ToBuy != 0 {
		t.Errorf("Expected to-buy floored at 0, got %v", lines[0].ToBuy)
	}
	if !lines[0].Owned {
		t.Error("Expected fully covered line to be marked owned")
	}
	if lines[0].Covered != 3 {
		t.Errorf("Expected covered capped at the requirement (3), got %v", lines[0].Covered)
	}
}

func TestBuildKeepsMismatchedUnitsApart(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := newFixture(t, db)
	agg := NewAggregator(db)

	// Required in lbs, stocked in pieces: no conversion is guessed.
	chickenID := f.ingredient("Chicken", "protein")
	f.plannedMeal("Roast", "Sun", "dinner", requirement{chickenID, 2, "lbs"})
	f.stock(chickenID, 3, "pieces")

	lines, err := agg.Build(ctx, f.planID, f.userID)
	if err != nil {
		t.Fatalf("Failed to build grocery list: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].Covered != 0 || lines[0].ToBuy != 2 {
		t.Errorf("Expected mismatched-unit stock to cover nothing, got %+v", lines[0])
	}
}

func TestBuildSeparatesUnitsPerIngredient(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := newFixture(t, db)
	agg := NewAggregator(db)

	flourID := f.ingredient("Flour", "baking")
	f.plannedMeal("Bread", "Mon", "dinner", requirement{flourID, 500, "grams"})
	f.plannedMeal("Pancakes", "Tue", "breakfast", requirement{flourID, 2, "cups"})

	lines, err := agg.Build(ctx, f.planID, f.userID)
	if err != nil {
		t.Fatalf("Failed to build grocery list: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected separate lines per unit, got %d", len(lines))
	}
}

func TestBuildRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := newFixture(t, db)
	agg := NewAggregator(db)

	riceID := f.ingredient("Rice", "grains")
	beanID := f.ingredient("Beans", "protein")
	f.plannedMeal("A", "Mon", "dinner", requirement{riceID, 2, "cups"}, requirement{beanID, 1, "cans"})
	f.plannedMeal("B", "Tue", "dinner", requirement{riceID, 1.5, "cups"})

	lines, err := agg.Build(ctx, f.planID, f.userID)
	if err != nil {
		t.Fatalf("Failed to build grocery list: %v", err)
	}

	// Per-line required quantities equal the raw requirement sums.
	var total float64
	for _, line := range lines {
		total += line.Required
	}
	var raw float64
	if err := db.QueryRow(`
		SELECT SUM(mi.quantity) FROM planned_meals pm
		JOIN meal_ingredients mi ON pm.meal_id = mi.meal_id
		WHERE pm.plan_id = ?`, f.planID).Scan(&raw); err != nil {
		t.Fatalf("Failed to sum raw requirements: %v", err)
	}
	if total != raw {
		t.Errorf("Expected aggregated total %v to equal raw requirement sum %v", total, raw)
	}
}

func TestBuildMissingPlan(t *testing.T) {
	ctx := context.Background()
	agg := NewAggregator(newTestDB(t))
	_, err := agg.Build(ctx, 9999, 1)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestMaterializeRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := newFixture(t, db)
	agg := NewAggregator(db)

	riceID := f.ingredient("Rice", "grains")
	f.plannedMeal("A", "Mon", "dinner", requirement{riceID, 3, "cups"})
	f.stock(riceID, 1, "cups")

	items, err := agg.Materialize(ctx, f.planID, f.userID)
	if err != nil {
		t.Fatalf("Failed to materialize grocery list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 materialized item, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Errorf("Expected materialized quantity 2 (to buy), got %v", items[0].Quantity)
	}

	listed, err := agg.ListByUser(ctx, f.userID)
	if err != nil {
		t.Fatalf("Failed to list grocery items: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != items[0].ID {
		t.Errorf("Expected listing to round-trip the materialized item, got %+v", listed)
	}

	t.Run("ReplacesPreviousList", func(t *testing.T) {
		if _, err := agg.Materialize(ctx, f.planID, f.userID); err != nil {
			t.Fatalf("Failed to re-materialize: %v", err)
		}
		listed, err := agg.ListByUser(ctx, f.userID)
		if err != nil {
			t.Fatalf("Failed to list grocery items: %v", err)
		}
		if len(listed) != 1 {
			t.Errorf("Expected re-materialize to replace, not append; got %d items", len(listed))
		}
	})
}
