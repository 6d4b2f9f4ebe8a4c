package ingredient

import (
	"context"
	"testing"

	"mealbuddy/internal/apperr"
)

func TestMergeRepointsAndDeletes(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCatalog(db)

	primary, _ := catalog.Create(ctx, "Chicken Breast", "protein")
	dup, _ := catalog.Create(ctx, "chicken breast", "protein")

	userID := seedUser(t, db, "jordan")
	mealA := seedMeal(t, db, "Grilled Chicken")
	mealB := seedMeal(t, db, "Chicken Salad")
	seedMealIngredient(t, db, mealA, dup, 1, "lbs")
	seedMealIngredient(t, db, mealB, dup, 0.5, "lbs")
	seedInventory(t, db, userID, dup, 2, "lbs")

	report, err := catalog.Merge(ctx, primary, []int64{dup})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if report.Repointed != 3 {
		t.Errorf("Expected 3 rows repointed, got %d", report.Repointed)
	}
	if report.Combined != 0 {
		t.Errorf("Expected 0 rows combined, got %d", report.Combined)
	}

	t.Run("DuplicateGone", func(t *testing.T) {
		_, err := catalog.Get(ctx, dup)
		if !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("Expected duplicate to be deleted, got %v", err)
		}
	})

	t.Run("NoDanglingReferences", func(t *testing.T) {
		var dangling int
		err := db.QueryRow(
			`SELECT (SELECT COUNT(*) FROM meal_ingredients WHERE ingredient_id = ?) +
			        (SELECT COUNT(*) FROM inventory WHERE ingredient_id = ?) +
			        (SELECT COUNT(*) FROM grocery_list_items WHERE ingredient_id = ?)`,
			dup, dup, dup).Scan(&dangling)
		if err != nil {
			t.Fatalf("Failed to count references: %v", err)
		}
		if dangling != 0 {
			t.Errorf("Expected 0 dangling references, got %d", dangling)
		}
	})

	t.Run("ReferencesMovedToPrimary", func(t *testing.T) {
		usage, err := catalog.UsageDetail(ctx, primary)
		if err != nil {
			t.Fatalf("Failed to get usage: %v", err)
		}
		if usage.Meals != 2 || usage.Inventory != 1 {
			t.Errorf("Expected 2 meal refs and 1 inventory ref on primary, got %+v", usage)
		}
	})
}

func TestMergeIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCatalog(db)

	primary, _ := catalog.Create(ctx, "Chicken Breast", "protein")
	dup, _ := catalog.Create(ctx, "chicken breast", "protein")
	mealID := seedMeal(t, db, "Grilled Chicken")
	seedMealIngredient(t, db, mealID, dup, 1, "lbs")

	if _, err := catalog.Merge(ctx, primary, []int64{dup}); err != nil {
		t.Fatalf("First merge failed: %v", err)
	}

	report, err := catalog.Merge(ctx, primary, []int64{dup})
	if err != nil {
		t.Fatalf("Second merge should be a no-op, got %v", err)
	}
	if report.Repointed != 0 || report.Combined != 0 {
		t.Errorf("Expected zero-work report on re-run, got %+v", report)
	}
	if len(report.MissingIDs) != 1 || report.MissingIDs[0] != dup {
		t.Errorf("Expected %d reported as already merged, got %v", dup, report.MissingIDs)
	}
}

func TestMergeCombinesCollidingRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCatalog(db)

	primary, _ := catalog.Create(ctx, "Rice", "grains")
	dup, _ := catalog.Create(ctx, "rice", "grains")

	userID := seedUser(t, db, "jordan")
	// The user had stock under both identities with matching units.
	seedInventory(t, db, userID, primary, 1, "cups")
	seedInventory(t, db, userID, dup, 2, "cups")
	// And a meal requiring both, matching units.
	mealID := seedMeal(t, db, "Fried Rice")
	seedMealIngredient(t, db, mealID, primary, 2, "cups")
	seedMealIngredient(t, db, mealID, dup, 1, "cups")

	report, err := catalog.Merge(ctx, primary, []int64{dup})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if report.Combined != 2 {
		t.Errorf("Expected 2 rows combined, got %d", report.Combined)
	}

	var invQty float64
	if err := db.QueryRow(
		`SELECT quantity FROM inventory WHERE user_id = ? AND ingredient_id = ?`,
		userID, primary).Scan(&invQty); err != nil {
		t.Fatalf("Failed to read combined inventory: %v", err)
	}
	if invQty != 3 {
		t.Errorf("Expected combined inventory quantity 3, got %v", invQty)
	}

	var mealQty float64
	if err := db.QueryRow(
		`SELECT quantity FROM meal_ingredients WHERE meal_id = ? AND ingredient_id = ?`,
		mealID, primary).Scan(&mealQty); err != nil {
		t.Fatalf("Failed to read combined meal requirement: %v", err)
	}
	if mealQty != 3 {
		t.Errorf("Expected combined requirement quantity 3, got %v", mealQty)
	}

	var rows int
	db.QueryRow(`SELECT COUNT(*) FROM inventory WHERE user_id = ?`, userID).Scan(&rows)
	if rows != 1 {
		t.Errorf("Expected redundant inventory row deleted, found %d rows", rows)
	}
}

func TestMergeFlagsUnitMismatch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCatalog(db)

	primary, _ := catalog.Create(ctx, "Chicken", "protein")
	dup, _ := catalog.Create(ctx, "chicken", "protein")

	userID := seedUser(t, db, "jordan")
	// Stock under incompatible units: both rows must survive.
	seedInventory(t, db, userID, primary, 2, "lbs")
	seedInventory(t, db, userID, dup, 3, "pieces")
	// Grocery lines under incompatible units: kept and flagged.
	seedGroceryItem(t, db, userID, primary, 2, "lbs")
	seedGroceryItem(t, db, userID, dup, 3, "pieces")

	report, err := catalog.Merge(ctx, primary, []int64{dup})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if report.UnitMismatches == 0 {
		t.Error("Expected unit mismatches to be flagged in the report")
	}

	var invRows int
	db.QueryRow(`SELECT COUNT(*) FROM inventory WHERE user_id = ? AND ingredient_id = ?`,
		userID, primary).Scan(&invRows)
	if invRows != 2 {
		t.Errorf("Expected both stock rows kept under the primary, got %d", invRows)
	}

	var flagged int
	db.QueryRow(`SELECT COUNT(*) FROM grocery_list_items WHERE user_id = ? AND needs_review = TRUE`,
		userID).Scan(&flagged)
	if flagged != 2 {
		t.Errorf("Expected both grocery lines flagged for review, got %d", flagged)
	}
}

func TestMergeValidation(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(newTestDB(t))
	primary, _ := catalog.Create(ctx, "Salt", "spices")

	t.Run("PrimaryInDuplicates", func(t *testing.T) {
		_, err := catalog.Merge(ctx, primary, []int64{primary})
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected Validation error, got %v", err)
		}
	})

	t.Run("EmptyDuplicates", func(t *testing.T) {
		_, err := catalog.Merge(ctx, primary, nil)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected Validation error, got %v", err)
		}
	})

	t.Run("MissingPrimary", func(t *testing.T) {
		_, err := catalog.Merge(ctx, 9999, []int64{primary})
		if !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("Expected NotFound error, got %v", err)
		}
	})
}
