package grocery

import (
	"context"
	"database/sql"
	"fmt"

	"mealbuddy/internal/apperr"
)

// Aggregator derives shopping lists from a meal plan's requirements and
// the user's current inventory.
type Aggregator struct {
	db *sql.DB
}

// NewAggregator creates a new Aggregator.
func NewAggregator(d *sql.DB) *Aggregator {
	return &Aggregator{db: d}
}

// Build derives the shopping list for a plan: requirements summed per
// (ingredient, unit), minus the user's matching-unit inventory, floored
// at zero. Pure read; Materialize persists the result as a separate
// explicit action.
//
// Cross-unit aggregation is never attempted. The same ingredient required
// in cups and in grams stays two lines, and inventory held under a
// different unit covers nothing.
func (a *Aggregator) Build(ctx context.Context, planID, userID int64) ([]Line, error) {
	var n int
	if err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_plans WHERE plan_id = ?`, planID).Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to check plan %d: %w", planID, err)
	}
	if n == 0 {
		return nil, apperr.NotFound("meal plan %d not found", planID)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT i.ingredient_id, i.ingredient_name, i.category,
		       SUM(mi.quantity) AS total_quantity, mi.unit
		FROM planned_meals pm
		JOIN meal_ingredients mi ON pm.meal_id = mi.meal_id
		JOIN ingredients i ON mi.ingredient_id = i.ingredient_id
		WHERE pm.plan_id = ?
		GROUP BY i.ingredient_id, i.ingredient_name, i.category, mi.unit
		ORDER BY i.category, i.ingredient_name, mi.unit`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate plan %d requirements: %w", planID, err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.IngredientID, &line.Name, &line.Category,
			&line.Required, &line.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan grocery line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate grocery lines: %w", err)
	}

	for i := range lines {
		stocked, err := a.stockedQuantity(ctx, userID, lines[i].IngredientID, lines[i].Unit)
		if err != nil {
			return nil, err
		}
		lines[i].Covered = stocked
		if lines[i].Covered > lines[i].Required {
			lines[i].Covered = lines[i].Required
		}
		lines[i].ToBuy = lines[i].Required - lines[i].Covered
		lines[i].Owned = lines[i].ToBuy == 0
	}
	return lines, nil
}

// stockedQuantity sums the user's inventory for an ingredient under one
// exact unit.
func (a *Aggregator) stockedQuantity(ctx context.Context, userID, ingredientID int64, unit string) (float64, error) {
	var quantity float64
	err := a.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM inventory
		WHERE user_id = ? AND ingredient_id = ? AND unit = ?`,
		userID, ingredientID, unit).Scan(&quantity)
	if err != nil {
		return 0, fmt.Errorf("failed to read inventory for ingredient %d: %w", ingredientID, err)
	}
	return quantity, nil
}

// Materialize persists the built list as the user's grocery list,
// replacing any previous list in one transaction.
func (a *Aggregator) Materialize(ctx context.Context, planID, userID int64) ([]ListItem, error) {
	lines, err := a.Build(ctx, planID, userID)
	if err != nil {
		return nil, err
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin materialize transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM grocery_list_items WHERE user_id = ?`, userID); err != nil {
		return nil, fmt.Errorf("failed to clear previous grocery list: %w", err)
	}

	items := make([]ListItem, 0, len(lines))
	for _, line := range lines {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO grocery_list_items (user_id, ingredient_id, quantity, unit, owned)
			VALUES (?, ?, ?, ?, ?)`,
			userID, line.IngredientID, line.ToBuy, line.Unit, line.Owned)
		if err != nil {
			return nil, fmt.Errorf("failed to insert grocery item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read grocery item id: %w", err)
		}
		items = append(items, ListItem{
			ID:           id,
			UserID:       userID,
			IngredientID: line.IngredientID,
			Name:         line.Name,
			Category:     line.Category,
			Quantity:     line.ToBuy,
			Unit:         line.Unit,
			Owned:        line.Owned,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit grocery list: %w", err)
	}
	return items, nil
}

// ListByUser retrieves the user's materialized grocery list ordered by
// category then name.
func (a *Aggregator) ListByUser(ctx context.Context, userID int64) ([]ListItem, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT g.item_id, g.user_id, g.ingredient_id, i.ingredient_name, i.category,
		       g.quantity, g.unit, g.owned, g.needs_review
		FROM grocery_list_items g
		JOIN ingredients i ON g.ingredient_id = i.ingredient_id
		WHERE g.user_id = ?
		ORDER BY i.category, i.ingredient_name, g.unit`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grocery items for user %d: %w", userID, err)
	}
	defer rows.Close()

	var items []ListItem
	for rows.Next() {
		var item ListItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.IngredientID, &item.Name,
			&item.Category, &item.Quantity, &item.Unit, &item.Owned, &item.NeedsReview); err != nil {
			return nil, fmt.Errorf("failed to scan grocery item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate grocery items: %w", err)
	}
	return items, nil
}
