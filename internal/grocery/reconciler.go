package grocery

import (
	"context"
	"database/sql"
	"fmt"

	"mealbuddy/internal/apperr"
	"mealbuddy/internal/inventory"
)

// Reconciler keeps per-user inventory consistent as grocery items are
// purchased and checked off.
type Reconciler struct {
	db *sql.DB
}

// NewReconciler creates a new Reconciler.
func NewReconciler(d *sql.DB) *Reconciler {
	return &Reconciler{db: d}
}

// SetOwned toggles a grocery line's owned flag. It touches nothing else:
// inventory only changes through the explicit CommitToInventory bridge.
func (r *Reconciler) SetOwned(ctx context.Context, itemID int64, owned bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE grocery_list_items SET owned = ? WHERE item_id = ?`, owned, itemID)
	if err != nil {
		return fmt.Errorf("failed to update grocery item %d: %w", itemID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("grocery item %d not found", itemID)
	}
	return nil
}

// CommitToInventory moves a purchased grocery line into the user's
// inventory: the matching-unit stock row is incremented by the line's
// quantity, or created if none exists. Stock held only under a different
// unit fails with UnitMismatch since no conversion table exists.
//
// Repeated commits for the same physical purchase are not deduplicated;
// that is the caller's responsibility.
func (r *Reconciler) CommitToInventory(ctx context.Context, itemID, userID int64) (*inventory.Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		ownerID      int64
		ingredientID int64
		quantity     float64
		unit         string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, ingredient_id, quantity, unit FROM grocery_list_items WHERE item_id = ?`,
		itemID).Scan(&ownerID, &ingredientID, &quantity, &unit)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("grocery item %d not found", itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load grocery item %d: %w", itemID, err)
	}
	if ownerID != userID {
		return nil, apperr.Validation("grocery item %d does not belong to user %d", itemID, userID)
	}
	if quantity <= 0 {
		return nil, apperr.Validation("grocery item %d has nothing left to commit", itemID)
	}

	var stockID int64
	err = tx.QueryRowContext(ctx,
		`SELECT inventory_id FROM inventory WHERE user_id = ? AND ingredient_id = ? AND unit = ?`,
		userID, ingredientID, unit).Scan(&stockID)
	switch {
	case err == sql.ErrNoRows:
		var mismatched int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM inventory WHERE user_id = ? AND ingredient_id = ?`,
			userID, ingredientID).Scan(&mismatched); err != nil {
			return nil, fmt.Errorf("failed to check existing stock: %w", err)
		}
		if mismatched > 0 {
			return nil, apperr.UnitMismatch(
				"ingredient %d is stocked under a different unit than %q", ingredientID, unit)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO inventory (user_id, ingredient_id, quantity, unit) VALUES (?, ?, ?, ?)`,
			userID, ingredientID, quantity, unit)
		if err != nil {
			return nil, fmt.Errorf("failed to create stock row: %w", err)
		}
		stockID, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read stock row id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up stock row: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE inventory SET quantity = quantity + ? WHERE inventory_id = ?`,
			quantity, stockID); err != nil {
			return nil, fmt.Errorf("failed to increment stock row: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE grocery_list_items SET owned = TRUE WHERE item_id = ?`, itemID); err != nil {
		return nil, fmt.Errorf("failed to mark grocery item owned: %w", err)
	}

	item := &inventory.Item{UserID: userID, IngredientID: ingredientID, Unit: unit}
	err = tx.QueryRowContext(ctx, `
		SELECT inv.inventory_id, inv.quantity, i.ingredient_name, i.category, inv.expiration_date
		FROM inventory inv
		JOIN ingredients i ON inv.ingredient_id = i.ingredient_id
		WHERE inv.inventory_id = ?`, stockID).
		Scan(&item.ID, &item.Quantity, &item.IngredientName, &item.Category, &item.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("failed to read committed stock row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit inventory update: %w", err)
	}
	return item, nil
}
