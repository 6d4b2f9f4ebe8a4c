package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"mealbuddy/internal/apperr"
)

// Repository is a database-backed repository for per-user inventory.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// SortBy selects the ordering of a user's inventory listing.
type SortBy string

const (
	SortByName       SortBy = "name"
	SortByExpiration SortBy = "expiration"
)

// ListByUser retrieves all inventory items for a user, joined with the
// ingredient catalog for display.
func (r *Repository) ListByUser(ctx context.Context, userID int64, sortBy SortBy) ([]Item, error) {
	query := `
		SELECT inv.inventory_id, inv.user_id, i.ingredient_id, i.ingredient_name,
		       i.category, inv.quantity, inv.unit, inv.expiration_date
		FROM inventory inv
		JOIN ingredients i ON inv.ingredient_id = i.ingredient_id
		WHERE inv.user_id = ?`
	switch sortBy {
	case SortByExpiration:
		query += ` ORDER BY inv.expiration_date ASC`
	case SortByName, "":
		query += ` ORDER BY i.ingredient_name`
	default:
		return nil, apperr.Validation("unknown sort option %q", sortBy)
	}

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory for user %d: %w", userID, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.UserID, &item.IngredientID, &item.IngredientName,
			&item.Category, &item.Quantity, &item.Unit, &item.ExpirationDate); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory rows: %w", err)
	}
	return items, nil
}

// Add records new stock for a user. Adding an ingredient the user already
// stocks under the same unit increments the existing row instead of
// inserting a duplicate, so a double-submitted form accumulates rather
// than forking the stock.
func (r *Repository) Add(ctx context.Context, userID, ingredientID int64, quantity float64, unit string, expirationDate *string) (*Item, error) {
	if quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive, got %v", quantity)
	}

	var exists int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingredients WHERE ingredient_id = ?`, ingredientID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check ingredient %d: %w", ingredientID, err)
	}
	if exists == 0 {
		return nil, apperr.NotFound("ingredient %d not found", ingredientID)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory (user_id, ingredient_id, quantity, unit, expiration_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, ingredient_id, unit) DO UPDATE SET
			quantity = quantity + excluded.quantity,
			expiration_date = COALESCE(excluded.expiration_date, inventory.expiration_date)`,
		userID, ingredientID, quantity, unit, expirationDate)
	if err != nil {
		return nil, fmt.Errorf("failed to add inventory for user %d: %w", userID, err)
	}

	return r.getByUnit(ctx, userID, ingredientID, unit)
}

// GetItem retrieves a user's stock row for an ingredient. When the
// ingredient is stocked under several units the lowest-id row wins; the
// listing endpoint shows them all.
func (r *Repository) GetItem(ctx context.Context, userID, ingredientID int64) (*Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT inv.inventory_id, inv.user_id, i.ingredient_id, i.ingredient_name,
		       i.category, inv.quantity, inv.unit, inv.expiration_date
		FROM inventory inv
		JOIN ingredients i ON inv.ingredient_id = i.ingredient_id
		WHERE inv.user_id = ? AND inv.ingredient_id = ?
		ORDER BY inv.inventory_id
		LIMIT 1`,
		userID, ingredientID)

	var item Item
	if err := row.Scan(&item.ID, &item.UserID, &item.IngredientID, &item.IngredientName,
		&item.Category, &item.Quantity, &item.Unit, &item.ExpirationDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("inventory item not found")
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return &item, nil
}

func (r *Repository) getByUnit(ctx context.Context, userID, ingredientID int64, unit string) (*Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT inv.inventory_id, inv.user_id, i.ingredient_id, i.ingredient_name,
		       i.category, inv.quantity, inv.unit, inv.expiration_date
		FROM inventory inv
		JOIN ingredients i ON inv.ingredient_id = i.ingredient_id
		WHERE inv.user_id = ? AND inv.ingredient_id = ? AND inv.unit = ?`,
		userID, ingredientID, unit)

	var item Item
	if err := row.Scan(&item.ID, &item.UserID, &item.IngredientID, &item.IngredientName,
		&item.Category, &item.Quantity, &item.Unit, &item.ExpirationDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("inventory item not found")
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return &item, nil
}

// UpdateQuantity sets the quantity on all of a user's stock rows for an
// ingredient.
func (r *Repository) UpdateQuantity(ctx context.Context, userID, ingredientID int64, quantity float64) error {
	if quantity < 0 {
		return apperr.Validation("quantity must not be negative, got %v", quantity)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory SET quantity = ? WHERE user_id = ? AND ingredient_id = ?`,
		quantity, userID, ingredientID)
	if err != nil {
		return fmt.Errorf("failed to update inventory quantity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("inventory item not found")
	}
	return nil
}

// Remove deletes a user's stock rows for an ingredient.
func (r *Repository) Remove(ctx context.Context, userID, ingredientID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM inventory WHERE user_id = ? AND ingredient_id = ?`,
		userID, ingredientID)
	if err != nil {
		return fmt.Errorf("failed to remove inventory item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("inventory item not found")
	}
	return nil
}
