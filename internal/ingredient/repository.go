package ingredient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mealbuddy/internal/apperr"
)

// Catalog is a database-backed repository for ingredient identities.
type Catalog struct {
	db *sql.DB
}

// NewCatalog creates a new Catalog.
func NewCatalog(d *sql.DB) *Catalog {
	return &Catalog{db: d}
}

// Create inserts a new ingredient and returns its id.
func (c *Catalog) Create(ctx context.Context, name, category string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperr.Validation("ingredient name must not be empty")
	}
	if category = strings.TrimSpace(category); category == "" {
		return 0, apperr.Validation("ingredient category must not be empty")
	}

	res, err := c.db.ExecContext(ctx,
		`INSERT INTO ingredients (ingredient_name, category) VALUES (?, ?)`,
		name, category)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ingredient: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted ingredient id: %w", err)
	}
	return id, nil
}

// Get retrieves an ingredient by its id.
func (c *Catalog) Get(ctx context.Context, id int64) (*Ingredient, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT ingredient_id, ingredient_name, category, standardized_name
		 FROM ingredients WHERE ingredient_id = ?`, id)

	var ing Ingredient
	if err := row.Scan(&ing.ID, &ing.Name, &ing.Category, &ing.StandardizedName); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("ingredient %d not found", id)
		}
		return nil, fmt.Errorf("failed to get ingredient %d: %w", id, err)
	}
	return &ing, nil
}

// List retrieves all ingredients ordered by category then name.
func (c *Catalog) List(ctx context.Context) ([]Ingredient, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT ingredient_id, ingredient_name, category, standardized_name
		 FROM ingredients
		 ORDER BY category, ingredient_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	return scanIngredients(rows)
}

// Unmatched retrieves ingredients missing a standardized name, which
// cannot be matched against the external pricing dataset.
func (c *Catalog) Unmatched(ctx context.Context) ([]Ingredient, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT ingredient_id, ingredient_name, category, standardized_name
		 FROM ingredients
		 WHERE standardized_name IS NULL OR standardized_name = ''
		 ORDER BY category, ingredient_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unmatched ingredients: %w", err)
	}
	defer rows.Close()

	return scanIngredients(rows)
}

// SetStandardizedName links an ingredient to the external pricing dataset.
func (c *Catalog) SetStandardizedName(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("standardized name must not be empty")
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE ingredients SET standardized_name = ? WHERE ingredient_id = ?`,
		name, id)
	if err != nil {
		return fmt.Errorf("failed to set standardized name for ingredient %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("ingredient %d not found", id)
	}
	return nil
}

// Delete removes an ingredient. Deletion is blocked, not cascaded, when
// any dependent record still references the id; silently breaking
// historical recipes is not acceptable.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	usage, err := c.UsageDetail(ctx, id)
	if err != nil {
		return err
	}
	if usage.Total() > 0 {
		return apperr.InUse("ingredient %d is referenced by existing records", id).
			With("usage_count", usage.Total()).
			With("meal_ingredient_count", usage.Meals).
			With("inventory_count", usage.Inventory).
			With("grocery_list_count", usage.GroceryList)
	}

	res, err := c.db.ExecContext(ctx,
		`DELETE FROM ingredients WHERE ingredient_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ingredient %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("ingredient %d not found", id)
	}
	return nil
}

// UsageDetail returns per-table reference counts for an ingredient.
func (c *Catalog) UsageDetail(ctx context.Context, id int64) (Usage, error) {
	var u Usage
	row := c.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM meal_ingredients WHERE ingredient_id = ?),
		   (SELECT COUNT(*) FROM inventory WHERE ingredient_id = ?),
		   (SELECT COUNT(*) FROM grocery_list_items WHERE ingredient_id = ?)`,
		id, id, id)
	if err := row.Scan(&u.Meals, &u.Inventory, &u.GroceryList); err != nil {
		return Usage{}, fmt.Errorf("failed to count usage for ingredient %d: %w", id, err)
	}
	return u, nil
}

// UsageCount returns the recipe + inventory reference count used to rank
// duplicate group members.
func (c *Catalog) UsageCount(ctx context.Context, id int64) (int64, error) {
	var count int64
	row := c.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM meal_ingredients WHERE ingredient_id = ?) +
		   (SELECT COUNT(*) FROM inventory WHERE ingredient_id = ?)`,
		id, id)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count usage for ingredient %d: %w", id, err)
	}
	return count, nil
}

func scanIngredients(rows *sql.Rows) ([]Ingredient, error) {
	var out []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Category, &ing.StandardizedName); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient row: %w", err)
		}
		out = append(out, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredient rows: %w", err)
	}
	return out, nil
}
