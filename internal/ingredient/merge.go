package ingredient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mealbuddy/internal/apperr"
)

// MergeReport summarizes what a merge actually did.
type MergeReport struct {
	PrimaryID      int64   `json:"primary_id"`
	MergedIDs      []int64 `json:"merged_ids"`
	MissingIDs     []int64 `json:"missing_ids,omitempty"`
	Repointed      int     `json:"rows_repointed"`
	Combined       int     `json:"rows_combined"`
	UnitMismatches int     `json:"rows_flagged_unit_mismatch"`
}

// Merge consolidates duplicate ingredient identities into primaryID inside
// a single transaction: every dependent row is repointed, rows that
// collide on their natural key are combined when units match (flagged when
// they do not), and the duplicate identities are deleted. Partial
// application is never left visible.
//
// Duplicate ids that no longer exist are treated as already merged and
// reported in MissingIDs rather than failing the call, which makes a
// repeated merge a no-op.
func (c *Catalog) Merge(ctx context.Context, primaryID int64, duplicateIDs []int64) (*MergeReport, error) {
	if len(duplicateIDs) == 0 {
		return nil, apperr.Validation("no duplicate ids given")
	}
	for _, id := range duplicateIDs {
		if id == primaryID {
			return nil, apperr.Validation("primary id %d must not appear in the duplicate set", primaryID)
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapBusy(err, "failed to begin merge transaction")
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingredients WHERE ingredient_id = ?`, primaryID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check primary ingredient: %w", err)
	}
	if exists == 0 {
		return nil, apperr.NotFound("primary ingredient %d not found", primaryID)
	}

	merged, missing, err := splitExisting(ctx, tx, duplicateIDs)
	if err != nil {
		return nil, err
	}

	report := &MergeReport{PrimaryID: primaryID, MergedIDs: merged, MissingIDs: missing}
	if len(merged) == 0 {
		// Every duplicate is already gone: the merge was applied before.
		return report, nil
	}

	for _, dupID := range merged {
		if err := mergeMealIngredients(ctx, tx, primaryID, dupID, report); err != nil {
			return nil, err
		}
		if err := mergeInventory(ctx, tx, primaryID, dupID, report); err != nil {
			return nil, err
		}
		if err := mergeGroceryItems(ctx, tx, primaryID, dupID, report); err != nil {
			return nil, err
		}
	}

	if err := deleteIngredients(ctx, tx, merged); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapBusy(err, "failed to commit merge")
	}
	return report, nil
}

// splitExisting partitions the requested duplicate ids into those still in
// the catalog and those already gone.
func splitExisting(ctx context.Context, tx *sql.Tx, ids []int64) (existing, missing []int64, err error) {
	present := make(map[int64]bool, len(ids))
	query := `SELECT ingredient_id FROM ingredients WHERE ingredient_id IN (` + placeholders(len(ids)) + `)`
	rows, err := tx.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up duplicate ingredients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("failed to scan ingredient id: %w", err)
		}
		present[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate ingredient ids: %w", err)
	}

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if present[id] {
			existing = append(existing, id)
		} else {
			missing = append(missing, id)
		}
	}
	return existing, missing, nil
}

// mergeMealIngredients repoints a duplicate's recipe requirement rows.
// A meal that already requires the primary cannot keep a second row under
// the (meal_id, ingredient_id) key: matching units sum, mismatched units
// drop the duplicate's row and flag it for follow-up.
func mergeMealIngredients(ctx context.Context, tx *sql.Tx, primaryID, dupID int64, report *MergeReport) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT meal_id, quantity, unit FROM meal_ingredients WHERE ingredient_id = ?`, dupID)
	if err != nil {
		return fmt.Errorf("failed to load meal requirements for ingredient %d: %w", dupID, err)
	}
	type req struct {
		mealID   int64
		quantity float64
		unit     string
	}
	var reqs []req
	for rows.Next() {
		var r req
		if err := rows.Scan(&r.mealID, &r.quantity, &r.unit); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan meal requirement: %w", err)
		}
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate meal requirements: %w", err)
	}
	rows.Close()

	for _, r := range reqs {
		var existingUnit string
		err := tx.QueryRowContext(ctx,
			`SELECT unit FROM meal_ingredients WHERE meal_id = ? AND ingredient_id = ?`,
			r.mealID, primaryID).Scan(&existingUnit)
		switch {
		case err == sql.ErrNoRows:
			if _, err := tx.ExecContext(ctx,
				`UPDATE meal_ingredients SET ingredient_id = ? WHERE meal_id = ? AND ingredient_id = ?`,
				primaryID, r.mealID, dupID); err != nil {
				return fmt.Errorf("failed to repoint meal requirement: %w", err)
			}
			report.Repointed++
		case err != nil:
			return fmt.Errorf("failed to check colliding meal requirement: %w", err)
		case existingUnit == r.unit:
			if _, err := tx.ExecContext(ctx,
				`UPDATE meal_ingredients SET quantity = quantity + ? WHERE meal_id = ? AND ingredient_id = ?`,
				r.quantity, r.mealID, primaryID); err != nil {
				return fmt.Errorf("failed to combine meal requirement: %w", err)
			}
			if err := deleteMealRequirement(ctx, tx, r.mealID, dupID); err != nil {
				return err
			}
			report.Combined++
		default:
			if err := deleteMealRequirement(ctx, tx, r.mealID, dupID); err != nil {
				return err
			}
			report.UnitMismatches++
		}
	}
	return nil
}

func deleteMealRequirement(ctx context.Context, tx *sql.Tx, mealID, ingredientID int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM meal_ingredients WHERE meal_id = ? AND ingredient_id = ?`,
		mealID, ingredientID); err != nil {
		return fmt.Errorf("failed to delete redundant meal requirement: %w", err)
	}
	return nil
}

// mergeInventory repoints a duplicate's stock rows. A user who stocked
// both identities gets the quantities summed when units match; mismatched
// units keep both rows (the unit-scoped unique key permits that) and are
// flagged for manual reconciliation.
func mergeInventory(ctx context.Context, tx *sql.Tx, primaryID, dupID int64, report *MergeReport) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT inventory_id, user_id, quantity, unit FROM inventory WHERE ingredient_id = ?`, dupID)
	if err != nil {
		return fmt.Errorf("failed to load inventory for ingredient %d: %w", dupID, err)
	}
	type stock struct {
		id       int64
		userID   int64
		quantity float64
		unit     string
	}
	var stocks []stock
	for rows.Next() {
		var s stock
		if err := rows.Scan(&s.id, &s.userID, &s.quantity, &s.unit); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan inventory row: %w", err)
		}
		stocks = append(stocks, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate inventory rows: %w", err)
	}
	rows.Close()

	for _, s := range stocks {
		var primaryRowID int64
		err := tx.QueryRowContext(ctx,
			`SELECT inventory_id FROM inventory WHERE user_id = ? AND ingredient_id = ? AND unit = ?`,
			s.userID, primaryID, s.unit).Scan(&primaryRowID)
		switch {
		case err == sql.ErrNoRows:
			if _, err := tx.ExecContext(ctx,
				`UPDATE inventory SET ingredient_id = ? WHERE inventory_id = ?`,
				primaryID, s.id); err != nil {
				return fmt.Errorf("failed to repoint inventory row %d: %w", s.id, err)
			}
			report.Repointed++
			if flagged, err := hasOtherUnitStock(ctx, tx, s.userID, primaryID, s.unit); err != nil {
				return err
			} else if flagged {
				report.UnitMismatches++
			}
		case err != nil:
			return fmt.Errorf("failed to check colliding inventory row: %w", err)
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE inventory SET quantity = quantity + ? WHERE inventory_id = ?`,
				s.quantity, primaryRowID); err != nil {
				return fmt.Errorf("failed to combine inventory row: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM inventory WHERE inventory_id = ?`, s.id); err != nil {
				return fmt.Errorf("failed to delete redundant inventory row: %w", err)
			}
			report.Combined++
		}
	}
	return nil
}

// hasOtherUnitStock reports whether the user holds the primary ingredient
// under a different unit, which leaves two stock rows an admin must
// reconcile by hand.
func hasOtherUnitStock(ctx context.Context, tx *sql.Tx, userID, ingredientID int64, unit string) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inventory WHERE user_id = ? AND ingredient_id = ? AND unit <> ?`,
		userID, ingredientID, unit).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check for mismatched stock units: %w", err)
	}
	return n > 0, nil
}

// mergeGroceryItems repoints a duplicate's grocery lines, combining
// same-unit lines per user and marking mismatched-unit lines for review.
func mergeGroceryItems(ctx context.Context, tx *sql.Tx, primaryID, dupID int64, report *MergeReport) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT item_id, user_id, quantity, unit FROM grocery_list_items WHERE ingredient_id = ?`, dupID)
	if err != nil {
		return fmt.Errorf("failed to load grocery lines for ingredient %d: %w", dupID, err)
	}
	type line struct {
		id       int64
		userID   int64
		quantity float64
		unit     string
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.id, &l.userID, &l.quantity, &l.unit); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan grocery line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate grocery lines: %w", err)
	}
	rows.Close()

	for _, l := range lines {
		var primaryItemID int64
		err := tx.QueryRowContext(ctx,
			`SELECT item_id FROM grocery_list_items
			 WHERE user_id = ? AND ingredient_id = ? AND unit = ?
			 ORDER BY item_id LIMIT 1`,
			l.userID, primaryID, l.unit).Scan(&primaryItemID)
		switch {
		case err == sql.ErrNoRows:
			if _, err := tx.ExecContext(ctx,
				`UPDATE grocery_list_items SET ingredient_id = ? WHERE item_id = ?`,
				primaryID, l.id); err != nil {
				return fmt.Errorf("failed to repoint grocery line %d: %w", l.id, err)
			}
			report.Repointed++
			if err := flagMismatchedGroceryUnits(ctx, tx, l.userID, primaryID, l.unit, l.id, report); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("failed to check colliding grocery line: %w", err)
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE grocery_list_items SET quantity = quantity + ?, owned = FALSE WHERE item_id = ?`,
				l.quantity, primaryItemID); err != nil {
				return fmt.Errorf("failed to combine grocery line: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM grocery_list_items WHERE item_id = ?`, l.id); err != nil {
				return fmt.Errorf("failed to delete redundant grocery line: %w", err)
			}
			report.Combined++
		}
	}
	return nil
}

// flagMismatchedGroceryUnits marks the repointed line and any same-user
// lines for the primary under a different unit as needing manual review.
func flagMismatchedGroceryUnits(ctx context.Context, tx *sql.Tx, userID, ingredientID int64, unit string, repointedID int64, report *MergeReport) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE grocery_list_items SET needs_review = TRUE
		 WHERE user_id = ? AND ingredient_id = ? AND unit <> ?`,
		userID, ingredientID, unit)
	if err != nil {
		return fmt.Errorf("failed to flag mismatched grocery lines: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE grocery_list_items SET needs_review = TRUE WHERE item_id = ?`, repointedID); err != nil {
			return fmt.Errorf("failed to flag repointed grocery line: %w", err)
		}
		report.UnitMismatches += int(affected)
	}
	return nil
}

func deleteIngredients(ctx context.Context, tx *sql.Tx, ids []int64) error {
	query := `DELETE FROM ingredients WHERE ingredient_id IN (` + placeholders(len(ids)) + `)`
	if _, err := tx.ExecContext(ctx, query, int64Args(ids)...); err != nil {
		return fmt.Errorf("failed to delete merged ingredients: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// wrapBusy maps sqlite lock contention to a retryable Conflict; anything
// else stays an internal error.
func wrapBusy(err error, msg string) error {
	if err == nil {
		return nil
	}
	text := err.Error()
	if strings.Contains(text, "SQLITE_BUSY") || strings.Contains(text, "database is locked") {
		return apperr.Wrap(apperr.KindConflict, err, "%s", msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
