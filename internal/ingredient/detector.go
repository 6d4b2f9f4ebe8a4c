package ingredient

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DetectOptions select how aggressively display names are normalized
// before grouping. The zero value (case-fold and whitespace trim only) is
// deliberately conservative: plural and qualifier stripping can merge
// genuinely distinct ingredients, so both are opt-in.
type DetectOptions struct {
	StripPlurals    bool
	StripQualifiers bool
}

// Member is one ingredient inside a duplicate group, with the usage count
// an admin needs to pick the canonical identity.
type Member struct {
	ID         int64  `json:"ingredient_id"`
	Name       string `json:"ingredient_name"`
	UsageCount int64  `json:"usage_count"`
}

// DuplicateGroup is a set of ingredient rows judged to denote the same
// real-world item under name variants.
type DuplicateGroup struct {
	Key              string   `json:"normalized_name"`
	DuplicateCount   int      `json:"duplicate_count"`
	IngredientIDs    []int64  `json:"ingredient_ids"`
	Members          []Member `json:"members"`
	SuggestedPrimary int64    `json:"suggested_primary_id"`
}

var parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)

// Normalize reduces a display name to its grouping key.
func Normalize(name string, opts DetectOptions) string {
	if opts.StripQualifiers {
		name = parenthetical.ReplaceAllString(name, " ")
	}
	// Case-fold and collapse internal whitespace.
	words := strings.Fields(strings.ToLower(name))
	if opts.StripPlurals && len(words) > 0 {
		last := len(words) - 1
		words[last] = singularize(words[last])
	}
	return strings.Join(words, " ")
}

// singularize strips trivial English plurals. Only the obvious suffix
// forms are handled; anything cleverer belongs to a human reviewer.
func singularize(word string) string {
	switch {
	case len(word) > 3 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 3 && strings.HasSuffix(word, "oes"):
		return word[:len(word)-2]
	case len(word) > 2 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	default:
		return word
	}
}

// DetectDuplicates scans the full catalog and groups ingredients by
// normalized display name. Groups with more than one member are candidate
// duplicate sets; each member carries its usage count and the member with
// the highest usage is suggested as the canonical identity.
func (c *Catalog) DetectDuplicates(ctx context.Context, opts DetectOptions) ([]DuplicateGroup, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string][]Ingredient)
	for _, ing := range all {
		key := Normalize(ing.Name, opts)
		if key == "" {
			continue
		}
		byKey[key] = append(byKey[key], ing)
	}

	var groups []DuplicateGroup
	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}

		group := DuplicateGroup{Key: key, DuplicateCount: len(members)}
		for _, ing := range members {
			count, err := c.UsageCount(ctx, ing.ID)
			if err != nil {
				return nil, err
			}
			group.IngredientIDs = append(group.IngredientIDs, ing.ID)
			group.Members = append(group.Members, Member{ID: ing.ID, Name: ing.Name, UsageCount: count})
		}

		sort.Slice(group.Members, func(i, j int) bool {
			if group.Members[i].UsageCount != group.Members[j].UsageCount {
				return group.Members[i].UsageCount > group.Members[j].UsageCount
			}
			return group.Members[i].ID < group.Members[j].ID
		})
		sort.Slice(group.IngredientIDs, func(i, j int) bool {
			return group.IngredientIDs[i] < group.IngredientIDs[j]
		})
		group.SuggestedPrimary = group.Members[0].ID
		groups = append(groups, group)
	}

	// Largest groups first, matching the original duplicate report.
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].DuplicateCount != groups[j].DuplicateCount {
			return groups[i].DuplicateCount > groups[j].DuplicateCount
		}
		return groups[i].Key < groups[j].Key
	})
	return groups, nil
}

// ExactDuplicates reports ingredients sharing a byte-identical display
// name, straight from SQL. This is the fast path behind the admin
// duplicates page; DetectDuplicates is the heuristic superset.
func (c *Catalog) ExactDuplicates(ctx context.Context) ([]DuplicateGroup, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT ingredient_name, COUNT(*) AS duplicate_count,
		        GROUP_CONCAT(ingredient_id) AS ingredient_ids
		 FROM ingredients
		 GROUP BY ingredient_name
		 HAVING COUNT(*) > 1
		 ORDER BY duplicate_count DESC, ingredient_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query exact duplicates: %w", err)
	}
	defer rows.Close()

	var groups []DuplicateGroup
	for rows.Next() {
		var (
			group  DuplicateGroup
			idsCSV string
		)
		if err := rows.Scan(&group.Key, &group.DuplicateCount, &idsCSV); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate row: %w", err)
		}
		for _, field := range strings.Split(idsCSV, ",") {
			var id int64
			if _, err := fmt.Sscanf(field, "%d", &id); err != nil {
				return nil, fmt.Errorf("failed to parse ingredient id %q: %w", field, err)
			}
			group.IngredientIDs = append(group.IngredientIDs, id)
		}
		sort.Slice(group.IngredientIDs, func(i, j int) bool {
			return group.IngredientIDs[i] < group.IngredientIDs[j]
		})
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate duplicate rows: %w", err)
	}
	return groups, nil
}
