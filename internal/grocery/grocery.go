package grocery

// Line is one row of a derived shopping list, keyed by (ingredient, unit).
// Lines whose requirement is fully covered by inventory are still listed
// with Owned set; the user must see what is already covered.
type Line struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"ingredient_name"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit"`
	Required     float64 `json:"required_quantity"`
	Covered      float64 `json:"owned_covered"`
	ToBuy        float64 `json:"to_buy_quantity"`
	Owned        bool    `json:"owned"`
}

// ListItem is a materialized grocery line, independently mutable after
// creation: checking it off does not touch inventory unless explicitly
// committed.
type ListItem struct {
	ID           int64   `json:"item_id"`
	UserID       int64   `json:"user_id"`
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"ingredient_name,omitempty"`
	Category     string  `json:"category,omitempty"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Owned        bool    `json:"owned"`
	NeedsReview  bool    `json:"needs_review"`
}
