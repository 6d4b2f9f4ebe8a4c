package inventory

// Item is one per-user stock row. Stock is keyed by
// (user, ingredient, unit): the same ingredient held in two units is two
// rows, since no unit conversion table exists.
type Item struct {
	ID             int64   `json:"inventory_id"`
	UserID         int64   `json:"user_id"`
	IngredientID   int64   `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name,omitempty"`
	Category       string  `json:"category,omitempty"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	ExpirationDate *string `json:"expiration_date"`
}
