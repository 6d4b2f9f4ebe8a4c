package ingredient

// Ingredient is a canonical ingredient identity. Display names are not
// unique; duplicate identities are consolidated by the merge engine.
type Ingredient struct {
	ID               int64   `json:"ingredient_id"`
	Name             string  `json:"ingredient_name"`
	Category         string  `json:"category"`
	StandardizedName *string `json:"standardized_name"`
}

// Usage counts how many dependent rows reference an ingredient, broken
// down by table. Meals + Inventory is the count shown to admins when
// choosing which duplicate should become canonical.
type Usage struct {
	Meals       int64 `json:"meal_ingredient_count"`
	Inventory   int64 `json:"inventory_count"`
	GroceryList int64 `json:"grocery_list_count"`
}

// Total returns the reference count across all dependent tables.
func (u Usage) Total() int64 {
	return u.Meals + u.Inventory + u.GroceryList
}
