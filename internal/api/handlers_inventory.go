package api

import (
	"net/http"

	"mealbuddy/internal/inventory"
)

func (s *Server) listInventory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	sortBy := inventory.SortBy(r.URL.Query().Get("sort_by"))
	if sortBy == "" {
		sortBy = inventory.SortByName
	}
	items, err := s.inventory.ListByUser(r.Context(), userID, sortBy)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"user_id": userID, "inventory": items, "count": len(items)})
}

// addInventory either stocks an ingredient directly or, when
// grocery_item_id is set, commits a purchased grocery line through the
// reconciler bridge.
func (s *Server) addInventory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	var req struct {
		GroceryItemID  int64   `json:"grocery_item_id"`
		IngredientID   int64   `json:"ingredient_id"`
		Quantity       float64 `json:"quantity"`
		Unit           string  `json:"unit"`
		ExpirationDate *string `json:"expiration_date"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	if req.GroceryItemID != 0 {
		item, err := s.reconciler.CommitToInventory(r.Context(), req.GroceryItemID, userID)
		if err != nil {
			respondError(w, s.logger, err)
			return
		}
		respond(w, http.StatusCreated, item)
		return
	}

	item, err := s.inventory.Add(r.Context(), userID, req.IngredientID, req.Quantity, req.Unit, req.ExpirationDate)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusCreated, item)
}

func (s *Server) commitGroceryItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	itemID, err := pathID(r, "item_id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	item, err := s.reconciler.CommitToInventory(r.Context(), itemID, userID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusCreated, item)
}

func (s *Server) getInventoryItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	ingredientID, err := pathID(r, "ingredient_id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	item, err := s.inventory.GetItem(r.Context(), userID, ingredientID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (s *Server) updateInventoryItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	ingredientID, err := pathID(r, "ingredient_id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	var req struct {
		Quantity float64 `json:"quantity"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.inventory.UpdateQuantity(r.Context(), userID, ingredientID, req.Quantity); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"user_id": userID, "ingredient_id": ingredientID, "quantity": req.Quantity})
}

func (s *Server) removeInventoryItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	ingredientID, err := pathID(r, "ingredient_id")
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if err := s.inventory.Remove(r.Context(), userID, ingredientID); err != nil {
		respondError(w, s.logger, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
