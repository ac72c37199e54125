package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// AddFavorite marks a food item as a favorite of a user. The ids come from
// ?userId=&foodItemId= or, when the query is empty, from a JSON body.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, itemID, err := favoriteTarget(w, r)
	if err == nil {
		err = authorizeUser(r, userID)
	}
	if err != nil {
		fail(w, r, err)
		return
	}

	added, err := h.svc.Favorites.Add(r.Context(), userID, itemID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !added {
		writeMessage(w, http.StatusOK, "Food item already in favorites")
		return
	}
	writeMessage(w, http.StatusCreated, "Food item added to favorites")
}

func favoriteTarget(w http.ResponseWriter, r *http.Request) (userID, itemID int64, err error) {
	q := r.URL.Query()
	if q.Has("userId") || q.Has("foodItemId") {
		if userID, err = queryID(r, "userId"); err != nil {
			return 0, 0, err
		}
		if itemID, err = queryID(r, "foodItemId"); err != nil {
			return 0, 0, err
		}
		return userID, itemID, nil
	}

	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "userId":
			userID, err = d.Int64()
		case "foodItemId":
			itemID, err = d.Int64()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return 0, 0, err
	}
	if userID <= 0 || itemID <= 0 {
		return 0, 0, badRequest("userId and foodItemId must be positive integers")
	}
	return userID, itemID, nil
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err == nil {
		err = authorizeUser(r, userID)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	items, err := h.svc.Favorites.List(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeArr(e, items, encodeItem) })
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err == nil {
		err = authorizeUser(r, userID)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	itemID, err := pathID(r, "foodItemId")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.Favorites.Remove(r.Context(), userID, itemID); err != nil {
		fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Food item removed from favorites")
}
