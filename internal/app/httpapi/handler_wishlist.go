package httpapi

import (
	"errors"
	"net/http"

	"github.com/puskata/library-service/internal/app/storage"
)

type wishlistPayload struct {
	UserID int64 `json:"user_id"`
	BookID int64 `json:"book_id"`
}

func (h *handler) decodeWishlist(r *http.Request) (int64, int64, error) {
	var payload wishlistPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		return 0, 0, err
	}
	if payload.BookID <= 0 {
		return 0, 0, invalid("book_id is required")
	}
	userID, err := targetUser(r, payload.UserID)
	if err != nil {
		return 0, 0, err
	}
	return userID, payload.BookID, nil
}

func (h *handler) userWishlist(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if err := authorizeUser(r, userID); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	items, err := h.app.Wishlist.ListForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Wishlist fetched successfully", items)
}

func (h *handler) addWishlist(w http.ResponseWriter, r *http.Request) {
	userID, bookID, err := h.decodeWishlist(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	item, err := h.app.Wishlist.Add(r.Context(), userID, bookID)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Added to wishlist", item)
}

func (h *handler) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	userID, bookID, err := h.decodeWishlist(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	saved, err := h.app.Wishlist.Toggle(r.Context(), userID, bookID)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	message := "Removed from wishlist"
	if saved {
		message = "Added to wishlist"
	}
	writeOK(w, message, saved)
}

func (h *handler) removeWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	// Unknown ids still succeed; known ones must belong to the caller.
	item, err := h.app.Wishlist.Get(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		h.writeError(w, r, err, "")
		return
	default:
		if err := authorizeUser(r, item.UserID); err != nil {
			h.writeError(w, r, err, "")
			return
		}
	}
	if err := h.app.Wishlist.Remove(r.Context(), id); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Removed from wishlist", nil)
}

func (h *handler) checkWishlist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bookID, err := parseID(q.Get("book_id"), "book_id")
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	var requested int64
	if raw := q.Get("user_id"); raw != "" {
		if requested, err = parseID(raw, "user_id"); err != nil {
			h.writeError(w, r, err, "")
			return
		}
	}
	userID, err := targetUser(r, requested)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	saved, err := h.app.Wishlist.Check(r.Context(), userID, bookID)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Wishlist checked", saved)
}
