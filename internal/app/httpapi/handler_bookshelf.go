package httpapi

import "net/http"

func (h *handler) shelfOwner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := pathID(r, "userId")
	if err == nil {
		err = authorizeUser(r, userID)
	}
	if err != nil {
		h.writeError(w, r, err, "")
		return 0, false
	}
	return userID, true
}

func (h *handler) shelf(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.shelfOwner(w, r)
	if !ok {
		return
	}
	shelf, err := h.app.Bookshelf.Shelf(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Bookshelf fetched successfully", shelf)
}

func (h *handler) shelfReturn(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.shelfOwner(w, r)
	if !ok {
		return
	}
	loanID, err := pathID(r, "loanId")
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	shelf, err := h.app.Bookshelf.ReturnLoan(r.Context(), userID, loanID)
	if err != nil {
		h.writeError(w, r, err, "Loan not found")
		return
	}
	writeOK(w, "Book returned successfully", shelf)
}

func (h *handler) shelfRemoveSaved(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.shelfOwner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	shelf, err := h.app.Bookshelf.RemoveSaved(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err, "Wishlist item not found")
		return
	}
	writeOK(w, "Removed from wishlist", shelf)
}
