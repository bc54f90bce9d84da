package httpapi

import "net/http"

func (h *handler) userLoans(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if err := authorizeUser(r, userID); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	loans, err := h.app.Loans.ListForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Loans fetched successfully", loans)
}

func (h *handler) borrow(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID int64 `json:"user_id"`
		BookID int64 `json:"book_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if payload.BookID <= 0 {
		h.writeError(w, r, invalid("book_id is required"), "")
		return
	}
	userID, err := targetUser(r, payload.UserID)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	l, err := h.app.Loans.Borrow(r.Context(), userID, payload.BookID)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Borrow request submitted successfully", l)
}

func (h *handler) returnLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	current, err := h.app.Loans.Get(r.Context(), loanID)
	if err != nil {
		h.writeError(w, r, err, "Loan not found")
		return
	}
	if err := authorizeUser(r, current.UserID); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	l, err := h.app.Loans.Return(r.Context(), loanID)
	if err != nil {
		h.writeError(w, r, err, "Loan not found")
		return
	}
	writeOK(w, "Book returned successfully", l)
}

func (h *handler) approveLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	l, err := h.app.Loans.Approve(r.Context(), loanID)
	if err != nil {
		h.writeError(w, r, err, "Loan not found")
		return
	}
	writeOK(w, "Loan approved", l)
}

func (h *handler) rejectLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	var payload struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r.Body, &payload); err != nil {
			h.writeError(w, r, err, "")
			return
		}
	}
	l, err := h.app.Loans.Reject(r.Context(), loanID, payload.Reason)
	if err != nil {
		h.writeError(w, r, err, "Loan not found")
		return
	}
	writeOK(w, "Loan rejected", l)
}
