package httpapi

import "net/http"

func (h *handler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.app.Books.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Books fetched successfully", books)
}

func (h *handler) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	b, err := h.app.Books.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Book not found")
		return
	}
	writeOK(w, "Book fetched successfully", b)
}

func (h *handler) searchBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.app.Books.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Search completed", books)
}

func (h *handler) booksByCategory(w http.ResponseWriter, r *http.Request) {
	books, err := h.app.Books.ByCategory(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Books fetched successfully", books)
}

func (h *handler) browseBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	books, err := h.app.Books.Browse(r.Context(), q.Get("category"), q.Get("q"))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Books fetched successfully", books)
}

func (h *handler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.app.Books.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Categories fetched successfully", categories)
}
