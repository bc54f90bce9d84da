package wishlist

import (
	"time"

	"github.com/puskata/library-service/internal/app/domain/book"
)

// Item saves a book for later on a user's shelf.
type Item struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	BookID    int64      `json:"book_id" db:"book_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	Book      *book.Book `json:"book,omitempty" db:"-"`
}
