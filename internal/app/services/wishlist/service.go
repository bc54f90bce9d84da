package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/puskata/library-service/internal/app/domain/book"
	"github.com/puskata/library-service/internal/app/domain/wishlist"
	"github.com/puskata/library-service/internal/app/latency"
	"github.com/puskata/library-service/internal/app/metrics"
	"github.com/puskata/library-service/internal/app/storage"
	"github.com/puskata/library-service/pkg/logger"
)

// Service manages saved-for-later books.
type Service struct {
	items storage.WishlistStore
	books storage.BookStore
	delay latency.Simulator
	log   *logger.Logger
}

// New constructs a wishlist service.
func New(items storage.WishlistStore, books storage.BookStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("wishlist")
	}
	return &Service{items: items, books: books, log: log}
}

// WithLatency sets the simulated round-trip delay.
func (s *Service) WithLatency(sim latency.Simulator) *Service {
	s.delay = sim
	return s
}

// ListForUser returns userID's entries with their books attached.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]wishlist.Item, error) {
	if err := s.delay.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	items, err := s.items.ListWishlistItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Book, err = s.lookupBook(ctx, items[i].BookID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Add saves bookID for userID. Saving the same book twice creates two entries.
func (s *Service) Add(ctx context.Context, userID, bookID int64) (wishlist.Item, error) {
	if err := s.delay.Wait(ctx, latency.Read); err != nil {
		return wishlist.Item{}, err
	}
	return s.add(ctx, userID, bookID)
}

// Get returns a single entry without its book.
func (s *Service) Get(ctx context.Context, id int64) (wishlist.Item, error) {
	if err := s.delay.Wait(ctx, latency.Fast); err != nil {
		return wishlist.Item{}, err
	}
	return s.items.GetWishlistItem(ctx, id)
}

// Remove deletes an entry. Unknown ids are not an error.
func (s *Service) Remove(ctx context.Context, id int64) error {
	if err := s.delay.Wait(ctx, latency.Read); err != nil {
		return err
	}
	return s.remove(ctx, id)
}

// Check reports whether userID has saved bookID.
func (s *Service) Check(ctx context.Context, userID, bookID int64) (bool, error) {
	if err := s.delay.Wait(ctx, latency.Fast); err != nil {
		return false, err
	}
	_, found, err := s.find(ctx, userID, bookID)
	return found, err
}

// Toggle removes the first entry for the pair if one exists and adds one
// otherwise. It reports whether the book is saved afterwards.
func (s *Service) Toggle(ctx context.Context, userID, bookID int64) (bool, error) {
	if err := s.delay.Wait(ctx, latency.Read); err != nil {
		return false, err
	}
	existing, found, err := s.find(ctx, userID, bookID)
	if err != nil {
		return false, err
	}
	if found {
		return false, s.remove(ctx, existing.ID)
	}
	if _, err := s.add(ctx, userID, bookID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) add(ctx context.Context, userID, bookID int64) (wishlist.Item, error) {
	b, err := s.lookupBook(ctx, bookID)
	if err != nil {
		return wishlist.Item{}, err
	}
	created, err := s.items.CreateWishlistItem(ctx, wishlist.Item{
		UserID:    userID,
		BookID:    bookID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return wishlist.Item{}, fmt.Errorf("save wishlist item: %w", err)
	}
	created.Book = b

	metrics.RecordWishlistChange("add")
	s.log.WithField("user_id", userID).WithField("book_id", bookID).Info("book saved")
	return created, nil
}

func (s *Service) remove(ctx context.Context, id int64) error {
	if err := s.items.DeleteWishlistItem(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	metrics.RecordWishlistChange("remove")
	s.log.WithField("item_id", id).Info("wishlist item removed")
	return nil
}

func (s *Service) find(ctx context.Context, userID, bookID int64) (wishlist.Item, bool, error) {
	items, err := s.items.ListWishlistItems(ctx, userID)
	if err != nil {
		return wishlist.Item{}, false, err
	}
	for _, item := range items {
		if item.BookID == bookID {
			return item, true, nil
		}
	}
	return wishlist.Item{}, false, nil
}

func (s *Service) lookupBook(ctx context.Context, id int64) (*book.Book, error) {
	b, err := s.books.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}
