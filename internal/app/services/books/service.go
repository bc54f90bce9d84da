package books

import (
	"context"
	"strings"

	"github.com/puskata/library-service/internal/app/domain/book"
	"github.com/puskata/library-service/internal/app/latency"
	"github.com/puskata/library-service/internal/app/storage"
	"github.com/puskata/library-service/pkg/logger"
)

// Service serves read-only catalog queries.
type Service struct {
	store storage.BookStore
	delay latency.Simulator
	log   *logger.Logger
}

// New constructs a catalog service.
func New(store storage.BookStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("books")
	}
	return &Service{store: store, log: log}
}

// WithLatency sets the simulated round-trip delay.
func (s *Service) WithLatency(sim latency.Simulator) *Service {
	s.delay = sim
	return s
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]book.Book, error) {
	if err := s.delay.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	return s.store.ListBooks(ctx)
}

// Get returns one book. Unknown ids yield storage.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (book.Book, error) {
	if err := s.delay.Wait(ctx, latency.Read); err != nil {
		return book.Book{}, err
	}
	return s.store.GetBook(ctx, id)
}

// Search matches query case-insensitively against title or author.
func (s *Service) Search(ctx context.Context, query string) ([]book.Book, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterQuery(all, query), nil
}

// ByCategory returns books in exactly category. book.CategoryAll returns
// everything.
func (s *Service) ByCategory(ctx context.Context, category string) ([]book.Book, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterCategory(all, category), nil
}

// Browse applies the category filter followed by the search filter.
func (s *Service) Browse(ctx context.Context, category, query string) ([]book.Book, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := filterQuery(filterCategory(all, category), query)
	s.log.WithField("category", category).WithField("results", len(out)).Debug("catalog browsed")
	return out, nil
}

// Categories returns book.CategoryAll followed by each catalog category in
// first-seen order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{book.CategoryAll: true}
	out := []string{book.CategoryAll}
	for _, b := range all {
		if b.Category == "" || seen[b.Category] {
			continue
		}
		seen[b.Category] = true
		out = append(out, b.Category)
	}
	return out, nil
}

func filterQuery(in []book.Book, query string) []book.Book {
	q := strings.ToLower(query)
	out := make([]book.Book, 0, len(in))
	for _, b := range in {
		if strings.Contains(strings.ToLower(b.Title), q) || strings.Contains(strings.ToLower(b.Author), q) {
			out = append(out, b)
		}
	}
	return out
}

func filterCategory(in []book.Book, category string) []book.Book {
	if category == "" || category == book.CategoryAll {
		return in
	}
	out := make([]book.Book, 0, len(in))
	for _, b := range in {
		if b.Category == category {
			out = append(out, b)
		}
	}
	return out
}
