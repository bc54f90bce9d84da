package book

import "time"

// Status describes the physical state of a catalog entry.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDamaged  Status = "damaged"
)

// CategoryAll selects every category.
const CategoryAll = "All"

// Book is a catalog entry. Quantity and Available are informational; loans do
// not adjust them.
type Book struct {
	ID            int64     `json:"id" db:"id" yaml:"id"`
	Title         string    `json:"title" db:"title" yaml:"title"`
	Author        string    `json:"author" db:"author" yaml:"author"`
	ISBN          string    `json:"isbn,omitempty" db:"isbn" yaml:"isbn"`
	Publisher     string    `json:"publisher,omitempty" db:"publisher" yaml:"publisher"`
	PublishedYear int       `json:"published_year,omitempty" db:"published_year" yaml:"published_year"`
	Category      string    `json:"category,omitempty" db:"category" yaml:"category"`
	Pages         int       `json:"pages,omitempty" db:"pages" yaml:"pages"`
	Language      string    `json:"language,omitempty" db:"language" yaml:"language"`
	Description   string    `json:"description,omitempty" db:"description" yaml:"description"`
	CoverImage    string    `json:"cover_image,omitempty" db:"cover_image" yaml:"cover_image"`
	Quantity      int       `json:"quantity" db:"quantity" yaml:"quantity"`
	Available     int       `json:"available" db:"available" yaml:"available"`
	Status        Status    `json:"status" db:"status" yaml:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at" yaml:"-"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at" yaml:"-"`
}
