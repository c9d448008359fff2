package models

import (
	"time"

	"github.com/google/uuid"
)

// AllCategories is the category sentinel that disables category filtering.
const AllCategories = "All"

// DefaultCategory is applied when a new post does not name one.
const DefaultCategory = "General"

// MaxSlugLength matches the posts.slug column width.
const MaxSlugLength = 255

// Post represents a row in the PostgreSQL posts table.
type Post struct {
	ID        uuid.UUID `json:"id"         db:"id"`
	Title     string    `json:"title"      db:"title"`
	Content   string    `json:"content"    db:"content"`
	UserID    uuid.UUID `json:"user_id"    db:"user_id"`
	Excerpt   *string   `json:"excerpt"    db:"excerpt"`
	Slug      string    `json:"slug"       db:"slug"`
	Category  string    `json:"category"   db:"category"`
	Published bool      `json:"published"  db:"published"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewPost carries the fields needed to insert a post. Slug is derived from
// Title when empty; Category falls back to DefaultCategory.
type NewPost struct {
	Title     string    `json:"title"     validate:"required,max=255"`
	Content   string    `json:"content"`
	UserID    uuid.UUID `json:"user_id"   validate:"required"`
	Slug      string    `json:"slug"      validate:"omitempty,max=255"`
	Excerpt   *string   `json:"excerpt"   validate:"omitempty,max=500"`
	Category  string    `json:"category"  validate:"omitempty,max=100"`
	Published bool      `json:"published"`
}

// PostFilter narrows List. Zero values disable a predicate; all set
// predicates must hold.
type PostFilter struct {
	Category   string
	SearchTerm string
	Published  *bool
}
