package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Frans06/website/internal/models"
)

// DB is the subset of *pgxpool.Pool the repositories use. Every call acquires
// a pooled connection for its own duration and releases it on return.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var postColumns = []string{
	"id", "title", "content", "user_id", "excerpt",
	"slug", "category", "published", "created_at", "updated_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostRepository is the only component that issues queries against posts.
type PostRepository struct {
	db       DB
	timeout  time.Duration
	validate *validator.Validate
}

type RepoOption func(*PostRepository)

// WithCallTimeout bounds each repository call, including the wait for a free
// pooled connection. Exceeding it yields ErrConnectionUnavailable.
func WithCallTimeout(d time.Duration) RepoOption {
	return func(r *PostRepository) { r.timeout = d }
}

func NewPostRepository(db DB, opts ...RepoOption) *PostRepository {
	r := &PostRepository{db: db, validate: validator.New()}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *PostRepository) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Create inserts a post and returns the persisted row with its server-assigned
// id and timestamps. Duplicate slugs and unknown users fail with
// ErrConstraintViolation.
func (r *PostRepository) Create(ctx context.Context, np models.NewPost) (*models.Post, error) {
	np.Title = strings.TrimSpace(np.Title)
	if err := r.validate.Struct(np); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPost, err)
	}
	s := np.Slug
	if s == "" {
		s = slug.Make(np.Title)
	}
	if !slug.IsSlug(s) {
		return nil, fmt.Errorf("%w: slug %q is not url-safe", ErrInvalidPost, s)
	}
	if len(s) > models.MaxSlugLength {
		return nil, fmt.Errorf("%w: slug exceeds %d characters", ErrInvalidPost, models.MaxSlugLength)
	}
	category := np.Category
	if category == "" {
		category = models.DefaultCategory
	}

	query, args, err := squirrel.Insert("posts").
		Columns("title", "content", "user_id", "excerpt", "slug", "category", "published").
		Values(np.Title, np.Content, np.UserID, np.Excerpt, s, category, np.Published).
		Suffix("RETURNING " + strings.Join(postColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	ctx, cancel := r.callContext(ctx)
	defer cancel()
	var p models.Post
	if err := pgxscan.Get(ctx, r.db, &p, query, args...); err != nil {
		return nil, translate("create post", err)
	}
	return &p, nil
}

// GetBySlug is an exact, case-sensitive lookup.
func (r *PostRepository) GetBySlug(ctx context.Context, s string) (*models.Post, error) {
	return r.getOne(ctx, "get post by slug", squirrel.Eq{"slug": s})
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return r.getOne(ctx, "get post by id", squirrel.Expr("id = ?", id))
}

func (r *PostRepository) getOne(ctx context.Context, op string, pred squirrel.Sqlizer) (*models.Post, error) {
	query, args, err := squirrel.Select(postColumns...).
		From("posts").
		Where(pred).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	ctx, cancel := r.callContext(ctx)
	defer cancel()
	var p models.Post
	if err := pgxscan.Get(ctx, r.db, &p, query, args...); err != nil {
		return nil, translate(op, err)
	}
	return &p, nil
}

// List returns the posts matching every predicate set in f, oldest first.
// SearchTerm is a case-insensitive substring match on title or excerpt;
// Category is exact unless empty or models.AllCategories.
func (r *PostRepository) List(ctx context.Context, f models.PostFilter) ([]models.Post, error) {
	sb := squirrel.Select(postColumns...).
		From("posts").
		PlaceholderFormat(squirrel.Dollar)
	if f.Category != "" && f.Category != models.AllCategories {
		sb = sb.Where(squirrel.Eq{"category": f.Category})
	}
	if f.SearchTerm != "" {
		pattern := "%" + likeEscaper.Replace(f.SearchTerm) + "%"
		sb = sb.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"excerpt": pattern},
		})
	}
	if f.Published != nil {
		sb = sb.Where(squirrel.Eq{"published": *f.Published})
	}
	query, args, err := sb.OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	ctx, cancel := r.callContext(ctx)
	defer cancel()
	posts := []models.Post{}
	if err := pgxscan.Select(ctx, r.db, &posts, query, args...); err != nil {
		return nil, translate("list posts", err)
	}
	return posts, nil
}
