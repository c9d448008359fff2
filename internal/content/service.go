package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/Frans06/website/internal/logger"
	"github.com/Frans06/website/internal/models"
)

const (
	dateLayout     = "2006-01-02"
	wordsPerMinute = 200
)

// PostRepository is the storage surface the service reads and writes through.
type PostRepository interface {
	Create(ctx context.Context, np models.NewPost) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, f models.PostFilter) ([]models.Post, error)
}

// PostSummary is the listing shape of a post.
type PostSummary struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	ReadTime  string `json:"read_time"`
	Published bool   `json:"-"`
}

// PostDetail is a summary plus the rendered body.
type PostDetail struct {
	PostSummary
	ContentHTML string `json:"content_html"`
}

type Service struct {
	posts    PostRepository
	renderer Renderer
}

func NewService(posts PostRepository, renderer Renderer) *Service {
	return &Service{posts: posts, renderer: renderer}
}

// List returns summaries of the posts matching f. Storage errors are returned
// unchanged so callers can tell the store.Err* kinds apart.
func (s *Service) List(ctx context.Context, f models.PostFilter) ([]PostSummary, error) {
	posts, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]PostSummary, 0, len(posts))
	for i := range posts {
		out = append(out, summarize(&posts[i]))
	}
	return out, nil
}

// Get fetches a post by slug and renders its body. A render failure degrades
// to an empty body; the lookup result is still returned.
func (s *Service) Get(ctx context.Context, slug string) (*PostDetail, error) {
	p, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, p), nil
}

func (s *Service) Create(ctx context.Context, np models.NewPost) (*PostDetail, error) {
	p, err := s.posts.Create(ctx, np)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Post created", "slug", p.Slug, "user_id", p.UserID)
	return s.detail(ctx, p), nil
}

func (s *Service) detail(ctx context.Context, p *models.Post) *PostDetail {
	html, err := s.renderer.Render(p.Content)
	if err != nil {
		logger.FromContext(ctx).Warn("Rendering post body failed", "slug", p.Slug, "error", err)
		html = ""
	}
	return &PostDetail{PostSummary: summarize(p), ContentHTML: html}
}

func summarize(p *models.Post) PostSummary {
	excerpt := ""
	if p.Excerpt != nil {
		excerpt = *p.Excerpt
	}
	return PostSummary{
		Slug:      p.Slug,
		Title:     p.Title,
		Excerpt:   excerpt,
		Category:  p.Category,
		Date:      p.CreatedAt.UTC().Format(dateLayout),
		ReadTime:  ReadTime(p.Content),
		Published: p.Published,
	}
}

// ReadTime estimates reading time at 200 words per minute, rounded up, never
// below one minute.
func ReadTime(body string) string {
	words := len(strings.Fields(body))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}
