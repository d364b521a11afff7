package services

import (
	"context"
	"lawjournal/internal/models"
	"math"
)

const (
	PublicPageSize = 6
	AdminPageSize  = 3
)

// Page is one slice of an ordered article listing.
type Page struct {
	Items       []models.Article
	Total       int64
	CurrentPage int
	PerPage     int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
}

func newPage(items []models.Article, total int64, page, perPage int) *Page {
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return &Page{
		Items:       items,
		Total:       total,
		CurrentPage: page,
		PerPage:     perPage,
		TotalPages:  totalPages,
		HasPrev:     page > 1,
		HasNext:     page < totalPages,
	}
}

// PrevPage and NextPage are for templates; callers check HasPrev/HasNext first.
func (p *Page) PrevPage() int { return p.CurrentPage - 1 }
func (p *Page) NextPage() int { return p.CurrentPage + 1 }

// PublicFeed lists approved articles for the home page.
func (s *ArticleService) PublicFeed(ctx context.Context, category, search string, page int) (*Page, error) {
	return s.ListArticles(ctx, ArticleFilter{
		Status:   models.StatusApproved,
		Category: category,
		Search:   search,
	}, page, PublicPageSize)
}

// Queues holds the two moderation queues shown on the dashboard.
type Queues struct {
	Pending  *Page
	Approved *Page
}

// AdminQueues pages the pending and approved queues independently.
func (s *ArticleService) AdminQueues(ctx context.Context, actor Actor, pendingPage, approvedPage int) (*Queues, error) {
	if !actor.IsAdmin() {
		return nil, adminRequired()
	}

	pending, err := s.ListArticles(ctx, ArticleFilter{Status: models.StatusPending}, pendingPage, AdminPageSize)
	if err != nil {
		return nil, err
	}
	approved, err := s.ListArticles(ctx, ArticleFilter{Status: models.StatusApproved}, approvedPage, AdminPageSize)
	if err != nil {
		return nil, err
	}
	return &Queues{Pending: pending, Approved: approved}, nil
}
