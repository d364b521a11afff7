package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"lawjournal/internal/logger"
	"lawjournal/internal/models"
	"lawjournal/internal/utils"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const categoriesCacheKey = "articles:categories"

// Cache keys for rendered views of the published articles. Any moderation
// change drops them.
const (
	FeedCacheKey    = "published:feed"
	SitemapCacheKey = "published:sitemap"
)

// ArticleInput is what a visitor fills in on the submission form.
type ArticleInput struct {
	Title    string
	Content  string
	Author   string
	Email    string
	Category string
}

// FileUpload is an optional attachment sent along with a submission.
type FileUpload struct {
	Kind     UploadKind
	Filename string
	Size     int64
	Body     io.Reader
}

// ArticleFilter narrows ListArticles. Zero values mean "no filter".
type ArticleFilter struct {
	Status   models.ArticleStatus
	Category string
	Search   string
}

type ArticleService struct {
	db      *gorm.DB
	storage Storage
	cache   *utils.GlobalCache
	log     *logrus.Entry
	clock   func() time.Time
}

func NewArticleService(db *gorm.DB, storage Storage) *ArticleService {
	return &ArticleService{
		db:      db,
		storage: storage,
		cache:   utils.NewCache(64),
		log:     logger.For("articles"),
		clock:   utcNow,
	}
}

// Cache is shared with the moderation workflow and the feed handlers, so a
// status change can drop everything derived from the published set.
func (s *ArticleService) Cache() *utils.GlobalCache { return s.cache }

func (in ArticleInput) validate() error {
	missing := required(
		[2]string{"title", in.Title},
		[2]string{"content", in.Content},
		[2]string{"author", in.Author},
		[2]string{"email", in.Email},
		[2]string{"category", in.Category},
	)
	if len(missing) > 0 {
		return validationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	if err := checkLines(
		lineField{"title", in.Title, maxTitleLen},
		lineField{"author", in.Author, maxNameLen},
		lineField{"email", in.Email, maxEmailLen},
		lineField{"category", in.Category, maxCategoryLen},
	); err != nil {
		return err
	}
	if !validEmail(strings.TrimSpace(in.Email)) {
		return validationError("invalid email address")
	}
	return nil
}

// CreateArticle stores a new submission in the pending state. Attachments are
// checked before anything is written; the row is inserted and the files saved
// inside one transaction, so a failed write leaves neither a row nor a file.
func (s *ArticleService) CreateArticle(ctx context.Context, in ArticleInput, files ...FileUpload) (*models.Article, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	article := models.Article{
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		Author:      strings.TrimSpace(in.Author),
		Email:       strings.TrimSpace(in.Email),
		Category:    strings.TrimSpace(in.Category),
		Status:      models.StatusPending,
		SubmittedAt: now,
		PostedAt:    now,
	}

	refs := make([]string, len(files))
	for i, f := range files {
		if s.storage == nil {
			return nil, validationError("file uploads are not enabled")
		}
		ref, err := s.storage.Prepare(f.Kind, f.Filename, f.Size)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
		switch f.Kind {
		case KindCoverImage:
			article.CoverImage = ref
		case KindDocument:
			article.DocumentFilename = ref
		}
	}

	var saved []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&article).Error; err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
		for i, f := range files {
			if err := s.storage.Save(refs[i], f.Body); err != nil {
				return err
			}
			saved = append(saved, refs[i])
		}
		return nil
	})
	if err != nil {
		for _, ref := range saved {
			if rmErr := s.storage.Remove(ref); rmErr != nil {
				s.log.Warnf("remove orphaned upload %s: %v", ref, rmErr)
			}
		}
		return nil, err
	}

	s.cache.Delete(categoriesCacheKey)
	s.log.WithField("article_id", article.ID).Infof("article submitted: %q by %s", article.Title, article.Author)
	return &article, nil
}

func (s *ArticleService) GetArticle(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, articleNotFound(id)
		}
		return nil, fmt.Errorf("load article %d: %w", id, err)
	}
	return &article, nil
}

// GetVisibleArticle hides unpublished articles from everyone but admins.
func (s *ArticleService) GetVisibleArticle(ctx context.Context, actor Actor, id uint) (*models.Article, error) {
	article, err := s.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if !article.IsPublished() && !actor.IsAdmin() {
		return nil, articleNotFound(id)
	}
	return article, nil
}

// ListArticles returns one page of articles, newest first. A page past the
// end yields no items and no error.
func (s *ArticleService) ListArticles(ctx context.Context, filter ArticleFilter, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = PublicPageSize
	}

	var total int64
	if err := s.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	// compare pages, not offsets: (page-1)*pageSize overflows for huge pages
	items := make([]models.Article, 0, pageSize)
	lastPage := (total + int64(pageSize) - 1) / int64(pageSize)
	if int64(page) <= lastPage {
		if err := s.filtered(ctx, filter).
			Order("posted_at DESC, id DESC").
			Limit(pageSize).
			Offset((page - 1) * pageSize).
			Find(&items).Error; err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
	}

	return newPage(items, total, page, pageSize), nil
}

func (s *ArticleService) filtered(ctx context.Context, filter ArticleFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Article{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *ArticleService) IncrementViews(ctx context.Context, id uint) error {
	return s.increment(ctx, id, "views")
}

func (s *ArticleService) IncrementLikes(ctx context.Context, id uint) error {
	return s.increment(ctx, id, "likes")
}

// increment is a single UPDATE col = col + 1, so concurrent calls never lose counts.
func (s *ArticleService) increment(ctx context.Context, id uint, column string) error {
	res := s.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("increment %s for article %d: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return articleNotFound(id)
	}
	return nil
}

// Categories lists the distinct categories used by any article, whatever its status.
func (s *ArticleService) Categories(ctx context.Context) ([]string, error) {
	if cached, ok := s.cache.Get(categoriesCacheKey).([]string); ok {
		return cached, nil
	}

	var categories []string
	if err := s.db.WithContext(ctx).Model(&models.Article{}).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	s.cache.Set(categoriesCacheKey, categories, 5*time.Minute)
	return categories, nil
}

// CountArticles counts articles in every state.
func (s *ArticleService) CountArticles(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Article{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return total, nil
}

// Latest returns the most recent published articles, used by the feed and sitemap.
func (s *ArticleService) Latest(ctx context.Context, limit int) ([]models.Article, error) {
	var articles []models.Article
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusApproved).
		Order("posted_at DESC, id DESC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("latest articles: %w", err)
	}
	return articles, nil
}
