package services

import (
	"context"
	"fmt"
	"lawjournal/internal/logger"
	"lawjournal/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleReaders is one row of the per-article readership report.
type ArticleReaders struct {
	ArticleID uint
	Title     string
	Readers   int64
}

// Traffic is the admin dashboard summary. Windows end at the time it was computed.
type Traffic struct {
	TotalArticles int64
	TotalVisits   int64
	Daily         int64
	Weekly        int64
	Monthly       int64
	Yearly        int64
	PerArticle    []ArticleReaders
}

type VisitService struct {
	db    *gorm.DB
	log   *logrus.Entry
	clock func() time.Time
}

func NewVisitService(db *gorm.DB) *VisitService {
	return &VisitService{
		db:    db,
		log:   logger.For("visits"),
		clock: utcNow,
	}
}

// RecordVisit logs a read and bumps the view counter in one transaction.
func (s *VisitService) RecordVisit(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Article{}).
			Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment views for article %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return articleNotFound(id)
		}
		if err := tx.Create(&models.Visit{ArticleID: id, Timestamp: s.clock()}).Error; err != nil {
			return fmt.Errorf("insert visit for article %d: %w", id, err)
		}
		return nil
	})
}

// CountVisitsSince counts visits at or after cutoff.
func (s *VisitService) CountVisitsSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Visit{}).
		Where(clause.Gte{Column: clause.Column{Name: "timestamp"}, Value: cutoff.UTC()}).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

// ReadersPerArticle reports articles with at least one visit, busiest first.
func (s *VisitService) ReadersPerArticle(ctx context.Context) ([]ArticleReaders, error) {
	var rows []ArticleReaders
	err := s.db.WithContext(ctx).Table("articles").
		Select("articles.id AS article_id, articles.title AS title, COUNT(visits.id) AS readers").
		Joins("JOIN visits ON visits.article_id = articles.id").
		Group("articles.id, articles.title").
		Order("readers DESC, articles.title ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("readers per article: %w", err)
	}
	return rows, nil
}

// TrafficStats computes the dashboard numbers relative to now.
func (s *VisitService) TrafficStats(ctx context.Context, now time.Time) (*Traffic, error) {
	t := &Traffic{}
	if err := s.db.WithContext(ctx).Model(&models.Article{}).Count(&t.TotalArticles).Error; err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Visit{}).Count(&t.TotalVisits).Error; err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	windows := []struct {
		dst *int64
		ago time.Duration
	}{
		{&t.Daily, 24 * time.Hour},
		{&t.Weekly, 7 * 24 * time.Hour},
		{&t.Monthly, 30 * 24 * time.Hour},
		{&t.Yearly, 365 * 24 * time.Hour},
	}
	for _, w := range windows {
		n, err := s.CountVisitsSince(ctx, now.Add(-w.ago))
		if err != nil {
			return nil, err
		}
		*w.dst = n
	}

	per, err := s.ReadersPerArticle(ctx)
	if err != nil {
		return nil, err
	}
	t.PerArticle = per
	return t, nil
}
