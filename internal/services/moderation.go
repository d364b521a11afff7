package services

import (
	"context"
	"errors"
	"fmt"
	"lawjournal/internal/logger"
	"lawjournal/internal/models"
	"lawjournal/internal/utils"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ModerationNotifier is told about every status change. MailService implements it.
type ModerationNotifier interface {
	NotifyModeration(article models.Article)
}

// transitions lists the moderation moves an admin may make. A move to the
// current state is always allowed and changes nothing; nothing goes back to pending.
var transitions = map[models.ArticleStatus][]models.ArticleStatus{
	models.StatusPending:     {models.StatusApproved, models.StatusDisapproved},
	models.StatusApproved:    {models.StatusDisapproved},
	models.StatusDisapproved: {models.StatusApproved},
}

func canTransition(from, to models.ArticleStatus) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type ModerationService struct {
	db       *gorm.DB
	cache    *utils.GlobalCache
	notifier ModerationNotifier
	log      *logrus.Entry
}

// NewModerationService builds the workflow. cache holds the published views
// to drop on every change; cache and notifier may be nil.
func NewModerationService(db *gorm.DB, cache *utils.GlobalCache, notifier ModerationNotifier) *ModerationService {
	return &ModerationService{
		db:       db,
		cache:    cache,
		notifier: notifier,
		log:      logger.For("moderation"),
	}
}

func (s *ModerationService) Approve(ctx context.Context, actor Actor, id uint) (*models.Article, error) {
	return s.moveTo(ctx, actor, id, models.StatusApproved)
}

func (s *ModerationService) Disapprove(ctx context.Context, actor Actor, id uint) (*models.Article, error) {
	return s.moveTo(ctx, actor, id, models.StatusDisapproved)
}

// moveTo only writes the status column; views, likes and timestamps are kept.
func (s *ModerationService) moveTo(ctx context.Context, actor Actor, id uint, to models.ArticleStatus) (*models.Article, error) {
	if !actor.IsAdmin() {
		return nil, adminRequired()
	}

	var article models.Article
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&article, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return articleNotFound(id)
			}
			return fmt.Errorf("load article %d: %w", id, err)
		}
		if !canTransition(article.Status, to) {
			return kerrors.Conflict(ReasonBadTransition, fmt.Sprintf("article %d cannot move from %s to %s", id, article.Status, to))
		}
		if article.Status == to {
			return nil
		}
		// the status guard makes concurrent moves to the same state count once
		res := tx.Model(&models.Article{}).
			Where("id = ? AND status <> ?", id, to).
			UpdateColumn("status", to)
		if res.Error != nil {
			return fmt.Errorf("update status of article %d: %w", id, res.Error)
		}
		article.Status = to
		changed = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		if s.cache != nil {
			s.cache.Delete(FeedCacheKey)
			s.cache.Delete(SitemapCacheKey)
		}
		s.log.WithField("article_id", id).Infof("%s set article %q to %s", actor.Username, article.Title, to)
		if s.notifier != nil {
			s.notifier.NotifyModeration(article)
		}
	}
	return &article, nil
}
