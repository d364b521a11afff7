package services

import (
	"context"
	"errors"
	"fmt"
	"lawjournal/internal/logger"
	"lawjournal/internal/models"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CommentInput struct {
	Name     string
	Email    string
	Content  string
	ParentID *uint
}

// CommentNode is a comment with its replies, as rendered on the read page.
type CommentNode struct {
	models.Comment
	Depth   int
	Replies []*CommentNode
}

type CommentService struct {
	db    *gorm.DB
	log   *logrus.Entry
	clock func() time.Time
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{
		db:    db,
		log:   logger.For("comments"),
		clock: utcNow,
	}
}

func (in CommentInput) validate() error {
	if missing := required([2]string{"name", in.Name}, [2]string{"content", in.Content}); len(missing) > 0 {
		return validationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	if err := checkLines(lineField{"name", in.Name, maxNameLen}, lineField{"email", in.Email, maxEmailLen}); err != nil {
		return err
	}
	if email := strings.TrimSpace(in.Email); email != "" && !validEmail(email) {
		return validationError("invalid email address")
	}
	return nil
}

// AddComment attaches a comment (or a reply, when ParentID is set) to an article.
// A reply's parent must belong to the same article.
func (s *CommentService) AddComment(ctx context.Context, articleID uint, in CommentInput) (*models.Comment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	comment := models.Comment{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Content:   strings.TrimSpace(in.Content),
		ArticleID: articleID,
		ParentID:  in.ParentID,
		PostedAt:  s.clock(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Article{}).Where("id = ?", articleID).Count(&count).Error; err != nil {
			return fmt.Errorf("check article %d: %w", articleID, err)
		}
		if count == 0 {
			return articleNotFound(articleID)
		}

		if in.ParentID != nil {
			var parent models.Comment
			if err := tx.Select("id", "article_id").First(&parent, *in.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return commentNotFound(*in.ParentID)
				}
				return fmt.Errorf("load parent comment %d: %w", *in.ParentID, err)
			}
			if parent.ArticleID != articleID {
				return validationError("comment %d belongs to another article", parent.ID)
			}
		}

		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("article_id", articleID).Infof("comment %d by %s", comment.ID, comment.Name)
	return &comment, nil
}

// ListComments returns every comment on the article, newest first.
func (s *CommentService) ListComments(ctx context.Context, articleID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("posted_at DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments for article %d: %w", articleID, err)
	}
	return comments, nil
}

// BuildCommentTree nests comments under their parents, keeping the input
// order among siblings. Comments whose parent is not in the list become roots.
func BuildCommentTree(comments []models.Comment) []*CommentNode {
	nodes := make(map[uint]*CommentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &CommentNode{Comment: comments[i]}
	}

	children := make(map[uint][]*CommentNode)
	var roots []*CommentNode
	for i := range comments {
		n := nodes[comments[i].ID]
		if pid := n.ParentID; pid != nil && *pid != n.ID {
			if _, ok := nodes[*pid]; ok {
				children[*pid] = append(children[*pid], n)
				continue
			}
		}
		roots = append(roots, n)
	}

	visited := make(map[uint]bool, len(nodes))
	var attach func(n *CommentNode, depth int)
	attach = func(n *CommentNode, depth int) {
		visited[n.ID] = true
		n.Depth = depth
		for _, c := range children[n.ID] {
			if visited[c.ID] {
				continue
			}
			n.Replies = append(n.Replies, c)
			attach(c, depth+1)
		}
	}
	for _, r := range roots {
		attach(r, 0)
	}
	return roots
}
