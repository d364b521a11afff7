package services

import (
	"context"
	"fmt"
	"lawjournal/internal/logger"
	"lawjournal/internal/models"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MessageInput struct {
	Name    string
	Email   string
	Content string
}

type MessageService struct {
	db    *gorm.DB
	log   *logrus.Entry
	clock func() time.Time
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{
		db:    db,
		log:   logger.For("messages"),
		clock: utcNow,
	}
}

// CreateMessage stores a contact-form submission.
func (s *MessageService) CreateMessage(ctx context.Context, in MessageInput) (*models.Message, error) {
	missing := required([2]string{"name", in.Name}, [2]string{"email", in.Email}, [2]string{"message", in.Content})
	if len(missing) > 0 {
		return nil, validationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	if err := checkLines(lineField{"name", in.Name, maxNameLen}, lineField{"email", in.Email, maxEmailLen}); err != nil {
		return nil, err
	}
	if !validEmail(strings.TrimSpace(in.Email)) {
		return nil, validationError("invalid email address")
	}

	msg := models.Message{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Content: strings.TrimSpace(in.Content),
		SentAt:  s.clock(),
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	s.log.Infof("message %d from %s", msg.ID, msg.Email)
	return &msg, nil
}

// ListMessages returns all messages, newest first. Admins only.
func (s *MessageService) ListMessages(ctx context.Context, actor Actor) ([]models.Message, error) {
	if !actor.IsAdmin() {
		return nil, adminRequired()
	}
	var msgs []models.Message
	if err := s.db.WithContext(ctx).Order("sent_at DESC, id DESC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}
