package services

import (
	"bytes"
	"fmt"
	"html/template"
	"lawjournal/internal/config"
	"lawjournal/internal/logger"
	"lawjournal/internal/models"
	"mime"
	"net/smtp"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailService sends notification emails in the background. Without a full
// SMTP configuration it stays disabled and every call is a no-op.
type MailService struct {
	cfg         config.SMTPConfig
	siteURL     string
	templateDir string
	enabled     bool
	send        sendFunc
	log         *logrus.Entry
	wg          sync.WaitGroup
}

func NewMailService(cfg config.SMTPConfig, siteURL string) *MailService {
	s := &MailService{
		cfg:         cfg,
		siteURL:     strings.TrimRight(siteURL, "/"),
		templateDir: filepath.Join("web", "templates", "email"),
		enabled:     cfg.Host != "" && cfg.Port != "" && cfg.Username != "" && cfg.Password != "" && cfg.From != "",
		send:        smtp.SendMail,
		log:         logger.For("mail"),
	}
	if !s.enabled {
		s.log.Warn("mail disabled: SMTP settings incomplete")
	}
	return s
}

func (s *MailService) Enabled() bool { return s.enabled }

// Wait blocks until queued emails have been handed to the SMTP server.
func (s *MailService) Wait() { s.wg.Wait() }

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.enabled {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: Law Journal <%s>\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
			headerValue(strings.Join(to, ",")), headerValue(s.cfg.From), encodeSubject(subject), body))

		if err := s.send(addr, auth, s.cfg.From, to, msg); err != nil {
			s.log.Errorf("send %q to %v: %v", subject, to, err)
			return
		}
		s.log.Infof("sent %q to %v", subject, to)
	}()
}

// headerValue drops line breaks so a value cannot start a new header.
func headerValue(v string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, v)
}

// encodeSubject Q-encodes anything outside printable ASCII.
func encodeSubject(subject string) string {
	return mime.QEncoding.Encode("utf-8", headerValue(subject))
}

func (s *MailService) parseTemplate(templateName string, data interface{}) (string, error) {
	path := filepath.Join(s.templateDir, templateName)
	t, err := template.ParseFiles(path)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// NotifyModeration tells the author whether their article was published.
func (s *MailService) NotifyModeration(article models.Article) {
	if !s.enabled || article.Email == "" {
		return
	}

	approved := article.Status == models.StatusApproved
	body, err := s.parseTemplate("moderation.html", map[string]interface{}{
		"Author":   article.Author,
		"Title":    article.Title,
		"Approved": approved,
		"Link":     fmt.Sprintf("%s/read/%d", s.siteURL, article.ID),
	})
	if err != nil {
		s.log.Errorf("render moderation email: %v", err)
		return
	}

	subject := "Your article was not accepted: " + article.Title
	if approved {
		subject = "Your article has been published: " + article.Title
	}
	s.sendAsync([]string{article.Email}, subject, body)
}
