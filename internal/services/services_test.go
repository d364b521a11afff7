package services

import (
	"context"
	"testing"
	"time"

	"lawjournal/internal/db"
	"lawjournal/internal/models"

	"gorm.io/gorm"
)

var (
	admin   = Actor{UserID: 1, Username: "root", Admin: true}
	visitor = Actor{UserID: 2, Username: "guest"}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

// fixedClock returns a clock that starts at start and advances by one second per call.
func fixedClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func sampleInput(title string) ArticleInput {
	return ArticleInput{
		Title:    title,
		Content:  "Body of " + title,
		Author:   "Jane Doe",
		Email:    "jane@example.com",
		Category: "Contract Law",
	}
}

func mustCreate(t *testing.T, s *ArticleService, in ArticleInput) *models.Article {
	t.Helper()
	a, err := s.CreateArticle(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateArticle(%q): %v", in.Title, err)
	}
	return a
}
