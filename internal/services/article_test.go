package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"lawjournal/internal/models"
)

func TestCreateArticleDefaults(t *testing.T) {
	conn := newTestDB(t)
	s := NewArticleService(conn, nil)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return now }

	a := mustCreate(t, s, sampleInput("Consideration Revisited"))
	if a.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	got, err := s.GetArticle(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.Views != 0 || got.Likes != 0 {
		t.Errorf("counters = %d/%d, want 0/0", got.Views, got.Likes)
	}
	if !got.SubmittedAt.Equal(now) || !got.PostedAt.Equal(now) {
		t.Errorf("timestamps = %v/%v, want %v", got.SubmittedAt, got.PostedAt, now)
	}
}

func TestCreateArticleValidation(t *testing.T) {
	s := NewArticleService(newTestDB(t), nil)

	cases := []struct {
		name   string
		mutate func(*ArticleInput)
	}{
		{"empty title", func(in *ArticleInput) { in.Title = "  " }},
		{"empty content", func(in *ArticleInput) { in.Content = "" }},
		{"empty author", func(in *ArticleInput) { in.Author = "" }},
		{"empty category", func(in *ArticleInput) { in.Category = "" }},
		{"bad email", func(in *ArticleInput) { in.Email = "not-an-email" }},
		{"long title", func(in *ArticleInput) { in.Title = strings.Repeat("x", 101) }},
		{"line break in title", func(in *ArticleInput) { in.Title = "Hello\r\nBcc: victim@example.com" }},
		{"control char in author", func(in *ArticleInput) { in.Author = "Ann\x00" }},
		{"line break in category", func(in *ArticleInput) { in.Category = "Tax Law\nX" }},
		{"long author", func(in *ArticleInput) { in.Author = strings.Repeat("a", 101) }},
		{"long category", func(in *ArticleInput) { in.Category = strings.Repeat("c", 101) }},
		{"long email", func(in *ArticleInput) { in.Email = strings.Repeat("e", 115) + "@b.com" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := sampleInput("Valid")
			tc.mutate(&in)
			if _, err := s.CreateArticle(context.Background(), in); !IsValidation(err) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}

	n, err := s.CountArticles(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("CountArticles = %d, %v; want 0", n, err)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	s := NewArticleService(newTestDB(t), nil)
	if _, err := s.GetArticle(context.Background(), 42); !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestGetVisibleArticle(t *testing.T) {
	s := NewArticleService(newTestDB(t), nil)
	a := mustCreate(t, s, sampleInput("Hidden"))

	if _, err := s.GetVisibleArticle(context.Background(), visitor, a.ID); !IsNotFound(err) {
		t.Fatalf("visitor err = %v, want not found", err)
	}
	if _, err := s.GetVisibleArticle(context.Background(), admin, a.ID); err != nil {
		t.Fatalf("admin err = %v", err)
	}
}

func TestIncrementCounters(t *testing.T) {
	s := NewArticleService(newTestDB(t), nil)
	ctx := context.Background()
	a := mustCreate(t, s, sampleInput("Counters"))

	for i := 0; i < 3; i++ {
		if err := s.IncrementLikes(ctx, a.ID); err != nil {
			t.Fatalf("IncrementLikes: %v", err)
		}
	}
	if err := s.IncrementViews(ctx, a.ID); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}

	got, _ := s.GetArticle(ctx, a.ID)
	if got.Likes != 3 || got.Views != 1 {
		t.Errorf("likes/views = %d/%d, want 3/1", got.Likes, got.Views)
	}
	if err := s.IncrementLikes(ctx, 999); !IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestListArticlesOrderingAndPaging(t *testing.T) {
	s := NewArticleService(newTestDB(t), nil)
	s.clock = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C", "D", "E"} {
		mustCreate(t, s, sampleInput(title))
	}

	first, err := s.ListArticles(ctx, ArticleFilter{}, 1, 2)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if first.Total != 5 || first.TotalPages != 3 {
		t.Fatalf("total/pages = %d/%d, want 5/3", first.Total, first.TotalPages)
	}
	if first.Items[0].Title != "E" || first.Items[1].Title != "D" {
		t.Errorf("page 1 = %s,%s; want E,D", first.Items[0].Title, first.Items[1].Title)
	}
	if first.HasPrev || !first.HasNext {
		t.Errorf("page 1 HasPrev/HasNext = %v/%v", first.HasPrev, first.HasNext)
	}

	last, _ := s.ListArticles(ctx, ArticleFilter{}, 3, 2)
	if len(last.Items) != 1 || last.Items[0].Title != "A" || last.HasNext {
		t.Errorf("last page = %+v", last)
	}
	if last.Total != first.Total {
		t.Errorf("total changed between pages: %d vs %d", first.Total, last.Total)
	}

	past, err := s.ListArticles(ctx, ArticleFilter{}, 10, 2)
	if err != nil {
		t.Fatalf("page past end: %v", err)
	}
	if len(past.Items) != 0 || past.Total != 5 {
		t.Errorf("page past end = %d items, total %d", len(past.Items), past.Total)
	}
}

func TestListArticlesHugePageIsEmpty(t *testing.T) {
	s := NewArticleService(newTestDB(t), nil)
	mustCreate(t, s, sampleInput("Only One"))

	// (page-1)*6 wraps around to a negative offset in int arithmetic
	got, err := s.ListArticles(context.Background(), ArticleFilter{}, 2305843009213693953, 6)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(got.Items) != 0 || got.Total != 1 {
		t.Errorf("huge page = %d items, total %d; want 0 items, total 1", len(got.Items), got.Total)
	}
}

func TestListArticlesSameTimestampUsesID(t *testing.T) {
	s := NewArticleService(newTestDB(t), nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return now }

	first := mustCreate(t, s, sampleInput("first"))
	second := mustCreate(t, s, sampleInput("second"))

	page, _ := s.ListArticles(context.Background(), ArticleFilter{}, 1, 10)
	if page.Items[0].ID != second.ID || page.Items[1].ID != first.ID {
		t.Errorf("order = %d,%d; want %d,%d", page.Items[0].ID, page.Items[1].ID, second.ID, first.ID)
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	s := NewArticleService(newTestDB(t), nil)
	ctx := context.Background()

	mustCreate(t, s, sampleInput("Contract Formation"))
	other := sampleInput("Torts")
	other.Content = "Breach of CONTRACT remedies"
	mustCreate(t, s, other)
	unrelated := sampleInput("Criminal Procedure")
	unrelated.Content = "Miranda"
	mustCreate(t, s, unrelated)

	for _, q := range []string{"contract", "CONTRACT", "Contract"} {
		page, err := s.ListArticles(ctx, ArticleFilter{Search: q}, 1, 10)
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if page.Total != 2 {
			t.Errorf("search %q: total = %d, want 2", q, page.Total)
		}
	}

	page, _ := s.ListArticles(ctx, ArticleFilter{Search: "100%"}, 1, 10)
	if page.Total != 0 {
		t.Errorf("wildcard in search matched %d rows", page.Total)
	}
}

func TestCategoriesDistinctSortedAndRefreshed(t *testing.T) {
	s := NewArticleService(newTestDB(t), nil)
	ctx := context.Background()

	in := sampleInput("one")
	in.Category = "Tax Law"
	mustCreate(t, s, in)
	in.Category = "Administrative Law"
	mustCreate(t, s, in)
	mustCreate(t, s, in)

	cats, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if strings.Join(cats, "|") != "Administrative Law|Tax Law" {
		t.Fatalf("categories = %v", cats)
	}

	in.Category = "Maritime Law"
	mustCreate(t, s, in)
	cats, _ = s.Categories(ctx)
	if len(cats) != 3 {
		t.Errorf("categories after insert = %v, want 3 entries", cats)
	}
}

type fakeStorage struct {
	failSave bool
	saved    []string
	removed  []string
}

func (f *fakeStorage) Prepare(kind UploadKind, filename string, size int64) (string, error) {
	return "ref_" + filename, nil
}

func (f *fakeStorage) Save(ref string, body io.Reader) error {
	if f.failSave && len(f.saved) > 0 {
		return errors.New("disk full")
	}
	f.saved = append(f.saved, ref)
	return nil
}

func (f *fakeStorage) Remove(ref string) error {
	f.removed = append(f.removed, ref)
	return nil
}

func TestCreateArticleWithFiles(t *testing.T) {
	store := &fakeStorage{}
	s := NewArticleService(newTestDB(t), store)

	a, err := s.CreateArticle(context.Background(), sampleInput("With files"),
		FileUpload{Kind: KindCoverImage, Filename: "cover.png", Body: strings.NewReader("png")},
		FileUpload{Kind: KindDocument, Filename: "brief.pdf", Body: strings.NewReader("pdf")},
	)
	if err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}
	if a.CoverImage != "ref_cover.png" || a.DocumentFilename != "ref_brief.pdf" {
		t.Errorf("refs = %q/%q", a.CoverImage, a.DocumentFilename)
	}
	if len(store.saved) != 2 {
		t.Errorf("saved = %v", store.saved)
	}
}

func TestCreateArticleStorageFailureRollsBack(t *testing.T) {
	store := &fakeStorage{failSave: true}
	s := NewArticleService(newTestDB(t), store)
	ctx := context.Background()

	_, err := s.CreateArticle(ctx, sampleInput("Doomed"),
		FileUpload{Kind: KindCoverImage, Filename: "cover.png", Body: strings.NewReader("png")},
		FileUpload{Kind: KindDocument, Filename: "brief.pdf", Body: strings.NewReader("pdf")},
	)
	if err == nil {
		t.Fatal("expected storage error")
	}

	if n, _ := s.CountArticles(ctx); n != 0 {
		t.Errorf("article rows = %d, want 0", n)
	}
	if len(store.removed) != 1 || store.removed[0] != "ref_cover.png" {
		t.Errorf("removed = %v, want the file written before the failure", store.removed)
	}
}

func TestCreateArticleWithoutStorageRejectsFiles(t *testing.T) {
	s := NewArticleService(newTestDB(t), nil)
	_, err := s.CreateArticle(context.Background(), sampleInput("x"),
		FileUpload{Kind: KindDocument, Filename: "a.pdf", Body: strings.NewReader("")})
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
