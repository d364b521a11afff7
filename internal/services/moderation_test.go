package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"lawjournal/internal/models"
)

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []models.ArticleStatus
}

func (r *recordingNotifier) NotifyModeration(a models.Article) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, a.Status)
}

func TestApproveDisapproveFlow(t *testing.T) {
	conn := newTestDB(t)
	articles := NewArticleService(conn, nil)
	notifier := &recordingNotifier{}
	mod := NewModerationService(conn, nil, notifier)
	ctx := context.Background()

	a := mustCreate(t, articles, sampleInput("Moderated"))
	if err := articles.IncrementLikes(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	feed, _ := articles.PublicFeed(ctx, "", "", 1)
	if feed.Total != 0 {
		t.Fatalf("pending article visible in public feed")
	}

	got, err := mod.Approve(ctx, admin, a.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("status = %q", got.Status)
	}
	feed, _ = articles.PublicFeed(ctx, "", "", 1)
	if feed.Total != 1 || feed.Items[0].ID != a.ID {
		t.Fatalf("approved article missing from feed: %+v", feed)
	}

	// idempotent
	if _, err := mod.Approve(ctx, admin, a.ID); err != nil {
		t.Fatalf("second Approve: %v", err)
	}

	if _, err := mod.Disapprove(ctx, admin, a.ID); err != nil {
		t.Fatalf("Disapprove: %v", err)
	}
	feed, _ = articles.PublicFeed(ctx, "", "", 1)
	if feed.Total != 0 {
		t.Errorf("disapproved article still in feed")
	}

	stored, _ := articles.GetArticle(ctx, a.ID)
	if stored.Likes != 1 || stored.Views != 0 {
		t.Errorf("counters changed by moderation: likes=%d views=%d", stored.Likes, stored.Views)
	}
	if len(notifier.statuses) != 2 {
		t.Errorf("notifications = %v, want one per actual change", notifier.statuses)
	}
}

func TestConcurrentApproveNotifiesOnce(t *testing.T) {
	conn := newTestDB(t)
	articles := NewArticleService(conn, nil)
	notifier := &recordingNotifier{}
	mod := NewModerationService(conn, articles.Cache(), notifier)
	ctx := context.Background()
	a := mustCreate(t, articles, sampleInput("Raced"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := mod.Approve(ctx, admin, a.ID); err != nil {
				t.Errorf("Approve: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(notifier.statuses) != 1 {
		t.Errorf("notifications = %v, want exactly one", notifier.statuses)
	}
}

func TestModerationDropsPublishedCache(t *testing.T) {
	conn := newTestDB(t)
	articles := NewArticleService(conn, nil)
	mod := NewModerationService(conn, articles.Cache(), nil)
	ctx := context.Background()
	a := mustCreate(t, articles, sampleInput("Cached"))

	cache := articles.Cache()
	fill := func() {
		cache.Set(FeedCacheKey, "feed", time.Hour)
		cache.Set(SitemapCacheKey, "sitemap", time.Hour)
	}

	fill()
	if _, err := mod.Approve(ctx, admin, a.ID); err != nil {
		t.Fatal(err)
	}
	if cache.Get(FeedCacheKey) != nil || cache.Get(SitemapCacheKey) != nil {
		t.Error("approve left the published cache in place")
	}

	fill()
	if _, err := mod.Approve(ctx, admin, a.ID); err != nil {
		t.Fatal(err)
	}
	if cache.Get(FeedCacheKey) == nil {
		t.Error("a no-op approve should keep the cache")
	}

	if _, err := mod.Disapprove(ctx, admin, a.ID); err != nil {
		t.Fatal(err)
	}
	if cache.Get(FeedCacheKey) != nil || cache.Get(SitemapCacheKey) != nil {
		t.Error("disapprove left the published cache in place")
	}
}

func TestModerationRequiresAdmin(t *testing.T) {
	conn := newTestDB(t)
	articles := NewArticleService(conn, nil)
	mod := NewModerationService(conn, nil, nil)
	a := mustCreate(t, articles, sampleInput("Guarded"))

	for _, actor := range []Actor{Anonymous, visitor, {Admin: true}} {
		if _, err := mod.Approve(context.Background(), actor, a.ID); !IsForbidden(err) {
			t.Errorf("actor %+v: err = %v, want forbidden", actor, err)
		}
	}

	stored, _ := articles.GetArticle(context.Background(), a.ID)
	if stored.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", stored.Status)
	}
}

func TestModerationNotFound(t *testing.T) {
	mod := NewModerationService(newTestDB(t), nil, nil)
	if _, err := mod.Disapprove(context.Background(), admin, 7); !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.ArticleStatus
		want     bool
	}{
		{models.StatusPending, models.StatusApproved, true},
		{models.StatusPending, models.StatusDisapproved, true},
		{models.StatusApproved, models.StatusDisapproved, true},
		{models.StatusDisapproved, models.StatusApproved, true},
		{models.StatusApproved, models.StatusApproved, true},
		{models.StatusApproved, models.StatusPending, false},
		{models.StatusDisapproved, models.StatusPending, false},
	}
	for _, tc := range cases {
		if got := canTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("canTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAdminQueues(t *testing.T) {
	conn := newTestDB(t)
	articles := NewArticleService(conn, nil)
	mod := NewModerationService(conn, nil, nil)
	ctx := context.Background()

	var ids []uint
	for _, title := range []string{"p1", "p2", "p3", "p4", "p5"} {
		ids = append(ids, mustCreate(t, articles, sampleInput(title)).ID)
	}
	for _, id := range ids[:2] {
		if _, err := mod.Approve(ctx, admin, id); err != nil {
			t.Fatal(err)
		}
	}

	q, err := articles.AdminQueues(ctx, admin, 1, 1)
	if err != nil {
		t.Fatalf("AdminQueues: %v", err)
	}
	if q.Pending.Total != 3 || len(q.Pending.Items) != AdminPageSize {
		t.Errorf("pending = %d total, %d items", q.Pending.Total, len(q.Pending.Items))
	}
	if q.Approved.Total != 2 || len(q.Approved.Items) != 2 {
		t.Errorf("approved = %d total, %d items", q.Approved.Total, len(q.Approved.Items))
	}

	q, _ = articles.AdminQueues(ctx, admin, 2, 1)
	if len(q.Pending.Items) != 0 || q.Approved.CurrentPage != 1 {
		t.Errorf("cursors not independent: pending page 2 has %d items, approved page %d",
			len(q.Pending.Items), q.Approved.CurrentPage)
	}

	if _, err := articles.AdminQueues(ctx, visitor, 1, 1); !IsForbidden(err) {
		t.Errorf("err = %v, want forbidden", err)
	}
}
