package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRecordVisitConcurrent(t *testing.T) {
	conn := newTestDB(t)
	articles := NewArticleService(conn, nil)
	visits := NewVisitService(conn)
	ctx := context.Background()
	a := mustCreate(t, articles, sampleInput("Popular"))

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- visits.RecordVisit(ctx, a.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("RecordVisit: %v", err)
		}
	}

	got, _ := articles.GetArticle(ctx, a.ID)
	if got.Views != n {
		t.Errorf("views = %d, want %d", got.Views, n)
	}
	total, _ := visits.CountVisitsSince(ctx, time.Time{})
	if total != n {
		t.Errorf("visits = %d, want %d", total, n)
	}
}

func TestRecordVisitUnknownArticle(t *testing.T) {
	visits := NewVisitService(newTestDB(t))
	if err := visits.RecordVisit(context.Background(), 3); !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	if n, _ := visits.CountVisitsSince(context.Background(), time.Time{}); n != 0 {
		t.Errorf("visits = %d, want 0", n)
	}
}

func TestTrafficStatsWindows(t *testing.T) {
	conn := newTestDB(t)
	articles := NewArticleService(conn, nil)
	visits := NewVisitService(conn)
	ctx := context.Background()

	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	busy := mustCreate(t, articles, sampleInput("Busy"))
	quiet := mustCreate(t, articles, sampleInput("Quiet"))
	mustCreate(t, articles, sampleInput("Unread"))

	record := func(id uint, ago time.Duration) {
		t.Helper()
		visits.clock = func() time.Time { return now.Add(-ago) }
		if err := visits.RecordVisit(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	record(busy.ID, time.Hour)         // daily
	record(busy.ID, 3*24*time.Hour)    // weekly
	record(busy.ID, 20*24*time.Hour)   // monthly
	record(quiet.ID, 200*24*time.Hour) // yearly
	record(quiet.ID, 400*24*time.Hour) // outside every window

	stats, err := visits.TrafficStats(ctx, now)
	if err != nil {
		t.Fatalf("TrafficStats: %v", err)
	}
	if stats.TotalArticles != 3 || stats.TotalVisits != 5 {
		t.Errorf("totals = %d/%d, want 3/5", stats.TotalArticles, stats.TotalVisits)
	}
	if stats.Daily != 1 || stats.Weekly != 2 || stats.Monthly != 3 || stats.Yearly != 4 {
		t.Errorf("windows = %d/%d/%d/%d, want 1/2/3/4", stats.Daily, stats.Weekly, stats.Monthly, stats.Yearly)
	}

	if len(stats.PerArticle) != 2 {
		t.Fatalf("per article = %+v, want 2 rows", stats.PerArticle)
	}
	if stats.PerArticle[0].Title != "Busy" || stats.PerArticle[0].Readers != 3 {
		t.Errorf("first row = %+v", stats.PerArticle[0])
	}
	if stats.PerArticle[1].Title != "Quiet" || stats.PerArticle[1].Readers != 2 {
		t.Errorf("second row = %+v", stats.PerArticle[1])
	}
}

func TestReadersPerArticleTiesByTitle(t *testing.T) {
	conn := newTestDB(t)
	articles := NewArticleService(conn, nil)
	visits := NewVisitService(conn)
	ctx := context.Background()

	b := mustCreate(t, articles, sampleInput("Beta"))
	a := mustCreate(t, articles, sampleInput("Alpha"))
	for _, id := range []uint{b.ID, a.ID} {
		if err := visits.RecordVisit(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := visits.ReadersPerArticle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Title != "Alpha" || rows[1].Title != "Beta" {
		t.Errorf("rows = %+v", rows)
	}
}
