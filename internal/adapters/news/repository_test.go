package news

import (
	"context"
	"testing"
	"time"

	"github.com/selivandex/spectrum-feed/pkg/models"
	"github.com/selivandex/spectrum-feed/test/testdb"
)

func TestRepositoryInsertManySkipsDuplicates(t *testing.T) {
	tdb := testdb.Setup(t)
	repo := NewRepository(tdb.Conn())
	ctx := context.Background()

	published := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	papers := []*models.Newspaper{
		{Title: "A", Author: "x", PublishedAt: published, Source: `{"name":"G1"}`},
		{Title: "B", Author: "x", PublishedAt: published, Source: `{"name":"G1"}`},
	}

	inserted, err := repo.InsertMany(ctx, papers)
	if err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}

	again, err := repo.InsertMany(ctx, []*models.Newspaper{{Title: "A", Author: "x", PublishedAt: published}})
	if err != nil {
		t.Fatalf("InsertMany() duplicate error = %v", err)
	}
	if again != 0 {
		t.Errorf("duplicate inserted = %d, want 0", again)
	}

	exists, err := repo.Exists(ctx, "A", "x", published)
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v", exists, err)
	}

	latest, err := repo.LatestPublishedAt(ctx)
	if err != nil || latest == nil || !latest.Equal(published) {
		t.Errorf("LatestPublishedAt() = %v, %v", latest, err)
	}
}

func TestRepositoryLatestWithoutPost(t *testing.T) {
	tdb := testdb.Setup(t)
	repo := NewRepository(tdb.Conn())
	ctx := context.Background()

	empty, err := repo.LatestPublishedAt(ctx)
	if err != nil || empty != nil {
		t.Fatalf("LatestPublishedAt() on empty store = %v, %v", empty, err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	older := tdb.CreateNewspaper(t, "older", now.Add(-2*time.Hour))
	newer := tdb.CreateNewspaper(t, "newer", now.Add(-time.Hour))

	got, err := repo.LatestWithoutPost(ctx)
	if err != nil || got == nil || got.ID != newer {
		t.Fatalf("LatestWithoutPost() = %+v, %v, want %s", got, err, newer)
	}

	tdb.CreatePost(t, "p", &newer, now)
	got, err = repo.LatestWithoutPost(ctx)
	if err != nil || got == nil || got.ID != older {
		t.Fatalf("LatestWithoutPost() = %+v, %v, want %s", got, err, older)
	}

	tdb.CreatePost(t, "p2", &older, now)
	got, err = repo.LatestWithoutPost(ctx)
	if err != nil || got != nil {
		t.Fatalf("LatestWithoutPost() = %+v, %v, want nil", got, err)
	}
}
