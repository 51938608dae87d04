package feed

import (
	"context"
	"testing"
	"time"

	"github.com/selivandex/spectrum-feed/test/testdb"
)

func TestRepositoryListPosts(t *testing.T) {
	tdb := testdb.Setup(t)
	repo := NewRepository(tdb.Conn())
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	older := tdb.CreatePost(t, "older", nil, base)
	newer := tdb.CreatePost(t, "newer", nil, base.Add(time.Minute))

	person := tdb.CreateEntity(t, "Fernando Haddad", "PERSON")
	tdb.LinkEntity(t, older, person, "POSITIVE", base)

	for i := 0; i < 5; i++ {
		tdb.CreateComment(t, older, "comentário")
	}

	all, err := repo.ListPosts(ctx, 0, 10, "")
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != newer || all[1].ID != older {
		t.Fatalf("ListPosts() order = %+v", all)
	}
	if got := len(all[1].Comments); got != 3 {
		t.Errorf("comments = %d, want 3", got)
	}
	if len(all[1].Entities) != 1 || all[1].Entities[0].Entity.Name != "Fernando Haddad" {
		t.Errorf("entities = %+v", all[1].Entities)
	}

	filtered, err := repo.ListPosts(ctx, 0, 10, person)
	if err != nil {
		t.Fatalf("ListPosts(entity) error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != older {
		t.Errorf("filtered = %+v", filtered)
	}

	second, err := repo.ListPosts(ctx, 1, 1, "")
	if err != nil || len(second) != 1 || second[0].ID != older {
		t.Errorf("second page = %+v, %v", second, err)
	}
}

func TestRepositoryListActivities(t *testing.T) {
	tdb := testdb.Setup(t)
	repo := NewRepository(tdb.Conn())
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	post := tdb.CreatePost(t, "post", nil, base)
	first := tdb.CreateEntity(t, "Câmara dos Deputados", "ORGANIZATION")
	second := tdb.CreateEntity(t, "Simone Tebet", "PERSON")
	tdb.LinkEntity(t, post, first, "NEUTRAL", base)
	tdb.LinkEntity(t, post, second, "NEGATIVE", base.Add(time.Minute))

	activities, err := repo.ListActivities(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListActivities() error = %v", err)
	}
	if len(activities) != 2 || activities[0].EntityID != second || activities[0].Entity.Name != "Simone Tebet" {
		t.Errorf("activities = %+v", activities)
	}
}
