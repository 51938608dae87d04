package synthesis

import (
	"context"
	"testing"
	"time"

	"github.com/selivandex/spectrum-feed/pkg/models"
	"github.com/selivandex/spectrum-feed/test/testdb"
)

func TestRepositoryEntityResolution(t *testing.T) {
	tdb := testdb.Setup(t)
	repo := NewRepository(tdb.Conn())
	ctx := context.Background()

	older := &models.Entity{Name: "Banco Central do Brasil", Type: models.EntityOrganization, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.Entity{Name: "Banco Central Europeu", Type: models.EntityOrganization}
	for _, e := range []*models.Entity{older, newer} {
		if err := repo.CreateEntity(ctx, e); err != nil {
			t.Fatalf("CreateEntity() error = %v", err)
		}
	}

	found, err := repo.FindEntityContaining(ctx, "Banco Central")
	if err != nil {
		t.Fatalf("FindEntityContaining() error = %v", err)
	}
	if found == nil || found.ID != older.ID {
		t.Errorf("FindEntityContaining() = %+v, want oldest match %s", found, older.ID)
	}

	missing, err := repo.FindEntityContaining(ctx, "banco central")
	if err != nil || missing != nil {
		t.Errorf("case-insensitive lookup = %+v, %v, want nil", missing, err)
	}
}

func TestRepositoryPostsWithoutComments(t *testing.T) {
	tdb := testdb.Setup(t)
	repo := NewRepository(tdb.Conn())
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i := 0; i < 4; i++ {
		post := &models.Post{
			Title:     "post",
			Content:   "content",
			Spectrum:  models.IdeologyNeutral,
			Scope:     models.ScopeSingleEntity,
			Link:      "unknown",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.CreatePost(ctx, post); err != nil {
			t.Fatalf("CreatePost() error = %v", err)
		}
		ids = append(ids, post.ID)
	}

	entityID := tdb.CreateEntity(t, "Senado Federal", string(models.EntityOrganization))
	if err := repo.CreatePostEntity(ctx, &models.PostEntity{PostID: ids[2], EntityID: entityID, Sentiment: models.SentimentNegative}); err != nil {
		t.Fatalf("CreatePostEntity() error = %v", err)
	}

	commentator := string(models.IdeologyLeft)
	if err := repo.CreateComment(ctx, &models.Comment{PostID: ids[3], Content: "x", AI: true, Commentator: &commentator}); err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}

	posts, err := repo.PostsWithoutComments(ctx, 3)
	if err != nil {
		t.Fatalf("PostsWithoutComments() error = %v", err)
	}

	want := []string{ids[2], ids[1], ids[0]}
	if len(posts) != len(want) {
		t.Fatalf("posts = %d, want %d", len(posts), len(want))
	}
	for i, p := range posts {
		if p.ID != want[i] {
			t.Errorf("posts[%d] = %s, want %s", i, p.ID, want[i])
		}
	}

	if len(posts[0].Entities) != 1 || posts[0].Entities[0].Entity.Name != "Senado Federal" {
		t.Errorf("entities = %+v", posts[0].Entities)
	}

	loaded, err := repo.GetPostWithEntities(ctx, ids[2])
	if err != nil || loaded == nil || len(loaded.EntityIDs()) != 1 {
		t.Errorf("GetPostWithEntities() = %+v, %v", loaded, err)
	}
}
