package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/selivandex/spectrum-feed/internal/adapters/ai"
	"github.com/selivandex/spectrum-feed/internal/events"
	"github.com/selivandex/spectrum-feed/pkg/models"
	"github.com/selivandex/spectrum-feed/pkg/templates"
)

type fakeProvider struct {
	mu       sync.Mutex
	answers  map[string][]string
	requests []*ai.Request
}

func (f *fakeProvider) Generate(_ context.Context, req *ai.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	queue := f.answers[req.Name]
	if len(queue) == 0 {
		return "", ai.ErrEmptyResponse
	}
	answer := queue[0]
	f.answers[req.Name] = queue[1:]
	if answer == "" {
		return "", errors.New("upstream down")
	}
	return answer, nil
}

func (f *fakeProvider) GetName() string  { return "fake" }
func (f *fakeProvider) GetCost() float64 { return 0 }

type fakeNewspapers struct {
	paper *models.Newspaper
}

func (f *fakeNewspapers) LatestWithoutPost(context.Context) (*models.Newspaper, error) {
	return f.paper, nil
}

type memStore struct {
	seq      int
	posts    []models.Post
	entities []models.Entity
	links    []models.PostEntity
	comments []models.Comment
}

func (m *memStore) id(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) CreatePost(_ context.Context, post *models.Post) error {
	post.ID = m.id("post")
	post.CreatedAt = time.Unix(int64(m.seq), 0)
	m.posts = append(m.posts, *post)
	return nil
}

func (m *memStore) FindEntityContaining(_ context.Context, name string) (*models.Entity, error) {
	for _, e := range m.entities {
		if strings.Contains(e.Name, name) {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateEntity(_ context.Context, entity *models.Entity) error {
	entity.ID = m.id("entity")
	m.entities = append(m.entities, *entity)
	return nil
}

func (m *memStore) CreatePostEntity(_ context.Context, link *models.PostEntity) error {
	link.ID = m.id("link")
	m.links = append(m.links, *link)
	return nil
}

func (m *memStore) CreateComment(_ context.Context, comment *models.Comment) error {
	comment.ID = m.id("comment")
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *memStore) withRelations(post models.Post) models.PostWithRelations {
	out := models.PostWithRelations{Post: post}
	for _, l := range m.links {
		if l.PostID == post.ID {
			out.Entities = append(out.Entities, models.EntityLink{PostEntity: l})
		}
	}
	return out
}

func (m *memStore) GetPostWithEntities(_ context.Context, postID string) (*models.PostWithRelations, error) {
	for _, p := range m.posts {
		if p.ID == postID {
			out := m.withRelations(p)
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) PostsWithoutComments(_ context.Context, limit int) ([]models.PostWithRelations, error) {
	var out []models.PostWithRelations
	for i := len(m.posts) - 1; i >= 0 && len(out) < limit; i-- {
		p := m.posts[i]
		if m.commentCount(p.ID) == 0 {
			out = append(out, m.withRelations(p))
		}
	}
	return out, nil
}

func (m *memStore) commentCount(postID string) int {
	n := 0
	for _, c := range m.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

type recorder struct {
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, evt events.Event) error {
	r.events = append(r.events, evt)
	return nil
}

func postAnswer(spectrum string, entities ...EntityOutput) string {
	data, _ := json.Marshal(PostOutput{
		Title:    "Governo anuncia plano",
		Content:  strings.Repeat("a", minPostContent),
		Entities: entities,
		Spectrum: spectrum,
	})
	return string(data)
}

func commentAnswer(ideologies ...string) string {
	batch := CommentBatch{}
	for _, i := range ideologies {
		batch.Comments = append(batch.Comments, CommentOutput{Ideology: i, Content: "opinião de " + i})
	}
	data, _ := json.Marshal(batch)
	return string(data)
}

func newTestPostSynthesizer(t *testing.T, paper *models.Newspaper, store *memStore, provider *fakeProvider, pub events.Publisher, cfg Config) *PostSynthesizer {
	t.Helper()
	prompts, err := templates.NewManager()
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewPostSynthesizer(&fakeNewspapers{paper: paper}, store, provider, prompts, nil, pub, cfg)
}

func testPaper() *models.Newspaper {
	return &models.Newspaper{
		ID:          "paper-1",
		Title:       "Governo anuncia plano",
		Description: "Plano de investimentos",
		URL:         "https://example.com/a",
	}
}

func TestPostSynthesizerCreatesPostEntitiesAndComments(t *testing.T) {
	store := &memStore{}
	provider := &fakeProvider{answers: map[string][]string{
		"post": {postAnswer("center",
			EntityOutput{Name: "Luiz Inácio Lula da Silva", Type: "person", Sentiment: "positive"},
			EntityOutput{Name: "Petrobras", Type: "company", Sentiment: "mixed"},
		)},
		"comments": {commentAnswer("left", "neutral", "right")},
	}}
	pub := &recorder{}

	s := newTestPostSynthesizer(t, testPaper(), store, provider, pub, Config{
		RequireEntities:   true,
		InlineComments:    true,
		PostTemperature:   0.2,
		InlineTemperature: 0.7,
	})

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(store.posts))
	}
	post := store.posts[0]
	if post.Scope != models.ScopeMultiEntity {
		t.Errorf("scope = %s, want MULTI_ENTITY", post.Scope)
	}
	if post.Link != "https://example.com/a" {
		t.Errorf("link = %q", post.Link)
	}
	if post.NewspaperID == nil || *post.NewspaperID != "paper-1" {
		t.Errorf("newspaper id = %v", post.NewspaperID)
	}

	wantTypes := []models.EntityType{models.EntityPerson, models.EntityOrganization}
	for i, e := range store.entities {
		if e.Type != wantTypes[i] {
			t.Errorf("entity %s type = %s, want %s", e.Name, e.Type, wantTypes[i])
		}
	}
	wantSentiments := []models.Sentiment{models.SentimentPositive, models.SentimentNeutral}
	for i, l := range store.links {
		if l.Sentiment != wantSentiments[i] {
			t.Errorf("link %d sentiment = %s, want %s", i, l.Sentiment, wantSentiments[i])
		}
	}

	if len(store.comments) != 3 || len(result.CommentIDs) != 3 {
		t.Fatalf("comments = %d, ids = %d, want 3", len(store.comments), len(result.CommentIDs))
	}
	for _, c := range store.comments {
		if !c.AI || c.Commentator == nil || !models.Ideology(*c.Commentator).Valid() {
			t.Errorf("bad comment %+v", c)
		}
	}

	if !strings.Contains(result.Raw, "\n  \"title\": \"Governo anuncia plano\"") {
		t.Errorf("raw output is not indented JSON:\n%s", result.Raw)
	}

	if got := provider.requests[0].User; !strings.HasPrefix(got, `Check this webpage: "https://example.com/a"`) {
		t.Errorf("post prompt = %q", got)
	}
	if provider.requests[0].Temperature != 0.2 || provider.requests[1].Temperature != 0.7 {
		t.Errorf("temperatures = %v, %v", provider.requests[0].Temperature, provider.requests[1].Temperature)
	}
	if !strings.Contains(provider.requests[1].User, `entities: "entity-2, entity-4"`) {
		t.Errorf("comment prompt = %q", provider.requests[1].User)
	}

	if len(pub.events) != 2 || pub.events[0].Type != events.PostCreated || pub.events[1].Type != events.CommentsCreated {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestPostSynthesizerReusesContainingEntity(t *testing.T) {
	store := &memStore{entities: []models.Entity{
		{ID: "lula", Name: "Luiz Inácio Lula da Silva", Type: models.EntityPerson},
	}}
	provider := &fakeProvider{answers: map[string][]string{
		"post": {
			postAnswer("neutral", EntityOutput{Name: "Lula", Type: "PERSON", Sentiment: "NEGATIVE"}),
			postAnswer("neutral", EntityOutput{Name: " Lula ", Type: "PERSON", Sentiment: "NEGATIVE"}),
			postAnswer("neutral", EntityOutput{Name: "lula", Type: "PERSON", Sentiment: "NEGATIVE"}),
		},
	}}

	s := newTestPostSynthesizer(t, testPaper(), store, provider, nil, Config{RequireEntities: true})

	for i := 0; i < 2; i++ {
		result, err := s.Run(context.Background())
		if err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
		if len(result.EntityIDs) != 1 || result.EntityIDs[0] != "lula" {
			t.Errorf("run %d entity ids = %v, want [lula]", i, result.EntityIDs)
		}
	}

	// containment is case-sensitive
	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.EntityIDs[0] == "lula" {
		t.Error("lowercase name matched case-sensitively stored entity")
	}
	if len(store.entities) != 2 {
		t.Errorf("entities = %d, want 2", len(store.entities))
	}
	if store.posts[0].Scope != models.ScopeSingleEntity {
		t.Errorf("scope = %s, want SINGLE_ENTITY", store.posts[0].Scope)
	}
}

func TestPostSynthesizerFailures(t *testing.T) {
	tests := []struct {
		name    string
		paper   *models.Newspaper
		answers map[string][]string
		cfg     Config
		wantErr error
		posts   int
	}{
		{
			name:    "no unprocessed newspaper",
			wantErr: ErrNotFound,
		},
		{
			name:    "provider error",
			paper:   testPaper(),
			answers: map[string][]string{"post": {""}},
			wantErr: ErrModelFailure,
		},
		{
			name:    "spectrum outside subset",
			paper:   testPaper(),
			answers: map[string][]string{"post": {postAnswer("populist", EntityOutput{Name: "X"})}},
			wantErr: ErrModelFailure,
		},
		{
			name:    "content too short",
			paper:   testPaper(),
			answers: map[string][]string{"post": {`{"title":"t","content":"short","entities":[],"spectrum":"left"}`}},
			wantErr: ErrModelFailure,
		},
		{
			name:    "no entities",
			paper:   testPaper(),
			answers: map[string][]string{"post": {postAnswer("left")}},
			cfg:     Config{RequireEntities: true},
			wantErr: ErrNoEntities,
		},
		{
			name:    "only blank entities",
			paper:   testPaper(),
			answers: map[string][]string{"post": {postAnswer("left", EntityOutput{Name: "  "})}},
			cfg:     Config{RequireEntities: true},
			wantErr: ErrNoEntities,
		},
		{
			name:    "inline comments fail after post is stored",
			paper:   testPaper(),
			answers: map[string][]string{"post": {postAnswer("left", EntityOutput{Name: "X"})}},
			cfg:     Config{RequireEntities: true, InlineComments: true},
			wantErr: ErrCommentModelFailure,
			posts:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			answers := tt.answers
			if answers == nil {
				answers = map[string][]string{}
			}
			s := newTestPostSynthesizer(t, tt.paper, store, &fakeProvider{answers: answers}, nil, tt.cfg)

			_, err := s.Run(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(store.posts) != tt.posts {
				t.Errorf("posts = %d, want %d", len(store.posts), tt.posts)
			}
		})
	}
}

func TestPostSynthesizerWithoutEntitiesWhenAllowed(t *testing.T) {
	paper := testPaper()
	paper.URL = ""
	store := &memStore{}
	provider := &fakeProvider{answers: map[string][]string{"post": {postAnswer("left")}}}

	s := newTestPostSynthesizer(t, paper, store, provider, nil, Config{})
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if store.posts[0].Scope != models.ScopeSingleEntity || store.posts[0].Link != "unknown" {
		t.Errorf("post = %+v", store.posts[0])
	}
}

func TestPostSynthesizerAcceptsEmptyTitle(t *testing.T) {
	answer := fmt.Sprintf(`{"title":"","content":%q,"entities":[{"name":"Senado","type":"ORGANIZATION","sentiment":"NEUTRAL"}],"spectrum":"center"}`,
		strings.Repeat("a", minPostContent))
	store := &memStore{}
	provider := &fakeProvider{answers: map[string][]string{"post": {answer}}}

	s := newTestPostSynthesizer(t, testPaper(), store, provider, nil, Config{RequireEntities: true})
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.posts) != 1 || store.posts[0].Title != "" {
		t.Errorf("posts = %+v", store.posts)
	}
}

func TestCommentSynthesizer(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 5; i++ {
		_ = store.CreatePost(context.Background(), &models.Post{Title: fmt.Sprintf("post %d", i)})
	}

	provider := &fakeProvider{answers: map[string][]string{
		"comments": {
			commentAnswer("left", "right", "neutral"),
			"not json at all",
			`[{"ideology":"feminist","content":"ok"}]`,
		},
	}}
	pub := &recorder{}
	prompts, err := templates.NewManager()
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	s := NewCommentSynthesizer(store, provider, prompts, pub, 0.2)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := CommentResult{Posts: 3, Comments: 4, Failed: 1}
	if *result != want {
		t.Errorf("result = %+v, want %+v", *result, want)
	}
	if len(provider.requests) != maxPostsPerRun {
		t.Errorf("model calls = %d, want %d", len(provider.requests), maxPostsPerRun)
	}
	if !strings.HasPrefix(provider.requests[0].User, `Check this post: "post 4 - `) {
		t.Errorf("first prompt = %q", provider.requests[0].User)
	}
	for _, p := range store.posts {
		if n := store.commentCount(p.ID); n > maxCommentsPerRun {
			t.Errorf("post %s has %d comments", p.ID, n)
		}
	}
	if len(pub.events) != 2 {
		t.Errorf("events = %d, want 2", len(pub.events))
	}
}

func TestCommentSynthesizerNothingToDo(t *testing.T) {
	prompts, err := templates.NewManager()
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	s := NewCommentSynthesizer(&memStore{}, &fakeProvider{answers: map[string][]string{}}, prompts, nil, 0.2)

	if _, err := s.Run(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCommentBatchDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "object", raw: `{"comments":[{"ideology":"left","content":"a"}]}`, want: 1},
		{name: "bare array", raw: `[{"ideology":"left","content":"a"},{"ideology":"right","content":"b"}]`, want: 2},
		{name: "empty", raw: `{"comments":[]}`, wantErr: true},
		{name: "too many", raw: commentAnswer("left", "right", "center", "liberal"), wantErr: true},
		{name: "unknown ideology", raw: `[{"ideology":"anarchist","content":"a"}]`, wantErr: true},
		{name: "blank content", raw: `[{"ideology":"left","content":"   "}]`, wantErr: true},
		{name: "content too long", raw: `[{"ideology":"left","content":"` + strings.Repeat("x", 501) + `"}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var batch CommentBatch
			err := ai.Decode(tt.raw, &batch)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", batch)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(batch.Comments) != tt.want {
				t.Errorf("comments = %d, want %d", len(batch.Comments), tt.want)
			}
		})
	}
}

func TestSchemasCarryVocabulary(t *testing.T) {
	spectrum := postSchema().Properties["spectrum"]
	if len(spectrum.Enum) != len(models.Spectrums) {
		t.Errorf("spectrum enum = %d values, want %d", len(spectrum.Enum), len(models.Spectrums))
	}

	ideology := commentSchema().Properties["comments"].Items.Properties["ideology"]
	if len(ideology.Enum) != 32 {
		t.Errorf("ideology enum = %d values, want 32", len(ideology.Enum))
	}
}
