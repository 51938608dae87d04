package testdb

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/selivandex/spectrum-feed/internal/adapters/database"
)

var tables = []string{"comments", "post_entities", "entities", "posts", "newspapers"}

// TestDB is a migrated PostgreSQL database emptied before and after each test
type TestDB struct {
	DB *database.DB
}

// Setup connects to TEST_DATABASE_URL, applies migrations and truncates all tables.
// The test is skipped when the variable is unset.
func Setup(t *testing.T) *TestDB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(conn.DB, MigrationsPath()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	tdb := &TestDB{DB: database.Wrap(conn)}
	tdb.Truncate(t)

	t.Cleanup(func() {
		tdb.Truncate(t)
		if err := tdb.DB.Close(); err != nil {
			t.Logf("warning: failed to close database: %v", err)
		}
	})

	return tdb
}

// MigrationsPath resolves the repository migrations directory
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// Conn returns the sqlx pool
func (tdb *TestDB) Conn() *sqlx.DB {
	return tdb.DB.DB()
}

// Truncate removes all rows from the feed tables
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()
	for _, table := range tables {
		tdb.Exec(t, "DELETE FROM "+table)
	}
}

// Exec executes SQL and fails the test on error
func (tdb *TestDB) Exec(t *testing.T, query string, args ...any) {
	t.Helper()

	if _, err := tdb.Conn().Exec(query, args...); err != nil {
		t.Fatalf("failed to execute query: %v\nQuery: %s", err, query)
	}
}

// Count returns the number of rows in table
func (tdb *TestDB) Count(t *testing.T, table string) int {
	t.Helper()

	var count int
	if err := tdb.Conn().Get(&count, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return count
}

// CreateNewspaper inserts a newspaper and returns its ID
func (tdb *TestDB) CreateNewspaper(t *testing.T, title string, publishedAt time.Time) string {
	t.Helper()

	id := uuid.NewString()
	tdb.Exec(t, `
		INSERT INTO newspapers (id, title, description, author, url, url_to_image, published_at, content, source)
		VALUES ($1, $2, 'desc', 'author', $3, '', $4, 'content', '{"name":"test"}')
	`, id, title, "https://example.com/"+id, publishedAt)

	return id
}

// CreatePost inserts a post and returns its ID
func (tdb *TestDB) CreatePost(t *testing.T, title string, newspaperID *string, createdAt time.Time) string {
	t.Helper()

	id := uuid.NewString()
	tdb.Exec(t, `
		INSERT INTO posts (id, title, content, spectrum, scope, link, newspaper_id, created_at)
		VALUES ($1, $2, 'content', 'neutral', 'SINGLE_ENTITY', 'unknown', $3, $4)
	`, id, title, newspaperID, createdAt)

	return id
}

// CreateEntity inserts an entity and returns its ID
func (tdb *TestDB) CreateEntity(t *testing.T, name, entityType string) string {
	t.Helper()

	id := uuid.NewString()
	tdb.Exec(t, `INSERT INTO entities (id, name, type) VALUES ($1, $2, $3)`, id, name, entityType)

	return id
}

// LinkEntity inserts a post_entities row
func (tdb *TestDB) LinkEntity(t *testing.T, postID, entityID, sentiment string, createdAt time.Time) {
	t.Helper()

	tdb.Exec(t, `
		INSERT INTO post_entities (id, post_id, entity_id, sentiment, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), postID, entityID, sentiment, createdAt)
}

// CreateComment inserts an AI comment
func (tdb *TestDB) CreateComment(t *testing.T, postID, content string) {
	t.Helper()

	tdb.Exec(t, `
		INSERT INTO comments (id, post_id, content, ai, commentator)
		VALUES ($1, $2, $3, TRUE, 'neutral')
	`, uuid.NewString(), postID, content)
}
