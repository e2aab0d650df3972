package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/user/inkwell/internal/types"
)

func testDraft(title string) *types.Draft {
	return &types.Draft{
		Title:                title,
		Summary:              "Summary.",
		BodyMarkdown:         "# Body",
		CoverImageURL:        "https://example.com/cover.png",
		EstimatedReadMinutes: 4,
		Tags:                 []string{"go", "sqlite"},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreCreateAndFind(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "first-post", testDraft("First Post"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Error("expected assigned post ID")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected assigned timestamp")
	}

	found, err := s.FindBySlug(ctx, "first-post")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil {
		t.Fatal("expected post, got nil")
	}
	if found.ID != created.ID {
		t.Errorf("ID mismatch: %s vs %s", found.ID, created.ID)
	}
	if found.Title != "First Post" {
		t.Errorf("unexpected title: %q", found.Title)
	}
	if len(found.Tags) != 2 || found.Tags[0] != "go" {
		t.Errorf("tags not round-tripped: %v", found.Tags)
	}
}

func TestStoreFindAbsentReturnsNil(t *testing.T) {
	s := openTestStore(t)

	found, err := s.FindBySlug(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil for absent slug, got %v", found)
	}
}

func TestStoreDuplicateSlugRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "taken", testDraft("One")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, "taken", testDraft("Two")); err == nil {
		t.Error("expected unique constraint violation for duplicate slug")
	}
}

func TestStoreList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, slug := range []string{"a", "b", "c"} {
		if _, err := s.Create(ctx, slug, testDraft(slug)); err != nil {
			t.Fatalf("create %q: %v", slug, err)
		}
	}

	posts, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit to apply, got %d posts", len(limited))
	}
}

func TestStoreListEmpty(t *testing.T) {
	s := openTestStore(t)

	posts, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", posts)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Create(context.Background(), "durable", testDraft("Durable")); err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	found, err := reopened.FindBySlug(context.Background(), "durable")
	if err != nil {
		t.Fatalf("find after reopen: %v", err)
	}
	if found == nil || found.Title != "Durable" {
		t.Errorf("post did not survive reopen: %v", found)
	}
}
