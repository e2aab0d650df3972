// internal/store/sqlite.go

// Package store persists generated posts in SQLite. The slug column carries a
// UNIQUE constraint as a backstop, but callers must not rely on it: the
// pipeline performs its own collision probe before every insert.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/user/inkwell/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id            TEXT PRIMARY KEY,
	slug          TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL,
	summary       TEXT NOT NULL,
	body_markdown TEXT NOT NULL,
	cover_image_url TEXT NOT NULL,
	read_minutes  INTEGER NOT NULL,
	tags          TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
`

// Store is a SQLite-backed content store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the posts database at the given path. Pass
// ":memory:" for an in-memory database (used by tests).
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create persists a draft under the given slug and returns the stored post.
func (s *Store) Create(ctx context.Context, slug string, draft *types.Draft) (*types.Post, error) {
	post := &types.Post{
		ID:                   types.NewPostID(),
		Slug:                 slug,
		Title:                draft.Title,
		Summary:              draft.Summary,
		BodyMarkdown:         draft.BodyMarkdown,
		CoverImageURL:        draft.CoverImageURL,
		EstimatedReadMinutes: draft.EstimatedReadMinutes,
		Tags:                 draft.Tags,
		CreatedAt:            time.Now().UTC(),
	}

	tags, err := json.Marshal(post.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO posts (id, slug, title, summary, body_markdown, cover_image_url, read_minutes, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(post.ID), post.Slug, post.Title, post.Summary, post.BodyMarkdown,
		post.CoverImageURL, post.EstimatedReadMinutes, string(tags), post.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

// FindBySlug returns the post with the given slug, or nil if absent.
func (s *Store) FindBySlug(ctx context.Context, slug string) (*types.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, slug, title, summary, body_markdown, cover_image_url, read_minutes, tags, created_at
		 FROM posts WHERE slug = ?`, slug)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return post, nil
}

// List returns up to limit posts, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*types.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, title, summary, body_markdown, cover_image_url, read_minutes, tags, created_at
		 FROM posts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []*types.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*types.Post, error) {
	var post types.Post
	var id, tags string
	if err := row.Scan(&id, &post.Slug, &post.Title, &post.Summary, &post.BodyMarkdown,
		&post.CoverImageURL, &post.EstimatedReadMinutes, &tags, &post.CreatedAt); err != nil {
		return nil, err
	}
	post.ID = types.PostID(id)
	if err := json.Unmarshal([]byte(tags), &post.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return &post, nil
}
