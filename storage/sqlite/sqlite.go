package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"blogadmin/models"
	"blogadmin/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    author TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft',
    published_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at);
`

// SqliteStorage implements storage.Storage on a local SQLite file, for
// single-binary deployments with no database server.
type SqliteStorage struct {
	db *sql.DB
}

// Open opens or creates the database at path and initializes the schema.
func Open(path string) (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps readers unblocked during writes.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SqliteStorage{db: db}, nil
}

func (s *SqliteStorage) List(ctx context.Context, q storage.ListQuery) (*models.PostPage, error) {
	q.Normalize()

	where := ""
	args := []interface{}{}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		where = " WHERE (LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(author) LIKE ?)"
		args = append(args, pattern, pattern, pattern)
	}
	if q.Status != "" {
		if where == "" {
			where = " WHERE status = ?"
		} else {
			where += " AND status = ?"
		}
		args = append(args, q.Status)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	// q.SortBy is whitelisted at the boundary; it is never raw client input.
	order := fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id %s", q.SortBy, q.SortDir, q.SortDir)
	query := `
	SELECT id, title, content, author, status, published_at, created_at, updated_at
	FROM posts` + where + order + " LIMIT ? OFFSET ?"
	args = append(args, q.PerPage, (q.Page-1)*q.PerPage)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(
			&post.ID, &post.Title, &post.Content, &post.Author,
			&post.Status, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return &models.PostPage{
		Posts:       posts,
		Total:       total,
		CurrentPage: q.Page,
		LastPage:    storage.LastPage(total, q.PerPage),
		PerPage:     q.PerPage,
	}, nil
}

func (s *SqliteStorage) Get(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := s.db.QueryRowContext(ctx, `
	SELECT id, title, content, author, status, published_at, created_at, updated_at
	FROM posts WHERE id = ?
	`, id).Scan(
		&post.ID, &post.Title, &post.Content, &post.Author,
		&post.Status, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (s *SqliteStorage) Create(ctx context.Context, post *models.Post) error {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO posts (title, content, author, status, published_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, post.Title, post.Content, post.Author, post.Status,
		post.PublishedAt, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read new post id: %w", err)
	}
	post.ID = id
	return nil
}

func (s *SqliteStorage) Update(ctx context.Context, post *models.Post) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE posts
	SET title = ?, content = ?, author = ?, status = ?, published_at = ?, updated_at = ?
	WHERE id = ?
	`, post.Title, post.Content, post.Author, post.Status,
		post.PublishedAt, post.UpdatedAt, post.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check update result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *SqliteStorage) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *SqliteStorage) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM posts WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("check post ids: %w", err)
	}
	existing := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan post id: %w", err)
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate post ids: %w", err)
	}

	fields := map[string][]string{}
	for i, id := range ids {
		if !existing[id] {
			key := fmt.Sprintf("ids.%d", i)
			fields[key] = append(fields[key], fmt.Sprintf("The selected ids.%d is invalid.", i))
		}
	}
	if len(fields) > 0 {
		return 0, &storage.ValidationError{Fields: fields}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("delete posts: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check delete result: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return deleted, nil
}

func (s *SqliteStorage) Counts(ctx context.Context) (*models.StatusCounts, error) {
	counts := &models.StatusCounts{}
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*),
	       COALESCE(SUM(status = 'draft'), 0),
	       COALESCE(SUM(status = 'published'), 0),
	       COALESCE(SUM(status = 'archived'), 0)
	FROM posts
	`).Scan(&counts.Total, &counts.Draft, &counts.Published, &counts.Archived)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	return counts, nil
}

func (s *SqliteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SqliteStorage) Close() error {
	return s.db.Close()
}
