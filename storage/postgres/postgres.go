package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"blogadmin/models"
	"blogadmin/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    id SERIAL PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    content TEXT NOT NULL,
    author VARCHAR(100) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'draft',
    published_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at);
`

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// PostgresStorage implements storage.Storage on PostgreSQL.
type PostgresStorage struct {
	db *sql.DB
}

// Initialize connects, pings and creates the schema.
func Initialize(cfg Config) (*PostgresStorage, error) {
	psqlInfo := fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}
	return &PostgresStorage{db: db}, nil
}

func (s *PostgresStorage) List(ctx context.Context, q storage.ListQuery) (*models.PostPage, error) {
	q.Normalize()

	where := ""
	args := []interface{}{}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		args = append(args, pattern)
		n := len(args)
		where = fmt.Sprintf(" WHERE (title ILIKE $%d OR content ILIKE $%d OR author ILIKE $%d)", n, n, n)
	}
	if q.Status != "" {
		args = append(args, q.Status)
		if where == "" {
			where = fmt.Sprintf(" WHERE status = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND status = $%d", len(args))
		}
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("error counting posts: %w", err)
	}

	// q.SortBy is whitelisted at the boundary; it is never raw client input.
	order := fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id %s", q.SortBy, q.SortDir, q.SortDir)
	args = append(args, q.PerPage, (q.Page-1)*q.PerPage)
	query := `
        SELECT id, title, content, author, status, published_at, created_at, updated_at
        FROM posts` + where + order + fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(
			&post.ID, &post.Title, &post.Content, &post.Author,
			&post.Status, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return &models.PostPage{
		Posts:       posts,
		Total:       total,
		CurrentPage: q.Page,
		LastPage:    storage.LastPage(total, q.PerPage),
		PerPage:     q.PerPage,
	}, nil
}

func (s *PostgresStorage) Get(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := s.db.QueryRowContext(ctx, `
        SELECT id, title, content, author, status, published_at, created_at, updated_at
        FROM posts WHERE id = $1
    `, id).Scan(
		&post.ID, &post.Title, &post.Content, &post.Author,
		&post.Status, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching post: %w", err)
	}
	return &post, nil
}

func (s *PostgresStorage) Create(ctx context.Context, post *models.Post) error {
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO posts (title, content, author, status, published_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `, post.Title, post.Content, post.Author, post.Status,
		post.PublishedAt, post.CreatedAt, post.UpdatedAt).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("error creating post: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Update(ctx context.Context, post *models.Post) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE posts
        SET title = $1, content = $2, author = $3, status = $4, published_at = $5, updated_at = $6
        WHERE id = $7
    `, post.Title, post.Content, post.Author, post.Status,
		post.PublishedAt, post.UpdatedAt, post.ID)
	if err != nil {
		return fmt.Errorf("error updating post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking update result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM posts WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error checking post ids: %w", err)
	}
	existing := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("error scanning post id: %w", err)
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating post ids: %w", err)
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

	res, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error deleting posts: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error checking delete result: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing transaction: %w", err)
	}
	return deleted, nil
}

func (s *PostgresStorage) Counts(ctx context.Context) (*models.StatusCounts, error) {
	counts := &models.StatusCounts{}
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'draft'),
               COUNT(*) FILTER (WHERE status = 'published'),
               COUNT(*) FILTER (WHERE status = 'archived')
        FROM posts
    `).Scan(&counts.Total, &counts.Draft, &counts.Published, &counts.Archived)
	if err != nil {
		return nil, fmt.Errorf("error counting posts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
