package storage

import (
	"context"
	"errors"
	"fmt"

	"blogadmin/models"
)

// ErrNotFound is returned by Get, Update and Delete when no post has the
// requested id.
var ErrNotFound = errors.New("post not found")

// ValidationError carries a field -> messages map, mirroring the shape the
// HTTP layer serializes for 422 responses.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Sortable fields for list queries. Anything else must be rejected at the
// boundary and never reach an ORDER BY clause.
var sortableFields = map[string]bool{
	"id":           true,
	"title":        true,
	"author":       true,
	"status":       true,
	"published_at": true,
	"created_at":   true,
	"updated_at":   true,
}

// SortableField reports whether name may be used as a sort column.
func SortableField(name string) bool {
	return sortableFields[name]
}

// ListQuery describes one page of a filtered, sorted post listing.
// Zero values mean "use the default"; Normalize fills them in.
type ListQuery struct {
	Page    int
	PerPage int
	SortBy  string
	SortDir string
	Search  string
	Status  string
}

// Normalize clamps paging values and fills defaults. Sort field and
// direction must already be validated; Normalize only fills blanks.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 10
	}
	if q.PerPage > 100 {
		q.PerPage = 100
	}
	if q.SortBy == "" {
		q.SortBy = "published_at"
	}
	if q.SortDir == "" {
		q.SortDir = "desc"
	}
}

// Storage is the authoritative post store. Create assigns the post's id;
// timestamps and the publish-date rule are the caller's responsibility so
// that all backends behave identically.
type Storage interface {
	List(ctx context.Context, q ListQuery) (*models.PostPage, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int64) error
	// DeleteMany removes all listed posts. When any id does not exist it
	// deletes nothing and returns a ValidationError naming the bad ids.
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
	Counts(ctx context.Context) (*models.StatusCounts, error)
	Ping(ctx context.Context) error
	Close() error
}

// LastPage computes the 1-based last page number; an empty result set still
// has one (empty) page.
func LastPage(total, perPage int) int {
	if total <= 0 {
		return 1
	}
	last := (total + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}
	return last
}
