package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"blogadmin/models"
	"blogadmin/storage"
)

// MemoryStorage keeps posts in a map. It backs the tests and the
// zero-setup demo mode; nothing is persisted across restarts.
type MemoryStorage struct {
	mu     sync.RWMutex
	posts  map[int64]*models.Post
	nextID int64
}

func New() *MemoryStorage {
	return &MemoryStorage{
		posts:  make(map[int64]*models.Post),
		nextID: 1,
	}
}

func (s *MemoryStorage) List(ctx context.Context, q storage.ListQuery) (*models.PostPage, error) {
	q.Normalize()

	s.mu.RLock()
	matched := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if matchesQuery(post, q) {
			matched = append(matched, *post)
		}
	}
	s.mu.RUnlock()

	sortPosts(matched, q.SortBy, q.SortDir)

	total := len(matched)
	start := (q.Page - 1) * q.PerPage
	if start > total {
		start = total
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}

	return &models.PostPage{
		Posts:       matched[start:end],
		Total:       total,
		CurrentPage: q.Page,
		LastPage:    storage.LastPage(total, q.PerPage),
		PerPage:     q.PerPage,
	}, nil
}

func matchesQuery(post *models.Post, q storage.ListQuery) bool {
	if q.Status != "" && post.Status != q.Status {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(post.Title), needle) &&
			!strings.Contains(strings.ToLower(post.Content), needle) &&
			!strings.Contains(strings.ToLower(post.Author), needle) {
			return false
		}
	}
	return true
}

// sortPosts orders posts by the whitelisted field. Posts without a
// publication date sort after dated ones in either direction, and ties fall
// back to id, matching the NULLS LAST and secondary id ordering of the SQL
// backends. The fallback keeps paging stable: the input comes from map
// iteration, so without it tied rows would shuffle between page requests.
func sortPosts(posts []models.Post, field, dir string) {
	desc := dir == "desc"
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := &posts[i], &posts[j]
		if field == "published_at" && (a.PublishedAt == nil) != (b.PublishedAt == nil) {
			return b.PublishedAt == nil
		}
		var less, equal bool
		switch field {
		case "id":
			less, equal = a.ID < b.ID, a.ID == b.ID
		case "title":
			less, equal = a.Title < b.Title, a.Title == b.Title
		case "author":
			less, equal = a.Author < b.Author, a.Author == b.Author
		case "status":
			less, equal = a.Status < b.Status, a.Status == b.Status
		case "published_at":
			if a.PublishedAt == nil {
				// Both undated; decided by the id fallback.
				equal = true
			} else {
				less, equal = a.PublishedAt.Before(*b.PublishedAt), a.PublishedAt.Equal(*b.PublishedAt)
			}
		case "created_at":
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		case "updated_at":
			less, equal = a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
		}
		if equal {
			less = a.ID < b.ID
		}
		if desc {
			return !less
		}
		return less
	})
}

func (s *MemoryStorage) Get(ctx context.Context, id int64) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *post
	return &copied, nil
}

func (s *MemoryStorage) Create(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = s.nextID
	s.nextID++
	copied := *post
	s.posts[post.ID] = &copied
	return nil
}

func (s *MemoryStorage) Update(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; !ok {
		return storage.ErrNotFound
	}
	copied := *post
	s.posts[post.ID] = &copied
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *MemoryStorage) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := map[string][]string{}
	for i, id := range ids {
		if _, ok := s.posts[id]; !ok {
			key := fmt.Sprintf("ids.%d", i)
			fields[key] = append(fields[key], fmt.Sprintf("The selected ids.%d is invalid.", i))
		}
	}
	if len(fields) > 0 {
		return 0, &storage.ValidationError{Fields: fields}
	}

	for _, id := range ids {
		delete(s.posts, id)
	}
	return int64(len(ids)), nil
}

func (s *MemoryStorage) Counts(ctx context.Context) (*models.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := &models.StatusCounts{}
	for _, post := range s.posts {
		counts.Total++
		switch post.Status {
		case models.StatusDraft:
			counts.Draft++
		case models.StatusPublished:
			counts.Published++
		case models.StatusArchived:
			counts.Archived++
		}
	}
	return counts, nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (s *MemoryStorage) Close() error { return nil }
