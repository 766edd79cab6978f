package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"blogadmin/models"
)

// ErrPending is returned when a mutation targets a post that already has a
// mutation in flight. The view is left untouched.
var ErrPending = errors.New("post has an operation in progress")

// Notifier receives user-facing outcome notifications. Implementations map
// these to toasts or log lines; fields is non-nil for validation failures.
type Notifier interface {
	Success(msg string)
	Error(msg string, fields map[string][]string)
	Warn(msg string)
}

type noopNotifier struct{}

func (noopNotifier) Success(string)                    {}
func (noopNotifier) Error(string, map[string][]string) {}
func (noopNotifier) Warn(string)                       {}

// Synchronizer applies each mutation to the local view before the request
// is sent, then reconciles on the response: success invalidates the view so
// the next read refetches canonical state, failure restores the snapshot
// taken at dispatch. Mutations on different posts may be in flight at once;
// the pending guard serializes mutations on the same post.
type Synchronizer struct {
	api    *API
	store  *Store
	notify Notifier
	now    func() time.Time

	mu         sync.Mutex
	lastTempID int64
}

// NewSynchronizer wires the synchronizer to its API client and view store.
// A nil notifier discards notifications.
func NewSynchronizer(api *API, store *Store, notify Notifier) *Synchronizer {
	if notify == nil {
		notify = noopNotifier{}
	}
	return &Synchronizer{
		api:    api,
		store:  store,
		notify: notify,
		now:    time.Now,
	}
}

// tempID produces a unique negative id for an optimistically created post.
// Derived from the current time so ids from separate sessions rarely
// collide; monotonic within a session regardless.
func (s *Synchronizer) tempID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := -s.now().UnixMilli()
	if id >= s.lastTempID {
		id = s.lastTempID - 1
	}
	s.lastTempID = id
	return id
}

// Create optimistically prepends the new post to the view for q, then
// creates it on the server. An empty or unloaded view becomes a
// single-element page rather than an error.
func (s *Synchronizer) Create(ctx context.Context, q Query, req models.CreatePostRequest) (*models.Post, error) {
	key := Key(q)
	now := s.now()

	temp := models.Post{
		ID:          s.tempID(),
		Title:       req.Title,
		Content:     req.Content,
		Author:      req.Author,
		Status:      req.Status,
		PublishedAt: req.PublishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Pending:     true,
	}

	snapshot, _ := s.store.Update(key, func(cur *View) (*View, error) {
		if cur == nil {
			n := q.normalized()
			return &View{
				Posts:       []models.Post{temp},
				Total:       1,
				CurrentPage: 1,
				LastPage:    1,
				PerPage:     n.PerPage,
			}, nil
		}
		cur.Posts = append([]models.Post{temp}, cur.Posts...)
		cur.Total++
		return cur, nil
	})

	post, err := s.api.CreatePost(ctx, req)
	if err != nil {
		s.store.Restore(key, snapshot)
		s.notify.Error("Failed to create post", fieldErrors(err))
		return nil, err
	}

	s.store.Invalidate(key)
	s.notify.Success(fmt.Sprintf("Post %q created", post.Title))
	return post, nil
}

// Update optimistically merges the partial fields over the post in the view
// for q, then updates it on the server. A post not present in the view is
// dispatched without projection; the server remains the authority.
func (s *Synchronizer) Update(ctx context.Context, q Query, id int64, req models.UpdatePostRequest) (*models.Post, error) {
	key := Key(q)
	now := s.now()

	snapshot, err := s.store.Update(key, func(cur *View) (*View, error) {
		if cur == nil {
			return nil, nil
		}
		i := cur.Find(id)
		if i < 0 {
			return cur, nil
		}
		if cur.Posts[i].Pending {
			return nil, ErrPending
		}
		req.ApplyTo(&cur.Posts[i], now)
		cur.Posts[i].Pending = true
		return cur, nil
	})
	if err != nil {
		s.notify.Warn("Post is still being processed, wait for the current operation to finish")
		return nil, err
	}

	post, err := s.api.UpdatePost(ctx, id, req)
	if err != nil {
		s.store.Restore(key, snapshot)
		s.notify.Error("Failed to update post", fieldErrors(err))
		return nil, err
	}

	s.store.Invalidate(key)
	s.notify.Success(fmt.Sprintf("Post %q updated", post.Title))
	return post, nil
}

// Delete optimistically removes the post from the view for q, then deletes
// it on the server. The page is not backfilled from later pages; the
// refetch after settlement corrects the listing.
func (s *Synchronizer) Delete(ctx context.Context, q Query, id int64) error {
	key := Key(q)

	snapshot, err := s.store.Update(key, func(cur *View) (*View, error) {
		if cur == nil {
			return nil, nil
		}
		i := cur.Find(id)
		if i < 0 {
			return cur, nil
		}
		if cur.Posts[i].Pending {
			return nil, ErrPending
		}
		cur.Posts = append(cur.Posts[:i], cur.Posts[i+1:]...)
		cur.Total--
		return cur, nil
	})
	if err != nil {
		s.notify.Warn("Post is still being processed, wait for the current operation to finish")
		return err
	}

	if err := s.api.DeletePost(ctx, id); err != nil {
		s.store.Restore(key, snapshot)
		s.notify.Error("Failed to delete post", fieldErrors(err))
		return err
	}

	s.store.Invalidate(key)
	s.notify.Success("Post deleted")
	return nil
}

// DeleteMany removes all listed posts from the view at once, then issues a
// bulk delete. The server validates every id before deleting any, so a
// single bad id rolls back the whole projection.
func (s *Synchronizer) DeleteMany(ctx context.Context, q Query, ids []int64) (*BulkDeleteResult, error) {
	key := Key(q)

	snapshot, err := s.store.Update(key, func(cur *View) (*View, error) {
		if cur == nil {
			return nil, nil
		}
		for _, id := range ids {
			if i := cur.Find(id); i >= 0 && cur.Posts[i].Pending {
				return nil, ErrPending
			}
		}
		for _, id := range ids {
			if i := cur.Find(id); i >= 0 {
				cur.Posts = append(cur.Posts[:i], cur.Posts[i+1:]...)
				cur.Total--
			}
		}
		return cur, nil
	})
	if err != nil {
		s.notify.Warn("Some posts are still being processed, wait for the current operation to finish")
		return nil, err
	}

	result, err := s.api.BulkDeletePosts(ctx, ids)
	if err != nil {
		s.store.Restore(key, snapshot)
		s.notify.Error("Failed to delete posts", fieldErrors(err))
		return nil, err
	}

	s.store.Invalidate(key)
	s.notify.Success(fmt.Sprintf("%d post(s) deleted", result.DeletedCount))
	return result, nil
}

// Refetch fetches canonical state for q. A result that loses the race to a
// newer fetch for the same parameters is discarded, so out-of-order
// responses never land over a newer one.
func (s *Synchronizer) Refetch(ctx context.Context, q Query) (*View, error) {
	key := Key(q)
	gen := s.store.BeginFetch(key)

	view, err := s.api.ListPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	s.store.CompleteFetch(gen, key, view)
	return view, nil
}

// Load returns the cached view for q, refetching first when the cache is
// stale or the view was never loaded.
func (s *Synchronizer) Load(ctx context.Context, q Query) (*View, error) {
	key := Key(q)
	if !s.store.Stale(key) {
		if view, ok := s.store.Get(key); ok {
			return view, nil
		}
	}
	return s.Refetch(ctx, q)
}

func fieldErrors(err error) map[string][]string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindValidation {
		return apiErr.Fields
	}
	return nil
}
