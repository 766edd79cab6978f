package models

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// Post statuses, matching the values stored in the database.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// ValidStatus reports whether s is one of the known post statuses.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Post is the single entity managed by this application.
//
// Pending is never set by the server; the client marks a post pending while a
// mutation on it is in flight, and the flag disappears on the next refetch of
// canonical state.
type Post struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Pending     bool       `json:"_isPending,omitempty"`
}

// PostPage is one page of a filtered post listing.
type PostPage struct {
	Posts       []Post
	Total       int
	CurrentPage int
	LastPage    int
	PerPage     int
}

// StatusCounts holds per-status totals for the stats endpoint.
type StatusCounts struct {
	Total     int `json:"total"`
	Draft     int `json:"draft"`
	Published int `json:"published"`
	Archived  int `json:"archived"`
}

// NullableTime is a time field that distinguishes "absent" from an explicit
// JSON null. Set is true once the field appeared in the request body at all;
// a null body leaves Value nil. The omitzero tag option keeps unset fields
// out of request bodies produced by the client.
type NullableTime struct {
	Set   bool
	Value *time.Time
}

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

func (n NullableTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Value)
}

// IsZero reports whether the field was never set, for use with omitzero.
func (n NullableTime) IsZero() bool { return !n.Set }

type CreatePostRequest struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
}

// Validate checks all required fields and returns a field -> messages map,
// empty when the request is valid.
func (r *CreatePostRequest) Validate() map[string][]string {
	errs := map[string][]string{}
	if r.Title == "" {
		errs["title"] = append(errs["title"], "The title field is required.")
	} else if utf8.RuneCountInString(r.Title) > 255 {
		errs["title"] = append(errs["title"], "The title field must not be greater than 255 characters.")
	}
	if r.Content == "" {
		errs["content"] = append(errs["content"], "The content field is required.")
	}
	if r.Author == "" {
		errs["author"] = append(errs["author"], "The author field is required.")
	} else if utf8.RuneCountInString(r.Author) > 100 {
		errs["author"] = append(errs["author"], "The author field must not be greater than 100 characters.")
	}
	if r.Status == "" {
		errs["status"] = append(errs["status"], "The status field is required.")
	} else if !ValidStatus(r.Status) {
		errs["status"] = append(errs["status"], "The selected status is invalid.")
	}
	return errs
}

// NewPost builds a post from a validated create request. A post created as
// "published" with no explicit publication date is stamped with now.
func (r *CreatePostRequest) NewPost(now time.Time) *Post {
	post := &Post{
		Title:       r.Title,
		Content:     r.Content,
		Author:      r.Author,
		Status:      r.Status,
		PublishedAt: r.PublishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if post.Status == StatusPublished && post.PublishedAt == nil {
		t := now
		post.PublishedAt = &t
	}
	return post
}

// UpdatePostRequest carries a partial update; absent fields are left
// untouched. PublishedAt accepts an explicit null to clear the date.
type UpdatePostRequest struct {
	Title       *string      `json:"title"`
	Content     *string      `json:"content"`
	Author      *string      `json:"author"`
	Status      *string      `json:"status"`
	PublishedAt NullableTime `json:"published_at,omitzero"`
}

// Validate checks only the fields that are present.
func (r *UpdatePostRequest) Validate() map[string][]string {
	errs := map[string][]string{}
	if r.Title != nil {
		if *r.Title == "" {
			errs["title"] = append(errs["title"], "The title field is required.")
		} else if utf8.RuneCountInString(*r.Title) > 255 {
			errs["title"] = append(errs["title"], "The title field must not be greater than 255 characters.")
		}
	}
	if r.Content != nil && *r.Content == "" {
		errs["content"] = append(errs["content"], "The content field is required.")
	}
	if r.Author != nil {
		if *r.Author == "" {
			errs["author"] = append(errs["author"], "The author field is required.")
		} else if utf8.RuneCountInString(*r.Author) > 100 {
			errs["author"] = append(errs["author"], "The author field must not be greater than 100 characters.")
		}
	}
	if r.Status != nil && !ValidStatus(*r.Status) {
		errs["status"] = append(errs["status"], "The selected status is invalid.")
	}
	return errs
}

// ApplyTo merges the present fields over post. A status transition to
// "published" with no publication date, old or new, stamps the post with now;
// an existing date is never overwritten implicitly, and an explicit null in
// the same request suppresses the stamp.
func (r *UpdatePostRequest) ApplyTo(post *Post, now time.Time) {
	if r.Title != nil {
		post.Title = *r.Title
	}
	if r.Content != nil {
		post.Content = *r.Content
	}
	if r.Author != nil {
		post.Author = *r.Author
	}
	if r.PublishedAt.Set {
		post.PublishedAt = r.PublishedAt.Value
	}
	if r.Status != nil {
		becomingPublished := *r.Status == StatusPublished && post.Status != StatusPublished
		post.Status = *r.Status
		if becomingPublished && post.PublishedAt == nil && !r.PublishedAt.Set {
			t := now
			post.PublishedAt = &t
		}
	}
	post.UpdatedAt = now
}

type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

func (r *BulkDeleteRequest) Validate() map[string][]string {
	errs := map[string][]string{}
	if len(r.IDs) == 0 {
		errs["ids"] = append(errs["ids"], "The ids field is required.")
	}
	for i, id := range r.IDs {
		if id <= 0 {
			key := fmt.Sprintf("ids.%d", i)
			errs[key] = append(errs[key], "The selected id is invalid.")
		}
	}
	return errs
}
