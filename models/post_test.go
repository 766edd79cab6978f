package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCreatePostRequestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := CreatePostRequest{Title: "Hello", Content: "Body", Author: "Ana", Status: StatusDraft}
		assert.Empty(t, req.Validate())
	})

	t.Run("missing required fields", func(t *testing.T) {
		req := CreatePostRequest{}
		errs := req.Validate()
		assert.Contains(t, errs, "title")
		assert.Contains(t, errs, "content")
		assert.Contains(t, errs, "author")
		assert.Contains(t, errs, "status")
	})

	t.Run("field length limits", func(t *testing.T) {
		req := CreatePostRequest{
			Title:   strings.Repeat("x", 256),
			Content: "Body",
			Author:  strings.Repeat("y", 101),
			Status:  StatusDraft,
		}
		errs := req.Validate()
		assert.Contains(t, errs, "title")
		assert.Contains(t, errs, "author")
		assert.NotContains(t, errs, "content")
	})

	t.Run("unknown status", func(t *testing.T) {
		req := CreatePostRequest{Title: "Hello", Content: "Body", Author: "Ana", Status: "pending"}
		errs := req.Validate()
		assert.Contains(t, errs, "status")
	})

	t.Run("limits count characters not bytes", func(t *testing.T) {
		// 255 two-byte characters is 510 bytes but still within the limit.
		req := CreatePostRequest{
			Title:   strings.Repeat("é", 255),
			Content: "Body",
			Author:  strings.Repeat("ü", 100),
			Status:  StatusDraft,
		}
		assert.Empty(t, req.Validate())

		req.Title = strings.Repeat("é", 256)
		req.Author = strings.Repeat("ü", 101)
		errs := req.Validate()
		assert.Contains(t, errs, "title")
		assert.Contains(t, errs, "author")
	})
}

func TestCreatePostRequestNewPost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("published without date gets stamped", func(t *testing.T) {
		req := CreatePostRequest{Title: "Hello", Content: "Body", Author: "Ana", Status: StatusPublished}
		post := req.NewPost(now)
		if assert.NotNil(t, post.PublishedAt) {
			assert.Equal(t, now, *post.PublishedAt)
		}
		assert.Equal(t, now, post.CreatedAt)
		assert.Equal(t, now, post.UpdatedAt)
	})

	t.Run("explicit date preserved", func(t *testing.T) {
		explicit := now.AddDate(0, 0, -7)
		req := CreatePostRequest{Title: "Hello", Content: "Body", Author: "Ana", Status: StatusPublished, PublishedAt: &explicit}
		post := req.NewPost(now)
		if assert.NotNil(t, post.PublishedAt) {
			assert.Equal(t, explicit, *post.PublishedAt)
		}
	})

	t.Run("draft stays undated", func(t *testing.T) {
		req := CreatePostRequest{Title: "Hello", Content: "Body", Author: "Ana", Status: StatusDraft}
		post := req.NewPost(now)
		assert.Nil(t, post.PublishedAt)
	})
}

func TestUpdatePostRequestValidate(t *testing.T) {
	t.Run("empty update is valid", func(t *testing.T) {
		req := UpdatePostRequest{}
		assert.Empty(t, req.Validate())
	})

	t.Run("present fields are checked", func(t *testing.T) {
		req := UpdatePostRequest{
			Title:  strPtr(""),
			Status: strPtr("bogus"),
		}
		errs := req.Validate()
		assert.Contains(t, errs, "title")
		assert.Contains(t, errs, "status")
	})

	t.Run("limits count characters not bytes", func(t *testing.T) {
		req := UpdatePostRequest{
			Title:  strPtr(strings.Repeat("é", 255)),
			Author: strPtr(strings.Repeat("ü", 100)),
		}
		assert.Empty(t, req.Validate())

		req.Title = strPtr(strings.Repeat("é", 256))
		req.Author = strPtr(strings.Repeat("ü", 101))
		errs := req.Validate()
		assert.Contains(t, errs, "title")
		assert.Contains(t, errs, "author")
	})
}

func TestUpdatePostRequestApplyTo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	base := func() *Post {
		return &Post{
			ID:        1,
			Title:     "Original",
			Content:   "Original body",
			Author:    "Ana",
			Status:    StatusDraft,
			CreatedAt: now.AddDate(0, 0, -1),
			UpdatedAt: now.AddDate(0, 0, -1),
		}
	}

	t.Run("omitted fields unchanged", func(t *testing.T) {
		post := base()
		req := UpdatePostRequest{Title: strPtr("New title")}
		req.ApplyTo(post, now)
		assert.Equal(t, "New title", post.Title)
		assert.Equal(t, "Original body", post.Content)
		assert.Equal(t, "Ana", post.Author)
		assert.Equal(t, StatusDraft, post.Status)
		assert.Equal(t, now, post.UpdatedAt)
	})

	t.Run("publishing without date stamps now", func(t *testing.T) {
		post := base()
		req := UpdatePostRequest{Status: strPtr(StatusPublished)}
		req.ApplyTo(post, now)
		if assert.NotNil(t, post.PublishedAt) {
			assert.Equal(t, now, *post.PublishedAt)
		}
	})

	t.Run("existing date never overwritten", func(t *testing.T) {
		post := base()
		existing := now.AddDate(0, 0, -30)
		post.PublishedAt = &existing
		req := UpdatePostRequest{Status: strPtr(StatusPublished)}
		req.ApplyTo(post, now)
		if assert.NotNil(t, post.PublishedAt) {
			assert.Equal(t, existing, *post.PublishedAt)
		}
	})

	t.Run("explicit new date wins", func(t *testing.T) {
		post := base()
		explicit := now.AddDate(0, 0, -3)
		req := UpdatePostRequest{Status: strPtr(StatusPublished), PublishedAt: NullableTime{Set: true, Value: &explicit}}
		req.ApplyTo(post, now)
		if assert.NotNil(t, post.PublishedAt) {
			assert.Equal(t, explicit, *post.PublishedAt)
		}
	})

	t.Run("already published post keeps its date", func(t *testing.T) {
		post := base()
		existing := now.AddDate(0, 0, -30)
		post.Status = StatusPublished
		post.PublishedAt = &existing
		req := UpdatePostRequest{Title: strPtr("Edited")}
		req.ApplyTo(post, now)
		assert.Equal(t, existing, *post.PublishedAt)
	})

	t.Run("explicit null clears the date", func(t *testing.T) {
		post := base()
		existing := now.AddDate(0, 0, -30)
		post.Status = StatusPublished
		post.PublishedAt = &existing
		req := UpdatePostRequest{PublishedAt: NullableTime{Set: true}}
		req.ApplyTo(post, now)
		assert.Nil(t, post.PublishedAt)
	})

	t.Run("explicit null suppresses the publish stamp", func(t *testing.T) {
		post := base()
		req := UpdatePostRequest{Status: strPtr(StatusPublished), PublishedAt: NullableTime{Set: true}}
		req.ApplyTo(post, now)
		assert.Equal(t, StatusPublished, post.Status)
		assert.Nil(t, post.PublishedAt)
	})
}

func TestNullableTimeJSON(t *testing.T) {
	t.Run("absent field stays unset", func(t *testing.T) {
		var req UpdatePostRequest
		err := json.Unmarshal([]byte(`{"title":"New"}`), &req)
		assert.NoError(t, err)
		assert.False(t, req.PublishedAt.Set)
	})

	t.Run("null marks the field set with no value", func(t *testing.T) {
		var req UpdatePostRequest
		err := json.Unmarshal([]byte(`{"published_at":null}`), &req)
		assert.NoError(t, err)
		assert.True(t, req.PublishedAt.Set)
		assert.Nil(t, req.PublishedAt.Value)
	})

	t.Run("value round-trips", func(t *testing.T) {
		var req UpdatePostRequest
		err := json.Unmarshal([]byte(`{"published_at":"2026-03-01T12:00:00Z"}`), &req)
		assert.NoError(t, err)
		if assert.NotNil(t, req.PublishedAt.Value) {
			assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), *req.PublishedAt.Value)
		}
	})

	t.Run("unset field is omitted from request bodies", func(t *testing.T) {
		body, err := json.Marshal(UpdatePostRequest{Title: strPtr("New")})
		assert.NoError(t, err)
		assert.NotContains(t, string(body), "published_at")

		body, err = json.Marshal(UpdatePostRequest{PublishedAt: NullableTime{Set: true}})
		assert.NoError(t, err)
		assert.Contains(t, string(body), `"published_at":null`)
	})
}

func TestBulkDeleteRequestValidate(t *testing.T) {
	t.Run("empty ids rejected", func(t *testing.T) {
		req := BulkDeleteRequest{}
		assert.Contains(t, req.Validate(), "ids")
	})

	t.Run("non-positive id rejected", func(t *testing.T) {
		req := BulkDeleteRequest{IDs: []int64{1, 0, -3}}
		errs := req.Validate()
		assert.Contains(t, errs, "ids.1")
		assert.Contains(t, errs, "ids.2")
		assert.NotContains(t, errs, "ids.0")
	})

	t.Run("valid ids pass", func(t *testing.T) {
		req := BulkDeleteRequest{IDs: []int64{1, 2}}
		assert.Empty(t, req.Validate())
	})
}
