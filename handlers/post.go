package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"blogadmin/models"
	"blogadmin/storage"
)

type PostHandler struct {
	store storage.Storage
	delay time.Duration
}

func NewPostHandler(store storage.Storage, delay time.Duration) *PostHandler {
	return &PostHandler{store: store, delay: delay}
}

// listMeta mirrors the pagination envelope the admin UI consumes.
type listMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

func validationResponse(c *gin.Context, fields map[string][]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "The given data was invalid.",
		"errors":  fields,
	})
}

// parseListQuery builds a ListQuery from the URL, rejecting unknown sort
// fields and directions instead of forwarding them to the store.
func parseListQuery(c *gin.Context) (storage.ListQuery, map[string][]string) {
	errs := map[string][]string{}
	q := storage.ListQuery{
		SortBy:  c.Query("sort_by"),
		SortDir: c.Query("sort_dir"),
		Search:  c.Query("search"),
		Status:  c.Query("status"),
	}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs["page"] = append(errs["page"], "The page field must be at least 1.")
		} else {
			q.Page = n
		}
	}
	if raw := c.Query("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			errs["per_page"] = append(errs["per_page"], "The per_page field must be between 1 and 100.")
		} else {
			q.PerPage = n
		}
	}
	if q.SortBy != "" && !storage.SortableField(q.SortBy) {
		errs["sort_by"] = append(errs["sort_by"], "The selected sort_by is invalid.")
	}
	if q.SortDir != "" && q.SortDir != "asc" && q.SortDir != "desc" {
		errs["sort_dir"] = append(errs["sort_dir"], "The selected sort_dir is invalid.")
	}
	if q.Status != "" && !models.ValidStatus(q.Status) {
		errs["status"] = append(errs["status"], "The selected status is invalid.")
	}

	if len(errs) > 0 {
		return q, errs
	}
	q.Normalize()
	return q, nil
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	q, errs := parseListQuery(c)
	if errs != nil {
		validationResponse(c, errs)
		return
	}

	page, err := h.store.List(c.Request.Context(), q)
	if err != nil {
		log.Printf("Error listing posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": page.Posts,
		"meta": listMeta{
			CurrentPage: page.CurrentPage,
			LastPage:    page.LastPage,
			PerPage:     page.PerPage,
			Total:       page.Total,
		},
	})
}

func (h *PostHandler) GetPost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}

	post, err := h.store.Get(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching post %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": post})
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationResponse(c, errs)
		return
	}

	h.sleep(c)

	post := req.NewPost(time.Now().UTC())
	if err := h.store.Create(c.Request.Context(), post); err != nil {
		log.Printf("Error creating post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": post})
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}

	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationResponse(c, errs)
		return
	}

	post, err := h.store.Get(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching post %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch post"})
		return
	}

	h.sleep(c)

	req.ApplyTo(post, time.Now().UTC())
	if err := h.store.Update(c.Request.Context(), post); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
			return
		}
		log.Printf("Error updating post %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": post})
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}

	h.sleep(c)

	err = h.store.Delete(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}
	if err != nil {
		log.Printf("Error deleting post %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete post"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PostHandler) BulkDeletePosts(c *gin.Context) {
	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationResponse(c, errs)
		return
	}

	h.sleep(c)

	deleted, err := h.store.DeleteMany(c.Request.Context(), req.IDs)
	if err != nil {
		var verr *storage.ValidationError
		if errors.As(err, &verr) {
			validationResponse(c, verr.Fields)
			return
		}
		log.Printf("Error bulk deleting posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Posts deleted successfully",
		"deleted_count": deleted,
	})
}

func (h *PostHandler) GetPostsStats(c *gin.Context) {
	counts, err := h.store.Counts(c.Request.Context())
	if err != nil {
		log.Printf("Error counting posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

// sleep applies the configured artificial mutation delay, giving up early if
// the client goes away.
func (h *PostHandler) sleep(c *gin.Context) {
	if h.delay <= 0 {
		return
	}
	select {
	case <-time.After(h.delay):
	case <-c.Request.Context().Done():
	}
}
