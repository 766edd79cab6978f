package client

import (
	"net/url"
	"strconv"
)

// Query holds the list-view parameters. Zero values mean "default".
type Query struct {
	Page    int
	PerPage int
	SortBy  string
	SortDir string
	Search  string
	Status  string
}

// normalized returns a copy with every default filled in, so two queries
// that mean the same page produce the same key.
func (q Query) normalized() Query {
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
	return q
}

// values renders the query as URL parameters, omitting empty filters.
func (q Query) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	v.Set("sort_by", q.SortBy)
	v.Set("sort_dir", q.SortDir)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return v
}

// Key maps a query to its cache key. It is a pure function: equal queries
// (after defaulting) always map to the same key, so invalidation targets
// exactly the view a mutation was issued against.
func Key(q Query) string {
	return "posts?" + q.normalized().values().Encode()
}
