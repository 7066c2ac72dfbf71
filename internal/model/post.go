package model

import (
	"math"
	"time"
)

type Post struct {
	ID           int64      `json:"id"`
	AuthorID     int64      `json:"author_id"`
	Author       PublicUser `json:"author"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Image        string     `json:"image,omitempty"`
	LikeCount    int        `json:"like_count"`
	CommentCount int        `json:"comment_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PostPatch carries the optional fields of a post update.
type PostPatch struct {
	Title   *string
	Content *string
}

type PostListData struct {
	Items []Post `json:"items"`
}

type PageQuery struct {
	Page  int
	Limit int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	// MaxPage keeps (Page-1)*Limit from overflowing at the largest limit.
	MaxPage = math.MaxInt/MaxPageLimit + 1
)

// Normalize clamps the query to a valid page window.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}
