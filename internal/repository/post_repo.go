package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blog-api/internal/model"
)

const postSelect = `
	SELECT p.id, p.author_id, p.title, p.content, COALESCE(p.image, ''),
	       p.like_count, p.comment_count, p.created_at, p.updated_at,
	       u.id, u.nickname, u.role
	FROM posts p
	JOIN users u ON u.id = p.author_id`

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) List(ctx context.Context, limit int, offset int) ([]model.Post, error) {
	rows, err := r.pool.Query(ctx,
		postSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

// FindByID returns model.ErrPostNotFound when no row matches.
func (r *PostRepository) FindByID(ctx context.Context, id int64) (model.Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Post{}, model.ErrPostNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

func (r *PostRepository) Create(ctx context.Context, p model.Post) (model.Post, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO posts (author_id, title, content, image, like_count, comment_count)
		 VALUES ($1, $2, $3, NULLIF($4, ''), 0, 0)
		 RETURNING id`,
		p.AuthorID, p.Title, p.Content, p.Image).Scan(&id)
	if err != nil {
		return model.Post{}, fmt.Errorf("create post: %w", err)
	}

	return r.FindByID(ctx, id)
}

func (r *PostRepository) Update(ctx context.Context, id int64, patch model.PostPatch) (model.Post, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts
		 SET title = COALESCE($2, title),
		     content = COALESCE($3, content),
		     updated_at = now()
		 WHERE id = $1`,
		id, patch.Title, patch.Content)
	if err != nil {
		return model.Post{}, fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Post{}, model.ErrPostNotFound
	}

	return r.FindByID(ctx, id)
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (model.Post, error) {
	var p model.Post
	var role string
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Image,
		&p.LikeCount, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt,
		&p.Author.ID, &p.Author.Nickname, &role)
	p.Author.Role = model.Role(role)
	return p, err
}
