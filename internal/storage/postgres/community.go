package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type communityStorage struct {
	pool *pgxpool.Pool
}

const postSelect = `
	SELECT p.id, p.user_id, u.name, p.body, p.workout_id,
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
		p.created_at
	FROM posts p
	JOIN users u ON u.id = p.user_id
`

func scanPost(row pgx.Row) (*storage.Post, error) {
	var p storage.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.AuthorName, &p.Body, &p.WorkoutID, &p.LikeCount, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *communityStorage) CreatePost(ctx context.Context, p *storage.Post) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO posts (id, user_id, body, workout_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, p.ID, p.UserID, p.Body, p.WorkoutID).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	p.LikeCount = 0
	return nil
}

func (s *communityStorage) GetPost(ctx context.Context, id uuid.UUID) (*storage.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return p, nil
}

func (s *communityStorage) ListPosts(ctx context.Context, limit, offset int) ([]storage.Post, error) {
	query := postSelect + ` ORDER BY p.created_at DESC, p.id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", offset)
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []storage.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (s *communityStorage) DeletePost(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *communityStorage) LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to like post: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *communityStorage) UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to unlike post: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *communityStorage) CountPosts(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM posts`).Scan(&n)
	return n, err
}

func (s *communityStorage) postExists(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}
	return nil
}
