package community

import (
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
)

const (
	maxBodyLength = 2000
	defaultLimit  = 20
	maxLimit      = 100
)

type PostDTO struct {
	ID         uuid.UUID  `json:"id"`
	AuthorID   uuid.UUID  `json:"author_id"`
	AuthorName string     `json:"author_name"`
	Body       string     `json:"body"`
	WorkoutID  *uuid.UUID `json:"workout_id,omitempty"`
	LikeCount  int        `json:"like_count"`
	CreatedAt  time.Time  `json:"created_at"`
}

type CreatePostRequest struct {
	Body      string     `json:"body"`
	WorkoutID *uuid.UUID `json:"workout_id"`
}

type ListPostsResponse struct {
	Posts  []PostDTO `json:"posts"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type LikeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

func toPostDTO(p storage.Post) PostDTO {
	return PostDTO{
		ID:         p.ID,
		AuthorID:   p.UserID,
		AuthorName: p.AuthorName,
		Body:       p.Body,
		WorkoutID:  p.WorkoutID,
		LikeCount:  p.LikeCount,
		CreatedAt:  p.CreatedAt,
	}
}
