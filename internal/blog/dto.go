// AngelaMos | 2026
// dto.go

package blog

import (
	"time"
)

type CreateBlogRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type BlogResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Trending  bool      `json:"trending"`
	Latest    bool      `json:"latest"`
	LikeCount int       `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ToggleLikeResponse struct {
	Liked    bool `json:"liked"`
	Count    int  `json:"count"`
	Trending bool `json:"trending"`
}

type LikeStatusResponse struct {
	Count     int  `json:"count"`
	UserLiked bool `json:"user_liked"`
}

type LikerResponse struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	LikedAt  time.Time `json:"liked_at"`
}

type LikersResponse struct {
	Count  int             `json:"count"`
	Likers []LikerResponse `json:"likers"`
}

func toBlogResponse(b *Blog) BlogResponse {
	return BlogResponse{
		ID:        b.ID,
		AuthorID:  b.AuthorID,
		Title:     b.Title,
		Trending:  b.Trending,
		Latest:    b.Latest,
		LikeCount: b.LikeCount,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func toBlogResponseList(blogs []Blog) []BlogResponse {
	out := make([]BlogResponse, 0, len(blogs))
	for i := range blogs {
		out = append(out, toBlogResponse(&blogs[i]))
	}
	return out
}

func toLikersResponse(likers []Liker) LikersResponse {
	out := make([]LikerResponse, 0, len(likers))
	for _, l := range likers {
		out = append(out, LikerResponse{
			UserID:   l.UserID,
			Username: l.Username,
			LikedAt:  l.LikedAt,
		})
	}
	return LikersResponse{Count: len(out), Likers: out}
}
