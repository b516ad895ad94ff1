// AngelaMos | 2026
// entity.go

package blog

import (
	"time"
)

type Blog struct {
	ID        string    `db:"id"`
	AuthorID  string    `db:"author_id"`
	Title     string    `db:"title"`
	Trending  bool      `db:"trending"`
	Latest    bool      `db:"latest"`
	LikeCount int       `db:"like_count"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ShouldPromote reports whether a blog with count likes crosses into
// trending. Promotion is one-way: a trending blog is never demoted, so an
// unlike that drops the count below threshold changes nothing.
func ShouldPromote(b *Blog, count, threshold int) bool {
	return !b.Trending && count >= threshold
}

// Promote marks b trending and takes it off the latest feed.
func (b *Blog) Promote() {
	b.Trending = true
	b.Latest = false
}

type Liker struct {
	UserID   string    `db:"user_id"`
	Username string    `db:"username"`
	LikedAt  time.Time `db:"created_at"`
}
