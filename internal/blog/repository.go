// AngelaMos | 2026
// repository.go

package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/inkpost/internal/core"
)

type Repository interface {
	Create(ctx context.Context, b *Blog) error
	GetByID(ctx context.Context, id string) (*Blog, error)
	OwnerID(ctx context.Context, id string) (string, error)
	ListTrending(ctx context.Context, limit int) ([]Blog, error)

	// WithLockedBlog holds the blog row lock for the duration of fn, so
	// like toggles on one blog run one at a time. fn returning an error
	// rolls back every like write it made.
	WithLockedBlog(
		ctx context.Context,
		id string,
		fn func(b *Blog, likes LikeTx) error,
	) error

	LikeStatus(ctx context.Context, blogID, userID string) (int, bool, error)
	ListLikers(ctx context.Context, blogID string) ([]Liker, error)
}

// LikeTx is the like table as seen from inside WithLockedBlog.
type LikeTx interface {
	// HasLike reports whether a like record exists for the pair, whatever
	// its liked flag.
	HasLike(ctx context.Context, blogID, userID string) (bool, error)
	// InsertLike reports false when the pair already exists.
	InsertLike(ctx context.Context, blogID, userID string) (bool, error)
	DeleteLike(ctx context.Context, blogID, userID string) error
	CountLikes(ctx context.Context, blogID string) (int, error)
	Promote(ctx context.Context, blogID string) error
}

const blogColumns = `
		b.id, b.author_id, b.title, b.trending, b.latest, b.created_at, b.updated_at,
		(SELECT COUNT(*) FROM blog_likes l WHERE l.blog_id = b.id AND l.liked) AS like_count`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, b *Blog) error {
	query := `
		INSERT INTO blogs (id, author_id, title, trending, latest)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		b.ID,
		b.AuthorID,
		b.Title,
		b.Trending,
		b.Latest,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create blog: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Blog, error) {
	query := `SELECT` + blogColumns + `
		FROM blogs b
		WHERE b.id = $1`

	var b Blog
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get blog: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}

	return &b, nil
}

func (r *repository) OwnerID(ctx context.Context, id string) (string, error) {
	var authorID string
	err := r.db.GetContext(ctx, &authorID,
		`SELECT author_id FROM blogs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("blog owner: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("blog owner: %w", err)
	}

	return authorID, nil
}

func (r *repository) ListTrending(ctx context.Context, limit int) ([]Blog, error) {
	query := `SELECT` + blogColumns + `
		FROM blogs b
		WHERE b.trending
		ORDER BY b.updated_at DESC
		LIMIT $1`

	var blogs []Blog
	if err := r.db.SelectContext(ctx, &blogs, query, limit); err != nil {
		return nil, fmt.Errorf("list trending blogs: %w", err)
	}

	return blogs, nil
}

func (r *repository) WithLockedBlog(
	ctx context.Context,
	id string,
	fn func(b *Blog, likes LikeTx) error,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			SELECT id, author_id, title, trending, latest, created_at, updated_at
			FROM blogs
			WHERE id = $1
			FOR UPDATE`

		var b Blog
		err := tx.GetContext(ctx, &b, query, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("lock blog: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock blog: %w", err)
		}

		return fn(&b, &likeTx{tx: tx})
	})
}

func (r *repository) LikeStatus(
	ctx context.Context,
	blogID, userID string,
) (int, bool, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE l.liked) AS count,
			COALESCE(BOOL_OR(l.user_id = $2 AND l.liked), false) AS user_liked
		FROM blogs b
		LEFT JOIN blog_likes l ON l.blog_id = b.id
		WHERE b.id = $1
		GROUP BY b.id`

	var row struct {
		Count     int  `db:"count"`
		UserLiked bool `db:"user_liked"`
	}
	err := r.db.GetContext(ctx, &row, query, blogID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("like status: %w", core.ErrNotFound)
	}
	if err != nil {
		return 0, false, fmt.Errorf("like status: %w", err)
	}

	return row.Count, row.UserLiked, nil
}

func (r *repository) ListLikers(ctx context.Context, blogID string) ([]Liker, error) {
	query := `
		SELECT l.user_id, u.username, l.created_at
		FROM blog_likes l
		JOIN users u ON u.id = l.user_id
		WHERE l.blog_id = $1 AND l.liked
		ORDER BY l.created_at DESC`

	var likers []Liker
	if err := r.db.SelectContext(ctx, &likers, query, blogID); err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}

	return likers, nil
}

type likeTx struct {
	tx *sqlx.Tx
}

func (l *likeTx) HasLike(ctx context.Context, blogID, userID string) (bool, error) {
	var exists bool
	err := l.tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM blog_likes WHERE blog_id = $1 AND user_id = $2)`,
		blogID, userID)
	if err != nil {
		return false, fmt.Errorf("find like: %w", err)
	}

	return exists, nil
}

func (l *likeTx) InsertLike(ctx context.Context, blogID, userID string) (bool, error) {
	result, err := l.tx.ExecContext(ctx, `
		INSERT INTO blog_likes (blog_id, user_id, liked)
		VALUES ($1, $2, true)
		ON CONFLICT (blog_id, user_id) DO NOTHING`,
		blogID, userID)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	return rows > 0, nil
}

func (l *likeTx) DeleteLike(ctx context.Context, blogID, userID string) error {
	_, err := l.tx.ExecContext(ctx,
		`DELETE FROM blog_likes WHERE blog_id = $1 AND user_id = $2`,
		blogID, userID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

func (l *likeTx) CountLikes(ctx context.Context, blogID string) (int, error) {
	var count int
	err := l.tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM blog_likes WHERE blog_id = $1 AND liked`,
		blogID)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

func (l *likeTx) Promote(ctx context.Context, blogID string) error {
	_, err := l.tx.ExecContext(ctx, `
		UPDATE blogs
		SET trending = true, latest = false, updated_at = NOW()
		WHERE id = $1 AND NOT trending`,
		blogID)
	if err != nil {
		return fmt.Errorf("promote blog: %w", err)
	}
	return nil
}
