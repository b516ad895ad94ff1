// AngelaMos | 2026
// service.go

package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/inkpost/internal/config"
	"github.com/carterperez-dev/inkpost/internal/core"
)

const (
	maxTitleLength = 200
	trendingLimit  = 20
)

type ToggleResult struct {
	Liked    bool
	Count    int
	Promoted bool
	Trending bool
}

type Service struct {
	blogs     Repository
	threshold int
	logger    *slog.Logger
}

func NewService(blogs Repository, cfg config.EngagementConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.TrendingThreshold
	if threshold < 1 {
		threshold = 3
	}
	return &Service{
		blogs:     blogs,
		threshold: threshold,
		logger:    logger,
	}
}

// Create publishes a new post on the latest feed.
func (s *Service) Create(ctx context.Context, authorID, title string) (*Blog, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, core.ValidationError("title is required")
	}
	if len(title) > maxTitleLength {
		return nil, core.ValidationError(
			fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}

	b := &Blog{
		ID:       uuid.New().String(),
		AuthorID: authorID,
		Title:    title,
		Latest:   true,
	}
	if err := s.blogs.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "blog created", "blog_id", b.ID, "author_id", authorID)
	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Blog, error) {
	b, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (s *Service) ListTrending(ctx context.Context) ([]Blog, error) {
	return s.blogs.ListTrending(ctx, trendingLimit)
}

// ToggleLike flips userID's like on blogID and applies the trending rule
// against the recounted total. The rule runs on unlikes too; it only ever
// promotes.
func (s *Service) ToggleLike(ctx context.Context, blogID, userID string) (*ToggleResult, error) {
	ctx, span := core.StartSpan(ctx, "blog.ToggleLike",
		attribute.String("blog.id", blogID),
		attribute.String("user.id", userID),
	)
	defer span.End()

	var result ToggleResult

	err := s.blogs.WithLockedBlog(ctx, blogID, func(b *Blog, likes LikeTx) error {
		exists, err := likes.HasLike(ctx, blogID, userID)
		if err != nil {
			return err
		}

		if exists {
			if err := likes.DeleteLike(ctx, blogID, userID); err != nil {
				return err
			}
			result.Liked = false
		} else {
			// A lost insert race means the other writer already liked it.
			if _, err := likes.InsertLike(ctx, blogID, userID); err != nil {
				return err
			}
			result.Liked = true
		}

		count, err := likes.CountLikes(ctx, blogID)
		if err != nil {
			return err
		}
		result.Count = count

		if ShouldPromote(b, count, s.threshold) {
			if err := likes.Promote(ctx, blogID); err != nil {
				return err
			}
			b.Promote()
			result.Promoted = true
		}
		result.Trending = b.Trending

		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, notFound(err)
	}

	if result.Promoted {
		core.AddSpanEvent(ctx, "blog.promoted", attribute.Int("like_count", result.Count))
		s.logger.InfoContext(ctx, "blog promoted to trending",
			"blog_id", blogID,
			"like_count", result.Count,
		)
	}

	return &result, nil
}

func (s *Service) LikeStatus(ctx context.Context, blogID, userID string) (int, bool, error) {
	count, liked, err := s.blogs.LikeStatus(ctx, blogID, userID)
	if err != nil {
		return 0, false, notFound(err)
	}
	return count, liked, nil
}

func (s *Service) Likers(ctx context.Context, blogID string) ([]Liker, error) {
	return s.blogs.ListLikers(ctx, blogID)
}

func notFound(err error) error {
	if errors.Is(err, core.ErrNotFound) && !core.IsAppError(err) {
		return core.NotFoundError("blog")
	}
	return err
}
