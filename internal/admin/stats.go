// AngelaMos | 2026
// stats.go

package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/inkpost/internal/core"
)

type PlatformStats struct {
	TotalUsers          int `db:"total_users"           json:"total_users"`
	TotalAuthors        int `db:"total_authors"         json:"total_authors"`
	TotalBlogs          int `db:"total_blogs"           json:"total_blogs"`
	TrendingBlogs       int `db:"trending_blogs"        json:"trending_blogs"`
	NewUsers            int `db:"new_users"             json:"new_users"`
	NewBlogs            int `db:"new_blogs"             json:"new_blogs"`
	BannedUsers         int `db:"banned_users"          json:"banned_users"`
	SuspendedUsers      int `db:"suspended_users"       json:"suspended_users"`
	ActiveSubscriptions int `db:"active_subscriptions"  json:"active_subscriptions"`
}

type StatsStore interface {
	PlatformStats(ctx context.Context, since, now time.Time) (*PlatformStats, error)
}

type statsStore struct {
	db *sqlx.DB
}

func NewStatsStore(db *sqlx.DB) StatsStore {
	return &statsStore{db: db}
}

// PlatformStats counts flags as stored. A suspension or plan that lapsed
// without the user returning is still counted until it is corrected.
func (s *statsStore) PlatformStats(
	ctx context.Context,
	since, now time.Time,
) (*PlatformStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users)                                  AS total_users,
			(SELECT COUNT(*) FROM users WHERE role = $3)                  AS total_authors,
			(SELECT COUNT(*) FROM blogs)                                  AS total_blogs,
			(SELECT COUNT(*) FROM blogs WHERE trending)                   AS trending_blogs,
			(SELECT COUNT(*) FROM users WHERE created_at >= $1)           AS new_users,
			(SELECT COUNT(*) FROM blogs WHERE created_at >= $1)           AS new_blogs,
			(SELECT COUNT(*) FROM users WHERE is_banned)                  AS banned_users,
			(SELECT COUNT(*) FROM users WHERE is_suspended)               AS suspended_users,
			(SELECT COUNT(*) FROM users
			  WHERE subscription_expires_at IS NOT NULL
			    AND subscription_expires_at > $2)                         AS active_subscriptions`

	var stats PlatformStats
	if err := s.db.GetContext(ctx, &stats, query, since, now, core.RoleAuthor); err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}

	return &stats, nil
}
