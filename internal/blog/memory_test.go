// AngelaMos | 2026
// memory_test.go

package blog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carterperez-dev/inkpost/internal/core"
)

type likeKey struct {
	blogID string
	userID string
}

type memoryBlogs struct {
	mu    sync.Mutex
	blogs map[string]Blog
	likes map[likeKey]time.Time
	names map[string]string
}

func newMemoryBlogs(blogs ...Blog) *memoryBlogs {
	m := &memoryBlogs{
		blogs: make(map[string]Blog),
		likes: make(map[likeKey]time.Time),
		names: make(map[string]string),
	}
	for _, b := range blogs {
		m.blogs[b.ID] = b
	}
	return m
}

func (m *memoryBlogs) get(id string) Blog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blogs[id]
}

func (m *memoryBlogs) Create(_ context.Context, b *Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.CreatedAt, b.UpdatedAt = time.Now(), time.Now()
	m.blogs[b.ID] = *b
	return nil
}

func (m *memoryBlogs) GetByID(_ context.Context, id string) (*Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.blogs[id]
	if !ok {
		return nil, fmt.Errorf("get blog: %w", core.ErrNotFound)
	}
	b.LikeCount = m.countLocked(id)
	return &b, nil
}

func (m *memoryBlogs) OwnerID(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.blogs[id]
	if !ok {
		return "", fmt.Errorf("blog owner: %w", core.ErrNotFound)
	}
	return b.AuthorID, nil
}

func (m *memoryBlogs) ListTrending(_ context.Context, limit int) ([]Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Blog
	for _, b := range m.blogs {
		if b.Trending {
			b.LikeCount = m.countLocked(b.ID)
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// WithLockedBlog holds the store mutex for the whole callback, standing in
// for the row lock. Writes are staged and discarded when fn fails.
func (m *memoryBlogs) WithLockedBlog(
	_ context.Context,
	id string,
	fn func(b *Blog, likes LikeTx) error,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.blogs[id]
	if !ok {
		return fmt.Errorf("lock blog: %w", core.ErrNotFound)
	}

	tx := &memoryLikeTx{blog: b, likes: make(map[likeKey]time.Time, len(m.likes))}
	for k, v := range m.likes {
		tx.likes[k] = v
	}

	if err := fn(&b, tx); err != nil {
		return err
	}

	m.likes = tx.likes
	m.blogs[id] = tx.blog
	return nil
}

func (m *memoryBlogs) LikeStatus(_ context.Context, blogID, userID string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blogs[blogID]; !ok {
		return 0, false, fmt.Errorf("like status: %w", core.ErrNotFound)
	}
	_, liked := m.likes[likeKey{blogID, userID}]
	return m.countLocked(blogID), liked, nil
}

func (m *memoryBlogs) ListLikers(_ context.Context, blogID string) ([]Liker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Liker
	for k, at := range m.likes {
		if k.blogID == blogID {
			out = append(out, Liker{UserID: k.userID, Username: m.names[k.userID], LikedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memoryBlogs) countLocked(blogID string) int {
	n := 0
	for k := range m.likes {
		if k.blogID == blogID {
			n++
		}
	}
	return n
}

type memoryLikeTx struct {
	blog  Blog
	likes map[likeKey]time.Time
}

func (t *memoryLikeTx) HasLike(_ context.Context, blogID, userID string) (bool, error) {
	_, ok := t.likes[likeKey{blogID, userID}]
	return ok, nil
}

func (t *memoryLikeTx) InsertLike(_ context.Context, blogID, userID string) (bool, error) {
	k := likeKey{blogID, userID}
	if _, ok := t.likes[k]; ok {
		return false, nil
	}
	t.likes[k] = time.Now()
	return true, nil
}

func (t *memoryLikeTx) DeleteLike(_ context.Context, blogID, userID string) error {
	delete(t.likes, likeKey{blogID, userID})
	return nil
}

func (t *memoryLikeTx) CountLikes(_ context.Context, blogID string) (int, error) {
	n := 0
	for k := range t.likes {
		if k.blogID == blogID {
			n++
		}
	}
	return n, nil
}

func (t *memoryLikeTx) Promote(_ context.Context, _ string) error {
	if !t.blog.Trending {
		t.blog.Promote()
	}
	return nil
}
