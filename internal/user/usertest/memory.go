// AngelaMos | 2026
// memory.go

// Package usertest provides an in-memory user.Repository for service tests.
package usertest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/user"
)

// Memory serializes every write behind one mutex, which stands in for the
// row lock the Postgres repository takes.
type Memory struct {
	mu    sync.Mutex
	users map[string]user.User
}

func NewMemory(users ...user.User) *Memory {
	m := &Memory{users: make(map[string]user.User)}
	for _, u := range users {
		m.users[u.ID] = clone(u)
	}
	return m
}

// Put replaces the stored user, bypassing every guard.
func (m *Memory) Put(u user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = clone(u)
}

func (m *Memory) Get(id string) user.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.users[id])
}

func (m *Memory) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}

	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = clone(*u)
	return nil
}

func (m *Memory) GetByID(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	out := clone(u)
	return &out, nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			out := clone(u)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (m *Memory) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	m.users[id] = u
	return nil
}

func (m *Memory) List(
	_ context.Context,
	params user.ListUsersParams,
) ([]user.User, int, error) {
	params.Normalize()

	m.mu.Lock()
	var matched []user.User
	for _, u := range m.users {
		if params.Search != "" &&
			!strings.Contains(u.Email, params.Search) &&
			!strings.Contains(u.Username, params.Search) {
			continue
		}
		if params.Role != "" && u.Role.String() != params.Role {
			continue
		}
		if params.Banned != nil && u.IsBanned != *params.Banned {
			continue
		}
		if params.Suspended != nil && u.IsSuspended != *params.Suspended {
			continue
		}
		matched = append(matched, clone(u))
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)
	return matched[start:end], total, nil
}

func (m *Memory) Mutate(
	_ context.Context,
	id string,
	fn func(u *user.User) error,
) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("lock user: %w", core.ErrNotFound)
	}

	u := clone(stored)
	if err := fn(&u); err != nil {
		return nil, err
	}

	u.UpdatedAt = time.Now()
	m.users[id] = clone(u)
	return &u, nil
}

func (m *Memory) ClearExpiredSuspension(
	_ context.Context,
	id string,
	now time.Time,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || !u.IsSuspended || u.IsBanned {
		return false, nil
	}
	if u.SuspendedUntil != nil && u.SuspendedUntil.After(now) {
		return false, nil
	}

	u.ClearSuspension()
	m.users[id] = u
	return true, nil
}

func (m *Memory) DowngradeExpiredAuthor(
	_ context.Context,
	id string,
	now time.Time,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || u.Role != core.RoleAuthor {
		return false, nil
	}
	if u.SubscriptionExpiresAt != nil && !u.SubscriptionExpiresAt.Before(now) {
		return false, nil
	}

	u.Downgrade()
	m.users[id] = u
	return true, nil
}

func (m *Memory) ListStaleIDs(
	_ context.Context,
	now time.Time,
	limit int,
) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, u := range m.users {
		if u.IsBanned {
			continue
		}
		lapsedSuspension := u.IsSuspended &&
			(u.SuspendedUntil == nil || !u.SuspendedUntil.After(now))
		lapsedAuthor := u.Role == core.RoleAuthor &&
			(u.SubscriptionExpiresAt == nil || u.SubscriptionExpiresAt.Before(now))
		if lapsedSuspension || lapsedAuthor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func clone(u user.User) user.User {
	if u.SuspendedUntil != nil {
		t := *u.SuspendedUntil
		u.SuspendedUntil = &t
	}
	if u.ModerationReason != nil {
		r := *u.ModerationReason
		u.ModerationReason = &r
	}
	if u.SubscriptionPlan != nil {
		p := *u.SubscriptionPlan
		u.SubscriptionPlan = &p
	}
	if u.SubscriptionExpiresAt != nil {
		t := *u.SubscriptionExpiresAt
		u.SubscriptionExpiresAt = &t
	}
	return u
}

var _ user.Repository = (*Memory)(nil)
