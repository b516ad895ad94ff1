// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/inkpost/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)

	// Mutate runs fn against a row-locked copy of the user and persists the
	// trust and subscription fields it leaves behind. fn returning an error
	// aborts without writing.
	Mutate(
		ctx context.Context,
		id string,
		fn func(u *User) error,
	) (*User, error)

	// ClearExpiredSuspension and DowngradeExpiredAuthor are compare-and-set
	// writes: they only apply while the row still holds the lapsed state,
	// so a concurrent admin suspension or renewal is never overwritten.
	ClearExpiredSuspension(
		ctx context.Context,
		id string,
		now time.Time,
	) (bool, error)
	DowngradeExpiredAuthor(
		ctx context.Context,
		id string,
		now time.Time,
	) (bool, error)

	ListStaleIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

const userColumns = `
		id, email, username, password_hash, role,
		is_banned, is_suspended, suspended_until, strike_count, moderation_reason,
		subscription_plan, subscription_expires_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Mutate(
	ctx context.Context,
	id string,
	fn func(u *User) error,
) (*User, error) {
	var updated *User

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		u, err := LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := fn(u); err != nil {
			return err
		}

		if err := SaveState(ctx, tx, u); err != nil {
			return err
		}

		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *repository) ClearExpiredSuspension(
	ctx context.Context,
	id string,
	now time.Time,
) (bool, error) {
	query := `
		UPDATE users
		SET is_suspended = false, suspended_until = NULL, updated_at = NOW()
		WHERE id = $1
		  AND is_suspended
		  AND NOT is_banned
		  AND (suspended_until IS NULL OR suspended_until <= $2)`

	result, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("clear expired suspension: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("clear expired suspension: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) DowngradeExpiredAuthor(
	ctx context.Context,
	id string,
	now time.Time,
) (bool, error) {
	query := `
		UPDATE users
		SET role = $3,
		    subscription_plan = NULL,
		    subscription_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1
		  AND role = $4
		  AND (subscription_expires_at IS NULL OR subscription_expires_at < $2)`

	result, err := r.db.ExecContext(
		ctx,
		query,
		id,
		now,
		core.RoleUser,
		core.RoleAuthor,
	)
	if err != nil {
		return false, fmt.Errorf("downgrade expired author: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("downgrade expired author: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) ListStaleIDs(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]string, error) {
	query := `
		SELECT id
		FROM users
		WHERE NOT is_banned
		  AND (
		    (is_suspended AND (suspended_until IS NULL OR suspended_until <= $1))
		    OR (role = $2 AND (subscription_expires_at IS NULL OR subscription_expires_at < $1))
		  )
		ORDER BY updated_at
		LIMIT $3`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, now, core.RoleAuthor, limit); err != nil {
		return nil, fmt.Errorf("list stale users: %w", err)
	}

	return ids, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR username ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Banned != nil {
		conditions = append(conditions, fmt.Sprintf("is_banned = $%d", argIdx))
		args = append(args, *params.Banned)
		argIdx++
	}

	if params.Suspended != nil {
		conditions = append(conditions, fmt.Sprintf("is_suspended = $%d", argIdx))
		args = append(args, *params.Suspended)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

// LockForUpdate reads the user row and holds its lock until the
// surrounding transaction ends.
func LockForUpdate(ctx context.Context, db core.DBTX, id string) (*User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE id = $1
		FOR UPDATE`

	var user User
	err := db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}

	return &user, nil
}

// SaveState writes back every field the trust and subscription engines own.
func SaveState(ctx context.Context, db core.DBTX, u *User) error {
	query := `
		UPDATE users
		SET role = $2,
		    is_banned = $3,
		    is_suspended = $4,
		    suspended_until = $5,
		    strike_count = $6,
		    moderation_reason = $7,
		    subscription_plan = $8,
		    subscription_expires_at = $9,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := db.GetContext(ctx, &u.UpdatedAt, query,
		u.ID,
		u.Role,
		u.IsBanned,
		u.IsSuspended,
		u.SuspendedUntil,
		u.StrikeCount,
		u.ModerationReason,
		u.SubscriptionPlan,
		u.SubscriptionExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("save user state: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("save user state: %w", err)
	}

	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
