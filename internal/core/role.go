// AngelaMos | 2026
// role.go

package core

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is normalized once, where a token is verified or a row is read.
// Nothing downstream compares role strings case-insensitively.
type Role string

const (
	RoleUser    Role = "USER"
	RoleAuthor  Role = "AUTHOR"
	RoleAdmin   Role = "ADMIN"
	RoleCreator Role = "CREATOR"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleUser, RoleAuthor, RoleAdmin, RoleCreator:
		return r, nil
	default:
		return "", fmt.Errorf("parse role %q: %w", s, ErrInvalidInput)
	}
}

func (r Role) String() string {
	return string(r)
}

// IsStaff reports whether the role carries moderation privileges.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleCreator
}

func (r Role) CanAuthor() bool {
	return r == RoleAuthor || r.IsStaff()
}

func (r *Role) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan role: unsupported type %T", src)
	}

	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}
