package domain

import (
	"database/sql/driver"
	"fmt"
)

// Role is the closed set of account roles. The zero value is not a valid role;
// callers obtain roles from the package values or ParseRole.
type Role struct {
	name string
}

var (
	RoleUser     = Role{name: "user"}
	RoleAssignee = Role{name: "assignee"}
	RoleAdmin    = Role{name: "admin"}
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleUser, RoleAssignee, RoleAdmin}
}

// ParseRole converts the wire representation into a Role.
func ParseRole(value string) (Role, error) {
	switch value {
	case RoleUser.name:
		return RoleUser, nil
	case RoleAssignee.name:
		return RoleAssignee, nil
	case RoleAdmin.name:
		return RoleAdmin, nil
	default:
		return Role{}, fmt.Errorf("invalid role %q", value)
	}
}

func (r Role) String() string {
	return r.name
}

// IsZero reports whether r was never assigned a valid role.
func (r Role) IsZero() bool {
	return r.name == ""
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if r.IsZero() {
		return nil, fmt.Errorf("marshal zero role")
	}
	return []byte(r.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Scan implements sql.Scanner so pgx can read the role column directly.
func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	if r.IsZero() {
		return nil, fmt.Errorf("write zero role")
	}
	return r.name, nil
}
