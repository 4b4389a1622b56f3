package model

import (
	"strings"
	"time"
)

// Role is the access level of a user account.  The set is fixed; the
// string values are what the backend stores and transmits.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleStaff   Role = "STAFF"
	RoleAdmin   Role = "ADMIN"
)

// Roles lists every valid role in display order.
var Roles = []Role{RolePatient, RoleDoctor, RoleStaff, RoleAdmin}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Label returns the Vietnamese display label used by the dashboard.
func (r Role) Label() string {
	switch r {
	case RolePatient:
		return "Bệnh nhân"
	case RoleDoctor:
		return "Bác sĩ"
	case RoleStaff:
		return "Nhân viên"
	case RoleAdmin:
		return "Quản trị viên"
	}
	return string(r)
}

// User is a user account as exchanged with the backend.  The password
// hash never leaves the server; handlers build this value from the
// repository row.
//
// Fields:
//
//	ID        – server-assigned identifier.
//	Username  – unique login name.
//	Email     – unique email address.
//	FullName  – display name.
//	Phone     – optional phone number.
//	Role      – one of Roles.
//	IsActive  – inactive accounts cannot log in.
//	CreatedAt – creation timestamp (server managed).
//	UpdatedAt – last update timestamp (server managed).
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the account holds the ADMIN role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserInput is the mutable subset sent when creating a user.
type UserInput struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Role     Role   `json:"role,omitempty" validate:"omitempty,role"`
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Username *string `json:"username,omitempty" validate:"omitempty,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName *string `json:"fullName,omitempty" validate:"omitempty,max=255"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Role     *Role   `json:"role,omitempty" validate:"omitempty,role"`
}

// Empty reports whether the update carries no field at all.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.FullName == nil &&
		u.Password == nil && u.Phone == nil && u.Role == nil
}
