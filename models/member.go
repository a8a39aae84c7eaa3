package models

import (
	"strings"
	"time"
)

const (
	RoleMember  = "Member"
	RoleManager = "Manager"
	RoleAdmin   = "Admin"

	MemberActive   = "Active"
	MemberInactive = "Inactive"
)

// Member is an authorized user of the invoicing tool.
type Member struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone"`
	Role         string    `json:"role"`   // Member, Manager, Admin
	Status       string    `json:"status"` // Active, Inactive
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MemberInput is used for creating/updating members. An empty password on update
// keeps the stored hash.
type MemberInput struct {
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
	Status   string  `json:"status"`
	Password string  `json:"password"`
}

func (m *MemberInput) Validate() string {
	m.Username = strings.TrimSpace(m.Username)
	if m.Name == "" {
		return "name is required"
	}
	if m.Username == "" {
		return "username is required"
	}
	if m.Email == "" || !strings.Contains(m.Email, "@") {
		return "a valid email is required"
	}
	switch m.Role {
	case "":
		m.Role = RoleMember
	case RoleMember, RoleManager, RoleAdmin:
	default:
		return "role must be one of: Member, Manager, Admin"
	}
	switch m.Status {
	case "":
		m.Status = MemberActive
	case MemberActive, MemberInactive:
	default:
		return "status must be one of: Active, Inactive"
	}
	if m.Password != "" && len(m.Password) < 8 {
		return "password must be at least 8 characters"
	}
	return ""
}
