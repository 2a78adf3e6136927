// Package tenancy models accounts (tenants), global roles and account
// memberships, and hosts the access guard every account-scoped operation
// must pass through.
package tenancy

import "time"

// Seeded role names. Roles are global, not per-account.
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleMember     = "member"
	RoleMissionary = "missionary"
	RoleEvangelist = "evangelist"
)

// SeedRoles is the default role set ensured on first account creation.
var SeedRoles = []Role{
	{Name: RoleOwner, Description: "Full control over the account"},
	{Name: RoleAdmin, Description: "Manage account resources and members"},
	{Name: RoleMember, Description: "Standard account member"},
	{Name: RoleMissionary, Description: "Participates in missions"},
	{Name: RoleEvangelist, Description: "Records outreach activity"},
}

// Account is a tenant owning missions, outreach data and expenses.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"account_name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone_number,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedBy string    `json:"created_by"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role is a named permission level.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Membership joins a user to an account under a role. A soft-deleted
// membership (DeletedAt set) grants nothing.
type Membership struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	UserID    string     `json:"user_id"`
	RoleID    string     `json:"role_id"`
	RoleName  string     `json:"role_name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}

// AccountRef is the slim account view returned with login responses and
// membership listings.
type AccountRef struct {
	ID       string `json:"id"`
	Name     string `json:"account_name"`
	RoleName string `json:"role_name"`
}

// Actor identifies who is performing a mutation and with which account
// role; services use it for creator-or-elevated checks.
type Actor struct {
	UserID   string
	RoleName string
}

// Elevated reports whether the actor holds an account-management role.
func (a Actor) Elevated() bool {
	return a.RoleName == RoleAdmin || a.RoleName == RoleOwner
}
