// Package domain defines the core entities of the Fazenda member portal.
// They mirror the backend tables and are independent of the Supabase adapter.
package domain

import "time"

// Role is the portal role stored on a profile.
type Role string

const (
	RoleMember  Role = "member"
	RoleAdmin   Role = "admin"
	RoleVisitor Role = "visitor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleVisitor:
		return true
	}
	return false
}

// ============================================================
// Profile
// ============================================================

// Dependent is a family member listed on a sócio's profile.
type Dependent struct {
	Name         string `json:"name"`
	BirthDate    string `json:"birthDate"`
	Relationship string `json:"relationship,omitempty"`
}

// Profile is the portal record attached to an auth identity (id = identity id).
type Profile struct {
	ID         string      `json:"id"`
	FullName   string      `json:"full_name"`
	Email      string      `json:"email,omitempty"`
	Role       Role        `json:"role"`
	Approved   bool        `json:"approved"`
	CPF        string      `json:"cpf,omitempty"`
	Phone      string      `json:"phone,omitempty"`
	Address    string      `json:"address,omitempty"`
	BirthDate  string      `json:"birth_date,omitempty"`
	Dependents []Dependent `json:"dependents"`
	LastPage   string      `json:"last_page,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// SignUpRequest is the body for POST /v1/auth/signup.
// Kind selects which sign-up form was used: "member" or "visitor".
type SignUpRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FullName  string `json:"fullName" validate:"required"`
	Kind      string `json:"kind" validate:"required"`
	CPF       string `json:"cpf,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
}

// SignInRequest is the body for POST /v1/auth/login.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned by sign-up/sign-in and GET /v1/me.
type SessionResponse struct {
	AccessToken string     `json:"accessToken,omitempty"`
	ExpiresIn   int        `json:"expiresIn,omitempty"`
	Gate        GateState  `json:"gate"`
	Viewer      Viewer     `json:"viewer"`
	Menu        []MenuItem `json:"menu"`
	LastPage    Page       `json:"lastPage"`
}

// UpdateProfileRequest is the body for PUT /v1/profile. Only contact fields are editable
// by the owning member; approval and role belong to admins.
type UpdateProfileRequest struct {
	FullName   *string      `json:"full_name,omitempty"`
	CPF        *string      `json:"cpf,omitempty"`
	Phone      *string      `json:"phone,omitempty"`
	Address    *string      `json:"address,omitempty"`
	BirthDate  *string      `json:"birth_date,omitempty"`
	Dependents *[]Dependent `json:"dependents,omitempty"`
}

// SetRoleRequest is the body for PATCH /v1/members/{id}/role.
type SetRoleRequest struct {
	Role Role `json:"role" validate:"required"`
}

// Identity is the authenticated user as known by the identity provider.
type Identity struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	ProviderToken string `json:"-"`
}
