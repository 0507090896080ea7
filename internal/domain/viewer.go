package domain

import "strings"

// GateState is where the session gate leaves a signed-in user.
type GateState string

const (
	GatePending GateState = "pending"
	GateActive  GateState = "active"
)

// Viewer is the resolved caller of a request: identity, role and approval.
// It is built once per request by the auth middleware and threaded through the context.
type Viewer struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FullName  string `json:"fullName,omitempty"`
	Role      Role   `json:"role"`
	Approved  bool   `json:"approved"`
	IsAdmin   bool   `json:"isAdmin"`
	IsVisitor bool   `json:"isVisitor"`
	SessionID string `json:"-"`
}

// NewViewer derives the flags from a profile. A nil profile means the row does not exist
// yet: the viewer is unapproved and not an admin.
func NewViewer(identity Identity, profile *Profile) Viewer {
	v := Viewer{UserID: identity.ID, Email: identity.Email, Role: RoleMember}
	if profile != nil {
		v.FullName = profile.FullName
		v.Role = profile.Role
		v.Approved = profile.Approved
	}
	v.IsAdmin = v.Role == RoleAdmin
	v.IsVisitor = v.Role == RoleVisitor
	return v
}

// PromoteSuperAdmin forces the admin/approved flags for the configured super-admin email.
// It applies regardless of what the profile row says or whether it could be read.
func (v Viewer) PromoteSuperAdmin(superAdminEmail string) Viewer {
	if superAdminEmail == "" || !strings.EqualFold(v.Email, superAdminEmail) {
		return v
	}
	v.Role = RoleAdmin
	v.Approved = true
	v.IsAdmin = true
	v.IsVisitor = false
	return v
}

// Gate returns the gate state: admins always pass, others need approval.
func (v Viewer) Gate() GateState {
	if v.IsAdmin || v.Approved {
		return GateActive
	}
	return GatePending
}

// CanAccess reports whether the viewer may open page.
func (v Viewer) CanAccess(p Page) bool {
	def, ok := pageByID[p]
	if !ok {
		return false
	}
	if def.adminOnly && !v.IsAdmin {
		return false
	}
	if v.IsVisitor && !def.visitor {
		return false
	}
	return true
}
