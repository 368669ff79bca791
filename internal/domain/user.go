package domain

import "time"

// Role is the closed set of account roles. Role checks must switch over
// these constants rather than comparing raw strings.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTenant     Role = "tenant"
	RoleTechnician Role = "technician"
	RoleManager    Role = "manager"
)

// Valid reports whether r is a declared role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTenant, RoleTechnician, RoleManager:
		return true
	}
	return false
}

// IsStaff reports whether accounts with this role are admin-created rather
// than self-registered.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleManager:
		return true
	}
	return false
}

// ApprovalStatus gates self-registered accounts behind an admin decision.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Specialization is a technician's declared trade. Empty means the
// technician takes any category.
type Specialization string

const (
	SpecPlumbing    Specialization = "plumbing"
	SpecElectrical  Specialization = "electrical"
	SpecStructural  Specialization = "structural"
	SpecPestControl Specialization = "pest_control"
	SpecGeneral     Specialization = "general"
)

func (s Specialization) Valid() bool {
	switch s {
	case SpecPlumbing, SpecElectrical, SpecStructural, SpecPestControl, SpecGeneral:
		return true
	}
	return false
}

// User represents an account. Self-registered tenants start with
// approval_status=pending and email_verified=false; both must hold before
// IsActive is granted. Staff accounts are created by an admin pre-approved.
type User struct {
	ID               int64
	Username         string
	Email            string
	FirstName        string
	LastName         string
	Phone            string
	IDNumber         string
	Role             Role
	Specialization   Specialization // technicians only, may be empty
	PasswordHash     string
	ProfileCompleted bool
	ApprovalStatus   ApprovalStatus
	EmailVerified    bool
	VerifyCode       string // email verification code, cleared on use
	VerifyCodeExpiry time.Time
	IsActive         bool
	ApprovedByID     *int64
	ApprovedAt       *time.Time
	RejectionReason  string
	HouseNumber      string // house requested at registration, informational
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName returns "First Last", falling back to the username.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// CanLogin reports the two-phase gate: approved AND email verified.
func (u *User) CanLogin() bool {
	return u.ApprovalStatus == ApprovalApproved && u.EmailVerified
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(user *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	GetByUsername(username string) (*User, error)
	Update(user *User) error
	Delete(id int64) error
	List() ([]*User, error)
	ListByRole(role Role) ([]*User, error)
	ListPendingApproval() ([]*User, error)
}
