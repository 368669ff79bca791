package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TenantStatus tracks the lease lifecycle of a tenant profile.
type TenantStatus string

const (
	TenantActive   TenantStatus = "active"
	TenantExpiring TenantStatus = "expiring"
	TenantInactive TenantStatus = "inactive"
)

func (s TenantStatus) Valid() bool {
	switch s {
	case TenantActive, TenantExpiring, TenantInactive:
		return true
	}
	return false
}

// Tenant links a user account to the house it occupies. HouseID is nil
// when the tenant has no unit assigned.
type Tenant struct {
	ID               int64
	UserID           int64
	HouseID          *int64
	MoveInDate       time.Time
	ContractStart    time.Time
	ContractEnd      time.Time
	EmergencyContact string
	EmergencyPhone   string
	Status           TenantStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TenantRepository defines data access for tenant profiles.
type TenantRepository interface {
	Create(tenant *Tenant) error
	GetByID(id int64) (*Tenant, error)
	GetByUserID(userID int64) (*Tenant, error)
	Update(tenant *Tenant) error
	Delete(id int64) error
	List() ([]*Tenant, error)
	// ListActiveWithHouse returns active tenants that have a house
	// assigned, for the debtor report.
	ListActiveWithHouse() ([]*Tenant, error)
	// ListExpiring returns tenants whose contract ends on or before the
	// cutoff but has not already ended.
	ListExpiring(cutoff time.Time) ([]*Tenant, error)
	// HasActiveTenant reports whether any active tenant occupies the house.
	HasActiveTenant(houseID int64) (bool, error)
}

// Contract is a lease record. TenantID goes nil when the tenant row is
// deleted; TenantName is denormalized at write time so history survives.
// When the live reference exists it wins over the snapshot.
type Contract struct {
	ID          int64
	TenantID    *int64
	TenantName  string // snapshot, populated at write time
	HouseID     *int64
	HouseNumber string // snapshot, populated at write time
	StartDate   time.Time
	EndDate     time.Time
	MonthlyRent decimal.Decimal
	DepositPaid decimal.Decimal
	CreatedAt   time.Time
}

// ContractRepository defines data access for contracts.
type ContractRepository interface {
	Create(contract *Contract) error
	GetByID(id int64) (*Contract, error)
	Update(contract *Contract) error
	Delete(id int64) error
	List() ([]*Contract, error)
	ListByTenant(tenantID int64) ([]*Contract, error)
}
