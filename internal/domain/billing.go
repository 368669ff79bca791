package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the money arrived.
type PaymentMethod string

const (
	MethodMpesa  PaymentMethod = "mpesa"
	MethodBank   PaymentMethod = "bank"
	MethodCash   PaymentMethod = "cash"
	MethodCheque PaymentMethod = "cheque"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodMpesa, MethodBank, MethodCash, MethodCheque:
		return true
	}
	return false
}

// ChargeType classifies both payments and bills; settlement matches a
// payment against bills of the same type.
type ChargeType string

const (
	ChargeRent        ChargeType = "rent"
	ChargeWater       ChargeType = "water"
	ChargeElectricity ChargeType = "electricity"
	ChargeGarbage     ChargeType = "garbage"
	ChargeDamage      ChargeType = "damage"
	ChargeDeposit     ChargeType = "deposit"
	ChargeOther       ChargeType = "other"
)

func (t ChargeType) Valid() bool {
	switch t {
	case ChargeRent, ChargeWater, ChargeElectricity, ChargeGarbage, ChargeDamage, ChargeDeposit, ChargeOther:
		return true
	}
	return false
}

// Bill is a dated obligation owed by a tenant for a given month.
type Bill struct {
	ID        int64
	TenantID  int64
	BillType  ChargeType
	Amount    decimal.Decimal
	BillDate  time.Time
	MonthFor  time.Time // any day within the month the bill covers
	IsPaid    bool
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BillRepository defines data access for bills.
type BillRepository interface {
	Create(bill *Bill) error
	GetByID(id int64) (*Bill, error)
	Update(bill *Bill) error
	Delete(id int64) error
	List() ([]*Bill, error)
	ListByTenant(tenantID int64) ([]*Bill, error)
	// ListUnpaidForMonth returns the tenant's unpaid bills of the given
	// type whose month_for falls in the same calendar month and year as
	// monthFor, ordered ascending by created_at then id. The ordering is
	// part of the settlement contract.
	ListUnpaidForMonth(tenantID int64, billType ChargeType, monthFor time.Time) ([]*Bill, error)
	// SumForMonth totals every bill due from the tenant in the month,
	// paid or not. The debtor report charges the full month's bills
	// against verified payments, so settled bills must stay in the sum.
	SumForMonth(tenantID int64, monthFor time.Time) (decimal.Decimal, error)
	// SumUnpaidForMonth totals only the tenant's still-unpaid bills for
	// the month.
	SumUnpaidForMonth(tenantID int64, monthFor time.Time) (decimal.Decimal, error)
}

// Payment is a tenant's remittance. Unverified payments never count
// toward balances or income.
type Payment struct {
	ID              int64
	TenantID        int64
	Amount          decimal.Decimal
	PaymentDate     time.Time
	Method          PaymentMethod
	PaymentType     ChargeType
	ReferenceNumber string
	MonthFor        time.Time
	IsVerified      bool
	VerifiedByID    *int64
	VerifiedAt      *time.Time
	CreatedAt       time.Time
}

// MonthlyTotal is one month's aggregate for trend reports.
type MonthlyTotal struct {
	Month time.Time
	Total decimal.Decimal
}

// PaymentRepository defines data access for payments.
type PaymentRepository interface {
	Create(payment *Payment) error
	GetByID(id int64) (*Payment, error)
	Update(payment *Payment) error
	Delete(id int64) error
	List() ([]*Payment, error)
	ListByTenant(tenantID int64) ([]*Payment, error)
	// SumVerified totals all verified payments; when monthFor is non-zero
	// only payments whose month_for falls in that calendar month count.
	SumVerified(monthFor time.Time) (decimal.Decimal, error)
	// SumVerifiedForTenantMonth totals a tenant's verified payments whose
	// month_for falls in the given calendar month.
	SumVerifiedForTenantMonth(tenantID int64, monthFor time.Time) (decimal.Decimal, error)
	// MonthlyVerifiedTotals returns per-month verified income since the
	// given time, oldest first.
	MonthlyVerifiedTotals(since time.Time) ([]MonthlyTotal, error)
}
