package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the maintenance ticket lifecycle:
// new -> assigned -> in_progress -> completed, with pending and cancelled
// as side states.
type RequestStatus string

const (
	RequestNew        RequestStatus = "new"
	RequestPending    RequestStatus = "pending"
	RequestAssigned   RequestStatus = "assigned"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestNew, RequestPending, RequestAssigned, RequestInProgress, RequestCompleted, RequestCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further assignment is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestCompleted || s == RequestCancelled
}

// RequestCategory mirrors technician specializations.
type RequestCategory string

const (
	CategoryPlumbing    RequestCategory = "plumbing"
	CategoryElectrical  RequestCategory = "electrical"
	CategoryStructural  RequestCategory = "structural"
	CategoryPestControl RequestCategory = "pest_control"
	CategoryGeneral     RequestCategory = "general"
)

func (c RequestCategory) Valid() bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryStructural, CategoryPestControl, CategoryGeneral:
		return true
	}
	return false
}

// RequestPriority orders tickets for triage.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

func (p RequestPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MaintenanceRequest is a repair ticket. House and reporter references go
// nil on deletion; the snapshot fields keep history readable.
type MaintenanceRequest struct {
	ID                  int64
	RequestID           string // human-readable, e.g. MR-042
	HouseID             *int64
	ArchivedHouseNumber string
	ReportedByID        *int64
	ArchivedReportedBy  string
	AssignedToID        *int64
	Description         string
	Category            RequestCategory
	Priority            RequestPriority
	Status              RequestStatus
	Notes               string
	EstimatedCost       *decimal.Decimal
	ActualCost          *decimal.Decimal
	AssignedAt          *time.Time
	CompletedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Cost returns the actual cost when recorded, otherwise the estimate.
func (m *MaintenanceRequest) Cost() decimal.Decimal {
	if m.ActualCost != nil {
		return *m.ActualCost
	}
	if m.EstimatedCost != nil {
		return *m.EstimatedCost
	}
	return decimal.Zero
}

// MaintenanceStats are ticket counts for the dashboard.
type MaintenanceStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Assigned   int `json:"assigned"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// MaintenanceRepository defines data access for maintenance requests.
// NextSequence hands out the monotonically-increasing counter behind the
// human-readable ticket ids; implementations must make the increment
// atomic so concurrent creations never collide.
type MaintenanceRepository interface {
	NextSequence() (int64, error)
	Create(req *MaintenanceRequest) error
	GetByID(id int64) (*MaintenanceRequest, error)
	Update(req *MaintenanceRequest) error
	Delete(id int64) error
	List() ([]*MaintenanceRequest, error)
	ListByReporter(userID int64, statuses []RequestStatus) ([]*MaintenanceRequest, error)
	ListByAssignee(userID int64) ([]*MaintenanceRequest, error)
	CountByStatus() (map[RequestStatus]int, error)
	CountByCategory() (map[RequestCategory]int, error)
	// SumCompletedCosts totals COALESCE(actual, estimated) cost of
	// completed requests; a non-zero month restricts to completions in
	// that calendar month.
	SumCompletedCosts(month time.Time) (decimal.Decimal, error)
	// MonthlyCompletedCosts returns per-month completed maintenance spend
	// since the given time, oldest first.
	MonthlyCompletedCosts(since time.Time) ([]MonthlyTotal, error)
}
