package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HouseStatus is the occupancy state of a unit. The occupancy
// synchronizer only ever moves houses between vacant and occupied;
// under_repair and reserved are set manually and left alone.
type HouseStatus string

const (
	HouseVacant      HouseStatus = "vacant"
	HouseOccupied    HouseStatus = "occupied"
	HouseUnderRepair HouseStatus = "under_repair"
	HouseReserved    HouseStatus = "reserved"
)

func (s HouseStatus) Valid() bool {
	switch s {
	case HouseVacant, HouseOccupied, HouseUnderRepair, HouseReserved:
		return true
	}
	return false
}

// HouseType is the unit layout.
type HouseType string

const (
	HouseBedsitter HouseType = "bedsitter"
	House1Bedroom  HouseType = "1_bedroom"
	House2Bedroom  HouseType = "2_bedroom"
	House3Bedroom  HouseType = "3_bedroom"
	House4Bedroom  HouseType = "4_bedroom"
)

func (t HouseType) Valid() bool {
	switch t {
	case HouseBedsitter, House1Bedroom, House2Bedroom, House3Bedroom, House4Bedroom:
		return true
	}
	return false
}

// House is a rentable unit in the estate inventory.
type House struct {
	ID          int64
	HouseNumber string // unique
	HouseType   HouseType
	Status      HouseStatus
	Location    string
	RentAmount  decimal.Decimal
	Bedrooms    int
	Bathrooms   int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HouseStats are inventory counts for the dashboard.
type HouseStats struct {
	Total         int     `json:"total"`
	Occupied      int     `json:"occupied"`
	Vacant        int     `json:"vacant"`
	UnderRepair   int     `json:"under_repair"`
	OccupancyRate float64 `json:"occupancy_rate"` // percent, one decimal
}

// HouseRepository defines data access for houses.
type HouseRepository interface {
	Create(house *House) error
	GetByID(id int64) (*House, error)
	GetByNumber(houseNumber string) (*House, error)
	Update(house *House) error
	UpdateStatus(id int64, status HouseStatus) error
	Delete(id int64) error
	List() ([]*House, error)
	ListByStatus(status HouseStatus) ([]*House, error)
	CountByStatus() (map[HouseStatus]int, error)
}
