package service

import (
	"errors"
	"testing"

	"github.com/yourorg/estateman/internal/domain"
)

func newHouseFixture(t *testing.T) (*HouseService, *fakeHouseRepo, *fakeTenantRepo) {
	t.Helper()
	houses := newFakeHouseRepo()
	tenants := newFakeTenantRepo()
	return NewHouseService(houses, tenants, nil), houses, tenants
}

func TestCreateHouseRejectsDuplicateNumber(t *testing.T) {
	svc, _, _ := newHouseFixture(t)

	in := HouseInput{HouseNumber: "A-01", HouseType: domain.House1Bedroom, RentAmount: dec("1000")}
	house, err := svc.Create(managerActor, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if house.Status != domain.HouseVacant {
		t.Errorf("status = %s, want vacant default", house.Status)
	}

	if _, err := svc.Create(managerActor, in); err == nil {
		t.Error("duplicate house number must be rejected")
	}
	if _, err := svc.Create(domain.Actor{ID: 9, Role: domain.RoleTenant}, HouseInput{
		HouseNumber: "A-02", HouseType: domain.House1Bedroom, RentAmount: dec("1000"),
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("tenant Create: err = %v, want ErrForbidden", err)
	}
}

func TestCreateHouseValidation(t *testing.T) {
	svc, _, _ := newHouseFixture(t)
	cases := []struct {
		name string
		in   HouseInput
	}{
		{"missing number", HouseInput{HouseType: domain.House1Bedroom, RentAmount: dec("1000")}},
		{"bad type", HouseInput{HouseNumber: "A-01", HouseType: "mansion", RentAmount: dec("1000")}},
		{"zero rent", HouseInput{HouseNumber: "A-01", HouseType: domain.House1Bedroom}},
		{"negative rent", HouseInput{HouseNumber: "A-01", HouseType: domain.House1Bedroom, RentAmount: dec("-5")}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(managerActor, tc.in); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestDeleteHouseBlockedWhileOccupied(t *testing.T) {
	svc, _, tenants := newHouseFixture(t)
	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}

	house, err := svc.Create(admin, HouseInput{HouseNumber: "A-01", HouseType: domain.House1Bedroom, RentAmount: dec("1000")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tenants.Create(&domain.Tenant{UserID: 5, HouseID: &house.ID, Status: domain.TenantActive})

	if err := svc.Delete(admin, house.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("delete occupied house: err = %v, want ErrConflict", err)
	}
	if err := svc.Delete(managerActor, house.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("manager delete: err = %v, want ErrForbidden", err)
	}

	// Once the tenancy ends the house can go.
	tenant, _ := tenants.GetByUserID(5)
	tenant.Status = domain.TenantInactive
	tenants.Update(tenant)
	if err := svc.Delete(admin, house.ID); err != nil {
		t.Errorf("delete vacated house: %v", err)
	}
}

func TestHouseStatsOccupancyRate(t *testing.T) {
	svc, houses, _ := newHouseFixture(t)

	for i, status := range []domain.HouseStatus{domain.HouseOccupied, domain.HouseOccupied, domain.HouseVacant} {
		houses.Create(&domain.House{
			HouseNumber: string(rune('A' + i)), HouseType: domain.HouseBedsitter,
			Status: status, RentAmount: dec("500"),
		})
	}

	stats, err := svc.Stats(managerActor)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Occupied != 2 || stats.Vacant != 1 {
		t.Errorf("stats = %+v", stats)
	}
	// 2/3 occupied, rounded to one decimal.
	if stats.OccupancyRate != 66.7 {
		t.Errorf("occupancy rate = %v, want 66.7", stats.OccupancyRate)
	}

	if _, err := svc.Stats(domain.Actor{ID: 9, Role: domain.RoleTenant}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("tenant Stats: err = %v, want ErrForbidden", err)
	}
}

func TestListVacantFiltersByStatus(t *testing.T) {
	svc, houses, _ := newHouseFixture(t)
	houses.Create(&domain.House{HouseNumber: "V-1", HouseType: domain.HouseBedsitter, Status: domain.HouseVacant, RentAmount: dec("500")})
	houses.Create(&domain.House{HouseNumber: "O-1", HouseType: domain.HouseBedsitter, Status: domain.HouseOccupied, RentAmount: dec("500")})

	vacant, err := svc.ListVacant(domain.Actor{ID: 9, Role: domain.RoleTenant})
	if err != nil {
		t.Fatalf("ListVacant: %v", err)
	}
	if len(vacant) != 1 || vacant[0].HouseNumber != "V-1" {
		t.Errorf("vacant = %d entries", len(vacant))
	}
}
