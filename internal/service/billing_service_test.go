package service

import (
	"errors"
	"testing"
	"time"

	"github.com/yourorg/estateman/internal/domain"
)

type billingFixture struct {
	svc     *BillingService
	bills   *fakeBillRepo
	pays    *fakePaymentRepo
	tenants *fakeTenantRepo
	notes   *fakeNotificationRepo
	tenant  *domain.Tenant
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	bills := newFakeBillRepo()
	pays := newFakePaymentRepo()
	tenants := newFakeTenantRepo()
	notes := newFakeNotificationRepo()

	tenant := &domain.Tenant{UserID: 42, Status: domain.TenantActive}
	tenants.Create(tenant)

	return &billingFixture{
		svc:     NewBillingService(bills, pays, tenants, NewNotificationService(notes, nil), nil),
		bills:   bills,
		pays:    pays,
		tenants: tenants,
		notes:   notes,
		tenant:  tenant,
	}
}

func (f *billingFixture) tenantActor() domain.Actor {
	return domain.Actor{ID: f.tenant.UserID, Role: domain.RoleTenant}
}

var managerActor = domain.Actor{ID: 2, Role: domain.RoleManager}

func TestCreateBillNotifiesTenant(t *testing.T) {
	f := newBillingFixture(t)
	month := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)

	bill, err := f.svc.CreateBill(managerActor, BillInput{
		TenantID: f.tenant.ID, BillType: domain.ChargeWater, Amount: dec("350"), MonthFor: month,
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if bill.IsPaid {
		t.Error("new bill must start unpaid")
	}
	if bill.BillDate.IsZero() {
		t.Error("bill date must default to now")
	}

	notes, _ := f.notes.ListByRecipient(f.tenant.UserID, false)
	if len(notes) != 1 {
		t.Errorf("tenant notifications = %d, want 1", len(notes))
	}

	if _, err := f.svc.CreateBill(f.tenantActor(), BillInput{
		TenantID: f.tenant.ID, BillType: domain.ChargeWater, Amount: dec("350"), MonthFor: month,
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("tenant CreateBill: err = %v, want ErrForbidden", err)
	}
}

func TestPaidBillsAreFrozen(t *testing.T) {
	f := newBillingFixture(t)
	month := time.Now()
	bill, err := f.svc.CreateBill(managerActor, BillInput{
		TenantID: f.tenant.ID, BillType: domain.ChargeRent, Amount: dec("1000"), MonthFor: month,
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	bill.IsPaid = true
	f.bills.Update(bill)

	_, err = f.svc.UpdateBill(managerActor, bill.ID, BillInput{
		TenantID: f.tenant.ID, BillType: domain.ChargeRent, Amount: dec("2000"), MonthFor: month,
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("update paid bill: err = %v, want ErrConflict", err)
	}
	if err := f.svc.DeleteBill(domain.Actor{ID: 1, Role: domain.RoleAdmin}, bill.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("delete paid bill: err = %v, want ErrConflict", err)
	}
}

func TestSubmitPaymentAlwaysStartsUnverified(t *testing.T) {
	f := newBillingFixture(t)
	month := time.Now()

	payment, err := f.svc.SubmitPayment(f.tenantActor(), PaymentInput{
		Amount: dec("1000"), Method: domain.MethodMpesa, PaymentType: domain.ChargeRent, MonthFor: month,
	})
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if payment.IsVerified {
		t.Error("submitted payment must never start verified")
	}
	if payment.TenantID != f.tenant.ID {
		t.Errorf("tenant binding = %d, want own profile %d", payment.TenantID, f.tenant.ID)
	}
	if payment.ReferenceNumber == "" {
		t.Error("empty reference must be replaced with a generated one")
	}
	if payment.PaymentDate.IsZero() {
		t.Error("payment date must default to now")
	}

	// A supplied reference is kept as-is.
	withRef, err := f.svc.SubmitPayment(f.tenantActor(), PaymentInput{
		Amount: dec("500"), Method: domain.MethodBank, PaymentType: domain.ChargeWater,
		MonthFor: month, ReferenceNumber: "BNK-778",
	})
	if err != nil {
		t.Fatalf("SubmitPayment with reference: %v", err)
	}
	if withRef.ReferenceNumber != "BNK-778" {
		t.Errorf("reference = %q, want BNK-778", withRef.ReferenceNumber)
	}
}

func TestStaffPaymentNeedsExplicitTenant(t *testing.T) {
	f := newBillingFixture(t)
	month := time.Now()

	if _, err := f.svc.SubmitPayment(managerActor, PaymentInput{
		Amount: dec("1000"), Method: domain.MethodCash, PaymentType: domain.ChargeRent, MonthFor: month,
	}); err == nil {
		t.Error("staff submission without tenant_id must fail")
	}

	payment, err := f.svc.SubmitPayment(managerActor, PaymentInput{
		TenantID: f.tenant.ID, Amount: dec("1000"), Method: domain.MethodCash,
		PaymentType: domain.ChargeRent, MonthFor: month,
	})
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if payment.TenantID != f.tenant.ID {
		t.Errorf("tenant = %d, want %d", payment.TenantID, f.tenant.ID)
	}
}

func TestVerifiedPaymentsCannotBeDeleted(t *testing.T) {
	f := newBillingFixture(t)
	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}
	payment, err := f.svc.SubmitPayment(f.tenantActor(), PaymentInput{
		Amount: dec("1000"), Method: domain.MethodMpesa, PaymentType: domain.ChargeRent, MonthFor: time.Now(),
	})
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}

	payment.IsVerified = true
	f.pays.Update(payment)

	if err := f.svc.DeletePayment(admin, payment.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("delete verified payment: err = %v, want ErrConflict", err)
	}
	if err := f.svc.DeletePayment(managerActor, payment.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("manager delete: err = %v, want ErrForbidden", err)
	}
}

func TestBillVisibilityScopedToOwner(t *testing.T) {
	f := newBillingFixture(t)
	month := time.Now()

	other := &domain.Tenant{UserID: 77, Status: domain.TenantActive}
	f.tenants.Create(other)

	mine, _ := f.svc.CreateBill(managerActor, BillInput{TenantID: f.tenant.ID, BillType: domain.ChargeRent, Amount: dec("1000"), MonthFor: month})
	theirs, _ := f.svc.CreateBill(managerActor, BillInput{TenantID: other.ID, BillType: domain.ChargeRent, Amount: dec("900"), MonthFor: month})

	if _, err := f.svc.GetBill(f.tenantActor(), mine.ID); err != nil {
		t.Errorf("own bill: %v", err)
	}
	if _, err := f.svc.GetBill(f.tenantActor(), theirs.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign bill: err = %v, want ErrForbidden", err)
	}

	list, err := f.svc.ListBills(f.tenantActor())
	if err != nil {
		t.Fatalf("ListBills: %v", err)
	}
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Errorf("tenant bill list = %d entries, want only own", len(list))
	}

	all, _ := f.svc.ListBills(managerActor)
	if len(all) != 2 {
		t.Errorf("manager bill list = %d, want 2", len(all))
	}
}
