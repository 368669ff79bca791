package service

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourorg/estateman/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

type settlementFixture struct {
	svc           *SettlementService
	bills         *fakeBillRepo
	payments      *fakePaymentRepo
	tenants       *fakeTenantRepo
	notifications *fakeNotificationRepo
	tenant        *domain.Tenant
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	bills := newFakeBillRepo()
	payments := newFakePaymentRepo()
	tenants := newFakeTenantRepo()
	notifications := newFakeNotificationRepo()
	notifier := NewNotificationService(notifications, nil)

	tenant := &domain.Tenant{UserID: 42, Status: domain.TenantActive}
	if err := tenants.Create(tenant); err != nil {
		t.Fatalf("create tenant: %v", err)
	}

	return &settlementFixture{
		svc:           NewSettlementService(payments, bills, tenants, notifier, nil),
		bills:         bills,
		payments:      payments,
		tenants:       tenants,
		notifications: notifications,
		tenant:        tenant,
	}
}

func (f *settlementFixture) addBill(t *testing.T, amount string, billType domain.ChargeType, monthFor, createdAt time.Time) *domain.Bill {
	t.Helper()
	bill := &domain.Bill{
		TenantID:  f.tenant.ID,
		BillType:  billType,
		Amount:    dec(amount),
		MonthFor:  monthFor,
		CreatedAt: createdAt,
	}
	if err := f.bills.Create(bill); err != nil {
		t.Fatalf("create bill: %v", err)
	}
	return bill
}

func (f *settlementFixture) addPayment(t *testing.T, amount string, payType domain.ChargeType, monthFor time.Time) *domain.Payment {
	t.Helper()
	p := &domain.Payment{
		TenantID:    f.tenant.ID,
		Amount:      dec(amount),
		Method:      domain.MethodMpesa,
		PaymentType: payType,
		MonthFor:    monthFor,
	}
	if err := f.payments.Create(p); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return p
}

func TestVerifyPaymentClearsMatchingBills(t *testing.T) {
	f := newSettlementFixture(t)
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	base := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	water1 := f.addBill(t, "500", domain.ChargeWater, month, base)
	water2 := f.addBill(t, "800", domain.ChargeWater, month, base.Add(time.Hour))
	rent := f.addBill(t, "300", domain.ChargeRent, month, base)                                 // wrong type
	otherMonth := f.addBill(t, "100", domain.ChargeWater, month.AddDate(0, 1, 0), base)         // wrong month
	payment := f.addPayment(t, "1300", domain.ChargeWater, month.AddDate(0, 0, 14))

	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}
	result, err := f.svc.VerifyPayment(admin, payment.ID)
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if result.AlreadyVerified {
		t.Error("first verification must not report AlreadyVerified")
	}
	if result.BillsCleared != 2 {
		t.Errorf("BillsCleared = %d, want 2", result.BillsCleared)
	}
	if !result.Payment.IsVerified || result.Payment.VerifiedByID == nil || *result.Payment.VerifiedByID != admin.ID {
		t.Error("payment must be stamped verified by the acting admin")
	}

	for _, want := range []struct {
		bill *domain.Bill
		paid bool
	}{
		{water1, true}, {water2, true}, {rent, false}, {otherMonth, false},
	} {
		got, _ := f.bills.GetByID(want.bill.ID)
		if got.IsPaid != want.paid {
			t.Errorf("bill %d IsPaid = %v, want %v", want.bill.ID, got.IsPaid, want.paid)
		}
	}

	notes, _ := f.notifications.ListByRecipient(f.tenant.UserID, false)
	if len(notes) != 1 {
		t.Errorf("expected one tenant notification, got %d", len(notes))
	}
}

func TestVerifyPaymentSkipsBillsItCannotCoverInFull(t *testing.T) {
	f := newSettlementFixture(t)
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	base := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	// Creation order: 500, 1200, 800. A 1300 payment clears 500, cannot
	// cover 1200, then clears 800 with the remainder. Nothing is partially
	// settled.
	first := f.addBill(t, "500", domain.ChargeWater, month, base)
	big := f.addBill(t, "1200", domain.ChargeWater, month, base.Add(time.Minute))
	last := f.addBill(t, "800", domain.ChargeWater, month, base.Add(2*time.Minute))
	payment := f.addPayment(t, "1300", domain.ChargeWater, month)

	result, err := f.svc.VerifyPayment(domain.Actor{ID: 1, Role: domain.RoleAdmin}, payment.ID)
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if result.BillsCleared != 2 {
		t.Fatalf("BillsCleared = %d, want 2", result.BillsCleared)
	}

	gotFirst, _ := f.bills.GetByID(first.ID)
	gotBig, _ := f.bills.GetByID(big.ID)
	gotLast, _ := f.bills.GetByID(last.ID)
	if !gotFirst.IsPaid || gotBig.IsPaid || !gotLast.IsPaid {
		t.Errorf("paid flags = %v/%v/%v, want true/false/true",
			gotFirst.IsPaid, gotBig.IsPaid, gotLast.IsPaid)
	}
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	f := newSettlementFixture(t)
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	f.addBill(t, "500", domain.ChargeRent, month, month)
	payment := f.addPayment(t, "500", domain.ChargeRent, month)

	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}
	first, err := f.svc.VerifyPayment(admin, payment.ID)
	if err != nil {
		t.Fatalf("first VerifyPayment: %v", err)
	}
	if first.BillsCleared != 1 {
		t.Fatalf("first BillsCleared = %d, want 1", first.BillsCleared)
	}

	second, err := f.svc.VerifyPayment(admin, payment.ID)
	if err != nil {
		t.Fatalf("second VerifyPayment: %v", err)
	}
	if !second.AlreadyVerified {
		t.Error("second verification must report AlreadyVerified")
	}
	if second.BillsCleared != 0 {
		t.Errorf("second BillsCleared = %d, want 0", second.BillsCleared)
	}

	// Still only one notification from the first pass.
	notes, _ := f.notifications.ListByRecipient(f.tenant.UserID, false)
	if len(notes) != 1 {
		t.Errorf("expected one notification after repeat verify, got %d", len(notes))
	}
}

func TestVerifyPaymentRequiresAdmin(t *testing.T) {
	f := newSettlementFixture(t)
	payment := f.addPayment(t, "100", domain.ChargeRent, time.Now())

	for _, role := range []domain.Role{domain.RoleTenant, domain.RoleTechnician, domain.RoleManager} {
		_, err := f.svc.VerifyPayment(domain.Actor{ID: 9, Role: role}, payment.ID)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("role %s: err = %v, want ErrForbidden", role, err)
		}
	}

	got, _ := f.payments.GetByID(payment.ID)
	if got.IsVerified {
		t.Error("payment must stay unverified after forbidden attempts")
	}
}
