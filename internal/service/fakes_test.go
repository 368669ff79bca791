package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourorg/estateman/internal/domain"
)

// In-memory repository fakes shared by the service tests. They implement
// the same filtering and ordering the Postgres repositories do, so tests
// exercise real query contracts without a database.

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) Create(u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = r.nextID
	r.nextID++
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) Update(u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List() ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) ListByRole(role domain.Role) ([]*domain.User, error) {
	all, _ := r.List()
	var out []*domain.User
	for _, u := range all {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListPendingApproval() ([]*domain.User, error) {
	all, _ := r.List()
	var out []*domain.User
	for _, u := range all {
		if u.ApprovalStatus == domain.ApprovalPending {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeHouseRepo struct {
	mu     sync.Mutex
	nextID int64
	houses map[int64]*domain.House
}

func newFakeHouseRepo() *fakeHouseRepo {
	return &fakeHouseRepo{nextID: 1, houses: make(map[int64]*domain.House)}
}

func (r *fakeHouseRepo) Create(h *domain.House) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.ID = r.nextID
	r.nextID++
	cp := *h
	r.houses[h.ID] = &cp
	return nil
}

func (r *fakeHouseRepo) GetByID(id int64) (*domain.House, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.houses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *fakeHouseRepo) GetByNumber(number string) (*domain.House, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.houses {
		if h.HouseNumber == number {
			cp := *h
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeHouseRepo) Update(h *domain.House) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.houses[h.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *h
	r.houses[h.ID] = &cp
	return nil
}

func (r *fakeHouseRepo) UpdateStatus(id int64, status domain.HouseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.houses[id]
	if !ok {
		return domain.ErrNotFound
	}
	h.Status = status
	return nil
}

func (r *fakeHouseRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.houses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.houses, id)
	return nil
}

func (r *fakeHouseRepo) List() ([]*domain.House, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.House, 0, len(r.houses))
	for _, h := range r.houses {
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeHouseRepo) ListByStatus(status domain.HouseStatus) ([]*domain.House, error) {
	all, _ := r.List()
	var out []*domain.House
	for _, h := range all {
		if h.Status == status {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHouseRepo) CountByStatus() (map[domain.HouseStatus]int, error) {
	all, _ := r.List()
	counts := make(map[domain.HouseStatus]int)
	for _, h := range all {
		counts[h.Status]++
	}
	return counts, nil
}

type fakeTenantRepo struct {
	mu      sync.Mutex
	nextID  int64
	tenants map[int64]*domain.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{nextID: 1, tenants: make(map[int64]*domain.Tenant)}
}

func (r *fakeTenantRepo) Create(t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	r.nextID++
	cp := *t
	r.tenants[t.ID] = &cp
	return nil
}

func (r *fakeTenantRepo) GetByID(id int64) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTenantRepo) GetByUserID(userID int64) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeTenantRepo) Update(t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[t.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *t
	r.tenants[t.ID] = &cp
	return nil
}

func (r *fakeTenantRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tenants, id)
	return nil
}

func (r *fakeTenantRepo) List() ([]*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTenantRepo) ListActiveWithHouse() ([]*domain.Tenant, error) {
	all, _ := r.List()
	var out []*domain.Tenant
	for _, t := range all {
		if t.Status == domain.TenantActive && t.HouseID != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTenantRepo) ListExpiring(cutoff time.Time) ([]*domain.Tenant, error) {
	all, _ := r.List()
	now := time.Now()
	var out []*domain.Tenant
	for _, t := range all {
		if !t.ContractEnd.IsZero() && !t.ContractEnd.After(cutoff) && t.ContractEnd.After(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTenantRepo) HasActiveTenant(houseID int64) (bool, error) {
	all, _ := r.List()
	for _, t := range all {
		if t.Status == domain.TenantActive && t.HouseID != nil && *t.HouseID == houseID {
			return true, nil
		}
	}
	return false, nil
}

type fakeContractRepo struct {
	mu        sync.Mutex
	nextID    int64
	contracts map[int64]*domain.Contract
}

func newFakeContractRepo() *fakeContractRepo {
	return &fakeContractRepo{nextID: 1, contracts: make(map[int64]*domain.Contract)}
}

func (r *fakeContractRepo) Create(c *domain.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	c.CreatedAt = time.Now()
	cp := *c
	r.contracts[c.ID] = &cp
	return nil
}

func (r *fakeContractRepo) GetByID(id int64) (*domain.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContractRepo) Update(c *domain.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contracts[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	r.contracts[c.ID] = &cp
	return nil
}

func (r *fakeContractRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contracts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.contracts, id)
	return nil
}

func (r *fakeContractRepo) List() ([]*domain.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Contract, 0, len(r.contracts))
	for _, c := range r.contracts {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeContractRepo) ListByTenant(tenantID int64) ([]*domain.Contract, error) {
	all, _ := r.List()
	var out []*domain.Contract
	for _, c := range all {
		if c.TenantID != nil && *c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeBillRepo struct {
	mu     sync.Mutex
	nextID int64
	bills  map[int64]*domain.Bill
}

func newFakeBillRepo() *fakeBillRepo {
	return &fakeBillRepo{nextID: 1, bills: make(map[int64]*domain.Bill)}
}

func (r *fakeBillRepo) Create(b *domain.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = r.nextID
	r.nextID++
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	cp := *b
	r.bills[b.ID] = &cp
	return nil
}

func (r *fakeBillRepo) GetByID(id int64) (*domain.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBillRepo) Update(b *domain.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bills[b.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *b
	r.bills[b.ID] = &cp
	return nil
}

func (r *fakeBillRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bills[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.bills, id)
	return nil
}

func (r *fakeBillRepo) List() ([]*domain.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Bill, 0, len(r.bills))
	for _, b := range r.bills {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBillRepo) ListByTenant(tenantID int64) ([]*domain.Bill, error) {
	all, _ := r.List()
	var out []*domain.Bill
	for _, b := range all {
		if b.TenantID == tenantID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBillRepo) ListUnpaidForMonth(tenantID int64, billType domain.ChargeType, monthFor time.Time) ([]*domain.Bill, error) {
	all, _ := r.List()
	var out []*domain.Bill
	for _, b := range all {
		if b.TenantID == tenantID && b.BillType == billType && !b.IsPaid && sameMonth(b.MonthFor, monthFor) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeBillRepo) SumForMonth(tenantID int64, monthFor time.Time) (decimal.Decimal, error) {
	all, _ := r.List()
	total := decimal.Zero
	for _, b := range all {
		if b.TenantID == tenantID && sameMonth(b.MonthFor, monthFor) {
			total = total.Add(b.Amount)
		}
	}
	return total, nil
}

func (r *fakeBillRepo) SumUnpaidForMonth(tenantID int64, monthFor time.Time) (decimal.Decimal, error) {
	all, _ := r.List()
	total := decimal.Zero
	for _, b := range all {
		if b.TenantID == tenantID && !b.IsPaid && sameMonth(b.MonthFor, monthFor) {
			total = total.Add(b.Amount)
		}
	}
	return total, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	nextID   int64
	payments map[int64]*domain.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{nextID: 1, payments: make(map[int64]*domain.Payment)}
}

func (r *fakePaymentRepo) Create(p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByID(id int64) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) Update(p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) List() ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePaymentRepo) ListByTenant(tenantID int64) ([]*domain.Payment, error) {
	all, _ := r.List()
	var out []*domain.Payment
	for _, p := range all {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) SumVerified(monthFor time.Time) (decimal.Decimal, error) {
	all, _ := r.List()
	total := decimal.Zero
	for _, p := range all {
		if !p.IsVerified {
			continue
		}
		if !monthFor.IsZero() && !sameMonth(p.MonthFor, monthFor) {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total, nil
}

func (r *fakePaymentRepo) SumVerifiedForTenantMonth(tenantID int64, monthFor time.Time) (decimal.Decimal, error) {
	all, _ := r.List()
	total := decimal.Zero
	for _, p := range all {
		if p.TenantID == tenantID && p.IsVerified && sameMonth(p.MonthFor, monthFor) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (r *fakePaymentRepo) MonthlyVerifiedTotals(since time.Time) ([]domain.MonthlyTotal, error) {
	all, _ := r.List()
	byMonth := make(map[time.Time]decimal.Decimal)
	for _, p := range all {
		if !p.IsVerified || p.MonthFor.Before(since) {
			continue
		}
		key := time.Date(p.MonthFor.Year(), p.MonthFor.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[key] = byMonth[key].Add(p.Amount)
	}
	out := make([]domain.MonthlyTotal, 0, len(byMonth))
	for m, t := range byMonth {
		out = append(out, domain.MonthlyTotal{Month: m, Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

type fakeMaintenanceRepo struct {
	mu       sync.Mutex
	nextID   int64
	seq      int64
	requests map[int64]*domain.MaintenanceRequest
}

func newFakeMaintenanceRepo() *fakeMaintenanceRepo {
	return &fakeMaintenanceRepo{nextID: 1, requests: make(map[int64]*domain.MaintenanceRequest)}
}

func (r *fakeMaintenanceRepo) NextSequence() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *fakeMaintenanceRepo) Create(m *domain.MaintenanceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.nextID
	r.nextID++
	m.CreatedAt = time.Now()
	cp := *m
	r.requests[m.ID] = &cp
	return nil
}

func (r *fakeMaintenanceRepo) GetByID(id int64) (*domain.MaintenanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMaintenanceRepo) Update(m *domain.MaintenanceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[m.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *m
	r.requests[m.ID] = &cp
	return nil
}

func (r *fakeMaintenanceRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.requests, id)
	return nil
}

func (r *fakeMaintenanceRepo) List() ([]*domain.MaintenanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.MaintenanceRequest, 0, len(r.requests))
	for _, m := range r.requests {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMaintenanceRepo) ListByReporter(userID int64, statuses []domain.RequestStatus) ([]*domain.MaintenanceRequest, error) {
	all, _ := r.List()
	var out []*domain.MaintenanceRequest
	for _, m := range all {
		if m.ReportedByID == nil || *m.ReportedByID != userID {
			continue
		}
		if len(statuses) == 0 {
			out = append(out, m)
			continue
		}
		for _, s := range statuses {
			if m.Status == s {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeMaintenanceRepo) ListByAssignee(userID int64) ([]*domain.MaintenanceRequest, error) {
	all, _ := r.List()
	var out []*domain.MaintenanceRequest
	for _, m := range all {
		if m.AssignedToID != nil && *m.AssignedToID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMaintenanceRepo) CountByStatus() (map[domain.RequestStatus]int, error) {
	all, _ := r.List()
	counts := make(map[domain.RequestStatus]int)
	for _, m := range all {
		counts[m.Status]++
	}
	return counts, nil
}

func (r *fakeMaintenanceRepo) CountByCategory() (map[domain.RequestCategory]int, error) {
	all, _ := r.List()
	counts := make(map[domain.RequestCategory]int)
	for _, m := range all {
		counts[m.Category]++
	}
	return counts, nil
}

func (r *fakeMaintenanceRepo) SumCompletedCosts(month time.Time) (decimal.Decimal, error) {
	all, _ := r.List()
	total := decimal.Zero
	for _, m := range all {
		if m.Status != domain.RequestCompleted {
			continue
		}
		if !month.IsZero() && (m.CompletedAt == nil || !sameMonth(*m.CompletedAt, month)) {
			continue
		}
		total = total.Add(m.Cost())
	}
	return total, nil
}

func (r *fakeMaintenanceRepo) MonthlyCompletedCosts(since time.Time) ([]domain.MonthlyTotal, error) {
	all, _ := r.List()
	byMonth := make(map[time.Time]decimal.Decimal)
	for _, m := range all {
		if m.Status != domain.RequestCompleted || m.CompletedAt == nil || m.CompletedAt.Before(since) {
			continue
		}
		key := time.Date(m.CompletedAt.Year(), m.CompletedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[key] = byMonth[key].Add(m.Cost())
	}
	out := make([]domain.MonthlyTotal, 0, len(byMonth))
	for mo, t := range byMonth {
		out = append(out, domain.MonthlyTotal{Month: mo, Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	nextID        int64
	notifications map[int64]*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1, notifications: make(map[int64]*domain.Notification)}
}

func (r *fakeNotificationRepo) Create(n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = r.nextID
	r.nextID++
	n.CreatedAt = time.Now()
	cp := *n
	r.notifications[n.ID] = &cp
	return nil
}

func (r *fakeNotificationRepo) GetByID(id int64) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNotificationRepo) MarkRead(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(recipientID int64, unreadOnly bool) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, n := range r.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeNotificationRepo) ListUnreadSince(recipientID, afterID int64) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead && n.ID > afterID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeMailer records sends and can be told to fail.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	calls int
}

func (m *fakeMailer) Send(_ context.Context, toName, toAddr, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, toAddr+": "+subject)
	return nil
}
