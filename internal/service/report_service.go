package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourorg/estateman/internal/domain"
)

// ReportCache stores rendered report payloads with a TTL. Backed by Redis
// in production and by the in-process cache when Redis is not configured.
type ReportCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReportService computes the admin read-side reports. Dashboard and
// occupancy figures are cached briefly; the debtors list is always
// recomputed per request.
type ReportService struct {
	payments domain.PaymentRepository
	bills    domain.BillRepository
	tenants  domain.TenantRepository
	houses   domain.HouseRepository
	users    domain.UserRepository
	requests domain.MaintenanceRepository
	notifier *NotificationService
	cache    ReportCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewReportService creates a new report service. cache may be nil, which
// disables caching entirely.
func NewReportService(
	payments domain.PaymentRepository,
	bills domain.BillRepository,
	tenants domain.TenantRepository,
	houses domain.HouseRepository,
	users domain.UserRepository,
	requests domain.MaintenanceRepository,
	notifier *NotificationService,
	cache ReportCache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &ReportService{
		payments: payments,
		bills:    bills,
		tenants:  tenants,
		houses:   houses,
		users:    users,
		requests: requests,
		notifier: notifier,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// DashboardSummary aggregates income from verified payments against
// completed maintenance spend.
type DashboardSummary struct {
	TotalIncome     decimal.Decimal `json:"total_income"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	NetProfit       decimal.Decimal `json:"net_profit"`
}

// MonthlyTrends is six months of income/expense series keyed by label.
type MonthlyTrends struct {
	Labels  []string          `json:"labels"`
	Income  []decimal.Decimal `json:"income"`
	Expense []decimal.Decimal `json:"expense"`
}

// OccupancyReport combines house occupancy counts with maintenance load
// per category.
type OccupancyReport struct {
	Occupancy struct {
		Total       int `json:"total"`
		Occupied    int `json:"occupied"`
		Vacant      int `json:"vacant"`
		Maintenance int `json:"maintenance"`
	} `json:"occupancy"`
	MaintenanceCategories map[domain.RequestCategory]int `json:"maintenance_categories"`
}

// Debtor is one tenant in arrears for the current month.
type Debtor struct {
	TenantID int64           `json:"tenant_id"`
	Name     string          `json:"name"`
	House    string          `json:"house"`
	Phone    string          `json:"phone"`
	Expected decimal.Decimal `json:"expected_amount"`
	Paid     decimal.Decimal `json:"paid_amount"`
	Balance  decimal.Decimal `json:"balance"`
}

// Dashboard returns the income/expense summary.
func (s *ReportService) Dashboard(ctx context.Context, actor domain.Actor) (*DashboardSummary, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	var cached DashboardSummary
	if s.fromCache(ctx, "reports:dashboard", &cached) {
		return &cached, nil
	}

	now := time.Now()
	totalIncome, err := s.payments.SumVerified(time.Time{})
	if err != nil {
		return nil, err
	}
	monthlyIncome, err := s.payments.SumVerified(now)
	if err != nil {
		return nil, err
	}
	totalExpenses, err := s.requests.SumCompletedCosts(time.Time{})
	if err != nil {
		return nil, err
	}
	monthlyExpenses, err := s.requests.SumCompletedCosts(now)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		TotalIncome:     totalIncome,
		MonthlyIncome:   monthlyIncome,
		TotalExpenses:   totalExpenses,
		MonthlyExpenses: monthlyExpenses,
		NetProfit:       totalIncome.Sub(totalExpenses),
	}
	s.toCache(ctx, "reports:dashboard", summary)
	return summary, nil
}

// Trends returns the last six months of verified income and completed
// maintenance spend, oldest month first.
func (s *ReportService) Trends(ctx context.Context, actor domain.Actor) (*MonthlyTrends, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -180)
	income, err := s.payments.MonthlyVerifiedTotals(since)
	if err != nil {
		return nil, err
	}
	expense, err := s.requests.MonthlyCompletedCosts(since)
	if err != nil {
		return nil, err
	}

	type pair struct {
		income  decimal.Decimal
		expense decimal.Decimal
	}
	merged := map[time.Time]*pair{}
	var order []time.Time

	touch := func(month time.Time) *pair {
		month = time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
		if p, ok := merged[month]; ok {
			return p
		}
		p := &pair{}
		merged[month] = p
		order = append(order, month)
		return p
	}
	for _, mt := range income {
		touch(mt.Month).income = mt.Total
	}
	for _, mt := range expense {
		touch(mt.Month).expense = mt.Total
	}

	trends := &MonthlyTrends{}
	for _, month := range order {
		p := merged[month]
		trends.Labels = append(trends.Labels, month.Format("Jan 2006"))
		trends.Income = append(trends.Income, p.income)
		trends.Expense = append(trends.Expense, p.expense)
	}
	return trends, nil
}

// Occupancy returns house occupancy counts and maintenance load.
func (s *ReportService) Occupancy(ctx context.Context, actor domain.Actor) (*OccupancyReport, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	var cached OccupancyReport
	if s.fromCache(ctx, "reports:occupancy", &cached) {
		return &cached, nil
	}

	houseCounts, err := s.houses.CountByStatus()
	if err != nil {
		return nil, err
	}
	categories, err := s.requests.CountByCategory()
	if err != nil {
		return nil, err
	}

	report := &OccupancyReport{MaintenanceCategories: categories}
	report.Occupancy.Occupied = houseCounts[domain.HouseOccupied]
	report.Occupancy.Vacant = houseCounts[domain.HouseVacant]
	report.Occupancy.Maintenance = houseCounts[domain.HouseUnderRepair]
	for _, n := range houseCounts {
		report.Occupancy.Total += n
	}
	s.toCache(ctx, "reports:occupancy", report)
	return report, nil
}

// Debtors lists tenants in arrears for the current month. For each active
// tenant with a house: expected = rent + every bill due this month (paid
// or not), paid = verified payments covering the month, debtor iff
// balance > 0. Settled bills stay in expected because the payment that
// settled them already counts in paid. Never cached.
func (s *ReportService) Debtors(ctx context.Context, actor domain.Actor) ([]Debtor, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	now := time.Now()
	tenants, err := s.tenants.ListActiveWithHouse()
	if err != nil {
		return nil, err
	}

	debtors := []Debtor{}
	for _, tenant := range tenants {
		house, err := s.houses.GetByID(*tenant.HouseID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		billed, err := s.bills.SumForMonth(tenant.ID, now)
		if err != nil {
			return nil, err
		}
		paid, err := s.payments.SumVerifiedForTenantMonth(tenant.ID, now)
		if err != nil {
			return nil, err
		}

		expected := house.RentAmount.Add(billed)
		balance := expected.Sub(paid)
		if balance.LessThanOrEqual(decimal.Zero) {
			continue
		}

		name := ""
		phone := "N/A"
		if user, err := s.users.GetByID(tenant.UserID); err == nil {
			name = user.FullName()
			if user.Phone != "" {
				phone = user.Phone
			}
		}
		debtors = append(debtors, Debtor{
			TenantID: tenant.ID,
			Name:     name,
			House:    house.HouseNumber,
			Phone:    phone,
			Expected: expected,
			Paid:     paid,
			Balance:  balance,
		})
	}
	return debtors, nil
}

// PingDebtor sends a payment reminder notification to a tenant.
func (s *ReportService) PingDebtor(ctx context.Context, actor domain.Actor, tenantID int64) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}

	tenant, err := s.tenants.GetByID(tenantID)
	if err != nil {
		return err
	}
	month := time.Now().Format("January")
	s.notifier.Notify(tenant.UserID,
		fmt.Sprintf("PAYMENT REMINDER: you have an outstanding rent balance for %s. Please pay immediately to avoid penalties.", month),
		"/tenant-dashboard")
	return nil
}

func (s *ReportService) requireAdmin(actor domain.Actor) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleTenant, domain.RoleTechnician, domain.RoleManager:
		return domain.ErrForbidden
	default:
		return domain.ErrForbidden
	}
}

func (s *ReportService) fromCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn("discarding bad cached report", slog.String("key", key))
		return false
	}
	return true
}

func (s *ReportService) toCache(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache report",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
