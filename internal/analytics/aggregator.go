package analytics

import (
	"context"
	"sort"
	"time"

	"claimdesk/internal/model"
	"claimdesk/internal/repository"
	"claimdesk/internal/store"

	"github.com/shopspring/decimal"
)

// BudgetWarningRatio is the utilization above which a department budget is
// reported as "warning" rather than "good".
var BudgetWarningRatio = decimal.NewFromFloat(0.8)

// Aggregator derives analytics on demand from the current store snapshot.
// Every query is a pure read: two calls without an intervening mutation see
// the same snapshot version and return identical results.
type Aggregator struct {
	store   *store.Store
	budgets repository.BudgetRepository
	now     func() time.Time
}

func New(st *store.Store, budgets repository.BudgetRepository) *Aggregator {
	return &Aggregator{store: st, budgets: budgets, now: time.Now}
}

// SetClock overrides the aggregator's clock. Tests only.
func (a *Aggregator) SetClock(now func() time.Time) { a.now = now }

// DepartmentSummary returns one row per distinct department present in the
// snapshot, sorted descending by total amount.
func (a *Aggregator) DepartmentSummary() []model.DepartmentSummary {
	snap := a.store.Snapshot()

	rows := make(map[string]*model.DepartmentSummary)
	employees := make(map[string]map[string]struct{})
	for _, claim := range snap.Claims {
		row, ok := rows[claim.Department]
		if !ok {
			row = &model.DepartmentSummary{Department: claim.Department}
			rows[claim.Department] = row
			employees[claim.Department] = make(map[string]struct{})
		}
		row.TotalAmount = row.TotalAmount.Add(claim.Amount)
		row.ClaimCount++
		employees[claim.Department][claim.EmployeeID.String()] = struct{}{}
		switch claim.Status {
		case model.ClaimStatusApproved:
			row.ApprovedAmount = row.ApprovedAmount.Add(claim.Amount)
		case model.ClaimStatusPending:
			row.PendingAmount = row.PendingAmount.Add(claim.Amount)
		case model.ClaimStatusRejected:
			row.RejectedAmount = row.RejectedAmount.Add(claim.Amount)
		}
		if claim.Flagged {
			row.FlaggedCount++
		}
	}

	out := make([]model.DepartmentSummary, 0, len(rows))
	for dept, row := range rows {
		row.EmployeeCount = len(employees[dept])
		row.AverageClaimAmount = row.TotalAmount.Div(decimal.NewFromInt(int64(row.ClaimCount)))
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount.Equal(out[j].TotalAmount) {
			return out[i].Department < out[j].Department
		}
		return out[i].TotalAmount.GreaterThan(out[j].TotalAmount)
	})
	return out
}

// CategorySummary returns one row per category, sorted descending by total
// amount, each carrying the single highest claim and its owner.
func (a *Aggregator) CategorySummary() []model.CategorySummary {
	snap := a.store.Snapshot()

	rows := make(map[string]*model.CategorySummary)
	for _, claim := range snap.Claims {
		row, ok := rows[claim.Category]
		if !ok {
			row = &model.CategorySummary{Category: claim.Category}
			rows[claim.Category] = row
		}
		row.TotalAmount = row.TotalAmount.Add(claim.Amount)
		row.ClaimCount++
		switch claim.Status {
		case model.ClaimStatusApproved:
			row.ApprovedAmount = row.ApprovedAmount.Add(claim.Amount)
		case model.ClaimStatusPending:
			row.PendingAmount = row.PendingAmount.Add(claim.Amount)
		case model.ClaimStatusRejected:
			row.RejectedAmount = row.RejectedAmount.Add(claim.Amount)
		}
		if claim.Flagged {
			row.FlaggedCount++
		}
		if claim.Amount.GreaterThan(row.HighestAmount) {
			row.HighestAmount = claim.Amount
			row.HighestClaimID = claim.ID.String()
			row.HighestClaimOwner = claim.EmployeeName
		}
	}

	out := make([]model.CategorySummary, 0, len(rows))
	for _, row := range rows {
		row.AverageClaimAmount = row.TotalAmount.Div(decimal.NewFromInt(int64(row.ClaimCount)))
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount.Equal(out[j].TotalAmount) {
			return out[i].Category < out[j].Category
		}
		return out[i].TotalAmount.GreaterThan(out[j].TotalAmount)
	})
	return out
}

// EmployeeSummary returns one row per employee with at least one claim,
// sorted descending by total amount.
func (a *Aggregator) EmployeeSummary() []model.EmployeeSummary {
	snap := a.store.Snapshot()

	rows := make(map[string]*model.EmployeeSummary)
	for _, claim := range snap.Claims {
		key := claim.EmployeeID.String()
		row, ok := rows[key]
		if !ok {
			row = &model.EmployeeSummary{
				EmployeeID:   key,
				EmployeeName: claim.EmployeeName,
				Department:   claim.Department,
			}
			rows[key] = row
		}
		row.TotalAmount = row.TotalAmount.Add(claim.Amount)
		row.ClaimCount++
		if claim.Status == model.ClaimStatusApproved {
			row.ApprovedAmount = row.ApprovedAmount.Add(claim.Amount)
		}
		if claim.Status == model.ClaimStatusPending {
			row.PendingCount++
		}
		if claim.Flagged {
			row.FlaggedCount++
		}
		if claim.SubmittedAt.After(row.LastClaimDate) {
			row.LastClaimDate = claim.SubmittedAt
		}
	}

	out := make([]model.EmployeeSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount.Equal(out[j].TotalAmount) {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].TotalAmount.GreaterThan(out[j].TotalAmount)
	})
	return out
}

// BudgetUtilization reports approved spend against the department's
// allocation for the current fiscal year.
func (a *Aggregator) BudgetUtilization(ctx context.Context, department string) (model.BudgetUtilization, error) {
	allocation, err := a.budgets.GetByDepartment(ctx, department, a.now().Year())
	if err != nil {
		return model.BudgetUtilization{}, err
	}

	snap := a.store.Snapshot()
	spent := decimal.Zero
	for _, claim := range snap.Claims {
		if claim.Department == department && claim.Status == model.ClaimStatusApproved {
			spent = spent.Add(claim.Amount)
		}
	}

	util := model.BudgetUtilization{
		Department: department,
		Allocated:  allocation.Allocated,
		Spent:      spent,
		Remaining:  allocation.Allocated.Sub(spent),
	}
	if allocation.Allocated.GreaterThan(decimal.Zero) {
		util.UtilizationRate = spent.Div(allocation.Allocated)
	}
	switch {
	case spent.GreaterThan(allocation.Allocated):
		util.Status = model.BudgetStatusOver
	case spent.GreaterThan(allocation.Allocated.Mul(BudgetWarningRatio)):
		util.Status = model.BudgetStatusWarning
	default:
		util.Status = model.BudgetStatusGood
	}
	return util, nil
}

// Trend groups approved claims by calendar month of their expense date over
// the last periods months, oldest first. Months with no approved claims are
// present with zero totals so charts stay continuous.
func (a *Aggregator) Trend(periods int) []model.TrendPoint {
	if periods <= 0 {
		periods = 6
	}
	snap := a.store.Snapshot()
	now := a.now()
	// Anchor on the first of the month so AddDate never normalizes across
	// month boundaries (e.g. Mar 31 minus one month).
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	totals := make(map[string]*model.TrendPoint)
	points := make([]*model.TrendPoint, 0, periods)
	for i := periods - 1; i >= 0; i-- {
		m := anchor.AddDate(0, -i, 0)
		key := m.Format("2006-01")
		point := &model.TrendPoint{Month: key}
		totals[key] = point
		points = append(points, point)
	}

	for _, claim := range snap.Claims {
		if claim.Status != model.ClaimStatusApproved {
			continue
		}
		point, ok := totals[claim.ExpenseDate.Format("2006-01")]
		if !ok {
			continue
		}
		point.Total = point.Total.Add(claim.Amount)
		point.Count++
	}

	out := make([]model.TrendPoint, 0, len(points))
	for _, point := range points {
		out = append(out, *point)
	}
	return out
}
