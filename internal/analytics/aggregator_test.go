package analytics

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"claimdesk/internal/apperr"
	"claimdesk/internal/eventbus"
	"claimdesk/internal/fraud"
	"claimdesk/internal/model"
	"claimdesk/internal/repository"
	"claimdesk/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memClaimRepo struct {
	mu     sync.Mutex
	claims map[uuid.UUID]model.Claim
}

func (r *memClaimRepo) FetchClaims(context.Context, repository.ClaimFilter) ([]model.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Claim
	for _, c := range r.claims {
		out = append(out, c)
	}
	return out, nil
}

func (r *memClaimRepo) CreateClaim(_ context.Context, claim *model.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims[claim.ID] = *claim
	return nil
}

func (r *memClaimRepo) UpdateClaim(_ context.Context, claim *model.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims[claim.ID] = *claim
	return nil
}

func (r *memClaimRepo) DeleteClaim(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.claims, id)
	return nil
}

type memBudgetRepo struct {
	allocations map[string]decimal.Decimal
}

func (r *memBudgetRepo) GetByDepartment(_ context.Context, department string, fiscalYear int) (*model.BudgetAllocation, error) {
	allocated, ok := r.allocations[department]
	if !ok {
		return nil, apperr.NotFound("budget allocation", department)
	}
	return &model.BudgetAllocation{Department: department, FiscalYear: fiscalYear, Allocated: allocated}, nil
}

func (r *memBudgetRepo) Upsert(_ context.Context, allocation *model.BudgetAllocation) error {
	r.allocations[allocation.Department] = allocation.Allocated
	return nil
}

// testNow is a Wednesday; claims seeded against it avoid the weekend rule.
var testNow = time.Date(2025, 4, 16, 10, 0, 0, 0, time.UTC)

type seed struct {
	employee    string
	department  string
	category    string
	amount      float64
	expenseDate time.Time
	approve     bool
	reject      bool
}

func buildAggregator(t *testing.T, budgets repository.BudgetRepository, seeds []seed) (*Aggregator, *store.Store) {
	t.Helper()
	st := store.New(&memClaimRepo{claims: make(map[uuid.UUID]model.Claim)}, eventbus.New(), fraud.NewScorer(fraud.DefaultConfig()))
	st.SetClock(func() time.Time { return testNow })

	employees := make(map[string]uuid.UUID)
	for i, s := range seeds {
		id, ok := employees[s.employee]
		if !ok {
			id = uuid.New()
			employees[s.employee] = id
		}
		claim, err := st.Create(context.Background(), store.CreateClaimInput{
			EmployeeID:   id,
			EmployeeName: s.employee,
			Department:   s.department,
			Amount:       decimal.NewFromFloat(s.amount),
			Category:     s.category,
			Description:  fmt.Sprintf("seed claim %d", i),
			ExpenseDate:  s.expenseDate,
			Attachments:  []model.Attachment{{URL: "https://files.example/r.pdf"}},
		})
		require.NoError(t, err)
		if s.approve || s.reject {
			_, err = st.Transition(context.Background(), claim.ID, func(c *model.Claim) error {
				if s.approve {
					c.Status = model.ClaimStatusApproved
				} else {
					c.Status = model.ClaimStatusRejected
				}
				return nil
			})
			require.NoError(t, err)
		}
	}

	agg := New(st, budgets)
	agg.SetClock(func() time.Time { return testNow })
	return agg, st
}

func weekday(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestDepartmentSummary(t *testing.T) {
	agg, _ := buildAggregator(t, &memBudgetRepo{}, []seed{
		{employee: "Dana Reyes", department: "Engineering", category: model.CategoryTravel, amount: 100, expenseDate: weekday(2025, 4, 7), approve: true},
		{employee: "Dana Reyes", department: "Engineering", category: model.CategoryMeals, amount: 40, expenseDate: weekday(2025, 4, 8)},
		{employee: "Miguel Ortiz", department: "Engineering", category: model.CategoryTravel, amount: 160, expenseDate: weekday(2025, 4, 9), reject: true},
		{employee: "Priya Nair", department: "Sales", category: model.CategoryMeals, amount: 55, expenseDate: weekday(2025, 4, 10)},
	})

	rows := agg.DepartmentSummary()
	require.Len(t, rows, 2)

	// Sorted descending by total, so Engineering first.
	eng := rows[0]
	assert.Equal(t, "Engineering", eng.Department)
	assert.True(t, eng.TotalAmount.Equal(decimal.NewFromInt(300)), "total %s", eng.TotalAmount)
	assert.True(t, eng.ApprovedAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, eng.PendingAmount.Equal(decimal.NewFromInt(40)))
	assert.True(t, eng.RejectedAmount.Equal(decimal.NewFromInt(160)))
	assert.Equal(t, 2, eng.EmployeeCount)
	assert.Equal(t, 3, eng.ClaimCount)
	assert.True(t, eng.AverageClaimAmount.Equal(decimal.NewFromInt(100)))

	// Per-status amounts partition the total.
	sum := eng.ApprovedAmount.Add(eng.PendingAmount).Add(eng.RejectedAmount)
	assert.True(t, sum.Equal(eng.TotalAmount))

	assert.Equal(t, "Sales", rows[1].Department)
	assert.Equal(t, 1, rows[1].EmployeeCount)
}

func TestCategorySummaryTracksHighestClaim(t *testing.T) {
	agg, st := buildAggregator(t, &memBudgetRepo{}, []seed{
		{employee: "Dana Reyes", department: "Engineering", category: model.CategoryTravel, amount: 100, expenseDate: weekday(2025, 4, 7)},
		{employee: "Miguel Ortiz", department: "Engineering", category: model.CategoryTravel, amount: 145, expenseDate: weekday(2025, 4, 8)},
		{employee: "Priya Nair", department: "Sales", category: model.CategoryMeals, amount: 55, expenseDate: weekday(2025, 4, 9)},
	})

	rows := agg.CategorySummary()
	require.Len(t, rows, 2)

	travel := rows[0]
	assert.Equal(t, model.CategoryTravel, travel.Category)
	assert.True(t, travel.HighestAmount.Equal(decimal.NewFromInt(145)))
	assert.Equal(t, "Miguel Ortiz", travel.HighestClaimOwner)

	owned := st.ListByFilter(store.Filter{Category: model.CategoryTravel})
	var found bool
	for _, c := range owned {
		if c.ID.String() == travel.HighestClaimID {
			found = true
		}
	}
	assert.True(t, found, "highest claim id must reference a stored claim")
}

func TestEmployeeSummary(t *testing.T) {
	agg, _ := buildAggregator(t, &memBudgetRepo{}, []seed{
		{employee: "Dana Reyes", department: "Engineering", category: model.CategoryTravel, amount: 100, expenseDate: weekday(2025, 4, 7), approve: true},
		{employee: "Dana Reyes", department: "Engineering", category: model.CategoryMeals, amount: 40, expenseDate: weekday(2025, 4, 8)},
		{employee: "Priya Nair", department: "Sales", category: model.CategoryMeals, amount: 55, expenseDate: weekday(2025, 4, 9)},
	})

	rows := agg.EmployeeSummary()
	require.Len(t, rows, 2)

	dana := rows[0]
	assert.Equal(t, "Dana Reyes", dana.EmployeeName)
	assert.True(t, dana.TotalAmount.Equal(decimal.NewFromInt(140)))
	assert.True(t, dana.ApprovedAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 2, dana.ClaimCount)
	assert.Equal(t, 1, dana.PendingCount)
	assert.Equal(t, testNow, dana.LastClaimDate)
}

func TestBudgetUtilization(t *testing.T) {
	budgets := &memBudgetRepo{allocations: map[string]decimal.Decimal{
		"Engineering": decimal.NewFromInt(1000),
		"Sales":       decimal.NewFromInt(100),
		"HR":          decimal.NewFromInt(50),
	}}
	agg, _ := buildAggregator(t, budgets, []seed{
		{employee: "Dana Reyes", department: "Engineering", category: model.CategoryTravel, amount: 400, expenseDate: weekday(2025, 4, 7), approve: true},
		{employee: "Dana Reyes", department: "Engineering", category: model.CategoryMeals, amount: 500, expenseDate: weekday(2025, 4, 8)},
		{employee: "Priya Nair", department: "Sales", category: model.CategoryMeals, amount: 90, expenseDate: weekday(2025, 4, 9), approve: true},
		{employee: "Ken Adebayo", department: "HR", category: model.CategoryOfficeSupply, amount: 75, expenseDate: weekday(2025, 4, 10), approve: true},
	})

	// Pending spend is excluded: 400 of 1000 stays "good".
	util, err := agg.BudgetUtilization(context.Background(), "Engineering")
	require.NoError(t, err)
	assert.True(t, util.Spent.Equal(decimal.NewFromInt(400)))
	assert.True(t, util.Remaining.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, model.BudgetStatusGood, util.Status)

	util, err = agg.BudgetUtilization(context.Background(), "Sales")
	require.NoError(t, err)
	assert.Equal(t, model.BudgetStatusWarning, util.Status)
	assert.True(t, util.UtilizationRate.Equal(decimal.NewFromFloat(0.9)))

	util, err = agg.BudgetUtilization(context.Background(), "HR")
	require.NoError(t, err)
	assert.Equal(t, model.BudgetStatusOver, util.Status)
	assert.True(t, util.Remaining.IsNegative())

	var nf *apperr.NotFoundError
	_, err = agg.BudgetUtilization(context.Background(), "Legal")
	assert.ErrorAs(t, err, &nf)
}

func TestTrendIncludesEmptyMonths(t *testing.T) {
	agg, _ := buildAggregator(t, &memBudgetRepo{}, []seed{
		{employee: "Dana Reyes", department: "Engineering", category: model.CategoryTravel, amount: 100, expenseDate: weekday(2025, 2, 5), approve: true},
		{employee: "Miguel Ortiz", department: "Engineering", category: model.CategoryTravel, amount: 130, expenseDate: weekday(2025, 2, 17), approve: true},
		{employee: "Priya Nair", department: "Sales", category: model.CategoryMeals, amount: 55, expenseDate: weekday(2025, 3, 10)},
		{employee: "Dana Reyes", department: "Engineering", category: model.CategoryMeals, amount: 42, expenseDate: weekday(2025, 4, 7), approve: true},
	})

	points := agg.Trend(4)
	require.Len(t, points, 4)
	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03", "2025-04"},
		[]string{points[0].Month, points[1].Month, points[2].Month, points[3].Month})

	assert.Equal(t, 0, points[0].Count)
	assert.True(t, points[0].Total.IsZero())

	assert.Equal(t, 2, points[1].Count)
	assert.True(t, points[1].Total.Equal(decimal.NewFromInt(230)))

	// March only has a pending claim, so it stays empty.
	assert.Equal(t, 0, points[2].Count)

	assert.Equal(t, 1, points[3].Count)
}

func TestQueriesAreRepeatableWithoutMutation(t *testing.T) {
	agg, st := buildAggregator(t, &memBudgetRepo{}, []seed{
		{employee: "Dana Reyes", department: "Engineering", category: model.CategoryTravel, amount: 100, expenseDate: weekday(2025, 4, 7), approve: true},
		{employee: "Priya Nair", department: "Sales", category: model.CategoryMeals, amount: 55, expenseDate: weekday(2025, 4, 9)},
	})

	v := st.Version()
	first := agg.DepartmentSummary()
	second := agg.DepartmentSummary()
	assert.Equal(t, first, second)
	assert.Equal(t, v, st.Version())

	// A mutation bumps the version and shows up in the next query.
	_, err := st.Create(context.Background(), store.CreateClaimInput{
		EmployeeID:   uuid.New(),
		EmployeeName: "Ken Adebayo",
		Department:   "HR",
		Amount:       decimal.NewFromInt(30),
		Category:     model.CategoryMeals,
		Description:  "team lunch",
		ExpenseDate:  weekday(2025, 4, 10),
		Attachments:  []model.Attachment{{URL: "https://files.example/r.pdf"}},
	})
	require.NoError(t, err)
	assert.Greater(t, st.Version(), v)
	assert.Len(t, agg.DepartmentSummary(), 3)
}
