package service

import (
	"context"
	"strings"
	"time"

	"claimdesk/internal/apperr"
	"claimdesk/internal/model"
	"claimdesk/internal/repository"

	"github.com/shopspring/decimal"
)

type SetBudgetRequest struct {
	Allocated  string `json:"allocated" binding:"required"`
	FiscalYear int    `json:"fiscal_year"`
}

type BudgetService interface {
	SetAllocation(ctx context.Context, department string, req SetBudgetRequest) (*model.BudgetAllocation, error)
}

type budgetService struct {
	tx   repository.TransactionManager
	repo repository.BudgetRepository
	now  func() time.Time
}

func NewBudgetService(tx repository.TransactionManager, repo repository.BudgetRepository) BudgetService {
	return &budgetService{tx: tx, repo: repo, now: time.Now}
}

// SetAllocation creates or replaces the department's allocation for the
// fiscal year. The lookup and the write run in one transaction so two
// concurrent calls cannot both insert a row for the same year.
func (s *budgetService) SetAllocation(ctx context.Context, department string, req SetBudgetRequest) (*model.BudgetAllocation, error) {
	var violations []apperr.FieldViolation
	department = strings.TrimSpace(department)
	if department == "" {
		violations = append(violations, apperr.FieldViolation{Field: "department", Reason: "is required"})
	}
	allocated, err := decimal.NewFromString(req.Allocated)
	if err != nil {
		violations = append(violations, apperr.FieldViolation{Field: "allocated", Reason: "must be a decimal number"})
	} else if allocated.IsNegative() {
		violations = append(violations, apperr.FieldViolation{Field: "allocated", Reason: "must not be negative"})
	}
	if len(violations) > 0 {
		return nil, apperr.Validation(violations...)
	}

	fiscalYear := req.FiscalYear
	if fiscalYear == 0 {
		fiscalYear = s.now().Year()
	}

	allocation := &model.BudgetAllocation{
		Department: department,
		FiscalYear: fiscalYear,
		Allocated:  allocated,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.Upsert(txCtx, allocation)
	})
	if err != nil {
		return nil, err
	}
	return allocation, nil
}
