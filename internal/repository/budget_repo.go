package repository

import (
	"context"
	"errors"

	"claimdesk/internal/apperr"
	"claimdesk/internal/model"

	"gorm.io/gorm"
)

// BudgetRepository reads department budget allocations.
type BudgetRepository interface {
	GetByDepartment(ctx context.Context, department string, fiscalYear int) (*model.BudgetAllocation, error)
	Upsert(ctx context.Context, allocation *model.BudgetAllocation) error
}

type budgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) GetByDepartment(ctx context.Context, department string, fiscalYear int) (*model.BudgetAllocation, error) {
	var allocation model.BudgetAllocation
	err := GetDB(ctx, r.db).
		Where("department = ? AND fiscal_year = ?", department, fiscalYear).
		First(&allocation).Error
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, apperr.NotFound("budget allocation", department)
		}
		return nil, apperr.Upstream("fetch budget allocation", err)
	}
	return &allocation, nil
}

func (r *budgetRepository) Upsert(ctx context.Context, allocation *model.BudgetAllocation) error {
	existing, err := r.GetByDepartment(ctx, allocation.Department, allocation.FiscalYear)
	if err == nil {
		allocation.ID = existing.ID
		if saveErr := GetDB(ctx, r.db).Save(allocation).Error; saveErr != nil {
			return apperr.Upstream("update budget allocation", saveErr)
		}
		return nil
	}
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		// A lookup failure is not a license to insert a duplicate row.
		return err
	}
	if createErr := GetDB(ctx, r.db).Create(allocation).Error; createErr != nil {
		return apperr.Upstream("create budget allocation", createErr)
	}
	return nil
}
