package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetAllocation stores the spending allocation for one department and
// fiscal year. Utilization is derived against approved claim totals.
type BudgetAllocation struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Department string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_budget_dept_year" json:"department"`
	FiscalYear int             `gorm:"not null;uniqueIndex:idx_budget_dept_year" json:"fiscal_year"`
	Allocated  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"allocated"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
