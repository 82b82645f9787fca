package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus enum constants
const (
	BudgetStatusGood    = "good"
	BudgetStatusWarning = "warning"
	BudgetStatusOver    = "over"
)

// DepartmentSummary aggregates claim totals for one department at a snapshot.
type DepartmentSummary struct {
	Department         string          `json:"department"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	ApprovedAmount     decimal.Decimal `json:"approved_amount"`
	PendingAmount      decimal.Decimal `json:"pending_amount"`
	RejectedAmount     decimal.Decimal `json:"rejected_amount"`
	EmployeeCount      int             `json:"employee_count"`
	ClaimCount         int             `json:"claim_count"`
	AverageClaimAmount decimal.Decimal `json:"average_claim_amount"`
	FlaggedCount       int             `json:"flagged_count"`
}

// CategorySummary aggregates claim totals for one expense category and
// reports the single highest claim seen in it.
type CategorySummary struct {
	Category           string          `json:"category"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	ApprovedAmount     decimal.Decimal `json:"approved_amount"`
	PendingAmount      decimal.Decimal `json:"pending_amount"`
	RejectedAmount     decimal.Decimal `json:"rejected_amount"`
	ClaimCount         int             `json:"claim_count"`
	AverageClaimAmount decimal.Decimal `json:"average_claim_amount"`
	FlaggedCount       int             `json:"flagged_count"`
	HighestAmount      decimal.Decimal `json:"highest_amount"`
	HighestClaimID     string          `json:"highest_claim_id"`
	HighestClaimOwner  string          `json:"highest_claim_owner"`
}

// EmployeeSummary aggregates claim totals for one employee.
type EmployeeSummary struct {
	EmployeeID     string          `json:"employee_id"`
	EmployeeName   string          `json:"employee_name"`
	Department     string          `json:"department"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
	ClaimCount     int             `json:"claim_count"`
	PendingCount   int             `json:"pending_count"`
	FlaggedCount   int             `json:"flagged_count"`
	LastClaimDate  time.Time       `json:"last_claim_date"`
}

// BudgetUtilization reports spend against a department allocation.
type BudgetUtilization struct {
	Department      string          `json:"department"`
	Allocated       decimal.Decimal `json:"allocated"`
	Spent           decimal.Decimal `json:"spent"`
	Remaining       decimal.Decimal `json:"remaining"`
	UtilizationRate decimal.Decimal `json:"utilization_rate"` // spent / allocated
	Status          string          `json:"status"`           // good, warning, over
}

// TrendPoint is one calendar month of approved claim volume.
type TrendPoint struct {
	Month string          `json:"month"` // YYYY-MM
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}
