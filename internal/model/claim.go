package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClaimStatus enum constants
const (
	ClaimStatusDraft    = "DRAFT"
	ClaimStatusPending  = "PENDING"
	ClaimStatusApproved = "APPROVED"
	ClaimStatusRejected = "REJECTED"
)

// ExpenseCategory enum constants
const (
	CategoryTravel        = "Travel"
	CategoryMeals         = "Meals & Entertainment"
	CategoryFuelVehicle   = "Fuel & Vehicle"
	CategoryAccommodation = "Accommodation"
	CategoryOfficeSupply  = "Office Supplies"
	CategorySoftware      = "Software & Subscriptions"
	CategoryTraining      = "Training"
	CategoryOther         = "Other"
)

// DepartmentUnknown is used when an employee record carries no department.
const DepartmentUnknown = "Unknown"

// Categories lists every accepted expense category.
var Categories = []string{
	CategoryTravel,
	CategoryMeals,
	CategoryFuelVehicle,
	CategoryAccommodation,
	CategoryOfficeSupply,
	CategorySoftware,
	CategoryTraining,
	CategoryOther,
}

// ValidCategory reports whether c is one of the accepted categories.
func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Claim represents one submitted expense request, including its workflow
// status and the fraud fields derived at submission/update time.
type Claim struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID   uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	EmployeeName string    `gorm:"type:varchar(255)" json:"employee_name"`
	Department   string    `gorm:"type:varchar(100);not null;default:'Unknown';index" json:"department"`

	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Currency  string          `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"` // amount * tax rate unless overridden

	Category    string `gorm:"type:varchar(50);not null;index" json:"category"`
	Description string `gorm:"type:text" json:"description"`
	Vendor      string `gorm:"type:varchar(255)" json:"vendor"`

	ExpenseDate time.Time `gorm:"type:date;not null" json:"expense_date"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Attachments []Attachment `gorm:"foreignKey:ClaimID;constraint:OnDelete:CASCADE" json:"attachments"`

	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ReviewerID      *uuid.UUID `gorm:"type:uuid" json:"reviewer_id"`
	ReviewerName    string     `gorm:"type:varchar(255)" json:"reviewer_name"`
	ReviewerComment string     `gorm:"type:text" json:"reviewer_comment"`
	DecidedAt       *time.Time `json:"decided_at"`
	EscalationLevel int        `gorm:"not null;default:0" json:"escalation_level"`

	RiskScore  int      `gorm:"not null;default:0" json:"risk_score"`
	FraudFlags []string `gorm:"serializer:json;type:jsonb" json:"fraud_flags"`
	Flagged    bool     `gorm:"not null;default:false" json:"flagged"`
}

// Terminal reports whether the claim has reached a final workflow state.
func (c *Claim) Terminal() bool {
	return c.Status == ClaimStatusApproved || c.Status == ClaimStatusRejected
}

// Clone returns a deep copy safe to hand out of the store.
func (c *Claim) Clone() *Claim {
	cp := *c
	if c.Attachments != nil {
		cp.Attachments = make([]Attachment, len(c.Attachments))
		copy(cp.Attachments, c.Attachments)
	}
	if c.FraudFlags != nil {
		cp.FraudFlags = make([]string, len(c.FraudFlags))
		copy(cp.FraudFlags, c.FraudFlags)
	}
	if c.ReviewerID != nil {
		id := *c.ReviewerID
		cp.ReviewerID = &id
	}
	if c.DecidedAt != nil {
		t := *c.DecidedAt
		cp.DecidedAt = &t
	}
	return &cp
}

// Attachment references a receipt stored by the external attachment storage.
// The claim owns only the reference, never the bytes.
type Attachment struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClaimID     uuid.UUID `gorm:"type:uuid;not null;index" json:"claim_id"`
	URL         string    `gorm:"type:text;not null" json:"url"`
	FileName    string    `gorm:"type:varchar(255)" json:"file_name"`
	SizeBytes   int64     `gorm:"not null;default:0" json:"size_bytes"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}
