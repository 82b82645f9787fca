package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalAction enum constants
const (
	ActionApprove  = "APPROVE"
	ActionReject   = "REJECT"
	ActionEscalate = "ESCALATE"
)

// ApprovalEvent is the immutable record of a single workflow transition.
// Rows are appended, never updated; approval-time metrics read them back.
type ApprovalEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClaimID   uuid.UUID `gorm:"type:uuid;not null;index" json:"claim_id"`
	ActorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorName string    `gorm:"type:varchar(255)" json:"actor_name"`
	ActorRole string    `gorm:"type:varchar(50);not null" json:"actor_role"`
	Action    string    `gorm:"type:varchar(20);not null;index" json:"action"`
	Reason    string    `gorm:"type:text" json:"reason"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
