package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants
const (
	RoleEmployee      = "employee"
	RoleManager       = "manager"
	RoleHR            = "hr"
	RoleAdministrator = "administrator"
)

// ReviewerRole reports whether the role may decide claims.
func ReviewerRole(role string) bool {
	return role == RoleManager || role == RoleHR || role == RoleAdministrator
}

// ValidRole reports whether the role is one the directory accepts.
func ValidRole(role string) bool {
	return role == RoleEmployee || ReviewerRole(role)
}

// User represents one entry in the employee directory.
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Email      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON responses
	Role       string         `gorm:"type:varchar(50);not null" json:"role"`
	Department string         `gorm:"type:varchar(100);not null;default:'Unknown'" json:"department"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}
