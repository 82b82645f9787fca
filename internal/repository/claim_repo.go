package repository

import (
	"context"
	"errors"

	"claimdesk/internal/apperr"
	"claimdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimFilter narrows FetchClaims. Zero values mean "no constraint".
type ClaimFilter struct {
	EmployeeID *uuid.UUID
	Department string
	Status     string
	Category   string
}

// ClaimRepository is the persistence adapter for claims. The in-memory store
// owns session state; this interface owns durability. Failures come back as
// apperr.UpstreamError so callers can fall back to the last good snapshot.
type ClaimRepository interface {
	FetchClaims(ctx context.Context, filter ClaimFilter) ([]model.Claim, error)
	CreateClaim(ctx context.Context, claim *model.Claim) error
	UpdateClaim(ctx context.Context, claim *model.Claim) error
	DeleteClaim(ctx context.Context, id uuid.UUID) error
}

type claimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

func (r *claimRepository) FetchClaims(ctx context.Context, filter ClaimFilter) ([]model.Claim, error) {
	db := GetDB(ctx, r.db).Preload("Attachments")
	if filter.EmployeeID != nil {
		db = db.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.Department != "" {
		db = db.Where("department = ?", filter.Department)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}

	var claims []model.Claim
	if err := db.Order("submitted_at desc").Find(&claims).Error; err != nil {
		return nil, apperr.Upstream("fetch claims", err)
	}
	return claims, nil
}

func (r *claimRepository) CreateClaim(ctx context.Context, claim *model.Claim) error {
	if err := GetDB(ctx, r.db).Create(claim).Error; err != nil {
		return apperr.Upstream("create claim", err)
	}
	return nil
}

func (r *claimRepository) UpdateClaim(ctx context.Context, claim *model.Claim) error {
	result := GetDB(ctx, r.db).Save(claim)
	if result.Error != nil {
		return apperr.Upstream("update claim", result.Error)
	}
	return nil
}

func (r *claimRepository) DeleteClaim(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Delete(&model.Claim{}, "id = ?", id)
	if result.Error != nil {
		return apperr.Upstream("delete claim", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("claim", id.String())
	}
	return nil
}

// IsRecordNotFound reports whether err is gorm's missing-row error.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
