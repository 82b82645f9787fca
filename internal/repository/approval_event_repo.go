package repository

import (
	"context"

	"claimdesk/internal/apperr"
	"claimdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalEventRepository appends and reads the immutable transition log.
type ApprovalEventRepository interface {
	Append(ctx context.Context, event *model.ApprovalEvent) error
	ListByClaim(ctx context.Context, claimID uuid.UUID) ([]model.ApprovalEvent, error)
	List(ctx context.Context, limit, offset int) ([]model.ApprovalEvent, int64, error)
}

type approvalEventRepository struct {
	db *gorm.DB
}

func NewApprovalEventRepository(db *gorm.DB) ApprovalEventRepository {
	return &approvalEventRepository{db: db}
}

func (r *approvalEventRepository) Append(ctx context.Context, event *model.ApprovalEvent) error {
	if err := GetDB(ctx, r.db).Create(event).Error; err != nil {
		return apperr.Upstream("append approval event", err)
	}
	return nil
}

func (r *approvalEventRepository) ListByClaim(ctx context.Context, claimID uuid.UUID) ([]model.ApprovalEvent, error) {
	var events []model.ApprovalEvent
	if err := GetDB(ctx, r.db).Where("claim_id = ?", claimID).Order("created_at asc").Find(&events).Error; err != nil {
		return nil, apperr.Upstream("fetch approval events", err)
	}
	return events, nil
}

func (r *approvalEventRepository) List(ctx context.Context, limit, offset int) ([]model.ApprovalEvent, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.Model(&model.ApprovalEvent{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Upstream("count approval events", err)
	}

	var events []model.ApprovalEvent
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&events).Error; err != nil {
		return nil, 0, apperr.Upstream("fetch approval events", err)
	}
	return events, total, nil
}
