package repository

import (
	"context"

	"binwahab-store/internal/model"

	"gorm.io/gorm"
)

type ShippingRepository interface {
	// FindZone returns the active zone with its active rates.
	FindZone(ctx context.Context, tx *gorm.DB, code model.ZoneCode) (*model.ShippingZone, error)
}

type shippingRepoImpl struct {
	db *gorm.DB
}

func NewShippingRepository(db *gorm.DB) ShippingRepository {
	return &shippingRepoImpl{
		db: db,
	}
}

func (r *shippingRepoImpl) FindZone(ctx context.Context, tx *gorm.DB, code model.ZoneCode) (*model.ShippingZone, error) {
	var zone model.ShippingZone
	err := conn(r.db, tx).WithContext(ctx).
		Preload("Rates", "active = ?", true).
		Where("code = ? AND active = ?", code, true).
		First(&zone).Error

	if err != nil {
		return nil, err
	}

	return &zone, nil
}
