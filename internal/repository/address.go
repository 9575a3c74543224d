package repository

import (
	"context"

	"binwahab-store/internal/model"

	"gorm.io/gorm"
)

type AddressRepository interface {
	List(ctx context.Context, userID string) ([]*model.Address, error)
	FindForUser(ctx context.Context, tx *gorm.DB, addressID uint, userID string) (*model.Address, error)
	Create(ctx context.Context, tx *gorm.DB, address *model.Address) error
	Delete(ctx context.Context, addressID uint, userID string) error
	CreateSnapshot(ctx context.Context, tx *gorm.DB, snapshot *model.ShippingAddress) error
}

type addressRepoImpl struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepoImpl{
		db: db,
	}
}

func (r *addressRepoImpl) List(ctx context.Context, userID string) ([]*model.Address, error) {
	var addresses []*model.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, id DESC").
		Find(&addresses).Error

	if err != nil {
		return nil, err
	}

	return addresses, nil
}

func (r *addressRepoImpl) FindForUser(ctx context.Context, tx *gorm.DB, addressID uint, userID string) (*model.Address, error) {
	var address model.Address
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&address).Error

	if err != nil {
		return nil, err
	}

	return &address, nil
}

// Create stores the address; a default address clears the flag on the user's others.
func (r *addressRepoImpl) Create(ctx context.Context, tx *gorm.DB, address *model.Address) error {
	return conn(r.db, tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			err := tx.Model(&model.Address{}).
				Where("user_id = ? AND is_default = ?", address.UserID, true).
				Update("is_default", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
}

func (r *addressRepoImpl) Delete(ctx context.Context, addressID uint, userID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&model.Address{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *addressRepoImpl) CreateSnapshot(ctx context.Context, tx *gorm.DB, snapshot *model.ShippingAddress) error {
	return conn(r.db, tx).WithContext(ctx).Create(snapshot).Error
}
