package repository

import (
	"context"

	"binwahab-store/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, tx *gorm.DB, productID uint) (*model.Product, error)
	FindVariant(ctx context.Context, tx *gorm.DB, productID, variantID uint) (*model.ProductVariant, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	tudung := decimal.RequireFromString("59.00")
	products := []model.Product{
		{SKU: "BW-BAJU-KURUNG", Name: "Baju Kurung Moden", Price: decimal.RequireFromString("129.00"), Stock: 40, TrackInventory: true, Active: true},
		{SKU: "BW-SAMPIN", Name: "Kain Sampin Songket", Price: decimal.RequireFromString("89.90"), Stock: 25, TrackInventory: true, Active: true},
		{SKU: "BW-TUDUNG", Name: "Tudung Bawal", Price: decimal.RequireFromString("45.00"), Stock: 0, TrackInventory: true, Active: true,
			Variants: []model.ProductVariant{
				{SKU: "BW-TUDUNG-BLK", Name: "Black", Stock: 30},
				{SKU: "BW-TUDUNG-PRM", Name: "Premium Silk", Price: &tudung, Stock: 10},
			}},
		{SKU: "BW-GIFTCARD", Name: "Gift Card", Price: decimal.RequireFromString("50.00"), TrackInventory: false, Active: true},
	}

	maxWest := decimal.RequireFromString("149.99")
	maxEast := decimal.RequireFromString("199.99")
	zones := []model.ShippingZone{
		{Code: model.ZoneWestMalaysia, Name: "West Malaysia", Active: true, Rates: []model.ShippingRate{
			{Name: "Standard", Price: decimal.RequireFromString("8.00"), MinOrderValue: decimal.Zero, MaxOrderValue: &maxWest, Active: true},
			{Name: "Free shipping", Price: decimal.Zero, MinOrderValue: decimal.RequireFromString("150.00"), Active: true},
		}},
		{Code: model.ZoneEastMalaysia, Name: "East Malaysia", Active: true, Rates: []model.ShippingRate{
			{Name: "Standard", Price: decimal.RequireFromString("15.00"), MinOrderValue: decimal.Zero, MaxOrderValue: &maxEast, Active: true},
			{Name: "Free shipping", Price: decimal.Zero, MinOrderValue: decimal.RequireFromString("200.00"), Active: true},
		}},
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Product{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&zones).Error
	})
}

func (r *productRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, productID uint) (*model.Product, error) {
	var product model.Product
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindVariant(ctx context.Context, tx *gorm.DB, productID, variantID uint) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&variant).Error

	if err != nil {
		return nil, err
	}

	return &variant, nil
}

func (r *productRepoImpl) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("track_inventory = ? AND active = ?", true, true).
		Where("stock - reserved_stock <= ?", threshold).
		Count(&count).Error

	return count, err
}
