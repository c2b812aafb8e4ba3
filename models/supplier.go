package models

import (
	"context"
	"errors"
	"time"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Supplier struct {
	ID            int       `gorm:"primary_key" json:"id"`
	Name          string    `gorm:"size:200;not null" json:"name" binding:"required"`
	ContactPerson string    `gorm:"size:100" json:"contact_person"`
	PhoneNumber   string    `gorm:"size:20" json:"phone_number"`
	Address       string    `gorm:"type:text" json:"address"`
	IsActive      *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	PhoneNumber   string `json:"phone_number"`
	Address       string `json:"address"`
	IsActive      *bool  `json:"is_active"`
}

// SupplierPriceHistory keeps one open row (ValidTo NULL) per
// (supplier, product); receiving at a new cost closes it and opens another.
type SupplierPriceHistory struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SupplierId   int             `gorm:"index;not null" json:"supplier_id"`
	ProductId    int             `gorm:"index;not null" json:"product_id"`
	PricePerUnit decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price_per_unit"`
	ValidFrom    time.Time       `gorm:"not null" json:"valid_from"`
	ValidTo      *time.Time      `json:"valid_to"`
}

func CreateSupplier(ctx context.Context, input NewSupplier) (*Supplier, error) {

	db := config.GetDB()

	if input.PhoneNumber != "" {
		if err := utils.ValidatePhoneNumber(input.PhoneNumber, utils.CountryCode); err != nil {
			return nil, errors.New("invalid phone number")
		}
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}

	supplier := Supplier{
		Name:          input.Name,
		ContactPerson: input.ContactPerson,
		PhoneNumber:   input.PhoneNumber,
		Address:       input.Address,
		IsActive:      isActive,
	}
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return utils.FetchModel[Supplier](ctx, id)
}

func GetSuppliers(ctx context.Context) ([]*Supplier, error) {
	return utils.FetchAllModels[Supplier](ctx)
}

// rollSupplierPrice closes the open price-history row when the cost changed
// and opens a new one. Called inside the ReceiveStock transaction.
func rollSupplierPrice(tx *gorm.DB, supplierId int, productId int, pricePerUnit decimal.Decimal, at time.Time) error {

	var current SupplierPriceHistory
	err := tx.Where("supplier_id = ? AND product_id = ? AND valid_to IS NULL", supplierId, productId).
		First(&current).Error
	if err == nil {
		if current.PricePerUnit.Equal(pricePerUnit) {
			return nil
		}
		if err := tx.Model(&SupplierPriceHistory{}).Where("id = ?", current.ID).
			Update("valid_to", at).Error; err != nil {
			return err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	entry := SupplierPriceHistory{
		SupplierId:   supplierId,
		ProductId:    productId,
		PricePerUnit: pricePerUnit,
		ValidFrom:    at,
	}
	return tx.Create(&entry).Error
}

func GetSupplierPriceHistory(ctx context.Context, supplierId int, productId int) ([]*SupplierPriceHistory, error) {

	db := config.GetDB()

	var history []*SupplierPriceHistory
	dbCtx := db.WithContext(ctx).Where("supplier_id = ?", supplierId)
	if productId > 0 {
		dbCtx = dbCtx.Where("product_id = ?", productId)
	}
	if err := dbCtx.Order("valid_from DESC").Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}
