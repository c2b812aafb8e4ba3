package models

import (
	"context"
	"errors"
	"time"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/utils"
	"github.com/shopspring/decimal"
)

type LumberCategory struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewLumberCategory struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// LumberProduct carries the physical dimensions (inches for thickness/width,
// feet for length) and the two admissible pricing modes. PricePerPiece, when
// set, wins over board-foot pricing.
type LumberProduct struct {
	ID                int              `gorm:"primary_key" json:"id"`
	CategoryId        int              `gorm:"index;not null" json:"category_id" binding:"required"`
	Name              string           `gorm:"size:200;not null" json:"name" binding:"required"`
	Sku               string           `gorm:"size:50;not null;unique" json:"sku" binding:"required"`
	Thickness         decimal.Decimal  `gorm:"type:decimal(8,2);not null" json:"thickness" binding:"required"`
	Width             decimal.Decimal  `gorm:"type:decimal(8,2);not null" json:"width" binding:"required"`
	Length            decimal.Decimal  `gorm:"type:decimal(8,2);not null" json:"length" binding:"required"`
	PricePerBoardFoot decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"price_per_board_foot"`
	PricePerPiece     *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"price_per_piece"`
	IsActive          *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	Category          LumberCategory   `gorm:"foreignKey:CategoryId" json:"category"`
}

type NewLumberProduct struct {
	CategoryId        int              `json:"category_id" binding:"required"`
	Name              string           `json:"name" binding:"required"`
	Sku               string           `json:"sku" binding:"required"`
	Thickness         decimal.Decimal  `json:"thickness" binding:"required"`
	Width             decimal.Decimal  `json:"width" binding:"required"`
	Length            decimal.Decimal  `json:"length" binding:"required"`
	PricePerBoardFoot decimal.Decimal  `json:"price_per_board_foot"`
	PricePerPiece     *decimal.Decimal `json:"price_per_piece"`
	IsActive          *bool            `json:"is_active"`
}

var twelve = decimal.NewFromInt(12)

// BoardFeetPerPiece computes thickness x width x length / 12, quantized to
// 3 decimal places. The quantized per-piece value is the one multiplied out
// for lines and ledger entries, so totals match what is printed on tickets.
func (p LumberProduct) BoardFeetPerPiece() decimal.Decimal {
	return p.Thickness.Mul(p.Width).Mul(p.Length).DivRound(twelve, 3)
}

func (p LumberProduct) BoardFeet(pieces int) decimal.Decimal {
	return p.BoardFeetPerPiece().Mul(decimal.NewFromInt(int64(pieces)))
}

// UnitPriceApplied resolves the pricing mode: per-piece price wins when set.
// The second return reports whether per-piece pricing was used.
func (p LumberProduct) UnitPriceApplied() (decimal.Decimal, bool) {
	if p.PricePerPiece != nil && p.PricePerPiece.IsPositive() {
		return *p.PricePerPiece, true
	}
	return p.PricePerBoardFoot, false
}

// LineSubtotal prices one order line: returns the line's board feet, the unit
// price actually applied and the subtotal rounded to 2 decimal places.
func (p LumberProduct) LineSubtotal(pieces int) (boardFeet decimal.Decimal, unitPrice decimal.Decimal, subtotal decimal.Decimal) {
	boardFeet = p.BoardFeet(pieces)
	unitPrice, perPiece := p.UnitPriceApplied()
	if perPiece {
		subtotal = unitPrice.Mul(decimal.NewFromInt(int64(pieces))).Round(2)
	} else {
		subtotal = unitPrice.Mul(boardFeet).Round(2)
	}
	return
}

func (input NewLumberProduct) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[LumberCategory](ctx, input.CategoryId); err != nil {
		return errors.New("category not found")
	}
	if err := utils.ValidateUnique[LumberProduct](ctx, "sku", input.Sku, 0); err != nil {
		return err
	}
	if !input.Thickness.IsPositive() || !input.Width.IsPositive() || !input.Length.IsPositive() {
		return errors.New("dimensions must be positive")
	}
	if input.PricePerBoardFoot.IsNegative() {
		return errors.New("price per board foot must not be negative")
	}
	if input.PricePerPiece != nil && input.PricePerPiece.IsNegative() {
		return errors.New("price per piece must not be negative")
	}
	return nil
}

func CreateLumberCategory(ctx context.Context, input NewLumberCategory) (*LumberCategory, error) {

	db := config.GetDB()

	if err := utils.ValidateUnique[LumberCategory](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	category := LumberCategory{
		Name:        input.Name,
		Description: input.Description,
	}
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func GetLumberCategories(ctx context.Context) ([]*LumberCategory, error) {
	return utils.FetchAllModels[LumberCategory](ctx)
}

// CreateLumberProduct creates the catalog entry together with its empty
// inventory record, so ledger operations never have to special-case a
// missing row outside a locked transaction.
func CreateLumberProduct(ctx context.Context, input NewLumberProduct) (*LumberProduct, error) {

	db := config.GetDB()

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}

	product := LumberProduct{
		CategoryId:        input.CategoryId,
		Name:              input.Name,
		Sku:               input.Sku,
		Thickness:         input.Thickness,
		Width:             input.Width,
		Length:            input.Length,
		PricePerBoardFoot: input.PricePerBoardFoot,
		PricePerPiece:     input.PricePerPiece,
		IsActive:          isActive,
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&product).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	inventory := Inventory{ProductId: product.ID}
	if err := tx.Create(&inventory).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	return &product, tx.Commit().Error
}

func UpdateLumberProduct(ctx context.Context, id int, input NewLumberProduct) (*LumberProduct, error) {

	db := config.GetDB()

	product, err := utils.FetchModel[LumberProduct](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[LumberCategory](ctx, input.CategoryId); err != nil {
		return nil, errors.New("category not found")
	}
	if err := utils.ValidateUnique[LumberProduct](ctx, "sku", input.Sku, id); err != nil {
		return nil, err
	}

	product.CategoryId = input.CategoryId
	product.Name = input.Name
	product.Sku = input.Sku
	product.Thickness = input.Thickness
	product.Width = input.Width
	product.Length = input.Length
	product.PricePerBoardFoot = input.PricePerBoardFoot
	product.PricePerPiece = input.PricePerPiece
	if input.IsActive != nil {
		product.IsActive = input.IsActive
	}

	if err := db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func GetLumberProduct(ctx context.Context, id int) (*LumberProduct, error) {
	return utils.FetchModel[LumberProduct](ctx, id, "Category")
}

func GetLumberProducts(ctx context.Context) ([]*LumberProduct, error) {
	return utils.FetchAllModels[LumberProduct](ctx, "Category")
}
