package models

import (
	"context"
	"errors"
	"time"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/utils"
	"github.com/shopspring/decimal"
)

type SalesOrder struct {
	ID              int              `gorm:"primary_key" json:"id"`
	SoNumber        string           `gorm:"size:50;not null;unique" json:"so_number"`
	CustomerId      int              `gorm:"index;not null" json:"customer_id" binding:"required"`
	Source          OrderSource      `gorm:"type:enum('PointOfSale','CustomerPlaced');not null" json:"source"`
	TotalAmount     decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	DiscountPercent decimal.Decimal  `gorm:"type:decimal(6,2);default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	AmountPaid      decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"amount_paid"`
	Balance         decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"balance"`
	PaymentType     PaymentType      `gorm:"type:enum('Cash','Partial','Credit');not null" json:"payment_type" binding:"required"`
	Notes           string           `gorm:"type:text" json:"notes"`
	IsConfirmed     *bool            `gorm:"not null;default:false" json:"is_confirmed"`
	ConfirmedAt     *time.Time       `json:"confirmed_at"`
	ConfirmedBy     int              `json:"confirmed_by"`
	CreatedBy       int              `json:"created_by"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	Items           []SalesOrderItem `gorm:"foreignKey:SalesOrderId" json:"items"`
	Customer        Customer         `gorm:"foreignKey:CustomerId" json:"customer"`
}

// SalesOrderItem lines are immutable after creation; pre-confirmation edits
// go through ReplaceSalesOrderLines, which swaps the whole set.
type SalesOrderItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	SalesOrderId   int             `gorm:"index;not null" json:"sales_order_id"`
	ProductId      int             `gorm:"not null" json:"product_id"`
	QuantityPieces int             `gorm:"not null" json:"quantity_pieces"`
	BoardFeet      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"board_feet"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewSalesOrder struct {
	CustomerId  int                 `json:"customer_id" binding:"required"`
	PaymentType PaymentType         `json:"payment_type" binding:"required"`
	Source      OrderSource         `json:"source"`
	Notes       string              `json:"notes"`
	Items       []NewSalesOrderItem `json:"items" binding:"required"`
}

type NewSalesOrderItem struct {
	ProductId      int `json:"product_id" binding:"required"`
	QuantityPieces int `json:"quantity_pieces" binding:"required,gt=0"`
}

var oneHundred = decimal.NewFromInt(100)

// applyDiscountAndBalance re-derives discount amount and balance from the
// current totals. Balance floors at zero; the overpayment guard in
// ApplyPayment only ever lets a rounding-tolerance residue through.
func (so *SalesOrder) applyDiscountAndBalance() {
	so.DiscountAmount = so.TotalAmount.Mul(so.DiscountPercent).DivRound(oneHundred, 2)
	so.Balance = so.TotalAmount.Sub(so.DiscountAmount).Sub(so.AmountPaid)
	if so.Balance.IsNegative() {
		so.Balance = decimal.Zero
	}
}

// AmountOwed is the discounted total the customer has to cover.
func (so SalesOrder) AmountOwed() decimal.Decimal {
	return so.TotalAmount.Sub(so.DiscountAmount)
}

// CreateSalesOrder creates the order, its lines, the per-line stock issues
// and the initial confirmation in one transaction. An insufficient-stock
// failure on any line aborts the whole order.
func CreateSalesOrder(ctx context.Context, input NewSalesOrder) (*SalesOrder, error) {

	db := config.GetDB()

	if len(input.Items) == 0 {
		return nil, utils.ErrorEmptyOrder
	}
	if !input.PaymentType.Valid() {
		return nil, errors.New("invalid payment type")
	}
	source := input.Source
	if source == "" {
		source = OrderSourceCustomerPlaced
	}
	if !source.Valid() {
		return nil, errors.New("invalid order source")
	}

	customer, err := utils.FetchModel[Customer](ctx, input.CustomerId)
	if err != nil {
		return nil, errors.New("customer not found")
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	now := time.Now()

	tx := db.WithContext(ctx).Begin()

	soNumber, err := nextDocumentNumber(tx, SequencePrefixSalesOrder, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	items := make([]SalesOrderItem, 0, len(input.Items))
	totalAmount := decimal.Zero
	for _, line := range input.Items {
		product, err := utils.FetchModel[LumberProduct](ctx, line.ProductId)
		if err != nil {
			tx.Rollback()
			return nil, errors.New("product not found")
		}
		if _, err := issueStockTx(tx, ctx, product, line.QuantityPieces, "sales order", soNumber); err != nil {
			tx.Rollback()
			return nil, err
		}
		boardFeet, unitPrice, subtotal := product.LineSubtotal(line.QuantityPieces)
		items = append(items, SalesOrderItem{
			ProductId:      product.ID,
			QuantityPieces: line.QuantityPieces,
			BoardFeet:      boardFeet,
			UnitPrice:      unitPrice,
			Subtotal:       subtotal,
		})
		totalAmount = totalAmount.Add(subtotal)
	}

	order := SalesOrder{
		SoNumber:        soNumber,
		CustomerId:      customer.ID,
		Source:          source,
		TotalAmount:     totalAmount,
		DiscountPercent: customer.DiscountPercent,
		PaymentType:     input.PaymentType,
		Notes:           input.Notes,
		IsConfirmed:     utils.NewFalse(),
		CreatedBy:       userId,
		Items:           items,
	}
	order.applyDiscountAndBalance()

	// walk-in sales skip the review step
	if source == OrderSourcePointOfSale {
		order.IsConfirmed = utils.NewTrue()
		order.ConfirmedAt = &now
		order.ConfirmedBy = userId
	}

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createOrderConfirmationTx(tx, ctx, &order); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &order, tx.Commit().Error
}

// ConfirmSalesOrder flips the one-shot confirmation flag and advances the
// customer-facing confirmation record out of Created.
func ConfirmSalesOrder(ctx context.Context, orderId int) (*SalesOrder, error) {

	db := config.GetDB()

	order, err := utils.FetchModel[SalesOrder](ctx, orderId, "Items")
	if err != nil {
		return nil, err
	}
	if utils.DereferencePtr(order.IsConfirmed) {
		return nil, utils.ErrorOrderConfirmed
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	now := time.Now()

	tx := db.WithContext(ctx).Begin()
	if err := tx.Model(&SalesOrder{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"is_confirmed": true,
			"confirmed_at": now,
			"confirmed_by": userId,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := confirmOrderConfirmationTx(tx, ctx, order); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	order.IsConfirmed = utils.NewTrue()
	order.ConfirmedAt = &now
	order.ConfirmedBy = userId
	return order, nil
}

// ReplaceSalesOrderLines swaps the full line set of an unconfirmed order.
// All prior lines' stock is received back before the new lines issue, inside
// one transaction, so an edit never leaks inventory.
func ReplaceSalesOrderLines(ctx context.Context, orderId int, newItems []NewSalesOrderItem) (*SalesOrder, error) {

	db := config.GetDB()

	if len(newItems) == 0 {
		return nil, utils.ErrorEmptyOrder
	}

	order, err := utils.FetchModel[SalesOrder](ctx, orderId, "Items")
	if err != nil {
		return nil, err
	}
	if utils.DereferencePtr(order.IsConfirmed) {
		return nil, utils.ErrorOrderConfirmed
	}

	tx := db.WithContext(ctx).Begin()

	for _, item := range order.Items {
		product, err := utils.FetchModel[LumberProduct](ctx, item.ProductId)
		if err != nil {
			tx.Rollback()
			return nil, errors.New("product not found")
		}
		if _, err := receiveStockTx(tx, ctx, product, item.QuantityPieces, "order line replacement", order.SoNumber); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Where("sales_order_id = ?", order.ID).Delete(&SalesOrderItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	items := make([]SalesOrderItem, 0, len(newItems))
	totalAmount := decimal.Zero
	for _, line := range newItems {
		product, err := utils.FetchModel[LumberProduct](ctx, line.ProductId)
		if err != nil {
			tx.Rollback()
			return nil, errors.New("product not found")
		}
		if _, err := issueStockTx(tx, ctx, product, line.QuantityPieces, "sales order", order.SoNumber); err != nil {
			tx.Rollback()
			return nil, err
		}
		boardFeet, unitPrice, subtotal := product.LineSubtotal(line.QuantityPieces)
		items = append(items, SalesOrderItem{
			SalesOrderId:   order.ID,
			ProductId:      product.ID,
			QuantityPieces: line.QuantityPieces,
			BoardFeet:      boardFeet,
			UnitPrice:      unitPrice,
			Subtotal:       subtotal,
		})
		totalAmount = totalAmount.Add(subtotal)
	}
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	order.TotalAmount = totalAmount
	order.applyDiscountAndBalance()
	if err := tx.Model(&SalesOrder{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"total_amount":    order.TotalAmount,
			"discount_amount": order.DiscountAmount,
			"balance":         order.Balance,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	order.Items = items
	return order, nil
}

// RecalculateDiscount re-derives the discount from the customer's current
// percentage. Idempotent.
func RecalculateDiscount(ctx context.Context, orderId int) (*SalesOrder, error) {

	db := config.GetDB()

	order, err := utils.FetchModel[SalesOrder](ctx, orderId)
	if err != nil {
		return nil, err
	}
	customer, err := utils.FetchModel[Customer](ctx, order.CustomerId)
	if err != nil {
		return nil, errors.New("customer not found")
	}

	order.DiscountPercent = customer.DiscountPercent
	order.applyDiscountAndBalance()

	if err := db.WithContext(ctx).Model(&SalesOrder{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"discount_percent": order.DiscountPercent,
			"discount_amount":  order.DiscountAmount,
			"balance":          order.Balance,
		}).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func GetSalesOrder(ctx context.Context, id int) (*SalesOrder, error) {
	return utils.FetchModel[SalesOrder](ctx, id, "Items", "Customer")
}

func GetSalesOrders(ctx context.Context, customerId int) ([]*SalesOrder, error) {

	db := config.GetDB()

	var orders []*SalesOrder
	dbCtx := db.WithContext(ctx).Preload("Items")
	if customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", customerId)
	}
	if err := dbCtx.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
