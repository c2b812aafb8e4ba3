package models

import (
	"context"
	"errors"
	"time"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// Receipt records one payment event. Partial payments produce one receipt
// each against the same order.
type Receipt struct {
	ID             int             `gorm:"primary_key" json:"id"`
	ReceiptNumber  string          `gorm:"size:50;not null;unique" json:"receipt_number"`
	SalesOrderId   int             `gorm:"index;not null" json:"sales_order_id"`
	AmountTendered decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_tendered"`
	Change         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"change"`
	CreatedBy      int             `json:"created_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPayment struct {
	SalesOrderId   int             `json:"sales_order_id"`
	AmountTendered decimal.Decimal `json:"amount_tendered" binding:"required"`
}

// overpaymentTolerance is one cent at 2-dp money.
var overpaymentTolerance = decimal.NewFromFloat(0.01)

// ApplyPayment adds a tendered amount to the order's cumulative amount paid
// under the order's row lock. Over-tender is rejected beyond the rounding
// tolerance, except for walk-in cash sales, where the excess comes back as
// change. When the balance reaches zero, the confirmation's payment flag is
// set best-effort: a missing confirmation is logged and swallowed.
func ApplyPayment(ctx context.Context, input NewPayment) (*SalesOrder, *Receipt, error) {

	db := config.GetDB()
	logger := config.GetLogger()

	if !input.AmountTendered.IsPositive() {
		return nil, nil, errors.New("amount tendered must be positive")
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	now := time.Now()

	tx := db.WithContext(ctx).Begin()

	var order SalesOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, input.SalesOrderId).Error; err != nil {
		tx.Rollback()
		return nil, nil, utils.ErrorRecordNotFound
	}

	remaining := order.AmountOwed().Sub(order.AmountPaid)
	applied := input.AmountTendered
	change := decimal.Zero

	if excess := input.AmountTendered.Sub(remaining); excess.GreaterThan(overpaymentTolerance) {
		// walk-in cash: keep the owed amount, hand back change
		if order.Source == OrderSourcePointOfSale && order.PaymentType == PaymentTypeCash {
			applied = remaining
			change = excess
		} else {
			tx.Rollback()
			return nil, nil, utils.ErrorOverpaymentRejected
		}
	}

	order.AmountPaid = order.AmountPaid.Add(applied)
	order.applyDiscountAndBalance()

	if err := tx.Model(&SalesOrder{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"amount_paid": order.AmountPaid,
			"balance":     order.Balance,
		}).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	receiptNumber, err := nextDocumentNumber(tx, SequencePrefixReceipt, now)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	receipt := Receipt{
		ReceiptNumber:  receiptNumber,
		SalesOrderId:   order.ID,
		AmountTendered: input.AmountTendered,
		Change:         change,
		CreatedBy:      userId,
	}
	if err := tx.Create(&receipt).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if order.Balance.IsZero() {
		marked, err := markPaymentCompleteIfAny(tx, ctx, order.ID)
		if err != nil {
			tx.Rollback()
			return nil, nil, err
		}
		if !marked {
			config.LogError(logger, "receipt", "ApplyPayment",
				"Order paid in full but no confirmation to flag", order.ID,
				errors.New("confirmation not found"))
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	return &order, &receipt, nil
}

func GetReceipt(ctx context.Context, id int) (*Receipt, error) {
	return utils.FetchModel[Receipt](ctx, id)
}

func GetReceiptsForOrder(ctx context.Context, orderId int) ([]*Receipt, error) {

	db := config.GetDB()

	var receipts []*Receipt
	if err := db.WithContext(ctx).Where("sales_order_id = ?", orderId).
		Order("created_at ASC").Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}
