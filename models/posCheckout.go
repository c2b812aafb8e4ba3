package models

import (
	"context"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type PosCheckoutInput struct {
	CustomerId     int                 `json:"customer_id" binding:"required"`
	Items          []NewSalesOrderItem `json:"items" binding:"required"`
	AmountTendered decimal.Decimal     `json:"amount_tendered" binding:"required"`
	Notes          string              `json:"notes"`
}

type PosCheckoutResult struct {
	Order   *SalesOrder     `json:"order"`
	Receipt *Receipt        `json:"receipt"`
	Change  decimal.Decimal `json:"change"`
}

// PosCheckout is the composite walk-in flow: an auto-confirmed cash order,
// immediate payment with change, then a best-effort march of the
// confirmation to picked-up. The sale is committed once the payment lands;
// a confirmation hiccup afterwards is logged, never surfaced to the till.
func PosCheckout(ctx context.Context, input PosCheckoutInput) (*PosCheckoutResult, error) {

	logger := config.GetLogger()

	order, err := CreateSalesOrder(ctx, NewSalesOrder{
		CustomerId:  input.CustomerId,
		PaymentType: PaymentTypeCash,
		Source:      OrderSourcePointOfSale,
		Notes:       input.Notes,
		Items:       input.Items,
	})
	if err != nil {
		return nil, err
	}

	order, receipt, err := ApplyPayment(ctx, NewPayment{
		SalesOrderId:   order.ID,
		AmountTendered: input.AmountTendered,
	})
	if err != nil {
		return nil, err
	}

	// goods leave over the counter; advance the confirmation to match
	if _, err := MarkReady(ctx, order.ID, nil); err != nil {
		logger.WithFields(logrus.Fields{
			"module": "posCheckout", "order_id": order.ID,
		}).Warn("checkout done but confirmation not marked ready: " + err.Error())
	} else if _, err := MarkPickedUp(ctx, order.ID); err != nil {
		logger.WithFields(logrus.Fields{
			"module": "posCheckout", "order_id": order.ID,
		}).Warn("checkout done but confirmation not marked picked up: " + err.Error())
	}

	return &PosCheckoutResult{
		Order:   order,
		Receipt: receipt,
		Change:  receipt.Change,
	}, nil
}
