package models

import (
	"testing"

	"github.com/lanzy-lanzy/lumberv2/utils"
)

func TestIsCollectable(t *testing.T) {
	ready := OrderConfirmation{Status: ConfirmationStatusReadyForPickup, IsPaymentComplete: utils.NewFalse()}
	readyPaid := OrderConfirmation{Status: ConfirmationStatusReadyForPickup, IsPaymentComplete: utils.NewTrue()}
	created := OrderConfirmation{Status: ConfirmationStatusCreated, IsPaymentComplete: utils.NewTrue()}

	if ready.IsCollectable(PaymentTypeCash) {
		t.Error("unpaid cash order should not be collectable")
	}
	if !readyPaid.IsCollectable(PaymentTypeCash) {
		t.Error("paid cash order at ReadyForPickup should be collectable")
	}
	if !ready.IsCollectable(PaymentTypeCredit) {
		t.Error("credit order at ReadyForPickup should be collectable with open balance")
	}
	if ready.IsCollectable(PaymentTypePartial) {
		t.Error("partial order with incomplete payment should not be collectable")
	}
	if created.IsCollectable(PaymentTypeCash) {
		t.Error("order not yet ready should never be collectable")
	}
}
