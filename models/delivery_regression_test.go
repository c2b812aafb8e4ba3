package models_test

import (
	"strings"
	"testing"

	"github.com/lanzy-lanzy/lumberv2/models"
	"github.com/lanzy-lanzy/lumberv2/utils"
)

func TestDeliveryLifecycle(t *testing.T) {
	ctx := setupTestBackend(t)

	product := seedTwoByFour(t, ctx, 20)
	customer, err := models.CreateCustomer(ctx, models.NewCustomer{Name: "Build Right Construction"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	order, err := models.CreateSalesOrder(ctx, models.NewSalesOrder{
		CustomerId:  customer.ID,
		PaymentType: models.PaymentTypeCredit,
		Items:       []models.NewSalesOrderItem{{ProductId: product.ID, QuantityPieces: 4}},
	})
	if err != nil {
		t.Fatalf("CreateSalesOrder: %v", err)
	}

	delivery, err := models.CreateDeliveryFromOrder(ctx, models.NewDelivery{
		SalesOrderId: order.ID,
		Priority:     2,
	})
	if err != nil {
		t.Fatalf("CreateDeliveryFromOrder: %v", err)
	}
	if !strings.HasPrefix(delivery.DeliveryNumber, "DLV-") {
		t.Fatalf("expected DLV- document number; got %q", delivery.DeliveryNumber)
	}
	if delivery.Status != models.DeliveryStatusPending {
		t.Fatalf("expected Pending; got %s", delivery.Status)
	}

	// One delivery per order.
	if _, err := models.CreateDeliveryFromOrder(ctx, models.NewDelivery{
		SalesOrderId: order.ID,
	}); err != utils.ErrorDeliveryExists {
		t.Fatalf("expected ErrorDeliveryExists; got %v", err)
	}

	// Skipping straight to Delivered is refused and changes nothing.
	if _, err := models.UpdateDeliveryStatus(ctx, models.DeliveryStatusUpdate{
		DeliveryId: delivery.ID,
		Status:     models.DeliveryStatusDelivered,
	}); err != utils.ErrorInvalidTransition {
		t.Fatalf("expected ErrorInvalidTransition; got %v", err)
	}
	delivery, err = models.GetDelivery(ctx, delivery.ID)
	if err != nil {
		t.Fatalf("GetDelivery: %v", err)
	}
	if delivery.Status != models.DeliveryStatusPending {
		t.Fatalf("rejected transition must not move status; got %s", delivery.Status)
	}

	queue, err := models.GetPickingQueue(ctx)
	if err != nil {
		t.Fatalf("GetPickingQueue: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != delivery.ID {
		t.Fatalf("expected the delivery on the picking queue; got %d entries", len(queue))
	}

	// Walk the full lane.
	for _, step := range []models.DeliveryStatusUpdate{
		{DeliveryId: delivery.ID, Status: models.DeliveryStatusOnPicking},
		{DeliveryId: delivery.ID, Status: models.DeliveryStatusLoaded},
		{DeliveryId: delivery.ID, Status: models.DeliveryStatusOutForDelivery, DriverName: "R. Santos", PlateNumber: "ABC-1234"},
		{DeliveryId: delivery.ID, Status: models.DeliveryStatusDelivered, Signature: "received by foreman"},
	} {
		delivery, err = models.UpdateDeliveryStatus(ctx, step)
		if err != nil {
			t.Fatalf("UpdateDeliveryStatus(%s): %v", step.Status, err)
		}
	}
	if delivery.DriverName != "R. Santos" || delivery.PlateNumber != "ABC-1234" {
		t.Fatalf("driver/plate should stick from OutForDelivery; got %q %q", delivery.DriverName, delivery.PlateNumber)
	}
	if delivery.DeliveredAt == nil || delivery.Signature != "received by foreman" {
		t.Fatalf("expected delivered stamp and signature; got %+v", delivery)
	}

	// Created + four transitions.
	logs, err := models.GetDeliveryLogs(ctx, delivery.ID)
	if err != nil {
		t.Fatalf("GetDeliveryLogs: %v", err)
	}
	if len(logs) != 5 {
		t.Fatalf("expected 5 log entries; got %d", len(logs))
	}
	if logs[len(logs)-1].ToStatus != models.DeliveryStatusDelivered {
		t.Fatalf("last log should be the Delivered transition; got %s", logs[len(logs)-1].ToStatus)
	}

	// Terminal state stays terminal, also through the bulk path.
	bulk := models.BulkUpdateDeliveryStatus(ctx, []int{delivery.ID, 9999}, models.DeliveryStatusPending, "")
	if bulk.Updated != 0 || bulk.Failed != 2 {
		t.Fatalf("expected 0 updated / 2 failed; got %d / %d", bulk.Updated, bulk.Failed)
	}

	metrics, err := models.GetDeliveryMetrics(ctx)
	if err != nil {
		t.Fatalf("GetDeliveryMetrics: %v", err)
	}
	if metrics.StatusCounts[models.DeliveryStatusDelivered] != 1 {
		t.Fatalf("expected 1 delivered in metrics; got %+v", metrics.StatusCounts)
	}
	if metrics.CompletionRate != 1.0 {
		t.Fatalf("expected completion rate 1.0; got %f", metrics.CompletionRate)
	}
}
