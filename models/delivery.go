package models

import (
	"context"
	"fmt"
	"time"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/utils"
)

// Delivery is the physical handling lifecycle of one order's goods, 1:1
// with the sales order and independent of the customer-facing confirmation.
type Delivery struct {
	ID             int            `gorm:"primary_key" json:"id"`
	DeliveryNumber string         `gorm:"size:50;not null;unique" json:"delivery_number"`
	SalesOrderId   int            `gorm:"uniqueIndex;not null" json:"sales_order_id"`
	Status         DeliveryStatus `gorm:"type:enum('Pending','OnPicking','Loaded','OutForDelivery','Delivered','Cancelled');default:Pending" json:"status"`
	Priority       int            `gorm:"default:0" json:"priority"`
	DriverName     string         `gorm:"size:100" json:"driver_name"`
	PlateNumber    string         `gorm:"size:20" json:"plate_number"`
	Signature      string         `gorm:"type:text" json:"signature"`
	Notes          string         `gorm:"type:text" json:"notes"`
	DeliveredAt    *time.Time     `json:"delivered_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	SalesOrder     SalesOrder     `gorm:"foreignKey:SalesOrderId" json:"sales_order"`
}

// DeliveryLog entries are append-only, one per successful transition.
type DeliveryLog struct {
	ID         int            `gorm:"primary_key" json:"id"`
	DeliveryId int            `gorm:"index:idx_delivery_log_time;not null" json:"delivery_id"`
	FromStatus DeliveryStatus `gorm:"size:20" json:"from_status"`
	ToStatus   DeliveryStatus `gorm:"size:20;not null" json:"to_status"`
	Notes      string         `gorm:"size:255" json:"notes"`
	CreatedBy  int            `json:"created_by"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index:idx_delivery_log_time" json:"created_at"`
}

// deliveryTransitions is the allowed-next-states table. Delivered and
// Cancelled are terminal; Cancelled is reachable from Pending only.
var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusPending:        {DeliveryStatusOnPicking, DeliveryStatusCancelled},
	DeliveryStatusOnPicking:      {DeliveryStatusLoaded, DeliveryStatusPending},
	DeliveryStatusLoaded:         {DeliveryStatusOutForDelivery, DeliveryStatusPending},
	DeliveryStatusOutForDelivery: {DeliveryStatusDelivered, DeliveryStatusPending},
	DeliveryStatusDelivered:      {},
	DeliveryStatusCancelled:      {},
}

func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type NewDelivery struct {
	SalesOrderId int    `json:"sales_order_id" binding:"required"`
	Priority     int    `json:"priority"`
	Notes        string `json:"notes"`
}

type DeliveryStatusUpdate struct {
	DeliveryId  int            `json:"delivery_id"`
	Status      DeliveryStatus `json:"status" binding:"required"`
	Notes       string         `json:"notes"`
	DriverName  string         `json:"driver_name"`
	PlateNumber string         `json:"plate_number"`
	Signature   string         `json:"signature"`
}

// CreateDeliveryFromOrder opens the delivery lifecycle for an order. One
// delivery per order.
func CreateDeliveryFromOrder(ctx context.Context, input NewDelivery) (*Delivery, error) {

	db := config.GetDB()

	order, err := utils.FetchModel[SalesOrder](ctx, input.SalesOrderId)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Delivery](ctx, "sales_order_id = ?", order.ID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ErrorDeliveryExists
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	now := time.Now()

	tx := db.WithContext(ctx).Begin()

	deliveryNumber, err := nextDocumentNumber(tx, SequencePrefixDelivery, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	delivery := Delivery{
		DeliveryNumber: deliveryNumber,
		SalesOrderId:   order.ID,
		Status:         DeliveryStatusPending,
		Priority:       input.Priority,
		Notes:          input.Notes,
	}
	if err := tx.Create(&delivery).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	log := DeliveryLog{
		DeliveryId: delivery.ID,
		ToStatus:   DeliveryStatusPending,
		Notes:      fmt.Sprintf("Delivery created from %s", order.SoNumber),
		CreatedBy:  userId,
	}
	if err := tx.Create(&log).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	return &delivery, tx.Commit().Error
}

// UpdateDeliveryStatus applies one transition from the allowed table and
// appends the log entry. Driver/plate stick only when entering
// OutForDelivery; signature and the completion stamp only when entering
// Delivered. A rejected transition touches nothing.
func UpdateDeliveryStatus(ctx context.Context, input DeliveryStatusUpdate) (*Delivery, error) {

	db := config.GetDB()

	if !input.Status.Valid() {
		return nil, utils.ErrorInvalidTransition
	}

	delivery, err := utils.FetchModel[Delivery](ctx, input.DeliveryId)
	if err != nil {
		return nil, err
	}
	if !delivery.Status.CanTransitionTo(input.Status) {
		return nil, utils.ErrorInvalidTransition
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	now := time.Now()

	updates := map[string]interface{}{"status": input.Status}
	if input.Status == DeliveryStatusOutForDelivery {
		if input.DriverName != "" {
			updates["driver_name"] = input.DriverName
		}
		if input.PlateNumber != "" {
			updates["plate_number"] = input.PlateNumber
		}
	}
	if input.Status == DeliveryStatusDelivered {
		updates["delivered_at"] = now
		if input.Signature != "" {
			updates["signature"] = input.Signature
		}
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Model(&Delivery{}).Where("id = ?", delivery.ID).
		Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	log := DeliveryLog{
		DeliveryId: delivery.ID,
		FromStatus: delivery.Status,
		ToStatus:   input.Status,
		Notes:      input.Notes,
		CreatedBy:  userId,
	}
	if err := tx.Create(&log).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	delivery.Status = input.Status
	if input.Status == DeliveryStatusDelivered {
		delivery.DeliveredAt = &now
		if input.Signature != "" {
			delivery.Signature = input.Signature
		}
	}
	if input.Status == DeliveryStatusOutForDelivery {
		if input.DriverName != "" {
			delivery.DriverName = input.DriverName
		}
		if input.PlateNumber != "" {
			delivery.PlateNumber = input.PlateNumber
		}
	}
	return delivery, nil
}

type BulkDeliveryError struct {
	DeliveryId int    `json:"delivery_id"`
	Error      string `json:"error"`
}

type BulkDeliveryResult struct {
	Updated int                 `json:"updated"`
	Failed  int                 `json:"failed"`
	Errors  []BulkDeliveryError `json:"errors"`
}

// BulkUpdateDeliveryStatus applies the same transition per id with per-item
// isolation: one failure is a reportable result entry, not a rollback.
func BulkUpdateDeliveryStatus(ctx context.Context, ids []int, status DeliveryStatus, notes string) *BulkDeliveryResult {

	result := BulkDeliveryResult{Errors: []BulkDeliveryError{}}
	for _, id := range ids {
		_, err := UpdateDeliveryStatus(ctx, DeliveryStatusUpdate{
			DeliveryId: id,
			Status:     status,
			Notes:      notes,
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkDeliveryError{DeliveryId: id, Error: err.Error()})
			continue
		}
		result.Updated++
	}
	return &result
}

func GetDelivery(ctx context.Context, id int) (*Delivery, error) {
	return utils.FetchModel[Delivery](ctx, id, "SalesOrder", "SalesOrder.Items")
}

func GetDeliveryForOrder(ctx context.Context, orderId int) (*Delivery, error) {

	db := config.GetDB()
	var delivery Delivery
	if err := db.WithContext(ctx).Where("sales_order_id = ?", orderId).
		First(&delivery).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &delivery, nil
}

func GetDeliveryLogs(ctx context.Context, deliveryId int) ([]*DeliveryLog, error) {

	db := config.GetDB()
	var logs []*DeliveryLog
	if err := db.WithContext(ctx).Where("delivery_id = ?", deliveryId).
		Order("created_at ASC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// GetPickingQueue lists deliveries waiting on the warehouse floor, highest
// priority first.
func GetPickingQueue(ctx context.Context) ([]*Delivery, error) {
	return deliveriesByStatus(ctx, DeliveryStatusPending, DeliveryStatusOnPicking)
}

// GetDispatchQueue lists deliveries staged for or on the road.
func GetDispatchQueue(ctx context.Context) ([]*Delivery, error) {
	return deliveriesByStatus(ctx, DeliveryStatusLoaded, DeliveryStatusOutForDelivery)
}

func deliveriesByStatus(ctx context.Context, statuses ...DeliveryStatus) ([]*Delivery, error) {

	db := config.GetDB()
	var deliveries []*Delivery
	if err := db.WithContext(ctx).
		Preload("SalesOrder").Preload("SalesOrder.Items").
		Where("status IN ?", statuses).
		Order("priority DESC, created_at ASC").
		Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

type DeliveryMetrics struct {
	StatusCounts       map[DeliveryStatus]int64 `json:"status_counts"`
	AvgCompletionHours float64                  `json:"avg_completion_hours"`
	CompletionRate     float64                  `json:"completion_rate"`
}

// GetDeliveryMetrics aggregates status counts, the 7-day average hours from
// creation to delivery, and the overall completion rate.
func GetDeliveryMetrics(ctx context.Context) (*DeliveryMetrics, error) {

	db := config.GetDB()

	metrics := DeliveryMetrics{StatusCounts: map[DeliveryStatus]int64{}}

	var rows []struct {
		Status DeliveryStatus
		Count  int64
	}
	if err := db.WithContext(ctx).Model(&Delivery{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	var total, delivered int64
	for _, row := range rows {
		metrics.StatusCounts[row.Status] = row.Count
		total += row.Count
		if row.Status == DeliveryStatusDelivered {
			delivered = row.Count
		}
	}
	if total > 0 {
		metrics.CompletionRate = float64(delivered) / float64(total)
	}

	since := time.Now().AddDate(0, 0, -7)
	var avgHours *float64
	if err := db.WithContext(ctx).Model(&Delivery{}).
		Select("AVG(TIMESTAMPDIFF(HOUR, created_at, delivered_at))").
		Where("status = ? AND delivered_at >= ?", DeliveryStatusDelivered, since).
		Scan(&avgHours).Error; err != nil {
		return nil, err
	}
	if avgHours != nil {
		metrics.AvgCompletionHours = *avgHours
	}
	return &metrics, nil
}
