package models

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/utils"
	"gorm.io/gorm"
)

// OrderConfirmation is the customer-facing lifecycle of one order:
// Created -> Confirmed -> ReadyForPickup -> PickedUp. Payment completeness
// is an orthogonal flag, not a state.
type OrderConfirmation struct {
	ID                  int                `gorm:"primary_key" json:"id"`
	SalesOrderId        int                `gorm:"uniqueIndex;not null" json:"sales_order_id"`
	CustomerId          int                `gorm:"index;not null" json:"customer_id"`
	Status              ConfirmationStatus `gorm:"type:enum('Created','Confirmed','ReadyForPickup','PickedUp');default:Created" json:"status"`
	IsPaymentComplete   *bool              `gorm:"not null;default:false" json:"is_payment_complete"`
	EstimatedPickupDate *time.Time         `json:"estimated_pickup_date"`
	ReadyAt             *time.Time         `json:"ready_at"`
	PaymentCompletedAt  *time.Time         `json:"payment_completed_at"`
	PickedUpAt          *time.Time         `json:"picked_up_at"`
	CreatedAt           time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderNotification rows are append-only; one per customer-visible event.
type OrderNotification struct {
	ID           int              `gorm:"primary_key" json:"id"`
	CustomerId   int              `gorm:"index:idx_notification_customer_time;not null" json:"customer_id"`
	SalesOrderId int              `gorm:"index;not null" json:"sales_order_id"`
	Type         NotificationType `gorm:"type:enum('OrderConfirmed','ReadyForPickup','PaymentCompleted','PickedUp');not null" json:"type"`
	Message      string           `gorm:"size:255" json:"message"`
	IsRead       *bool            `gorm:"not null;default:false" json:"is_read"`
	CreatedAt    time.Time        `gorm:"autoCreateTime;index:idx_notification_customer_time" json:"created_at"`
}

/*
caches:
	NotifBadge:$customerId
*/

func notificationBadgeKey(customerId int) string {
	return "NotifBadge:" + strconv.Itoa(customerId)
}

func notifyTx(tx *gorm.DB, customerId int, salesOrderId int, notificationType NotificationType, message string) error {
	notification := OrderNotification{
		CustomerId:   customerId,
		SalesOrderId: salesOrderId,
		Type:         notificationType,
		Message:      message,
		IsRead:       utils.NewFalse(),
	}
	if err := tx.Create(&notification).Error; err != nil {
		return err
	}
	if err := config.RemoveRedisKey(notificationBadgeKey(customerId)); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "orderConfirmation", "notifyTx", "Failed to invalidate badge cache", customerId, err)
	}
	return nil
}

func createOrderConfirmationTx(tx *gorm.DB, ctx context.Context, order *SalesOrder) error {
	confirmation := OrderConfirmation{
		SalesOrderId:      order.ID,
		CustomerId:        order.CustomerId,
		Status:            ConfirmationStatusCreated,
		IsPaymentComplete: utils.NewFalse(),
	}
	if err := tx.Create(&confirmation).Error; err != nil {
		return err
	}
	message := fmt.Sprintf("Order %s has been received", order.SoNumber)
	return notifyTx(tx, order.CustomerId, order.ID, NotificationTypeOrderConfirmed, message)
}

func confirmOrderConfirmationTx(tx *gorm.DB, ctx context.Context, order *SalesOrder) error {
	result := tx.Model(&OrderConfirmation{}).
		Where("sales_order_id = ? AND status = ?", order.ID, ConfirmationStatusCreated).
		Update("status", ConfirmationStatusConfirmed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return nil
	}
	message := fmt.Sprintf("Order %s has been confirmed", order.SoNumber)
	return notifyTx(tx, order.CustomerId, order.ID, NotificationTypeOrderConfirmed, message)
}

func fetchConfirmation(ctx context.Context, db *gorm.DB, orderId int) (*OrderConfirmation, error) {
	var confirmation OrderConfirmation
	if err := db.WithContext(ctx).Where("sales_order_id = ?", orderId).
		First(&confirmation).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &confirmation, nil
}

// MarkReady moves the confirmation to ReadyForPickup. Valid from Created or
// Confirmed.
func MarkReady(ctx context.Context, orderId int, estimatedPickupDate *time.Time) (*OrderConfirmation, error) {

	db := config.GetDB()

	confirmation, err := fetchConfirmation(ctx, db, orderId)
	if err != nil {
		return nil, err
	}
	if confirmation.Status != ConfirmationStatusCreated && confirmation.Status != ConfirmationStatusConfirmed {
		return nil, utils.ErrorInvalidTransition
	}

	now := time.Now()

	tx := db.WithContext(ctx).Begin()
	updates := map[string]interface{}{
		"status":   ConfirmationStatusReadyForPickup,
		"ready_at": now,
	}
	if estimatedPickupDate != nil {
		updates["estimated_pickup_date"] = estimatedPickupDate
	}
	if err := tx.Model(&OrderConfirmation{}).Where("id = ?", confirmation.ID).
		Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	message := "Your order is ready for pickup"
	if err := notifyTx(tx, confirmation.CustomerId, orderId, NotificationTypeReadyForPickup, message); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	confirmation.Status = ConfirmationStatusReadyForPickup
	confirmation.ReadyAt = &now
	if estimatedPickupDate != nil {
		confirmation.EstimatedPickupDate = estimatedPickupDate
	}
	return confirmation, nil
}

func markPaymentCompleteTx(tx *gorm.DB, confirmation *OrderConfirmation) error {
	now := time.Now()
	if err := tx.Model(&OrderConfirmation{}).Where("id = ?", confirmation.ID).
		Updates(map[string]interface{}{
			"is_payment_complete":  true,
			"payment_completed_at": now,
		}).Error; err != nil {
		return err
	}
	confirmation.IsPaymentComplete = utils.NewTrue()
	confirmation.PaymentCompletedAt = &now
	return notifyTx(tx, confirmation.CustomerId, confirmation.SalesOrderId,
		NotificationTypePaymentCompleted, "Payment completed for your order")
}

// markPaymentCompleteIfAny is the best-effort probe used by the payment
// processor: a missing confirmation reports applied=false with a nil error.
func markPaymentCompleteIfAny(tx *gorm.DB, ctx context.Context, orderId int) (bool, error) {
	var confirmation OrderConfirmation
	err := tx.Where("sales_order_id = ?", orderId).First(&confirmation).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	if confirmation.Status == ConfirmationStatusPickedUp {
		return false, nil
	}
	if err := markPaymentCompleteTx(tx, &confirmation); err != nil {
		return false, err
	}
	return true, nil
}

// MarkPaymentComplete sets the payment flag. Callable at any non-terminal
// state.
func MarkPaymentComplete(ctx context.Context, orderId int) (*OrderConfirmation, error) {

	db := config.GetDB()

	confirmation, err := fetchConfirmation(ctx, db, orderId)
	if err != nil {
		return nil, err
	}
	if confirmation.Status == ConfirmationStatusPickedUp {
		return nil, utils.ErrorInvalidTransition
	}

	tx := db.WithContext(ctx).Begin()
	if err := markPaymentCompleteTx(tx, confirmation); err != nil {
		tx.Rollback()
		return nil, err
	}
	return confirmation, tx.Commit().Error
}

// MarkPickedUp closes the confirmation. Valid only from ReadyForPickup.
func MarkPickedUp(ctx context.Context, orderId int) (*OrderConfirmation, error) {

	db := config.GetDB()

	confirmation, err := fetchConfirmation(ctx, db, orderId)
	if err != nil {
		return nil, err
	}
	if confirmation.Status != ConfirmationStatusReadyForPickup {
		return nil, utils.ErrorInvalidTransition
	}

	now := time.Now()

	tx := db.WithContext(ctx).Begin()
	if err := tx.Model(&OrderConfirmation{}).Where("id = ?", confirmation.ID).
		Updates(map[string]interface{}{
			"status":       ConfirmationStatusPickedUp,
			"picked_up_at": now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := notifyTx(tx, confirmation.CustomerId, orderId,
		NotificationTypePickedUp, "Your order has been picked up"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	confirmation.Status = ConfirmationStatusPickedUp
	confirmation.PickedUpAt = &now
	return confirmation, nil
}

// IsCollectable reports whether the customer may treat the order as ready to
// collect. Credit-type orders may carry a balance (trust-based terms), so
// the payment gate applies only to the other payment types. Informational;
// MarkPickedUp itself does not enforce it.
func (c OrderConfirmation) IsCollectable(paymentType PaymentType) bool {
	if c.Status != ConfirmationStatusReadyForPickup {
		return false
	}
	if paymentType == PaymentTypeCredit {
		return true
	}
	return utils.DereferencePtr(c.IsPaymentComplete)
}

func GetOrderConfirmation(ctx context.Context, orderId int) (*OrderConfirmation, error) {
	return fetchConfirmation(ctx, config.GetDB(), orderId)
}

func ListNotifications(ctx context.Context, customerId int, unreadOnly bool) ([]*OrderNotification, error) {

	db := config.GetDB()

	var notifications []*OrderNotification
	dbCtx := db.WithContext(ctx).Where("customer_id = ?", customerId)
	if unreadOnly {
		dbCtx = dbCtx.Where("is_read = ?", false)
	}
	if err := dbCtx.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func MarkNotificationRead(ctx context.Context, id int) (*OrderNotification, error) {

	db := config.GetDB()

	notification, err := utils.FetchModel[OrderNotification](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&OrderNotification{}).Where("id = ?", id).
		Update("is_read", true).Error; err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey(notificationBadgeKey(notification.CustomerId)); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "orderConfirmation", "MarkNotificationRead", "Failed to invalidate badge cache", notification.CustomerId, err)
	}
	notification.IsRead = utils.NewTrue()
	return notification, nil
}

func MarkAllNotificationsRead(ctx context.Context, customerId int) (int64, error) {

	db := config.GetDB()

	result := db.WithContext(ctx).Model(&OrderNotification{}).
		Where("customer_id = ? AND is_read = ?", customerId, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	if err := config.RemoveRedisKey(notificationBadgeKey(customerId)); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "orderConfirmation", "MarkAllNotificationsRead", "Failed to invalidate badge cache", customerId, err)
	}
	return result.RowsAffected, nil
}

// GetUnreadNotificationCount serves the badge count cache-aside; Redis
// misses fall through to the DB.
func GetUnreadNotificationCount(ctx context.Context, customerId int) (int64, error) {

	key := notificationBadgeKey(customerId)
	if cached, exists, err := config.GetRedisValue(key); err == nil && exists {
		if count, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			return count, nil
		}
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&OrderNotification{}).
		Where("customer_id = ? AND is_read = ?", customerId, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	if err := config.SetRedisValue(key, strconv.FormatInt(count, 10), 5*time.Minute); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "orderConfirmation", "GetUnreadNotificationCount", "Failed to cache badge count", customerId, err)
	}
	return count, nil
}
