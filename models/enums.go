package models

type PaymentType string

const (
	PaymentTypeCash    PaymentType = "Cash"
	PaymentTypePartial PaymentType = "Partial"
	PaymentTypeCredit  PaymentType = "Credit"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeCash, PaymentTypePartial, PaymentTypeCredit:
		return true
	}
	return false
}

type OrderSource string

const (
	OrderSourcePointOfSale    OrderSource = "PointOfSale"
	OrderSourceCustomerPlaced OrderSource = "CustomerPlaced"
)

func (s OrderSource) Valid() bool {
	switch s {
	case OrderSourcePointOfSale, OrderSourceCustomerPlaced:
		return true
	}
	return false
}

type MovementKind string

const (
	MovementKindReceive MovementKind = "Receive"
	MovementKindIssue   MovementKind = "Issue"
	MovementKindAdjust  MovementKind = "Adjust"
)

type DeliveryStatus string

const (
	DeliveryStatusPending        DeliveryStatus = "Pending"
	DeliveryStatusOnPicking      DeliveryStatus = "OnPicking"
	DeliveryStatusLoaded         DeliveryStatus = "Loaded"
	DeliveryStatusOutForDelivery DeliveryStatus = "OutForDelivery"
	DeliveryStatusDelivered      DeliveryStatus = "Delivered"
	DeliveryStatusCancelled      DeliveryStatus = "Cancelled"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusOnPicking, DeliveryStatusLoaded,
		DeliveryStatusOutForDelivery, DeliveryStatusDelivered, DeliveryStatusCancelled:
		return true
	}
	return false
}

type ConfirmationStatus string

const (
	ConfirmationStatusCreated        ConfirmationStatus = "Created"
	ConfirmationStatusConfirmed      ConfirmationStatus = "Confirmed"
	ConfirmationStatusReadyForPickup ConfirmationStatus = "ReadyForPickup"
	ConfirmationStatusPickedUp       ConfirmationStatus = "PickedUp"
)

type NotificationType string

const (
	NotificationTypeOrderConfirmed   NotificationType = "OrderConfirmed"
	NotificationTypeReadyForPickup   NotificationType = "ReadyForPickup"
	NotificationTypePaymentCompleted NotificationType = "PaymentCompleted"
	NotificationTypePickedUp         NotificationType = "PickedUp"
)

type UserRole string

const (
	UserRoleAdmin            UserRole = "A"
	UserRoleCashier          UserRole = "C"
	UserRoleInventoryManager UserRole = "I"
	UserRoleWarehouseStaff   UserRole = "W"
)
