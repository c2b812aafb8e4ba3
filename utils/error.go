package utils

import "errors"

var (
	ErrorRecordNotFound      = errors.New("record not found")
	ErrorInsufficientStock   = errors.New("insufficient stock")
	ErrorWouldGoNegative     = errors.New("adjustment would make stock negative")
	ErrorInvalidTransition   = errors.New("invalid status transition")
	ErrorOverpaymentRejected = errors.New("payment exceeds remaining balance")
	ErrorEmptyOrder          = errors.New("order has no line items")
	ErrorOrderConfirmed      = errors.New("order is already confirmed")
	ErrorDeliveryExists      = errors.New("delivery already exists for order")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
