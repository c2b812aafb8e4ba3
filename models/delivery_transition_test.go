package models

import "testing"

func TestDeliveryTransitions(t *testing.T) {
	cases := []struct {
		from    DeliveryStatus
		to      DeliveryStatus
		allowed bool
	}{
		{DeliveryStatusPending, DeliveryStatusOnPicking, true},
		{DeliveryStatusPending, DeliveryStatusCancelled, true},
		{DeliveryStatusPending, DeliveryStatusLoaded, false},
		{DeliveryStatusPending, DeliveryStatusDelivered, false},
		{DeliveryStatusOnPicking, DeliveryStatusLoaded, true},
		{DeliveryStatusOnPicking, DeliveryStatusPending, true},
		{DeliveryStatusOnPicking, DeliveryStatusOutForDelivery, false},
		{DeliveryStatusLoaded, DeliveryStatusOutForDelivery, true},
		{DeliveryStatusLoaded, DeliveryStatusPending, true},
		{DeliveryStatusLoaded, DeliveryStatusDelivered, false},
		{DeliveryStatusOutForDelivery, DeliveryStatusDelivered, true},
		{DeliveryStatusOutForDelivery, DeliveryStatusPending, true},
		{DeliveryStatusOutForDelivery, DeliveryStatusCancelled, false},
		// terminal states
		{DeliveryStatusDelivered, DeliveryStatusPending, false},
		{DeliveryStatusDelivered, DeliveryStatusOutForDelivery, false},
		{DeliveryStatusCancelled, DeliveryStatusPending, false},
		{DeliveryStatusCancelled, DeliveryStatusOnPicking, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestDeliveryStatusValid(t *testing.T) {
	for _, s := range []DeliveryStatus{
		DeliveryStatusPending, DeliveryStatusOnPicking, DeliveryStatusLoaded,
		DeliveryStatusOutForDelivery, DeliveryStatusDelivered, DeliveryStatusCancelled,
	} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if DeliveryStatus("Shipped").Valid() {
		t.Error("unknown status should be invalid")
	}
}
