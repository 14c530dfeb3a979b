package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current OrderStatus
		want    OrderStatus
		ok      bool
	}{
		{"confirmed", StatusOrderConfirmed, StatusOutForPickup, true},
		{"out_for_pickup", StatusOutForPickup, StatusPickedUp, true},
		{"picked_up", StatusPickedUp, StatusInProgress, true},
		{"in_progress", StatusInProgress, StatusOutForDelivery, true},
		{"out_for_delivery", StatusOutForDelivery, StatusDelivered, true},
		{"delivered_terminal", StatusDelivered, "", false},
		{"cancelled_terminal", StatusCancelled, "", false},
		{"unknown", OrderStatus("Folded"), "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next, ok := NextStatus(tt.current)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, next)
		})
	}
}

// The chain must be strictly forward: each step's rank is exactly one more
// than its predecessor's.
func TestNextStatusMonotonic(t *testing.T) {
	t.Parallel()

	current := StatusOrderConfirmed
	seen := 0
	for {
		next, ok := NextStatus(current)
		if !ok {
			break
		}
		assert.Equal(t, StatusRank(current)+1, StatusRank(next))
		current = next
		seen++
	}
	assert.Equal(t, StatusDelivered, current)
	assert.Equal(t, 5, seen)
}

func TestStatusRank(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, StatusRank(StatusOrderConfirmed))
	assert.Equal(t, 5, StatusRank(StatusDelivered))
	assert.Equal(t, -1, StatusRank(StatusCancelled))
	assert.Equal(t, -1, StatusRank(OrderStatus("nope")))
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusOutForDelivery.Terminal())
}

func TestPaymentStatusPaid(t *testing.T) {
	t.Parallel()

	assert.True(t, PaymentStatus("Paid").Paid())
	assert.True(t, PaymentStatus("paid").Paid())
	assert.False(t, PaymentStatus("Pending").Paid())
	assert.False(t, PaymentStatus("").Paid())
}
