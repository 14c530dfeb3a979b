package booking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-client/src/models"
)

func testItems() []Item {
	return []Item{
		{ItemName: "Shirt", ServiceName: "Wash", Quantity: 4, UnitPrice: decimal.NewFromInt(10)},
		{ItemName: "Saree", ServiceName: "Dry Clean", Quantity: 1, UnitPrice: decimal.RequireFromString("75.50")},
	}
}

func TestNewQuote(t *testing.T) {
	t.Parallel()

	quote := NewQuote(testItems())

	// subtotal 115.50, +50 delivery = 165.50, GST 18% = 29.79
	assert.True(t, quote.Subtotal.Equal(decimal.RequireFromString("115.50")), "subtotal %s", quote.Subtotal)
	assert.True(t, quote.DeliveryCharge.Equal(decimal.NewFromInt(50)))
	assert.True(t, quote.GST.Equal(decimal.RequireFromString("29.79")), "gst %s", quote.GST)
	assert.True(t, quote.Total.Equal(decimal.RequireFromString("195.29")), "total %s", quote.Total)
}

func TestNewQuoteEmpty(t *testing.T) {
	t.Parallel()

	quote := NewQuote(nil)
	assert.True(t, quote.Subtotal.IsZero())
	// The flat charge and its tax apply regardless.
	assert.True(t, quote.Total.Equal(decimal.RequireFromString("59")), "total %s", quote.Total)
}

func TestRequestOrder(t *testing.T) {
	t.Parallel()

	pickup := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	req := Request{
		Name:          "Asha",
		PhoneNumber:   "9000000001",
		PickupTime:    pickup,
		PickupAddress: "12 MG Road",
		PaymentMode:   "Cash",
		Items:         testItems(),
	}

	order := req.Order(7)
	assert.Equal(t, 7, order.User)
	assert.Equal(t, models.StatusOrderConfirmed, order.OrderStatus)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "12 MG Road", order.DeliveryLocation, "delivery defaults to the pickup address")
	assert.Equal(t, pickup.Add(48*time.Hour).Format(time.RFC3339), order.DeliveryDate)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("195.29")))
}

func TestRequestOrderItems(t *testing.T) {
	t.Parallel()

	req := Request{Items: testItems()}
	items := req.OrderItems(42)
	require.Len(t, items, 2)
	assert.Equal(t, 42, items[0].Order)
	assert.Equal(t, "Shirt", items[0].Item)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(40)), "line price is unit price times quantity")
	assert.True(t, items[1].Price.Equal(decimal.RequireFromString("75.50")))
}
