package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"laundry-client/src/models"
)

// Pricing constants of the booking flow: a flat delivery charge and 18%
// GST on goods plus delivery.
var (
	DeliveryCharge = decimal.NewFromInt(50)
	GSTRate        = decimal.NewFromFloat(0.18)
)

// DeliveryLeadTime is how long after pickup the delivery is promised.
const DeliveryLeadTime = 48 * time.Hour

// Item is one line of a booking before it is placed: an item/service pair
// with quantity and unit price.
type Item struct {
	ItemName    string
	ServiceName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// LineTotal is the price of the line: unit price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Quote is the price breakdown shown on the booking preview.
type Quote struct {
	Subtotal       decimal.Decimal
	DeliveryCharge decimal.Decimal
	GST            decimal.Decimal
	Total          decimal.Decimal
}

// NewQuote prices a set of booking items.
func NewQuote(items []Item) Quote {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	gst := subtotal.Add(DeliveryCharge).Mul(GSTRate)
	return Quote{
		Subtotal:       subtotal,
		DeliveryCharge: DeliveryCharge,
		GST:            gst,
		Total:          subtotal.Add(DeliveryCharge).Add(gst),
	}
}

// Request is everything needed to place a booking.
type Request struct {
	Name            string
	PhoneNumber     string
	PickupTime      time.Time
	PickupAddress   string
	DeliveryAddress string
	PaymentMode     string
	Items           []Item
}

// Order builds the order payload for the given customer: a fresh order
// starts at Order Confirmed with payment Pending, delivered two days after
// pickup.
func (r Request) Order(userID int) models.Order {
	deliveryAddress := r.DeliveryAddress
	if deliveryAddress == "" {
		deliveryAddress = r.PickupAddress
	}
	quote := NewQuote(r.Items)
	return models.Order{
		User:             userID,
		Name:             r.Name,
		PhoneNumber:      r.PhoneNumber,
		PickupDate:       r.PickupTime.Format(time.RFC3339),
		DeliveryDate:     r.PickupTime.Add(DeliveryLeadTime).Format(time.RFC3339),
		PickupLocation:   r.PickupAddress,
		DeliveryLocation: deliveryAddress,
		OrderStatus:      models.StatusOrderConfirmed,
		DeliveryCharge:   quote.DeliveryCharge,
		Tax:              quote.GST,
		Discount:         decimal.Zero,
		TotalAmount:      quote.Total,
		PaymentMode:      r.PaymentMode,
		PaymentStatus:    models.PaymentPending,
	}
}

// OrderItems builds the per-line payloads once the order id is known.
func (r Request) OrderItems(orderID int) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, models.OrderItem{
			Order:       orderID,
			Item:        item.ItemName,
			ServiceName: item.ServiceName,
			Quantity:    item.Quantity,
			Price:       item.LineTotal(),
		})
	}
	return items
}
