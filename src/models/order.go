package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the delivery-side lifecycle status of an order. The values
// are the exact strings the backend stores and returns.
type OrderStatus string

const (
	StatusOrderConfirmed OrderStatus = "Order Confirmed"
	StatusOutForPickup   OrderStatus = "Out for pickup"
	StatusPickedUp       OrderStatus = "Picked Up"
	StatusInProgress     OrderStatus = "In Progress"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

// statusChain is the fixed forward order of the delivery workflow.
// Cancelled sits outside the chain and is reachable from any non-terminal
// status; the client itself never cancels.
var statusChain = []OrderStatus{
	StatusOrderConfirmed,
	StatusOutForPickup,
	StatusPickedUp,
	StatusInProgress,
	StatusOutForDelivery,
	StatusDelivered,
}

// NextStatus returns the status that follows s in the forward chain.
// It returns false for Delivered, Cancelled and anything unknown.
func NextStatus(s OrderStatus) (OrderStatus, bool) {
	for i, cur := range statusChain {
		if cur == s && i+1 < len(statusChain) {
			return statusChain[i+1], true
		}
	}
	return "", false
}

// StatusRank returns the position of s in the forward chain, or -1 when s
// is not part of it (Cancelled included).
func StatusRank(s OrderStatus) int {
	for i, cur := range statusChain {
		if cur == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether no further forward transition exists from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// PaymentStatus is the payment axis of an order, independent of delivery
// status.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// Paid reports whether the order has been paid for. The backend is not
// consistent about casing, so the comparison is case-insensitive.
func (p PaymentStatus) Paid() bool {
	return strings.EqualFold(string(p), string(PaymentPaid))
}

// Order is an order as returned by the backend.
type Order struct {
	OrderID          int             `json:"order_id"`
	User             int             `json:"user"`
	Name             string          `json:"name"`
	PhoneNumber      string          `json:"phone_number"`
	OrderDate        time.Time       `json:"order_date"`
	PickupDate       string          `json:"pickup_date"`
	DeliveryDate     string          `json:"delivery_date"`
	PickupLocation   string          `json:"pickup_location"`
	DeliveryLocation string          `json:"delivery_location"`
	OrderStatus      OrderStatus     `json:"order_status"`
	DeliveryCharge   decimal.Decimal `json:"delivery_charge"`
	Tax              decimal.Decimal `json:"tax"`
	Discount         decimal.Decimal `json:"discount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaymentMode      string          `json:"payment_mode"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
}

// OrderItem is a single item+service line belonging to an order. Items are
// created together with the order and are immutable afterwards.
type OrderItem struct {
	Order       int             `json:"order"`
	Item        string          `json:"item"`
	ServiceName string          `json:"service_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}
