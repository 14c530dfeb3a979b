package schemas

import (
	"encoding/json"
	"fmt"

	"laundry-client/src/models"
)

// OrderList handles both shapes the backend uses for order collections:
// a bare JSON array and a {"data": [...]} envelope.
type OrderList struct {
	Orders []models.Order
}

func (l *OrderList) UnmarshalJSON(raw []byte) error {
	var direct []models.Order
	if err := json.Unmarshal(raw, &direct); err == nil {
		l.Orders = direct
		return nil
	}
	var envelope struct {
		Data []models.Order `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("order list has neither array nor envelope shape: %w", err)
	}
	l.Orders = envelope.Data
	return nil
}

// StatusPatch is the partial update body for PATCH /api/orders/<id>/.
type StatusPatch struct {
	OrderStatus models.OrderStatus `json:"order_status"`
}

// OTPVerifyRequest is the body of POST /api/verify-delivery-otp/<id>/.
type OTPVerifyRequest struct {
	OTP string `json:"otp"`
}

// OTPResponse is returned by both delivery-OTP endpoints. The exact
// message "Order marked as Delivered" is the only success marker the
// verify endpoint has.
type OTPResponse struct {
	Message string `json:"message"`
}

// DeliveredMarker is the verify-endpoint message that confirms the order
// was marked delivered. Anything else leaves the order untouched.
const DeliveredMarker = "Order marked as Delivered"
