package schemas

// CreatePaymentRequest is the body of POST /api/payment/create-order/.
// Amount is in the minor currency unit (paise).
type CreatePaymentRequest struct {
	Amount   int64  `json:"amount"`
	OrderID  string `json:"order_id"`
	Currency string `json:"currency"`
}

// GatewaySession is the opaque payment-gateway transaction handle returned
// by the backend.
type GatewaySession struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// VerifyPaymentRequest forwards the gateway's signature fields plus the
// original order reference for server-side verification.
type VerifyPaymentRequest struct {
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	OrderID           string `json:"order_id"`
}

// VerifyPaymentResponse is the verification outcome. Only Status "success"
// counts as verified.
type VerifyPaymentResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
