package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"laundry-client/src/client"
	"laundry-client/src/models"
	"laundry-client/src/schemas"
)

// Currency is the only currency the gateway integration supports.
const Currency = "INR"

// CheckoutResult is the completion callback payload of the external
// checkout widget: the gateway's identifiers and signature.
type CheckoutResult struct {
	PaymentID string
	OrderID   string
	Signature string
}

// Result is the outcome of a payment verification. An unverified result
// never asserts that the charge failed; Reason tells the user what to do.
type Result struct {
	Verified bool
	Reason   string
}

// Service performs the one-shot payment handoff: create a gateway session
// for an order, then verify the checkout result against the backend.
type Service struct {
	api *client.Client
	log *logrus.Logger
}

// NewService creates a payment handoff service.
func NewService(api *client.Client, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{api: api, log: log}
}

// MinorUnits converts a decimal currency amount to the minor unit (paise),
// rounding to the nearest integer.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits converts a minor-unit amount back to the major unit.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100))
}

// CreateSession asks the backend to open a gateway transaction for the
// order's total. Paid orders are rejected before any network call.
func (s *Service) CreateSession(ctx context.Context, order *models.Order) (*schemas.GatewaySession, error) {
	if order.PaymentStatus.Paid() {
		return nil, fmt.Errorf("order %d is already paid", order.OrderID)
	}
	if !order.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("order %d has an invalid amount", order.OrderID)
	}

	req := schemas.CreatePaymentRequest{
		Amount:   MinorUnits(order.TotalAmount),
		OrderID:  strconv.Itoa(order.OrderID),
		Currency: Currency,
	}
	var session schemas.GatewaySession
	if err := s.api.Post(ctx, "/api/payment/create-order/", req, &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, fmt.Errorf("payment session response carries no gateway id")
	}
	s.log.WithFields(logrus.Fields{
		"order_id":   order.OrderID,
		"gateway_id": session.ID,
		"amount":     req.Amount,
	}).Info("Payment session created")
	return &session, nil
}

// Verify forwards the checkout result to the backend. Only an explicit
// success marker verifies the payment; every other outcome — wrong
// signature, transport failure, unexpected payload — reports unverified
// with a support-reconciliation reason, because the charge may still have
// gone through and a blind retry could double-charge.
func (s *Service) Verify(ctx context.Context, orderID int, checkout CheckoutResult) Result {
	req := schemas.VerifyPaymentRequest{
		RazorpayPaymentID: checkout.PaymentID,
		RazorpayOrderID:   checkout.OrderID,
		RazorpaySignature: checkout.Signature,
		OrderID:           strconv.Itoa(orderID),
	}

	var resp schemas.VerifyPaymentResponse
	if err := s.api.Post(ctx, "/api/payment/verify-payment/", req, &resp); err != nil {
		s.log.WithError(err).WithField("order_id", orderID).Warn("Payment verification errored")
		return Result{
			Verified: false,
			Reason:   "verification could not be completed; if the amount was deducted, contact support with your order id",
		}
	}
	if resp.Status != "success" {
		reason := resp.Error
		if reason == "" {
			reason = "payment verification failed; if the amount was deducted, contact support with your order id"
		}
		return Result{Verified: false, Reason: reason}
	}

	s.log.WithField("order_id", orderID).Info("Payment verified")
	return Result{Verified: true}
}
