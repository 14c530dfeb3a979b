package orders

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"laundry-client/src/client"
	"laundry-client/src/models"
	"laundry-client/src/schemas"
)

// OTPPrompter asks the operator for the delivery confirmation code. An
// empty code means the operator aborted.
type OTPPrompter interface {
	Prompt(orderID int) (string, error)
}

// Service drives the order workflow against the backend: fetching order
// sets, placing orders, and advancing staff-side status transitions.
type Service struct {
	api *client.Client
	log *logrus.Logger
}

// NewService creates an order workflow service.
func NewService(api *client.Client, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{api: api, log: log}
}

// ForUser fetches the orders owned by the given customer.
func (s *Service) ForUser(ctx context.Context, userID int) ([]models.Order, error) {
	var list schemas.OrderList
	if err := s.api.Get(ctx, fmt.Sprintf("/api/orders/?user=%d", userID), &list); err != nil {
		return nil, err
	}
	return list.Orders, nil
}

// All fetches every order, the staff list view's data set.
func (s *Service) All(ctx context.Context) ([]models.Order, error) {
	var list schemas.OrderList
	if err := s.api.Get(ctx, "/api/orders/", &list); err != nil {
		return nil, err
	}
	return list.Orders, nil
}

// StaffList fetches the staff order list used by the dashboard aggregate.
func (s *Service) StaffList(ctx context.Context) ([]models.Order, error) {
	var list schemas.OrderList
	if err := s.api.Get(ctx, "/api/staff-order-list/", &list); err != nil {
		return nil, err
	}
	return list.Orders, nil
}

// Get finds one order in the owner's order set by id.
func (s *Service) Get(ctx context.Context, userID, orderID int) (*models.Order, error) {
	all, err := s.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].OrderID == orderID {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("order %d not found", orderID)
}

// Create places a new order and returns the server's representation.
func (s *Service) Create(ctx context.Context, order models.Order) (*models.Order, error) {
	var created models.Order
	if err := s.api.Post(ctx, "/api/orders/", order, &created); err != nil {
		return nil, err
	}
	s.log.WithField("order_id", created.OrderID).Info("Order created")
	return &created, nil
}

// CreateItems creates all item lines of a freshly placed order. The
// requests run concurrently; the first failure cancels the rest.
func (s *Service) CreateItems(ctx context.Context, items []models.OrderItem) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, item := range items {
		item := item
		g.Go(func() error {
			return s.api.Post(ctx, "/api/order-items/", item, nil)
		})
	}
	return g.Wait()
}

// Advance moves an order one step forward along the status chain. Every
// target except Delivered is a direct partial update whose response
// replaces the local order (server truth wins: other actors may have
// changed the order concurrently). The Delivered transition must go
// through ConfirmDelivery instead.
func (s *Service) Advance(ctx context.Context, order *models.Order, target models.OrderStatus) error {
	if target == models.StatusDelivered {
		return fmt.Errorf("delivery confirmation requires OTP verification")
	}
	var updated models.Order
	patch := schemas.StatusPatch{OrderStatus: target}
	if err := s.api.Patch(ctx, fmt.Sprintf("/api/orders/%d/", order.OrderID), patch, &updated); err != nil {
		return err
	}
	*order = updated
	s.log.WithFields(logrus.Fields{
		"order_id": order.OrderID,
		"status":   order.OrderStatus,
	}).Info("Order status updated")
	return nil
}

// ConfirmDelivery performs the OTP-gated terminal transition: request an
// OTP for the order, prompt the operator, submit the code. Only the exact
// success marker moves the order to Delivered; any other outcome leaves
// the local status untouched.
func (s *Service) ConfirmDelivery(ctx context.Context, order *models.Order, prompt OTPPrompter) error {
	if err := s.api.Post(ctx, fmt.Sprintf("/api/send-delivery-otp/%d/", order.OrderID), nil, nil); err != nil {
		return err
	}

	code, err := prompt.Prompt(order.OrderID)
	if err != nil {
		return err
	}
	if code == "" {
		return schemas.NewVerificationError("delivery", "no OTP entered")
	}

	var resp schemas.OTPResponse
	if err := s.api.Post(ctx, fmt.Sprintf("/api/verify-delivery-otp/%d/", order.OrderID), schemas.OTPVerifyRequest{OTP: code}, &resp); err != nil {
		return err
	}
	if resp.Message != schemas.DeliveredMarker {
		return schemas.NewVerificationError("delivery", "invalid OTP")
	}

	order.OrderStatus = models.StatusDelivered
	s.log.WithField("order_id", order.OrderID).Info("Delivery confirmed")
	return nil
}
