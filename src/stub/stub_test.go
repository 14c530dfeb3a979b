package stub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-client/src/booking"
	"laundry-client/src/client"
	"laundry-client/src/models"
	"laundry-client/src/orders"
	"laundry-client/src/payment"
	"laundry-client/src/schemas"
	"laundry-client/src/session"
	"laundry-client/src/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	state    *State
	tokens   *storage.MemStore
	session  *session.Manager
	orders   *orders.Service
	payments *payment.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	state := NewState()
	router := NewRouter(NewHandlers(state, nil, ""), state)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	tokens := storage.NewMemStore()
	api := client.New(server.URL, tokens, nil)
	return &env{
		state:    state,
		tokens:   tokens,
		session:  session.NewManager(api, tokens, nil),
		orders:   orders.NewService(api, nil),
		payments: payment.NewService(api, nil),
	}
}

func (e *env) loginStaff(t *testing.T) *models.User {
	t.Helper()
	user, err := e.session.Login(context.Background(), schemas.Credentials{
		Email:    "staff@example.com",
		Password: "password",
	})
	require.NoError(t, err)
	return user
}

func (e *env) placeBooking(t *testing.T, userID int) *models.Order {
	t.Helper()
	req := booking.Request{
		Name:          "Asha",
		PhoneNumber:   "9000000001",
		PickupTime:    time.Now().Add(24 * time.Hour),
		PickupAddress: "12 MG Road",
		PaymentMode:   "Online",
		Items: []booking.Item{
			{ItemName: "Shirt", ServiceName: "Wash", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{ItemName: "Saree", ServiceName: "Dry Clean", Quantity: 1, UnitPrice: decimal.NewFromInt(80)},
		},
	}
	created, err := e.orders.Create(context.Background(), req.Order(userID))
	require.NoError(t, err)
	require.NoError(t, e.orders.CreateItems(context.Background(), req.OrderItems(created.OrderID)))
	return created
}

// stateOTPPrompter answers with the OTP the stub issued, or a fixed wrong
// code.
type stateOTPPrompter struct {
	state *State
	wrong bool
}

func (p stateOTPPrompter) Prompt(orderID int) (string, error) {
	if p.wrong {
		return "000000", nil
	}
	code, _ := p.state.PendingOTP(orderID)
	return code, nil
}

func TestLoginAndProfileFlow(t *testing.T) {
	e := newEnv(t)

	user := e.loginStaff(t)
	assert.Equal(t, "staff@example.com", user.Email)
	assert.True(t, user.IsStaff)

	_, ok := e.tokens.Access()
	assert.True(t, ok)
	_, ok = e.tokens.Refresh()
	assert.True(t, ok)
}

func TestLoginBadCredentials(t *testing.T) {
	e := newEnv(t)

	_, err := e.session.Login(context.Background(), schemas.Credentials{
		Email:    "staff@example.com",
		Password: "wrong",
	})
	require.Error(t, err)

	var authErr *schemas.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid email or password", authErr.Message)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newEnv(t)

	err := e.session.Register(context.Background(), schemas.RegisterRequest{
		Name:     "Copy",
		Email:    "customer@example.com",
		Password: "pw",
	})
	require.Error(t, err)
	assert.True(t, schemas.IsStatus(err, http.StatusConflict))
}

func TestExpiredAccessTokenIsRefreshedTransparently(t *testing.T) {
	e := newEnv(t)

	user := e.loginStaff(t)
	access, _ := e.tokens.Access()
	e.state.RevokeAccess(access)

	// The next request 401s, refreshes, and replays without the caller
	// noticing.
	list, err := e.orders.ForUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	newAccess, _ := e.tokens.Access()
	assert.NotEqual(t, access, newAccess)
}

func TestFullOrderLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.loginStaff(t)
	order := e.placeBooking(t, user.ID)
	assert.Equal(t, models.StatusOrderConfirmed, order.OrderStatus)

	// Walk the chain up to Out for Delivery with plain PATCHes.
	for {
		next, ok := models.NextStatus(order.OrderStatus)
		require.True(t, ok)
		if next == models.StatusDelivered {
			break
		}
		require.NoError(t, e.orders.Advance(ctx, order, next))
	}
	assert.Equal(t, models.StatusOutForDelivery, order.OrderStatus)

	// Wrong OTP first: the order must not move.
	err := e.orders.ConfirmDelivery(ctx, order, stateOTPPrompter{state: e.state, wrong: true})
	require.Error(t, err)
	var verr *schemas.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, models.StatusOutForDelivery, order.OrderStatus)

	// Correct OTP completes the delivery.
	require.NoError(t, e.orders.ConfirmDelivery(ctx, order, stateOTPPrompter{state: e.state}))
	assert.Equal(t, models.StatusDelivered, order.OrderStatus)

	fetched, err := e.orders.ForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, models.StatusDelivered, fetched[0].OrderStatus)
}

func TestPaymentFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.loginStaff(t)
	order := e.placeBooking(t, user.ID)

	gateway, err := e.payments.CreateSession(ctx, order)
	require.NoError(t, err)
	require.NotEmpty(t, gateway.ID)
	assert.Equal(t, payment.MinorUnits(order.TotalAmount), gateway.Amount)

	// A bad signature reports unverified and leaves payment pending.
	result := e.payments.Verify(ctx, order.OrderID, payment.CheckoutResult{
		PaymentID: "pay_1", OrderID: gateway.ID, Signature: "bogus",
	})
	assert.False(t, result.Verified)
	total, _ := e.state.OrderTotal(order.OrderID)
	assert.True(t, total.Equal(order.TotalAmount))

	fetched, err := e.orders.ForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, fetched[0].PaymentStatus.Paid())

	// The stub's signature rule verifies and marks the order paid.
	result = e.payments.Verify(ctx, order.OrderID, payment.CheckoutResult{
		PaymentID: "pay_1",
		OrderID:   gateway.ID,
		Signature: "sig:" + gateway.ID + ":pay_1",
	})
	assert.True(t, result.Verified)

	fetched, err = e.orders.ForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, fetched[0].PaymentStatus.Paid())
}

func TestStaffEndpointsRequireStaffRole(t *testing.T) {
	e := newEnv(t)

	_, err := e.session.Login(context.Background(), schemas.Credentials{
		Email:    "customer@example.com",
		Password: "password",
	})
	require.NoError(t, err)

	_, err = e.orders.StaffList(context.Background())
	require.Error(t, err)
	assert.True(t, schemas.IsStatus(err, http.StatusForbidden))
}

func TestWatcherSeesStaffAdvancement(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := e.loginStaff(t)
	order := e.placeBooking(t, user.ID)

	fetch := func(ctx context.Context) ([]models.Order, error) {
		return e.orders.ForUser(ctx, user.ID)
	}
	watcher := orders.NewWatcher(fetch, 10*time.Millisecond, []models.Order{*order}, nil)
	go watcher.Run(ctx)

	// Another actor advances the order; the poller must pick it up.
	_, err := e.state.SetStatus(order.OrderID, models.StatusOutForPickup)
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snapshot := <-watcher.Updates():
			require.Len(t, snapshot, 1)
			if snapshot[0].OrderStatus == models.StatusOutForPickup {
				return
			}
		case <-deadline:
			t.Fatal("watcher never observed the new status")
		}
	}
}
