package stub

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"laundry-client/src/events"
	"laundry-client/src/models"
	"laundry-client/src/schemas"
)

// Handlers implements the backend REST contract against in-memory state.
type Handlers struct {
	state     *State
	publisher *events.Publisher
	exchange  string
}

// NewHandlers creates the stub handler set. publisher may be nil; status
// events are then simply not published.
func NewHandlers(state *State, publisher *events.Publisher, exchange string) *Handlers {
	return &Handlers{state: state, publisher: publisher, exchange: exchange}
}

func respondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message})
}

func (h *Handlers) publishStatus(order models.Order) {
	if h.publisher == nil {
		return
	}
	event := events.StatusEvent{OrderID: order.OrderID, OrderStatus: order.OrderStatus}
	if err := h.publisher.Publish(h.exchange, event); err != nil {
		// The stub keeps serving; event delivery is best effort.
		slog.Warn("Failed to publish status event", "order_id", order.OrderID, "error", err)
	}
}

// Login handles POST /api/login/. Bad credentials come back as a 2xx
// payload with an explicit failure flag, matching the backend's behavior.
func (h *Handlers) Login(ctx *gin.Context) {
	var creds schemas.Credentials
	if err := ctx.ShouldBindJSON(&creds); err != nil {
		respondError(ctx, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	user, access, refresh, ok := h.state.Authenticate(creds.Email, creds.Password)
	if !ok {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  false,
			"message": "Invalid email or password",
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": true,
		"data": gin.H{
			"tokens": gin.H{"access": access, "refresh": refresh},
			"user":   user,
		},
	})
}

// RefreshToken handles POST /api/token/refresh/.
func (h *Handlers) RefreshToken(ctx *gin.Context) {
	var req schemas.RefreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	access, ok := h.state.RefreshAccess(req.Refresh)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired"})
		return
	}
	ctx.JSON(http.StatusOK, schemas.RefreshResponse{Access: access})
}

// Register handles POST /api/users/.
func (h *Handlers) Register(ctx *gin.Context) {
	var req schemas.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	role := req.Role
	if role == "" {
		role = "customer"
	}
	user, err := h.state.Register(models.User{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Role:        role,
		IsStaff:     role == "staff",
	}, req.Password)
	if err != nil {
		respondError(ctx, http.StatusConflict, err.Error())
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"data": user})
}

// Profile handles GET /api/profile/.
func (h *Handlers) Profile(ctx *gin.Context) {
	user := currentUser(ctx)
	ctx.JSON(http.StatusOK, gin.H{"data": user})
}

// ListOrders handles GET /api/orders/, optionally filtered by ?user=<id>.
func (h *Handlers) ListOrders(ctx *gin.Context) {
	userID := 0
	if raw := ctx.Query("user"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondError(ctx, http.StatusBadRequest, "user must be an integer")
			return
		}
		userID = id
	}
	ctx.JSON(http.StatusOK, h.state.Orders(userID))
}

// CreateOrder handles POST /api/orders/.
func (h *Handlers) CreateOrder(ctx *gin.Context) {
	var order models.Order
	if err := ctx.ShouldBindJSON(&order); err != nil {
		respondError(ctx, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	created := h.state.CreateOrder(order)
	ctx.JSON(http.StatusCreated, created)
}

// PatchOrder handles PATCH /api/orders/:id/.
func (h *Handlers) PatchOrder(ctx *gin.Context) {
	orderID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		respondError(ctx, http.StatusBadRequest, "order id must be an integer")
		return
	}
	var patch schemas.StatusPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		respondError(ctx, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	updated, err := h.state.SetStatus(orderID, patch.OrderStatus)
	if err != nil {
		respondError(ctx, http.StatusNotFound, err.Error())
		return
	}
	h.publishStatus(updated)
	ctx.JSON(http.StatusOK, updated)
}

// CreateOrderItem handles POST /api/order-items/.
func (h *Handlers) CreateOrderItem(ctx *gin.Context) {
	var item models.OrderItem
	if err := ctx.ShouldBindJSON(&item); err != nil {
		respondError(ctx, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	if err := h.state.AddItem(item); err != nil {
		respondError(ctx, http.StatusNotFound, err.Error())
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

// StaffOrderList handles GET /api/staff-order-list/.
func (h *Handlers) StaffOrderList(ctx *gin.Context) {
	user := currentUser(ctx)
	if !user.IsStaff {
		respondError(ctx, http.StatusForbidden, "staff access required")
		return
	}
	ctx.JSON(http.StatusOK, h.state.Orders(0))
}

// SendDeliveryOTP handles POST /api/send-delivery-otp/:id/.
func (h *Handlers) SendDeliveryOTP(ctx *gin.Context) {
	orderID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		respondError(ctx, http.StatusBadRequest, "order id must be an integer")
		return
	}
	if _, err := h.state.IssueOTP(orderID); err != nil {
		respondError(ctx, http.StatusNotFound, err.Error())
		return
	}
	ctx.JSON(http.StatusOK, schemas.OTPResponse{Message: "OTP sent to customer"})
}

// VerifyDeliveryOTP handles POST /api/verify-delivery-otp/:id/. A wrong
// code is a 2xx with a non-success message; the client keys off the exact
// marker.
func (h *Handlers) VerifyDeliveryOTP(ctx *gin.Context) {
	orderID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		respondError(ctx, http.StatusBadRequest, "order id must be an integer")
		return
	}
	var req schemas.OTPVerifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	order, ok := h.state.VerifyOTP(orderID, req.OTP)
	if !ok {
		ctx.JSON(http.StatusOK, schemas.OTPResponse{Message: "Invalid OTP"})
		return
	}
	h.publishStatus(order)
	ctx.JSON(http.StatusOK, schemas.OTPResponse{Message: schemas.DeliveredMarker})
}

// CreatePaymentOrder handles POST /api/payment/create-order/.
func (h *Handlers) CreatePaymentOrder(ctx *gin.Context) {
	var req schemas.CreatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	if req.Amount <= 0 {
		respondError(ctx, http.StatusBadRequest, "amount must be positive")
		return
	}
	ctx.JSON(http.StatusOK, schemas.GatewaySession{
		ID:       "order_" + uuid.New().String(),
		Amount:   req.Amount,
		Currency: req.Currency,
	})
}

// VerifyPayment handles POST /api/payment/verify-payment/. The stub's
// signature rule: "sig:" + gateway order id + ":" + payment id.
func (h *Handlers) VerifyPayment(ctx *gin.Context) {
	var req schemas.VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	expected := "sig:" + req.RazorpayOrderID + ":" + req.RazorpayPaymentID
	if req.RazorpaySignature != expected {
		ctx.JSON(http.StatusOK, schemas.VerifyPaymentResponse{
			Status: "failure",
			Error:  "signature verification failed",
		})
		return
	}
	if orderID, err := strconv.Atoi(req.OrderID); err == nil {
		h.state.MarkPaid(orderID)
	}
	ctx.JSON(http.StatusOK, schemas.VerifyPaymentResponse{Status: "success"})
}
