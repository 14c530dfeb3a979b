package stub

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"laundry-client/src/models"
)

const userKey = "current_user"

// currentUser returns the user the auth middleware resolved for this
// request.
func currentUser(ctx *gin.Context) models.User {
	user, _ := ctx.Get(userKey)
	resolved, _ := user.(models.User)
	return resolved
}

// authRequired validates the bearer token against issued access tokens.
func authRequired(state *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header missing"})
			c.Abort()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid authorization header format"})
			c.Abort()
			return
		}
		user, ok := state.UserForToken(parts[1])
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired"})
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// NewRouter wires the stub's REST surface onto a gin engine.
func NewRouter(handlers *Handlers, state *State) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/api/login/", handlers.Login)
	router.POST("/api/token/refresh/", handlers.RefreshToken)
	router.POST("/api/users/", handlers.Register)

	authed := router.Group("/", authRequired(state))
	authed.GET("/api/profile/", handlers.Profile)
	authed.GET("/api/orders/", handlers.ListOrders)
	authed.POST("/api/orders/", handlers.CreateOrder)
	authed.PATCH("/api/orders/:id/", handlers.PatchOrder)
	authed.POST("/api/order-items/", handlers.CreateOrderItem)
	authed.GET("/api/staff-order-list/", handlers.StaffOrderList)
	authed.POST("/api/send-delivery-otp/:id/", handlers.SendDeliveryOTP)
	authed.POST("/api/verify-delivery-otp/:id/", handlers.VerifyDeliveryOTP)
	authed.POST("/api/payment/create-order/", handlers.CreatePaymentOrder)
	authed.POST("/api/payment/verify-payment/", handlers.VerifyPayment)

	return router
}
