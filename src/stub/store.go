package stub

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"laundry-client/src/models"
)

// account is a stub user with its plaintext password. Good enough for a
// development fixture, nothing more.
type account struct {
	User     models.User
	Password string
}

// State is the in-memory backend state of the development stub.
type State struct {
	mu sync.Mutex

	accounts      []account
	accessTokens  map[string]int // access token -> user id
	refreshTokens map[string]int // refresh token -> user id
	orders        map[int]*models.Order
	items         []models.OrderItem
	otps          map[int]string // order id -> pending OTP
	nextUserID    int
	nextOrderID   int

	rng *rand.Rand
}

// NewState creates stub state seeded with a demo customer and a demo
// staff account.
func NewState() *State {
	s := &State{
		accessTokens:  make(map[string]int),
		refreshTokens: make(map[string]int),
		orders:        make(map[int]*models.Order),
		otps:          make(map[int]string),
		nextUserID:    1,
		nextOrderID:   1,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.addAccount(models.User{
		Name:        "Demo Customer",
		Email:       "customer@example.com",
		PhoneNumber: "9000000001",
		Role:        "customer",
	}, "password")
	s.addAccount(models.User{
		Name:        "Demo Staff",
		Email:       "staff@example.com",
		PhoneNumber: "9000000002",
		Role:        "staff",
		IsStaff:     true,
	}, "password")
	return s
}

func (s *State) addAccount(user models.User, password string) models.User {
	user.ID = s.nextUserID
	s.nextUserID++
	s.accounts = append(s.accounts, account{User: user, Password: password})
	return user
}

// Register adds an account, rejecting duplicate emails.
func (s *State) Register(user models.User, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.User.Email, user.Email) {
			return models.User{}, fmt.Errorf("user with this email already exists")
		}
	}
	return s.addAccount(user, password), nil
}

// Authenticate checks credentials and issues a fresh token pair.
func (s *State) Authenticate(email, password string) (models.User, string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.User.Email, email) && acc.Password == password {
			access := uuid.New().String()
			refresh := uuid.New().String()
			s.accessTokens[access] = acc.User.ID
			s.refreshTokens[refresh] = acc.User.ID
			return acc.User, access, refresh, true
		}
	}
	return models.User{}, "", "", false
}

// RefreshAccess exchanges a refresh token for a new access token.
func (s *State) RefreshAccess(refresh string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refreshTokens[refresh]
	if !ok {
		return "", false
	}
	access := uuid.New().String()
	s.accessTokens[access] = userID
	return access, true
}

// UserForToken resolves an access token to its user.
func (s *State) UserForToken(access string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.accessTokens[access]
	if !ok {
		return models.User{}, false
	}
	for _, acc := range s.accounts {
		if acc.User.ID == userID {
			return acc.User, true
		}
	}
	return models.User{}, false
}

// RevokeAccess invalidates an access token, simulating expiry.
func (s *State) RevokeAccess(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accessTokens, access)
}

// CreateOrder stores a new order and returns the server representation.
func (s *State) CreateOrder(order models.Order) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.OrderID = s.nextOrderID
	s.nextOrderID++
	order.OrderDate = time.Now()
	if order.OrderStatus == "" {
		order.OrderStatus = models.StatusOrderConfirmed
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentPending
	}
	stored := order
	s.orders[order.OrderID] = &stored
	return stored
}

// AddItem stores one order item line.
func (s *State) AddItem(item models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[item.Order]; !ok {
		return fmt.Errorf("order %d not found", item.Order)
	}
	s.items = append(s.items, item)
	return nil
}

// Orders lists orders, filtered by owner when userID is positive.
func (s *State) Orders(userID int) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for id := 1; id < s.nextOrderID; id++ {
		order, ok := s.orders[id]
		if !ok {
			continue
		}
		if userID > 0 && order.User != userID {
			continue
		}
		out = append(out, *order)
	}
	return out
}

// SetStatus updates an order's delivery status.
func (s *State) SetStatus(orderID int, status models.OrderStatus) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, fmt.Errorf("order %d not found", orderID)
	}
	order.OrderStatus = status
	return *order, nil
}

// MarkPaid flips an order's payment status to Paid.
func (s *State) MarkPaid(orderID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.orders[orderID]; ok {
		order.PaymentStatus = models.PaymentPaid
	}
}

// IssueOTP generates and stores a delivery OTP for the order.
func (s *State) IssueOTP(orderID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return "", fmt.Errorf("order %d not found", orderID)
	}
	code := fmt.Sprintf("%06d", s.rng.Intn(1000000))
	s.otps[orderID] = code
	return code, nil
}

// VerifyOTP checks the code; a match consumes the OTP and marks the order
// delivered.
func (s *State) VerifyOTP(orderID int, code string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.otps[orderID]
	if !ok || pending != code {
		return models.Order{}, false
	}
	delete(s.otps, orderID)
	order, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, false
	}
	order.OrderStatus = models.StatusDelivered
	return *order, true
}

// PendingOTP exposes the last issued OTP for an order. Tests and demo
// tooling only; the real backend sends it to the customer.
func (s *State) PendingOTP(orderID int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.otps[orderID]
	return code, ok
}

// OrderTotal returns the stored total for an order.
func (s *State) OrderTotal(orderID int) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return decimal.Zero, false
	}
	return order.TotalAmount, true
}
