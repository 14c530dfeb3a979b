package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"laundry-client/logger"
	"laundry-client/src/booking"
	"laundry-client/src/client"
	"laundry-client/src/config"
	"laundry-client/src/events"
	"laundry-client/src/models"
	"laundry-client/src/orders"
	"laundry-client/src/payment"
	"laundry-client/src/schemas"
	"laundry-client/src/session"
	"laundry-client/src/storage"
	"laundry-client/src/stub"
)

const usage = `usage: laundry <command> [flags]

commands:
  login       authenticate and store the session tokens
  register    create a new account
  logout      clear the stored session
  whoami      show the current user profile
  book        place a new pickup/delivery booking
  orders      list your orders
  watch       follow your orders, refreshing every 5s
  staff-list  list all orders (staff)
  dashboard   show the staff dashboard aggregate
  advance     move an order to its next status (staff)
  pay         pay for an order online
  listen      follow order-status events from the broker
  stub        run the local development backend
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg := loadConfig()
	logger.Init(cfg.LogLevel)

	var err error
	switch os.Args[1] {
	case "login":
		err = cmdLogin(cfg, os.Args[2:])
	case "register":
		err = cmdRegister(cfg, os.Args[2:])
	case "logout":
		err = cmdLogout(cfg)
	case "whoami":
		err = cmdWhoami(cfg)
	case "book":
		err = cmdBook(cfg, os.Args[2:])
	case "orders":
		err = cmdOrders(cfg)
	case "watch":
		err = cmdWatch(cfg)
	case "staff-list":
		err = cmdStaffList(cfg, os.Args[2:])
	case "dashboard":
		err = cmdDashboard(cfg)
	case "advance":
		err = cmdAdvance(cfg, os.Args[2:])
	case "pay":
		err = cmdPay(cfg, os.Args[2:])
	case "listen":
		err = cmdListen(cfg)
	case "stub":
		err = cmdStub(cfg)
	default:
		fmt.Print(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() config.GlobalConfig {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}
	return cfg
}

// app bundles the client-side services every command needs.
type app struct {
	session  *session.Manager
	orders   *orders.Service
	payments *payment.Service
}

func newApp(cfg config.GlobalConfig) (*app, error) {
	tokens, err := storage.NewFileStore(cfg.TokenPath)
	if err != nil {
		return nil, err
	}
	api := client.New(cfg.APIBaseURL, tokens, logger.Logger)
	return &app{
		session:  session.NewManager(api, tokens, logger.Logger),
		orders:   orders.NewService(api, logger.Logger),
		payments: payment.NewService(api, logger.Logger),
	}, nil
}

// resume restores the stored session and fails when none exists.
func (a *app) resume(ctx context.Context) (*models.User, error) {
	user, err := a.session.Resume(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("not logged in; run `laundry login` first")
	}
	return user, nil
}

func cmdLogin(cfg config.GlobalConfig, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)
	if *email == "" || *password == "" {
		return fmt.Errorf("email and password are required")
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	user, err := a.session.Login(context.Background(), schemas.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func cmdRegister(cfg config.GlobalConfig, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	password := fs.String("password", "", "password")
	role := fs.String("role", "", "account role (staff accounts only)")
	fs.Parse(args)
	if *name == "" || *email == "" || *password == "" {
		return fmt.Errorf("name, email and password are required")
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	err = a.session.Register(context.Background(), schemas.RegisterRequest{
		Name:        *name,
		Email:       *email,
		PhoneNumber: *phone,
		Password:    *password,
		Role:        *role,
	})
	if err != nil {
		return err
	}
	fmt.Println("Account created; you can now log in.")
	return nil
}

func cmdLogout(cfg config.GlobalConfig) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	a.session.Logout()
	fmt.Println("Logged out.")
	return nil
}

func cmdWhoami(cfg config.GlobalConfig) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	user, err := a.resume(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

// itemsFlag collects repeated -item flags of the form
// name:service:quantity:unit-price.
type itemsFlag []booking.Item

func (f *itemsFlag) String() string { return fmt.Sprintf("%d items", len(*f)) }

func (f *itemsFlag) Set(raw string) error {
	parts := strings.Split(raw, ":")
	if len(parts) != 4 {
		return fmt.Errorf("item must be name:service:quantity:unit-price")
	}
	qty, err := strconv.Atoi(parts[2])
	if err != nil || qty <= 0 {
		return fmt.Errorf("item quantity must be a positive integer")
	}
	price, err := decimal.NewFromString(parts[3])
	if err != nil {
		return fmt.Errorf("item unit price must be a decimal number")
	}
	*f = append(*f, booking.Item{
		ItemName:    parts[0],
		ServiceName: parts[1],
		Quantity:    qty,
		UnitPrice:   price,
	})
	return nil
}

func cmdBook(cfg config.GlobalConfig, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	name := fs.String("name", "", "contact name")
	phone := fs.String("phone", "", "contact phone number")
	pickup := fs.String("pickup", "", "pickup time (RFC 3339, e.g. 2026-09-01T10:00:00Z)")
	address := fs.String("address", "", "pickup address")
	deliveryAddress := fs.String("delivery-address", "", "delivery address (defaults to pickup address)")
	payMode := fs.String("pay", "Cash", "payment mode: Cash or Online")
	var items itemsFlag
	fs.Var(&items, "item", "booking line as name:service:quantity:unit-price (repeatable)")
	fs.Parse(args)
	if *name == "" || *phone == "" || *pickup == "" || *address == "" || len(items) == 0 {
		return fmt.Errorf("name, phone, pickup, address and at least one -item are required")
	}
	pickupTime, err := time.Parse(time.RFC3339, *pickup)
	if err != nil {
		return fmt.Errorf("invalid pickup time: %w", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	user, err := a.resume(ctx)
	if err != nil {
		return err
	}

	req := booking.Request{
		Name:            *name,
		PhoneNumber:     *phone,
		PickupTime:      pickupTime,
		PickupAddress:   *address,
		DeliveryAddress: *deliveryAddress,
		PaymentMode:     *payMode,
		Items:           items,
	}
	quote := booking.NewQuote(items)
	fmt.Printf("Subtotal %s, delivery %s, GST %s, total %s\n",
		quote.Subtotal.StringFixed(2), quote.DeliveryCharge.StringFixed(2),
		quote.GST.StringFixed(2), quote.Total.StringFixed(2))

	created, err := a.orders.Create(ctx, req.Order(user.ID))
	if err != nil {
		return err
	}
	if err := a.orders.CreateItems(ctx, req.OrderItems(created.OrderID)); err != nil {
		return fmt.Errorf("order %d was created but its items failed: %w", created.OrderID, err)
	}
	fmt.Printf("Booking confirmed: order #%d\n", created.OrderID)
	return nil
}

func printOrders(list []models.Order) {
	for _, o := range list {
		fmt.Printf("#%-4d %-16s payment=%-8s total=%s  %s -> %s\n",
			o.OrderID, o.OrderStatus, o.PaymentStatus,
			o.TotalAmount.StringFixed(2), o.PickupLocation, o.DeliveryLocation)
	}
}

func cmdOrders(cfg config.GlobalConfig) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	user, err := a.resume(ctx)
	if err != nil {
		return err
	}
	list, err := a.orders.ForUser(ctx, user.ID)
	if err != nil {
		return err
	}
	printOrders(list)
	return nil
}

func cmdWatch(cfg config.GlobalConfig) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	user, err := a.resume(ctx)
	if err != nil {
		return err
	}
	seed, err := a.orders.ForUser(ctx, user.ID)
	if err != nil {
		return err
	}
	printOrders(seed)

	fetch := func(ctx context.Context) ([]models.Order, error) {
		return a.orders.ForUser(ctx, user.ID)
	}
	watcher := orders.NewWatcher(fetch, orders.CustomerPollInterval, seed, logger.Logger)
	go watcher.Run(ctx)
	for snapshot := range watcher.Updates() {
		fmt.Println("---", time.Now().Format(time.TimeOnly))
		printOrders(snapshot)
	}
	return nil
}

func cmdStaffList(cfg config.GlobalConfig, args []string) error {
	fs := flag.NewFlagSet("staff-list", flag.ExitOnError)
	status := fs.String("status", "", "filter by order status")
	fs.Parse(args)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if _, err := a.resume(ctx); err != nil {
		return err
	}
	list, err := a.orders.All(ctx)
	if err != nil {
		return err
	}
	printOrders(orders.FilterByStatus(list, models.OrderStatus(*status)))
	return nil
}

func cmdDashboard(cfg config.GlobalConfig) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if _, err := a.resume(ctx); err != nil {
		return err
	}
	list, err := a.orders.StaffList(ctx)
	if err != nil {
		return err
	}
	stats := orders.Stats(list)
	fmt.Printf("To pickup: %d\nIn transit: %d\nTo deliver: %d\nCompleted: %d\n",
		stats.ToPickup, stats.InTransit, stats.ToDeliver, stats.Completed)
	fmt.Println("Recent orders:")
	printOrders(orders.Active(list, 5))
	return nil
}

// stdinPrompter reads the delivery OTP from the terminal.
type stdinPrompter struct{}

func (stdinPrompter) Prompt(orderID int) (string, error) {
	fmt.Printf("Enter OTP for order #%d: ", orderID)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func cmdAdvance(cfg config.GlobalConfig, args []string) error {
	fs := flag.NewFlagSet("advance", flag.ExitOnError)
	orderID := fs.Int("order", 0, "order id to advance")
	fs.Parse(args)
	if *orderID == 0 {
		return fmt.Errorf("-order is required")
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if _, err := a.resume(ctx); err != nil {
		return err
	}
	list, err := a.orders.All(ctx)
	if err != nil {
		return err
	}
	var order *models.Order
	for i := range list {
		if list[i].OrderID == *orderID {
			order = &list[i]
			break
		}
	}
	if order == nil {
		return fmt.Errorf("order %d not found", *orderID)
	}

	next, ok := models.NextStatus(order.OrderStatus)
	if !ok {
		return fmt.Errorf("order %d is already %s", order.OrderID, order.OrderStatus)
	}
	if next == models.StatusDelivered {
		if err := a.orders.ConfirmDelivery(ctx, order, stdinPrompter{}); err != nil {
			return err
		}
	} else {
		if err := a.orders.Advance(ctx, order, next); err != nil {
			return err
		}
	}
	fmt.Printf("Order #%d is now %s\n", order.OrderID, order.OrderStatus)
	return nil
}

func cmdPay(cfg config.GlobalConfig, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	orderID := fs.Int("order", 0, "order id to pay for")
	fs.Parse(args)
	if *orderID == 0 {
		return fmt.Errorf("-order is required")
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	user, err := a.resume(ctx)
	if err != nil {
		return err
	}
	order, err := a.orders.Get(ctx, user.ID, *orderID)
	if err != nil {
		return err
	}

	gatewaySession, err := a.payments.CreateSession(ctx, order)
	if err != nil {
		return err
	}
	fmt.Printf("Gateway session %s for %s %s\n",
		gatewaySession.ID, payment.FromMinorUnits(gatewaySession.Amount).StringFixed(2), gatewaySession.Currency)
	fmt.Println("Complete the checkout, then paste the gateway result.")

	reader := bufio.NewReader(os.Stdin)
	checkout := payment.CheckoutResult{OrderID: gatewaySession.ID}
	fmt.Print("payment id: ")
	if checkout.PaymentID, err = readLine(reader); err != nil {
		return err
	}
	fmt.Print("signature: ")
	if checkout.Signature, err = readLine(reader); err != nil {
		return err
	}

	result := a.payments.Verify(ctx, order.OrderID, checkout)
	if !result.Verified {
		return fmt.Errorf("%s", result.Reason)
	}
	fmt.Println("Payment verified.")
	return nil
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func cmdListen(cfg config.GlobalConfig) error {
	if cfg.AMQPUrl == "" {
		return fmt.Errorf("AMQP_URL is not configured")
	}
	subscriber, err := events.NewSubscriber(cfg.AMQPUrl, logger.Logger)
	if err != nil {
		return err
	}
	defer subscriber.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := subscriber.Listen(ctx, cfg.StatusExchange)
	if err != nil {
		return err
	}
	fmt.Println("Listening for order-status events...")
	for event := range stream {
		fmt.Printf("order #%d -> %s\n", event.OrderID, event.OrderStatus)
	}
	return nil
}

func cmdStub(cfg config.GlobalConfig) error {
	server, err := stub.NewServer(cfg.StubAddr, cfg.AMQPUrl, cfg.StatusExchange)
	if err != nil {
		return err
	}
	return server.Run()
}
