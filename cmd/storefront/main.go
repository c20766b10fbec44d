package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/savoria-app/storefront-client/internal/api"
	"github.com/savoria-app/storefront-client/internal/cart"
	"github.com/savoria-app/storefront-client/internal/checkout"
	"github.com/savoria-app/storefront-client/internal/menu"
	"github.com/savoria-app/storefront-client/internal/notifications"
	"github.com/savoria-app/storefront-client/internal/orders"
	"github.com/savoria-app/storefront-client/internal/profile"
	"github.com/savoria-app/storefront-client/internal/reservations"
	"github.com/savoria-app/storefront-client/internal/reviews"
	"github.com/savoria-app/storefront-client/internal/rewards"
	"github.com/savoria-app/storefront-client/internal/session"
	"github.com/savoria-app/storefront-client/pkg/config"
	pkgerrors "github.com/savoria-app/storefront-client/pkg/errors"
	"github.com/savoria-app/storefront-client/pkg/logger"
	"github.com/savoria-app/storefront-client/pkg/metrics"
	"github.com/savoria-app/storefront-client/pkg/storage"
)

const usage = `usage: storefront <command> [args]

commands:
  menu [search]                        browse the menu
  login <phone> <password>             sign in
  logout                               sign out
  whoami                               show the current account
  cart show                            show cart lines and totals
  cart add <item-id> [qty]             add a menu item
  cart set <item-id> <qty>             set a line quantity
  cart rm <item-id>                    remove a line
  cart clear                           empty the cart
  checkout <type> <phone> [address]    place the order (DELIVERY|PICKUP|DINE_IN)
  orders                               list order history
  book <date> <time> <party-size>      reserve a table
  reservations                         list reservations
  rewards                              show points balance and offers
  review <item-id> <rating> [comment]  review a menu item
  inbox                                list notifications
`

type app struct {
	logg          *logger.Logger
	session       *session.Manager
	cart          *cart.Aggregator
	menu          *menu.Service
	checkout      *checkout.Service
	orders        *orders.Service
	reservations  *reservations.Service
	rewards       *rewards.Service
	reviews       *reviews.Service
	notifications *notifications.Service
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.Storage, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(ctx, "error closing local storage", err)
		}
	}()

	tokens := api.NewTokenStore(store, logg)
	requestMetrics := metrics.NewRequestMetrics(prometheus.DefaultRegisterer)
	client, err := api.NewClient(api.Params{
		Config:  cfg.API,
		Tokens:  tokens,
		Logger:  logg,
		Metrics: requestMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to build api client", err)
		os.Exit(1)
	}

	profiles, err := profile.NewService(client)
	if err != nil {
		logg.Error(ctx, "failed to create profile service", err)
		os.Exit(1)
	}
	notifSvc, err := notifications.NewService(client)
	if err != nil {
		logg.Error(ctx, "failed to create notifications service", err)
		os.Exit(1)
	}
	menuSvc, err := menu.NewService(client)
	if err != nil {
		logg.Error(ctx, "failed to create menu service", err)
		os.Exit(1)
	}
	orderSvc, err := orders.NewService(client)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}
	reservationSvc, err := reservations.NewService(client)
	if err != nil {
		logg.Error(ctx, "failed to create reservations service", err)
		os.Exit(1)
	}
	rewardSvc, err := rewards.NewService(client)
	if err != nil {
		logg.Error(ctx, "failed to create rewards service", err)
		os.Exit(1)
	}
	reviewSvc, err := reviews.NewService(client)
	if err != nil {
		logg.Error(ctx, "failed to create reviews service", err)
		os.Exit(1)
	}

	sessionMgr, err := session.NewManager(session.Params{
		API:        client,
		Tokens:     tokens,
		Profiles:   profiles,
		Push:       notifSvc,
		PushConfig: cfg.Push,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	cartAgg := cart.NewAggregator(ctx, store, logg)

	checkoutSvc, err := checkout.NewService(checkout.Params{
		API:    client,
		Cart:   cartAgg,
		Auth:   sessionMgr,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	sessionMgr.Bootstrap(ctx)

	a := &app{
		logg:          logg,
		session:       sessionMgr,
		cart:          cartAgg,
		menu:          menuSvc,
		checkout:      checkoutSvc,
		orders:        orderSvc,
		reservations:  reservationSvc,
		rewards:       rewardSvc,
		reviews:       reviewSvc,
		notifications: notifSvc,
	}

	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, pkgerrors.PublicMessage(err))
		logg.Error(ctx, "command failed", err)
		if cerr := store.Close(); cerr != nil {
			logg.Error(ctx, "error closing local storage", cerr)
		}
		os.Exit(1)
	}
	if err := store.Flush(ctx); err != nil {
		logg.Error(ctx, "flushing local storage", err)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	switch args[0] {
	case "menu":
		return a.showMenu(ctx, args[1:])
	case "login":
		return a.login(ctx, args[1:])
	case "logout":
		a.session.SignOut(ctx)
		fmt.Println("signed out")
		return nil
	case "whoami":
		return a.whoami()
	case "cart":
		return a.cartCommand(ctx, args[1:])
	case "checkout":
		return a.placeOrder(ctx, args[1:])
	case "orders":
		return a.listOrders(ctx)
	case "book":
		return a.book(ctx, args[1:])
	case "reservations":
		return a.listReservations(ctx)
	case "rewards":
		return a.showRewards(ctx)
	case "review":
		return a.addReview(ctx, args[1:])
	case "inbox":
		return a.showInbox(ctx)
	default:
		fmt.Print(usage)
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown command %q", args[0]))
	}
}

func (a *app) showMenu(ctx context.Context, args []string) error {
	query := menu.ItemsQuery{}
	if len(args) > 0 {
		query.Search = strings.Join(args, " ")
	}
	items, err := a.menu.Items(ctx, query)
	if err != nil {
		return err
	}
	for _, item := range items {
		marker := " "
		if !item.IsAvailable {
			marker = "x"
		}
		fmt.Printf("%s %-36s  %-30s %8s\n", marker, item.ID, item.Name, item.Price.StringFixed(2))
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: login <phone> <password>")
	}
	user, err := a.session.SignIn(ctx, session.Credentials{PhoneNumber: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", user.Name)
	return nil
}

func (a *app) whoami() error {
	user := a.session.CurrentUser()
	if user == nil {
		fmt.Println("guest")
		return nil
	}
	fmt.Printf("%s (%s) role=%s\n", user.Name, user.PhoneNumber, user.Role)
	return nil
}

func (a *app) cartCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
		for _, line := range a.cart.Lines() {
			fmt.Printf("%-36s  %-30s x%-3d %8s\n", line.Item.ID, line.Item.Name, line.Quantity, line.Item.UnitPrice.StringFixed(2))
		}
		fmt.Printf("items: %d  subtotal: %s\n", a.cart.Count(), a.cart.Subtotal().StringFixed(2))
		return nil
	case "add":
		if len(args) < 2 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: cart add <item-id> [qty]")
		}
		itemID, err := uuid.Parse(args[1])
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item id must be a uuid")
		}
		qty := 1
		if len(args) > 2 {
			qty, err = strconv.Atoi(args[2])
			if err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a number")
			}
		}
		items, err := a.menu.Items(ctx, menu.ItemsQuery{})
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.ID == itemID {
				return a.cart.Add(ctx, item.Snapshot(), qty)
			}
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	case "set":
		if len(args) != 3 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: cart set <item-id> <qty>")
		}
		itemID, err := uuid.Parse(args[1])
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item id must be a uuid")
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a number")
		}
		a.cart.SetQuantity(ctx, itemID, qty)
		return nil
	case "rm":
		if len(args) != 2 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: cart rm <item-id>")
		}
		itemID, err := uuid.Parse(args[1])
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item id must be a uuid")
		}
		a.cart.Remove(ctx, itemID)
		return nil
	case "clear":
		a.cart.Clear(ctx)
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown cart command %q", args[0]))
	}
}

func (a *app) placeOrder(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: checkout <type> <phone> [address]")
	}
	input := checkout.Input{
		OrderType:    orders.OrderType(strings.ToUpper(args[0])),
		ContactPhone: args[1],
	}
	if len(args) > 2 {
		input.DeliveryAddress = strings.Join(args[2:], " ")
	}
	order, err := a.checkout.Submit(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed, status %s\n", order.ID, order.Status)
	return nil
}

func (a *app) listOrders(ctx context.Context) error {
	history, err := a.orders.List(ctx)
	if err != nil {
		return err
	}
	for _, order := range history {
		fmt.Printf("%-36s  %-10s %-8s %8s  %s\n", order.ID, order.Status, order.OrderType, order.Total.StringFixed(2), order.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: book <date> <time> <party-size>")
	}
	size, err := strconv.Atoi(args[2])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "party size must be a number")
	}
	reservation, err := a.reservations.Create(ctx, reservations.Input{Date: args[0], Time: args[1], PartySize: size})
	if err != nil {
		return err
	}
	fmt.Printf("reservation %s for %d on %s %s, status %s\n", reservation.ID, reservation.PartySize, reservation.Date, reservation.Time, reservation.Status)
	return nil
}

func (a *app) showRewards(ctx context.Context) error {
	summary, err := a.rewards.Summary(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("balance: %d points\n", summary.Balance)
	for _, reward := range summary.Rewards {
		fmt.Printf("%-36s  %-30s %6d pts\n", reward.ID, reward.Title, reward.PointsCost)
	}
	return nil
}

func (a *app) addReview(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: review <item-id> <rating> [comment]")
	}
	itemID, err := uuid.Parse(args[0])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id must be a uuid")
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be a number")
	}
	input := reviews.Input{MenuItemID: itemID, Rating: rating}
	if len(args) > 2 {
		input.Comment = strings.Join(args[2:], " ")
	}
	review, err := a.reviews.Add(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("review %s saved\n", review.ID)
	return nil
}

func (a *app) showInbox(ctx context.Context) error {
	items, err := a.notifications.List(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		marker := " "
		if !item.IsRead {
			marker = "*"
		}
		fmt.Printf("%s %-40s %s\n", marker, item.Title, item.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) listReservations(ctx context.Context) error {
	items, err := a.reservations.List(ctx)
	if err != nil {
		return err
	}
	for _, reservation := range items {
		fmt.Printf("%-36s  %s %s  party=%d  %s\n", reservation.ID, reservation.Date, reservation.Time, reservation.PartySize, reservation.Status)
	}
	return nil
}
