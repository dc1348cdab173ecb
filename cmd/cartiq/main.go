// Command cartiq is an interactive storefront client: browse the catalog,
// manage a cart, place orders and talk to the shopping assistant, with
// analytics dispatched in the background the whole time.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/api"
	"github.com/cartiq/cartiq-go/internal/config"
	"github.com/cartiq/cartiq-go/internal/domain"
	"github.com/cartiq/cartiq-go/internal/events"
	"github.com/cartiq/cartiq-go/internal/observability"
	"github.com/cartiq/cartiq-go/internal/services"
	"github.com/cartiq/cartiq-go/internal/session"
	"github.com/cartiq/cartiq-go/internal/state"
	"github.com/cartiq/cartiq-go/internal/sysutil"
	"github.com/cartiq/cartiq-go/internal/utils"
)

const version = "0.1.0"

// app bundles the wired services for the command loop.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	client   *api.Client
	session  *session.Store
	recency  *session.Recency
	events   *events.Dispatcher
	auth     *services.AuthService
	cart     *services.CartService
	orders   *services.OrderService
	listing  *services.ListingController
	chat     *services.ChatController
	liveView *events.ViewTracker
}

// chatSignals adapts the live services to the chat controller's signal
// interface.
type chatSignals struct {
	auth    *services.AuthService
	cart    *services.CartService
	recency *session.Recency
}

func (s chatSignals) UserID() string             { return s.auth.UserID() }
func (s chatSignals) RecentProductIDs() []string { return s.recency.ProductIDs() }
func (s chatSignals) RecentCategories() []string { return s.recency.Categories() }
func (s chatSignals) CartProductIDs() []string   { return s.cart.Cart().ProductIDs() }
func (s chatSignals) CartTotal() *float64 {
	c := s.cart.Cart()
	if c == nil {
		return nil
	}
	t := c.TotalAmount
	return &t
}

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	log := sysutil.NewLogger(os.Stderr, cfg.LogPretty)

	shutdown, err := observability.SetupOTel(context.Background(), cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	durable, err := state.OpenSQLite(cfg.StateDBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StateDBPath).Msg("state db open failed")
	}
	defer durable.Close()

	ephemeral := state.NewMemoryStore()
	sess := session.NewStore(ephemeral, log)
	recency := session.NewRecency(ephemeral, log)

	a := &app{cfg: cfg, log: log, session: sess, recency: recency}

	var auth *services.AuthService
	a.client = api.New(cfg.APIURL,
		api.WithLogger(log),
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		api.WithTokenSource(func() string {
			if auth == nil {
				return ""
			}
			return auth.Token()
		}),
	)

	a.events = events.NewDispatcher(a.client, sess.ID, func() string {
		if auth == nil {
			return ""
		}
		return auth.UserID()
	}, log, events.Options{
		QueueSize: cfg.Events.QueueSize,
		RPS:       cfg.Events.RPS,
		Burst:     cfg.Events.Burst,
		UserAgent: cfg.UserAgent,
	})
	defer a.events.Close()

	auth = services.NewAuthService(a.client, durable, a.events, log)
	a.auth = auth
	a.cart = services.NewCartService(a.client, a.events, auth, log)
	a.orders = services.NewOrderService(a.client, a.events, a.cart, log)
	a.listing = services.NewListingController(a.client, cfg.PageSize, log)
	a.chat = services.NewChatController(a.client, chatSignals{auth: auth, cart: a.cart, recency: recency}, cfg.Currency, log)

	ctx := context.Background()
	if err := auth.Refresh(ctx); err != nil {
		log.Debug().Err(err).Msg("stored session no longer valid")
	}
	if err := a.cart.Load(ctx); err != nil {
		log.Debug().Err(err).Msg("cart load failed")
	}

	a.events.PageView(domain.PageHome, "/", cfg.APIURL+"/", "")
	a.repl()
}

func (a *app) repl() {
	fmt.Printf("cartiq %s — type 'help' for commands\n", version)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		if cmd == "quit" || cmd == "exit" {
			a.endView()
			return
		}
		a.dispatch(strings.ToLower(cmd), rest)
	}
}

func (a *app) dispatch(cmd, rest string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "help":
		printHelp()
	case "register":
		a.register(ctx, rest)
	case "login":
		a.login(ctx, rest)
	case "logout":
		if err := a.auth.Logout(ctx); err == nil {
			_ = a.cart.Load(ctx)
			fmt.Println("signed out")
		}
	case "whoami":
		if u := a.auth.User(); u != nil {
			fmt.Printf("%s %s <%s>\n", u.FirstName, u.LastName, u.Email)
		} else {
			fmt.Println("not signed in")
		}
	case "browse":
		a.browse(ctx, services.Filter{})
	case "search":
		a.browse(ctx, services.Filter{Search: rest})
	case "featured":
		a.browse(ctx, services.Filter{Featured: true})
	case "more":
		a.more(ctx)
	case "view":
		a.view(ctx, rest)
	case "suggest":
		a.suggest(ctx)
	case "add":
		a.add(ctx, rest)
	case "cart":
		a.showCart()
	case "qty":
		a.updateQty(ctx, rest)
	case "rm":
		a.removeLine(ctx, rest)
	case "clear":
		if err := a.cart.Clear(ctx); err != nil {
			fmt.Println("error:", err)
		}
	case "checkout":
		a.checkout(ctx)
	case "orders":
		a.listOrders(ctx)
	case "cancel":
		a.cancelOrder(ctx, rest)
	case "chat":
		a.sendChat(ctx, rest)
	case "compare":
		a.toggleCompare(rest)
	case "compare!":
		a.runCompare(ctx)
	default:
		fmt.Println("unknown command; try 'help'")
	}
}

func printHelp() {
	fmt.Print(`account:   register <email> <password>, login <email> <password>, logout, whoami
catalog:   browse, search <text>, featured, more, view <product-id>, suggest
cart:      add <product-id> [qty], cart, qty <line-id> <n>, rm <line-id>, clear
orders:    checkout, orders, cancel <order-id>
assistant: chat <message>, compare <product-id>, compare!, quit
`)
}

func (a *app) register(ctx context.Context, rest string) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		fmt.Println("usage: register <email> <password>")
		return
	}
	err := a.auth.Register(ctx, domain.RegisterRequest{Email: fields[0], Password: fields[1]})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	_ = a.cart.Load(ctx)
	fmt.Println("registered and signed in as", fields[0])
}

func (a *app) login(ctx context.Context, rest string) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		fmt.Println("usage: login <email> <password>")
		return
	}
	err := a.auth.Login(ctx, domain.LoginRequest{Email: fields[0], Password: fields[1]})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	_ = a.cart.Load(ctx)
	fmt.Println("signed in as", fields[0])
}

func (a *app) browse(ctx context.Context, f services.Filter) {
	a.endView()
	if err := a.listing.SetFilter(ctx, f); err != nil {
		fmt.Println("error:", err)
		return
	}
	page := domain.PageHome
	if f.Search != "" {
		page = domain.PageCategory
	}
	a.events.PageView(page, "/products", a.cfg.APIURL+"/products", "")
	a.printListing()
}

func (a *app) more(ctx context.Context) {
	if !a.listing.ShouldLoadMore() {
		fmt.Println("no more results")
		return
	}
	if err := a.listing.LoadMore(ctx); err != nil {
		fmt.Println("error:", err)
		return
	}
	a.printListing()
}

func (a *app) printListing() {
	items := a.listing.Items()
	for _, p := range items {
		fmt.Printf("  %-8s %-32s %10s  %s\n", p.ID, p.Name, utils.FormatPrice(p.Price, a.cfg.Currency), p.CategoryName)
	}
	fmt.Printf("showing %d of %d", len(items), a.listing.Total())
	if a.listing.HasMore() {
		fmt.Print("  (type 'more')")
	}
	fmt.Println()
}

func (a *app) view(ctx context.Context, id string) {
	if id == "" {
		fmt.Println("usage: view <product-id>")
		return
	}
	a.endView()
	p, err := a.client.Product(ctx, id)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	a.recency.TouchProduct(p.ID)
	a.recency.TouchCategory(p.CategoryName)
	a.events.PageView(domain.PageProduct, "/products/"+p.ID, a.cfg.APIURL+"/products/"+p.ID, "")
	a.liveView = a.events.StartView(events.ViewParams{
		ProductID:   p.ID,
		ProductName: p.Name,
		Category:    p.CategoryName,
		Price:       p.Price,
		Source:      domain.SourceDirect,
	})
	fmt.Printf("%s — %s\n%s\nrating %.1f (%d reviews), %s\n",
		p.Name, utils.FormatPrice(p.Price, a.cfg.Currency), p.Description, p.Rating, p.ReviewCount, stockLabel(p))
}

// endView closes the open product view, emitting its duration event.
func (a *app) endView() {
	if a.liveView != nil {
		a.liveView.Finish()
		a.liveView = nil
	}
}

func stockLabel(p *domain.Product) string {
	if p.InStock {
		return fmt.Sprintf("%d in stock", p.StockQuantity)
	}
	return "out of stock"
}

func (a *app) suggest(ctx context.Context) {
	resp, err := a.client.Suggestions(ctx, 5, a.auth.UserID())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, p := range resp.Products {
		fmt.Printf("  %-8s %-32s %10s\n", p.ID, p.Name, utils.FormatPrice(p.Price, a.cfg.Currency))
	}
}

func (a *app) add(ctx context.Context, rest string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		fmt.Println("usage: add <product-id> [qty]")
		return
	}
	qty := 1
	if len(fields) > 1 {
		qty = utils.AtoiDefault(fields[1], 1)
	}
	p, err := a.client.Product(ctx, fields[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	meta := services.ItemMeta{Name: p.Name, Price: p.Price, Category: p.CategoryName}
	if err := a.cart.AddItem(ctx, p.ID, qty, meta); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("added %dx %s\n", qty, p.Name)
}

func (a *app) showCart() {
	cart := a.cart.Cart()
	if cart == nil || len(cart.Items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, line := range cart.Items {
		fmt.Printf("  %-10s %dx %-30s %10s\n", line.ID, line.Quantity, line.ProductName,
			utils.FormatPrice(line.Subtotal, a.cfg.Currency))
	}
	fmt.Printf("total: %s (%d items)\n", utils.FormatPrice(cart.TotalAmount, a.cfg.Currency), cart.TotalItems)
}

func (a *app) updateQty(ctx context.Context, rest string) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		fmt.Println("usage: qty <line-id> <n>")
		return
	}
	if err := a.cart.UpdateQuantity(ctx, fields[0], utils.AtoiDefault(fields[1], 1)); err != nil {
		fmt.Println("error:", err)
	}
}

func (a *app) removeLine(ctx context.Context, lineID string) {
	if lineID == "" {
		fmt.Println("usage: rm <line-id>")
		return
	}
	if err := a.cart.RemoveItem(ctx, lineID); err != nil {
		fmt.Println("error:", err)
	}
}

func (a *app) checkout(ctx context.Context) {
	a.events.PageView(domain.PageCheckout, "/checkout", a.cfg.APIURL+"/checkout", "")
	order, err := a.orders.Create(ctx, domain.CreateOrderRequest{
		ShippingAddress: "1 Demo Street",
		ShippingCity:    "Pune",
		ShippingZipCode: "411001",
		ShippingCountry: "IN",
		ContactPhone:    "555-0100",
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	_ = a.cart.Load(ctx)
	fmt.Printf("order %s placed: %s\n", order.OrderNumber, utils.FormatPrice(order.TotalAmount, a.cfg.Currency))
}

func (a *app) listOrders(ctx context.Context) {
	page, err := a.orders.List(ctx, 0, 10, "")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, o := range page.Content {
		fmt.Printf("  %-38s %-10s %-10s %s\n", o.ID, o.OrderNumber, o.Status,
			utils.FormatPrice(o.TotalAmount, a.cfg.Currency))
	}
	if page.TotalElements == 0 {
		fmt.Println("no orders yet")
	}
}

func (a *app) cancelOrder(ctx context.Context, id string) {
	if id == "" {
		fmt.Println("usage: cancel <order-id>")
		return
	}
	order, err := a.orders.Cancel(ctx, id)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("order %s cancelled\n", order.OrderNumber)
}

func (a *app) sendChat(ctx context.Context, text string) {
	if text == "" {
		fmt.Println("usage: chat <message>")
		return
	}
	a.chat.Send(ctx, text)
	a.printLastReply()
}

func (a *app) printLastReply() {
	msgs := a.chat.Messages()
	last := msgs[len(msgs)-1]
	fmt.Println("assistant:", last.Content)
	for _, p := range last.Products {
		marker := " "
		if a.chat.InCompare(p.ID) {
			marker = "*"
		}
		fmt.Printf("  %s %-8s %-32s %10s  %s\n", marker, p.ID, p.Name,
			utils.FormatPrice(p.Price, a.cfg.Currency), p.Reason)
	}
}

// toggleCompare looks the product up in the latest assistant reply.
func (a *app) toggleCompare(id string) {
	if id == "" {
		fmt.Println("usage: compare <product-id>")
		return
	}
	msgs := a.chat.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		for _, p := range msgs[i].Products {
			if p.ID == id {
				a.chat.ToggleCompare(p)
				fmt.Printf("comparing %d product(s)\n", len(a.chat.CompareSelection()))
				return
			}
		}
	}
	fmt.Println("product not in any assistant reply")
}

func (a *app) runCompare(ctx context.Context) {
	if len(a.chat.CompareSelection()) != 2 {
		fmt.Println("select exactly two products first")
		return
	}
	a.chat.Compare(ctx)
	a.printLastReply()
}
