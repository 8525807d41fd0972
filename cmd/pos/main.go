package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/community-vercel/alwaqas-pos/internal/api"
	"github.com/community-vercel/alwaqas-pos/internal/cart"
	"github.com/community-vercel/alwaqas-pos/internal/catalog"
	"github.com/community-vercel/alwaqas-pos/internal/checkout"
	"github.com/community-vercel/alwaqas-pos/internal/domain"
	"github.com/community-vercel/alwaqas-pos/internal/metrics"
	"github.com/community-vercel/alwaqas-pos/internal/pricing"
	"github.com/community-vercel/alwaqas-pos/internal/receipt"
	"github.com/community-vercel/alwaqas-pos/internal/session"
)

type Config struct {
	APIBaseURL      string
	DataDir         string
	ShopName        string
	StatusPort      string
	RequestTimeout  time.Duration
	SearchLimit     int
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		APIBaseURL:      getEnv("POS_API_BASE_URL", "http://localhost:8080/api"),
		DataDir:         getEnv("POS_DATA_DIR", filepathJoinHome(".alwaqas-pos")),
		ShopName:        getEnv("POS_SHOP_NAME", "Al-Waqas Hardware"),
		StatusPort:      getEnv("POS_STATUS_PORT", "9190"),
		RequestTimeout:  30 * time.Second,
		SearchLimit:     50,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func filepathJoinHome(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return home + string(os.PathSeparator) + name
}

func main() {
	cfg := loadConfig()

	store, err := session.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer store.Close()

	client := api.NewClient(cfg.APIBaseURL, store, cfg.RequestTimeout)
	catalogAPI := api.NewCatalogAPI(client)
	salesAPI := api.NewSalesAPI(client)

	meter := metrics.NewRegistry()
	cache := catalog.NewCache()
	products := catalog.NewService(catalogAPI, cache, cfg.SearchLimit)
	basket := cart.New()
	orchestrator := checkout.NewOrchestrator(salesAPI, cache, basket, meter)

	// Status server next to the terminal: health and metrics only.
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", meter.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.StatusPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("status server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := products.Refresh(ctx); err != nil {
		log.Printf("initial catalog refresh failed: %v", err)
	} else {
		meter.CatalogRefreshes.Inc()
	}

	term := &terminal{
		cfg:          cfg,
		products:     products,
		basket:       basket,
		orchestrator: orchestrator,
		meter:        meter,
		out:          os.Stdout,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		term.run(ctx, os.Stdin)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Println("shutting down...")
		cancel()
	case <-done:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("status server shutdown: %v", err)
	}
}

type terminal struct {
	cfg          *Config
	products     *catalog.Service
	basket       *cart.Cart
	orchestrator *checkout.Orchestrator
	meter        *metrics.Registry
	out          *os.File
}

func (t *terminal) run(ctx context.Context, in *os.File) {
	fmt.Fprintf(t.out, "%s POS terminal. Type 'help' for commands.\n", t.cfg.ShopName)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(t.out, "> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		if cmd == "quit" || cmd == "exit" {
			return
		}
		t.dispatch(ctx, cmd, strings.TrimSpace(rest))
	}
}

func (t *terminal) dispatch(ctx context.Context, cmd, rest string) {
	switch cmd {
	case "help":
		t.printHelp()
	case "search":
		t.search(ctx, rest)
	case "scan":
		t.scan(ctx, rest)
	case "add":
		t.add(ctx, rest)
	case "qty":
		t.setQuantity(rest)
	case "rm":
		t.report(t.basket.RemoveItem(rest))
	case "disc":
		t.setDiscount(rest)
	case "total":
		t.setManualTotal(rest)
	case "customer":
		t.setCustomer(rest)
	case "show":
		t.showCart()
	case "clear":
		t.basket.Clear()
		fmt.Fprintln(t.out, "cart cleared")
	case "pay":
		t.pay(ctx, rest)
	case "refresh":
		if err := t.products.Refresh(ctx); err != nil {
			fmt.Fprintf(t.out, "refresh failed: %v\n", err)
			return
		}
		t.meter.CatalogRefreshes.Inc()
		fmt.Fprintln(t.out, "catalog refreshed")
	case "lowstock":
		t.lowStock(ctx)
	default:
		fmt.Fprintf(t.out, "unknown command %q, try 'help'\n", cmd)
	}
}

func (t *terminal) printHelp() {
	fmt.Fprint(t.out, `commands:
  search <term>              find products by name
  scan <barcode>             find a product by exact barcode
  add <product-id>           add one unit to the cart
  qty <product-id> <n>       set line quantity (0 removes)
  rm <product-id>            remove a line
  disc <product-id> <v> [%%]  set line discount (fixed, or %% of line)
  total <amount>             manually override the grand total
  customer <name;phone;addr> attach customer info
  show                       show cart and totals
  clear                      empty the cart
  pay <amount> [method]      checkout (method defaults to cash)
  refresh                    re-fetch the product catalog
  lowstock                   list products low on stock
  quit                       exit
`)
}

func (t *terminal) search(ctx context.Context, term string) {
	found, err := t.products.Search(ctx, term)
	if errors.Is(err, catalog.ErrCatalogUnavailable) {
		t.meter.CatalogFallbacks.Inc()
		fmt.Fprintln(t.out, "(catalog offline, showing cached products)")
	} else if err != nil {
		fmt.Fprintf(t.out, "search failed: %v\n", err)
		return
	}
	for _, p := range found {
		fmt.Fprintf(t.out, "  %-12s %-30s %8.2f  stock %d\n", p.ID, p.Name, p.SalePrice, p.QuantityAvailable)
	}
	if len(found) == 0 {
		fmt.Fprintln(t.out, "  no products found")
	}
}

func (t *terminal) scan(ctx context.Context, code string) {
	p, err := t.products.FindByCode(ctx, code)
	if err != nil {
		fmt.Fprintf(t.out, "scan failed: %v\n", err)
		return
	}
	t.report(t.basket.AddItem(p))
}

func (t *terminal) add(ctx context.Context, id string) {
	p, ok := t.products.Cache().Get(id)
	if !ok {
		// Not cached yet; try a remote lookup before giving up.
		if err := t.products.Refresh(ctx); err == nil {
			p, ok = t.products.Cache().Get(id)
		}
		if !ok {
			fmt.Fprintf(t.out, "unknown product %q\n", id)
			return
		}
	}
	t.report(t.basket.AddItem(p))
}

func (t *terminal) setQuantity(rest string) {
	id, qtyStr, ok := strings.Cut(rest, " ")
	if !ok {
		fmt.Fprintln(t.out, "usage: qty <product-id> <n>")
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(qtyStr))
	if err != nil {
		fmt.Fprintf(t.out, "bad quantity %q\n", qtyStr)
		return
	}
	t.report(t.basket.SetQuantity(id, qty))
}

func (t *terminal) setDiscount(rest string) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		fmt.Fprintln(t.out, "usage: disc <product-id> <value> [%]")
		return
	}
	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		fmt.Fprintf(t.out, "bad discount %q\n", fields[1])
		return
	}
	dt := domain.DiscountFixed
	if len(fields) > 2 && fields[2] == "%" {
		dt = domain.DiscountPercentage
	}
	t.report(t.basket.SetItemDiscount(fields[0], value, dt))
}

func (t *terminal) setManualTotal(rest string) {
	v, err := strconv.ParseFloat(rest, 64)
	if err != nil || v < 0 {
		fmt.Fprintf(t.out, "bad amount %q\n", rest)
		return
	}
	t.basket.SetManualGrandTotal(v)
	fmt.Fprintf(t.out, "grand total overridden to %.2f (cleared by the next cart edit)\n", v)
}

func (t *terminal) setCustomer(rest string) {
	parts := strings.SplitN(rest, ";", 3)
	cust := domain.Customer{Name: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		cust.Phone = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		cust.Address = strings.TrimSpace(parts[2])
	}
	t.basket.SetCustomer(cust)
}

func (t *terminal) showCart() {
	if t.basket.IsEmpty() {
		fmt.Fprintln(t.out, "cart is empty")
		return
	}
	for _, l := range t.basket.Lines() {
		fmt.Fprintf(t.out, "  %-12s %-25s x%-3d @ %8.2f  -%.2f  = %8.2f\n",
			l.ProductID, l.ProductName, l.Quantity, l.UnitPrice,
			pricing.LineDiscountAmount(l), pricing.LineTotal(l))
	}
	totals := pricing.Compute(t.basket)
	fmt.Fprintf(t.out, "subtotal %.2f  discounts %.2f  TOTAL %.2f\n",
		totals.Subtotal, totals.ItemDiscounts, totals.GrandTotal)
}

func (t *terminal) pay(ctx context.Context, rest string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		fmt.Fprintln(t.out, "usage: pay <amount> [method]")
		return
	}
	paid, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || paid < 0 {
		fmt.Fprintf(t.out, "bad amount %q\n", fields[0])
		return
	}
	method := "cash"
	if len(fields) > 1 {
		method = fields[1]
	}

	sale, err := t.orchestrator.Submit(ctx, method, paid)
	if err != nil {
		fmt.Fprintf(t.out, "checkout failed: %v\n", err)
		return
	}
	fmt.Fprint(t.out, receipt.Render(t.cfg.ShopName, sale).String())
}

func (t *terminal) lowStock(ctx context.Context) {
	found, err := t.products.LowStock(ctx)
	if err != nil {
		fmt.Fprintf(t.out, "low-stock lookup failed: %v\n", err)
		return
	}
	for _, p := range found {
		fmt.Fprintf(t.out, "  %-12s %-30s stock %d\n", p.ID, p.Name, p.QuantityAvailable)
	}
}

func (t *terminal) report(err error) {
	if err != nil {
		fmt.Fprintf(t.out, "rejected: %v\n", err)
		return
	}
	t.showCart()
}
