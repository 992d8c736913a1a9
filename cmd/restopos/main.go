package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shahid-dev/restopos/internal/api"
	"github.com/shahid-dev/restopos/internal/cart"
	"github.com/shahid-dev/restopos/internal/checkout"
	"github.com/shahid-dev/restopos/internal/config"
	"github.com/shahid-dev/restopos/internal/connectivity"
	"github.com/shahid-dev/restopos/internal/offline"
	"github.com/shahid-dev/restopos/internal/receipt"
	"github.com/shahid-dev/restopos/internal/session"
	"github.com/shahid-dev/restopos/internal/storage"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "restopos").Logger()

	log.Info().Msg("POS terminal starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	store, err := storage.OpenBolt(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local store")
	}
	defer store.Close()

	sess := session.New(store)
	client := api.NewClient(cfg.API.BaseURL, sess.Token)

	cartStore := cart.NewStore(store)
	queue := offline.NewQueue(store)
	engine := offline.NewEngine(queue, client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor := connectivity.NewMonitor(client.Reachable(ctx))
	monitor.Subscribe(engine.OnTransition)
	go monitor.Watch(ctx, cfg.Probe.Interval, client.Reachable)

	orchestrator := checkout.New(cartStore, queue, client, monitor)
	sink := receipt.WriterSink{W: os.Stdout}

	t := &terminal{
		ctx:          ctx,
		client:       client,
		sess:         sess,
		cart:         cartStore,
		queue:        queue,
		engine:       engine,
		monitor:      monitor,
		orchestrator: orchestrator,
		sink:         sink,
		catalog:      make(map[string]api.Product),
	}
	t.run()

	log.Info().Msg("POS terminal stopped")
}

type terminal struct {
	ctx          context.Context
	client       *api.Client
	sess         *session.Session
	cart         *cart.Store
	queue        *offline.Queue
	engine       *offline.Engine
	monitor      *connectivity.Monitor
	orchestrator *checkout.Orchestrator
	sink         receipt.WriterSink
	catalog      map[string]api.Product
}

func (t *terminal) run() {
	fmt.Println("restopos — type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err := t.dispatch(cmd, args); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func (t *terminal) dispatch(cmd string, args []string) error {
	switch cmd {
	case "help":
		t.printHelp()
		return nil
	case "login":
		return t.login(args)
	case "products":
		return t.listProducts(args)
	case "add":
		return t.add(args)
	case "remove":
		return t.remove(args)
	case "qty":
		return t.adjustQuantity(args)
	case "cart":
		t.showCart()
		return nil
	case "checkout":
		return t.checkout(args)
	case "load":
		return t.loadOrder(args)
	case "cancel-update":
		t.orchestrator.CancelUpdate()
		return nil
	case "history":
		return t.history(args)
	case "sync":
		return t.sync()
	case "status":
		t.showStatus()
		return nil
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func (t *terminal) printHelp() {
	fmt.Print(`Commands:
  login <email> <password>
  products [search]
  add <productId> [size] [spicy]
  remove <productId> [size] [spicy]
  qty <productId> <delta> [size] [spicy]
  cart
  checkout <name> <phone> [discount]
  load <orderId>          edit an existing order
  cancel-update
  history [period]
  sync                    flush queued offline orders
  status
  quit
`)
}

func (t *terminal) login(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <email> <password>")
	}
	token, err := t.client.Login(t.ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := t.sess.SetToken(token); err != nil {
		return err
	}
	fmt.Println("logged in")
	return nil
}

func (t *terminal) listProducts(args []string) error {
	search := strings.Join(args, " ")
	products, err := t.client.ListProducts(t.ctx, search)
	if err != nil {
		return err
	}

	for _, p := range products {
		t.catalog[p.ID] = p
		fmt.Printf("%-26s %-20s Rs %-8s %s\n", p.ID, p.Name, receipt.FormatAmount(p.Price), p.Type)
	}
	if len(products) == 0 {
		fmt.Println("no products found")
	}
	return nil
}

func parseVariant(args []string) (cart.Variant, error) {
	v := cart.Variant{Size: cart.SizeMedium}
	for _, arg := range args {
		if arg == "spicy" {
			v.Spicy = true
			continue
		}
		size := cart.Size(arg)
		if !size.Valid() {
			return v, fmt.Errorf("unknown size %q (small|medium|large|family|deal)", arg)
		}
		v.Size = size
	}
	return v, nil
}

func (t *terminal) add(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: add <productId> [size] [spicy]")
	}
	v, err := parseVariant(args[1:])
	if err != nil {
		return err
	}

	p, ok := t.catalog[args[0]]
	if !ok {
		// Unknown id: refresh the catalog once before giving up.
		products, err := t.client.ListProducts(t.ctx, "")
		if err != nil {
			return fmt.Errorf("product %s not in catalog and refresh failed: %w", args[0], err)
		}
		for _, candidate := range products {
			t.catalog[candidate.ID] = candidate
		}
		if p, ok = t.catalog[args[0]]; !ok {
			return fmt.Errorf("product %s not found", args[0])
		}
	}

	return t.cart.Add(cart.ProductInfo{ID: p.ID, Name: p.Name, Price: p.Price, Pic: p.Pic}, v)
}

func (t *terminal) remove(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: remove <productId> [size] [spicy]")
	}
	v, err := parseVariant(args[1:])
	if err != nil {
		return err
	}
	return t.cart.Remove(args[0], v)
}

func (t *terminal) adjustQuantity(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: qty <productId> <delta> [size] [spicy]")
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid delta %q", args[1])
	}
	v, err := parseVariant(args[2:])
	if err != nil {
		return err
	}
	return t.cart.AdjustQuantity(args[0], v, delta)
}

func (t *terminal) showCart() {
	lines := t.cart.Lines()
	if len(lines) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, l := range lines {
		spicy := ""
		if l.Spicy {
			spicy = " spicy"
		}
		fmt.Printf("%-20s %s%s x%d  Rs %s\n", l.Name, l.Size, spicy, l.Quantity, receipt.FormatAmount(l.LineTotal()))
	}
	totals := t.cart.Totals(0)
	fmt.Printf("subtotal: Rs %s\n", receipt.FormatAmount(totals.Subtotal))
}

func (t *terminal) checkout(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: checkout <name> <phone> [discount]")
	}
	if err := t.orchestrator.Begin(); err != nil {
		return err
	}

	discount := 0.0
	if len(args) > 2 {
		d, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid discount %q", args[2])
		}
		discount = d
	}

	res, err := t.orchestrator.Submit(t.ctx, args[0], args[1], discount)
	if err != nil {
		return err
	}

	if res.Offline {
		fmt.Println("offline: order queued, will sync when connectivity returns")
	}
	return t.sink.Print(res.Receipt)
}

func (t *terminal) loadOrder(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: load <orderId>")
	}
	if err := t.orchestrator.LoadOrderForUpdate(t.ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("order loaded into cart; checkout will update it in place")
	t.showCart()
	return nil
}

func (t *terminal) history(args []string) error {
	period := "day"
	if len(args) > 0 {
		period = args[0]
	}
	orders, err := t.client.OrderHistory(t.ctx, period)
	if err != nil {
		return err
	}
	for _, o := range orders {
		fmt.Printf("%-12s %-20s Rs %-8s %s\n", o.OrderID, o.CustomerName, receipt.FormatAmount(o.TotalAmount), o.Status)
	}
	if len(orders) == 0 {
		fmt.Println("no orders for period", period)
	}
	return nil
}

func (t *terminal) sync() error {
	sent, err := t.engine.Flush(t.ctx)
	fmt.Printf("synced %d queued order(s)\n", sent)
	return err
}

func (t *terminal) showStatus() {
	state := "offline"
	if t.monitor.Online() {
		state = "online"
	}
	fmt.Printf("connectivity: %s\n", state)
	fmt.Printf("cart lines:   %d\n", t.cart.Len())
	fmt.Printf("queued:       %d\n", t.queue.Len())
	fmt.Printf("checkout:     %s\n", t.orchestrator.State())
	fmt.Printf("session:      authenticated=%v\n", t.sess.Authenticated())
}
