package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shahid-dev/restopos/internal/api"
	"github.com/shahid-dev/restopos/internal/cart"
	"github.com/shahid-dev/restopos/internal/connectivity"
	"github.com/shahid-dev/restopos/internal/offline"
	"github.com/shahid-dev/restopos/internal/order"
	"github.com/shahid-dev/restopos/internal/receipt"
)

// State is the orchestrator's submission state.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
)

const offlineStatus = "Pending (Offline)"

var (
	// ErrEmptyCart means checkout was initiated without anything to submit.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrSubmitInFlight rejects a re-entrant submit while one is running.
	ErrSubmitInFlight = errors.New("checkout: submission already in progress")
)

// OrderAPI is the slice of the API client the orchestrator needs.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req api.OrderRequest, idempotencyKey string) (*api.Order, error)
	UpdateOrder(ctx context.Context, id string, req api.OrderRequest) (*api.Order, error)
	GetOrder(ctx context.Context, id string) (*api.Order, error)
}

// Result is a completed submission: the order record (server-assigned or
// offline placeholder) and its printable receipt.
type Result struct {
	Order   *api.Order
	Receipt receipt.Document
	Offline bool
}

// Orchestrator coordinates submission: the online path posts directly and
// renders the server's order; the offline path enqueues the draft, fabricates
// a placeholder order and still hands back a receipt. Both clear the cart on
// success; a failed online submit leaves cart and customer info untouched so
// the operator can retry without re-entering anything.
type Orchestrator struct {
	mu           sync.Mutex
	state        State
	updateTarget string

	cart    *cart.Store
	queue   *offline.Queue
	api     OrderAPI
	monitor *connectivity.Monitor

	now func() time.Time
}

func New(cartStore *cart.Store, queue *offline.Queue, orderAPI OrderAPI, monitor *connectivity.Monitor) *Orchestrator {
	return &Orchestrator{
		state:   StateIdle,
		cart:    cartStore,
		queue:   queue,
		api:     orderAPI,
		monitor: monitor,
		now:     time.Now,
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Begin checks the checkout precondition. Collecting customer info happens
// regardless of connectivity, so this never looks at the monitor.
func (o *Orchestrator) Begin() error {
	if o.cart.Len() == 0 {
		return ErrEmptyCart
	}
	return nil
}

// LoadOrderForUpdate replaces the cart with an existing order's lines and
// routes the next submit to an update-in-place instead of a creation.
func (o *Orchestrator) LoadOrderForUpdate(ctx context.Context, id string) error {
	existing, err := o.api.GetOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("checkout: failed to load order %s: %w", id, err)
	}

	lines := make([]cart.Line, 0, len(existing.Products))
	for _, p := range existing.Products {
		lines = append(lines, cart.Line{
			ProductID: p.Product.ID,
			Name:      p.Product.Name,
			UnitPrice: p.Product.Price,
			Quantity:  p.Quantity,
			Variant:   cart.Variant{Spicy: p.IsSpicy, Size: cart.Size(p.Size)},
			ImageRef:  p.Product.Pic,
		})
	}
	if err := o.cart.Replace(lines); err != nil {
		return err
	}

	o.mu.Lock()
	o.updateTarget = existing.ID
	o.mu.Unlock()
	return nil
}

// CancelUpdate drops update mode; the next submit creates a new order.
func (o *Orchestrator) CancelUpdate() {
	o.mu.Lock()
	o.updateTarget = ""
	o.mu.Unlock()
}

// Submit validates the draft and runs the online or offline path depending
// on current connectivity. Re-entrant submits are rejected while one is in
// flight, which is what keeps a double-clicked submit from creating two
// orders.
func (o *Orchestrator) Submit(ctx context.Context, customerName, phoneNumber string, discount float64) (*Result, error) {
	o.mu.Lock()
	if o.state == StateSubmitting {
		o.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	o.state = StateSubmitting
	target := o.updateTarget
	o.mu.Unlock()

	result, err := o.submit(ctx, customerName, phoneNumber, discount, target)

	o.mu.Lock()
	o.state = StateIdle
	if err == nil {
		o.updateTarget = ""
	}
	o.mu.Unlock()

	return result, err
}

func (o *Orchestrator) submit(ctx context.Context, customerName, phoneNumber string, discount float64, target string) (*Result, error) {
	lines := o.cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	draft, err := order.BuildDraft(lines, customerName, phoneNumber, discount)
	if err != nil {
		return nil, err
	}
	if target != "" {
		draft.IsUpdate = true
		draft.TargetOrderID = target
	}

	req := requestFromDraft(draft)
	items := receiptItems(lines)
	totals := o.cart.Totals(draft.Discount)

	if !o.monitor.Online() {
		return o.submitOffline(req, draft.TargetOrderID, items, totals)
	}

	var placed *api.Order
	if draft.IsUpdate {
		placed, err = o.api.UpdateOrder(ctx, draft.TargetOrderID, req)
	} else {
		placed, err = o.api.CreateOrder(ctx, req, "")
	}
	if err != nil {
		// Cart and customer info stay untouched for the retry.
		return nil, err
	}

	doc := receipt.Render(receipt.Info{
		OrderID: placed.OrderID,
		Status:  placed.Status,
		Date:    placed.CreatedAt,
		Total:   placed.TotalAmount,
	}, items)

	if err := o.cart.Clear(); err != nil {
		log.Warn().Err(err).Msg("Order placed but cart could not be cleared")
	}

	log.Info().Str("order_id", placed.OrderID).Bool("update", draft.IsUpdate).Msg("Order submitted")
	return &Result{Order: placed, Receipt: doc}, nil
}

// submitOffline never touches the network and always succeeds locally: the
// draft goes into the durable queue and the operator gets a receipt built
// from a placeholder order. An update-mode submit keeps its target order id
// on the queued entry so the replay updates in place instead of creating a
// duplicate.
func (o *Orchestrator) submitOffline(req api.OrderRequest, updateTarget string, items []receipt.Item, totals cart.Totals) (*Result, error) {
	pending, err := o.queue.Enqueue(req, updateTarget)
	if err != nil {
		return nil, err
	}

	placeholder := &api.Order{
		OrderID:      offlineOrderID(pending.ID),
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
		Discount:     req.Discount,
		TotalAmount:  totals.Total,
		Status:       offlineStatus,
		CreatedAt:    o.now(),
	}

	doc := receipt.Render(receipt.Info{
		OrderID: placeholder.OrderID,
		Status:  placeholder.Status,
		Date:    placeholder.CreatedAt,
		Total:   placeholder.TotalAmount,
	}, items)

	if err := o.cart.Clear(); err != nil {
		log.Warn().Err(err).Msg("Order queued but cart could not be cleared")
	}

	log.Info().Str("order_id", placeholder.OrderID).Msg("Offline order queued, will sync on reconnect")
	return &Result{Order: placeholder, Receipt: doc, Offline: true}, nil
}

func requestFromDraft(d *order.Draft) api.OrderRequest {
	req := api.OrderRequest{
		CustomerName: d.CustomerName,
		PhoneNumber:  d.PhoneNumber,
		Discount:     d.Discount,
		Products:     make([]api.OrderItemRequest, 0, len(d.Lines)),
	}
	for _, l := range d.Lines {
		req.Products = append(req.Products, api.OrderItemRequest{
			Product:  l.ProductID,
			Quantity: l.Quantity,
			IsSpicy:  l.Spicy,
			Size:     string(l.Size),
		})
	}
	return req
}

func receiptItems(lines []cart.Line) []receipt.Item {
	items := make([]receipt.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, receipt.Item{
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return items
}

// Local placeholder ids are prefixed so they can never be mistaken for
// server-assigned ones.
func offlineOrderID(pendingID string) string {
	if pendingID == "" {
		id, err := uuid.NewV4()
		if err == nil {
			pendingID = id.String()
		}
	}
	return "offline-" + pendingID
}
