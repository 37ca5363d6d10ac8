package stores

import (
	"context"
	"sync"

	"shopfront/app/api"
	"shopfront/app/models"
	"shopfront/config"
	"shopfront/pkg/collection"
	"shopfront/pkg/event"
	"shopfront/pkg/kvstore"
	"shopfront/pkg/logger"
	"shopfront/pkg/metrics"
)

// TokenSource supplies the auth token for mirroring the cart to the
// backend. SessionStore satisfies it; a nil source disables mirroring.
type TokenSource interface {
	Token() (string, bool)
}

// CartStore holds the cart lines for the current identity scope and keeps
// them durably mirrored in the key-value store. Each mutation persists the
// full collection before returning, so a reader hitting storage right after
// a call sees the new state.
type CartStore struct {
	kv     kvstore.Store
	api    *api.Client
	tokens TokenSource

	mu    sync.Mutex
	key   string
	lines []models.CartLine

	pushes sync.WaitGroup
}

// NewCartStore returns a cart in guest scope. client and tokens may be nil;
// they only matter for the best-effort backend mirror.
func NewCartStore(kv kvstore.Store, client *api.Client, tokens TokenSource) *CartStore {
	return &CartStore{kv: kv, api: client, tokens: tokens, key: CartKey("")}
}

// Initialize scopes the cart to identityID ("" = guest) and loads whatever
// is persisted under that scope. Absent or malformed payloads load as an
// empty cart; this never fails.
func (c *CartStore) Initialize(identityID string) {
	c.mu.Lock()
	c.key = CartKey(identityID)
	c.lines = c.loadLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	metrics.CartMutations.WithLabelValues("reload").Inc()
	event.Fire(event.CartChanged, snapshot)
}

// OnIdentityChanged re-scopes the cart to the new identity, replacing (not
// merging) the in-memory lines. A guest cart left behind on login stays
// intact under its own key and comes back on logout.
func (c *CartStore) OnIdentityChanged(identityID string) {
	c.Initialize(identityID)
}

// AddLine puts qty units of product in the cart. A line for the same
// product id is incremented rather than duplicated. qty below 1 adds 1.
func (c *CartStore) AddLine(product models.Product, qty int) {
	if qty < 1 {
		qty = 1
	}

	c.mu.Lock()
	idx := collection.IndexOf(c.lines, func(l models.CartLine) bool { return l.ID == product.ID })
	if idx >= 0 {
		c.lines[idx].Quantity += qty
	} else {
		c.lines = append(c.lines, models.CartLine{Product: product, Quantity: qty})
	}
	c.persistLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.afterMutation("add", snapshot)
}

// RemoveLine drops the line for productID. Absent lines are a no-op.
func (c *CartStore) RemoveLine(productID string) {
	c.mu.Lock()
	before := len(c.lines)
	c.lines = collection.Reject(c.lines, func(l models.CartLine) bool { return l.ID == productID })
	if len(c.lines) == before {
		c.mu.Unlock()
		return
	}
	c.persistLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.afterMutation("remove", snapshot)
}

// UpdateQuantity sets the line's quantity exactly. A quantity of zero or
// less removes the line instead of storing a non-positive value.
func (c *CartStore) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveLine(productID)
		return
	}

	c.mu.Lock()
	idx := collection.IndexOf(c.lines, func(l models.CartLine) bool { return l.ID == productID })
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	c.lines[idx].Quantity = quantity
	c.persistLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.afterMutation("update", snapshot)
}

// Clear empties the cart for the current scope.
func (c *CartStore) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.persistLocked()
	c.mu.Unlock()

	c.afterMutation("clear", nil)
}

// Lines returns a copy of the current cart lines, in insertion order.
func (c *CartStore) Lines() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LineCount is the sum of quantities across all lines.
func (c *CartStore) LineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return collection.SumInt(c.lines, func(l models.CartLine) int { return l.Quantity })
}

// Total is the sum of price times quantity across all lines.
func (c *CartStore) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return collection.Sum(c.lines, func(l models.CartLine) float64 { return l.LineTotal() })
}

// loadLocked reads the persisted collection for the current key.
func (c *CartStore) loadLocked() []models.CartLine {
	var lines []models.CartLine
	if !c.kv.Get(c.key, &lines) {
		return nil
	}
	// Drop lines a buggy writer may have left with a non-positive quantity.
	return collection.Filter(lines, func(l models.CartLine) bool { return l.Quantity >= 1 })
}

// persistLocked writes the full collection back under the current key.
// Failures are logged; the in-memory lines stay authoritative.
func (c *CartStore) persistLocked() {
	if err := c.kv.Set(c.key, c.lines, 0); err != nil {
		logger.Error("cart: persist failed", "key", c.key, "error", err)
	}
}

func (c *CartStore) snapshotLocked() []models.CartLine {
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// afterMutation emits the change event and, when an authenticated token is
// available, mirrors the cart to the backend in the background.
func (c *CartStore) afterMutation(op string, snapshot []models.CartLine) {
	metrics.CartMutations.WithLabelValues(op).Inc()
	event.Fire(event.CartChanged, snapshot)

	if c.api == nil || c.tokens == nil {
		return
	}
	token, ok := c.tokens.Token()
	if !ok {
		return
	}

	c.pushes.Add(1)
	go func() {
		defer c.pushes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), config.APITimeout())
		defer cancel()
		if err := c.api.PushCart(ctx, token, snapshot); err != nil {
			logger.Debug("cart: backend mirror failed", "error", err)
		}
	}()
}

// Flush blocks until in-flight backend mirrors have finished. Short-lived
// callers use it to avoid exiting with a push still on the wire.
func (c *CartStore) Flush() {
	c.pushes.Wait()
}
