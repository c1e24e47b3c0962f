package collection

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/CrazyNoDota/nomadway-sub000/internal/api"
	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
	"github.com/CrazyNoDota/nomadway-sub000/internal/session"
	"github.com/CrazyNoDota/nomadway-sub000/internal/store"
)

// ErrLoginRequired is returned by mutating collection operations when the
// session guard rejected the caller. The login flow has already been
// signalled at that point.
var ErrLoginRequired = errors.New("login required")

// Cart is the trip-planning cart. Duplicate subjects merge quantities
// locally; in remote mode the backend owns merge semantics.
type Cart struct {
	*engine[models.CartItem]
}

// NewCart builds the cart collection over the given session and local store.
func NewCart(sess *session.Manager, db *store.DB, log *slog.Logger) *Cart {
	e := newEngine[models.CartItem]("cart", store.CartKey, sess, db, log)
	e.keyOf = func(it models.CartItem) models.ItemKey { return it.Key }
	e.subjectOf = func(it models.CartItem) (string, models.SubjectType) {
		return it.SubjectID, it.SubjectType
	}
	e.remoteList = func(ctx context.Context) ([]models.CartItem, error) {
		return api.ListCart(ctx, sess)
	}
	e.remoteDelete = func(ctx context.Context, id string) error {
		return api.DeleteCartItem(ctx, sess, id)
	}
	return &Cart{engine: e}
}

// Bind subscribes the cart to session transitions. The returned func
// unsubscribes.
func (c *Cart) Bind() func() {
	return c.bind(c.SyncLocalToRemote)
}

// Add puts an item in the cart. The item carries no key; identity is minted
// here (local mode) or by the server (remote mode, followed by a reload of
// the authoritative list).
func (c *Cart) Add(ctx context.Context, item models.CartItem) error {
	if !c.sess.RequireAuth() {
		return ErrLoginRequired
	}
	if c.Mode() == ModeLocal {
		c.addLocal(item)
		return nil
	}
	in := api.CartItemInput{
		SubjectID:    item.SubjectID,
		SubjectType:  item.SubjectType,
		Quantity:     item.Quantity,
		SelectedDate: item.SelectedDate,
		Notes:        item.Notes,
	}
	if err := api.AddCartItem(ctx, c.sess, in); err != nil {
		return err
	}
	return c.Load(ctx)
}

// addLocal appends the item, minting a local key when it does not already
// carry one, and merges quantity into an existing entry for the same subject.
func (c *Cart) addLocal(item models.CartItem) {
	c.mu.Lock()
	if i := findBySubject(c.items, item.SubjectID, item.SubjectType, c.subjectOf); i >= 0 {
		c.items[i].Quantity += item.Quantity
	} else {
		if item.Key.IsZero() {
			item.Key = models.NewLocalKey()
		}
		item.AddedAt = time.Now().UTC()
		c.items = append(c.items, item)
	}
	snapshot := make([]models.CartItem, len(c.items))
	copy(snapshot, c.items)
	c.mu.Unlock()
	c.persistLocal(snapshot)
}

// Update patches quantity, date or notes on one entry.
func (c *Cart) Update(ctx context.Context, key models.ItemKey, patch api.CartItemPatch) error {
	if key.Origin == models.KeyLocal {
		c.mu.Lock()
		for i := range c.items {
			if c.items[i].Key.Value != key.Value {
				continue
			}
			if patch.Quantity != nil {
				c.items[i].Quantity = *patch.Quantity
			}
			if patch.SelectedDate != nil {
				c.items[i].SelectedDate = patch.SelectedDate
			}
			if patch.Notes != nil {
				c.items[i].Notes = *patch.Notes
			}
			break
		}
		snapshot := make([]models.CartItem, len(c.items))
		copy(snapshot, c.items)
		c.mu.Unlock()
		c.persistLocal(snapshot)
		return nil
	}
	if err := api.UpdateCartItem(ctx, c.sess, key.Value, patch); err != nil {
		return err
	}
	return c.Load(ctx)
}

// Clear empties the cart. Remote mode uses the bulk delete endpoint.
func (c *Cart) Clear(ctx context.Context) error {
	if c.Mode() == ModeLocal {
		c.clearLocal()
		return nil
	}
	if err := api.ClearCart(ctx, c.sess); err != nil {
		return err
	}
	c.setItems(nil)
	return nil
}

// SyncLocalToRemote pushes offline cart items as one batch.
func (c *Cart) SyncLocalToRemote(ctx context.Context) error {
	return c.merge(ctx, func(ctx context.Context, local []models.CartItem) error {
		batch := make([]api.CartItemInput, 0, len(local))
		for _, it := range local {
			batch = append(batch, api.CartItemInput{
				SubjectID:    it.SubjectID,
				SubjectType:  it.SubjectType,
				Quantity:     it.Quantity,
				SelectedDate: it.SelectedDate,
				Notes:        it.Notes,
			})
		}
		return api.SyncCart(ctx, c.sess, batch)
	})
}
