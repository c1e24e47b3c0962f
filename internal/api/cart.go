package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
)

// cartItemWire is the server representation of a cart entry.
type cartItemWire struct {
	ID           string             `json:"id"`
	SubjectID    string             `json:"subjectId"`
	SubjectType  models.SubjectType `json:"subjectType"`
	Quantity     int                `json:"quantity"`
	Price        models.PriceRange  `json:"priceRange"`
	SelectedDate *time.Time         `json:"selectedDate,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	Title        string             `json:"title,omitempty"`
	Region       string             `json:"region,omitempty"`
	BestSeasons  []int              `json:"bestSeasons,omitempty"`
	DurationDays float64            `json:"durationDays,omitempty"`
	AddedAt      time.Time          `json:"addedAt"`
}

func (w cartItemWire) toModel() models.CartItem {
	return models.CartItem{
		Key:          models.RemoteKey(w.ID),
		SubjectID:    w.SubjectID,
		SubjectType:  w.SubjectType,
		Quantity:     w.Quantity,
		Price:        w.Price,
		SelectedDate: w.SelectedDate,
		Notes:        w.Notes,
		Title:        w.Title,
		Region:       w.Region,
		BestSeasons:  w.BestSeasons,
		DurationDays: w.DurationDays,
		AddedAt:      w.AddedAt,
	}
}

// CartItemInput is the body for creating a cart entry.
type CartItemInput struct {
	SubjectID    string             `json:"subjectId"`
	SubjectType  models.SubjectType `json:"subjectType"`
	Quantity     int                `json:"quantity"`
	SelectedDate *time.Time         `json:"selectedDate,omitempty"`
	Notes        string             `json:"notes,omitempty"`
}

// CartItemPatch is the body for updating a cart entry. Nil fields are
// left unchanged by the server.
type CartItemPatch struct {
	Quantity     *int       `json:"quantity,omitempty"`
	SelectedDate *time.Time `json:"selectedDate,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// ListCart fetches the server-authoritative cart.
func ListCart(ctx context.Context, rq Requester) ([]models.CartItem, error) {
	resp, err := rq.Do(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, err
	}
	var wire []cartItemWire
	if err := resp.JSON(&wire); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	items := make([]models.CartItem, 0, len(wire))
	for _, w := range wire {
		items = append(items, w.toModel())
	}
	return items, nil
}

// AddCartItem creates a cart entry. The server merges quantities when the
// subject is already in the cart.
func AddCartItem(ctx context.Context, rq Requester, in CartItemInput) error {
	_, err := rq.Do(ctx, http.MethodPost, "/cart", in)
	return err
}

// UpdateCartItem patches a cart entry by server id.
func UpdateCartItem(ctx context.Context, rq Requester, id string, patch CartItemPatch) error {
	_, err := rq.Do(ctx, http.MethodPut, "/cart/"+id, patch)
	return err
}

// DeleteCartItem removes one cart entry by server id.
func DeleteCartItem(ctx context.Context, rq Requester, id string) error {
	_, err := rq.Do(ctx, http.MethodDelete, "/cart/"+id, nil)
	return err
}

// ClearCart removes every cart entry in one call.
func ClearCart(ctx context.Context, rq Requester) error {
	_, err := rq.Do(ctx, http.MethodDelete, "/cart", nil)
	return err
}

// SyncCart pushes items accumulated offline in a single batch. Merge
// semantics for duplicates are the server's to decide.
func SyncCart(ctx context.Context, rq Requester, items []CartItemInput) error {
	body := map[string]any{"items": items}
	_, err := rq.Do(ctx, http.MethodPost, "/cart/sync", body)
	return err
}
