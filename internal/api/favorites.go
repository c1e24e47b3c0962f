package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
)

// favoriteWire is the server representation of a favorites entry.
type favoriteWire struct {
	ID          string             `json:"id"`
	SubjectID   string             `json:"subjectId"`
	SubjectType models.SubjectType `json:"subjectType"`
	Title       string             `json:"title,omitempty"`
	Region      string             `json:"region,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Category    string             `json:"category,omitempty"`
	AddedAt     time.Time          `json:"addedAt"`
}

func (w favoriteWire) toModel() models.FavoriteItem {
	return models.FavoriteItem{
		Key:         models.RemoteKey(w.ID),
		SubjectID:   w.SubjectID,
		SubjectType: w.SubjectType,
		Title:       w.Title,
		Region:      w.Region,
		Notes:       w.Notes,
		Category:    w.Category,
		AddedAt:     w.AddedAt,
	}
}

// FavoriteInput is the body for creating a favorites entry. The add is
// idempotent server-side: re-adding an existing subject is not an error.
type FavoriteInput struct {
	SubjectID   string             `json:"subjectId"`
	SubjectType models.SubjectType `json:"subjectType"`
	Title       string             `json:"title,omitempty"`
	Region      string             `json:"region,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Category    string             `json:"category,omitempty"`
}

// FavoritePatch is the body for updating a favorites entry.
type FavoritePatch struct {
	Notes    *string `json:"notes,omitempty"`
	Category *string `json:"category,omitempty"`
}

// ListFavorites fetches the server-authoritative favorites list.
func ListFavorites(ctx context.Context, rq Requester) ([]models.FavoriteItem, error) {
	resp, err := rq.Do(ctx, http.MethodGet, "/favorites", nil)
	if err != nil {
		return nil, err
	}
	var wire []favoriteWire
	if err := resp.JSON(&wire); err != nil {
		return nil, fmt.Errorf("unmarshal favorites: %w", err)
	}
	items := make([]models.FavoriteItem, 0, len(wire))
	for _, w := range wire {
		items = append(items, w.toModel())
	}
	return items, nil
}

// AddFavorite creates a favorites entry.
func AddFavorite(ctx context.Context, rq Requester, in FavoriteInput) error {
	_, err := rq.Do(ctx, http.MethodPost, "/favorites", in)
	return err
}

// UpdateFavorite patches a favorites entry by server id.
func UpdateFavorite(ctx context.Context, rq Requester, id string, patch FavoritePatch) error {
	_, err := rq.Do(ctx, http.MethodPut, "/favorites/"+id, patch)
	return err
}

// DeleteFavorite removes one favorites entry by server id.
func DeleteFavorite(ctx context.Context, rq Requester, id string) error {
	_, err := rq.Do(ctx, http.MethodDelete, "/favorites/"+id, nil)
	return err
}
