package collection

import (
	"context"
	"log/slog"
	"time"

	"github.com/CrazyNoDota/nomadway-sub000/internal/api"
	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
	"github.com/CrazyNoDota/nomadway-sub000/internal/session"
	"github.com/CrazyNoDota/nomadway-sub000/internal/store"
)

// Favorites is the saved-places list. Adds are idempotent: a subject is
// favorited at most once.
type Favorites struct {
	*engine[models.FavoriteItem]
}

// NewFavorites builds the favorites collection over the given session and
// local store.
func NewFavorites(sess *session.Manager, db *store.DB, log *slog.Logger) *Favorites {
	e := newEngine[models.FavoriteItem]("favorites", store.FavoritesKey, sess, db, log)
	e.keyOf = func(it models.FavoriteItem) models.ItemKey { return it.Key }
	e.subjectOf = func(it models.FavoriteItem) (string, models.SubjectType) {
		return it.SubjectID, it.SubjectType
	}
	e.remoteList = func(ctx context.Context) ([]models.FavoriteItem, error) {
		return api.ListFavorites(ctx, sess)
	}
	e.remoteDelete = func(ctx context.Context, id string) error {
		return api.DeleteFavorite(ctx, sess, id)
	}
	return &Favorites{engine: e}
}

// Bind subscribes the favorites list to session transitions. The returned
// func unsubscribes.
func (f *Favorites) Bind() func() {
	return f.bind(f.SyncLocalToRemote)
}

// Add favorites a subject. Re-adding an already-favorited subject is a
// no-op in both modes.
func (f *Favorites) Add(ctx context.Context, item models.FavoriteItem) error {
	if !f.sess.RequireAuth() {
		return ErrLoginRequired
	}
	if f.Mode() == ModeLocal {
		f.addLocal(item)
		return nil
	}
	if f.has(item.SubjectID, item.SubjectType) {
		return nil
	}
	in := api.FavoriteInput{
		SubjectID:   item.SubjectID,
		SubjectType: item.SubjectType,
		Title:       item.Title,
		Region:      item.Region,
		Notes:       item.Notes,
		Category:    item.Category,
	}
	if err := api.AddFavorite(ctx, f.sess, in); err != nil {
		return err
	}
	return f.Load(ctx)
}

func (f *Favorites) has(subjectID string, subjectType models.SubjectType) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return findBySubject(f.items, subjectID, subjectType, f.subjectOf) >= 0
}

func (f *Favorites) addLocal(item models.FavoriteItem) {
	f.mu.Lock()
	if findBySubject(f.items, item.SubjectID, item.SubjectType, f.subjectOf) >= 0 {
		f.mu.Unlock()
		return
	}
	if item.Key.IsZero() {
		item.Key = models.NewLocalKey()
	}
	item.AddedAt = time.Now().UTC()
	f.items = append(f.items, item)
	snapshot := make([]models.FavoriteItem, len(f.items))
	copy(snapshot, f.items)
	f.mu.Unlock()
	f.persistLocal(snapshot)
}

// Update patches notes or category on one entry.
func (f *Favorites) Update(ctx context.Context, key models.ItemKey, patch api.FavoritePatch) error {
	if key.Origin == models.KeyLocal {
		f.mu.Lock()
		for i := range f.items {
			if f.items[i].Key.Value != key.Value {
				continue
			}
			if patch.Notes != nil {
				f.items[i].Notes = *patch.Notes
			}
			if patch.Category != nil {
				f.items[i].Category = *patch.Category
			}
			break
		}
		snapshot := make([]models.FavoriteItem, len(f.items))
		copy(snapshot, f.items)
		f.mu.Unlock()
		f.persistLocal(snapshot)
		return nil
	}
	if err := api.UpdateFavorite(ctx, f.sess, key.Value, patch); err != nil {
		return err
	}
	return f.Load(ctx)
}

// Clear empties the list. There is no bulk endpoint, so remote mode walks
// the mirror deleting item by item and tolerates individual failures.
func (f *Favorites) Clear(ctx context.Context) error {
	if f.Mode() == ModeLocal {
		f.clearLocal()
		return nil
	}
	for _, it := range f.Items() {
		if it.Key.Origin != models.KeyRemote {
			continue
		}
		if err := f.Remove(ctx, it.Key); err != nil {
			f.log.Warn("delete favorite", "id", it.Key.Value, "err", err)
		}
	}
	return nil
}

// SyncLocalToRemote creates each offline favorite on the server, tolerating
// individual failures.
func (f *Favorites) SyncLocalToRemote(ctx context.Context) error {
	return f.merge(ctx, func(ctx context.Context, local []models.FavoriteItem) error {
		for _, it := range local {
			in := api.FavoriteInput{
				SubjectID:   it.SubjectID,
				SubjectType: it.SubjectType,
				Title:       it.Title,
				Region:      it.Region,
				Notes:       it.Notes,
				Category:    it.Category,
			}
			if err := api.AddFavorite(ctx, f.sess, in); err != nil {
				f.log.Warn("push favorite", "subject", it.SubjectID, "err", err)
			}
		}
		return nil
	})
}
