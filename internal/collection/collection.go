// Package collection implements the reconciled user collections: ordered
// lists that live in device-local storage while the user is anonymous and
// mirror server state once authenticated, with a one-shot merge of local
// items at the login boundary. Cart and Favorites are the two instances.
package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CrazyNoDota/nomadway-sub000/internal/api"
	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
	"github.com/CrazyNoDota/nomadway-sub000/internal/session"
	"github.com/CrazyNoDota/nomadway-sub000/internal/store"
)

// Mode says which side owns the truth for a collection right now.
type Mode string

const (
	ModeLocal  Mode = "local"  // anonymous: device-local store
	ModeRemote Mode = "remote" // authenticated: backend is authoritative
)

// SyncStatus tracks the one-shot local-to-remote merge.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

// engine is the mode-aware core shared by Cart and Favorites. The instance
// supplies identity accessors and the remote list/delete calls; operations
// that differ structurally between instances (add, update, clear, the merge
// push) live on the instances themselves.
type engine[T any] struct {
	name     string
	storeKey string
	sess     *session.Manager
	db       *store.DB
	log      *slog.Logger

	keyOf        func(T) models.ItemKey
	subjectOf    func(T) (string, models.SubjectType)
	remoteList   func(ctx context.Context) ([]T, error)
	remoteDelete func(ctx context.Context, id string) error

	mu         sync.Mutex
	items      []T
	syncStatus SyncStatus
}

func newEngine[T any](name, storeKey string, sess *session.Manager, db *store.DB, log *slog.Logger) *engine[T] {
	if log == nil {
		log = slog.Default()
	}
	return &engine[T]{
		name:       name,
		storeKey:   storeKey,
		sess:       sess,
		db:         db,
		log:        log.With("collection", name),
		syncStatus: SyncIdle,
	}
}

// Mode derives the collection mode from the session state.
func (e *engine[T]) Mode() Mode {
	if e.sess.Status() == session.StatusAuthenticated {
		return ModeRemote
	}
	return ModeLocal
}

// SyncStatus returns the state of the one-shot merge.
func (e *engine[T]) SyncStatus() SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncStatus
}

// Items returns a snapshot of the in-memory list.
func (e *engine[T]) Items() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]T, len(e.items))
	copy(out, e.items)
	return out
}

func (e *engine[T]) setItems(items []T) {
	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
}

func (e *engine[T]) setSyncStatus(s SyncStatus) {
	e.mu.Lock()
	e.syncStatus = s
	e.mu.Unlock()
}

// readLocal decodes the persisted local-mode list. Absent key is an empty
// list.
func (e *engine[T]) readLocal() ([]T, error) {
	data, err := e.db.Get(e.storeKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.storeKey, err)
	}
	return items, nil
}

// persistLocal writes the given list to the local store. A storage failure
// is logged and swallowed: the operation proceeds in-memory for this call.
func (e *engine[T]) persistLocal(items []T) {
	data, err := json.Marshal(items)
	if err != nil {
		e.log.Warn("encode local list", "err", err)
		return
	}
	if err := e.db.Put(e.storeKey, data); err != nil {
		e.log.Warn("persist local list", "err", err)
	}
}

// Load populates the in-memory list. Local mode reads the device store;
// remote mode fetches the authoritative list, degrading to the local copy
// when the backend is unreachable. ErrSessionExpired is never swallowed.
func (e *engine[T]) Load(ctx context.Context) error {
	if e.Mode() == ModeLocal {
		items, err := e.readLocal()
		if err != nil {
			// Keep whatever is already in memory; the list stays usable
			// for this invocation.
			e.log.Warn("local store unavailable", "err", err)
			return nil
		}
		e.setItems(items)
		return nil
	}

	items, err := e.remoteList(ctx)
	if err != nil {
		if api.IsTransient(err) {
			e.log.Warn("remote list unavailable, serving local copy", "err", err)
			if local, lerr := e.readLocal(); lerr == nil {
				e.setItems(local)
			}
			return nil
		}
		return err
	}
	e.setItems(items)
	return nil
}

// Remove deletes an item. Local-origin keys mutate the device copy; remote
// keys delete on the server first and mutate the mirror only on success.
func (e *engine[T]) Remove(ctx context.Context, key models.ItemKey) error {
	switch key.Origin {
	case models.KeyLocal:
		e.mu.Lock()
		e.items = deleteByKey(e.items, key, e.keyOf)
		snapshot := make([]T, len(e.items))
		copy(snapshot, e.items)
		e.mu.Unlock()
		e.persistLocal(snapshot)
		return nil
	default:
		if err := e.remoteDelete(ctx, key.Value); err != nil {
			return err
		}
		e.mu.Lock()
		e.items = deleteByKey(e.items, key, e.keyOf)
		e.mu.Unlock()
		return nil
	}
}

// clearLocal empties the in-memory list and the device store key.
func (e *engine[T]) clearLocal() {
	e.setItems(nil)
	if err := e.db.Delete(e.storeKey); err != nil {
		e.log.Warn("clear local list", "err", err)
	}
}

// resetMirror drops the transient remote mirror on the authenticated-to-
// anonymous transition and re-arms the one-shot merge. The device-local
// copy is untouched.
func (e *engine[T]) resetMirror() {
	e.mu.Lock()
	e.items = nil
	e.syncStatus = SyncIdle
	e.mu.Unlock()
}

// merge runs the one-shot local-to-remote reconciliation: push the local
// items with the instance-specific call, erase the device copy, reload the
// authoritative list. It runs at most once per anonymous-to-authenticated
// transition and is never retried automatically.
func (e *engine[T]) merge(ctx context.Context, push func(context.Context, []T) error) error {
	local, err := e.readLocal()
	if err != nil {
		e.log.Warn("read local list for merge", "err", err)
		return nil
	}
	if len(local) == 0 {
		return nil
	}

	e.mu.Lock()
	if e.syncStatus != SyncIdle {
		e.mu.Unlock()
		return nil
	}
	e.syncStatus = SyncSyncing
	e.mu.Unlock()

	if err := push(ctx, local); err != nil {
		e.setSyncStatus(SyncError)
		return fmt.Errorf("push local %s: %w", e.name, err)
	}

	if err := e.db.Delete(e.storeKey); err != nil {
		e.log.Warn("erase merged local list", "err", err)
	}
	if err := e.Load(ctx); err != nil {
		e.log.Warn("reload after merge", "err", err)
	}
	e.setSyncStatus(SyncSynced)
	return nil
}

// bind subscribes the collection to session transitions: login triggers the
// one-shot merge plus a reload, logout drops the remote mirror. Reactions
// run on their own goroutine so a status notification can never re-enter
// the session manager's in-flight refresh.
func (e *engine[T]) bind(merge func(context.Context) error) func() {
	return e.sess.Subscribe(func(st session.Status) {
		switch st {
		case session.StatusAuthenticated:
			go func() {
				ctx := context.Background()
				if err := merge(ctx); err != nil {
					e.log.Warn("local merge failed", "err", err)
				}
				if err := e.Load(ctx); err != nil {
					e.log.Warn("reload after login", "err", err)
				}
			}()
		case session.StatusAnonymous, session.StatusExpired:
			go func() {
				e.resetMirror()
				if err := e.Load(context.Background()); err != nil {
					e.log.Warn("reload after logout", "err", err)
				}
			}()
		}
	})
}

// deleteByKey removes the first item whose key matches.
func deleteByKey[T any](items []T, key models.ItemKey, keyOf func(T) models.ItemKey) []T {
	for i, it := range items {
		if keyOf(it).Value == key.Value {
			return append(items[:i:i], items[i+1:]...)
		}
	}
	return items
}

// findBySubject returns the index of the item referencing the given catalog
// entity, or -1.
func findBySubject[T any](items []T, subjectID string, subjectType models.SubjectType, subjectOf func(T) (string, models.SubjectType)) int {
	for i, it := range items {
		id, typ := subjectOf(it)
		if id == subjectID && typ == subjectType {
			return i
		}
	}
	return -1
}
