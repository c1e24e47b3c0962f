package collection

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CrazyNoDota/nomadway-sub000/internal/api"
	"github.com/CrazyNoDota/nomadway-sub000/internal/keystore"
	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
	"github.com/CrazyNoDota/nomadway-sub000/internal/session"
	"github.com/CrazyNoDota/nomadway-sub000/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	sess *session.Manager
	db   *store.DB
	cart *Cart
	favs *Favorites
}

func newFixture(t *testing.T, url string) *fixture {
	t.Helper()
	dir := t.TempDir()
	keys, err := keystore.Open(dir)
	if err != nil {
		t.Fatalf("open keystore: %v", err)
	}
	db, err := store.Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sess := session.NewManager(api.New(url), keys, nil, testLogger())
	return &fixture{
		sess: sess,
		db:   db,
		cart: NewCart(sess, db, testLogger()),
		favs: NewFavorites(sess, db, testLogger()),
	}
}

// storedCart decodes the persisted local cart list.
func storedCart(t *testing.T, db *store.DB) []models.CartItem {
	t.Helper()
	data, err := db.Get(store.CartKey)
	if err != nil {
		t.Fatalf("read local cart: %v", err)
	}
	if data == nil {
		return nil
	}
	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decode local cart: %v", err)
	}
	return items
}

func cartItem(subjectID string, qty int) models.CartItem {
	return models.CartItem{
		SubjectID:   subjectID,
		SubjectType: models.SubjectTour,
		Quantity:    qty,
	}
}

func TestLocalCartDurability(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:0")

	f.cart.addLocal(cartItem("tour-1", 1))
	f.cart.addLocal(cartItem("tour-2", 2))
	items := f.cart.Items()
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if !reflect.DeepEqual(storedCart(t, f.db), items) {
		t.Error("persisted list diverged from in-memory list after adds")
	}

	if err := f.cart.Remove(context.Background(), items[0].Key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !reflect.DeepEqual(storedCart(t, f.db), f.cart.Items()) {
		t.Error("persisted list diverged from in-memory list after remove")
	}

	// A fresh instance over the same store sees the same list.
	reopened := NewCart(f.sess, f.db, testLogger())
	if err := reopened.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(reopened.Items(), f.cart.Items()) {
		t.Error("reloaded list diverged from original")
	}
}

func TestLocalCartAddMergesQuantity(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:0")

	f.cart.addLocal(cartItem("tour-1", 1))
	f.cart.addLocal(cartItem("tour-1", 3))

	items := f.cart.Items()
	if len(items) != 1 {
		t.Fatalf("got %d entries, want 1 (same subject merges)", len(items))
	}
	if items[0].Quantity != 4 {
		t.Errorf("got quantity %d, want 4", items[0].Quantity)
	}
	if items[0].Key.Origin != models.KeyLocal {
		t.Error("offline items must carry local-origin keys")
	}
}

func TestFavoritesDoubleAddIsNoOp(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:0")

	fav := models.FavoriteItem{SubjectID: "attr-9", SubjectType: models.SubjectAttraction}
	f.favs.addLocal(fav)
	f.favs.addLocal(fav)

	if got := len(f.favs.Items()); got != 1 {
		t.Fatalf("got %d entries, want 1", got)
	}
}

func TestAddRequiresAuthentication(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:0")

	err := f.cart.Add(context.Background(), cartItem("tour-1", 1))
	if err != ErrLoginRequired {
		t.Fatalf("got %v, want ErrLoginRequired", err)
	}
	if len(f.cart.Items()) != 0 {
		t.Error("gated add must not mutate the list")
	}
}

// syncServer is a fake backend for the login-merge scenarios.
type syncServer struct {
	syncCalls  atomic.Int32
	favCreates atomic.Int32
	serverCart atomic.Value // []map[string]any
	failCart   atomic.Bool
	srv        *httptest.Server
}

func newSyncServer(t *testing.T) *syncServer {
	t.Helper()
	s := &syncServer{}
	s.serverCart.Store([]map[string]any{})
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "acc1",
			"refreshToken": "ref1",
			"user":         map[string]string{"id": "u1", "email": "ana@example.com"},
		})
	})
	mux.HandleFunc("/cart/sync", func(w http.ResponseWriter, r *http.Request) {
		s.syncCalls.Add(1)
		var body struct {
			Items []map[string]any `json:"items"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		merged := []map[string]any{}
		for i, it := range body.Items {
			merged = append(merged, map[string]any{
				"id":          "srv-" + string(rune('a'+i)),
				"subjectId":   it["subjectId"],
				"subjectType": it["subjectType"],
				"quantity":    it["quantity"],
				"addedAt":     time.Now().UTC().Format(time.RFC3339),
			})
		}
		s.serverCart.Store(merged)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		if s.failCart.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(s.serverCart.Load())
	})
	mux.HandleFunc("/favorites", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			s.favCreates.Add(1)
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`[]`))
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func TestCartSyncOnLogin(t *testing.T) {
	backend := newSyncServer(t)
	f := newFixture(t, backend.srv.URL)

	f.cart.addLocal(cartItem("tour-1", 1))
	f.cart.addLocal(cartItem("tour-2", 2))

	if err := f.sess.Login(context.Background(), "ana@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.cart.SyncLocalToRemote(context.Background()); err != nil {
		t.Fatalf("SyncLocalToRemote: %v", err)
	}

	if got := backend.syncCalls.Load(); got != 1 {
		t.Errorf("sync endpoint called %d times, want 1", got)
	}
	if f.cart.SyncStatus() != SyncSynced {
		t.Errorf("got sync status %s, want synced", f.cart.SyncStatus())
	}
	if data, _ := f.db.Get(store.CartKey); data != nil {
		t.Error("local cart key should be erased after a successful sync")
	}

	// A repeat invocation has nothing to push and must not hit the server.
	if err := f.cart.SyncLocalToRemote(context.Background()); err != nil {
		t.Fatalf("repeat sync: %v", err)
	}
	if got := backend.syncCalls.Load(); got != 1 {
		t.Errorf("sync endpoint called %d times after repeat, want still 1", got)
	}

	// Load now reflects server state with remote keys.
	if err := f.cart.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := f.cart.Items()
	if len(items) != 2 {
		t.Fatalf("got %d items after reload, want 2", len(items))
	}
	for _, it := range items {
		if it.Key.Origin != models.KeyRemote {
			t.Errorf("item %s kept a non-remote key after sync", it.SubjectID)
		}
	}
}

func TestFavoritesSyncPushesEachItem(t *testing.T) {
	backend := newSyncServer(t)
	f := newFixture(t, backend.srv.URL)

	f.favs.addLocal(models.FavoriteItem{SubjectID: "attr-1", SubjectType: models.SubjectAttraction})
	f.favs.addLocal(models.FavoriteItem{SubjectID: "attr-2", SubjectType: models.SubjectAttraction})

	if err := f.sess.Login(context.Background(), "ana@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.favs.SyncLocalToRemote(context.Background()); err != nil {
		t.Fatalf("SyncLocalToRemote: %v", err)
	}

	if got := backend.favCreates.Load(); got != 2 {
		t.Errorf("create endpoint called %d times, want 2", got)
	}
	if f.favs.SyncStatus() != SyncSynced {
		t.Errorf("got sync status %s, want synced", f.favs.SyncStatus())
	}
	if data, _ := f.db.Get(store.FavoritesKey); data != nil {
		t.Error("local favorites key should be erased after sync")
	}
}

func TestBindSyncsOnLoginTransition(t *testing.T) {
	backend := newSyncServer(t)
	f := newFixture(t, backend.srv.URL)
	unbind := f.cart.Bind()
	defer unbind()

	f.cart.addLocal(cartItem("tour-1", 1))

	if err := f.sess.Login(context.Background(), "ana@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.cart.SyncStatus() != SyncSynced {
		if time.Now().After(deadline) {
			t.Fatalf("sync never completed, status %s", f.cart.SyncStatus())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := backend.syncCalls.Load(); got != 1 {
		t.Errorf("sync endpoint called %d times, want 1", got)
	}
}

func TestRemoteLoadFallsBackToLocalCopy(t *testing.T) {
	backend := newSyncServer(t)
	f := newFixture(t, backend.srv.URL)

	f.cart.addLocal(cartItem("tour-1", 1))
	local := f.cart.Items()

	if err := f.sess.Login(context.Background(), "ana@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	backend.failCart.Store(true)
	if err := f.cart.Load(context.Background()); err != nil {
		t.Fatalf("Load should degrade, not fail: %v", err)
	}
	if !reflect.DeepEqual(f.cart.Items(), local) {
		t.Error("degraded view should serve the device-local copy")
	}
	if f.cart.SyncStatus() != SyncIdle {
		t.Errorf("degraded load must not touch sync status, got %s", f.cart.SyncStatus())
	}
}

func TestRemoteRemoveFailureLeavesMirror(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "acc1",
			"refreshToken": "ref1",
			"user":         map[string]string{"id": "u1", "email": "ana@example.com"},
		})
	})
	mux.HandleFunc("/cart/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{
			"id": "srv-1", "subjectId": "tour-1", "subjectType": "tour",
			"quantity": 1, "addedAt": time.Now().UTC().Format(time.RFC3339),
		}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newFixture(t, srv.URL)
	if err := f.sess.Login(context.Background(), "ana@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.cart.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	key := f.cart.Items()[0].Key
	if err := f.cart.Remove(context.Background(), key); err == nil {
		t.Fatal("expected remove to fail")
	}
	if len(f.cart.Items()) != 1 {
		t.Error("mirror must stay unchanged when the remote delete fails")
	}
}

func TestLogoutResetsMirrorKeepsLocalStore(t *testing.T) {
	backend := newSyncServer(t)
	f := newFixture(t, backend.srv.URL)
	unbind := f.cart.Bind()
	defer unbind()

	if err := f.sess.Login(context.Background(), "ana@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	backend.serverCart.Store([]map[string]any{{
		"id": "srv-1", "subjectId": "tour-1", "subjectType": "tour",
		"quantity": 1, "addedAt": time.Now().UTC().Format(time.RFC3339),
	}})
	if err := f.cart.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Device-local copy from an earlier anonymous run.
	seed := []models.CartItem{cartItem("tour-offline", 2)}
	seed[0].Key = models.NewLocalKey()
	data, _ := json.Marshal(seed)
	if err := f.db.Put(store.CartKey, data); err != nil {
		t.Fatalf("seed local store: %v", err)
	}

	f.sess.Logout(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for {
		items := f.cart.Items()
		if len(items) == 1 && items[0].Key.Origin == models.KeyLocal {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("local list never restored, have %+v", items)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if f.cart.SyncStatus() != SyncIdle {
		t.Errorf("logout should re-arm the one-shot sync, got %s", f.cart.SyncStatus())
	}
	if !reflect.DeepEqual(storedCart(t, f.db), seed) {
		t.Error("logout must not touch the device-local store")
	}
}

func TestLocalLoadStoreFailureKeepsItems(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:0")

	f.cart.addLocal(cartItem("tour-1", 1))
	f.cart.addLocal(cartItem("tour-2", 2))
	before := f.cart.Items()

	// A corrupt payload makes the next store read fail to decode.
	if err := f.db.Put(store.CartKey, []byte("{not json")); err != nil {
		t.Fatalf("corrupt store: %v", err)
	}

	if err := f.cart.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := f.cart.Items(); !reflect.DeepEqual(got, before) {
		t.Errorf("in-memory list changed after failed store read: got %+v, want %+v", got, before)
	}
}
