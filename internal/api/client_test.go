package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
)

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Do(context.Background(), http.MethodGet, "/cart", nil, "tok123"); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("got auth header %q, want %q", gotAuth, "Bearer tok123")
	}
}

func TestDoSkipsAuthHeaderWhenAnonymous(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Do(context.Background(), http.MethodGet, "/cart", nil, ""); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("got auth header %q, want none", gotAuth)
	}
}

func TestClassify401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Do(context.Background(), http.MethodGet, "/cart", nil, "stale")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response not returned alongside the error: %+v", resp)
	}
	if IsTransient(err) {
		t.Error("401 must not classify as transient")
	}
}

func TestClassifyValidationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":"invalid_quantity","message":"quantity must be positive"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Do(context.Background(), http.MethodPost, "/cart", map[string]int{"quantity": -1}, "tok")

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %T (%v), want *ValidationError", err, err)
	}
	if verr.Code != "invalid_quantity" {
		t.Errorf("got code %q, want invalid_quantity", verr.Code)
	}
	if verr.Message != "quantity must be positive" {
		t.Errorf("server message not surfaced verbatim: %q", verr.Message)
	}
	if IsTransient(err) {
		t.Error("validation failure must not classify as transient")
	}
}

func TestClassifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Do(context.Background(), http.MethodGet, "/cart", nil, "tok")

	var serr *ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("got %T (%v), want *ServerError", err, err)
	}
	if !IsTransient(err) {
		t.Error("5xx should classify as transient")
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL)
	_, err := c.Do(context.Background(), http.MethodGet, "/cart", nil, "")

	var terr *TransientError
	if !errors.As(err, &terr) {
		t.Fatalf("got %T (%v), want *TransientError", err, err)
	}
	if !IsTransient(err) {
		t.Error("transport failure should classify as transient")
	}
}

func TestListCartMapsServerIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cart" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`[{"id":"srv-1","subjectId":"tour-42","subjectType":"tour","quantity":2,"addedAt":"2026-08-01T10:00:00Z"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	items, err := ListCart(context.Background(), requesterFunc(func(ctx context.Context, method, path string, body any) (*Response, error) {
		return c.Do(ctx, method, path, body, "tok")
	}))
	if err != nil {
		t.Fatalf("ListCart: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Key.Value != "srv-1" {
		t.Errorf("got key %q, want srv-1", items[0].Key.Value)
	}
	if items[0].Key.Origin != models.KeyRemote {
		t.Error("server items must carry remote-origin keys")
	}
}

type requesterFunc func(ctx context.Context, method, path string, body any) (*Response, error)

func (f requesterFunc) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	return f(ctx, method, path, body)
}
