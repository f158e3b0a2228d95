package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second, WithDispatchTimeout(200*time.Millisecond))
}

func closedServerURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestFetchOrdersCacheBustsAndDecodes(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("_t")
		_, _ = w.Write([]byte(`[{"id":3,"status":"대기중","company":"ACME","quantity":2}]`))
	})
	c.now = func() time.Time { return time.Unix(0, 42) }

	orders, err := c.FetchOrders(context.Background())
	if err != nil {
		t.Fatalf("fetch orders: %v", err)
	}
	if gotQuery != "42" {
		t.Fatalf("expected cache-bust token 42, got %q", gotQuery)
	}
	if len(orders) != 1 || orders[0].ID != "3" || orders[0].Company != "ACME" {
		t.Fatalf("unexpected orders %+v", orders)
	}
}

func TestFetchOrdersToleratesOddDisplayColumns(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":1,"status":"대기중","price":"12,000","quantity":"2개","note":null},
			{"id":2,"status":"승인됨","price":5000,"quantity":3},
			{"id":3,"status":"대기중","price":1000.5,"contact":{"tel":"010"}}
		]`))
	})

	orders, err := c.FetchOrders(context.Background())
	if err != nil {
		t.Fatalf("fetch orders: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected all rows loaded, got %d", len(orders))
	}
	if orders[0].Price != "12,000" || orders[0].Quantity != "2개" || orders[0].Note != "" {
		t.Fatalf("unexpected first row %+v", orders[0])
	}
	if orders[1].Price != "5000" || orders[1].Quantity != "3" {
		t.Fatalf("unexpected second row %+v", orders[1])
	}
	if orders[2].Price != "1000.5" || orders[2].Contact != `{"tel":"010"}` {
		t.Fatalf("unexpected third row %+v", orders[2])
	}
}

func TestFetchOrdersServerRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "db locked", http.StatusInternalServerError)
	})

	_, err := c.FetchOrders(context.Background())
	var be *Error
	if !errors.As(err, &be) || be.Kind != ServerRejected {
		t.Fatalf("expected ServerRejected, got %v", err)
	}
	if be.StatusCode != 500 || be.Body != "db locked" {
		t.Fatalf("expected status and body captured, got %+v", be)
	}
	if !errors.Is(err, ErrRejected) || errors.Is(err, ErrNetwork) {
		t.Fatalf("sentinel matching broken for %v", err)
	}
}

func TestFetchOrdersDecodeFailures(t *testing.T) {
	for _, body := range []string{"not json", "null", `{"id":1}`} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		orders, err := c.FetchOrders(context.Background())
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("body %q: expected DecodeFailure, got %v", body, err)
		}
		if orders != nil {
			t.Fatalf("body %q: expected no partial result", body)
		}
	}
}

func TestConnectionRefusedIsNetworkFailure(t *testing.T) {
	c := NewClient(closedServerURL(t), time.Second)

	if _, err := c.FetchOrders(context.Background()); KindOf(err) != NetworkFailure {
		t.Fatalf("expected NetworkFailure from fetch, got %v", err)
	}
	if err := c.UpdateStatus(context.Background(), "1", "승인됨"); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected NetworkFailure from update, got %v", err)
	}
	err := c.StartDepalletizer(context.Background(), DispatchRequest{OrderID: "1"})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected NetworkFailure from dispatch, got %v", err)
	}
}

func TestDispatchTimeoutIsNetworkFailure(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	start := time.Now()
	err := c.StartDepalletizer(context.Background(), DispatchRequest{OrderID: "9"})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected timeout to classify as network failure, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("dispatch did not honour its timeout")
	}
}

func TestUpdateStatusAndDeleteBodies(t *testing.T) {
	type call struct {
		path string
		body map[string]string
	}
	var calls []call
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{r.URL.Path, body})
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	if err := c.UpdateStatus(context.Background(), "12", "취소"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := c.DeleteOrder(context.Background(), "12"); err != nil {
		t.Fatalf("delete order: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected two calls, got %d", len(calls))
	}
	if calls[0].path != "/api/order/update_status" || calls[0].body["id"] != "12" || calls[0].body["status"] != "취소" {
		t.Fatalf("unexpected update call %+v", calls[0])
	}
	if calls[1].path != "/api/order/delete" || calls[1].body["id"] != "12" {
		t.Fatalf("unexpected delete call %+v", calls[1])
	}
}

func TestDeleteRejectedCarriesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"order not found"}`, http.StatusNotFound)
	})
	err := c.DeleteOrder(context.Background(), "404")
	if err == nil || !strings.Contains(err.Error(), "order not found") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestStartDepalletizerBody(t *testing.T) {
	var got DispatchRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/depalletizer/start" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	})

	req := DispatchRequest{OrderID: "5", Action: ActionMoveFromCarToShelf, Source: SourceArduinoCar, TargetSlot: "B-2"}
	if err := c.StartDepalletizer(context.Background(), req); err != nil {
		t.Fatalf("start depalletizer: %v", err)
	}
	if got != req {
		t.Fatalf("expected %+v, got %+v", req, got)
	}
}

func TestFetchProductsAndSlots(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products":
			_, _ = w.Write([]byte(`[{"item_code":"SKU-1","product_name":"Ball","stock":3}]`))
		case "/api/slots":
			if r.URL.RawQuery != "" {
				t.Errorf("slots must not be cache-busted, got %q", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`[{"slot_id":"A-1","x":0,"y":0,"w":10,"h":10,"is_active":true}]`))
		default:
			http.NotFound(w, r)
		}
	})

	products, err := c.FetchProducts(context.Background())
	if err != nil || len(products) != 1 || products[0].Stock != 3 {
		t.Fatalf("unexpected products %+v err=%v", products, err)
	}
	slots, err := c.FetchSlots(context.Background())
	if err != nil || len(slots) != 1 || !slots[0].Active || slots[0].ID != "A-1" {
		t.Fatalf("unexpected slots %+v err=%v", slots, err)
	}
}
