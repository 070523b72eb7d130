package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, 5*time.Second, func() string { return "tok123" }, zap.NewNop())
}

func TestSendAlertSuccess(t *testing.T) {
	var gotPath, gotAuth, gotReqID, gotTo, gotMessage string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		_ = r.ParseForm()
		gotTo = r.PostForm.Get("to")
		gotMessage = r.PostForm.Get("message")
		w.Write([]byte(`{"message": "alert sent", "data": {"id": "alert-42"}}`))
	})

	id, err := c.SendAlert(context.Background(), "ada", "wake up")
	if err != nil {
		t.Fatalf("SendAlert() error = %v", err)
	}
	if id != "alert-42" {
		t.Errorf("alert id = %q, want alert-42", id)
	}
	if gotPath != "/send_alert/" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Token tok123" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotReqID == "" {
		t.Error("missing X-Request-ID header")
	}
	if gotTo != "ada" || gotMessage != "wake up" {
		t.Errorf("form = to:%q message:%q", gotTo, gotMessage)
	}
}

func TestStatusErrorCarriesBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "this user does not have you as a friend"}`))
	})

	_, err := c.SendAlert(context.Background(), "bob", "hi")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.Code != 403 {
		t.Errorf("code = %d, want 403", se.Code)
	}
	if se.Body == "" {
		t.Error("body should carry the server message for sub-case classification")
	}
}

func TestNoTokenOmitsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"message": "ok"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, 5*time.Second, func() string { return "" }, zap.NewNop())
	if err := c.RegisterDevice(context.Background(), "push1"); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("auth header = %q, want unset without a token", gotAuth)
	}
}

func TestReceiptEndpoints(t *testing.T) {
	var paths []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"message": "ok"}`))
	})

	ctx := context.Background()
	if err := c.SendDeliveredReceipt(ctx, "ada", "alert-1"); err != nil {
		t.Fatal(err)
	}
	if err := c.SendReadReceipt(ctx, "ada", "alert-1"); err != nil {
		t.Fatal(err)
	}
	if err := c.AddFriend(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	if err := c.UnregisterDevice(ctx, "push1"); err != nil {
		t.Fatal(err)
	}

	want := []string{"/alert_delivered/", "/alert_read/", "/add_friend/", "/unregister_device/"}
	if len(paths) != len(want) {
		t.Fatalf("got %d requests, want %d", len(paths), len(want))
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("request %d hit %q, want %q", i, paths[i], p)
		}
	}
}

func TestContextCancellation(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SendAlert(ctx, "ada", "hi")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
