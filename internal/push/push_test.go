package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend(t *testing.T) {
	var got []expoMessage
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"data": [{"status": "ok"}]}`)
	}))
	defer server.Close()

	svc := NewService("expo-token", WithEndpoint(server.URL), WithHTTPClient(server.Client()))
	err := svc.Send("ExponentPushToken[abc]", Payload{Title: "Chore due", Body: "Dishes is due today"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if auth != "Bearer expo-token" {
		t.Errorf("Authorization = %q, want bearer token", auth)
	}
	if len(got) != 1 {
		t.Fatalf("message count = %d, want 1", len(got))
	}
	if got[0].To != "ExponentPushToken[abc]" {
		t.Errorf("to = %q", got[0].To)
	}
	if got[0].Title != "Chore due" {
		t.Errorf("title = %q", got[0].Title)
	}
}

func TestSendNoAccessToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data": [{"status": "ok"}]}`)
	}))
	defer server.Close()

	svc := NewService("", WithEndpoint(server.URL), WithHTTPClient(server.Client()))
	if err := svc.Send("tok", Payload{Title: "t"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if auth != "" {
		t.Errorf("Authorization = %q, want empty", auth)
	}
}

func TestSendDeviceNotRegistered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [{"status": "error", "message": "gone", "details": {"error": "DeviceNotRegistered"}}]}`)
	}))
	defer server.Close()

	svc := NewService("", WithEndpoint(server.URL), WithHTTPClient(server.Client()))
	err := svc.Send("stale", Payload{Title: "t"})
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("err = %v, want ErrNotRegistered", err)
	}
}

func TestSendOtherTicketError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [{"status": "error", "message": "rate limited", "details": {"error": "MessageRateExceeded"}}]}`)
	}))
	defer server.Close()

	svc := NewService("", WithEndpoint(server.URL), WithHTTPClient(server.Client()))
	err := svc.Send("tok", Payload{Title: "t"})
	if err == nil || errors.Is(err, ErrNotRegistered) {
		t.Fatalf("err = %v, want generic rejection", err)
	}
}

func TestSendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewService("", WithEndpoint(server.URL), WithHTTPClient(server.Client()))
	if err := svc.Send("tok", Payload{Title: "t"}); err == nil {
		t.Fatal("expected error on 502")
	}
}
