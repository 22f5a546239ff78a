package mailclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendPostsMessage(t *testing.T) {
	var got Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Fatalf("missing bearer key")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "Stackvest <no-reply@stackvest.test>")
	err := client.Send(context.Background(), Message{To: []string{"ada@example.com"}, Subject: "Hi", Text: "Hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.From != "Stackvest <no-reply@stackvest.test>" || got.To[0] != "ada@example.com" || got.Subject != "Hi" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestSendClassifiesFailures(t *testing.T) {
	status := http.StatusUnprocessableEntity
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()
	client := NewClient(server.URL, "", "from@stackvest.test")
	msg := Message{To: []string{"ada@example.com"}, Subject: "s", Text: "t"}

	var statusErr *StatusError
	if err := client.Send(context.Background(), msg); !errors.As(err, &statusErr) || !statusErr.Permanent() {
		t.Fatalf("expected permanent error, got %v", err)
	}

	status = http.StatusServiceUnavailable
	if err := client.Send(context.Background(), msg); !errors.As(err, &statusErr) || statusErr.Permanent() {
		t.Fatalf("expected transient error, got %v", err)
	}

	if err := client.Send(context.Background(), Message{Subject: "s"}); err == nil {
		t.Fatal("expected error without recipients")
	}
}
