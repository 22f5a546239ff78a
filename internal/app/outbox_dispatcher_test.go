package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stackvest/backend/internal/store"
	"github.com/stackvest/backend/pkg/rabbitmq"
)

func TestRetryDelaySeconds(t *testing.T) {
	tests := []struct {
		attempt int
		want    int
	}{
		{0, 1},
		{1, 2},
		{3, 8},
		{8, 256},
		{12, 256},
	}
	for _, tt := range tests {
		if got := retryDelaySeconds(tt.attempt); got != tt.want {
			t.Fatalf("retryDelaySeconds(%d) = %d, want %d", tt.attempt, got, tt.want)
		}
	}
}

type stubOutbox struct {
	messages  []store.OutboxMessage
	published []int64
	failed    map[int64]int
}

func (s *stubOutbox) ClaimOutboxMessages(context.Context, int, int) ([]store.OutboxMessage, error) {
	msgs := s.messages
	s.messages = nil
	return msgs, nil
}

func (s *stubOutbox) MarkOutboxPublished(_ context.Context, id int64) error {
	s.published = append(s.published, id)
	return nil
}

func (s *stubOutbox) MarkOutboxFailed(_ context.Context, id int64, retryAfterSeconds int, _ string) error {
	if s.failed == nil {
		s.failed = map[int64]int{}
	}
	s.failed[id] = retryAfterSeconds
	return nil
}

type stubPublisher struct {
	failKey string
	sent    []string
	closed  int
}

func (p *stubPublisher) PublishJSON(_ context.Context, _ string, routingKey string, _ []byte) error {
	if routingKey == p.failKey {
		return errors.New("channel closed")
	}
	p.sent = append(p.sent, routingKey)
	return nil
}

func (p *stubPublisher) Close() { p.closed++ }

func TestOutboxDispatcherFlushOnce(t *testing.T) {
	outbox := &stubOutbox{messages: []store.OutboxMessage{
		{ID: 1, Exchange: "stackvest.events", RoutingKey: "deposit.approved", Payload: []byte(`{}`), Attempts: 1},
		{ID: 2, Exchange: "stackvest.events", RoutingKey: "transfer.completed", Payload: []byte(`{}`), Attempts: 3},
		{ID: 3, Exchange: "stackvest.events", RoutingKey: "investment.matured", Payload: []byte(`{}`), Attempts: 1},
	}}
	publisher := &stubPublisher{failKey: "transfer.completed"}
	opened := 0
	factory := func() (rabbitmq.Publisher, error) {
		opened++
		return publisher, nil
	}

	d := newOutboxDispatcher(outbox, factory, 0, nil)
	if err := d.flushOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(outbox.published) != 2 || outbox.published[0] != 1 || outbox.published[1] != 3 {
		t.Fatalf("unexpected published ids: %v", outbox.published)
	}
	if outbox.failed[2] != 8 {
		t.Fatalf("expected message 2 retried after 8s, got %v", outbox.failed)
	}
	if publisher.closed != 1 || opened != 2 {
		t.Fatalf("expected publisher reopened after failure, closed=%d opened=%d", publisher.closed, opened)
	}
}

func TestOutboxDispatcherKeepsMessagesWhenBrokerUnavailable(t *testing.T) {
	outbox := &stubOutbox{messages: []store.OutboxMessage{
		{ID: 7, RoutingKey: "user.registered", Payload: []byte(`{}`), Attempts: 2},
	}}
	factory := func() (rabbitmq.Publisher, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	d := newOutboxDispatcher(outbox, factory, 0, nil)
	if err := d.flushOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outbox.published) != 0 || outbox.failed[7] != 4 {
		t.Fatalf("expected message to be rescheduled, published=%v failed=%v", outbox.published, outbox.failed)
	}
}
