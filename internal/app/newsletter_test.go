package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
)

func TestBatchRecipients(t *testing.T) {
	subs := make([]domain.NewsletterSubscriber, 5)
	for i := range subs {
		subs[i] = domain.NewsletterSubscriber{Email: fmt.Sprintf("user%d@example.com", i), UnsubscribeToken: fmt.Sprintf("tok-%d", i)}
	}

	batches := batchRecipients(subs, 2, "March update", "Returns are in.")
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	sizes := []int{2, 2, 1}
	for i, batch := range batches {
		if len(batch.Recipients) != sizes[i] {
			t.Fatalf("batch %d: expected %d recipients, got %d", i, sizes[i], len(batch.Recipients))
		}
		if batch.Subject != "March update" {
			t.Fatalf("batch %d: unexpected subject %q", i, batch.Subject)
		}
	}
	if last := batches[2].Recipients[0]; last.Email != "user4@example.com" || last.UnsubscribeToken != "tok-4" {
		t.Fatalf("unexpected last recipient: %+v", last)
	}

	if got := batchRecipients(nil, 2, "s", "b"); len(got) != 0 {
		t.Fatalf("expected no batches for empty list, got %d", len(got))
	}
}

func newsletterSubscribers(n int) []domain.NewsletterSubscriber {
	subs := make([]domain.NewsletterSubscriber, n)
	for i := range subs {
		subs[i] = domain.NewsletterSubscriber{Email: fmt.Sprintf("reader%d@example.com", i), Subscribed: true, UnsubscribeToken: fmt.Sprintf("u-%d", i)}
	}
	return subs
}

func TestSendNewsletterEnqueuesBatches(t *testing.T) {
	var enqueued [][]domain.NewsletterDispatchEvent
	repo := &stubRepo{
		subscribersFn: func(context.Context) ([]domain.NewsletterSubscriber, error) {
			return newsletterSubscribers(3), nil
		},
		enqueueNewsletterFn: func(_ context.Context, batches []domain.NewsletterDispatchEvent) error {
			enqueued = append(enqueued, batches)
			return nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.SendNewsletter(context.Background(), domain.NewsletterRequest{Subject: " ", Body: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank subject, got %v", err)
	}

	result, err := svc.SendNewsletter(context.Background(), domain.NewsletterRequest{Subject: " March ", Body: "Returns are in."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Recipients != 3 || result.Batches != 2 || result.Notifications != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(enqueued) != 1 || len(enqueued[0]) != 2 {
		t.Fatalf("expected one enqueue of 2 batches, got %v", enqueued)
	}
	if b := enqueued[0][0]; b.Subject != "March" || len(b.Recipients) != 2 || b.Recipients[1].UnsubscribeToken != "u-1" {
		t.Fatalf("unexpected first batch %+v", b)
	}
}

func TestSendNewsletterWithoutSubscribersSkipsEnqueue(t *testing.T) {
	repo := &stubRepo{
		subscribersFn: func(context.Context) ([]domain.NewsletterSubscriber, error) { return nil, nil },
	}
	svc := newTestService(repo)

	result, err := svc.SendNewsletter(context.Background(), domain.NewsletterRequest{Subject: "s", Body: "b"})
	if err != nil || result.Batches != 0 {
		t.Fatalf("expected empty result, got %+v (%v)", result, err)
	}
}

func TestSendNewsletterInAppFailureKeepsQueuedEmails(t *testing.T) {
	var enqueues int
	listErr := errors.New("db timeout")
	repo := &stubRepo{
		subscribersFn: func(context.Context) ([]domain.NewsletterSubscriber, error) {
			return newsletterSubscribers(1), nil
		},
		enqueueNewsletterFn: func(context.Context, []domain.NewsletterDispatchEvent) error {
			enqueues++
			return nil
		},
		newsletterUserIDsFn: func(context.Context) ([]uuid.UUID, error) { return nil, listErr },
	}
	svc := newTestService(repo)

	result, err := svc.SendNewsletter(context.Background(), domain.NewsletterRequest{Subject: "s", Body: "b", InApp: true})
	if err != nil {
		t.Fatalf("queued emails should not be reported as a failure: %v", err)
	}
	if enqueues != 1 || result.Batches != 1 || !result.InAppFailed || result.Notifications != 0 {
		t.Fatalf("unexpected result %+v after %d enqueues", result, enqueues)
	}
}

func TestSendNewsletterInAppUsesContentKey(t *testing.T) {
	reader := uuid.New()
	var keys []string
	repo := &stubRepo{
		subscribersFn: func(context.Context) ([]domain.NewsletterSubscriber, error) {
			return newsletterSubscribers(1), nil
		},
		enqueueNewsletterFn: func(context.Context, []domain.NewsletterDispatchEvent) error { return nil },
		newsletterUserIDsFn: func(context.Context) ([]uuid.UUID, error) { return []uuid.UUID{reader}, nil },
		createNotificationFn: func(_ context.Context, ids []uuid.UUID, template domain.Notification) (int, error) {
			if template.Category != domain.CategoryNewsletter || len(ids) != 1 || ids[0] != reader {
				t.Fatalf("unexpected in-app notification %+v for %v", template, ids)
			}
			keys = append(keys, *template.DedupeKey)
			return 1, nil
		},
	}
	svc := newTestService(repo)

	for i := 0; i < 2; i++ {
		result, err := svc.SendNewsletter(context.Background(), domain.NewsletterRequest{Subject: "March", Body: "Returns are in.", InApp: true})
		if err != nil || result.Notifications != 1 || result.InAppFailed {
			t.Fatalf("send %d: unexpected result %+v (%v)", i+1, result, err)
		}
	}
	if len(keys) != 2 || keys[0] != keys[1] {
		t.Fatalf("resending the same newsletter should reuse the dedupe key, got %v", keys)
	}
}
