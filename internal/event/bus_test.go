package event

import (
	"context"
	"errors"
	"testing"
)

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"history.pushed", "history.pushed", true},
		{"history.pushed", "history.*", true},
		{"history.pushed", "*.pushed", true},
		{"history.pushed", "**", true},
		{"history.pushed", "history.**", true},
		{"history.pushed", "history.undone", false},
		{"history.pushed", "history", false},
		{"history", "history.*", false},
		{"config.reloaded", "history.*", false},
		{"a.b.c", "a.*", false},
		{"a.b.c", "a.**", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic)+"~"+string(tt.pattern), func(t *testing.T) {
			if got := tt.topic.Matches(tt.pattern); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopicValid(t *testing.T) {
	valid := []Topic{"a", "a.b", "history.*"}
	invalid := []Topic{"", ".", "a..b", "a."}

	for _, tp := range valid {
		if !tp.Valid() {
			t.Errorf("%q should be valid", tp)
		}
	}
	for _, tp := range invalid {
		if tp.Valid() {
			t.Errorf("%q should be invalid", tp)
		}
	}
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(WithSource("test"))
	ctx := context.Background()

	var got []Event
	_, err := bus.Subscribe("history.*", func(_ context.Context, ev Event) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	payload := HistoryChanged{Widget: "text", Len: 2, CanUndo: true}
	if err := bus.Publish(ctx, TopicHistoryPushed, payload); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := bus.Publish(ctx, TopicConfigReloaded, ConfigReloaded{}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("received %d events, want 1", len(got))
	}
	if got[0].Topic != TopicHistoryPushed {
		t.Errorf("Topic = %q", got[0].Topic)
	}
	if got[0].Source != "test" {
		t.Errorf("Source = %q, want %q", got[0].Source, "test")
	}
	if p, ok := got[0].Payload.(HistoryChanged); !ok || p != payload {
		t.Errorf("Payload = %#v", got[0].Payload)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestBusSubscribeErrors(t *testing.T) {
	bus := NewBus()

	if _, err := bus.Subscribe("", func(context.Context, Event) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if _, err := bus.Subscribe("a.b", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil handler error = %v, want ErrNilHandler", err)
	}
}

func TestBusPublishRejectsPattern(t *testing.T) {
	bus := NewBus()
	if err := bus.Publish(context.Background(), "history.*", nil); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("error = %v, want ErrInvalidTopic", err)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	sub, _ := bus.Subscribe("a", func(context.Context, Event) error {
		calls++
		return nil
	})

	if err := bus.Unsubscribe(sub); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if err := bus.Unsubscribe(sub); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("second Unsubscribe error = %v, want ErrSubscriptionNotFound", err)
	}

	_ = bus.Publish(context.Background(), "a", nil)
	if calls != 0 {
		t.Errorf("handler called %d times after unsubscribe", calls)
	}
	if bus.Stats().SubscriptionsNow != 0 {
		t.Errorf("SubscriptionsNow = %d, want 0", bus.Stats().SubscriptionsNow)
	}
}

func TestBusHandlerErrorsAreJoined(t *testing.T) {
	bus := NewBus()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	calls := 0

	bus.Subscribe("x", func(context.Context, Event) error { calls++; return errA })
	bus.Subscribe("x", func(context.Context, Event) error { calls++; return errB })

	err := bus.Publish(context.Background(), "x", nil)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("error = %v, want both handler errors", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if bus.Stats().HandlerErrors != 2 {
		t.Errorf("HandlerErrors = %d, want 2", bus.Stats().HandlerErrors)
	}
}

func TestBusRecoversPanics(t *testing.T) {
	var recovered any
	bus := NewBus(WithPanicHandler(func(_ Event, r any) { recovered = r }))
	after := false

	bus.Subscribe("x", func(context.Context, Event) error { panic("boom") })
	bus.Subscribe("x", func(context.Context, Event) error { after = true; return nil })

	err := bus.Publish(context.Background(), "x", nil)
	if !errors.Is(err, ErrHandlerPanic) {
		t.Errorf("error = %v, want ErrHandlerPanic", err)
	}
	if recovered != "boom" {
		t.Errorf("recovered = %v, want boom", recovered)
	}
	if !after {
		t.Error("handlers after a panic should still run")
	}
	if bus.Stats().HandlerPanics != 1 {
		t.Errorf("HandlerPanics = %d, want 1", bus.Stats().HandlerPanics)
	}
}

func TestBusStopsOnCancelledContext(t *testing.T) {
	bus := NewBus()
	calls := 0
	bus.Subscribe("x", func(context.Context, Event) error { calls++; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(ctx, "x", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}
