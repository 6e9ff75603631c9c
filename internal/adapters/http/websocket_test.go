package http

import (
	"testing"

	"github.com/samirrijal/earthwork/internal/core/domain"
)

func TestEventFilter(t *testing.T) {
	completedTIN := &domain.CalculationEvent{Status: "completed", Method: domain.MethodTIN}
	failedGrid := &domain.CalculationEvent{Status: "failed", Method: domain.MethodGrid}

	f := newEventFilter()
	if !f.matches(completedTIN) || !f.matches(failedGrid) {
		t.Fatal("empty filter should match every event")
	}

	if ack := f.apply(wsMessage{Action: "subscribe", Channel: "failed"}); ack["status"] != "ok" {
		t.Fatalf("unexpected ack: %v", ack)
	}
	if f.matches(completedTIN) || !f.matches(failedGrid) {
		t.Error("status filter not applied")
	}

	f.apply(wsMessage{Action: "subscribe", Method: domain.MethodTIN})
	if f.matches(failedGrid) {
		t.Error("method filter not applied")
	}

	f.apply(wsMessage{Action: "unsubscribe", Channel: "failed"})
	if !f.matches(completedTIN) {
		t.Error("unsubscribe should widen the stream")
	}

	f.apply(wsMessage{Action: "reset"})
	if !f.matches(failedGrid) {
		t.Error("reset should clear every filter")
	}
}

func TestEventFilter_Rejects(t *testing.T) {
	tests := []struct {
		name string
		msg  wsMessage
	}{
		{"unknown channel", wsMessage{Action: "subscribe", Channel: "vehicles"}},
		{"unknown method", wsMessage{Action: "subscribe", Method: "kriging"}},
		{"unknown action", wsMessage{Action: "pause"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEventFilter()
			ack := f.apply(tt.msg)
			if _, ok := ack["error"]; !ok {
				t.Errorf("expected an error ack, got %v", ack)
			}
			if len(f.statuses) != 0 || len(f.methods) != 0 {
				t.Error("rejected message changed the filter")
			}
		})
	}
}
