package amqp

import (
	"testing"
	"time"
)

func TestRunCompletedMessageRoundTrip(t *testing.T) {
	msg := NewRunCompletedMessage("run-1", 7, map[string]int{"3/1/2026 - 3/14/2026": 3}, 2, 1)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := RunCompletedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.RunID != "run-1" || got.ErrorCount != 2 || got.PlacedByPartition["3/1/2026 - 3/14/2026"] != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestTriggerMessageRoundTrip(t *testing.T) {
	msg := &TriggerMessage{Reason: "manual", Timestamp: time.Now()}
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := TriggerMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Reason != "manual" {
		t.Errorf("reason = %q", got.Reason)
	}
}

func TestTriggerMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := TriggerMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestTriggerMessageFromJSONRejectsRunSummary(t *testing.T) {
	summary := NewRunCompletedMessage("run-1", 7, nil, 0, 0)
	data, err := summary.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	// A worker's own completion event must never come back as a trigger.
	if _, err := TriggerMessageFromJSON(data); err == nil {
		t.Fatal("run summary decoded as a trigger")
	}
}

func TestTriggerMessageFromJSONRejectsMissingReason(t *testing.T) {
	if _, err := TriggerMessageFromJSON([]byte(`{"timestamp":"2026-03-01T00:00:00Z"}`)); err == nil {
		t.Fatal("expected error for trigger without a reason")
	}
}
