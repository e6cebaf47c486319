package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// RunCompletedMessage announces one finished pipeline run with its totals,
// so downstream consumers (dashboards, alerting) don't have to poll the
// audit database.
type RunCompletedMessage struct {
	RunID             string         `json:"run_id"`
	ThreadsSeen       int            `json:"threads_seen"`
	PlacedByPartition map[string]int `json:"placed_by_partition"`
	ErrorCount        int            `json:"error_count"`
	DiscardedThreads  int            `json:"discarded_threads"`
	Timestamp         time.Time      `json:"timestamp"`
}

// NewRunCompletedMessage builds a run summary message.
func NewRunCompletedMessage(runID string, threadsSeen int, placed map[string]int, errorCount, discarded int) *RunCompletedMessage {
	return &RunCompletedMessage{
		RunID:             runID,
		ThreadsSeen:       threadsSeen,
		PlacedByPartition: placed,
		ErrorCount:        errorCount,
		DiscardedThreads:  discarded,
		Timestamp:         time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RunCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunCompletedMessageFromJSON creates a message from JSON bytes
func RunCompletedMessageFromJSON(data []byte) (*RunCompletedMessage, error) {
	var msg RunCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// TriggerMessage asks the worker to run the pipeline now instead of waiting
// for the next poll tick.
type TriggerMessage struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *TriggerMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TriggerMessageFromJSON creates a message from JSON bytes. A trigger must
// carry a reason; without this check any JSON object (a run summary, say)
// would decode as an empty trigger.
func TriggerMessageFromJSON(data []byte) (*TriggerMessage, error) {
	var msg TriggerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Reason == "" {
		return nil, fmt.Errorf("trigger message has no reason")
	}
	return &msg, nil
}
