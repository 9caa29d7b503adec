package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// TopicPrefix namespaces every topic this service writes, giving topics such
// as rental.listing.created.
const TopicPrefix = "rental"

// Event is the JSON envelope written as the message value.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope of type "<aggregateType>.<action>".
func NewEvent(action, aggregateID, aggregateType, source string, data any) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s.%s payload: %w", aggregateType, action, err)
	}
	return &Event{
		EventID:       uuid.NewString(),
		EventType:     aggregateType + "." + action,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          payload,
	}, nil
}

func (e *Event) Topic() string {
	return TopicPrefix + "." + e.EventType
}

// WithCorrelationID tags the event with the request that caused it.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// message encodes e keyed by aggregate id, so every event for one listing or
// feedback entry lands on the same partition.
func (e *Event) message() (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(e.EventType)},
		{Key: "source", Value: []byte(e.Source)},
	}
	if e.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: "correlation_id", Value: []byte(e.CorrelationID)})
	}
	return kafka.Message{
		Topic:   e.Topic(),
		Key:     []byte(e.AggregateID),
		Value:   value,
		Headers: headers,
	}, nil
}
