package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/warehouse"
)

// EventSerializer converts domain events to and from JSON by event type
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates an empty serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{registry: make(map[string]reflect.Type)}
}

// NewWarehouseEventSerializer creates a serializer that knows every posting event
func NewWarehouseEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(warehouse.EventTypeDocumentPosted, &warehouse.DocumentPostedEvent{})
	s.Register(warehouse.EventTypeDocumentUnposted, &warehouse.DocumentUnpostedEvent{})
	s.Register(warehouse.EventTypeCashRequestApproved, &warehouse.CashRequestApprovedEvent{})
	s.Register(warehouse.EventTypeCashRequestRejected, &warehouse.CashRequestRejectedEvent{})
	s.Register(warehouse.EventTypeMoneyDocumentPosted, &warehouse.MoneyDocumentPostedEvent{})
	s.Register(warehouse.EventTypeMoneyDocumentUnposted, &warehouse.MoneyDocumentUnpostedEvent{})
	return s
}

// Register maps eventType to the concrete type of eventInstance
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize encodes a domain event
func (s *EventSerializer) Serialize(e shared.DomainEvent) ([]byte, error) {
	return json.Marshal(e)
}

// Deserialize decodes data into a new instance of the type registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	e, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("type %s does not implement DomainEvent", t)
	}
	return e, nil
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
