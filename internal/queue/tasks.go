// Package queue moves event delivery and notification work off the
// request path using asynq.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-bazaar/internal/events"
)

// Task type names routed through the asynq mux.
const (
	TypeDeliverEvent      = "event:deliver"
	TypeOrderCreatedEmail = "email:order_created"
)

// DeliverEventPayload is the wire form of a scheduled domain event.
type DeliverEventPayload struct {
	Event events.Event `json:"event"`
}

// OrderCreatedEmailPayload asks the worker to send the confirmation email.
type OrderCreatedEmailPayload struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId"`
}

// NewDeliverEventTask wraps a domain event for asynchronous delivery.
func NewDeliverEventTask(ev events.Event) (*asynq.Task, error) {
	payload, err := json.Marshal(DeliverEventPayload{Event: ev})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal event payload: %w", err)
	}
	return asynq.NewTask(TypeDeliverEvent, payload, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// NewOrderCreatedEmailTask builds the confirmation email task.
func NewOrderCreatedEmailTask(p OrderCreatedEmailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal email payload: %w", err)
	}
	return asynq.NewTask(TypeOrderCreatedEmail, payload, asynq.MaxRetry(3), asynq.Queue("mail")), nil
}

// Scheduler enqueues emitted events; it satisfies events.Scheduler.
type Scheduler struct {
	Client *asynq.Client
}

var deliverable = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, topic := range events.DefaultTopics() {
		set[topic] = struct{}{}
	}
	return set
}()

// Schedule hands the event to the worker pool. Topics outside the
// delivery list are persisted but never enqueued.
func (s Scheduler) Schedule(_ context.Context, ev events.Event) error {
	if s.Client == nil {
		return nil
	}
	if _, ok := deliverable[ev.Topic]; !ok {
		return nil
	}
	task, err := NewDeliverEventTask(ev)
	if err != nil {
		return err
	}
	if _, err := s.Client.Enqueue(task); err != nil {
		return fmt.Errorf("queue: enqueue %s: %w", ev.Topic, err)
	}
	return nil
}
