package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-bazaar/internal/common"
	"github.com/noah-isme/backend-bazaar/internal/events"
)

// Worker processes queued tasks in cmd/worker.
type Worker struct {
	Log   zerolog.Logger
	Email common.EmailSender
}

// Mux returns the task router for the asynq server.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDeliverEvent, w.HandleDeliverEvent)
	mux.HandleFunc(TypeOrderCreatedEmail, w.HandleOrderCreatedEmail)
	return mux
}

// HandleDeliverEvent fans a persisted event out to downstream consumers.
// Delivery is at-least-once; consumers must dedupe on event id.
func (w *Worker) HandleDeliverEvent(_ context.Context, task *asynq.Task) error {
	var payload DeliverEventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("queue: decode event payload: %w", err)
	}
	w.Log.Info().
		Str("topic", payload.Event.Topic).
		Str("event_id", payload.Event.ID.String()).
		Str("aggregate_id", payload.Event.AggregateID.String()).
		Msg("delivering domain event")

	if payload.Event.Topic == events.TopicOrderCreated && w.Email != nil {
		var body struct {
			OrderNumber string `json:"orderNumber"`
			UserID      string `json:"userId"`
		}
		if err := json.Unmarshal(payload.Event.Payload, &body); err == nil && body.OrderNumber != "" {
			return w.Email.Send(body.UserID,
				"Order confirmed",
				fmt.Sprintf("Your order %s has been received.", body.OrderNumber))
		}
	}
	return nil
}

// HandleOrderCreatedEmail sends the order confirmation email.
func (w *Worker) HandleOrderCreatedEmail(_ context.Context, task *asynq.Task) error {
	var payload OrderCreatedEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("queue: decode email payload: %w", err)
	}
	if w.Email == nil {
		w.Log.Warn().Str("order", payload.OrderNumber).Msg("email sender not configured, dropping task")
		return nil
	}
	return w.Email.Send(payload.UserID,
		"Order confirmed",
		fmt.Sprintf("Your order %s has been received.", payload.OrderNumber))
}
