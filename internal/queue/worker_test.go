package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-bazaar/internal/common"
	"github.com/noah-isme/backend-bazaar/internal/events"
)

func TestDeliverEventSendsOrderEmail(t *testing.T) {
	ev := events.Event{
		ID:          uuid.New(),
		Topic:       events.TopicOrderCreated,
		AggregateID: uuid.New(),
		Payload:     []byte(`{"orderNumber":"ORD-000007","userId":"buyer@example.com"}`),
		OccurredAt:  time.Now(),
	}
	task, err := NewDeliverEventTask(ev)
	require.NoError(t, err)
	require.Equal(t, TypeDeliverEvent, task.Type())

	outbox := &common.InMemoryEmail{}
	w := &Worker{Log: zerolog.Nop(), Email: outbox}
	require.NoError(t, w.HandleDeliverEvent(context.Background(), task))
	require.Len(t, outbox.Outbox, 1)
	require.Contains(t, outbox.Outbox[0].HTML, "ORD-000007")
}

func TestDeliverEventIgnoresOtherTopics(t *testing.T) {
	ev := events.Event{
		ID:          uuid.New(),
		Topic:       events.TopicDiscountRedeemed,
		AggregateID: uuid.New(),
		Payload:     []byte(`{"code":"SAVE10"}`),
	}
	task, err := NewDeliverEventTask(ev)
	require.NoError(t, err)

	outbox := &common.InMemoryEmail{}
	w := &Worker{Log: zerolog.Nop(), Email: outbox}
	require.NoError(t, w.HandleDeliverEvent(context.Background(), task))
	require.Empty(t, outbox.Outbox)
}

func TestHandleOrderCreatedEmailBadPayload(t *testing.T) {
	w := &Worker{Log: zerolog.Nop(), Email: &common.InMemoryEmail{}}
	task := asynq.NewTask(TypeOrderCreatedEmail, []byte("not-json"))
	require.Error(t, w.HandleOrderCreatedEmail(context.Background(), task))
}
