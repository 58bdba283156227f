package notifier

import (
	"context"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/queue"
	"github.com/sarafbook/ledger/pkg/logger"
)

// Publisher pushes committed transaction events onto the notification
// stream. Publishing is fire-and-forget: the ledger operation has already
// committed, so a broken stream is logged and swallowed, never surfaced.
type Publisher struct {
	queue *queue.Queue
}

func NewPublisher(q *queue.Queue) *Publisher {
	return &Publisher{queue: q}
}

func (p *Publisher) TransactionCreated(ctx context.Context, event model.TransactionEvent) {
	_, err := p.queue.PublishJSON(ctx, event, map[string]string{"kind": event.Kind})
	if err != nil {
		logger.Error("failed to publish transaction event",
			"event_id", event.EventID,
			"kind", event.Kind,
			"record_id", event.RecordID,
			"error", err)
		return
	}
	logger.Info("transaction event published", "event_id", event.EventID, "kind", event.Kind)
}
