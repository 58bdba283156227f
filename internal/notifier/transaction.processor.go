package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/queue"
	"github.com/sarafbook/ledger/internal/repository"
	"github.com/sarafbook/ledger/pkg/logger"
	"github.com/sarafbook/ledger/pkg/prom"
)

type AccountReader interface {
	Get(ctx context.Context, orgID int64, key model.AccountKey) (*model.Account, error)
}

type CustomerReader interface {
	Get(ctx context.Context, orgID, id int64) (*model.Customer, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	SetStatus(ctx context.Context, eventID string, status model.NotificationStatus) error
}

// TransactionProcessor turns one queued transaction event into channel
// deliveries. The account's channel flags decide where it goes; the customer
// row supplies the recipient address.
type TransactionProcessor struct {
	accounts      AccountReader
	customers     CustomerReader
	notifications NotificationRepository
	sender        Sender
}

func NewTransactionProcessor(accounts AccountReader, customers CustomerReader, notifications NotificationRepository, sender Sender) *TransactionProcessor {
	return &TransactionProcessor{
		accounts:      accounts,
		customers:     customers,
		notifications: notifications,
		sender:        sender,
	}
}

func (p *TransactionProcessor) GetType() string {
	return "transaction"
}

// Process delivers the event. Returning nil acks the message; returning an
// error leaves it pending for retry and eventually the DLQ.
func (p *TransactionProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	var event model.TransactionEvent
	if err := json.Unmarshal(queueMessage.Data, &event); err != nil {
		logger.Error("failed to unmarshal transaction event", "error", err)
		return err
	}

	account, err := p.accounts.Get(ctx, event.OrgID, model.AccountKey{
		OwnerID:    event.CustomerID,
		CurrencyID: event.CurrencyID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// Account closed since the event was published, nobody to notify.
			logger.Warn("account gone, dropping event", "event_id", event.EventID)
			return nil
		}
		return fmt.Errorf("load account: %w", err)
	}

	channels := account.Channels()
	if len(channels) == 0 {
		logger.Info("no channels enabled, dropping event", "event_id", event.EventID)
		return nil
	}

	customer, err := p.customers.Get(ctx, event.OrgID, event.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			logger.Warn("customer gone, dropping event", "event_id", event.EventID)
			return nil
		}
		return fmt.Errorf("load customer: %w", err)
	}
	if customer.Phone == "" {
		logger.Warn("customer has no phone, dropping event",
			"event_id", event.EventID, "customer_id", customer.ID)
		return nil
	}

	// On a retry the row already exists (event_id is unique), which is fine:
	// the final SetStatus below still lands on it.
	_, err = p.notifications.Create(ctx, &model.Notification{
		OrgID:      event.OrgID,
		CustomerID: event.CustomerID,
		EventID:    event.EventID,
		Kind:       event.Kind,
		Amount:     event.Amount,
		CurrencyID: event.CurrencyID,
		Channels:   channels,
		Status:     model.NotificationPending,
	})
	if err != nil {
		logger.Warn("failed to record notification", "event_id", event.EventID, "error", err)
	}

	text := renderText(event)
	var failed []string
	for _, channel := range channels {
		if err := p.sender.Send(ctx, channel, customer.Phone, text); err != nil {
			logger.Error("channel delivery failed",
				"event_id", event.EventID, "channel", channel, "error", err)
			failed = append(failed, channel)
			continue
		}
		prom.IncNotificationDelivered(channel)
	}

	if len(failed) > 0 {
		if err := p.notifications.SetStatus(ctx, event.EventID, model.NotificationFailed); err != nil {
			logger.Error("failed to mark notification failed", "event_id", event.EventID, "error", err)
		}
		return fmt.Errorf("delivery failed on %d of %d channels", len(failed), len(channels))
	}

	if err := p.notifications.SetStatus(ctx, event.EventID, model.NotificationDelivered); err != nil {
		logger.Error("failed to mark notification delivered", "event_id", event.EventID, "error", err)
	}
	return nil
}

func renderText(event model.TransactionEvent) string {
	switch event.Kind {
	case "deposit":
		return fmt.Sprintf("Deposit of %s received on your account (currency %d). Ref %d.",
			event.Amount.String(), event.CurrencyID, event.RecordID)
	case "withdraw":
		return fmt.Sprintf("Withdrawal of %s from your account (currency %d). Ref %d.",
			event.Amount.String(), event.CurrencyID, event.RecordID)
	case "transfer":
		return fmt.Sprintf("Transfer of %s charged to your account (currency %d). Ref %d.",
			event.Amount.String(), event.CurrencyID, event.RecordID)
	case "receive":
		return fmt.Sprintf("Remittance of %s paid out of your account (currency %d). Ref %d.",
			event.Amount.String(), event.CurrencyID, event.RecordID)
	default:
		return fmt.Sprintf("Transaction of %s on your account (currency %d). Ref %d.",
			event.Amount.String(), event.CurrencyID, event.RecordID)
	}
}
