package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/queue"
	"github.com/sarafbook/ledger/internal/repository"
	"github.com/sarafbook/ledger/pkg/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	rows map[model.AccountKey]*model.Account
}

func (f *fakeAccounts) Get(_ context.Context, orgID int64, key model.AccountKey) (*model.Account, error) {
	acc, ok := f.rows[key]
	if !ok || acc.OrgID != orgID {
		return nil, repository.ErrAccountNotFound
	}
	return acc, nil
}

type fakeCustomers struct {
	rows map[int64]*model.Customer
}

func (f *fakeCustomers) Get(_ context.Context, orgID, id int64) (*model.Customer, error) {
	c, ok := f.rows[id]
	if !ok || c.OrgID != orgID {
		return nil, repository.ErrCustomerNotFound
	}
	return c, nil
}

type fakeNotifications struct {
	created []*model.Notification
	status  map[string]model.NotificationStatus
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{status: make(map[string]model.NotificationStatus)}
}

func (f *fakeNotifications) Create(_ context.Context, n *model.Notification) (*model.Notification, error) {
	f.created = append(f.created, n)
	f.status[n.EventID] = n.Status
	return n, nil
}

func (f *fakeNotifications) SetStatus(_ context.Context, eventID string, status model.NotificationStatus) error {
	if _, ok := f.status[eventID]; !ok {
		return repository.ErrRecordNotFound
	}
	f.status[eventID] = status
	return nil
}

type sentItem struct {
	channel   string
	recipient string
	text      string
}

type fakeSender struct {
	sent []sentItem
	fail map[string]bool
}

func (f *fakeSender) Send(_ context.Context, channel, recipient, text string) error {
	if f.fail[channel] {
		return fmt.Errorf("channel %s is down", channel)
	}
	f.sent = append(f.sent, sentItem{channel: channel, recipient: recipient, text: text})
	return nil
}

func eventMessage(t *testing.T, event model.TransactionEvent) *queue.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &queue.Message{ID: "1-0", Data: data}
}

func testEvent() model.TransactionEvent {
	return model.TransactionEvent{
		EventID:    "evt-1",
		OrgID:      1,
		CustomerID: 10,
		Kind:       "deposit",
		RecordID:   42,
		Amount:     decimal.RequireFromString("500"),
		CurrencyID: 1,
		CreatedAt:  time.Now(),
	}
}

func newProcessorFixture(acc *model.Account, cust *model.Customer) (*TransactionProcessor, *fakeNotifications, *fakeSender) {
	accounts := &fakeAccounts{rows: map[model.AccountKey]*model.Account{}}
	if acc != nil {
		accounts.rows[acc.Key()] = acc
	}
	customers := &fakeCustomers{rows: map[int64]*model.Customer{}}
	if cust != nil {
		customers.rows[cust.ID] = cust
	}
	notifications := newFakeNotifications()
	sender := &fakeSender{fail: map[string]bool{}}
	return NewTransactionProcessor(accounts, customers, notifications, sender), notifications, sender
}

func TestTransactionProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers on every enabled channel", func(t *testing.T) {
		proc, notifications, sender := newProcessorFixture(
			&model.Account{OrgID: 1, CustomerID: 10, CurrencyID: 1, SMSEnabled: true, WhatsappEnabled: true},
			&model.Customer{ID: 10, OrgID: 1, Name: "Ahmad Karimi", Phone: "0700111222"},
		)

		require.NoError(t, proc.Process(ctx, eventMessage(t, testEvent())))

		require.Len(t, sender.sent, 2)
		assert.Equal(t, "sms", sender.sent[0].channel)
		assert.Equal(t, "whatsapp", sender.sent[1].channel)
		assert.Equal(t, "0700111222", sender.sent[0].recipient)
		assert.Contains(t, sender.sent[0].text, "Deposit of 500")

		require.Len(t, notifications.created, 1)
		assert.Equal(t, []string{"sms", "whatsapp"}, notifications.created[0].Channels)
		assert.Equal(t, model.NotificationDelivered, notifications.status["evt-1"])
	})

	t.Run("no channels enabled means nothing to do", func(t *testing.T) {
		proc, notifications, sender := newProcessorFixture(
			&model.Account{OrgID: 1, CustomerID: 10, CurrencyID: 1},
			&model.Customer{ID: 10, OrgID: 1, Phone: "0700111222"},
		)

		require.NoError(t, proc.Process(ctx, eventMessage(t, testEvent())))
		assert.Empty(t, sender.sent)
		assert.Empty(t, notifications.created)
	})

	t.Run("account gone acks without delivery", func(t *testing.T) {
		proc, _, sender := newProcessorFixture(nil, &model.Customer{ID: 10, OrgID: 1})

		require.NoError(t, proc.Process(ctx, eventMessage(t, testEvent())))
		assert.Empty(t, sender.sent)
	})

	t.Run("customer without a phone acks without delivery", func(t *testing.T) {
		proc, _, sender := newProcessorFixture(
			&model.Account{OrgID: 1, CustomerID: 10, CurrencyID: 1, SMSEnabled: true},
			&model.Customer{ID: 10, OrgID: 1, Name: "Ahmad Karimi"},
		)

		require.NoError(t, proc.Process(ctx, eventMessage(t, testEvent())))
		assert.Empty(t, sender.sent)
	})

	t.Run("one broken channel fails the message for retry", func(t *testing.T) {
		proc, notifications, sender := newProcessorFixture(
			&model.Account{OrgID: 1, CustomerID: 10, CurrencyID: 1, SMSEnabled: true, TelegramEnabled: true},
			&model.Customer{ID: 10, OrgID: 1, Phone: "0700111222"},
		)
		sender.fail["telegram"] = true

		err := proc.Process(ctx, eventMessage(t, testEvent()))
		require.Error(t, err)

		// The healthy channel still went out.
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "sms", sender.sent[0].channel)
		assert.Equal(t, model.NotificationFailed, notifications.status["evt-1"])
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		proc, _, _ := newProcessorFixture(nil, nil)

		err := proc.Process(ctx, &queue.Message{ID: "1-0", Data: []byte("{not json")})
		assert.Error(t, err)
	})
}

func TestPublisher_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	q, err := queue.NewQueue(adapter, queue.QueueConfig{
		Name:          "test:transactions",
		ConsumerGroup: "notifier-test",
		ConsumerName:  "notifier-test-1",
		PollInterval:  100 * time.Millisecond,
	})
	require.NoError(t, err)

	publisher := NewPublisher(q)
	publisher.TransactionCreated(context.Background(), testEvent())

	received := make(chan model.TransactionEvent, 1)
	require.NoError(t, q.Consume(func(ctx context.Context, msg *queue.Message) error {
		var event model.TransactionEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		assert.Equal(t, "deposit", msg.Metadata["kind"])
		received <- event
		return nil
	}))

	select {
	case event := <-received:
		assert.Equal(t, "evt-1", event.EventID)
		assert.True(t, event.Amount.Equal(decimal.RequireFromString("500")))
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}

	require.NoError(t, q.Stop(time.Second))
}
