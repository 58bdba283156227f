package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sarafbook/ledger/internal/model"
	"github.com/sarafbook/ledger/internal/notifier"
	"github.com/sarafbook/ledger/internal/queue"
	"github.com/sarafbook/ledger/internal/repository"
	"github.com/sarafbook/ledger/internal/services"
	"github.com/sarafbook/ledger/pkg/pg"
	"github.com/sarafbook/ledger/pkg/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type TestEnvironment struct {
	DB           *pg.DB
	Redis        *miniredis.Miniredis
	RedisAdapter redis.RedisAdapter
	Queue        *queue.Queue

	CustomerRepo *repository.CustomerRepository
	AccountRepo  *repository.AccountRepository
	TransferRepo *repository.TransferRepository

	Accounts  *services.AccountService
	Deposits  *services.DepositWithdrawService
	Transfers *services.TransferService
	Receives  *services.ReceiveService
	Exchanges *services.ExchangeService
	Tills     *services.TillService
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.CustomerEntity{},
		&repository.AccountEntity{},
		&repository.SequenceEntity{},
		&repository.DepositWithdrawEntity{},
		&repository.TransferEntity{},
		&repository.ReceiveEntity{},
		&repository.SenderReceiverEntity{},
		&repository.ExchangeEntity{},
		&repository.ExchangeRemainingEntity{},
		&repository.TillEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	redisAdapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	q, err := queue.NewQueue(redisAdapter, queue.QueueConfig{
		Name:              "test:transactions",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      100 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	})
	require.NoError(t, err)

	customerRepo := repository.NewCustomerRepository(pgDB)
	accountRepo := repository.NewAccountRepository(pgDB)
	sequenceRepo := repository.NewSequenceRepository(pgDB)
	identityRepo := repository.NewSenderReceiverRepository(pgDB)
	depositRepo := repository.NewDepositWithdrawRepository(pgDB)
	transferRepo := repository.NewTransferRepository(pgDB)
	receiveRepo := repository.NewReceiveRepository(pgDB)
	exchangeRepo := repository.NewExchangeRepository(pgDB)
	tillRepo := repository.NewTillRepository(pgDB)

	events := notifier.NewPublisher(q)

	return &TestEnvironment{
		DB:           pgDB,
		Redis:        mr,
		RedisAdapter: redisAdapter,
		Queue:        q,
		CustomerRepo: customerRepo,
		AccountRepo:  accountRepo,
		TransferRepo: transferRepo,
		Accounts:     services.NewAccountService(accountRepo, customerRepo),
		Deposits:     services.NewDepositWithdrawService(pgDB, depositRepo, accountRepo, sequenceRepo, events),
		Transfers:    services.NewTransferService(pgDB, transferRepo, accountRepo, sequenceRepo, identityRepo, customerRepo, events),
		Receives:     services.NewReceiveService(pgDB, receiveRepo, transferRepo, accountRepo, sequenceRepo, identityRepo, customerRepo, events),
		Exchanges:    services.NewExchangeService(pgDB, exchangeRepo, accountRepo, sequenceRepo),
		Tills:        services.NewTillService(pgDB, tillRepo, depositRepo, transferRepo, receiveRepo, exchangeRepo),
	}
}

func (env *TestEnvironment) Cleanup() {
	if env.Queue != nil {
		_ = env.Queue.Stop(5 * time.Second)
	}
	time.Sleep(100 * time.Millisecond)
	if env.Redis != nil {
		env.Redis.Close()
	}
}

func (env *TestEnvironment) seedCustomer(t *testing.T, name string, isBranch bool) int64 {
	c, err := env.CustomerRepo.Create(context.Background(), &model.Customer{
		OrgID:    1,
		Name:     name,
		Phone:    "0700000000",
		IsBranch: isBranch,
	})
	require.NoError(t, err)
	return c.ID
}

func (env *TestEnvironment) seedAccount(t *testing.T, ownerID, currencyID int64) {
	_, err := env.AccountRepo.Open(context.Background(), &model.Account{
		OrgID:      1,
		CustomerID: ownerID,
		CurrencyID: currencyID,
	})
	require.NoError(t, err)
}

func (env *TestEnvironment) balance(t *testing.T, ownerID, currencyID int64) decimal.Decimal {
	acc, err := env.AccountRepo.Get(context.Background(), 1, model.AccountKey{OwnerID: ownerID, CurrencyID: currencyID})
	require.NoError(t, err)
	return acc.Credit
}

func TestE2E_DepositCreditsAccountAndEnqueues(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	customerID := env.seedCustomer(t, "Hamid", false)
	env.seedAccount(t, customerID, 1)

	created, err := env.Deposits.Create(ctx, model.DepositWithdrawCreateRequest{
		OrgID:      1,
		CustomerID: customerID,
		CurrencyID: 1,
		Deposit:    decimal.RequireFromString("500"),
		EmployeeID: 9,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, int64(1), created.No)

	assert.True(t, env.balance(t, customerID, 1).Equal(decimal.RequireFromString("500")))

	stats, err := env.Queue.GetStats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalMessages, int64(1))
}

func TestE2E_DepositEventConsumption(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	customerID := env.seedCustomer(t, "Karim", false)
	env.seedAccount(t, customerID, 1)

	created, err := env.Deposits.Create(ctx, model.DepositWithdrawCreateRequest{
		OrgID:      1,
		CustomerID: customerID,
		CurrencyID: 1,
		Deposit:    decimal.RequireFromString("120"),
		EmployeeID: 9,
	})
	require.NoError(t, err)

	received := make(chan model.TransactionEvent, 1)
	handler := func(ctx context.Context, qMsg *queue.Message) error {
		var event model.TransactionEvent
		if err := json.Unmarshal(qMsg.Data, &event); err != nil {
			return err
		}
		received <- event
		return nil
	}

	err = env.Queue.Consume(handler)
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "deposit", event.Kind)
		assert.Equal(t, customerID, event.CustomerID)
		assert.Equal(t, created.ID, event.RecordID)
		assert.True(t, event.Amount.Equal(decimal.RequireFromString("120")))
		assert.NotEmpty(t, event.EventID)
	case <-time.After(3 * time.Second):
		t.Fatal("event not consumed within timeout")
	}
}

func TestE2E_TransferDebitsSenderAndCreditsBranch(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	customerID := env.seedCustomer(t, "Nasir", false)
	branchID := env.seedCustomer(t, "Herat branch", true)
	env.seedAccount(t, customerID, 1)
	env.seedAccount(t, branchID, 1)

	created, err := env.Transfers.Create(ctx, model.TransferCreateRequest{
		OrgID:          1,
		TransferAmount: decimal.RequireFromString("1000"),
		ChargesAmount:  decimal.RequireFromString("20"),
		BranchCharges:  decimal.RequireFromString("10"),
		ToWhere:        branchID,
		CustomerID:     &customerID,
		CurrencyID:     1,
		EmployeeID:     9,
		SenderName:     "Nasir",
		SenderPhone:    "0700111222",
		ReceiverName:   "Wali",
		ReceiverPhone:  "0700333444",
	})
	require.NoError(t, err)
	assert.NotNil(t, created.SenderID)
	assert.NotNil(t, created.ReceiverID)

	// sender pays principal plus origin charges, destination gains principal
	// plus branch charges
	assert.True(t, env.balance(t, customerID, 1).Equal(decimal.RequireFromString("-1020")))
	assert.True(t, env.balance(t, branchID, 1).Equal(decimal.RequireFromString("1010")))
}

func TestE2E_TransferToNonBranchFails(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	customerID := env.seedCustomer(t, "Nasir", false)
	otherID := env.seedCustomer(t, "Plain customer", false)
	env.seedAccount(t, customerID, 1)

	_, err := env.Transfers.Create(ctx, model.TransferCreateRequest{
		OrgID:          1,
		TransferAmount: decimal.RequireFromString("100"),
		ToWhere:        otherID,
		CustomerID:     &customerID,
		CurrencyID:     1,
		EmployeeID:     9,
	})
	assert.ErrorIs(t, err, services.ErrNotBranch)

	// nothing moved
	assert.True(t, env.balance(t, customerID, 1).IsZero())
}

func TestE2E_TransferRejectReversesFunds(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	customerID := env.seedCustomer(t, "Nasir", false)
	branchID := env.seedCustomer(t, "Herat branch", true)
	env.seedAccount(t, customerID, 1)
	env.seedAccount(t, branchID, 1)

	created, err := env.Transfers.Create(ctx, model.TransferCreateRequest{
		OrgID:          1,
		TransferAmount: decimal.RequireFromString("300"),
		ChargesAmount:  decimal.RequireFromString("5"),
		ToWhere:        branchID,
		CustomerID:     &customerID,
		CurrencyID:     1,
		EmployeeID:     9,
	})
	require.NoError(t, err)

	err = env.Transfers.Reject(ctx, 1, created.ID, true)
	require.NoError(t, err)

	assert.True(t, env.balance(t, customerID, 1).IsZero())
	assert.True(t, env.balance(t, branchID, 1).IsZero())

	err = env.Transfers.Reject(ctx, 1, created.ID, true)
	assert.ErrorIs(t, err, services.ErrAlreadyRejected)
}

func TestE2E_ReceiveBranchRelayCreatesLinkedTransfer(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	originID := env.seedCustomer(t, "Kabul branch", true)
	relayID := env.seedCustomer(t, "Mazar branch", true)
	env.seedAccount(t, originID, 1)
	env.seedAccount(t, relayID, 1)

	created, err := env.Receives.Create(ctx, model.ReceiveCreateRequest{
		OrgID:         1,
		ReceiveAmount: decimal.RequireFromString("500"),
		ChargesAmount: decimal.RequireFromString("10"),
		BranchCharges: decimal.RequireFromString("5"),
		FromWhere:     originID,
		PassTo:        &relayID,
		CurrencyID:    1,
		EmployeeID:    9,
		SenderName:    "Omar",
		SenderPhone:   "0700555666",
		ReceiverName:  "Fatima",
		ReceiverPhone: "0700777888",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShapeBranchRelay, created.Shape())
	require.NotNil(t, created.PassNo)

	relay, err := env.TransferRepo.GetByNo(ctx, 1, *created.PassNo)
	require.NoError(t, err)
	assert.True(t, relay.TransferAmount.Equal(decimal.RequireFromString("500")))
	assert.Equal(t, relayID, relay.ToWhere)
	assert.Equal(t, created.SenderID, relay.SenderID)

	assert.True(t, env.balance(t, originID, 1).Equal(decimal.RequireFromString("-515")))
	assert.True(t, env.balance(t, relayID, 1).Equal(decimal.RequireFromString("505")))
}

func TestE2E_ReceiveCustomerPayout(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	originID := env.seedCustomer(t, "Kabul branch", true)
	customerID := env.seedCustomer(t, "Zahra", false)
	env.seedAccount(t, originID, 1)
	env.seedAccount(t, customerID, 1)

	created, err := env.Receives.Create(ctx, model.ReceiveCreateRequest{
		OrgID:         1,
		ReceiveAmount: decimal.RequireFromString("200"),
		ChargesAmount: decimal.RequireFromString("4"),
		FromWhere:     originID,
		CustomerID:    &customerID,
		CurrencyID:    1,
		EmployeeID:    9,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShapeCustomerPayout, created.Shape())
	assert.Nil(t, created.PassNo)

	assert.True(t, env.balance(t, originID, 1).Equal(decimal.RequireFromString("-204")))
	assert.True(t, env.balance(t, customerID, 1).Equal(decimal.RequireFromString("200")))
}

func TestE2E_ExchangeMovesBothCurrencies(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	customerID := env.seedCustomer(t, "Sharif", false)
	env.seedAccount(t, customerID, 1)
	env.seedAccount(t, customerID, 2)

	created, err := env.Exchanges.Create(ctx, model.ExchangeCreateRequest{
		OrgID:              1,
		CustomerID:         customerID,
		SaleCurrencyID:     1,
		PurchaseCurrencyID: 2,
		SaleAmount:         decimal.RequireFromString("100"),
		Rate:               decimal.RequireFromString("88"),
		Calculate:          true,
		EmployeeID:         9,
	})
	require.NoError(t, err)
	assert.True(t, created.PurchaseAmount.Equal(decimal.RequireFromString("8800")))

	assert.True(t, env.balance(t, customerID, 1).Equal(decimal.RequireFromString("-100")))
	assert.True(t, env.balance(t, customerID, 2).Equal(decimal.RequireFromString("8800")))
}

func TestE2E_TillRecomputeAndClose(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	customerID := env.seedCustomer(t, "Hamid", false)
	env.seedAccount(t, customerID, 1)

	day := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	_, err := env.Deposits.Create(ctx, model.DepositWithdrawCreateRequest{
		OrgID:      1,
		CustomerID: customerID,
		CurrencyID: 1,
		Deposit:    decimal.RequireFromString("300"),
		Date:       day,
		EmployeeID: 9,
	})
	require.NoError(t, err)

	till, err := env.Tills.Recompute(ctx, 1, 1, day)
	require.NoError(t, err)
	assert.True(t, till.TotalIn.Equal(decimal.RequireFromString("300")))
	assert.True(t, till.ClosingBalance.Equal(decimal.RequireFromString("300")))

	closed, err := env.Tills.Close(ctx, 1, 1, day, decimal.RequireFromString("290"), 9)
	require.NoError(t, err)
	assert.Equal(t, model.TillClosed, closed.Status)
	assert.True(t, closed.Difference.Equal(decimal.RequireFromString("-10")))

	_, err = env.Tills.Recompute(ctx, 1, 1, day)
	assert.ErrorIs(t, err, services.ErrTillClosed)
}
