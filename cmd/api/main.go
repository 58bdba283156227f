package main

import (
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sarafbook/ledger/internal/config"
	"github.com/sarafbook/ledger/internal/handlers"
	"github.com/sarafbook/ledger/internal/notifier"
	"github.com/sarafbook/ledger/internal/queue"
	"github.com/sarafbook/ledger/internal/repository"
	"github.com/sarafbook/ledger/internal/services"
	xhttp "github.com/sarafbook/ledger/pkg/http"
	"github.com/sarafbook/ledger/pkg/logger"
	"github.com/sarafbook/ledger/pkg/pg"
	"github.com/sarafbook/ledger/pkg/prom"
	"github.com/sarafbook/ledger/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	q, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().QueueName,
		ConsumerGroup:     config.Get().QueueConsumerGroup,
		ConsumerName:      config.Get().QueueConsumerName,
		MaxRetries:        config.Get().QueueMaxRetries,
		VisibilityTimeout: config.Get().QueueVisibilityTimeout,
		PollInterval:      config.Get().QueuePollInterval,
		BatchSize:         config.Get().QueueBatchSize,
		MaxLen:            config.Get().QueueMaxLen,
		EnableDLQ:         config.Get().QueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating queue", "error", err)
		return
	}

	if config.Get().PromNamespace != "" {
		if err := prom.Create(config.Get().AppName, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
			logger.Warn("failed to register metrics", "error", err)
		}
	}

	// repositories
	accountRepo := repository.NewAccountRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	identityRepo := repository.NewSenderReceiverRepository(db)
	depositWithdrawRepo := repository.NewDepositWithdrawRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	receiveRepo := repository.NewReceiveRepository(db)
	exchangeRepo := repository.NewExchangeRepository(db)
	tillRepo := repository.NewTillRepository(db)

	events := notifier.NewPublisher(q)

	// services
	accountService := services.NewAccountService(accountRepo, customerRepo)
	depositWithdrawService := services.NewDepositWithdrawService(db, depositWithdrawRepo, accountRepo, sequenceRepo, events)
	transferService := services.NewTransferService(db, transferRepo, accountRepo, sequenceRepo, identityRepo, customerRepo, events)
	receiveService := services.NewReceiveService(db, receiveRepo, transferRepo, accountRepo, sequenceRepo, identityRepo, customerRepo, events)
	exchangeService := services.NewExchangeService(db, exchangeRepo, accountRepo, sequenceRepo)
	tillService := services.NewTillService(db, tillRepo, depositWithdrawRepo, transferRepo, receiveRepo, exchangeRepo)

	// v1 handlers
	g := s.Router.Group("/api/v1")
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler())
	handlers.RegisterCustomerRoutes(g, handlers.NewCustomerHandler(customerRepo))
	handlers.RegisterAccountRoutes(g, handlers.NewAccountHandler(accountService))
	handlers.RegisterDepositWithdrawRoutes(g, handlers.NewDepositWithdrawHandler(depositWithdrawService))
	handlers.RegisterTransferRoutes(g, handlers.NewTransferHandler(transferService))
	handlers.RegisterReceiveRoutes(g, handlers.NewReceiveHandler(receiveService))
	handlers.RegisterExchangeRoutes(g, handlers.NewExchangeHandler(exchangeService))
	handlers.RegisterTillRoutes(g, handlers.NewTillHandler(tillService))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	logger.Info("ledger api started",
		"version", version, "commit", commit, "built", date,
		"addr", config.Get().HttpListenAddr)

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
