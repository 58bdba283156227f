package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sarafbook/ledger/internal/config"
	"github.com/sarafbook/ledger/internal/queue"
	"github.com/sarafbook/ledger/pkg/logger"
	"github.com/sarafbook/ledger/pkg/prom"
	"github.com/sarafbook/ledger/pkg/redis"
	"github.com/sarafbook/ledger/pkg/worker"
)

const ProcessingTimeout = time.Second * 5
const HealthInterval = time.Second * 30
const ShutdownTimeout = time.Minute

const consumerInstances = 4
const workerPoolSize = 50

// Processor handles one queued message.
type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

// Dispatcher owns the consumer side of the notification stream. Stream
// consumers feed a shared worker pool; each worker runs the registered
// processor and the consumer blocks until its message is done so that
// ack/nack follows the real outcome.
type Dispatcher struct {
	adapter   redis.RedisAdapter
	queues    []*queue.Queue
	processor Processor
	metrics   *DispatchMetrics
	worker    *worker.WorkerManager
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewDispatcher(adapter redis.RedisAdapter, processor Processor) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		adapter:   adapter,
		queues:    make([]*queue.Queue, 0, consumerInstances),
		processor: processor,
		metrics:   NewDispatchMetrics(),
		worker:    worker.NewWorkerManager(10_000, workerPoolSize, nil),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (d *Dispatcher) Start() error {
	logger.Info("starting notification dispatcher", "processor", d.processor.GetType())

	d.worker.SetWorker(d.workerHandler)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.worker.Start(); err != nil {
			logger.Error("worker manager stopped", "error", err)
		}
	}()

	for i := 0; i < consumerInstances; i++ {
		cfg := queue.QueueConfig{
			Name:              config.Get().QueueName,
			ConsumerGroup:     config.Get().QueueConsumerGroup,
			ConsumerName:      fmt.Sprintf("%s-instance-%d", config.Get().QueueConsumerName, i),
			MaxRetries:        config.Get().QueueMaxRetries,
			VisibilityTimeout: config.Get().QueueVisibilityTimeout,
			PollInterval:      config.Get().QueuePollInterval,
			BatchSize:         config.Get().QueueBatchSize,
			MaxLen:            config.Get().QueueMaxLen,
			EnableDLQ:         config.Get().QueueEnableDLQ,
		}

		q, err := queue.NewQueue(d.adapter, cfg)
		if err != nil {
			return fmt.Errorf("failed to create queue %d: %w", i, err)
		}
		if err := q.Consume(d.messageHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}
		d.queues = append(d.queues, q)
	}

	d.wg.Add(2)
	go d.metricsReporter()
	go d.healthChecker()

	logger.Info("notification dispatcher started",
		"consumers", len(d.queues), "workers", workerPoolSize)
	return nil
}

// Stop drains consumers, stops the pool and logs final counters.
func (d *Dispatcher) Stop() {
	logger.Info("shutting down notification dispatcher...")

	d.cancel()

	stopChan := make(chan bool, len(d.queues))
	for i, q := range d.queues {
		go func(index int, q *queue.Queue) {
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("error stopping queue", "queue", index, "error", err)
			}
			stopChan <- true
		}(i, q)
	}
	for range d.queues {
		select {
		case <-stopChan:
		case <-time.After(ShutdownTimeout + 5*time.Second):
			logger.Warn("timeout waiting for queues to stop")
		}
	}

	d.worker.Exit()
	d.wg.Wait()
	d.reportMetrics()

	logger.Info("notification dispatcher stopped")
}

type dispatchJob struct {
	msg        *queue.Message
	resultChan chan error
	ctx        context.Context
}

// messageHandler bridges a consumed message into the worker pool and waits
// for the worker's verdict so the queue can ack or retry accordingly.
func (d *Dispatcher) messageHandler(ctx context.Context, msg *queue.Message) error {
	resultChan := make(chan error, 1)
	msgCtx, cancel := context.WithTimeout(ctx, ProcessingTimeout+time.Second)
	defer cancel()

	d.worker.Enqueue(&dispatchJob{msg: msg, resultChan: resultChan, ctx: msgCtx})

	select {
	case err := <-resultChan:
		return err
	case <-msgCtx.Done():
		return fmt.Errorf("timeout waiting for worker: %w", msgCtx.Err())
	}
}

func (d *Dispatcher) workerHandler(workerIndex int, job interface{}) {
	dispatch, ok := job.(*dispatchJob)
	if !ok {
		logger.Error("invalid job type in worker", "worker", workerIndex)
		return
	}

	select {
	case <-dispatch.ctx.Done():
		logger.Warn("job cancelled before processing", "worker", workerIndex)
		return
	default:
	}

	start := time.Now()
	var resultErr error
	if err := d.processor.Process(dispatch.ctx, dispatch.msg); err != nil {
		d.metrics.RecordFailure()
		logger.Error("failed to process event", "worker", workerIndex, "error", err)
		resultErr = err
	} else {
		duration := time.Since(start)
		d.metrics.RecordSuccess(duration)
		prom.AddNotificationDispatchDuration(duration.Seconds())
	}

	select {
	case dispatch.resultChan <- resultErr:
	case <-dispatch.ctx.Done():
		logger.Warn("consumer gave up before result was ready", "worker", workerIndex)
	}
}

func (d *Dispatcher) metricsReporter() {
	defer d.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.reportMetrics()
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) reportMetrics() {
	stats := d.metrics.GetStats()
	logger.Info("dispatch metrics",
		"total_processed", stats["total_processed"],
		"total_failed", stats["total_failed"],
		"rate_per_second", stats["rate_per_second"],
		"avg_duration_ms", stats["avg_duration_ms"],
		"uptime_seconds", stats["uptime_seconds"])

	for i, q := range d.queues {
		if qStats, err := q.GetStats(); err == nil {
			logger.Info("queue stats", "queue", i,
				"total", qStats.TotalMessages, "pending", qStats.PendingMessages)
		}
	}
}

func (d *Dispatcher) healthChecker() {
	defer d.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.performHealthCheck()
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) performHealthCheck() {
	if err := d.adapter.Client().Ping(context.Background()).Err(); err != nil {
		logger.Error("health check failed: redis unreachable", "error", err)
		return
	}

	for i, q := range d.queues {
		stats, err := q.GetStats()
		if err != nil {
			logger.Warn("health check: queue stats unavailable", "queue", i, "error", err)
			continue
		}
		if stats.PendingMessages > 10000 {
			logger.Warn("health check: queue lag high", "queue", i,
				"pending_messages", stats.PendingMessages)
		}
	}
}
