package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"quillpress/internal/logger"
	"quillpress/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 1

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second
)

// EventHandler processes one stream event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.CommentEvent) error
}

// Manager runs the goroutines that consume the comment stream.
type Manager struct {
	consumer    queue.Consumer
	handler     EventHandler
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration // Block time for XREADGROUP
}

// NewManager creates a new worker manager. Zero config fields take defaults.
func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Start creates the consumer group and launches the workers.
// Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(ctx, queue.StreamComments, queue.ConsumerGroupModeration); err != nil {
		m.cancel()
		return err
	}

	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(ctx, "worker-"+strconv.Itoa(i))
	}

	logger.For("manager").Info().
		Int("workers", m.workerCount).
		Str("stream", queue.StreamComments).
		Str("group", queue.ConsumerGroupModeration).
		Msg("workers started")
	return nil
}

// Stop cancels the workers and waits for them to return.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	logger.For("manager").Info().Msg("all workers stopped")
}

func (m *Manager) runWorker(ctx context.Context, consumerName string) {
	defer m.wg.Done()

	// Messages delivered before a crash are retried first.
	m.processPending(ctx, consumerName)

	for ctx.Err() == nil {
		m.processMessages(ctx, consumerName)
	}
}

func (m *Manager) processPending(ctx context.Context, consumerName string) {
	for ctx.Err() == nil {
		messages, err := m.consumer.ReadPending(ctx, queue.StreamComments, queue.ConsumerGroupModeration, consumerName, m.batchSize)
		if err != nil {
			logger.For("manager").Error().Err(err).Str("consumer", consumerName).Msg("read pending failed")
			return
		}
		if len(messages) == 0 {
			return
		}
		m.handleMessages(ctx, consumerName, messages)
	}
}

func (m *Manager) processMessages(ctx context.Context, consumerName string) {
	messages, err := m.consumer.Read(ctx, queue.StreamComments, queue.ConsumerGroupModeration, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.For("manager").Error().Err(err).Str("consumer", consumerName).Msg("read failed")
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}
	m.handleMessages(ctx, consumerName, messages)
}

// handleMessages processes a batch and acknowledges every message. Failed
// messages are acked too; the next event for the same comment reconciles it.
func (m *Manager) handleMessages(ctx context.Context, consumerName string, messages []queue.Message) {
	log := logger.For("manager")
	for _, msg := range messages {
		if err := m.handler.HandleEvent(ctx, msg.Event); err != nil {
			log.Warn().Err(err).Str("consumer", consumerName).Str("msg_id", msg.ID).Msg("handler error")
		}
		if err := m.consumer.Ack(ctx, queue.StreamComments, queue.ConsumerGroupModeration, msg.ID); err != nil {
			log.Error().Err(err).Str("consumer", consumerName).Str("msg_id", msg.ID).Msg("ack failed")
		}
	}
}
