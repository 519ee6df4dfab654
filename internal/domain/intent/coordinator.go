package intent

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/monitoring"
)

// ErrStopped is returned once the coordinator's Run loop has exited
var ErrStopped = errors.New("coordinator stopped")

// DefaultQueueSize is used when NewCoordinator gets a non-positive size
const DefaultQueueSize = 64

type envelope struct {
	intent Intent
	done   chan error // nil for Emit
}

// Coordinator applies intents to a store in FIFO order
type Coordinator struct {
	store   *attention.Store
	queue   chan envelope
	stopped chan struct{}
	stop    sync.Once

	// senders hold mu for reading while they enqueue; shutdown takes it
	// for writing before the final drain
	mu     sync.RWMutex
	closed bool

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewCoordinator creates a coordinator for store. Run must be started for
// queued intents to be applied.
func NewCoordinator(store *attention.Store, logger *zap.Logger, queueSize int) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Coordinator{
		store:   store,
		queue:   make(chan envelope, queueSize),
		stopped: make(chan struct{}),
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the coordinator
func (c *Coordinator) WithMetrics(metrics *monitoring.Metrics) *Coordinator {
	c.metrics = metrics
	return c
}

// Store returns the store intents are applied to
func (c *Coordinator) Store() *attention.Store {
	return c.store
}

// Emit queues in without waiting for it to be applied. When the queue is
// full it blocks until space frees up or ctx is done.
func (c *Coordinator) Emit(ctx context.Context, in Intent) error {
	return c.enqueue(ctx, envelope{intent: in})
}

// Submit queues in and waits until it has been applied. The returned error
// is the validation error, ctx.Err() or ErrStopped.
func (c *Coordinator) Submit(ctx context.Context, in Intent) error {
	env := envelope{intent: in, done: make(chan error, 1)}
	if err := c.enqueue(ctx, env); err != nil {
		return err
	}

	select {
	case err := <-env.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		// Run may have applied it just before stopping
		select {
		case err := <-env.done:
			return err
		default:
			return ErrStopped
		}
	}
}

func (c *Coordinator) enqueue(ctx context.Context, env envelope) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrStopped
	}
	select {
	case <-c.stopped:
		return ErrStopped
	default:
	}

	select {
	case c.queue <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrStopped
	}
}

// Run applies queued intents until ctx is done and returns ctx.Err().
// Intents still queued at that point are discarded, counted and logged, and
// their Submit callers receive ErrStopped. Every intent Emit accepted is
// either applied or discarded this way. Run must not be called more than
// once.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("Intent coordinator started", zap.Int("queue_size", cap(c.queue)))

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case env := <-c.queue:
			err := c.Apply(env.intent)
			if env.done != nil {
				env.done <- err
			}
		}
	}
}

func (c *Coordinator) shutdown() {
	// wakes senders blocked on a full queue so they release mu
	c.stop.Do(func() { close(c.stopped) })

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	// no sender can reach the queue from here on
	dropped := 0
	for {
		select {
		case env := <-c.queue:
			dropped++
			c.record(env.intent.Kind, "discarded")
			if env.done != nil {
				env.done <- ErrStopped
			}
		default:
			if dropped > 0 {
				c.logger.Warn("Discarded queued intents on shutdown", zap.Int("count", dropped))
			}
			c.logger.Info("Intent coordinator stopped")
			return
		}
	}
}

// Apply validates in and applies it to the store synchronously, bypassing
// the queue
func (c *Coordinator) Apply(in Intent) error {
	if err := in.Validate(); err != nil {
		c.logger.Warn("Rejected intent", zap.String("kind", string(in.Kind)), zap.Error(err))
		c.record(in.Kind, "rejected")
		return err
	}

	var err error
	switch in.Kind {
	case KindRegister:
		c.store.Register(in.Element)
	case KindUnregister:
		if in.Element != nil {
			c.store.Unregister(in.Element)
		} else {
			c.store.UnregisterID(in.ElementID)
		}
	case KindUpdateContext:
		c.store.UpdateContext(in.Update)
	case KindSetModality:
		c.store.SetModality(in.Modality)
	case KindRefresh:
		c.store.Refresh()
	case KindConfigure:
		err = c.store.Configure(in.ElementID, in.Attributes)
	}

	if err != nil {
		c.logger.Warn("Intent failed", zap.String("kind", string(in.Kind)), zap.Error(err))
		c.record(in.Kind, "failed")
		return err
	}
	c.record(in.Kind, "applied")
	return nil
}

func (c *Coordinator) record(kind Kind, status string) {
	if c.metrics != nil {
		c.metrics.RecordIntent(string(kind), status)
	}
}
