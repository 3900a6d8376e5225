// Package runtime provides graceful shutdown handling for the dspdocs server.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dreamfactory/dspdocs/internal/logging"
)

// ShutdownFunc is a cleanup function called during shutdown
type ShutdownFunc func(ctx context.Context) error

// ShutdownManager runs registered cleanup handlers once, on signal or on
// demand.
type ShutdownManager struct {
	mu          sync.Mutex
	handlers    []namedHandler
	timeout     time.Duration
	log         *logging.Logger
	shutdownCtx context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	once        sync.Once
	err         error
}

type namedHandler struct {
	name string
	fn   ShutdownFunc
}

// DefaultShutdownTimeout bounds the whole cleanup pass.
const DefaultShutdownTimeout = 15 * time.Second

// NewShutdownManager creates a new shutdown manager with specified timeout.
// A nil logger discards output.
func NewShutdownManager(timeout time.Duration, log *logging.Logger) *ShutdownManager {
	if log == nil {
		log = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ShutdownManager{
		timeout:     timeout,
		log:         log,
		shutdownCtx: ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Register adds a cleanup handler. Handlers run last registered first.
func (m *ShutdownManager) Register(name string, fn ShutdownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, namedHandler{name: name, fn: fn})
}

// RegisterSimple adds a cleanup function with no error return.
func (m *ShutdownManager) RegisterSimple(name string, fn func()) {
	m.Register(name, func(ctx context.Context) error {
		fn()
		return nil
	})
}

// Context returns a context that is cancelled when shutdown begins
func (m *ShutdownManager) Context() context.Context {
	return m.shutdownCtx
}

// Done returns a channel that's closed when shutdown is complete
func (m *ShutdownManager) Done() <-chan struct{} {
	return m.done
}

// ListenForSignals shuts down on SIGTERM or SIGINT. Non-blocking.
func (m *ShutdownManager) ListenForSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		select {
		case sig := <-sigChan:
			m.log.Info("shutdown_signal", map[string]interface{}{"signal": sig.String()})
			m.Shutdown()
		case <-m.done:
		}
		signal.Stop(sigChan)
	}()
}

// Shutdown runs every handler once and returns their joined errors.
// Later calls return the first call's result.
func (m *ShutdownManager) Shutdown() error {
	m.once.Do(func() {
		m.err = m.performShutdown()
	})
	<-m.done
	return m.err
}

func (m *ShutdownManager) performShutdown() error {
	defer close(m.done)
	m.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	handlers := make([]namedHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	start := time.Now()
	var errs []error
	for i := len(handlers) - 1; i >= 0; i-- {
		h := handlers[i]
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("%s: skipped: %w", h.name, ctx.Err()))
			continue
		}

		t := time.Now()
		if err := h.fn(ctx); err != nil {
			m.log.Error("shutdown_handler_failed", map[string]interface{}{"handler": h.name}, err)
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			continue
		}
		m.log.TimedEvent("shutdown_handler_done", t, map[string]interface{}{"handler": h.name})
	}

	m.log.TimedEvent("shutdown_complete", start, map[string]interface{}{
		"handlers": len(handlers),
		"errors":   len(errs),
	})
	return errors.Join(errs...)
}

// Wait blocks until shutdown completes.
func (m *ShutdownManager) Wait() {
	<-m.done
}
