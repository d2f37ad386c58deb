// Package server manages the lifetime of a seeding process: it cancels the
// run on SIGINT or SIGTERM and releases opened resources in reverse order.
package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Closer releases a resource such as a store connection or a Lua VM.
type Closer interface {
	Close() error
}

// CloseFunc adapts a function into a Closer.
type CloseFunc func() error

// Close calls f.
func (f CloseFunc) Close() error { return f() }

// Lifecycle tracks resources opened during startup.
// Resources are closed in reverse order of registration.
type Lifecycle struct {
	logger    *zap.Logger
	mu        sync.Mutex
	resources []namedResource
	closed    bool
}

type namedResource struct {
	name   string
	closer Closer
}

// NewLifecycle creates a new Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		logger: logger,
	}
}

// Add registers a named resource for release at shutdown.
//
// Precondition: name must be non-empty; c must be non-nil.
func (l *Lifecycle) Add(name string, c Closer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resources = append(l.resources, namedResource{name: name, closer: c})
}

// SignalContext returns a child of parent that is cancelled on SIGINT or
// SIGTERM. The returned stop function must be called to release the signal
// handler.
func (l *Lifecycle) SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			l.logger.Info("received signal, cancelling run",
				zap.String("signal", sig.String()),
			)
			cancel()
		case <-done:
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
			cancel()
		})
	}
	return ctx, stop
}

// Shutdown closes every registered resource in reverse order. Close errors
// are logged and do not stop later resources from closing. Calling Shutdown
// more than once is a no-op.
//
// Postcondition: All resources have been closed.
func (l *Lifecycle) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true

	shutdownStart := time.Now()
	for i := len(l.resources) - 1; i >= 0; i-- {
		nr := l.resources[i]
		start := time.Now()
		if err := nr.closer.Close(); err != nil {
			l.logger.Warn("closing resource failed",
				zap.String("resource", nr.name),
				zap.Error(err),
			)
			continue
		}
		l.logger.Debug("resource closed",
			zap.String("resource", nr.name),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	l.logger.Debug("all resources closed",
		zap.Int("count", len(l.resources)),
		zap.Duration("shutdown_elapsed", time.Since(shutdownStart)),
	)
}
