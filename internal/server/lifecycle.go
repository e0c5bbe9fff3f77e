// Package server runs the fight server's long-lived components: each one is
// served concurrently, and the whole set is shut down together on a signal,
// on context cancellation, or when any component fails.
package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultGrace bounds how long a single component may take to shut down.
const DefaultGrace = 10 * time.Second

// Service is a long-running component.
type Service interface {
	// Serve blocks until the component stops or fails. Returning nil after
	// Shutdown is the normal exit.
	Serve(ctx context.Context) error
	// Shutdown asks Serve to return. ctx carries the grace deadline.
	Shutdown(ctx context.Context) error
}

// ServiceFuncs adapts a pair of functions into a Service. A nil ShutdownFn
// is a no-op.
type ServiceFuncs struct {
	ServeFn    func(ctx context.Context) error
	ShutdownFn func(ctx context.Context) error
}

// Serve calls ServeFn.
func (f ServiceFuncs) Serve(ctx context.Context) error { return f.ServeFn(ctx) }

// Shutdown calls ShutdownFn.
func (f ServiceFuncs) Shutdown(ctx context.Context) error {
	if f.ShutdownFn == nil {
		return nil
	}
	return f.ShutdownFn(ctx)
}

type component struct {
	name string
	svc  Service
}

// Lifecycle serves registered components and tears them down in reverse
// registration order.
type Lifecycle struct {
	mu         sync.Mutex
	components []component
	grace      time.Duration
	logger     *zap.Logger
}

// NewLifecycle returns an empty Lifecycle using DefaultGrace.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{grace: DefaultGrace, logger: logger}
}

// SetGrace changes the per-component shutdown bound. Non-positive values are
// ignored.
func (l *Lifecycle) SetGrace(d time.Duration) {
	if d <= 0 {
		return
	}
	l.mu.Lock()
	l.grace = d
	l.mu.Unlock()
}

// Add registers svc under name.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	if name == "" || svc == nil {
		panic("server: Lifecycle.Add precondition violated: name and svc are required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.components = append(l.components, component{name: name, svc: svc})
}

// Names lists the registered components in registration order.
func (l *Lifecycle) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.components))
	for i, c := range l.components {
		out[i] = c.name
	}
	return out
}

// Run serves every component and blocks until SIGINT/SIGTERM, ctx
// cancellation, or the first component failure.
//
// Postcondition: every component has been asked to shut down. The first
// Serve error is returned, joined with any shutdown errors.
func (l *Lifecycle) Run(ctx context.Context) error {
	started := time.Now()
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l.mu.Lock()
	components := append([]component(nil), l.components...)
	grace := l.grace
	l.mu.Unlock()

	g, gctx := errgroup.WithContext(sigCtx)
	for _, c := range components {
		g.Go(func() error {
			l.logger.Info("serving", zap.String("component", c.name))
			if err := c.svc.Serve(gctx); err != nil {
				return fmt.Errorf("component %s: %w", c.name, err)
			}
			return nil
		})
	}

	<-gctx.Done()
	switch {
	case ctx.Err() != nil:
		l.logger.Info("shutting down: context cancelled")
	case sigCtx.Err() != nil:
		l.logger.Info("shutting down: signal received")
	default:
		l.logger.Error("shutting down: component failed", zap.Error(context.Cause(gctx)))
	}

	stopErr := l.shutdown(components, grace)
	serveErr := g.Wait()
	l.logger.Info("stopped", zap.Duration("uptime", time.Since(started)))
	return errors.Join(serveErr, stopErr)
}

func (l *Lifecycle) shutdown(components []component, grace time.Duration) error {
	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		ctx, cancel := context.WithTimeout(context.Background(), grace)
		began := time.Now()
		err := c.svc.Shutdown(ctx)
		cancel()
		if err != nil {
			l.logger.Warn("shutdown failed", zap.String("component", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("stopping %s: %w", c.name, err))
			continue
		}
		l.logger.Info("component stopped",
			zap.String("component", c.name),
			zap.Duration("elapsed", time.Since(began)),
		)
	}
	return errors.Join(errs...)
}
