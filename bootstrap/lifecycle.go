package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/scribe/logger"
)

// Hook runs during startup or shutdown.
type Hook func(ctx context.Context) error

type phase string

const (
	phaseStart phase = "onStart"
	phaseReady phase = "onReady"
	phaseStop  phase = "onStop"
)

// OnStart hooks run after every component has started.
func (a *App[C]) OnStart(hooks ...Hook) { a.hooks[phaseStart] = append(a.hooks[phaseStart], hooks...) }

// OnReady hooks run after the ready check, right before the summary.
func (a *App[C]) OnReady(hooks ...Hook) { a.hooks[phaseReady] = append(a.hooks[phaseReady], hooks...) }

// OnStop hooks run before components are stopped.
func (a *App[C]) OnStop(hooks ...Hook) { a.hooks[phaseStop] = append(a.hooks[phaseStop], hooks...) }

func (a *App[C]) runPhase(ctx context.Context, p phase) error {
	for i, h := range a.hooks[p] {
		if err := h(ctx); err != nil {
			return fmt.Errorf("%s hook %d failed: %w", p, i, err)
		}
	}
	return nil
}

// Run starts the service and blocks until SIGINT, SIGTERM or ctx is done.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}
	a.Logger.Info("application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)
	return a.stop()
}

// RunTask starts the service, runs task and shuts down when it returns. A
// signal cancels the task's context.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	taskErr := task(taskCtx)
	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("starting application", logger.Fields("name", a.Name, "version", a.Version))

	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return fmt.Errorf("configuration failed: %w", err)
		}
	}
	// StartAll stops whatever it started when one component fails.
	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if err := a.runPhase(ctx, phaseStart); err != nil {
		a.abort()
		return err
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.Fields(logger.FieldError, err))
	}
	if err := a.runPhase(ctx, phaseReady); err != nil {
		a.abort()
		return err
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.Summary.Display(ctx, a.Components)
	return nil
}

// WaitForSignal returns the received signal, or nil when ctx ends first.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("context canceled, shutting down")
		return nil
	}
}

// Shutdown stops the app when the caller manages the lifecycle itself.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop()
}

func (a *App[C]) abort() {
	if err := a.stop(); err != nil {
		a.Logger.Warn("shutdown after failed startup", logger.Fields(logger.FieldError, err))
	}
}

// stop runs stop hooks then components, returning the first error.
func (a *App[C]) stop() error {
	a.Logger.Info("shutting down", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	hookErr := a.runPhase(ctx, phaseStop)
	if hookErr != nil {
		a.Logger.Error("stop hook failed", logger.Fields(logger.FieldError, hookErr))
	}
	compErr := a.Components.StopAll(ctx)
	if compErr != nil {
		a.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, compErr))
	}

	a.Logger.Info("shutdown complete")
	if hookErr != nil {
		return hookErr
	}
	return compErr
}
