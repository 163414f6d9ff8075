package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 可独立启停的进程内服务（HTTP、任务消费）
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 服务运行器
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器，忽略 nil 服务
func NewRunner(services ...Service) *Runner {
	filtered := make([]Service, 0, len(services))
	for _, svc := range services {
		if svc != nil {
			filtered = append(filtered, svc)
		}
	}
	return &Runner{services: filtered}
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

type serviceExit struct {
	name string
	err  error
}

// Run 启动全部服务；任一服务退出或收到信号后按启动逆序停止
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, logger *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exitCh := make(chan serviceExit, len(r.services))
	for _, svc := range r.services {
		go func(service Service) {
			logger.Infow("service_start", "service", service.Name())
			err := service.Start(ctx)
			logger.Infow("service_exit", "service", service.Name(), "error", err)
			exitCh <- serviceExit{name: service.Name(), err: err}
		}(svc)
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case exit := <-exitCh:
		if exit.err != nil {
			runErr = fmt.Errorf("%s: %w", exit.name, exit.err)
		}
	}

	cancel()
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	var stopErrs []error
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if err := svc.Stop(stopCtx); err != nil {
			logger.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
			stopErrs = append(stopErrs, fmt.Errorf("stop %s: %w", svc.Name(), err))
		}
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if runErr == nil {
		return errors.Join(stopErrs...)
	}
	return runErr
}
