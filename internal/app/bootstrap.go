package app

import (
	"errors"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/provider"
	"github.com/affiliate-next/internal/router"
	"github.com/affiliate-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, container *provider.Container, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if container == nil {
		return nil, errors.New("container is nil")
	}

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(&cfg.Server, engine))
	}

	// 初始化 Worker 服务（all 模式下队列未启用时仅告警跳过）
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	} else if mode == ModeAll {
		logger.Warnw("app_worker_skipped", "reason", "queue_disabled")
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	container := provider.NewContainer(opts.Config)
	defer container.Close()

	runner, err := BuildRunner(opts.Config, container, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
