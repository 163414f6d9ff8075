package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/affiliate-next/internal/config"
)

// HTTPService 对外 API（订单 webhook 与商户接口）
type HTTPService struct {
	server *http.Server
}

// NewHTTPService 按服务配置创建 HTTP 服务，超时未配置时不限制
func NewHTTPService(cfg *config.ServerConfig, handler http.Handler) *HTTPService {
	server := &http.Server{Handler: handler}
	if cfg != nil {
		server.Addr = cfg.Addr()
		server.ReadHeaderTimeout = seconds(cfg.ReadHeaderTimeoutSeconds)
		server.ReadTimeout = seconds(cfg.ReadTimeoutSeconds)
		server.WriteTimeout = seconds(cfg.WriteTimeoutSeconds)
	}
	return &HTTPService{server: server}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	return "http"
}

// Start 阻塞监听直到 Stop
func (s *HTTPService) Start(_ context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 等待在途请求完成后关闭
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
