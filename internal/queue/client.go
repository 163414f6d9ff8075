package queue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 资金相关任务队列
	CriticalQueue = constants.QueueCritical
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// ErrTaskInFlight 相同任务 ID 已在队列中
var ErrTaskInFlight = errors.New("task already in flight")

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:       client,
		enabled:      true,
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueOrderPayout 推送订单打款任务（同一在途标记只派发一次）
func (c *Client) EnqueueOrderPayout(payload OrderPayoutPayload, maxRetry int) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	task, err := NewOrderPayoutTask(payload)
	if err != nil {
		return err
	}
	options := []asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.TaskID(OrderPayoutTaskID(payload.OrderID, payload.ScheduledAt)),
	}
	if maxRetry > 0 {
		options = append(options, asynq.MaxRetry(maxRetry))
	}
	_, err = c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return ErrTaskInFlight
	}
	return err
}

// EnqueueAffiliateWelcomeEmail 推送推广者欢迎邮件任务
func (c *Client) EnqueueAffiliateWelcomeEmail(payload AffiliateWelcomeEmailPayload) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	task, err := NewAffiliateWelcomeEmailTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task, asynq.Queue(c.defaultQueue))
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1, CriticalQueue: 2}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
