package queue

import (
	"encoding/json"
	"fmt"

	"github.com/affiliate-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskAffiliateOrderPayout 单笔订单佣金打款任务
	TaskAffiliateOrderPayout = constants.TaskAffiliateOrderPayout
	// TaskAffiliateWelcomeEmail 推广者欢迎邮件任务
	TaskAffiliateWelcomeEmail = constants.TaskAffiliateWelcomeEmail
)

// OrderPayoutPayload 订单打款任务载荷
type OrderPayoutPayload struct {
	OrderID        uint   `json:"order_id"`
	ExternalID     string `json:"external_id"`
	AffiliateID    uint   `json:"affiliate_id"`
	CommissionOwed string `json:"commission_owed"`
	ScheduledAt    int64  `json:"scheduled_at"` // 在途标记时间（UnixNano）
}

// AffiliateWelcomeEmailPayload 欢迎邮件任务载荷
type AffiliateWelcomeEmailPayload struct {
	AffiliateID uint `json:"affiliate_id"`
}

// OrderPayoutTaskID 订单打款任务 ID，按订单与在途标记时间区分：
// 标记被回收后重新派发会得到新 ID，不会撞上已归档任务的保留键
func OrderPayoutTaskID(orderID uint, scheduledAt int64) string {
	return fmt.Sprintf("order-payout:%d:%d", orderID, scheduledAt)
}

// NewOrderPayoutTask 创建订单打款任务
func NewOrderPayoutTask(payload OrderPayoutPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAffiliateOrderPayout, body), nil
}

// NewAffiliateWelcomeEmailTask 创建欢迎邮件任务
func NewAffiliateWelcomeEmailTask(payload AffiliateWelcomeEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAffiliateWelcomeEmail, body), nil
}

// ParseOrderPayoutPayload 解析订单打款任务载荷
func ParseOrderPayoutPayload(task *asynq.Task) (OrderPayoutPayload, error) {
	var payload OrderPayoutPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// ParseAffiliateWelcomeEmailPayload 解析欢迎邮件任务载荷
func ParseAffiliateWelcomeEmailPayload(task *asynq.Task) (AffiliateWelcomeEmailPayload, error) {
	var payload AffiliateWelcomeEmailPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
