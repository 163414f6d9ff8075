package queue

import (
	"errors"
	"net"
	"strconv"
	"testing"

	"github.com/affiliate-next/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

func newRedisQueueClient(t *testing.T) (*Client, *asynq.Inspector) {
	t.Helper()
	mr := miniredis.RunT(t)
	host, portRaw, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatalf("split miniredis addr failed: %v", err)
	}
	port, _ := strconv.Atoi(portRaw)
	client, err := NewClient(&config.QueueConfig{Enabled: true, Host: host, Port: port})
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		_ = inspector.Close()
	})
	return client, inspector
}

func TestEnqueueOrderPayoutAfterArchive(t *testing.T) {
	client, inspector := newRedisQueueClient(t)
	first := OrderPayoutPayload{OrderID: 42, ExternalID: "EXT-42", CommissionOwed: "20.00", ScheduledAt: 1000}

	if err := client.EnqueueOrderPayout(first, 3); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}
	if err := client.EnqueueOrderPayout(first, 3); !errors.Is(err, ErrTaskInFlight) {
		t.Fatalf("same schedule should be in flight, got %v", err)
	}

	// 重试耗尽后任务被归档，ID 在 redis 中保留
	if err := inspector.ArchiveTask(CriticalQueue, OrderPayoutTaskID(42, 1000)); err != nil {
		t.Fatalf("archive task failed: %v", err)
	}
	if err := client.EnqueueOrderPayout(first, 3); !errors.Is(err, ErrTaskInFlight) {
		t.Fatalf("archived id is still reserved, got %v", err)
	}

	again := first
	again.ScheduledAt = 2000
	if err := client.EnqueueOrderPayout(again, 3); err != nil {
		t.Fatalf("new schedule after archive should enqueue, got %v", err)
	}
	info, err := inspector.GetTaskInfo(CriticalQueue, OrderPayoutTaskID(42, 2000))
	if err != nil {
		t.Fatalf("get task info failed: %v", err)
	}
	if info.State != asynq.TaskStatePending {
		t.Fatalf("new task state want pending got %v", info.State)
	}
}
