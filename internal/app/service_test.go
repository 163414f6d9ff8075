package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/provider"
)

type fakeService struct {
	name     string
	startErr error
	mu       *sync.Mutex
	stopped  *[]string
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeService) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.stopped = append(*s.stopped, s.name)
	return nil
}

func TestRunnerStopsInReverseOrderOnServiceFailure(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	boom := errors.New("listen failed")
	runner := NewRunner(
		&fakeService{name: "http", startErr: boom, mu: &mu, stopped: &stopped},
		nil,
		&fakeService{name: "worker", mu: &mu, stopped: &stopped},
	)

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(stopped) != 2 || stopped[0] != "worker" || stopped[1] != "http" {
		t.Fatalf("unexpected stop order: %v", stopped)
	}
}

func TestRunnerCanceledContextIsCleanExit(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	runner := NewRunner(&fakeService{name: "worker", mu: &mu, stopped: &stopped})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("canceled run should return nil, got %v", err)
	}
}

func TestBuildRunnerWorkerModeRequiresQueue(t *testing.T) {
	cfg := &config.Config{}
	if _, err := BuildRunner(cfg, &provider.Container{Config: cfg}, ModeWorker); err == nil {
		t.Fatalf("worker mode without queue should fail")
	}
	if _, err := BuildRunner(nil, &provider.Container{}, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
	if _, err := BuildRunner(cfg, &provider.Container{Config: cfg}, "unknown"); err == nil {
		t.Fatalf("unknown mode should build no services")
	}
}
