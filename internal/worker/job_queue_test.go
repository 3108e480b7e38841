package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestJobQueue_EnqueueDequeue(t *testing.T) {
	jq := NewJobQueue(2, zap.NewNop())

	job := &CheckJob{RunID: "run-1", Lines: []string{"a"}}
	if err := jq.Enqueue(job); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-jq.Dequeue():
		if got.RunID != "run-1" {
			t.Errorf("出队任务不匹配: %+v", got)
		}
	default:
		t.Fatal("队列中应有任务")
	}
}

func TestJobQueue_FullRejection(t *testing.T) {
	jq := NewJobQueue(1, zap.NewNop())

	if err := jq.Enqueue(&CheckJob{RunID: "run-1"}); err != nil {
		t.Fatal(err)
	}
	if err := jq.Enqueue(&CheckJob{RunID: "run-2"}); err != ErrQueueFull {
		t.Errorf("队列满应返回ErrQueueFull，实际为 %v", err)
	}
	if jq.GetQueueLength() != 1 {
		t.Errorf("队列长度应为1，实际为 %d", jq.GetQueueLength())
	}
}

// countingRunner 记录执行过的任务
type countingRunner struct {
	mu   sync.Mutex
	runs []string
	done chan struct{}
}

func (r *countingRunner) Execute(_ context.Context, job *CheckJob) {
	r.mu.Lock()
	r.runs = append(r.runs, job.RunID)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func TestWorkerPool_ProcessesJobs(t *testing.T) {
	runner := &countingRunner{done: make(chan struct{}, 4)}
	manager := NewManager(ManagerConfig{QueueCapacity: 4, Concurrency: 1}, runner, zap.NewNop())

	if err := manager.Start(); err != nil {
		t.Fatal(err)
	}
	defer manager.Stop()

	for _, id := range []string{"r1", "r2", "r3"} {
		if err := manager.SubmitCheckJob(&CheckJob{RunID: id}); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-runner.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("第%d个任务等待执行超时", i+1)
		}
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.runs) != 3 {
		t.Errorf("应执行3个任务，实际 %d 个", len(runner.runs))
	}
	// 串行Worker按入队顺序执行
	for i, want := range []string{"r1", "r2", "r3"} {
		if runner.runs[i] != want {
			t.Errorf("第%d个执行的任务应为 %s，实际为 %s", i+1, want, runner.runs[i])
		}
	}
}
