package worker

import (
	"sync"

	"go.uber.org/zap"
)

// Manager Worker管理器（统一管理JobQueue和WorkerPool）
type Manager struct {
	jobQueue   *JobQueue
	workerPool *WorkerPool
	logger     *zap.Logger
	started    bool
	mu         sync.RWMutex
}

// ManagerConfig Manager配置
type ManagerConfig struct {
	QueueCapacity int
	Concurrency   int
}

func NewManager(config ManagerConfig, runner JobRunner, logger *zap.Logger) *Manager {
	jobQueue := NewJobQueue(config.QueueCapacity, logger)

	// 强制串行：Steam API按key限额，多批次并发只会互相挤兑配额
	workerConfig := WorkerPoolConfig{
		Concurrency: 1,
	}

	workerPool := NewWorkerPool(workerConfig, jobQueue, runner, logger)

	return &Manager{
		jobQueue:   jobQueue,
		workerPool: workerPool,
		logger:     logger,
	}
}

// Start 启动Manager
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}

	m.logger.Info("🚀 启动Worker管理器")
	m.workerPool.Start()
	m.started = true
	m.logger.Info("✅ Worker管理器启动完成")
	return nil
}

// Stop 停止Manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Info("🛑 停止Worker管理器")
	m.workerPool.Stop()
	m.jobQueue.Close()
	m.started = false
	m.logger.Info("✅ Worker管理器已停止")
	return nil
}

// IsStarted 检查是否已启动
func (m *Manager) IsStarted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.started
}

// SubmitCheckJob 提交检测批次
func (m *Manager) SubmitCheckJob(job *CheckJob) error {
	return m.jobQueue.Enqueue(job)
}

// GetStats 获取统计信息
func (m *Manager) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"worker_manager": map[string]interface{}{
			"started":     m.IsStarted(),
			"concurrency": m.workerPool.concurrency,
		},
		"job_queue": map[string]interface{}{
			"queue_length":   m.jobQueue.GetQueueLength(),
			"queue_capacity": m.jobQueue.GetQueueCapacity(),
		},
	}
}
