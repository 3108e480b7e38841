package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobRunner 任务执行能力，由service层实现，避免worker反向依赖业务逻辑
type JobRunner interface {
	Execute(ctx context.Context, job *CheckJob)
}

// WorkerPool Worker池。检测批次本身是严格顺序的，
// 池的并发度只决定同时跑几个批次。
type WorkerPool struct {
	concurrency int
	jobQueue    *JobQueue
	runner      JobRunner
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	workerWg    sync.WaitGroup
}

// WorkerPoolConfig Worker池配置
type WorkerPoolConfig struct {
	Concurrency int
}

func NewWorkerPool(config WorkerPoolConfig, jobQueue *JobQueue, runner JobRunner, logger *zap.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		concurrency: config.Concurrency,
		jobQueue:    jobQueue,
		runner:      runner,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start 启动Worker池
func (wp *WorkerPool) Start() {
	wp.logger.Info("🚀 Worker池启动",
		zap.Int("concurrency", wp.concurrency))

	for i := 0; i < wp.concurrency; i++ {
		wp.workerWg.Add(1)
		go wp.worker(i)
	}
}

// Stop 停止Worker池，等待正在执行的任务退出
func (wp *WorkerPool) Stop() {
	wp.logger.Info("🛑 停止Worker池...")
	wp.cancel()
	wp.workerWg.Wait()
	wp.logger.Info("✅ Worker池已停止")
}

// worker 单个Worker的工作循环
func (wp *WorkerPool) worker(workerID int) {
	defer wp.workerWg.Done()

	wp.logger.Debug("👷 Worker启动", zap.Int("worker_id", workerID))

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug("👷 Worker停止", zap.Int("worker_id", workerID))
			return
		case job := <-wp.jobQueue.Dequeue():
			if job == nil {
				continue
			}
			wp.processJob(workerID, job)
		}
	}
}

// processJob 执行单个检测批次
func (wp *WorkerPool) processJob(workerID int, job *CheckJob) {
	startTime := time.Now()

	wp.logger.Info("🔨 开始处理检测批次",
		zap.Int("worker_id", workerID),
		zap.String("run_id", job.RunID),
		zap.Int("lines", len(job.Lines)))

	wp.runner.Execute(wp.ctx, job)

	wp.logger.Info("🏁 检测批次处理结束",
		zap.Int("worker_id", workerID),
		zap.String("run_id", job.RunID),
		zap.Duration("elapsed", time.Since(startTime)))
}
