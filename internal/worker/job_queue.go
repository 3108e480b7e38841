package worker

import (
	"errors"

	"go.uber.org/zap"
)

// ErrQueueFull 队列满时拒绝提交，由调用方向客户端透出
var ErrQueueFull = errors.New("检测队列已满，请稍后再试")

// CheckJob 内存中的检测任务。
// 原始Token行只存在于这里，队列不做任何持久化——进程重启任务即丢弃，
// 这是刻意选择：Token落盘的风险高于任务丢失的代价。
type CheckJob struct {
	RunID          string
	Lines          []string
	CheckInventory bool
}

// JobQueue 纯内存任务队列
type JobQueue struct {
	queue       chan *CheckJob
	logger      *zap.Logger
	maxCapacity int
}

func NewJobQueue(capacity int, logger *zap.Logger) *JobQueue {
	return &JobQueue{
		queue:       make(chan *CheckJob, capacity),
		logger:      logger,
		maxCapacity: capacity,
	}
}

// Enqueue 非阻塞入队，队列满直接拒绝
func (jq *JobQueue) Enqueue(job *CheckJob) error {
	select {
	case jq.queue <- job:
		jq.logger.Info("✅ 检测任务入队成功",
			zap.String("run_id", job.RunID),
			zap.Int("lines", len(job.Lines)),
			zap.Int("queue_length", len(jq.queue)))
		return nil
	default:
		jq.logger.Warn("⚠️ 检测队列已满，拒绝提交",
			zap.String("run_id", job.RunID),
			zap.Int("capacity", jq.maxCapacity))
		return ErrQueueFull
	}
}

// Dequeue 出队通道
func (jq *JobQueue) Dequeue() <-chan *CheckJob {
	return jq.queue
}

// Close 关闭队列，不再接受新任务
func (jq *JobQueue) Close() {
	close(jq.queue)
	jq.logger.Info("📋 任务队列已关闭")
}

// GetQueueLength 获取队列长度
func (jq *JobQueue) GetQueueLength() int {
	return len(jq.queue)
}

// GetQueueCapacity 获取队列容量
func (jq *JobQueue) GetQueueCapacity() int {
	return jq.maxCapacity
}
