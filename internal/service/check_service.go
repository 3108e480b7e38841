package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/checker"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/config"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/repository"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/token"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/worker"
)

var (
	ErrNoValidLines = errors.New("没有可检测的Token行")
	ErrRunNotFound  = errors.New("检测任务不存在")
)

// CheckService 批量检测业务编排：提交、执行、进度、结果导出。
// 进度注册表驻留内存供轮询，数据库里的进度只在批次收尾时对齐。
type CheckService struct {
	cfg         *config.Config
	checker     *checker.Checker
	runRepo     *repository.RunRepository
	accountRepo *repository.AccountRepository
	manager     *worker.Manager
	logger      *zap.Logger

	mu       sync.RWMutex
	progress map[string]*model.CheckProgress
}

func NewCheckService(
	cfg *config.Config,
	chk *checker.Checker,
	runRepo *repository.RunRepository,
	accountRepo *repository.AccountRepository,
	logger *zap.Logger,
) *CheckService {
	return &CheckService{
		cfg:         cfg,
		checker:     chk,
		runRepo:     runRepo,
		accountRepo: accountRepo,
		logger:      logger,
		progress:    make(map[string]*model.CheckProgress),
	}
}

// SetWorkerManager Worker管理器在service之后构造，启动前注入
func (s *CheckService) SetWorkerManager(m *worker.Manager) {
	s.manager = m
}

// SubmitCheck 校验输入、建档并把批次投入队列，返回run ID
func (s *CheckService) SubmitCheck(lines []string, checkInventory bool) (string, error) {
	if s.cfg.Steam.APIKey == "" {
		return "", checker.ErrMissingAPIKey
	}

	accepted := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			accepted = append(accepted, line)
		}
	}
	if len(accepted) == 0 {
		return "", ErrNoValidLines
	}

	runID := uuid.NewString()
	if err := s.runRepo.CreateRun(runID, len(accepted)); err != nil {
		return "", err
	}

	job := &worker.CheckJob{
		RunID:          runID,
		Lines:          accepted,
		CheckInventory: checkInventory,
	}
	if err := s.manager.SubmitCheckJob(job); err != nil {
		// 入队失败直接销档，不留悬空任务
		s.runRepo.DeleteRun(runID)
		return "", err
	}

	s.setProgress(runID, &model.CheckProgress{
		RunID:  runID,
		Status: model.RunStatusPending,
		Total:  len(accepted),
	})

	s.logger.Info("📨 批量检测已受理",
		zap.String("run_id", runID),
		zap.Int("lines", len(accepted)),
		zap.Bool("check_inventory", checkInventory))
	return runID, nil
}

// Execute 在Worker里跑完一个批次。实现worker.JobRunner。
func (s *CheckService) Execute(ctx context.Context, job *worker.CheckJob) {
	s.setProgress(job.RunID, &model.CheckProgress{
		RunID:  job.RunID,
		Status: model.RunStatusProcessing,
		Total:  len(job.Lines),
	})
	if err := s.runRepo.UpdateRunStatus(job.RunID, model.RunStatusProcessing); err != nil {
		s.logger.Error("标记任务处理中失败", zap.Error(err), zap.String("run_id", job.RunID))
	}

	records, stats, err := s.checker.RunBatch(ctx, job.Lines, s.cfg.Steam.APIKey, job.CheckInventory,
		func(current, total int) {
			s.updateProcessed(job.RunID, current)
			// 进度落库限流，每10条对齐一次
			if current%10 == 0 {
				s.runRepo.UpdateRunProgress(job.RunID, current)
			}
		})

	if err != nil {
		s.logger.Error("❌ 批次执行中断",
			zap.Error(err),
			zap.String("run_id", job.RunID),
			zap.Int("processed", len(records)))
		s.finishRun(job.RunID, model.RunStatusFailed, records, stats)
		return
	}

	s.finishRun(job.RunID, model.RunStatusCompleted, records, stats)
	s.exportValidAccounts(records)
}

// finishRun 批次收尾：落脱敏记录、写终态和统计、刷新进度注册表
func (s *CheckService) finishRun(runID, status string, records []model.AccountRecord, stats model.BatchStatistics) {
	if err := s.runRepo.SaveRecords(runID, records); err != nil {
		s.logger.Error("保存检测记录失败", zap.Error(err), zap.String("run_id", runID))
		status = model.RunStatusFailed
	}
	if err := s.runRepo.CompleteRun(runID, status, len(records), stats); err != nil {
		s.logger.Error("任务收尾失败", zap.Error(err), zap.String("run_id", runID))
	}

	s.setProgress(runID, &model.CheckProgress{
		RunID:     runID,
		Status:    status,
		Processed: len(records),
		Total:     stats.Total,
	})
}

// exportValidAccounts 把Valid状态的记录升格为可导出的有效账号
func (s *CheckService) exportValidAccounts(records []model.AccountRecord) {
	exported := 0
	for i := range records {
		rec := &records[i]
		if rec.Status != model.StatusValid || rec.SteamID == model.SentinelUnknown {
			continue
		}

		account := &model.ValidAccount{
			SteamID:             rec.SteamID,
			Username:            rec.DisplayName,
			ProfileURL:          rec.ProfileURL,
			VACBanned:           rec.Bans.VACBanned,
			CommunityBanned:     rec.Bans.CommunityBanned,
			CredentialExpiresAt: rec.CredentialExpiresAt,
		}
		if err := s.accountRepo.UpsertValidAccount(account); err != nil {
			s.logger.Warn("导出有效账号失败",
				zap.Error(err),
				zap.String("steam_id", rec.SteamID))
			continue
		}
		exported++
	}

	if exported > 0 {
		s.logger.Info("📦 有效账号已导出", zap.Int("count", exported))
	}
}

// GetProgress 查询批次进度，内存注册表优先，回落到数据库
func (s *CheckService) GetProgress(runID string) (*model.CheckProgress, error) {
	s.mu.RLock()
	p, ok := s.progress[runID]
	s.mu.RUnlock()
	if ok {
		copied := *p
		return &copied, nil
	}

	run, err := s.runRepo.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrRunNotFound
	}
	return &model.CheckProgress{
		RunID:     run.ID,
		Status:    run.Status,
		Processed: run.Processed,
		Total:     run.TotalLines,
	}, nil
}

// GetRun 查询批次详情（含脱敏记录与统计）
func (s *CheckService) GetRun(runID string) (*model.CheckRun, []model.AccountRecord, error) {
	run, err := s.runRepo.GetRun(runID)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, ErrRunNotFound
	}

	records, err := s.runRepo.GetRecords(runID)
	if err != nil {
		return nil, nil, err
	}
	return run, records, nil
}

// ListRuns 批次列表
func (s *CheckService) ListRuns(limit int) ([]model.CheckRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.runRepo.ListRuns(limit)
}

// DeleteRun 删除批次并清掉进度注册表
func (s *CheckService) DeleteRun(runID string) error {
	run, err := s.runRepo.GetRun(runID)
	if err != nil {
		return err
	}
	if run == nil {
		return ErrRunNotFound
	}

	if err := s.runRepo.DeleteRun(runID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.progress, runID)
	s.mu.Unlock()
	return nil
}

// LineValidation 单行预检结果
type LineValidation struct {
	Line  int  `json:"line"`
	Valid bool `json:"valid"`
}

// ValidateLines 提交前的格式预检，不触发任何外部查询
func (s *CheckService) ValidateLines(lines []string) ([]LineValidation, int) {
	results := make([]LineValidation, 0, len(lines))
	validCount := 0
	for i, line := range lines {
		ok := token.ValidateFormat(line)
		if ok {
			validCount++
		}
		results = append(results, LineValidation{Line: i + 1, Valid: ok})
	}
	return results, validCount
}

// ListValidAccounts 导出的有效账号列表
func (s *CheckService) ListValidAccounts(limit int) ([]model.ValidAccount, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.accountRepo.ListValidAccounts(limit)
}

// PurgeValidAccounts 清空有效账号导出表
func (s *CheckService) PurgeValidAccounts() (int, error) {
	return s.accountRepo.PurgeValidAccounts()
}

func (s *CheckService) setProgress(runID string, p *model.CheckProgress) {
	s.mu.Lock()
	s.progress[runID] = p
	s.mu.Unlock()
}

func (s *CheckService) updateProcessed(runID string, processed int) {
	s.mu.Lock()
	if p, ok := s.progress[runID]; ok {
		p.Processed = processed
	}
	s.mu.Unlock()
}
