package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/client"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/config"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/repository"
)

// 批次保留窗口，过期后连同记录一起清理
const runRetention = 72 * time.Hour

// CronService 定时任务服务：旧批次清理和有效账号的封禁复查。
// 复查只用SteamID走封禁接口，不涉及任何Token。
type CronService struct {
	cron        *cron.Cron
	cfg         *config.Config
	runRepo     *repository.RunRepository
	accountRepo *repository.AccountRepository
	steamClient *client.SteamClient
	logger      *zap.Logger
}

func NewCronService(
	cfg *config.Config,
	runRepo *repository.RunRepository,
	accountRepo *repository.AccountRepository,
	steamClient *client.SteamClient,
	logger *zap.Logger,
) *CronService {
	// 创建cron实例，使用秒级精度
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:        c,
		cfg:         cfg,
		runRepo:     runRepo,
		accountRepo: accountRepo,
		steamClient: steamClient,
		logger:      logger,
	}
}

// Start 启动定时任务
func (s *CronService) Start() error {
	s.logger.Info("🕒 启动定时任务服务")

	// 1. 清理过期批次 - 每天凌晨04:00执行
	if _, err := s.cron.AddFunc("0 0 4 * * *", s.cleanOldRuns); err != nil {
		s.logger.Error("添加清理过期批次任务失败", zap.Error(err))
		return err
	}

	// 2. 有效账号封禁复查 - 每天凌晨05:00执行
	if _, err := s.cron.AddFunc("0 0 5 * * *", s.refreshBanFlags); err != nil {
		s.logger.Error("添加封禁复查任务失败", zap.Error(err))
		return err
	}

	s.cron.Start()

	s.logger.Info("✅ 定时任务服务启动成功")
	s.logger.Info("📅 定时任务计划:")
	s.logger.Info("  - 04:00 清理过期批次")
	s.logger.Info("  - 05:00 有效账号封禁复查")
	return nil
}

// Stop 停止定时任务，等待执行中的任务退出
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("🕒 定时任务服务已停止")
}

// cleanOldRuns 清理早于保留窗口的批次
func (s *CronService) cleanOldRuns() {
	s.logger.Info("🧹 开始清理过期批次")

	count, err := s.runRepo.CleanOldRuns(runRetention)
	if err != nil {
		s.logger.Error("清理过期批次失败", zap.Error(err))
		return
	}

	s.logger.Info("✅ 过期批次清理完成", zap.Int("count", count))
}

// refreshBanFlags 对已导出的有效账号逐个复查封禁状态
func (s *CronService) refreshBanFlags() {
	if s.cfg.Steam.APIKey == "" {
		s.logger.Warn("未配置Steam API key，跳过封禁复查")
		return
	}

	s.logger.Info("🔍 开始有效账号封禁复查")

	accounts, err := s.accountRepo.ListValidAccounts(500)
	if err != nil {
		s.logger.Error("加载有效账号失败", zap.Error(err))
		return
	}

	refreshed := 0
	newlyBanned := 0
	for _, account := range accounts {
		bans := s.steamClient.GetPlayerBans(context.Background(), account.SteamID, s.cfg.Steam.APIKey)

		if err := s.accountRepo.UpdateBanFlags(account.SteamID, bans.VACBanned, bans.CommunityBanned); err != nil {
			s.logger.Warn("刷新封禁状态失败",
				zap.Error(err),
				zap.String("steam_id", account.SteamID))
			continue
		}
		refreshed++

		if (bans.VACBanned && !account.VACBanned) || (bans.CommunityBanned && !account.CommunityBanned) {
			newlyBanned++
			s.logger.Warn("🚫 账号新增封禁",
				zap.String("steam_id", account.SteamID),
				zap.Bool("vac_banned", bans.VACBanned),
				zap.Bool("community_banned", bans.CommunityBanned))
		}

		// 复查节奏与批量检测共用同一套自我限速
		time.Sleep(s.cfg.Steam.CheckDelay)
	}

	s.logger.Info("✅ 封禁复查完成",
		zap.Int("total", len(accounts)),
		zap.Int("refreshed", refreshed),
		zap.Int("newly_banned", newlyBanned))
}
