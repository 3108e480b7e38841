package checker

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/client"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/token"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/utils"
)

// ErrMissingAPIKey 缺少API key是批次级失败，不产生任何记录
var ErrMissingAPIKey = errors.New("steam api key is required")

// ProfileAPI 账号资料与封禁查询能力
type ProfileAPI interface {
	GetPlayerSummary(ctx context.Context, steamID, apiKey string) *client.PlayerProfile
	GetPlayerBans(ctx context.Context, steamID, apiKey string) *model.BanFlags
}

// InventoryAPI 库存摘要查询能力
type InventoryAPI interface {
	GetInventorySummary(ctx context.Context, steamID string) *model.InventorySummary
}

// ProgressFunc 每完成一条后的进度回调 (当前序号, 总数)
type ProgressFunc func(current, total int)

// Checker 批量检测编排器。条目严格顺序处理，条目间有固定间隔，
// 单条失败被条目级错误边界吸收，绝不中断整个批次。
type Checker struct {
	steam     ProfileAPI
	inventory InventoryAPI
	logger    *zap.Logger
	delay     time.Duration
}

func NewChecker(steam ProfileAPI, inventory InventoryAPI, logger *zap.Logger, delay time.Duration) *Checker {
	return &Checker{
		steam:     steam,
		inventory: inventory,
		logger:    logger,
		delay:     delay,
	}
}

// RunBatch 顺序处理一批原始Token行。
// 空行在进入流水线前过滤掉；序号按过滤后的顺序从1编起。
// ctx取消在每条开始前检查，返回已完成的部分结果和ctx错误。
func (c *Checker) RunBatch(ctx context.Context, rawLines []string, apiKey string, checkInventory bool, onProgress ProgressFunc) ([]model.AccountRecord, model.BatchStatistics, error) {
	if apiKey == "" {
		return nil, model.BatchStatistics{}, ErrMissingAPIKey
	}

	lines := filterEmptyLines(rawLines)
	total := len(lines)
	records := make([]model.AccountRecord, 0, total)
	stats := model.BatchStatistics{}

	c.logger.Info("🚀 开始批量检测",
		zap.Int("total", total),
		zap.Bool("check_inventory", checkInventory))

	for i, line := range lines {
		seq := i + 1

		if err := ctx.Err(); err != nil {
			c.logger.Warn("🛑 批次被取消",
				zap.Int("processed", len(records)),
				zap.Int("total", total))
			return records, stats, err
		}

		record := c.checkOne(ctx, seq, line, apiKey, checkInventory)
		records = append(records, record)
		foldRecord(&stats, &record)

		if onProgress != nil {
			onProgress(seq, total)
		}

		// 条目间固定间隔的自我限速，最后一条之后跳过
		if seq < total && c.delay > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return records, stats, ctx.Err()
			}
		}
	}

	c.logger.Info("✅ 批量检测完成",
		zap.Int("total", stats.Total),
		zap.Int("valid", stats.Valid),
		zap.Int("invalid", stats.Invalid),
		zap.Int("expired", stats.Expired))

	return records, stats, nil
}

// checkOne 单条Token的完整流水线。
// panic被条目级错误边界吸收，合成Error状态记录后批次继续。
func (c *Checker) checkOne(ctx context.Context, seq int, line, apiKey string, checkInventory bool) (record model.AccountRecord) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("💥 条目处理发生未预期异常",
				zap.Int("sequence", seq),
				zap.Any("panic", r))
			record = errorRecord(seq, line)
		}
	}()

	parsed := token.Parse(line)

	var decoded *token.DecodedCredential
	if parsed.Credential != "" {
		decoded = token.Decode(parsed.Credential)
	}

	steamID := token.ResolveSteamID(parsed, decoded)

	profile := c.steam.GetPlayerSummary(ctx, steamID, apiKey)
	bans := c.steam.GetPlayerBans(ctx, steamID, apiKey)

	var inventory *model.InventorySummary
	if checkInventory && steamID != "" {
		inventory = c.inventory.GetInventorySummary(ctx, steamID)
	}

	status := Classify(decoded, steamID, profile)

	return buildRecord(seq, line, parsed, decoded, steamID, profile, bans, inventory, status)
}

// buildRecord 将流水线各阶段的产出拼成一条不可变记录
func buildRecord(seq int, line string, parsed token.ParsedToken, decoded *token.DecodedCredential,
	steamID string, profile *client.PlayerProfile, bans *model.BanFlags,
	inventory *model.InventorySummary, status model.AccountStatus) model.AccountRecord {

	displayName := profile.DisplayName
	// 资料查询没给出名字时退回Token自带的用户名
	if parsed.Username != "" && (displayName == model.SentinelUnknown || displayName == model.SentinelError) {
		displayName = parsed.Username
	}

	recordID := steamID
	if recordID == "" {
		recordID = model.SentinelUnknown
	}

	expiresAt := model.SentinelNever
	credentialValid := false
	credentialExpired := false
	if decoded != nil {
		if decoded.ExpiresAt != nil {
			expiresAt = utils.FormatTimestamp(*decoded.ExpiresAt)
		}
		credentialValid = decoded.IsStructurallyValid
		credentialExpired = decoded.IsExpired
	}

	return model.AccountRecord{
		SequenceNumber:      seq,
		Status:              status,
		SteamID:             recordID,
		DisplayName:         displayName,
		RealName:            profile.RealName,
		Bans:                *bans,
		AccountCreatedAt:    utils.FormatTimestamp(profile.CreationTimestamp),
		LastOnlineAt:        utils.FormatTimestamp(profile.LastLogoffAt),
		CredentialExpiresAt: expiresAt,
		CredentialValid:     credentialValid,
		CredentialExpired:   credentialExpired,
		ProfileURL:          profile.ProfileURL,
		Inventory:           inventory,
		RawInput:            line,
	}
}

// errorRecord 错误边界合成的记录：只带原始输入和序号，其余全哨兵
func errorRecord(seq int, line string) model.AccountRecord {
	return model.AccountRecord{
		SequenceNumber:      seq,
		Status:              model.StatusError,
		SteamID:             model.SentinelError,
		DisplayName:         model.SentinelError,
		RealName:            model.SentinelNotSpecified,
		Bans:                model.BanFlags{EconomyStatus: model.EconomyError},
		AccountCreatedAt:    model.SentinelNever,
		LastOnlineAt:        model.SentinelNever,
		CredentialExpiresAt: model.SentinelNever,
		RawInput:            line,
	}
}

func filterEmptyLines(rawLines []string) []string {
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
