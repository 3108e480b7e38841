package checker

import (
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
)

// foldRecord 将一条记录并入统计。Error状态计入invalid，
// 保证各状态计数之和恒等于total
func foldRecord(stats *model.BatchStatistics, record *model.AccountRecord) {
	stats.Total++

	switch record.Status {
	case model.StatusValid:
		stats.Valid++
	case model.StatusExpired:
		stats.Expired++
	case model.StatusAccountNotFound:
		stats.AccountNotFound++
	case model.StatusLimitedProfile:
		stats.LimitedProfile++
	default:
		// Invalid / InvalidCredential / Error
		stats.Invalid++
	}

	if record.Bans.VACBanned {
		stats.VACBanned++
	}
	if record.Bans.CommunityBanned {
		stats.CommunityBanned++
	}
	if record.Bans.EconomyStatus == model.EconomyBanned {
		stats.EconomyBanned++
	}
}

// FoldStatistics 对记录列表做纯折叠，与编排器的流式累计结果一致
func FoldStatistics(records []model.AccountRecord) model.BatchStatistics {
	stats := model.BatchStatistics{}
	for i := range records {
		foldRecord(&stats, &records[i])
	}
	return stats
}
