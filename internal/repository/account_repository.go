package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
)

// AccountRepository 有效账号导出表。按SteamID去重，
// 重复检出同一账号时刷新而不是新增。
type AccountRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAccountRepository(db *sql.DB, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertValidAccount 插入或刷新一个有效账号
func (r *AccountRepository) UpsertValidAccount(account *model.ValidAccount) error {
	query := `
		INSERT INTO valid_accounts (steam_id, username, profile_url, vac_banned, community_banned, credential_expires_at, last_checked_at)
		VALUES (?, ?, ?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			username = VALUES(username),
			profile_url = VALUES(profile_url),
			vac_banned = VALUES(vac_banned),
			community_banned = VALUES(community_banned),
			credential_expires_at = VALUES(credential_expires_at),
			last_checked_at = NOW()
	`

	if _, err := r.db.Exec(query,
		account.SteamID, account.Username, account.ProfileURL,
		account.VACBanned, account.CommunityBanned, account.CredentialExpiresAt,
	); err != nil {
		r.logger.Error("保存有效账号失败",
			zap.Error(err),
			zap.String("steam_id", account.SteamID))
		return fmt.Errorf("保存有效账号失败: %w", err)
	}
	return nil
}

// ListValidAccounts 按最近检测时间倒序列出
func (r *AccountRepository) ListValidAccounts(limit int) ([]model.ValidAccount, error) {
	query := `
		SELECT id, steam_id, username, profile_url, vac_banned, community_banned, credential_expires_at, last_checked_at
		FROM valid_accounts ORDER BY last_checked_at DESC LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("查询有效账号失败: %w", err)
	}
	defer rows.Close()

	var accounts []model.ValidAccount
	for rows.Next() {
		var a model.ValidAccount
		if err := rows.Scan(&a.ID, &a.SteamID, &a.Username, &a.ProfileURL,
			&a.VACBanned, &a.CommunityBanned, &a.CredentialExpiresAt, &a.LastCheckedAt); err != nil {
			return nil, fmt.Errorf("扫描有效账号失败: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateBanFlags 定时封禁复查用：只刷新封禁位和检测时间
func (r *AccountRepository) UpdateBanFlags(steamID string, vacBanned, communityBanned bool) error {
	query := `UPDATE valid_accounts SET vac_banned = ?, community_banned = ?, last_checked_at = NOW() WHERE steam_id = ?`

	if _, err := r.db.Exec(query, vacBanned, communityBanned, steamID); err != nil {
		return fmt.Errorf("刷新封禁状态失败: %w", err)
	}
	return nil
}

// PurgeValidAccounts 清空导出表，返回删除条数
func (r *AccountRepository) PurgeValidAccounts() (int, error) {
	result, err := r.db.Exec(`DELETE FROM valid_accounts`)
	if err != nil {
		r.logger.Error("清空有效账号失败", zap.Error(err))
		return 0, fmt.Errorf("清空有效账号失败: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	r.logger.Info("🗑️ 有效账号已清空", zap.Int64("count", rowsAffected))
	return int(rowsAffected), nil
}
