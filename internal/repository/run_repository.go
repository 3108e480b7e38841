package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
)

// RunRepository 检测任务与脱敏结果的持久化。
// 写入的记录不含RawInput，原始Token只存在于内存队列里。
type RunRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRunRepository(db *sql.DB, logger *zap.Logger) *RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

// CreateRun 记录一次新批次
func (r *RunRepository) CreateRun(runID string, totalLines int) error {
	query := `INSERT INTO check_runs (id, status, total_lines) VALUES (?, 'pending', ?)`

	if _, err := r.db.Exec(query, runID, totalLines); err != nil {
		r.logger.Error("创建检测任务失败",
			zap.Error(err),
			zap.String("run_id", runID))
		return fmt.Errorf("创建检测任务失败: %w", err)
	}

	r.logger.Info("📝 检测任务已创建",
		zap.String("run_id", runID),
		zap.Int("total_lines", totalLines))
	return nil
}

// UpdateRunStatus 更新批次状态
func (r *RunRepository) UpdateRunStatus(runID, status string) error {
	query := `UPDATE check_runs SET status = ? WHERE id = ?`

	if _, err := r.db.Exec(query, status, runID); err != nil {
		r.logger.Error("更新任务状态失败",
			zap.Error(err),
			zap.String("run_id", runID),
			zap.String("status", status))
		return fmt.Errorf("更新任务状态失败: %w", err)
	}
	return nil
}

// UpdateRunProgress 更新已处理条数
func (r *RunRepository) UpdateRunProgress(runID string, processed int) error {
	query := `UPDATE check_runs SET processed = ? WHERE id = ?`

	_, err := r.db.Exec(query, processed, runID)
	if err != nil {
		return fmt.Errorf("更新任务进度失败: %w", err)
	}
	return nil
}

// CompleteRun 批次收尾：写入终态、统计和完成时间
func (r *RunRepository) CompleteRun(runID, status string, processed int, stats model.BatchStatistics) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("序列化统计失败: %w", err)
	}

	query := `UPDATE check_runs SET status = ?, processed = ?, stats_json = ?, completed_at = NOW() WHERE id = ?`

	if _, err := r.db.Exec(query, status, processed, string(statsJSON), runID); err != nil {
		r.logger.Error("任务收尾失败",
			zap.Error(err),
			zap.String("run_id", runID))
		return fmt.Errorf("任务收尾失败: %w", err)
	}
	return nil
}

// SaveRecords 批量写入脱敏后的检测记录
func (r *RunRepository) SaveRecords(runID string, records []model.AccountRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO check_records (
			run_id, sequence_number, status, steam_id, display_name, real_name,
			vac_banned, community_banned, economy_status, vac_count, game_ban_count,
			days_since_last_ban, account_created_at, last_online_at,
			credential_expires_at, credential_valid, credential_expired,
			profile_url, inventory_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("预编译插入语句失败: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var inventoryJSON sql.NullString
		if rec.Inventory != nil {
			b, err := json.Marshal(rec.Inventory)
			if err == nil {
				inventoryJSON = sql.NullString{String: string(b), Valid: true}
			}
		}

		if _, err := stmt.Exec(
			runID, rec.SequenceNumber, string(rec.Status), rec.SteamID,
			rec.DisplayName, rec.RealName,
			rec.Bans.VACBanned, rec.Bans.CommunityBanned, string(rec.Bans.EconomyStatus),
			rec.Bans.VACCount, rec.Bans.GameBanCount, rec.Bans.DaysSinceLastBan,
			rec.AccountCreatedAt, rec.LastOnlineAt, rec.CredentialExpiresAt,
			rec.CredentialValid, rec.CredentialExpired, rec.ProfileURL,
			inventoryJSON,
		); err != nil {
			return fmt.Errorf("写入检测记录失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交检测记录失败: %w", err)
	}

	r.logger.Info("💾 检测记录已入库",
		zap.String("run_id", runID),
		zap.Int("count", len(records)))
	return nil
}

// GetRun 查询单个批次
func (r *RunRepository) GetRun(runID string) (*model.CheckRun, error) {
	query := `SELECT id, status, total_lines, processed, stats_json, created_at, completed_at FROM check_runs WHERE id = ?`

	var run model.CheckRun
	var statsJSON sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRow(query, runID).Scan(
		&run.ID, &run.Status, &run.TotalLines, &run.Processed,
		&statsJSON, &run.CreatedAt, &completedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("查询检测任务失败: %w", err)
	}

	if statsJSON.Valid {
		json.Unmarshal([]byte(statsJSON.String), &run.Stats)
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

// ListRuns 按创建时间倒序列出批次
func (r *RunRepository) ListRuns(limit int) ([]model.CheckRun, error) {
	query := `SELECT id, status, total_lines, processed, stats_json, created_at, completed_at
		FROM check_runs ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("查询任务列表失败: %w", err)
	}
	defer rows.Close()

	var runs []model.CheckRun
	for rows.Next() {
		var run model.CheckRun
		var statsJSON sql.NullString
		var completedAt sql.NullTime

		if err := rows.Scan(&run.ID, &run.Status, &run.TotalLines, &run.Processed,
			&statsJSON, &run.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("扫描任务数据失败: %w", err)
		}
		if statsJSON.Valid {
			json.Unmarshal([]byte(statsJSON.String), &run.Stats)
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRecords 查询一个批次的全部记录，按序号排序
func (r *RunRepository) GetRecords(runID string) ([]model.AccountRecord, error) {
	query := `
		SELECT sequence_number, status, steam_id, display_name, real_name,
			vac_banned, community_banned, economy_status, vac_count, game_ban_count,
			days_since_last_ban, account_created_at, last_online_at,
			credential_expires_at, credential_valid, credential_expired,
			profile_url, inventory_json
		FROM check_records WHERE run_id = ? ORDER BY sequence_number ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("查询检测记录失败: %w", err)
	}
	defer rows.Close()

	var records []model.AccountRecord
	for rows.Next() {
		var rec model.AccountRecord
		var status, economyStatus string
		var inventoryJSON sql.NullString

		if err := rows.Scan(
			&rec.SequenceNumber, &status, &rec.SteamID, &rec.DisplayName, &rec.RealName,
			&rec.Bans.VACBanned, &rec.Bans.CommunityBanned, &economyStatus,
			&rec.Bans.VACCount, &rec.Bans.GameBanCount, &rec.Bans.DaysSinceLastBan,
			&rec.AccountCreatedAt, &rec.LastOnlineAt, &rec.CredentialExpiresAt,
			&rec.CredentialValid, &rec.CredentialExpired, &rec.ProfileURL,
			&inventoryJSON,
		); err != nil {
			return nil, fmt.Errorf("扫描检测记录失败: %w", err)
		}

		rec.Status = model.AccountStatus(status)
		rec.Bans.EconomyStatus = model.EconomyStatus(economyStatus)
		if inventoryJSON.Valid {
			var inv model.InventorySummary
			if json.Unmarshal([]byte(inventoryJSON.String), &inv) == nil {
				rec.Inventory = &inv
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteRun 删除批次及其记录
func (r *RunRepository) DeleteRun(runID string) error {
	if _, err := r.db.Exec(`DELETE FROM check_records WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("删除检测记录失败: %w", err)
	}
	if _, err := r.db.Exec(`DELETE FROM check_runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("删除检测任务失败: %w", err)
	}

	r.logger.Info("🗑️ 检测任务已删除", zap.String("run_id", runID))
	return nil
}

// CleanOldRuns 清理早于保留窗口的批次（定时维护用）
func (r *RunRepository) CleanOldRuns(olderThan time.Duration) (int, error) {
	cutoffTime := time.Now().Add(-olderThan)

	result, err := r.db.Exec(`
		DELETE cr, rec FROM check_runs cr
		LEFT JOIN check_records rec ON rec.run_id = cr.id
		WHERE cr.created_at < ?`, cutoffTime)
	if err != nil {
		r.logger.Error("清理旧任务失败", zap.Error(err))
		return 0, fmt.Errorf("清理旧任务失败: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if rowsAffected > 0 {
		r.logger.Info("🧹 清理旧任务成功", zap.Int64("count", rowsAffected))
	}
	return int(rowsAffected), nil
}
