package repository

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/config"
)

type Database struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}

	// 配置连接池
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logger.Info("✅ 数据库连接成功",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.DBName),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	d := &Database{
		db:     db,
		logger: logger,
	}

	if err := d.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}

	return d, nil
}

// initSchema 建表。检测结果表只存脱敏字段，原始Token永不入库
func (d *Database) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS check_runs (
			id VARCHAR(36) PRIMARY KEY,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			total_lines INT NOT NULL DEFAULT 0,
			processed INT NOT NULL DEFAULT 0,
			stats_json TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME NULL,
			INDEX idx_runs_created (created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS check_records (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(36) NOT NULL,
			sequence_number INT NOT NULL,
			status VARCHAR(32) NOT NULL,
			steam_id VARCHAR(32) NOT NULL,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			real_name VARCHAR(255) NOT NULL DEFAULT '',
			vac_banned TINYINT(1) NOT NULL DEFAULT 0,
			community_banned TINYINT(1) NOT NULL DEFAULT 0,
			economy_status VARCHAR(16) NOT NULL DEFAULT 'none',
			vac_count INT NOT NULL DEFAULT 0,
			game_ban_count INT NOT NULL DEFAULT 0,
			days_since_last_ban INT NOT NULL DEFAULT 0,
			account_created_at VARCHAR(32) NOT NULL DEFAULT '',
			last_online_at VARCHAR(32) NOT NULL DEFAULT '',
			credential_expires_at VARCHAR(32) NOT NULL DEFAULT '',
			credential_valid TINYINT(1) NOT NULL DEFAULT 0,
			credential_expired TINYINT(1) NOT NULL DEFAULT 0,
			profile_url VARCHAR(512) NOT NULL DEFAULT '',
			inventory_json TEXT NULL,
			INDEX idx_records_run (run_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS valid_accounts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			steam_id VARCHAR(32) NOT NULL UNIQUE,
			username VARCHAR(255) NOT NULL DEFAULT '',
			profile_url VARCHAR(512) NOT NULL DEFAULT '',
			vac_banned TINYINT(1) NOT NULL DEFAULT 0,
			community_banned TINYINT(1) NOT NULL DEFAULT 0,
			credential_expires_at VARCHAR(32) NOT NULL DEFAULT '',
			last_checked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range statements {
		if _, err := d.db.Exec(stmt); err != nil {
			return err
		}
	}

	d.logger.Info("✅ 表结构初始化完成")
	return nil
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}

func (d *Database) Close() error {
	return d.db.Close()
}

// 健康检查
func (d *Database) Ping() error {
	return d.db.Ping()
}
