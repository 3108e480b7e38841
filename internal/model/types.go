package model

import (
	"time"
)

// AccountStatus 单条Token的最终检测状态
type AccountStatus string

const (
	StatusValid             AccountStatus = "Valid"             // Token有效且查到真实资料
	StatusInvalid           AccountStatus = "Invalid"           // 未能解出任何凭证和SteamID
	StatusExpired           AccountStatus = "Expired"           // 凭证已过期
	StatusInvalidCredential AccountStatus = "InvalidCredential" // 凭证可解码但结构无效
	StatusAccountNotFound   AccountStatus = "AccountNotFound"   // SteamID查不到对应账号
	StatusLimitedProfile    AccountStatus = "LimitedProfile"    // 资料不完整（受限/私密）
	StatusError             AccountStatus = "Error"             // 处理该条目时发生未预期异常
)

// EconomyStatus 经济封禁状态
type EconomyStatus string

const (
	EconomyNone      EconomyStatus = "none"
	EconomyProbation EconomyStatus = "probation"
	EconomyBanned    EconomyStatus = "banned"
	EconomyError     EconomyStatus = "error"
)

// 未解析字段的哨兵值（与上游报表字段保持一致）
const (
	SentinelUnknown      = "Unknown"
	SentinelError        = "Error"
	SentinelNever        = "Never"
	SentinelNotSpecified = "Not specified"
)

// BanFlags 封禁信息
type BanFlags struct {
	VACBanned        bool          `json:"vac_banned"`
	CommunityBanned  bool          `json:"community_banned"`
	EconomyStatus    EconomyStatus `json:"economy_status"`
	VACCount         int           `json:"vac_count"`
	GameBanCount     int           `json:"game_ban_count"`
	DaysSinceLastBan int           `json:"days_since_last_ban"`
}

// InventorySummary 库存估值摘要（可选检测项）
type InventorySummary struct {
	EstimatedValue float64 `json:"estimated_value"`
	ItemCount      int     `json:"item_count"`
	IsPrivate      bool    `json:"is_private"`
	LookupError    string  `json:"lookup_error,omitempty"`
}

// AccountRecord 批量检测的输出单元，创建后不再修改
type AccountRecord struct {
	SequenceNumber      int               `json:"sequence_number"`
	Status              AccountStatus     `json:"status"`
	SteamID             string            `json:"steam_id"`
	DisplayName         string            `json:"display_name"`
	RealName            string            `json:"real_name"`
	Bans                BanFlags          `json:"bans"`
	AccountCreatedAt    string            `json:"account_created_at"`
	LastOnlineAt        string            `json:"last_online_at"`
	CredentialExpiresAt string            `json:"credential_expires_at"`
	CredentialValid     bool              `json:"credential_valid"`
	CredentialExpired   bool              `json:"credential_expired"`
	ProfileURL          string            `json:"profile_url"`
	Inventory           *InventorySummary `json:"inventory,omitempty"`
	RawInput            string            `json:"-"` // 仅驻留内存，不入库不下发
}

// BatchStatistics 批次统计，对AccountRecord列表的纯折叠
type BatchStatistics struct {
	Total           int `json:"total"`
	Valid           int `json:"valid"`
	Invalid         int `json:"invalid"`
	Expired         int `json:"expired"`
	VACBanned       int `json:"vac_banned"`
	CommunityBanned int `json:"community_banned"`
	EconomyBanned   int `json:"economy_banned"`
	AccountNotFound int `json:"account_not_found"`
	LimitedProfile  int `json:"limited_profile"`
}

// CheckRun 一次批量检测任务
type CheckRun struct {
	ID          string          `json:"id" db:"id"`
	Status      string          `json:"status" db:"status"`
	TotalLines  int             `json:"total_lines" db:"total_lines"`
	Processed   int             `json:"processed" db:"processed"`
	Stats       BatchStatistics `json:"stats"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// CheckRun状态常量
const (
	RunStatusPending    = "pending"
	RunStatusProcessing = "processing"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
)

// ValidAccount 导出的有效账号（不含原始Token）
type ValidAccount struct {
	ID                  int       `json:"id" db:"id"`
	SteamID             string    `json:"steam_id" db:"steam_id"`
	Username            string    `json:"username" db:"username"`
	ProfileURL          string    `json:"profile_url" db:"profile_url"`
	VACBanned           bool      `json:"vac_banned" db:"vac_banned"`
	CommunityBanned     bool      `json:"community_banned" db:"community_banned"`
	CredentialExpiresAt string    `json:"credential_expires_at" db:"credential_expires_at"`
	LastCheckedAt       time.Time `json:"last_checked_at" db:"last_checked_at"`
}

// API响应结构
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// CheckSubmitRequest 批量检测提交请求
type CheckSubmitRequest struct {
	Lines          []string `json:"lines" binding:"required"`
	CheckInventory bool     `json:"check_inventory"`
	Timestamp      string   `json:"timestamp" binding:"required"`
	Sign           string   `json:"sign" binding:"required"`
}

// CheckProgress 检测进度
type CheckProgress struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}
