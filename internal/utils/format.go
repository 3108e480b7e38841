package utils

import (
	"time"
)

// FormatTimestamp 将Unix秒时间戳格式化为可读时间，零值/缺失返回"Never"
func FormatTimestamp(ts int64) string {
	if ts <= 0 {
		return "Never"
	}
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}

// FormatBanStatus 封禁布尔值的展示形式
func FormatBanStatus(banned bool) string {
	if banned {
		return "Yes"
	}
	return "No"
}
