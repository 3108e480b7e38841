package utils

import "testing"

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   int64
		want string
	}{
		{"零值返回Never", 0, "Never"},
		{"负值返回Never", -1, "Never"},
		{"正常时间戳", 1700000000, FormatTimestamp(1700000000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTimestamp(tt.ts)
			if got != tt.want {
				t.Errorf("FormatTimestamp(%d) = %q, 期望 %q", tt.ts, got, tt.want)
			}
		})
	}

	// 格式校验：正常时间戳必须是 yyyy-MM-dd HH:mm:ss
	got := FormatTimestamp(1700000000)
	if len(got) != 19 || got[4] != '-' || got[7] != '-' || got[10] != ' ' || got[13] != ':' {
		t.Errorf("格式化结果 %q 不符合 yyyy-MM-dd HH:mm:ss", got)
	}
}

func TestFormatBanStatus(t *testing.T) {
	if FormatBanStatus(true) != "Yes" {
		t.Error("封禁状态应返回Yes")
	}
	if FormatBanStatus(false) != "No" {
		t.Error("未封禁状态应返回No")
	}
}
