package checker

import (
	"testing"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/client"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/token"
)

func int64Ptr(v int64) *int64 { return &v }

func TestClassify(t *testing.T) {
	futureExp := int64Ptr(9999999999)

	tests := []struct {
		name       string
		decoded    *token.DecodedCredential
		resolvedID string
		profile    *client.PlayerProfile
		want       model.AccountStatus
	}{
		{
			name: "有效凭证配真实资料",
			decoded: &token.DecodedCredential{
				IsStructurallyValid: true,
				SteamID:             testSteamID,
				ExpiresAt:           futureExp,
			},
			resolvedID: testSteamID,
			profile:    realProfile("gaben"),
			want:       model.StatusValid,
		},
		{
			name: "过期短路无视资料",
			decoded: &token.DecodedCredential{
				IsExpired: true,
				SteamID:   testSteamID,
				ExpiresAt: int64Ptr(1),
			},
			resolvedID: testSteamID,
			profile:    realProfile("gaben"),
			want:       model.StatusExpired,
		},
		{
			name: "解出声明但结构无效",
			decoded: &token.DecodedCredential{
				ExpiresAt:   futureExp,
				DecodeError: "Invalid Steam ID format",
			},
			resolvedID: "",
			profile:    client.SentinelProfile(),
			want:       model.StatusInvalidCredential,
		},
		{
			name:       "完全解不出声明且无其他ID来源",
			decoded:    &token.DecodedCredential{DecodeError: "invalid JWT format: wrong number of parts"},
			resolvedID: "",
			profile:    client.SentinelProfile(),
			want:       model.StatusInvalid,
		},
		{
			name:       "无凭证但原始行解出ID",
			decoded:    nil,
			resolvedID: testSteamID,
			profile:    realProfile("cookieuser"),
			want:       model.StatusValid,
		},
		{
			name: "有效凭证但查无此人",
			decoded: &token.DecodedCredential{
				IsStructurallyValid: true,
				SteamID:             testSteamID,
				ExpiresAt:           futureExp,
			},
			resolvedID: testSteamID,
			profile:    client.SentinelProfile(),
			want:       model.StatusAccountNotFound,
		},
		{
			name: "有名字但无创建时间仍算真实资料",
			decoded: &token.DecodedCredential{
				IsStructurallyValid: true,
				SteamID:             testSteamID,
			},
			resolvedID: testSteamID,
			profile:    &client.PlayerProfile{DisplayName: "someone", RealName: model.SentinelNotSpecified},
			want:       model.StatusValid,
		},
		{
			name: "资料缺席降级为受限",
			decoded: &token.DecodedCredential{
				IsStructurallyValid: true,
				SteamID:             testSteamID,
			},
			resolvedID: testSteamID,
			profile:    nil,
			want:       model.StatusLimitedProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.decoded, tt.resolvedID, tt.profile); got != tt.want {
				t.Errorf("Classify = %q，期望 %q", got, tt.want)
			}
		})
	}
}

func TestFoldStatistics(t *testing.T) {
	records := []model.AccountRecord{
		{Status: model.StatusValid, Bans: model.BanFlags{VACBanned: true}},
		{Status: model.StatusValid, Bans: model.BanFlags{CommunityBanned: true, EconomyStatus: model.EconomyBanned}},
		{Status: model.StatusExpired},
		{Status: model.StatusInvalid},
		{Status: model.StatusInvalidCredential},
		{Status: model.StatusError},
		{Status: model.StatusAccountNotFound},
		{Status: model.StatusLimitedProfile},
	}

	stats := FoldStatistics(records)

	if stats.Total != 8 {
		t.Errorf("total应为8，实际 %d", stats.Total)
	}
	// Invalid + InvalidCredential + Error 都计入invalid
	if stats.Invalid != 3 {
		t.Errorf("invalid应为3，实际 %d", stats.Invalid)
	}
	if stats.Valid != 2 || stats.Expired != 1 || stats.AccountNotFound != 1 || stats.LimitedProfile != 1 {
		t.Errorf("状态计数错误: %+v", stats)
	}
	if stats.VACBanned != 1 || stats.CommunityBanned != 1 || stats.EconomyBanned != 1 {
		t.Errorf("封禁计数错误: %+v", stats)
	}

	sum := stats.Valid + stats.Invalid + stats.Expired + stats.AccountNotFound + stats.LimitedProfile
	if sum != stats.Total {
		t.Errorf("各状态计数之和 %d 应等于 total %d", sum, stats.Total)
	}
}

func TestFoldStatistics_Empty(t *testing.T) {
	if stats := FoldStatistics(nil); stats != (model.BatchStatistics{}) {
		t.Errorf("空记录列表应得到零值统计: %+v", stats)
	}
}
