package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
)

// Steam Web API端点
const (
	defaultAPIBaseURL = "https://api.steampowered.com"

	playerSummariesPath = "/ISteamUser/GetPlayerSummaries/v2/"
	playerBansPath      = "/ISteamUser/GetPlayerBans/v1/"
)

// PlayerProfile 账号公开资料。查询失败时各字段回落到哨兵值
type PlayerProfile struct {
	DisplayName       string `json:"display_name"`
	RealName          string `json:"real_name"`
	AvatarURL         string `json:"avatar_url"`
	ProfileURL        string `json:"profile_url"`
	CreationTimestamp int64  `json:"creation_timestamp"`
	LastLogoffAt      int64  `json:"last_logoff_at"`
	PersonaState      int    `json:"persona_state"`
}

// summariesResponse GetPlayerSummaries响应结构
type summariesResponse struct {
	Response struct {
		Players []struct {
			PersonaName  string `json:"personaname"`
			RealName     string `json:"realname"`
			Avatar       string `json:"avatar"`
			ProfileURL   string `json:"profileurl"`
			TimeCreated  int64  `json:"timecreated"`
			LastLogoff   int64  `json:"lastlogoff"`
			PersonaState int    `json:"personastate"`
		} `json:"players"`
	} `json:"response"`
}

// bansResponse GetPlayerBans响应结构
type bansResponse struct {
	Players []struct {
		SteamID          string `json:"SteamId"`
		CommunityBanned  bool   `json:"CommunityBanned"`
		VACBanned        bool   `json:"VACBanned"`
		NumberOfVACBans  int    `json:"NumberOfVACBans"`
		DaysSinceLastBan int    `json:"DaysSinceLastBan"`
		NumberOfGameBans int    `json:"NumberOfGameBans"`
		EconomyBan       string `json:"EconomyBan"`
	} `json:"players"`
}

// SteamClient Steam Web API客户端。
// 外部查询失败一律降级为哨兵结果而不是返回error，
// 批次的错误边界只留给真正的未预期异常。
type SteamClient struct {
	baseURL    string
	client     *http.Client
	logger     *zap.Logger
	maxRetries int
	retryStep  time.Duration
	limiter    *rate.Limiter
}

// NewSteamClient limiter为nil时不做QPS限制（测试用）
func NewSteamClient(logger *zap.Logger, timeout time.Duration, maxRetries int, limiter *rate.Limiter) *SteamClient {
	return &SteamClient{
		baseURL: defaultAPIBaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger:     logger,
		maxRetries: maxRetries,
		retryStep:  time.Second,
		limiter:    limiter,
	}
}

// SentinelProfile 空输入或查询失败时的全哨兵资料
func SentinelProfile() *PlayerProfile {
	return &PlayerProfile{
		DisplayName: model.SentinelUnknown,
		RealName:    model.SentinelNotSpecified,
	}
}

// GetPlayerSummary 查询账号公开资料。
// SteamID为空或哨兵值时直接返回全哨兵资料，不发起请求。
func (c *SteamClient) GetPlayerSummary(ctx context.Context, steamID, apiKey string) *PlayerProfile {
	if !isQueryableID(steamID) {
		return SentinelProfile()
	}

	var profile *PlayerProfile
	op := func() error {
		body, err := c.get(ctx, playerSummariesPath, apiKey, steamID)
		if err != nil {
			return err
		}

		var resp summariesResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return err
		}
		if len(resp.Response.Players) == 0 {
			// 查无此人是终态，不值得重试
			profile = SentinelProfile()
			return nil
		}

		p := resp.Response.Players[0]
		profile = &PlayerProfile{
			DisplayName:       stringOr(p.PersonaName, model.SentinelUnknown),
			RealName:          stringOr(p.RealName, model.SentinelNotSpecified),
			AvatarURL:         p.Avatar,
			ProfileURL:        p.ProfileURL,
			CreationTimestamp: p.TimeCreated,
			LastLogoffAt:      p.LastLogoff,
			PersonaState:      p.PersonaState,
		}
		return nil
	}

	if err := c.retry(ctx, op); err != nil {
		c.logger.Warn("⚠️ 资料查询重试耗尽，降级为哨兵结果",
			zap.String("steam_id", steamID),
			zap.Error(err))
		return SentinelProfile()
	}
	return profile
}

// GetPlayerBans 查询账号封禁状态。
// SteamID非规范17位时返回零值封禁信息；重试耗尽时经济状态置为error。
func (c *SteamClient) GetPlayerBans(ctx context.Context, steamID, apiKey string) *model.BanFlags {
	if !isCanonicalID(steamID) {
		return &model.BanFlags{EconomyStatus: model.EconomyNone}
	}

	var bans *model.BanFlags
	op := func() error {
		body, err := c.get(ctx, playerBansPath, apiKey, steamID)
		if err != nil {
			return err
		}

		var resp bansResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return err
		}
		if len(resp.Players) == 0 {
			bans = &model.BanFlags{EconomyStatus: model.EconomyNone}
			return nil
		}

		p := resp.Players[0]
		bans = &model.BanFlags{
			VACBanned:        p.VACBanned,
			CommunityBanned:  p.CommunityBanned,
			EconomyStatus:    economyStatusFromString(p.EconomyBan),
			VACCount:         p.NumberOfVACBans,
			GameBanCount:     p.NumberOfGameBans,
			DaysSinceLastBan: p.DaysSinceLastBan,
		}
		return nil
	}

	if err := c.retry(ctx, op); err != nil {
		c.logger.Warn("⚠️ 封禁查询重试耗尽，降级为error状态",
			zap.String("steam_id", steamID),
			zap.Error(err))
		return &model.BanFlags{EconomyStatus: model.EconomyError}
	}
	return bans
}

// get 发起一次key鉴权的GET查询并读回响应体。
// 限流等待在重试循环内，重试同样受单key的QPS上限约束
func (c *SteamClient) get(ctx context.Context, path, apiKey, steamID string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
	}

	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("steamids", steamID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 429和5xx是瞬时故障可重试；其余状态码重试也没有意义
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, &statusError{code: resp.StatusCode}
		}
		return nil, backoff.Permanent(&statusError{code: resp.StatusCode})
	}

	return io.ReadAll(resp.Body)
}

// retry 以线性递增间隔驱动有界重试
func (c *SteamClient) retry(ctx context.Context, op backoff.Operation) error {
	b := backoff.WithContext(newLinearBackOff(c.retryStep), ctx)
	return backoff.Retry(op, backoff.WithMaxRetries(b, uint64(c.maxRetries-1)))
}

// economyStatusFromString 将上游经济封禁字符串归一到枚举值
func economyStatusFromString(s string) model.EconomyStatus {
	switch s {
	case "", "none":
		return model.EconomyNone
	case "probation":
		return model.EconomyProbation
	case "banned":
		return model.EconomyBanned
	default:
		return model.EconomyError
	}
}

// isQueryableID SteamID非空且不是哨兵值才值得发请求
func isQueryableID(steamID string) bool {
	return steamID != "" && steamID != model.SentinelUnknown && steamID != model.SentinelError
}

// isCanonicalID 规范SteamID64必须是17位纯数字
func isCanonicalID(steamID string) bool {
	if len(steamID) != 17 {
		return false
	}
	for _, r := range steamID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
