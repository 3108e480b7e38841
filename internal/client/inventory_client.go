package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
)

// 社区库存公开端点（无需API key），默认查CS2库存
const (
	defaultCommunityBaseURL = "https://steamcommunity.com"

	inventoryAppID     = 730
	inventoryContextID = 2
	inventoryPageSize  = 5000
)

// inventoryResponse 社区库存响应，只取摘要需要的字段
type inventoryResponse struct {
	Assets []struct {
		AssetID string `json:"assetid"`
	} `json:"assets"`
	Descriptions []struct {
		Marketable int `json:"marketable"`
	} `json:"descriptions"`
	TotalInventoryCount int `json:"total_inventory_count"`
}

// InventoryClient 社区库存客户端，走无鉴权的公开端点
type InventoryClient struct {
	baseURL    string
	client     *http.Client
	logger     *zap.Logger
	maxRetries int
	retryStep  time.Duration
	limiter    *rate.Limiter
}

func NewInventoryClient(logger *zap.Logger, timeout time.Duration, maxRetries int, limiter *rate.Limiter) *InventoryClient {
	return &InventoryClient{
		baseURL: defaultCommunityBaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger:     logger,
		maxRetries: maxRetries,
		retryStep:  time.Second,
		limiter:    limiter,
	}
}

// GetInventorySummary 查询库存摘要。私密库存（403）是终态直接返回；
// 瞬时故障重试耗尽后摘要带上lookupError降级返回，绝不中断批次。
func (c *InventoryClient) GetInventorySummary(ctx context.Context, steamID string) *model.InventorySummary {
	if !isCanonicalID(steamID) {
		return &model.InventorySummary{LookupError: "invalid steam id"}
	}

	var summary *model.InventorySummary
	op := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		url := fmt.Sprintf("%s/inventory/%s/%d/%d?l=english&count=%d",
			c.baseURL, steamID, inventoryAppID, inventoryContextID, inventoryPageSize)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusForbidden {
			summary = &model.InventorySummary{IsPrivate: true}
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return &statusError{code: resp.StatusCode}
			}
			return backoff.Permanent(&statusError{code: resp.StatusCode})
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		var inv inventoryResponse
		if err := json.Unmarshal(body, &inv); err != nil {
			return err
		}

		itemCount := inv.TotalInventoryCount
		if itemCount == 0 {
			itemCount = len(inv.Assets)
		}
		summary = &model.InventorySummary{
			EstimatedValue: estimateValue(inv),
			ItemCount:      itemCount,
		}
		return nil
	}

	b := backoff.WithContext(newLinearBackOff(c.retryStep), ctx)
	if err := backoff.Retry(op, backoff.WithMaxRetries(b, uint64(c.maxRetries-1))); err != nil {
		c.logger.Warn("⚠️ 库存查询重试耗尽，降级为错误摘要",
			zap.String("steam_id", steamID),
			zap.Error(err))
		return &model.InventorySummary{LookupError: err.Error()}
	}
	return summary
}

// estimateValue 库存估值。公开端点不带价格数据，
// 用可交易物品数乘以名义单价给出粗略量级。
// TODO: 接入市场价格接口后按真实行情估值
func estimateValue(inv inventoryResponse) float64 {
	const nominalItemValue = 0.03

	marketable := 0
	for _, d := range inv.Descriptions {
		if d.Marketable == 1 {
			marketable++
		}
	}
	return float64(marketable) * nominalItemValue
}
