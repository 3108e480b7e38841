package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/service"
)

// AccountHandler 有效账号导出接口
type AccountHandler struct {
	checkService *service.CheckService
	logger       *zap.Logger
}

func NewAccountHandler(checkService *service.CheckService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		checkService: checkService,
		logger:       logger,
	}
}

// ListValidAccounts 有效账号列表 GET /api/accounts/valid
func (h *AccountHandler) ListValidAccounts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	accounts, err := h.checkService.ListValidAccounts(limit)
	if err != nil {
		h.logger.Error("查询有效账号失败", zap.Error(err))
		ErrorResponse(c, http.StatusInternalServerError, "查询有效账号失败")
		return
	}

	SuccessResponse(c, gin.H{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// PurgeValidAccounts 清空导出表（管理端） DELETE /api/accounts/valid
func (h *AccountHandler) PurgeValidAccounts(c *gin.Context) {
	count, err := h.checkService.PurgeValidAccounts()
	if err != nil {
		h.logger.Error("清空有效账号失败", zap.Error(err))
		ErrorResponse(c, http.StatusInternalServerError, "清空有效账号失败")
		return
	}

	SuccessResponseWithMessage(c, "有效账号已清空", gin.H{
		"deleted": count,
	})
}
