package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZoniBoy00/steam-account-checker-e2/internal/checker"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/model"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/service"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/utils"
	"github.com/ZoniBoy00/steam-account-checker-e2/internal/worker"
)

// CheckHandler 批量检测HTTP入口
type CheckHandler struct {
	checkService *service.CheckService
	signSalt     string
	logger       *zap.Logger
}

func NewCheckHandler(checkService *service.CheckService, signSalt string, logger *zap.Logger) *CheckHandler {
	return &CheckHandler{
		checkService: checkService,
		signSalt:     signSalt,
		logger:       logger,
	}
}

// SubmitCheck 提交批量检测 POST /api/checks
func (h *CheckHandler) SubmitCheck(c *gin.Context) {
	var req model.CheckSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("检测提交：请求格式错误", zap.Error(err))
		ErrorResponse(c, http.StatusBadRequest, "请求格式错误，缺少必要参数")
		return
	}

	// 签名覆盖行数和时间戳，防止接口被脚本滥用
	if !utils.VerifySubmitSign(len(req.Lines), req.Timestamp, req.Sign, h.signSalt) {
		h.logger.Warn("检测提交：签名验证失败",
			zap.Int("lines", len(req.Lines)),
			zap.String("timestamp", req.Timestamp))
		ErrorResponse(c, http.StatusUnauthorized, "签名验证失败")
		return
	}

	runID, err := h.checkService.SubmitCheck(req.Lines, req.CheckInventory)
	if err != nil {
		switch err {
		case checker.ErrMissingAPIKey:
			ErrorResponse(c, http.StatusServiceUnavailable, "服务端未配置Steam API key")
		case service.ErrNoValidLines:
			ErrorResponse(c, http.StatusBadRequest, "没有可检测的Token行")
		case worker.ErrQueueFull:
			ErrorResponse(c, http.StatusTooManyRequests, "检测队列已满，请稍后再试")
		default:
			h.logger.Error("检测提交失败", zap.Error(err))
			ErrorResponse(c, http.StatusInternalServerError, "检测提交失败")
		}
		return
	}

	SuccessResponseWithMessage(c, "检测任务已受理", gin.H{
		"run_id": runID,
	})
}

// ListRuns 批次列表 GET /api/checks
func (h *CheckHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.checkService.ListRuns(limit)
	if err != nil {
		h.logger.Error("查询任务列表失败", zap.Error(err))
		ErrorResponse(c, http.StatusInternalServerError, "查询任务列表失败")
		return
	}

	SuccessResponse(c, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun 批次详情 GET /api/checks/:id
func (h *CheckHandler) GetRun(c *gin.Context) {
	runID := c.Param("id")

	run, records, err := h.checkService.GetRun(runID)
	if err != nil {
		if err == service.ErrRunNotFound {
			ErrorResponse(c, http.StatusNotFound, "检测任务不存在")
			return
		}
		h.logger.Error("查询任务详情失败", zap.Error(err), zap.String("run_id", runID))
		ErrorResponse(c, http.StatusInternalServerError, "查询任务详情失败")
		return
	}

	SuccessResponse(c, gin.H{
		"run":        run,
		"records":    records,
		"statistics": run.Stats,
	})
}

// GetProgress 批次进度 GET /api/checks/:id/progress
func (h *CheckHandler) GetProgress(c *gin.Context) {
	runID := c.Param("id")

	progress, err := h.checkService.GetProgress(runID)
	if err != nil {
		if err == service.ErrRunNotFound {
			ErrorResponse(c, http.StatusNotFound, "检测任务不存在")
			return
		}
		h.logger.Error("查询任务进度失败", zap.Error(err), zap.String("run_id", runID))
		ErrorResponse(c, http.StatusInternalServerError, "查询任务进度失败")
		return
	}

	SuccessResponse(c, progress)
}

// ValidateLines 提交前的格式预检 POST /api/checks/validate
func (h *CheckHandler) ValidateLines(c *gin.Context) {
	var req struct {
		Lines []string `json:"lines" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求格式错误")
		return
	}

	results, validCount := h.checkService.ValidateLines(req.Lines)

	SuccessResponse(c, gin.H{
		"results":     results,
		"total":       len(req.Lines),
		"valid_count": validCount,
	})
}

// DeleteRun 删除批次（管理端） DELETE /api/checks/:id
func (h *CheckHandler) DeleteRun(c *gin.Context) {
	runID := c.Param("id")

	if err := h.checkService.DeleteRun(runID); err != nil {
		if err == service.ErrRunNotFound {
			ErrorResponse(c, http.StatusNotFound, "检测任务不存在")
			return
		}
		h.logger.Error("删除任务失败", zap.Error(err), zap.String("run_id", runID))
		ErrorResponse(c, http.StatusInternalServerError, "删除任务失败")
		return
	}

	SuccessResponseWithMessage(c, "检测任务已删除", nil)
}
