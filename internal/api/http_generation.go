package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"modelstudio/internal/entity/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const imageGenerationTimeout = 5 * time.Minute

// GenerateImage 同步图片生成端点，完成后直接返回新建的历史记录。
func (h *HTTPHandler) GenerateImage(c *gin.Context) {
	user := CurrentUserRecord(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req dto.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	if strings.TrimSpace(req.SourceImage) == "" {
		MissingField(c, "source_image")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), imageGenerationTimeout)
	defer cancel()

	item, err := h.generationService.GenerateImage(ctx, user, req)
	if err != nil {
		logrus.WithError(err).WithField("username", user.Username).Error("image generation failed")
		ErrorResponse(c, http.StatusBadGateway, ErrCodeGenerationFailed, err.Error())
		return
	}

	c.JSON(http.StatusCreated, dto.GenerateImageResponse{Record: h.makeHistoryItem(*item)})
}

// RegenerateSlot 重新生成指定图片槽位。
func (h *HTTPHandler) RegenerateSlot(c *gin.Context) {
	user := CurrentUserRecord(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	recordID := strings.TrimSpace(c.Param("id"))
	if recordID == "" {
		MissingField(c, "id")
		return
	}

	var req struct {
		SlotIndex int `json:"slot_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), imageGenerationTimeout)
	defer cancel()

	item, err := h.generationService.RegenerateSlot(ctx, user, recordID, req.SlotIndex)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecordNotFound, "record not found")
			return
		}
		logrus.WithError(err).WithField("record_id", recordID).Error("slot regeneration failed")
		ErrorResponse(c, http.StatusBadGateway, ErrCodeGenerationFailed, err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.HistoryDetailResponse{Record: h.makeHistoryItem(*item)})
}

// GenerateVideo 异步视频生成端点：立即返回 processing 记录的 ID。
func (h *HTTPHandler) GenerateVideo(c *gin.Context) {
	user := CurrentUserRecord(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req dto.GenerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	if strings.TrimSpace(req.SourceImage) == "" {
		MissingField(c, "source_image")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	recordID, err := h.generationService.GenerateVideo(ctx, user, req)
	if err != nil {
		logrus.WithError(err).WithField("username", user.Username).Error("video generation submit failed")
		ErrorResponse(c, http.StatusBadGateway, ErrCodeGenerationFailed, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, dto.GenerateVideoResponse{
		RecordID: recordID,
		Status:   "processing",
	})
}

// FalWebhook 接收 fal.ai 的完成回调。记录 ID 编在回调地址里，
// 与轮询路径并发到达时由存储层的局部更新保证收敛。
func (h *HTTPHandler) FalWebhook(c *gin.Context) {
	recordID := strings.TrimSpace(c.Param("record_id"))
	if recordID == "" {
		MissingField(c, "record_id")
		return
	}

	var payload dto.FalWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	if err := h.generationService.CompleteVideoFromWebhook(ctx, recordID, payload); err != nil {
		logrus.WithError(err).WithField("record_id", recordID).Error("failed to process fal webhook")
		InternalError(c, "failed to process webhook")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
