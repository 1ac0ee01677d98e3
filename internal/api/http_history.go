package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"modelstudio/internal/entity/common"
	"modelstudio/internal/entity/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func (h *HTTPHandler) ListHistory(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusOK, dto.HistoryListResponse{Records: []dto.HistoryItem{}, Meta: &common.Meta{Page: 1, PageSize: 0, Total: 0}})
		return
	}

	requestUser := CurrentUser(c)
	if requestUser == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var params dto.HistoryQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	switch params.Media {
	case common.MediaFilterNone, common.MediaFilterImage, common.MediaFilterVideo:
	default:
		BadRequest(c, ErrCodeInvalidRequest, "media must be image or video")
		return
	}

	if requestUser.IsAdmin() && strings.EqualFold(strings.TrimSpace(c.Query("scope")), "all") {
		params.IncludeAll = true
	} else {
		params.Username = requestUser.Username
		params.IncludeAll = false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	records, meta, err := h.repo.ListHistory(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list history records")
		InternalError(c, "failed to load history")
		return
	}

	items := make([]dto.HistoryItem, 0, len(records))
	for i := range records {
		items = append(items, h.makeHistoryItem(records[i]))
	}

	if meta == nil {
		meta = &common.Meta{Page: params.Page, PageSize: params.PageSize, Total: int64(len(items))}
	}

	c.JSON(http.StatusOK, dto.HistoryListResponse{
		Records: items,
		Meta:    meta,
		HasMore: meta.HasMore(),
	})
}

func (h *HTTPHandler) GetHistoryRecord(c *gin.Context) {
	requestUser := CurrentUser(c)
	if requestUser == nil {
		Unauthorized(c, "authentication required")
		return
	}

	recordID := strings.TrimSpace(c.Param("id"))
	if recordID == "" {
		MissingField(c, "id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.repo.GetHistoryRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecordNotFound, "record not found")
			return
		}
		logrus.WithError(err).WithField("record_id", recordID).Error("failed to load history record")
		InternalError(c, "failed to load record")
		return
	}

	// 非管理员只能访问自己的记录，越权一律按不存在处理。
	if item.Username != requestUser.Username && !requestUser.IsAdmin() {
		NotFound(c, ErrCodeRecordNotFound, "record not found")
		return
	}

	c.JSON(http.StatusOK, dto.HistoryDetailResponse{Record: h.makeHistoryItem(*item)})
}

func (h *HTTPHandler) DeleteHistoryRecord(c *gin.Context) {
	requestUser := CurrentUser(c)
	if requestUser == nil {
		Unauthorized(c, "authentication required")
		return
	}

	recordID := strings.TrimSpace(c.Param("id"))
	if recordID == "" {
		MissingField(c, "id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.repo.GetHistoryRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecordNotFound, "record not found")
			return
		}
		logrus.WithError(err).WithField("record_id", recordID).Error("failed to load history record")
		InternalError(c, "failed to delete record")
		return
	}
	if item.Username != requestUser.Username && !requestUser.IsAdmin() {
		NotFound(c, ErrCodeRecordNotFound, "record not found")
		return
	}

	if err := h.repo.DeleteHistoryRecord(ctx, recordID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecordNotFound, "record not found")
			return
		}
		logrus.WithError(err).WithField("record_id", recordID).Error("failed to delete history record")
		InternalError(c, "failed to delete record")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": recordID})
}

// GetHistoryStatus 轮询端点：返回紧凑的状态投影。
func (h *HTTPHandler) GetHistoryStatus(c *gin.Context) {
	requestUser := CurrentUser(c)
	if requestUser == nil {
		Unauthorized(c, "authentication required")
		return
	}

	recordID := strings.TrimSpace(c.Param("id"))
	if recordID == "" {
		MissingField(c, "id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := h.repo.GetHistoryStatus(ctx, recordID, requestUser.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecordNotFound, "record not found")
			return
		}
		logrus.WithError(err).WithField("record_id", recordID).Error("failed to load history status")
		InternalError(c, "failed to load status")
		return
	}

	status.VideoURL = h.publicURL(status.VideoURL)
	c.JSON(http.StatusOK, status)
}

// makeHistoryItem 把存储侧路径替换为客户端可访问的 URL。
func (h *HTTPHandler) makeHistoryItem(item dto.HistoryItem) dto.HistoryItem {
	item.SourceImage = h.publicURL(item.SourceImage)
	item.EditedImages = h.publicSlotURLs(item.EditedImages)
	item.OriginalImages = h.publicSlotURLs(item.OriginalImages)
	item.Videos = h.publicSlotURLs(item.Videos)
	return item
}

func (h *HTTPHandler) publicSlotURLs(slots common.SlotArray) common.SlotArray {
	if len(slots) == 0 {
		return slots
	}
	out := make(common.SlotArray, len(slots))
	for i, slot := range slots {
		if slot == nil {
			continue
		}
		url := h.publicURL(*slot)
		out[i] = &url
	}
	return out
}
