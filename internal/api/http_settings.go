package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GetSettings 返回全部全局配置，缺失的键以默认值补齐。
// 密钥类配置不回传密文，只标记是否已配置。
func (h *HTTPHandler) GetSettings(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stored, err := h.repo.ListSettings(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list settings")
		InternalError(c, "failed to load settings")
		return
	}

	values := make(map[string]string, len(stored))
	for _, s := range stored {
		values[s.Key] = s.Value
	}
	for _, key := range db.DefaultSettingKeys() {
		if _, ok := values[key]; !ok {
			values[key], _ = db.SettingDefault(key)
		}
	}

	items := make([]dto.SettingItem, 0, len(values))
	for _, key := range db.DefaultSettingKeys() {
		value := values[key]
		if isSecretSetting(key) {
			if strings.TrimSpace(value) != "" {
				value = "configured"
			} else {
				value = ""
			}
		}
		items = append(items, dto.SettingItem{Key: key, Value: value})
	}

	c.JSON(http.StatusOK, dto.SettingsResponse{Settings: items})
}

// UpdateSetting 写入单个全局配置项，密钥类配置先加密再落库。
func (h *HTTPHandler) UpdateSetting(c *gin.Context) {
	var req dto.SettingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	key := strings.TrimSpace(req.Key)
	if !isKnownSetting(key) {
		BadRequest(c, ErrCodeInvalidRequest, "unknown setting key")
		return
	}

	value := strings.TrimSpace(req.Value)
	if isSecretSetting(key) && value != "" {
		encrypted, err := h.cipher.Encrypt(value)
		if err != nil {
			logrus.WithError(err).Error("failed to encrypt setting value")
			InternalError(c, "failed to save setting")
			return
		}
		value = encrypted
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.SetSetting(ctx, key, value); err != nil {
		logrus.WithError(err).WithField("key", key).Error("failed to save setting")
		InternalError(c, "failed to save setting")
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "updated": true})
}

func isKnownSetting(key string) bool {
	for _, known := range db.DefaultSettingKeys() {
		if known == key {
			return true
		}
	}
	return false
}

func isSecretSetting(key string) bool {
	switch key {
	case db.SettingGlobalGeminiKey, db.SettingGlobalFalKey:
		return true
	default:
		return false
	}
}
