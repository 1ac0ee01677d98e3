package service

import (
	"context"
	"errors"
	"fmt"
	"modelstudio/internal/entity/db"
	"strings"
)

// resolveGeminiKey 解析第 slot 路生成流程应使用的 Gemini 密钥（slot 取 1..3）。
// 槽位模式为 user_specific 时用用户自己的密钥，否则回退到全局配置，
// 再回退到进程环境变量。返回的是解密后的明文。
func (s *GenerationService) resolveGeminiKey(ctx context.Context, user *db.User, slot int) (string, error) {
	var encrypted, mode string
	switch slot {
	case 1:
		encrypted, mode = user.GeminiKey1, user.GeminiKey1Mode
	case 2:
		encrypted, mode = user.GeminiKey2, user.GeminiKey2Mode
	case 3:
		encrypted, mode = user.GeminiKey3, user.GeminiKey3Mode
	default:
		return "", fmt.Errorf("invalid gemini key slot: %d", slot)
	}

	if mode == db.KeyModeUserSpecific && strings.TrimSpace(encrypted) != "" {
		return s.decryptKey(encrypted)
	}
	return s.globalKey(ctx, db.SettingGlobalGeminiKey, s.cfg.GeminiAPIKey)
}

// resolveFalKey 解析 fal.ai 密钥，规则同上。
func (s *GenerationService) resolveFalKey(ctx context.Context, user *db.User) (string, error) {
	if user.FalKeyMode == db.KeyModeUserSpecific && strings.TrimSpace(user.FalKey) != "" {
		return s.decryptKey(user.FalKey)
	}
	return s.globalKey(ctx, db.SettingGlobalFalKey, s.cfg.FalAPIKey)
}

func (s *GenerationService) globalKey(ctx context.Context, settingKey, envFallback string) (string, error) {
	if s.repo != nil {
		encrypted, err := s.repo.GetSettingValue(ctx, settingKey)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(encrypted) != "" {
			return s.decryptKey(encrypted)
		}
	}
	if strings.TrimSpace(envFallback) != "" {
		return envFallback, nil
	}
	return "", errors.New("no api key configured")
}

func (s *GenerationService) decryptKey(encrypted string) (string, error) {
	if s.cipher == nil {
		return "", errors.New("secret cipher not configured")
	}
	return s.cipher.Decrypt(encrypted)
}
