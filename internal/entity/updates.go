package entity

import "modelstudio/internal/entity/common"

// HistoryUpdates 描述对历史记录的一次局部更新。
// 指针为 nil 表示"调用方未提及该字段"，已存储的值保持不变：
//   - 标量字段按列覆盖；
//   - Attributes / VideoParams 按 merge-patch 合入已存储的文档；
//   - 槽位数组一旦出现即整组替换（删除该 kind 的全部子行后重插），
//     调用方必须提供期望的完整数组而不是增量。
type HistoryUpdates struct {
	Prompt       *string
	SettingsMode *string
	Status       *string
	ErrorMessage *string

	Attributes  common.JSONMap
	VideoParams common.JSONMap

	EditedImages   *common.SlotArray
	OriginalImages *common.SlotArray
	Videos         *common.SlotArray
}

// ScalarMap 转换标量字段为 GORM 更新 map（内部使用）
func (u HistoryUpdates) ScalarMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Prompt != nil {
		updates["prompt"] = *u.Prompt
	}
	if u.SettingsMode != nil {
		updates["settings_mode"] = *u.SettingsMode
	}
	if u.Status != nil {
		updates["status"] = *u.Status
	}
	if u.ErrorMessage != nil {
		updates["error_message"] = *u.ErrorMessage
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u HistoryUpdates) IsEmpty() bool {
	return len(u.ScalarMap()) == 0 &&
		u.Attributes == nil &&
		u.VideoParams == nil &&
		u.EditedImages == nil &&
		u.OriginalImages == nil &&
		u.Videos == nil
}

// UserUpdates 用户更新字段
type UserUpdates struct {
	PasswordHash   *string
	Role           *string
	GeminiKey1     *string
	GeminiKey1Mode *string
	GeminiKey2     *string
	GeminiKey2Mode *string
	GeminiKey3     *string
	GeminiKey3Mode *string
	FalKey         *string
	FalKeyMode     *string
	AppAPIKey      *string
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.Role != nil {
		updates["role"] = *u.Role
	}
	if u.GeminiKey1 != nil {
		updates["gemini_key_1"] = *u.GeminiKey1
	}
	if u.GeminiKey1Mode != nil {
		updates["gemini_key_1_mode"] = *u.GeminiKey1Mode
	}
	if u.GeminiKey2 != nil {
		updates["gemini_key_2"] = *u.GeminiKey2
	}
	if u.GeminiKey2Mode != nil {
		updates["gemini_key_2_mode"] = *u.GeminiKey2Mode
	}
	if u.GeminiKey3 != nil {
		updates["gemini_key_3"] = *u.GeminiKey3
	}
	if u.GeminiKey3Mode != nil {
		updates["gemini_key_3_mode"] = *u.GeminiKey3Mode
	}
	if u.FalKey != nil {
		updates["fal_key"] = *u.FalKey
	}
	if u.FalKeyMode != nil {
		updates["fal_key_mode"] = *u.FalKeyMode
	}
	if u.AppAPIKey != nil {
		updates["app_api_key"] = *u.AppAPIKey
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
