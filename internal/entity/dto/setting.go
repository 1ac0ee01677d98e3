package dto

// SettingItem 单个全局配置项。
type SettingItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SettingsResponse 全部配置项（缺失的键以默认值补齐）。
type SettingsResponse struct {
	Settings []SettingItem `json:"settings"`
}

// SettingUpdateRequest 写入单个配置项。
type SettingUpdateRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}
