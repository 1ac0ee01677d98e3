package db

import "time"

// Setting 是全局键值配置行（功能开关、全局加密密钥等），后写覆盖先写。
type Setting struct {
	Key       string    `gorm:"column:key;type:varchar(255);primaryKey" json:"key"`
	Value     string    `gorm:"column:value;type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Setting) TableName() string {
	return "settings"
}

// 全局配置键。缺失的键读取时回退到编译期默认值。
const (
	SettingRegistrationOpen = "registration_open"
	SettingGlobalGeminiKey  = "global_gemini_api_key"
	SettingGlobalFalKey     = "global_fal_api_key"
	SettingImageSlotCount   = "image_slot_count"
	SettingVideoSlotCount   = "video_slot_count"
)

var settingDefaults = map[string]string{
	SettingRegistrationOpen: "true",
	SettingGlobalGeminiKey:  "",
	SettingGlobalFalKey:     "",
	SettingImageSlotCount:   "3",
	SettingVideoSlotCount:   "1",
}

// SettingDefault 返回某个键的默认值。
func SettingDefault(key string) (string, bool) {
	v, ok := settingDefaults[key]
	return v, ok
}

// DefaultSettingKeys 返回全部已知配置键（顺序固定）。
func DefaultSettingKeys() []string {
	return []string{
		SettingRegistrationOpen,
		SettingGlobalGeminiKey,
		SettingGlobalFalKey,
		SettingImageSlotCount,
		SettingVideoSlotCount,
	}
}
