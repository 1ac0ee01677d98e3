package db

import (
	"modelstudio/internal/entity/common"
	"time"
)

const (
	HistoryStatusProcessing = "processing"
	HistoryStatusCompleted  = "completed"
	HistoryStatusFailed     = "failed"

	SettingsModeBasic    = "basic"
	SettingsModeAdvanced = "advanced"
)

// VideoParams 文档内由运行期回写的键。
const (
	VideoParamStatus        = "status"
	VideoParamError         = "error"
	VideoParamSeed          = "seed"
	VideoParamLocalVideoURL = "localVideoUrl"
)

// 子表 kind 取值，对应三个槽位数组。
const (
	AssetKindEditedImage    = "edited_image"
	AssetKindOriginalImage  = "original_image"
	AssetKindGeneratedVideo = "generated_video"
)

// HistoryRecord 存储一次用户发起的生成任务。
// CreatedAt 为毫秒时间戳，创建后不再变更。
type HistoryRecord struct {
	ID        string    `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Username  string    `gorm:"column:username;type:varchar(255);index;not null" json:"username"`
	CreatedAt int64     `gorm:"column:created_at;autoCreateTime:milli;index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Prompt       string `gorm:"column:prompt;type:text" json:"prompt"`
	SourceImage  string `gorm:"column:source_image;type:text" json:"source_image"`
	SettingsMode string `gorm:"column:settings_mode;type:varchar(32)" json:"settings_mode"`

	// Attributes 是开放的属性包（服装/模特/场景参数），仅通过 merge-patch 更新。
	Attributes common.JSONMap `gorm:"column:attributes;type:text" json:"attributes"`
	// VideoParams 仅视频任务存在；列为 NULL 即图片任务，这是两类任务唯一的判别依据。
	VideoParams common.JSONMap `gorm:"column:video_params;type:text" json:"video_params,omitempty"`

	Status       string `gorm:"column:status;type:varchar(32);index" json:"status"`
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message"`

	Assets []HistoryAsset `gorm:"foreignKey:RecordID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (HistoryRecord) TableName() string {
	return "history_records"
}

// IsVideoJob 判断记录是否为视频任务。
func (r *HistoryRecord) IsVideoJob() bool {
	return r != nil && r.VideoParams != nil
}

// HistoryAsset 是归一化的产物子行：每个非空槽位一行，按 (record_id, kind, slot_index) 定位。
type HistoryAsset struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RecordID  string `gorm:"column:record_id;type:varchar(64);uniqueIndex:idx_record_kind_slot;not null" json:"record_id"`
	Kind      string `gorm:"column:kind;type:varchar(32);uniqueIndex:idx_record_kind_slot;not null" json:"kind"`
	SlotIndex int    `gorm:"column:slot_index;uniqueIndex:idx_record_kind_slot;not null" json:"slot_index"`
	URL       string `gorm:"column:url;type:text;not null" json:"url"`
}

// TableName 指定表名
func (HistoryAsset) TableName() string {
	return "history_assets"
}

// AssetKinds 列出全部槽位数组种类，顺序固定。
func AssetKinds() []string {
	return []string{AssetKindEditedImage, AssetKindOriginalImage, AssetKindGeneratedVideo}
}
