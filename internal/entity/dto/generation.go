package dto

import "modelstudio/internal/entity/common"

// GenerateImageRequest 图片生成请求：上传的服装图加基础/高级两套参数之一。
type GenerateImageRequest struct {
	SourceImage  string         `json:"source_image" binding:"required"`
	SettingsMode string         `json:"settings_mode"`
	Attributes   common.JSONMap `json:"attributes"`
	// Prompt 可选；为空时由属性集推导。
	Prompt string `json:"prompt"`
}

// GenerateImageResponse 同步图片生成的结果。
type GenerateImageResponse struct {
	Record HistoryItem `json:"record"`
}

// GenerateVideoRequest 视频生成请求（异步）。
type GenerateVideoRequest struct {
	SourceImage string         `json:"source_image" binding:"required"`
	Attributes  common.JSONMap `json:"attributes"`
	VideoParams common.JSONMap `json:"video_params"`
	Prompt      string         `json:"prompt"`
}

// GenerateVideoResponse 返回已创建的 processing 记录，客户端据此轮询状态。
type GenerateVideoResponse struct {
	RecordID string `json:"record_id"`
	Status   string `json:"status"`
}

// FalWebhookPayload 是 fal.ai 完成回调的载荷子集。
type FalWebhookPayload struct {
	RequestID string         `json:"request_id"`
	Status    string         `json:"status"`
	Error     string         `json:"error"`
	Payload   common.JSONMap `json:"payload"`
}
