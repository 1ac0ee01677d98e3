package dto

import "modelstudio/internal/entity/common"

// HistoryItem 是历史记录的领域对象：平铺列加三个允许空洞的槽位数组。
// 槽位下标只承载位置含义（第几路生成结果），与具体服务商无关。
type HistoryItem struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"created_at"`

	Prompt       string `json:"prompt"`
	SourceImage  string `json:"source_image"`
	SettingsMode string `json:"settings_mode"`

	Attributes  common.JSONMap `json:"attributes"`
	VideoParams common.JSONMap `json:"video_params,omitempty"`

	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`

	EditedImages   common.SlotArray `json:"edited_images"`
	OriginalImages common.SlotArray `json:"original_images"`
	Videos         common.SlotArray `json:"generated_videos"`
}

// IsVideoJob 判断是否为视频任务（唯一判据：video_params 是否存在）。
func (i *HistoryItem) IsVideoJob() bool {
	return i != nil && i.VideoParams != nil
}

// HistoryQuery 历史记录分页查询参数。
type HistoryQuery struct {
	common.BaseParams
	Username string             `json:"-"`
	Media    common.MediaFilter `json:"media" form:"media" query:"media"`
	// IncludeAll 为真时跨全部用户列出（管理员视图），不附加用户过滤。
	IncludeAll bool `json:"-"`
}

// HistoryStatus 是轮询端点使用的紧凑状态投影。
type HistoryStatus struct {
	Status   string `json:"status"`
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
	Seed     any    `json:"seed,omitempty"`
}

// HistoryListResponse 历史记录列表响应。
type HistoryListResponse struct {
	Records []HistoryItem `json:"records"`
	Meta    *common.Meta  `json:"meta"`
	HasMore bool          `json:"has_more"`
}

// HistoryDetailResponse 单条历史记录响应。
type HistoryDetailResponse struct {
	Record HistoryItem `json:"record"`
}
