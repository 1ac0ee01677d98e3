package dto

import (
	"modelstudio/internal/entity/common"
	"time"
)

// UserSummary is a lightweight user description returned to clients.
// Key material is reduced to "configured or not" plus the slot mode.
type UserSummary struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	KeySlots  []KeySlot `json:"key_slots"`
	HasAPIKey bool      `json:"has_api_key"`
}

// KeySlot 描述一个服务商密钥槽位的配置状态（不含密钥本身）。
type KeySlot struct {
	Slot       string `json:"slot"`
	Mode       string `json:"mode"`
	Configured bool   `json:"configured"`
}

// UserQuery supports listing users with pagination.
type UserQuery struct {
	common.BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

type UserCreateRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

// UserUpdateRequest 管理员编辑用户配置；未出现的字段保持原值。
type UserUpdateRequest struct {
	Password       *string `json:"password,omitempty"`
	Role           *string `json:"role,omitempty"`
	GeminiKey1     *string `json:"gemini_key_1,omitempty"`
	GeminiKey1Mode *string `json:"gemini_key_1_mode,omitempty"`
	GeminiKey2     *string `json:"gemini_key_2,omitempty"`
	GeminiKey2Mode *string `json:"gemini_key_2_mode,omitempty"`
	GeminiKey3     *string `json:"gemini_key_3,omitempty"`
	GeminiKey3Mode *string `json:"gemini_key_3_mode,omitempty"`
	FalKey         *string `json:"fal_key,omitempty"`
	FalKeyMode     *string `json:"fal_key_mode,omitempty"`
	// RotateAPIKey 为真时重新签发 app_api_key。
	RotateAPIKey bool `json:"rotate_api_key,omitempty"`
}

type UserListResponse struct {
	Users []UserSummary `json:"users"`
	Meta  *common.Meta  `json:"meta"`
}
