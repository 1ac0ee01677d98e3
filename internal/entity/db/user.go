package db

import "time"

const (
	UserRoleAdmin = "admin"
	UserRoleUser  = "user"
)

// API 密钥模式：global 使用系统级默认密钥，user_specific 使用用户自己配置的密钥。
const (
	KeyModeGlobal       = "global"
	KeyModeUserSpecific = "user_specific"
)

// User 表示持久化的用户账户及其各服务商密钥槽位。
// 密钥列存储的是加密后的密文，调用方负责解密且不得外泄。
type User struct {
	Username     string    `gorm:"column:username;type:varchar(255);primaryKey" json:"username"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"column:role;type:varchar(50);index;not null" json:"role"`

	GeminiKey1     string `gorm:"column:gemini_key_1;type:text" json:"-"`
	GeminiKey1Mode string `gorm:"column:gemini_key_1_mode;type:varchar(32)" json:"gemini_key_1_mode"`
	GeminiKey2     string `gorm:"column:gemini_key_2;type:text" json:"-"`
	GeminiKey2Mode string `gorm:"column:gemini_key_2_mode;type:varchar(32)" json:"gemini_key_2_mode"`
	GeminiKey3     string `gorm:"column:gemini_key_3;type:text" json:"-"`
	GeminiKey3Mode string `gorm:"column:gemini_key_3_mode;type:varchar(32)" json:"gemini_key_3_mode"`
	FalKey         string `gorm:"column:fal_key;type:text" json:"-"`
	FalKeyMode     string `gorm:"column:fal_key_mode;type:varchar(32)" json:"fal_key_mode"`

	// AppAPIKey 由管理员为外部集成（如 CMS 插件）签发的长期令牌。
	AppAPIKey string `gorm:"column:app_api_key;type:varchar(255)" json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 判断用户是否具有管理员权限。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
