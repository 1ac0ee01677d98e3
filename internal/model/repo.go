package model

import (
	"context"
	"modelstudio/internal/entity"
	"modelstudio/internal/entity/common"
	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 历史记录
	CreateHistoryRecord(ctx context.Context, item *dto.HistoryItem) error
	GetHistoryRecord(ctx context.Context, id string) (*dto.HistoryItem, error)
	ListHistoryByUsername(ctx context.Context, username string) ([]dto.HistoryItem, error)
	UpdateHistoryRecord(ctx context.Context, id string, updates entity.HistoryUpdates) error
	ListHistory(ctx context.Context, params *dto.HistoryQuery) ([]dto.HistoryItem, *common.Meta, error)
	GetHistoryStatus(ctx context.Context, id, username string) (*dto.HistoryStatus, error)
	DeleteHistoryRecord(ctx context.Context, id string) error

	// 用户管理
	CreateUser(ctx context.Context, user *db.User) error
	UpdateUser(ctx context.Context, username string, updates entity.UserUpdates) error
	GetUserByUsername(ctx context.Context, username string) (*db.User, error)
	GetUserByAPIKey(ctx context.Context, key string) (*db.User, error)
	ListUsers(ctx context.Context, params *dto.UserQuery) ([]db.User, *common.Meta, error)
	DeleteUser(ctx context.Context, username string) error
	CountUsers(ctx context.Context) (int64, error)

	// 全局配置
	GetSettingValue(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) ([]db.Setting, error)
}
