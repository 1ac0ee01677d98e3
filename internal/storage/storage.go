package storage

import (
	"context"
	"fmt"
	"modelstudio/internal/config"
	"strings"
)

const (
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeS3 表示 Amazon S3 或兼容的存储后端（含 Cloudflare R2）。
	TypeS3 = "s3"
)

// SaveOptions 控制存储后端如何持久化文件。
// Category 用于组织目录，Extension 提示文件扩展名（不含前导点），
// BaseName 为空时由实现生成唯一文件名。
type SaveOptions struct {
	Category     string
	Extension    string
	BaseName     string
	SkipIfExists bool
}

// Storage 持久化二进制数据并返回存储侧标识（本地存储为相对路径，
// S3 为对象 key），后续用于拼接公开 URL。
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
}

// LocalBaseDirProvider 由暴露可直接通过 HTTP 提供服务的本地目录的驱动实现。
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage 根据配置实例化存储后端。
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
