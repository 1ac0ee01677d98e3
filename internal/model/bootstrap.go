package model

import (
	"context"
	"errors"
	"modelstudio/internal/auth"
	"modelstudio/internal/config"
	"modelstudio/internal/entity/db"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Bootstrap 在启动时补齐缺省数据：默认配置行与首个管理员账户。
// 所有步骤都是"不存在才创建"，重复启动不会覆盖已有数据。
func Bootstrap(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}
	if err := ensureDefaultSettings(ctx, repo); err != nil {
		return err
	}
	return ensureAdminUser(ctx, repo, cfg)
}

func ensureDefaultSettings(ctx context.Context, repo Repository) error {
	existing, err := repo.ListSettings(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		present[s.Key] = struct{}{}
	}

	for _, key := range db.DefaultSettingKeys() {
		if _, ok := present[key]; ok {
			continue
		}
		value, _ := db.SettingDefault(key)
		if err := repo.SetSetting(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, repo Repository, cfg config.Config) error {
	username := strings.TrimSpace(cfg.AdminUsername)
	password := strings.TrimSpace(cfg.AdminPassword)
	if username == "" || password == "" {
		return nil
	}

	count, err := repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = repo.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := &db.User{
		Username:     username,
		PasswordHash: hash,
		Role:         db.UserRoleAdmin,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return err
	}
	logrus.WithField("username", username).Info("bootstrap admin user created")
	return nil
}
