package sql

import (
	"context"
	"fmt"
	"modelstudio/internal/entity"
	"modelstudio/internal/entity/common"
	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"
	"strings"

	"gorm.io/gorm"
)

// CreateUser persists a new user record.
func (r *GormRepository) CreateUser(ctx context.Context, user *db.User) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("username is empty")
	}
	switch user.Role {
	case db.UserRoleAdmin, db.UserRoleUser:
	default:
		return fmt.Errorf("invalid role: %s", user.Role)
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateUser applies the provided field set to an existing user entry.
func (r *GormRepository) UpdateUser(ctx context.Context, username string, updates entity.UserUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return fmt.Errorf("invalid username")
	}
	if updates.Role != nil {
		switch *updates.Role {
		case db.UserRoleAdmin, db.UserRoleUser:
		default:
			return fmt.Errorf("invalid role: %s", *updates.Role)
		}
	}
	fields := updates.ToMap()
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&db.User{}).Where("username = ?", trimmed).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetUserByUsername loads the full stored row, including per-slot key
// material and modes. Callers are responsible for decrypting and for not
// leaking those values.
func (r *GormRepository) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return nil, fmt.Errorf("username is empty")
	}

	var user db.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", trimmed).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByAPIKey resolves an integration token to its user.
func (r *GormRepository) GetUserByAPIKey(ctx context.Context, key string) (*db.User, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var user db.User
	if err := r.db.WithContext(ctx).First(&user, "app_api_key = ?", trimmed).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns paginated users.
func (r *GormRepository) ListUsers(ctx context.Context, params *dto.UserQuery) ([]db.User, *common.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&db.User{})
	if params != nil {
		if trimmed := strings.TrimSpace(params.Role); trimmed != "" {
			query = query.Where("role = ?", trimmed)
		}
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			query = query.Where("LOWER(username) LIKE ?", kw)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page := 1
	pageSize := 20
	if params != nil {
		if params.Page > 0 {
			page = int(params.Page)
		}
		if params.PageSize > 0 {
			pageSize = int(params.PageSize)
		}
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var users []db.User
	if err := query.Order("created_at DESC, username ASC").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return users, meta, nil
}

// DeleteUser removes a user by username.
func (r *GormRepository) DeleteUser(ctx context.Context, username string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return fmt.Errorf("invalid username")
	}
	result := r.db.WithContext(ctx).Delete(&db.User{}, "username = ?", trimmed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUsers returns total user count.
func (r *GormRepository) CountUsers(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&db.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
