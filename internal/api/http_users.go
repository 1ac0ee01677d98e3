package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"modelstudio/internal/auth"
	"modelstudio/internal/entity"
	"modelstudio/internal/entity/common"
	"modelstudio/internal/entity/converter"
	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ListUsers 管理员列出用户（分页，支持角色与关键字过滤）。
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var params dto.UserQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	users, meta, err := h.repo.ListUsers(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list users")
		InternalError(c, "failed to load users")
		return
	}

	if meta == nil {
		meta = &common.Meta{Page: params.Page, PageSize: params.PageSize, Total: int64(len(users))}
	}

	c.JSON(http.StatusOK, dto.UserListResponse{
		Users: converter.UsersToSummaries(users),
		Meta:  meta,
	})
}

// CreateUser 管理员创建用户。
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req dto.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		BadRequest(c, ErrCodeMissingField, "username and password are required")
		return
	}
	if req.Role != db.UserRoleAdmin && req.Role != db.UserRoleUser {
		BadRequest(c, ErrCodeInvalidRequest, "role must be admin or user")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password")
		InternalError(c, "failed to create user")
		return
	}

	user := &db.User{
		Username:     username,
		PasswordHash: hash,
		Role:         req.Role,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			BadRequest(c, ErrCodeUsernameExists, "username already exists")
			return
		}
		logrus.WithError(err).Error("failed to create user")
		InternalError(c, "failed to create user")
		return
	}

	c.JSON(http.StatusCreated, converter.UserToSummary(user))
}

// UpdateUser 管理员编辑用户：密码、角色、各服务商密钥槽位与 API Key 轮换。
// 传入的明文密钥先经对称加密再落库。
func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		MissingField(c, "username")
		return
	}

	var req dto.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	var updates entity.UserUpdates

	if req.Password != nil {
		password := strings.TrimSpace(*req.Password)
		if len(password) < 8 {
			BadRequest(c, ErrCodeInvalidRequest, "password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			logrus.WithError(err).Error("failed to hash password")
			InternalError(c, "failed to update user")
			return
		}
		updates.PasswordHash = &hash
	}

	if req.Role != nil {
		if *req.Role != db.UserRoleAdmin && *req.Role != db.UserRoleUser {
			BadRequest(c, ErrCodeInvalidRequest, "role must be admin or user")
			return
		}
		updates.Role = req.Role
	}

	var encryptErr error
	updates.GeminiKey1 = h.encryptKeyField(req.GeminiKey1, &encryptErr)
	updates.GeminiKey2 = h.encryptKeyField(req.GeminiKey2, &encryptErr)
	updates.GeminiKey3 = h.encryptKeyField(req.GeminiKey3, &encryptErr)
	updates.FalKey = h.encryptKeyField(req.FalKey, &encryptErr)
	if encryptErr != nil {
		logrus.WithError(encryptErr).Error("failed to encrypt user key")
		InternalError(c, "failed to update user")
		return
	}

	updates.GeminiKey1Mode = validKeyMode(c, req.GeminiKey1Mode)
	updates.GeminiKey2Mode = validKeyMode(c, req.GeminiKey2Mode)
	updates.GeminiKey3Mode = validKeyMode(c, req.GeminiKey3Mode)
	updates.FalKeyMode = validKeyMode(c, req.FalKeyMode)
	if c.IsAborted() {
		return
	}

	if req.RotateAPIKey {
		key := uuid.NewString()
		updates.AppAPIKey = &key
	}

	if updates.IsEmpty() {
		BadRequest(c, ErrCodeInvalidRequest, "no fields to update")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateUser(ctx, username, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		logrus.WithError(err).WithField("username", username).Error("failed to update user")
		InternalError(c, "failed to update user")
		return
	}

	user, err := h.repo.GetUserByUsername(ctx, username)
	if err != nil {
		logrus.WithError(err).WithField("username", username).Error("failed to reload user")
		InternalError(c, "failed to load user")
		return
	}

	resp := gin.H{"user": converter.UserToSummary(user)}
	if req.RotateAPIKey {
		// 新签发的 API Key 仅在本次响应中返回一次。
		resp["api_key"] = user.AppAPIKey
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteUser 管理员删除用户（不能删除自己）。
func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	requestUser := CurrentUser(c)
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		MissingField(c, "username")
		return
	}
	if requestUser != nil && strings.EqualFold(requestUser.Username, username) {
		BadRequest(c, ErrCodeCannotDeleteSelf, "cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteUser(ctx, username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		logrus.WithError(err).WithField("username", username).Error("failed to delete user")
		InternalError(c, "failed to delete user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": username})
}

// encryptKeyField 加密单个密钥字段；空串表示清除该密钥。
func (h *HTTPHandler) encryptKeyField(value *string, errOut *error) *string {
	if value == nil || *errOut != nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		empty := ""
		return &empty
	}
	encrypted, err := h.cipher.Encrypt(trimmed)
	if err != nil {
		*errOut = err
		return nil
	}
	return &encrypted
}

// validKeyMode 校验密钥模式取值，非法值直接中断请求。
func validKeyMode(c *gin.Context, mode *string) *string {
	if mode == nil || c.IsAborted() {
		return nil
	}
	switch *mode {
	case db.KeyModeGlobal, db.KeyModeUserSpecific:
		return mode
	default:
		c.Abort()
		BadRequest(c, ErrCodeInvalidRequest, "key mode must be global or user_specific")
		return nil
	}
}
