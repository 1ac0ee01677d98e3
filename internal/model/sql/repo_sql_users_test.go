package sql

import (
	"context"
	"errors"
	"testing"

	"modelstudio/internal/entity"
	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"

	"gorm.io/gorm"
)

func TestCreateAndGetUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := &db.User{
		Username:     "alice",
		PasswordHash: "hashed",
		Role:         db.UserRoleUser,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Role != db.UserRoleUser || got.PasswordHash != "hashed" {
		t.Errorf("unexpected user: %+v", got)
	}
	if got.IsAdmin() {
		t.Error("plain user reported as admin")
	}
}

func TestCreateUserInvalidRole(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.CreateUser(context.Background(), &db.User{
		Username:     "bob",
		PasswordHash: "hashed",
		Role:         "superuser",
	})
	if err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestUpdateUserFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateUser(ctx, &db.User{Username: "alice", PasswordHash: "h", Role: db.UserRoleUser}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	role := db.UserRoleAdmin
	key := "encrypted-key-material"
	mode := db.KeyModeUserSpecific
	err := repo.UpdateUser(ctx, "alice", entity.UserUpdates{
		Role:           &role,
		GeminiKey2:     &key,
		GeminiKey2Mode: &mode,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := repo.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.IsAdmin() {
		t.Error("role update not applied")
	}
	if got.GeminiKey2 != key || got.GeminiKey2Mode != db.KeyModeUserSpecific {
		t.Errorf("key slot update not applied: %+v", got)
	}
	// 未提到的槽位保持原状
	if got.GeminiKey1 != "" || got.FalKey != "" {
		t.Errorf("untouched key slots changed: %+v", got)
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	repo := newTestRepo(t)

	role := db.UserRoleUser
	err := repo.UpdateUser(context.Background(), "missing", entity.UserUpdates{Role: &role})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestGetUserByAPIKey(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateUser(ctx, &db.User{
		Username:     "alice",
		PasswordHash: "h",
		Role:         db.UserRoleUser,
		AppAPIKey:    "token-123",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetUserByAPIKey(ctx, "token-123")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("expected alice, got %q", got.Username)
	}

	// 空 key 绝不能匹配到未签发 token 的用户
	if _, err := repo.GetUserByAPIKey(ctx, ""); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for empty key, got %v", err)
	}
	if _, err := repo.GetUserByAPIKey(ctx, "wrong"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for unknown key, got %v", err)
	}
}

func TestListUsersFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []db.User{
		{Username: "alice", PasswordHash: "h", Role: db.UserRoleAdmin},
		{Username: "bob", PasswordHash: "h", Role: db.UserRoleUser},
		{Username: "carol", PasswordHash: "h", Role: db.UserRoleUser},
	}
	for i := range seed {
		if err := repo.CreateUser(ctx, &seed[i]); err != nil {
			t.Fatalf("create %s failed: %v", seed[i].Username, err)
		}
	}

	params := &dto.UserQuery{Role: db.UserRoleUser}
	params.Page = 1
	params.PageSize = 10
	users, meta, err := repo.ListUsers(ctx, params)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 2 || meta.Total != 2 {
		t.Errorf("role filter mismatch: %d users, total %d", len(users), meta.Total)
	}

	params = &dto.UserQuery{Keyword: "car"}
	params.Page = 1
	params.PageSize = 10
	users, _, err = repo.ListUsers(ctx, params)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 1 || users[0].Username != "carol" {
		t.Errorf("keyword filter mismatch: %v", users)
	}
}

func TestDeleteUserAndCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateUser(ctx, &db.User{Username: "alice", PasswordHash: "h", Role: db.UserRoleUser}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	count, err := repo.CountUsers(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d (err %v)", count, err)
	}

	if err := repo.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := repo.DeleteUser(ctx, "alice"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound on repeated delete, got %v", err)
	}

	count, err = repo.CountUsers(ctx)
	if err != nil || count != 0 {
		t.Errorf("expected count 0, got %d (err %v)", count, err)
	}
}
