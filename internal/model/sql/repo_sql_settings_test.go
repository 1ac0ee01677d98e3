package sql

import (
	"context"
	"testing"

	"modelstudio/internal/entity/db"
)

func TestGetSettingValueFallsBackToDefault(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	value, err := repo.GetSettingValue(ctx, db.SettingRegistrationOpen)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "true" {
		t.Errorf("expected default true, got %q", value)
	}

	value, err = repo.GetSettingValue(ctx, db.SettingImageSlotCount)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "3" {
		t.Errorf("expected default 3, got %q", value)
	}

	// 未知键无默认值，读取为空串
	value, err = repo.GetSettingValue(ctx, "no_such_key")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value for unknown key, got %q", value)
	}
}

func TestSetSettingUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetSetting(ctx, db.SettingRegistrationOpen, "false"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, err := repo.GetSettingValue(ctx, db.SettingRegistrationOpen)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "false" {
		t.Errorf("expected false, got %q", value)
	}

	// 后写覆盖先写
	if err := repo.SetSetting(ctx, db.SettingRegistrationOpen, "true"); err != nil {
		t.Fatalf("second set failed: %v", err)
	}
	value, err = repo.GetSettingValue(ctx, db.SettingRegistrationOpen)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "true" {
		t.Errorf("expected true after overwrite, got %q", value)
	}
}

func TestListSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetSetting(ctx, db.SettingImageSlotCount, "4"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := repo.SetSetting(ctx, db.SettingRegistrationOpen, "false"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	settings, err := repo.ListSettings(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(settings) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(settings))
	}
	// 按键排序返回
	if settings[0].Key != db.SettingImageSlotCount || settings[1].Key != db.SettingRegistrationOpen {
		t.Errorf("unexpected order: %s, %s", settings[0].Key, settings[1].Key)
	}
}
