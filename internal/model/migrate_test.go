package model

import (
	"context"
	"path/filepath"
	"testing"

	"modelstudio/internal/config"
	"modelstudio/internal/entity/db"
	"modelstudio/internal/model/sql"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return gdb
}

func TestRunMigrationsIdempotent(t *testing.T) {
	gdb := newTestDB(t)

	if err := RunMigrations(gdb); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	// 再次执行必须无害
	if err := RunMigrations(gdb); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	for _, table := range []string{"users", "history_records", "history_assets", "settings", "schema_migrations"} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("expected table %q to exist", table)
		}
	}
	for _, column := range []string{"app_api_key", "fal_key", "fal_key_mode"} {
		if !gdb.Migrator().HasColumn(&db.User{}, column) {
			t.Errorf("expected users column %q to exist", column)
		}
	}

	var applied []SchemaMigration
	if err := gdb.Find(&applied).Error; err != nil {
		t.Fatalf("load applied migrations: %v", err)
	}
	if len(applied) != len(migrations) {
		t.Errorf("expected %d applied steps, got %d", len(migrations), len(applied))
	}
}

func TestMigrationBackfillsKeyModes(t *testing.T) {
	gdb := newTestDB(t)

	if err := RunMigrations(gdb); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	user := db.User{Username: "legacy", PasswordHash: "h", Role: db.UserRoleUser}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}

	// 清掉已执行记录后重跑，回填步骤要把空模式写成 global
	if err := gdb.Where("id = ?", "004_users_backfill_key_modes").Delete(&SchemaMigration{}).Error; err != nil {
		t.Fatalf("reset migration record failed: %v", err)
	}
	if err := RunMigrations(gdb); err != nil {
		t.Fatalf("re-run failed: %v", err)
	}

	var got db.User
	if err := gdb.First(&got, "username = ?", "legacy").Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if got.GeminiKey1Mode != db.KeyModeGlobal || got.FalKeyMode != db.KeyModeGlobal {
		t.Errorf("key modes not backfilled: %+v", got)
	}
}

func TestBootstrapDefaults(t *testing.T) {
	gdb := newTestDB(t)
	if err := RunMigrations(gdb); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	repo := sql.NewGormRepository(gdb)
	ctx := context.Background()

	cfg := config.Config{AdminUsername: "admin", AdminPassword: "bootstrap-pass"}
	if err := Bootstrap(ctx, repo, cfg); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	settings, err := repo.ListSettings(ctx)
	if err != nil {
		t.Fatalf("list settings failed: %v", err)
	}
	if len(settings) != len(db.DefaultSettingKeys()) {
		t.Errorf("expected %d default settings, got %d", len(db.DefaultSettingKeys()), len(settings))
	}

	admin, err := repo.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("load admin failed: %v", err)
	}
	if !admin.IsAdmin() {
		t.Errorf("bootstrap user should be admin: %+v", admin)
	}

	// 重复启动不得覆盖已有数据
	if err := repo.SetSetting(ctx, db.SettingRegistrationOpen, "false"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := Bootstrap(ctx, repo, cfg); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	value, err := repo.GetSettingValue(ctx, db.SettingRegistrationOpen)
	if err != nil || value != "false" {
		t.Errorf("bootstrap overwrote operator change: %q (err %v)", value, err)
	}
}
