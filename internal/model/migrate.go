package model

import (
	"fmt"
	"modelstudio/internal/entity/db"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SchemaMigration 记录已执行过的迁移步骤。
type SchemaMigration struct {
	ID        string    `gorm:"column:id;type:varchar(128);primaryKey"`
	AppliedAt time.Time `gorm:"column:applied_at"`
}

// TableName 指定表名
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

type migration struct {
	ID  string
	Run func(tx *gorm.DB) error
}

// migrations 是按序执行的迁移列表。每一步都先检查当前表结构再动手，
// 重复执行是无害的；users 表的历次改造（新增 app_api_key、fal 槽位、
// 回填密钥模式）各占一步。
var migrations = []migration{
	{
		ID: "001_initial_schema",
		Run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&db.User{},
				&db.HistoryRecord{},
				&db.HistoryAsset{},
				&db.Setting{},
			)
		},
	},
	{
		ID: "002_users_add_app_api_key",
		Run: func(tx *gorm.DB) error {
			if tx.Migrator().HasColumn(&db.User{}, "app_api_key") {
				return nil
			}
			return tx.Migrator().AddColumn(&db.User{}, "app_api_key")
		},
	},
	{
		ID: "003_users_add_fal_slot",
		Run: func(tx *gorm.DB) error {
			for _, column := range []string{"fal_key", "fal_key_mode"} {
				if tx.Migrator().HasColumn(&db.User{}, column) {
					continue
				}
				if err := tx.Migrator().AddColumn(&db.User{}, column); err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		ID: "004_users_backfill_key_modes",
		Run: func(tx *gorm.DB) error {
			for _, column := range []string{"gemini_key_1_mode", "gemini_key_2_mode", "gemini_key_3_mode", "fal_key_mode"} {
				if err := tx.Model(&db.User{}).
					Where(fmt.Sprintf("%s IS NULL OR %s = ''", column, column)).
					Update(column, db.KeyModeGlobal).Error; err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// RunMigrations 在启动时按序应用迁移列表，已执行过的步骤跳过。
// 每一步在独立事务中执行，成功后记入 schema_migrations。
func RunMigrations(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("nil database handle")
	}

	if err := gdb.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("prepare schema_migrations: %w", err)
	}

	var applied []SchemaMigration
	if err := gdb.Find(&applied).Error; err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}
	done := make(map[string]struct{}, len(applied))
	for _, m := range applied {
		done[m.ID] = struct{}{}
	}

	for _, m := range migrations {
		if _, ok := done[m.ID]; ok {
			continue
		}
		step := m
		err := gdb.Transaction(func(tx *gorm.DB) error {
			if err := step.Run(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{ID: step.ID, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", step.ID, err)
		}
		logrus.WithField("migration", step.ID).Info("schema migration applied")
	}
	return nil
}
