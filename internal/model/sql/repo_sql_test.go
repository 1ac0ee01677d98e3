package sql

import (
	"path/filepath"
	"testing"

	"modelstudio/internal/entity/common"
	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// newTestRepo 基于临时 SQLite 文件创建仓库，表结构与生产一致。
func newTestRepo(t *testing.T) *GormRepository {
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
	if err := gdb.AutoMigrate(&db.User{}, &db.HistoryRecord{}, &db.HistoryAsset{}, &db.Setting{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return NewGormRepository(gdb)
}

func strPtr(v string) *string {
	return &v
}

func makeImageItem(id, username string, createdAt int64) *dto.HistoryItem {
	return &dto.HistoryItem{
		ID:           id,
		Username:     username,
		CreatedAt:    createdAt,
		Prompt:       "a model wearing a red dress",
		SourceImage:  "images/source.png",
		SettingsMode: db.SettingsModeBasic,
		Attributes:   common.JSONMap{"gender": "female"},
		Status:       db.HistoryStatusCompleted,
		EditedImages: common.SlotArray{strPtr("images/" + id + "-1.png")},
	}
}

func makeVideoItem(id, username string, createdAt int64) *dto.HistoryItem {
	return &dto.HistoryItem{
		ID:           id,
		Username:     username,
		CreatedAt:    createdAt,
		Prompt:       "the model turns around",
		SourceImage:  "images/source.png",
		SettingsMode: db.SettingsModeBasic,
		Attributes:   common.JSONMap{},
		VideoParams:  common.JSONMap{db.VideoParamStatus: db.HistoryStatusProcessing},
		Status:       db.HistoryStatusProcessing,
		Videos:       make(common.SlotArray, 1),
	}
}

func TestCalculatePagination(t *testing.T) {
	repo := &GormRepository{}

	tests := []struct {
		name       string
		total      int64
		page       int
		pageSize   int
		expectPage int64
		expectSize int64
	}{
		{name: "正常分页", total: 50, page: 2, pageSize: 10, expectPage: 2, expectSize: 10},
		{name: "页码为零回退到一", total: 5, page: 0, pageSize: 10, expectPage: 1, expectSize: 10},
		{name: "页大小为零使用默认", total: 5, page: 1, pageSize: 0, expectPage: 1, expectSize: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := repo.calculatePagination(tt.total, tt.page, tt.pageSize)
			if meta.Total != tt.total {
				t.Errorf("expected total %d, got %d", tt.total, meta.Total)
			}
			if meta.Page != tt.expectPage {
				t.Errorf("expected page %d, got %d", tt.expectPage, meta.Page)
			}
			if meta.PageSize != tt.expectSize {
				t.Errorf("expected page size %d, got %d", tt.expectSize, meta.PageSize)
			}
		})
	}
}
