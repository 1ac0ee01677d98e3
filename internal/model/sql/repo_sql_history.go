package sql

import (
	"context"
	"errors"
	"fmt"
	"modelstudio/internal/entity"
	"modelstudio/internal/entity/common"
	"modelstudio/internal/entity/converter"
	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"
	"strings"

	"gorm.io/gorm"
)

// CreateHistoryRecord inserts a history record together with one asset row
// per populated slot, all inside a single transaction.
func (r *GormRepository) CreateHistoryRecord(ctx context.Context, item *dto.HistoryItem) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if item == nil {
		return fmt.Errorf("history item is nil")
	}
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("history record id is empty")
	}
	if strings.TrimSpace(item.Username) == "" {
		return fmt.Errorf("history record owner is empty")
	}

	record := converter.HistoryItemToRecord(item)
	assets := converter.HistoryItemAssets(item)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if len(assets) > 0 {
			if err := tx.Create(&assets).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetHistoryRecord loads a single record with its slot arrays rebuilt,
// null holes preserved at their original indices.
func (r *GormRepository) GetHistoryRecord(ctx context.Context, id string) (*dto.HistoryItem, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("invalid history record id")
	}

	var record db.HistoryRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}

	var assets []db.HistoryAsset
	if err := r.db.WithContext(ctx).
		Where("record_id = ?", id).
		Order("kind ASC, slot_index ASC").
		Find(&assets).Error; err != nil {
		return nil, err
	}

	item := converter.RecordToHistoryItem(&record, assets)
	return &item, nil
}

// ListHistoryByUsername returns all of a user's records, newest first.
func (r *GormRepository) ListHistoryByUsername(ctx context.Context, username string) ([]dto.HistoryItem, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return nil, fmt.Errorf("username is empty")
	}

	var records []db.HistoryRecord
	if err := r.db.WithContext(ctx).
		Where("username = ?", trimmed).
		Order("created_at DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	assetsByRecord, err := r.loadAssets(ctx, recordIDs(records))
	if err != nil {
		return nil, err
	}
	return converter.RecordsToHistoryItems(records, assetsByRecord), nil
}

// UpdateHistoryRecord applies a partial update in one transaction:
// scalar columns overwrite, attributes/video_params are merge-patched
// against the stored documents, and each slot array present in the
// update replaces its child rows in full. Fields the caller did not
// mention are never touched. Returns gorm.ErrRecordNotFound when no
// record with the id exists.
func (r *GormRepository) UpdateHistoryRecord(ctx context.Context, id string, updates entity.HistoryUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invalid history record id")
	}
	if updates.IsEmpty() {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record db.HistoryRecord
		if err := tx.First(&record, "id = ?", id).Error; err != nil {
			return err
		}

		columns := updates.ScalarMap()
		if updates.Attributes != nil {
			base := record.Attributes
			if base == nil {
				base = common.JSONMap{}
			}
			columns["attributes"] = base.Merge(updates.Attributes)
		}
		if updates.VideoParams != nil {
			base := record.VideoParams
			if base == nil {
				base = common.JSONMap{}
			}
			columns["video_params"] = base.Merge(updates.VideoParams)
		}
		if len(columns) > 0 {
			if err := tx.Model(&db.HistoryRecord{}).Where("id = ?", id).Updates(columns).Error; err != nil {
				return err
			}
		}

		replacements := []struct {
			kind  string
			slots *common.SlotArray
		}{
			{db.AssetKindEditedImage, updates.EditedImages},
			{db.AssetKindOriginalImage, updates.OriginalImages},
			{db.AssetKindGeneratedVideo, updates.Videos},
		}
		for _, repl := range replacements {
			if repl.slots == nil {
				continue
			}
			if err := tx.Where("record_id = ? AND kind = ?", id, repl.kind).
				Delete(&db.HistoryAsset{}).Error; err != nil {
				return err
			}
			rows := converter.SlotArrayToAssets(id, repl.kind, *repl.slots)
			if len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ListHistory retrieves paginated history records. Non-admin scope filters
// by owner and optionally by media type; the total is computed by an
// independent count query so it stays correct when the page truncates.
func (r *GormRepository) ListHistory(ctx context.Context, params *dto.HistoryQuery) ([]dto.HistoryItem, *common.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&db.HistoryRecord{})
	if params != nil && !params.IncludeAll {
		if trimmed := strings.TrimSpace(params.Username); trimmed != "" {
			query = query.Where("username = ?", trimmed)
		}
		switch params.Media {
		case common.MediaFilterVideo:
			query = query.Where("video_params IS NOT NULL")
		case common.MediaFilterImage:
			query = query.Where("video_params IS NULL")
		}
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
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

	var records []db.HistoryRecord
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, nil, err
	}

	assetsByRecord, err := r.loadAssets(ctx, recordIDs(records))
	if err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(totalCount, page, pageSize)
	return converter.RecordsToHistoryItems(records, assetsByRecord), meta, nil
}

// GetHistoryStatus projects a compact status view for the polling endpoint.
// Ownership is enforced here: a record owned by someone else reports the
// same not-found as a missing record, so existence never leaks. An image
// job yields the "unknown" sentinel instead of an error.
func (r *GormRepository) GetHistoryStatus(ctx context.Context, id, username string) (*dto.HistoryStatus, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" || strings.TrimSpace(username) == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var record db.HistoryRecord
	if err := r.db.WithContext(ctx).
		First(&record, "id = ? AND username = ?", id, username).Error; err != nil {
		return nil, err
	}

	if !record.IsVideoJob() {
		return &dto.HistoryStatus{Status: "unknown"}, nil
	}

	status := record.VideoParams.GetString(db.VideoParamStatus)
	if status == "" {
		status = record.Status
	}

	projection := &dto.HistoryStatus{
		Status: status,
		Error:  record.VideoParams.GetString(db.VideoParamError),
		Seed:   record.VideoParams[db.VideoParamSeed],
	}
	if projection.Error == "" {
		projection.Error = record.ErrorMessage
	}

	// 规范化的子行视频地址优先；回调可能先把地址写进 video_params，
	// 子行尚未落库时回退到 localVideoUrl。
	var asset db.HistoryAsset
	err := r.db.WithContext(ctx).
		Where("record_id = ? AND kind = ?", id, db.AssetKindGeneratedVideo).
		Order("slot_index ASC").
		First(&asset).Error
	switch {
	case err == nil:
		projection.VideoURL = asset.URL
	case errors.Is(err, gorm.ErrRecordNotFound):
		projection.VideoURL = record.VideoParams.GetString(db.VideoParamLocalVideoURL)
	default:
		return nil, err
	}

	return projection, nil
}

// DeleteHistoryRecord removes a record and all of its asset rows in one
// transaction, so no observer ever sees children without a parent.
func (r *GormRepository) DeleteHistoryRecord(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invalid history record id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("record_id = ?", id).Delete(&db.HistoryAsset{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&db.HistoryRecord{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepository) loadAssets(ctx context.Context, ids []string) (map[string][]db.HistoryAsset, error) {
	grouped := make(map[string][]db.HistoryAsset, len(ids))
	if len(ids) == 0 {
		return grouped, nil
	}

	var assets []db.HistoryAsset
	if err := r.db.WithContext(ctx).
		Where("record_id IN ?", ids).
		Order("kind ASC, slot_index ASC").
		Find(&assets).Error; err != nil {
		return nil, err
	}
	for _, a := range assets {
		grouped[a.RecordID] = append(grouped[a.RecordID], a)
	}
	return grouped, nil
}

func recordIDs(records []db.HistoryRecord) []string {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids
}
