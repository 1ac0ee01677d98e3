package converter

import (
	"modelstudio/internal/entity/common"
	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"
)

// HistoryItemToRecord 将领域对象编码为平铺行。槽位数组单独经
// SlotArrayToAssets 展开为子行。
func HistoryItemToRecord(item *dto.HistoryItem) db.HistoryRecord {
	if item == nil {
		return db.HistoryRecord{}
	}
	return db.HistoryRecord{
		ID:           item.ID,
		Username:     item.Username,
		CreatedAt:    item.CreatedAt,
		Prompt:       item.Prompt,
		SourceImage:  item.SourceImage,
		SettingsMode: item.SettingsMode,
		Attributes:   item.Attributes,
		VideoParams:  item.VideoParams,
		Status:       item.Status,
		ErrorMessage: item.ErrorMessage,
	}
}

// SlotArrayToAssets 把一个槽位数组展开为子行：每个非空槽位一行，
// 行上记录 (record_id, kind, slot_index)，空洞不产生行。
func SlotArrayToAssets(recordID, kind string, slots common.SlotArray) []db.HistoryAsset {
	assets := make([]db.HistoryAsset, 0, len(slots))
	for idx, slot := range slots {
		if slot == nil || *slot == "" {
			continue
		}
		assets = append(assets, db.HistoryAsset{
			RecordID:  recordID,
			Kind:      kind,
			SlotIndex: idx,
			URL:       *slot,
		})
	}
	return assets
}

// HistoryItemAssets 展开领域对象的全部三个槽位数组。
func HistoryItemAssets(item *dto.HistoryItem) []db.HistoryAsset {
	if item == nil {
		return nil
	}
	assets := SlotArrayToAssets(item.ID, db.AssetKindEditedImage, item.EditedImages)
	assets = append(assets, SlotArrayToAssets(item.ID, db.AssetKindOriginalImage, item.OriginalImages)...)
	assets = append(assets, SlotArrayToAssets(item.ID, db.AssetKindGeneratedVideo, item.Videos)...)
	return assets
}

// AssetsToSlotArray 从子行重建槽位数组，空洞保留在原下标上，
// 数组长度取该 kind 出现过的最大下标加一。
func AssetsToSlotArray(assets []db.HistoryAsset, kind string) common.SlotArray {
	maxIdx := -1
	for _, a := range assets {
		if a.Kind == kind && a.SlotIndex > maxIdx {
			maxIdx = a.SlotIndex
		}
	}
	if maxIdx < 0 {
		return common.SlotArray{}
	}

	slots := make(common.SlotArray, maxIdx+1)
	for _, a := range assets {
		if a.Kind != kind || a.SlotIndex < 0 || a.SlotIndex > maxIdx {
			continue
		}
		url := a.URL
		slots[a.SlotIndex] = &url
	}
	return slots
}

// RecordToHistoryItem 将平铺行加子行解码为领域对象。
// JSON 列的解析失败已在扫描阶段降级为空文档，这里不会失败。
func RecordToHistoryItem(record *db.HistoryRecord, assets []db.HistoryAsset) dto.HistoryItem {
	if record == nil {
		return dto.HistoryItem{}
	}

	attributes := record.Attributes
	if attributes == nil {
		attributes = common.JSONMap{}
	}

	return dto.HistoryItem{
		ID:             record.ID,
		Username:       record.Username,
		CreatedAt:      record.CreatedAt,
		Prompt:         record.Prompt,
		SourceImage:    record.SourceImage,
		SettingsMode:   record.SettingsMode,
		Attributes:     attributes,
		VideoParams:    record.VideoParams,
		Status:         record.Status,
		ErrorMessage:   record.ErrorMessage,
		EditedImages:   AssetsToSlotArray(assets, db.AssetKindEditedImage),
		OriginalImages: AssetsToSlotArray(assets, db.AssetKindOriginalImage),
		Videos:         AssetsToSlotArray(assets, db.AssetKindGeneratedVideo),
	}
}

// RecordsToHistoryItems 批量解码；assetsByRecord 以记录 ID 为键。
func RecordsToHistoryItems(records []db.HistoryRecord, assetsByRecord map[string][]db.HistoryAsset) []dto.HistoryItem {
	items := make([]dto.HistoryItem, len(records))
	for i, r := range records {
		record := r
		items[i] = RecordToHistoryItem(&record, assetsByRecord[r.ID])
	}
	return items
}
