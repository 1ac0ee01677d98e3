package converter

import (
	"testing"

	"modelstudio/internal/entity/common"
	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"
)

func strPtr(v string) *string {
	return &v
}

func TestSlotArrayToAssets(t *testing.T) {
	slots := common.SlotArray{strPtr("a.png"), nil, strPtr("c.png")}
	assets := SlotArrayToAssets("rec-1", db.AssetKindEditedImage, slots)

	if len(assets) != 2 {
		t.Fatalf("expected 2 rows (holes skipped), got %d", len(assets))
	}
	if assets[0].SlotIndex != 0 || assets[0].URL != "a.png" {
		t.Errorf("unexpected first row: %+v", assets[0])
	}
	if assets[1].SlotIndex != 2 || assets[1].URL != "c.png" {
		t.Errorf("unexpected second row: %+v", assets[1])
	}
	for _, a := range assets {
		if a.RecordID != "rec-1" || a.Kind != db.AssetKindEditedImage {
			t.Errorf("row metadata mismatch: %+v", a)
		}
	}
}

func TestAssetsToSlotArray(t *testing.T) {
	assets := []db.HistoryAsset{
		{RecordID: "rec-1", Kind: db.AssetKindEditedImage, SlotIndex: 0, URL: "a.png"},
		{RecordID: "rec-1", Kind: db.AssetKindEditedImage, SlotIndex: 2, URL: "c.png"},
		{RecordID: "rec-1", Kind: db.AssetKindGeneratedVideo, SlotIndex: 0, URL: "v.mp4"},
	}

	slots := AssetsToSlotArray(assets, db.AssetKindEditedImage)
	if len(slots) != 3 {
		t.Fatalf("expected length 3 (max index + 1), got %d", len(slots))
	}
	if slots[0] == nil || *slots[0] != "a.png" {
		t.Errorf("slot 0 mismatch: %v", slots[0])
	}
	if slots[1] != nil {
		t.Errorf("slot 1 should be a hole, got %v", *slots[1])
	}
	if slots[2] == nil || *slots[2] != "c.png" {
		t.Errorf("slot 2 mismatch: %v", slots[2])
	}

	videos := AssetsToSlotArray(assets, db.AssetKindGeneratedVideo)
	if len(videos) != 1 || videos[0] == nil || *videos[0] != "v.mp4" {
		t.Errorf("video slots mismatch: %v", videos)
	}

	empty := AssetsToSlotArray(assets, db.AssetKindOriginalImage)
	if len(empty) != 0 {
		t.Errorf("expected empty array for absent kind, got %v", empty)
	}
}

func TestHistoryItemRoundTrip(t *testing.T) {
	item := &dto.HistoryItem{
		ID:             "rec-1",
		Username:       "alice",
		CreatedAt:      1234,
		Prompt:         "a model in a coat",
		SourceImage:    "images/source.png",
		SettingsMode:   db.SettingsModeBasic,
		Attributes:     common.JSONMap{"gender": "female"},
		VideoParams:    common.JSONMap{db.VideoParamStatus: db.HistoryStatusProcessing},
		Status:         db.HistoryStatusProcessing,
		EditedImages:   common.SlotArray{strPtr("a.png"), nil, strPtr("c.png")},
		OriginalImages: common.SlotArray{nil, strPtr("b-old.png")},
		Videos:         make(common.SlotArray, 1),
	}

	record := HistoryItemToRecord(item)
	assets := HistoryItemAssets(item)
	back := RecordToHistoryItem(&record, assets)

	if back.ID != item.ID || back.Username != item.Username || back.CreatedAt != item.CreatedAt {
		t.Errorf("identity fields mismatch: %+v", back)
	}
	if back.Attributes.GetString("gender") != "female" {
		t.Errorf("attributes lost: %v", back.Attributes)
	}
	if !back.IsVideoJob() {
		t.Error("video params lost in round trip")
	}

	if len(back.EditedImages) != 3 || back.EditedImages[1] != nil {
		t.Errorf("edited slots mismatch: %v", back.EditedImages)
	}
	if len(back.OriginalImages) != 2 || back.OriginalImages[0] != nil {
		t.Errorf("original slots mismatch: %v", back.OriginalImages)
	}
	// 全空洞数组没有子行，重建后长度归零
	if len(back.Videos) != 0 {
		t.Errorf("all-hole array should rebuild empty, got %v", back.Videos)
	}
}

func TestRecordToHistoryItemNilAttributes(t *testing.T) {
	record := db.HistoryRecord{ID: "rec-1", Username: "alice"}
	item := RecordToHistoryItem(&record, nil)

	if item.Attributes == nil {
		t.Error("nil attributes should decode as empty document")
	}
	if item.VideoParams != nil {
		t.Error("absent video params must stay nil")
	}
	if item.IsVideoJob() {
		t.Error("record without video params reported as video job")
	}
}
