package service

import (
	"context"
	"testing"

	"modelstudio/internal/entity/common"
)

func TestExtendSlots(t *testing.T) {
	tests := []struct {
		name        string
		input       common.SlotArray
		size        int
		expectedLen int
	}{
		{name: "已够长不扩展", input: common.NewSlotArray("a", "b"), size: 2, expectedLen: 2},
		{name: "补齐到目标长度", input: common.NewSlotArray("a"), size: 3, expectedLen: 3},
		{name: "空数组", input: common.SlotArray{}, size: 2, expectedLen: 2},
		{name: "目标为零", input: common.SlotArray{}, size: 0, expectedLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := extendSlots(tt.input, tt.size)
			if len(out) != tt.expectedLen {
				t.Errorf("expected length %d, got %d", tt.expectedLen, len(out))
			}
			// 新增槽位必须是空洞
			for i := len(tt.input); i < len(out); i++ {
				if out[i] != nil {
					t.Errorf("slot %d should be a hole, got %v", i, *out[i])
				}
			}
		})
	}
}

func TestReferenceDataURLs(t *testing.T) {
	svc := &GenerationService{}

	t.Run("data URL 原样透传", func(t *testing.T) {
		refs, err := svc.referenceDataURLs(context.Background(), "data:image/png;base64,aGVsbG8=")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(refs) != 1 || refs[0] != "data:image/png;base64,aGVsbG8=" {
			t.Errorf("unexpected refs: %v", refs)
		}
	})

	t.Run("空输入报错", func(t *testing.T) {
		if _, err := svc.referenceDataURLs(context.Background(), "   "); err == nil {
			t.Error("expected error for empty source image")
		}
	})
}
