package service

import (
	"fmt"
	"modelstudio/internal/entity/common"
	"modelstudio/internal/entity/db"
	"sort"
	"strings"
)

// basicAttributeOrder 基础模式下参与 prompt 的属性键及顺序。
var basicAttributeOrder = []string{
	"gender", "age", "ethnicity", "body_type",
}

// advancedAttributeOrder 高级模式在基础属性之外追加的键。
var advancedAttributeOrder = []string{
	"pose", "expression", "hair_style", "scene", "lighting", "camera_angle", "style",
}

const promptPreamble = "A professional fashion photography shot of a model wearing the provided clothing item."

// BuildPrompt 从属性包推导发给生成服务的最终 prompt。
// 已知键按固定顺序拼接；未知键排序后追加在末尾，保证前向兼容的
// 属性也能进入 prompt 且输出稳定可复现。
func BuildPrompt(settingsMode string, attributes common.JSONMap) string {
	var sb strings.Builder
	sb.WriteString(promptPreamble)

	known := make(map[string]struct{})
	appendAttribute := func(key string) {
		known[key] = struct{}{}
		value := attributes.GetString(key)
		if value == "" {
			return
		}
		sb.WriteString(fmt.Sprintf(" %s: %s.", strings.ReplaceAll(key, "_", " "), value))
	}

	for _, key := range basicAttributeOrder {
		appendAttribute(key)
	}
	if settingsMode == db.SettingsModeAdvanced {
		for _, key := range advancedAttributeOrder {
			appendAttribute(key)
		}
	}

	extras := make([]string, 0)
	for key := range attributes {
		if _, ok := known[key]; ok {
			continue
		}
		if value := attributes.GetString(key); value != "" {
			extras = append(extras, fmt.Sprintf("%s: %s.", strings.ReplaceAll(key, "_", " "), value))
		}
	}
	sort.Strings(extras)
	for _, extra := range extras {
		sb.WriteString(" " + extra)
	}

	return sb.String()
}
